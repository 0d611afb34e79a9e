package querybuilder

import (
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	apperrors "github.com/osamikoyo/loanflow/errors"
)

var (
	ErrNothingToBuild    = errors.New("no permitted fields to build query from")
	ErrInvalidIdentifier = errors.New("invalid sql identifier")
	ErrMissingWhere      = errors.New("update requires at least one where condition")
)

// nothingToBuild classifies an empty filtered field set as a validation failure.
func nothingToBuild() error {
	return apperrors.NewApplicationError(apperrors.ErrorTypeValidation, "no fields to build query from", ErrNothingToBuild)
}

// SetClause is the body of an UPDATE ... SET.
type SetClause struct {
	Text string
	Args []any
}

// InsertClause is the column and VALUES lists of an INSERT.
type InsertClause struct {
	Columns      string
	Placeholders string
	Args         []any
}

// Statement is rendered SQL with its positional arguments.
type Statement struct {
	SQL  string
	Args []any
}

// Eq is one column = value condition.
type Eq struct {
	Column string
	Value  any
}

// BuildUpdate renders "a = ?, b = ?" for the permitted keys of data.
func BuildUpdate(allowed AllowList, data map[string]any, d Dialect) (SetClause, error) {
	fields := allowed.Pick(data)
	if len(fields) == 0 {
		return SetClause{}, nothingToBuild()
	}

	parts := make([]string, len(fields))
	args := make([]any, len(fields))

	for i, f := range fields {
		parts[i] = f + " = " + d.Placeholder(i+1)
		args[i] = data[f]
	}

	return SetClause{Text: strings.Join(parts, ", "), Args: args}, nil
}

// BuildInsert renders "(a, b)" and "(?, ?)" for the permitted keys of data.
func BuildInsert(allowed AllowList, data map[string]any, d Dialect) (InsertClause, error) {
	fields := allowed.Pick(data)
	if len(fields) == 0 {
		return InsertClause{}, nothingToBuild()
	}

	placeholders := make([]string, len(fields))
	args := make([]any, len(fields))

	for i, f := range fields {
		placeholders[i] = d.Placeholder(i + 1)
		args[i] = data[f]
	}

	return InsertClause{
		Columns:      "(" + strings.Join(fields, ", ") + ")",
		Placeholders: "(" + strings.Join(placeholders, ", ") + ")",
		Args:         args,
	}, nil
}

type UpdateBuilder struct {
	table   string
	allowed AllowList
	dialect Dialect
	set     map[string]any
	where   []Eq
}

func NewUpdate(table string, allowed AllowList, d Dialect) *UpdateBuilder {
	return &UpdateBuilder{table: table, allowed: allowed, dialect: d}
}

func (b *UpdateBuilder) Set(data map[string]any) *UpdateBuilder {
	b.set = data
	return b
}

// Where appends conditions; their values follow the SET values in Args.
func (b *UpdateBuilder) Where(conds ...Eq) *UpdateBuilder {
	b.where = append(b.where, conds...)
	return b
}

func (b *UpdateBuilder) Build() (Statement, error) {
	if !validIdentifier(b.table) {
		return Statement{}, fmt.Errorf("%w: table %q", ErrInvalidIdentifier, b.table)
	}
	if len(b.where) == 0 {
		return Statement{}, ErrMissingWhere
	}

	fields := b.allowed.Pick(b.set)
	if len(fields) == 0 {
		return Statement{}, nothingToBuild()
	}

	q := sq.Update(b.table).PlaceholderFormat(b.dialect.Format())
	for _, f := range fields {
		q = q.Set(f, b.set[f])
	}

	for _, w := range b.where {
		if !validIdentifier(w.Column) {
			return Statement{}, fmt.Errorf("%w: where column %q", ErrInvalidIdentifier, w.Column)
		}
		q = q.Where(sq.Eq{w.Column: w.Value})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return Statement{}, err
	}

	return Statement{SQL: sql, Args: args}, nil
}

type InsertBuilder struct {
	table   string
	allowed AllowList
	dialect Dialect
	values  map[string]any
}

func NewInsert(table string, allowed AllowList, d Dialect) *InsertBuilder {
	return &InsertBuilder{table: table, allowed: allowed, dialect: d}
}

func (b *InsertBuilder) Values(data map[string]any) *InsertBuilder {
	b.values = data
	return b
}

func (b *InsertBuilder) Build() (Statement, error) {
	if !validIdentifier(b.table) {
		return Statement{}, fmt.Errorf("%w: table %q", ErrInvalidIdentifier, b.table)
	}

	fields := b.allowed.Pick(b.values)
	if len(fields) == 0 {
		return Statement{}, nothingToBuild()
	}

	args := make([]any, len(fields))
	for i, f := range fields {
		args[i] = b.values[f]
	}

	sql, args, err := sq.Insert(b.table).
		Columns(fields...).
		Values(args...).
		PlaceholderFormat(b.dialect.Format()).
		ToSql()
	if err != nil {
		return Statement{}, err
	}

	return Statement{SQL: sql, Args: args}, nil
}

// Select renders SELECT * filtered by equality conditions, ANDed in order.
func Select(table string, d Dialect, where ...Eq) (Statement, error) {
	if !validIdentifier(table) {
		return Statement{}, fmt.Errorf("%w: table %q", ErrInvalidIdentifier, table)
	}

	q := sq.Select("*").From(table).PlaceholderFormat(d.Format())

	for _, w := range where {
		if !validIdentifier(w.Column) {
			return Statement{}, fmt.Errorf("%w: where column %q", ErrInvalidIdentifier, w.Column)
		}
		q = q.Where(sq.Eq{w.Column: w.Value})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return Statement{}, err
	}

	return Statement{SQL: sql, Args: args}, nil
}
