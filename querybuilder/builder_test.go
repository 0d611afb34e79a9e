package querybuilder

import (
	"strings"
	"testing"

	apperrors "github.com/osamikoyo/loanflow/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bankFields = MustAllowList("loan_tenure", "xyz", "requested_tenure", "requested_amt")

func TestAllowList(t *testing.T) {
	a, err := NewAllowList("b", "a", "b")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, a.Fields())
	assert.True(t, a.Contains("a"))
	assert.False(t, a.Contains("c"))

	_, err = NewAllowList("ok", "drop table")
	assert.ErrorIs(t, err, ErrInvalidIdentifier)

	assert.Panics(t, func() { MustAllowList("1bad") })
}

func TestBuildInsert(t *testing.T) {
	tests := []struct {
		name    string
		data    map[string]any
		columns string
		holders string
		args    []any
	}{
		{
			name:    "keeps only permitted keys in declaration order",
			data:    map[string]any{"requested_amt": 100, "evil; --": 1, "loan_tenure": 60},
			columns: "(loan_tenure, requested_amt)",
			holders: "(?, ?)",
			args:    []any{60, 100},
		},
		{
			name:    "nil values are still columns",
			data:    map[string]any{"xyz": nil},
			columns: "(xyz)",
			holders: "(?)",
			args:    []any{nil},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ins, err := BuildInsert(bankFields, tt.data, Question)
			require.NoError(t, err)

			assert.Equal(t, tt.columns, ins.Columns)
			assert.Equal(t, tt.holders, ins.Placeholders)
			assert.Equal(t, tt.args, ins.Args)
			assert.Equal(t, strings.Count(ins.Columns, ",")+1, len(ins.Args))
		})
	}
}

func TestBuildInsertEmpty(t *testing.T) {
	_, err := BuildInsert(bankFields, map[string]any{}, Question)
	assert.ErrorIs(t, err, ErrNothingToBuild)

	_, err = BuildInsert(bankFields, map[string]any{"fname": "x"}, Question)
	assert.ErrorIs(t, err, ErrNothingToBuild)

	_, err = BuildUpdate(bankFields, nil, Question)
	assert.ErrorIs(t, err, ErrNothingToBuild)
}

func TestBuildInsertMatchesIntersection(t *testing.T) {
	data := map[string]any{
		"loan_tenure":   1,
		"xyz":           2,
		"fname":         3,
		"requested_amt": 4,
		"lname":         5,
	}

	ins, err := BuildInsert(bankFields, data, Dollar)
	require.NoError(t, err)

	assert.Equal(t, "(loan_tenure, xyz, requested_amt)", ins.Columns)
	assert.Equal(t, "($1, $2, $3)", ins.Placeholders)
	assert.Equal(t, []any{1, 2, 4}, ins.Args)
}

func TestBuildUpdate(t *testing.T) {
	set, err := BuildUpdate(bankFields, map[string]any{"requested_tenure": 12, "loan_tenure": 60, "user_id": "u"}, Question)
	require.NoError(t, err)

	assert.Equal(t, "loan_tenure = ?, requested_tenure = ?", set.Text)
	assert.Equal(t, []any{60, 12}, set.Args)
}

func TestUpdateBuilderParameterOrder(t *testing.T) {
	tests := []struct {
		name    string
		dialect Dialect
		sql     string
	}{
		{
			name:    "question",
			dialect: Question,
			sql:     "UPDATE loan_dev SET loan_tenure = ?, requested_amt = ? WHERE user_id = ? AND loan_id = ?",
		},
		{
			name:    "dollar numbering continues into where",
			dialect: Dollar,
			sql:     "UPDATE loan_dev SET loan_tenure = $1, requested_amt = $2 WHERE user_id = $3 AND loan_id = $4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt, err := NewUpdate("loan_dev", bankFields, tt.dialect).
				Set(map[string]any{"requested_amt": 500, "loan_tenure": 72}).
				Where(Eq{"user_id", "u1"}, Eq{"loan_id", "l1"}).
				Build()
			require.NoError(t, err)

			assert.Equal(t, tt.sql, stmt.SQL)
			assert.Equal(t, []any{72, 500, "u1", "l1"}, stmt.Args)
		})
	}
}

func TestUpdateBuilderKeepsDuplicateWhereValues(t *testing.T) {
	stmt, err := NewUpdate("loan_dev", bankFields, Question).
		Set(map[string]any{"loan_tenure": "same"}).
		Where(Eq{"user_id", "same"}, Eq{"loan_id", "same"}).
		Build()
	require.NoError(t, err)

	assert.Equal(t, strings.Count(stmt.SQL, "?"), len(stmt.Args))
}

func TestUpdateBuilderErrors(t *testing.T) {
	_, err := NewUpdate("loan_dev", bankFields, Question).Set(map[string]any{"loan_tenure": 1}).Build()
	assert.ErrorIs(t, err, ErrMissingWhere)

	_, err = NewUpdate("loan_dev", bankFields, Question).
		Set(map[string]any{"loan_tenure": 1}).
		Where(Eq{"user_id = 1 OR 1", 1}).
		Build()
	assert.ErrorIs(t, err, ErrInvalidIdentifier)

	_, err = NewUpdate("loan dev", bankFields, Question).
		Set(map[string]any{"loan_tenure": 1}).
		Where(Eq{"user_id", 1}).
		Build()
	assert.ErrorIs(t, err, ErrInvalidIdentifier)

	_, err = NewUpdate("loan_dev", bankFields, Question).
		Set(map[string]any{"fname": 1}).
		Where(Eq{"user_id", 1}).
		Build()
	assert.ErrorIs(t, err, ErrNothingToBuild)
}

func TestBuildersFollowDeclarationOrder(t *testing.T) {
	fields := MustAllowList("z_col", "a_col", "m_col")
	data := map[string]any{"m_col": "m", "a_col": "a", "z_col": "z", "other": "x"}

	upd, err := NewUpdate("loan_dev", fields, Dollar).
		Set(data).
		Where(Eq{"user_id", "u1"}, Eq{"loan_id", "l1"}).
		Build()
	require.NoError(t, err)
	assert.Equal(t, "UPDATE loan_dev SET z_col = $1, a_col = $2, m_col = $3 WHERE user_id = $4 AND loan_id = $5", upd.SQL)
	assert.Equal(t, []any{"z", "a", "m", "u1", "l1"}, upd.Args)

	ins, err := NewInsert("loan_dev", fields, Question).Values(data).Build()
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO loan_dev (z_col,a_col,m_col) VALUES (?,?,?)", ins.SQL)
	assert.Equal(t, []any{"z", "a", "m"}, ins.Args)
}

func TestNothingToBuildIsValidation(t *testing.T) {
	_, err := NewInsert("loan_dev", bankFields, Question).Values(map[string]any{"fname": "x"}).Build()
	assert.ErrorIs(t, err, ErrNothingToBuild)
	assert.Equal(t, apperrors.ErrorTypeValidation, apperrors.GetErrorType(err))

	_, err = NewUpdate("loan_dev", bankFields, Question).
		Set(nil).
		Where(Eq{"user_id", "u1"}).
		Build()
	assert.Equal(t, apperrors.ErrorTypeValidation, apperrors.GetErrorType(err))

	_, err = BuildUpdate(bankFields, map[string]any{}, Question)
	assert.Equal(t, apperrors.ErrorTypeValidation, apperrors.GetErrorType(err))

	_, err = BuildInsert(bankFields, map[string]any{}, Dollar)
	assert.Equal(t, apperrors.ErrorTypeValidation, apperrors.GetErrorType(err))
}

func TestInsertBuilder(t *testing.T) {
	stmt, err := NewInsert("loan_prod", bankFields, Dollar).
		Values(map[string]any{"xyz": "a", "loan_tenure": 3}).
		Build()
	require.NoError(t, err)

	assert.Equal(t, "INSERT INTO loan_prod (loan_tenure,xyz) VALUES ($1,$2)", stmt.SQL)
	assert.Equal(t, []any{3, "a"}, stmt.Args)
}

func TestSelect(t *testing.T) {
	stmt, err := Select("loan_dev", Question, Eq{"user_id", "u1"})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM loan_dev WHERE user_id = ?", stmt.SQL)
	assert.Equal(t, []any{"u1"}, stmt.Args)

	stmt, err = Select("loan_dev", Dollar, Eq{"user_id", "u1"}, Eq{"loan_id", "l1"})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM loan_dev WHERE user_id = $1 AND loan_id = $2", stmt.SQL)
	assert.Equal(t, []any{"u1", "l1"}, stmt.Args)

	_, err = Select("loan_dev;", Question)
	assert.ErrorIs(t, err, ErrInvalidIdentifier)
}

func TestDialectFor(t *testing.T) {
	for driver, want := range map[string]Dialect{
		"sqlite3":  Question,
		"sqlite":   Question,
		"mysql":    Question,
		"pgx":      Dollar,
		"postgres": Dollar,
	} {
		d, err := DialectFor(driver)
		require.NoError(t, err, driver)
		assert.Equal(t, want.Name(), d.Name(), driver)
	}

	_, err := DialectFor("oracle")
	assert.Error(t, err)
}
