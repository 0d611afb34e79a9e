package querybuilder

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

// Dialect defines the bind parameter syntax of a database.
type Dialect interface {
	// Placeholder returns the placeholder for the 1-based parameter index.
	Placeholder(index int) string
	// Format is the matching squirrel placeholder format.
	Format() sq.PlaceholderFormat
	Name() string
}

type questionDialect struct{}

func (questionDialect) Placeholder(int) string { return "?" }
func (questionDialect) Format() sq.PlaceholderFormat { return sq.Question }
func (questionDialect) Name() string { return "question" }

type dollarDialect struct{}

func (dollarDialect) Placeholder(index int) string { return fmt.Sprintf("$%d", index) }
func (dollarDialect) Format() sq.PlaceholderFormat { return sq.Dollar }
func (dollarDialect) Name() string { return "dollar" }

var (
	// Question is used by sqlite and mysql.
	Question Dialect = questionDialect{}
	// Dollar is used by postgres drivers.
	Dollar Dialect = dollarDialect{}
)

// DialectFor returns the dialect of a database/sql driver name.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "sqlite3", "sqlite", "mysql":
		return Question, nil
	case "pgx", "postgres":
		return Dollar, nil
	default:
		return nil, fmt.Errorf("no dialect for driver %q", driver)
	}
}
