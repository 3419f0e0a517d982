package sqldb

import (
	"strconv"
	"strings"
)

type ColumnKind int

const (
	KindInteger ColumnKind = iota
	KindReal
	KindText
)

// Dialect captures the handful of places where the supported stores disagree
// on SQL syntax.
type Dialect struct {
	Name          string
	listTablesSQL string
	quoteOpen     string
	quoteClose    string
	placeholder   func(n int) string
	useTop        bool
	columnTypes   map[ColumnKind]string
}

var (
	SQLite = Dialect{
		Name:          "sqlite",
		listTablesSQL: `SELECT name FROM sqlite_master WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite_%' ORDER BY name`,
		quoteOpen:     `"`,
		quoteClose:    `"`,
		placeholder:   questionMark,
		columnTypes:   map[ColumnKind]string{KindInteger: "INTEGER", KindReal: "REAL", KindText: "TEXT"},
	}
	DuckDB = Dialect{
		Name:          "duckdb",
		listTablesSQL: `SELECT table_name FROM information_schema.tables WHERE table_schema = current_schema() ORDER BY table_name`,
		quoteOpen:     `"`,
		quoteClose:    `"`,
		placeholder:   questionMark,
		columnTypes:   map[ColumnKind]string{KindInteger: "BIGINT", KindReal: "DOUBLE", KindText: "VARCHAR"},
	}
	PostgreSQL = Dialect{
		Name:          "postgresql",
		listTablesSQL: `SELECT table_name FROM information_schema.tables WHERE table_schema = current_schema() ORDER BY table_name`,
		quoteOpen:     `"`,
		quoteClose:    `"`,
		placeholder:   func(n int) string { return "$" + strconv.Itoa(n) },
		columnTypes:   map[ColumnKind]string{KindInteger: "BIGINT", KindReal: "DOUBLE PRECISION", KindText: "TEXT"},
	}
	MySQL = Dialect{
		Name:          "mysql",
		listTablesSQL: `SELECT table_name AS table_name FROM information_schema.tables WHERE table_schema = DATABASE() ORDER BY table_name`,
		quoteOpen:     "`",
		quoteClose:    "`",
		placeholder:   questionMark,
		columnTypes:   map[ColumnKind]string{KindInteger: "BIGINT", KindReal: "DOUBLE", KindText: "VARCHAR(255)"},
	}
	SQLServer = Dialect{
		Name:          "mssql",
		listTablesSQL: `SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_SCHEMA = SCHEMA_NAME() ORDER BY TABLE_NAME`,
		quoteOpen:     "[",
		quoteClose:    "]",
		placeholder:   func(n int) string { return "@p" + strconv.Itoa(n) },
		useTop:        true,
		columnTypes:   map[ColumnKind]string{KindInteger: "BIGINT", KindReal: "FLOAT", KindText: "NVARCHAR(255)"},
	}
)

func questionMark(int) string { return "?" }

func (d Dialect) ListTablesSQL() string {
	return d.listTablesSQL
}

func (d Dialect) QuoteIdent(name string) string {
	return d.quoteOpen + strings.ReplaceAll(name, d.quoteClose, d.quoteClose+d.quoteClose) + d.quoteClose
}

// Placeholder returns the bind marker for the n-th (1-based) argument.
func (d Dialect) Placeholder(n int) string {
	return d.placeholder(n)
}

func (d Dialect) Placeholders(count int) string {
	markers := make([]string, count)
	for i := range markers {
		markers[i] = d.Placeholder(i + 1)
	}
	return strings.Join(markers, ", ")
}

// SampleSQL selects up to limit rows from table. A zero limit still yields the
// column metadata.
func (d Dialect) SampleSQL(table string, limit int) string {
	if limit < 0 {
		limit = 0
	}
	if d.useTop {
		return "SELECT TOP " + strconv.Itoa(limit) + " * FROM " + d.QuoteIdent(table)
	}
	return "SELECT * FROM " + d.QuoteIdent(table) + " LIMIT " + strconv.Itoa(limit)
}

func (d Dialect) ColumnType(kind ColumnKind) string {
	if value, ok := d.columnTypes[kind]; ok {
		return value
	}
	return d.columnTypes[KindText]
}

func (d Dialect) DropTableIfExistsSQL(table string) string {
	return "DROP TABLE IF EXISTS " + d.QuoteIdent(table)
}
