package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/retailagent/retailagent/internal/query"
)

type EngineOptions struct {
	// SampleRows is the number of example rows DescribeTables attaches to
	// each table.
	SampleRows int
	// MaxRows caps Execute results; zero means unlimited.
	MaxRows      int
	ReadOnly     bool
	IgnoreTables []string
}

type Engine struct {
	db      *sql.DB
	dialect Dialect
	opts    EngineOptions
	ignore  map[string]struct{}
}

var _ query.Engine = (*Engine)(nil)

func NewEngine(db *sql.DB, dialect Dialect, opts EngineOptions) *Engine {
	ignore := make(map[string]struct{}, len(opts.IgnoreTables))
	for _, name := range opts.IgnoreTables {
		ignore[strings.ToLower(name)] = struct{}{}
	}
	return &Engine{db: db, dialect: dialect, opts: opts, ignore: ignore}
}

func (e *Engine) Dialect() string {
	return e.dialect.Name
}

func (e *Engine) DB() *sql.DB {
	return e.db
}

func (e *Engine) Ping(ctx context.Context) error {
	return e.db.PingContext(ctx)
}

func (e *Engine) Close() error {
	return e.db.Close()
}

func (e *Engine) ListTables(ctx context.Context) ([]string, error) {
	rows, err := e.db.QueryContext(ctx, e.dialect.ListTablesSQL())
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	tables := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		if _, skip := e.ignore[strings.ToLower(name)]; skip {
			continue
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate table names: %w", err)
	}
	sort.Strings(tables)
	return tables, nil
}

// DescribeTables returns column metadata and sample rows for the named tables,
// or for every usable table when names is empty. Unknown names are an error.
func (e *Engine) DescribeTables(ctx context.Context, names []string) ([]query.Table, error) {
	available, err := e.ListTables(ctx)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		names = available
	}

	known := make(map[string]string, len(available))
	for _, name := range available {
		known[strings.ToLower(name)] = name
	}
	resolved := make([]string, 0, len(names))
	missing := make([]string, 0)
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		actual, ok := known[strings.ToLower(name)]
		if !ok {
			missing = append(missing, name)
			continue
		}
		resolved = append(resolved, actual)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("table_names %s not found in database", strings.Join(missing, ", "))
	}

	tables := make([]query.Table, 0, len(resolved))
	for _, name := range resolved {
		table, err := e.describeTable(ctx, name)
		if err != nil {
			return nil, err
		}
		tables = append(tables, table)
	}
	return tables, nil
}

func (e *Engine) describeTable(ctx context.Context, name string) (query.Table, error) {
	rows, err := e.db.QueryContext(ctx, e.dialect.SampleSQL(name, e.opts.SampleRows))
	if err != nil {
		return query.Table{}, fmt.Errorf("describe table %q: %w", name, err)
	}
	defer func() { _ = rows.Close() }()

	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return query.Table{}, fmt.Errorf("column types for %q: %w", name, err)
	}
	table := query.Table{Name: name, Columns: make([]query.Column, 0, len(columnTypes))}
	for _, columnType := range columnTypes {
		nullable, ok := columnType.Nullable()
		if !ok {
			nullable = true
		}
		table.Columns = append(table.Columns, query.Column{
			Name:     columnType.Name(),
			Type:     strings.ToUpper(columnType.DatabaseTypeName()),
			Nullable: nullable,
		})
	}

	sampleRows, err := scanRows(rows, len(columnTypes), 0)
	if err != nil {
		return query.Table{}, fmt.Errorf("sample rows for %q: %w", name, err)
	}
	if e.opts.SampleRows > 0 {
		table.SampleColumns = make([]string, 0, len(table.Columns))
		for _, column := range table.Columns {
			table.SampleColumns = append(table.SampleColumns, column.Name)
		}
		table.SampleRows = sampleRows
	}
	return table, nil
}

func (e *Engine) Execute(ctx context.Context, sqlText string) (query.Result, error) {
	sqlText = stripTrailingSemicolons(sqlText)
	if sqlText == "" {
		return query.Result{}, fmt.Errorf("sql is required")
	}
	if e.opts.ReadOnly {
		if err := CheckReadOnly(sqlText); err != nil {
			return query.Result{}, err
		}
	}

	start := time.Now()
	rows, err := e.db.QueryContext(ctx, sqlText)
	if err != nil {
		return query.Result{}, fmt.Errorf("execute query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return query.Result{}, fmt.Errorf("query columns: %w", err)
	}

	limit := e.opts.MaxRows
	resultRows, err := scanRows(rows, len(columns), limit)
	if err != nil {
		return query.Result{}, err
	}
	truncated := false
	if limit > 0 && len(resultRows) > limit {
		resultRows = resultRows[:limit]
		truncated = true
	}

	return query.Result{
		Columns:   columns,
		Rows:      resultRows,
		Truncated: truncated,
		Duration:  time.Since(start),
	}, nil
}

// scanRows reads at most limit+1 rows so callers can tell whether more were
// available. A zero limit reads everything.
func scanRows(rows *sql.Rows, width, limit int) ([][]any, error) {
	resultRows := make([][]any, 0)
	for rows.Next() {
		values := make([]any, width)
		scanTargets := make([]any, width)
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		resultRows = append(resultRows, normalizeValues(values))
		if limit > 0 && len(resultRows) > limit {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return resultRows, nil
}

func normalizeValues(values []any) []any {
	normalized := make([]any, len(values))
	for i, value := range values {
		switch typed := value.(type) {
		case []byte:
			normalized[i] = string(typed)
		default:
			normalized[i] = typed
		}
	}
	return normalized
}
