package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/retailagent/retailagent/internal/query/sqldb"
)

// Write replaces the five tables in db with the contents of ds inside one
// transaction.
func Write(ctx context.Context, db *sql.DB, dialect sqldb.Dialect, ds Dataset) (err error) {
	if db == nil {
		return fmt.Errorf("database handle is required")
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin dataset transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, table := range ds.Tables() {
		if err = writeTable(ctx, tx, dialect, table); err != nil {
			return err
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit dataset transaction: %w", err)
	}
	return nil
}

func writeTable(ctx context.Context, tx *sql.Tx, dialect sqldb.Dialect, table Table) error {
	if _, err := tx.ExecContext(ctx, dialect.DropTableIfExistsSQL(table.Name)); err != nil {
		return fmt.Errorf("drop table %s: %w", table.Name, err)
	}
	if _, err := tx.ExecContext(ctx, CreateTableSQL(dialect, table)); err != nil {
		return fmt.Errorf("create table %s: %w", table.Name, err)
	}
	if len(table.Rows) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, InsertSQL(dialect, table))
	if err != nil {
		return fmt.Errorf("prepare insert into %s: %w", table.Name, err)
	}
	defer func() { _ = stmt.Close() }()
	for i, row := range table.Rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return fmt.Errorf("insert row %d into %s: %w", i, table.Name, err)
		}
	}
	return nil
}

func CreateTableSQL(dialect sqldb.Dialect, table Table) string {
	columns := make([]string, 0, len(table.Columns))
	for _, column := range table.Columns {
		columns = append(columns, dialect.QuoteIdent(column.Name)+" "+dialect.ColumnType(column.Kind))
	}
	return "CREATE TABLE " + dialect.QuoteIdent(table.Name) + " (" + strings.Join(columns, ", ") + ")"
}

func InsertSQL(dialect sqldb.Dialect, table Table) string {
	columns := make([]string, 0, len(table.Columns))
	for _, column := range table.Columns {
		columns = append(columns, dialect.QuoteIdent(column.Name))
	}
	return "INSERT INTO " + dialect.QuoteIdent(table.Name) +
		" (" + strings.Join(columns, ", ") + ") VALUES (" + dialect.Placeholders(len(columns)) + ")"
}
