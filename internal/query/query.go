// Package query defines the read-side contract between the agent tools and a
// relational store.
package query

import (
	"context"
	"time"
)

type Column struct {
	Name     string
	Type     string
	Nullable bool
}

// Table is the schema of one table plus a handful of sample rows.
// SampleColumns names the columns of SampleRows, in order.
type Table struct {
	Name          string
	Columns       []Column
	SampleColumns []string
	SampleRows    [][]any
}

type Result struct {
	Columns   []string
	Rows      [][]any
	Truncated bool
	Duration  time.Duration
}

type Engine interface {
	Dialect() string
	ListTables(ctx context.Context) ([]string, error)
	DescribeTables(ctx context.Context, names []string) ([]Table, error)
	Execute(ctx context.Context, sqlText string) (Result, error)
	Ping(ctx context.Context) error
	Close() error
}
