// Package sqlcheck asks a language model to review a SQL query for common
// mistakes before the agent runs it.
package sqlcheck

import "context"

type Request struct {
	Dialect string `json:"dialect"`
	SQL     string `json:"sql"`
}

type Result struct {
	SQL   string `json:"sql"`
	Model string `json:"model"`
}

type Checker interface {
	Check(ctx context.Context, req Request) (Result, error)
}
