package agent

import (
	"context"
	"errors"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/retailagent/retailagent/internal/query"
	"github.com/retailagent/retailagent/internal/sqlcheck"
)

// scriptedModel replays canned replies in order and records every input it saw.
type scriptedModel struct {
	mu      sync.Mutex
	replies []*schema.Message
	err     error
	inputs  [][]*schema.Message
	tools   []*schema.ToolInfo
}

func (m *scriptedModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inputs = append(m.inputs, append([]*schema.Message(nil), input...))
	if m.err != nil {
		return nil, m.err
	}
	if len(m.replies) == 0 {
		return nil, errors.New("script exhausted")
	}
	reply := m.replies[0]
	m.replies = m.replies[1:]
	return reply, nil
}

func (m *scriptedModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	reply, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{reply}), nil
}

func (m *scriptedModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tools = tools
	return m, nil
}

type fakeEngine struct {
	dialect     string
	tables      []string
	described   []string
	executed    []string
	result      query.Result
	executeErr  error
	describeErr error
}

func (e *fakeEngine) Dialect() string { return e.dialect }

func (e *fakeEngine) ListTables(context.Context) ([]string, error) {
	return e.tables, nil
}

func (e *fakeEngine) DescribeTables(_ context.Context, names []string) ([]query.Table, error) {
	e.described = append(e.described, names...)
	if e.describeErr != nil {
		return nil, e.describeErr
	}
	tables := make([]query.Table, 0, len(names))
	for _, name := range names {
		tables = append(tables, query.Table{
			Name:    name,
			Columns: []query.Column{{Name: "sku_id", Type: "INTEGER"}},
		})
	}
	return tables, nil
}

func (e *fakeEngine) Execute(_ context.Context, sqlText string) (query.Result, error) {
	e.executed = append(e.executed, sqlText)
	if e.executeErr != nil {
		return query.Result{}, e.executeErr
	}
	return e.result, nil
}

func (e *fakeEngine) Ping(context.Context) error { return nil }

func (e *fakeEngine) Close() error { return nil }

type fakeChecker struct {
	requests []sqlcheck.Request
}

func (c *fakeChecker) Check(_ context.Context, req sqlcheck.Request) (sqlcheck.Result, error) {
	c.requests = append(c.requests, req)
	return sqlcheck.Result{SQL: req.SQL + ";", Model: "fake"}, nil
}

func stopMessage(content string) *schema.Message {
	msg := schema.AssistantMessage(content, nil)
	msg.ResponseMeta = &schema.ResponseMeta{FinishReason: "stop"}
	return msg
}

func toolCallMessage(id, name, arguments string) *schema.Message {
	msg := schema.AssistantMessage("", []schema.ToolCall{{
		ID:   id,
		Type: "function",
		Function: schema.FunctionCall{
			Name:      name,
			Arguments: arguments,
		},
	}})
	msg.ResponseMeta = &schema.ResponseMeta{FinishReason: "tool_calls"}
	return msg
}
