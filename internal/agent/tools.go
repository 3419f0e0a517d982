package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"github.com/retailagent/retailagent/internal/observability"
	"github.com/retailagent/retailagent/internal/query"
	"github.com/retailagent/retailagent/internal/sqlcheck"
)

const (
	ToolListTables   = "sql_db_list_tables"
	ToolSchema       = "sql_db_schema"
	ToolQuery        = "sql_db_query"
	ToolQueryChecker = "sql_db_query_checker"
)

// dbTool adapts one database operation to the eino tool contract. Failures
// are handed back to the model as text so it can rewrite its query.
type dbTool struct {
	info   *schema.ToolInfo
	run    func(ctx context.Context, args map[string]string) (string, error)
	logger *slog.Logger
}

var _ tool.InvokableTool = (*dbTool)(nil)

func (t *dbTool) Info(context.Context) (*schema.ToolInfo, error) {
	return t.info, nil
}

func (t *dbTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	start := time.Now()
	args, err := decodeArguments(argumentsInJSON)
	var output string
	if err == nil {
		output, err = t.run(ctx, args)
	}
	elapsed := time.Since(start)
	observability.ObserveToolCall(t.info.Name, err != nil, elapsed)

	attrs := []any{
		slog.String("trace_id", observability.TraceIDFromContext(ctx)),
		slog.String("thread_id", ThreadIDFromContext(ctx)),
		slog.String("tool", t.info.Name),
		slog.String("duration", elapsed.String()),
	}
	if err != nil {
		t.logger.WarnContext(ctx, "agent_tool_failed", append(attrs, slog.String("error", err.Error()))...)
		return "Error: " + err.Error(), nil
	}
	t.logger.DebugContext(ctx, "agent_tool", attrs...)
	return output, nil
}

// NewTools returns the database toolset bound to engine. The query checker
// tool is only offered when checker is non-nil.
func NewTools(engine query.Engine, checker sqlcheck.Checker, logger *slog.Logger) []tool.BaseTool {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	tools := []tool.BaseTool{
		&dbTool{
			info: &schema.ToolInfo{
				Name: ToolQuery,
				Desc: "Input to this tool is a detailed and correct SQL query, output is a result from the database. " +
					"If the query is not correct, an error message will be returned. " +
					"If an error is returned, rewrite the query, check the query, and try again. " +
					"If you encounter an issue with an unknown column, use " + ToolSchema + " to query the correct table fields.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"query": {Type: schema.String, Desc: "A detailed and correct SQL query.", Required: true},
				}),
			},
			run: func(ctx context.Context, args map[string]string) (string, error) {
				sqlText := strings.TrimSpace(args["query"])
				if sqlText == "" {
					return "", fmt.Errorf("query is required")
				}
				result, err := engine.Execute(ctx, sqlText)
				if err != nil {
					return "", err
				}
				return query.FormatResult(result), nil
			},
			logger: logger,
		},
		&dbTool{
			info: &schema.ToolInfo{
				Name: ToolSchema,
				Desc: "Input to this tool is a comma-separated list of tables, output is the schema and sample rows for those tables. " +
					"Be sure that the tables actually exist by calling " + ToolListTables + " first! " +
					"Example Input: table1, table2, table3",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"table_names": {Type: schema.String, Desc: "A comma-separated list of the table names for which to return the schema.", Required: true},
				}),
			},
			run: func(ctx context.Context, args map[string]string) (string, error) {
				names := splitTableNames(args["table_names"])
				if len(names) == 0 {
					return "", fmt.Errorf("table_names is required")
				}
				tables, err := engine.DescribeTables(ctx, names)
				if err != nil {
					return "", err
				}
				return query.FormatTables(tables), nil
			},
			logger: logger,
		},
		&dbTool{
			info: &schema.ToolInfo{
				Name: ToolListTables,
				Desc: "Input is an empty string, output is a comma-separated list of tables in the database.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"tool_input": {Type: schema.String, Desc: "An empty string."},
				}),
			},
			run: func(ctx context.Context, _ map[string]string) (string, error) {
				tables, err := engine.ListTables(ctx)
				if err != nil {
					return "", err
				}
				return strings.Join(tables, ", "), nil
			},
			logger: logger,
		},
	}

	if checker != nil {
		tools = append(tools, &dbTool{
			info: &schema.ToolInfo{
				Name: ToolQueryChecker,
				Desc: "Use this tool to double check if your query is correct before executing it. " +
					"Always use this tool before executing a query with " + ToolQuery + "!",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"query": {Type: schema.String, Desc: "A detailed SQL query to be checked.", Required: true},
				}),
			},
			run: func(ctx context.Context, args map[string]string) (string, error) {
				sqlText := strings.TrimSpace(args["query"])
				if sqlText == "" {
					return "", fmt.Errorf("query is required")
				}
				result, err := checker.Check(ctx, sqlcheck.Request{
					Dialect: DialectDisplayName(engine.Dialect()),
					SQL:     sqlText,
				})
				if err != nil {
					return "", err
				}
				return result.SQL, nil
			},
			logger: logger,
		})
	}
	return tools
}

// decodeArguments accepts the JSON object a model sends as tool arguments.
// Non-string values are rendered with their JSON text.
func decodeArguments(argumentsInJSON string) (map[string]string, error) {
	argumentsInJSON = strings.TrimSpace(argumentsInJSON)
	if argumentsInJSON == "" || argumentsInJSON == "null" {
		return map[string]string{}, nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(argumentsInJSON), &raw); err != nil {
		return nil, fmt.Errorf("invalid tool arguments: %w", err)
	}
	args := make(map[string]string, len(raw))
	for key, value := range raw {
		var text string
		if err := json.Unmarshal(value, &text); err == nil {
			args[key] = text
			continue
		}
		args[key] = string(value)
	}
	return args, nil
}

func splitTableNames(value string) []string {
	parts := strings.Split(value, ",")
	names := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.Trim(strings.TrimSpace(part), "`\"[]")
		if part != "" {
			names = append(names, part)
		}
	}
	return names
}
