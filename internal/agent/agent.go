// Package agent answers natural-language questions about the retail database
// with a ReAct tool-calling loop over the SQL tools.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/flow/agent/react"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	"github.com/retailagent/retailagent/internal/memory"
	"github.com/retailagent/retailagent/internal/observability"
	"github.com/retailagent/retailagent/internal/query"
	"github.com/retailagent/retailagent/internal/sqlcheck"
)

// Fallback answers. They are deliberately different strings so callers can
// tell an empty final answer from a loop that never finished.
const (
	DontKnow   = "I don't know"
	NoResponse = "No response received"
)

const finishReasonStop = "stop"

var ErrEmptyQuestion = errors.New("question is required")

type Config struct {
	Model    model.ToolCallingChatModel
	Engine   query.Engine
	Checker  sqlcheck.Checker
	Memory   memory.Store
	MaxSteps int
	TopK     int
	Logger   *slog.Logger
}

type Agent struct {
	generate func(ctx context.Context, input []*schema.Message) (*schema.Message, error)
	memory   memory.Store
	logger   *slog.Logger
}

func New(ctx context.Context, cfg Config) (*Agent, error) {
	if cfg.Model == nil {
		return nil, fmt.Errorf("chat model is required")
	}
	if cfg.Engine == nil {
		return nil, fmt.Errorf("query engine is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	store := cfg.Memory
	if store == nil {
		store = memory.Nop{}
	}
	maxSteps := cfg.MaxSteps
	if maxSteps <= 0 {
		maxSteps = 25
	}

	systemPrompt := SystemPrompt(cfg.Engine.Dialect(), cfg.TopK)
	runner, err := react.NewAgent(ctx, &react.AgentConfig{
		ToolCallingModel: cfg.Model,
		ToolsConfig: compose.ToolsNodeConfig{
			Tools: NewTools(cfg.Engine, cfg.Checker, logger),
		},
		MessageModifier: func(_ context.Context, input []*schema.Message) []*schema.Message {
			messages := make([]*schema.Message, 0, len(input)+1)
			messages = append(messages, schema.SystemMessage(systemPrompt))
			return append(messages, input...)
		},
		MaxStep: maxSteps,
	})
	if err != nil {
		return nil, fmt.Errorf("build react agent: %w", err)
	}

	return &Agent{
		generate: func(ctx context.Context, input []*schema.Message) (*schema.Message, error) {
			return runner.Generate(ctx, input)
		},
		memory: store,
		logger: logger,
	}, nil
}

// Answer runs one question through the agent loop. The conversation thread
// comes from ctx (see WithThreadID); without one the question gets a fresh
// thread of its own.
func (a *Agent) Answer(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", ErrEmptyQuestion
	}
	threadID := ThreadIDFromContext(ctx)
	if threadID == "" {
		threadID = uuid.NewString()
		ctx = WithThreadID(ctx, threadID)
	}

	history, err := a.memory.Load(ctx, threadID)
	if err != nil {
		a.logger.WarnContext(ctx, "agent_history_unavailable",
			slog.String("thread_id", threadID),
			slog.String("error", err.Error()),
		)
		history = nil
	}
	userMessage := schema.UserMessage(question)
	input := append(history, userMessage)

	start := time.Now()
	final, err := a.generate(ctx, input)
	if err != nil {
		observability.ObserveAnswer(observability.OutcomeError, time.Since(start))
		a.logger.ErrorContext(ctx, "agent_answer_failed",
			slog.String("trace_id", observability.TraceIDFromContext(ctx)),
			slog.String("thread_id", threadID),
			slog.String("error", err.Error()),
		)
		return "", fmt.Errorf("agent loop: %w", err)
	}

	answer, outcome := extractAnswer(final)
	elapsed := time.Since(start)
	observability.ObserveAnswer(outcome, elapsed)
	a.logger.InfoContext(ctx, "agent_answer",
		slog.String("trace_id", observability.TraceIDFromContext(ctx)),
		slog.String("thread_id", threadID),
		slog.String("outcome", outcome),
		slog.String("duration", elapsed.String()),
	)

	if outcome == observability.OutcomeAnswered {
		if err := a.memory.Append(ctx, threadID, userMessage, schema.AssistantMessage(answer, nil)); err != nil {
			a.logger.WarnContext(ctx, "agent_history_not_saved",
				slog.String("thread_id", threadID),
				slog.String("error", err.Error()),
			)
		}
	}
	return answer, nil
}

// extractAnswer maps the terminal message of the loop to the answer text.
// A missing finish reason counts as a stop: the loop only ends on a message
// without tool calls.
func extractAnswer(final *schema.Message) (string, string) {
	if final == nil {
		return NoResponse, observability.OutcomeNoResponse
	}
	if final.ResponseMeta != nil {
		reason := final.ResponseMeta.FinishReason
		if reason != "" && reason != finishReasonStop {
			return NoResponse, observability.OutcomeNoResponse
		}
	}
	if strings.TrimSpace(final.Content) == "" {
		return DontKnow, observability.OutcomeDontKnow
	}
	return final.Content, observability.OutcomeAnswered
}

type threadIDKey struct{}

func WithThreadID(ctx context.Context, threadID string) context.Context {
	return context.WithValue(ctx, threadIDKey{}, threadID)
}

func ThreadIDFromContext(ctx context.Context) string {
	value, ok := ctx.Value(threadIDKey{}).(string)
	if !ok {
		return ""
	}
	return value
}
