package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Answer outcomes reported by the agent.
const (
	OutcomeAnswered   = "answered"
	OutcomeDontKnow   = "dont_know"
	OutcomeNoResponse = "no_response"
	OutcomeError      = "error"
)

var (
	agentAnswersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retailagent_agent_answers_total",
			Help: "Total number of answered questions by outcome.",
		},
		[]string{"outcome"},
	)
	agentAnswerLatencySeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "retailagent_agent_answer_latency_seconds",
			Help:    "End-to-end latency of one agent answer, including every model and tool step.",
			Buckets: []float64{.5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
	)
	agentToolCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retailagent_agent_tool_calls_total",
			Help: "Total number of database tool invocations by tool and status.",
		},
		[]string{"tool", "status"},
	)
	agentToolLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "retailagent_agent_tool_latency_ms",
			Help:    "Database tool latency in milliseconds.",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000},
		},
		[]string{"tool"},
	)
)

func init() {
	prometheus.MustRegister(
		agentAnswersTotal,
		agentAnswerLatencySeconds,
		agentToolCallsTotal,
		agentToolLatencyMs,
	)
}

func ObserveAnswer(outcome string, elapsed time.Duration) {
	if outcome == "" {
		outcome = OutcomeError
	}
	agentAnswersTotal.WithLabelValues(outcome).Inc()
	agentAnswerLatencySeconds.Observe(elapsed.Seconds())
}

func ObserveToolCall(tool string, failed bool, elapsed time.Duration) {
	status := "ok"
	if failed {
		status = "error"
	}
	agentToolCallsTotal.WithLabelValues(tool, status).Inc()
	agentToolLatencyMs.WithLabelValues(tool).Observe(float64(elapsed.Milliseconds()))
}
