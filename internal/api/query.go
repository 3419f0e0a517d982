package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/retailagent/retailagent/internal/agent"
	"github.com/retailagent/retailagent/internal/auth"
	"github.com/retailagent/retailagent/internal/observability"
)

const (
	threadIDHeader      = "X-Thread-ID"
	maxQueryBodyBytes   = 1 << 20
	maxThreadIDLength   = 128
	statusUnprocessable = http.StatusUnprocessableEntity
)

type queryRequest struct {
	Question *string `json:"question"`
}

type queryResponse struct {
	Response string `json:"response"`
}

func handleQuery(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Agent == nil {
		writeError(w, http.StatusServiceUnavailable, "agent is not configured")
		return
	}

	var request queryRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxQueryBodyBytes))
	if err := decoder.Decode(&request); err != nil {
		if errors.Is(err, io.EOF) {
			writeError(w, statusUnprocessable, "request body is required")
			return
		}
		writeError(w, statusUnprocessable, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if request.Question == nil {
		writeError(w, statusUnprocessable, "question is required")
		return
	}
	question := strings.TrimSpace(*request.Question)
	if question == "" {
		writeError(w, statusUnprocessable, "question must not be blank")
		return
	}

	threadID := strings.TrimSpace(r.Header.Get(threadIDHeader))
	if threadID == "" || len(threadID) > maxThreadIDLength {
		threadID = uuid.NewString()
	}
	w.Header().Set(threadIDHeader, threadID)

	ctx := agent.WithThreadID(r.Context(), memoryKey(r, threadID))
	answer, err := deps.Agent.Answer(ctx, question)
	if err != nil {
		if deps.Logger != nil {
			deps.Logger.ErrorContext(ctx, "query failed",
				slog.String("trace_id", observability.TraceIDFromContext(ctx)),
				slog.String("thread_id", threadID),
				slog.String("error", err.Error()),
			)
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, queryResponse{Response: answer})
}

// memoryKey scopes a thread to the authenticated client, if any.
func memoryKey(r *http.Request, threadID string) string {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok || identity.Client == "" {
		return threadID
	}
	return identity.Client + ":" + threadID
}
