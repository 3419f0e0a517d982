// Package chatui serves the browser chat window that talks to the question
// endpoint through chat.Client.
package chatui

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/retailagent/retailagent/internal/chat"
	"github.com/retailagent/retailagent/internal/observability"
)

const (
	Title       = "Retail Database Assistant"
	Description = "Ask questions about retail data, sales, inventory, and competitor information."
)

var Examples = []string{
	"What are our top 5 products by revenue?",
	"Compare our SKU's prices with competitor's prices",
	"Show me the current inventory levels for men's t-shirt category",
	"What products have the highest profit margins?",
	"Show me the sales forecast for next month",
}

// Exchanger forwards one chat message on a thread.
type Exchanger interface {
	Exchange(ctx context.Context, message, threadID string) (string, string)
}

type chatRequest struct {
	Message  string      `json:"message"`
	History  []chat.Turn `json:"history"`
	ThreadID string      `json:"thread_id"`
}

type chatResponse struct {
	Reply    string `json:"reply"`
	ThreadID string `json:"thread_id,omitempty"`
}

func NewHandler(client Exchanger, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/config", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"title":       Title,
			"description": Description,
			"examples":    Examples,
		})
	})
	mux.HandleFunc("POST /api/chat", func(w http.ResponseWriter, r *http.Request) {
		var request chatRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&request); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid chat request body"})
			return
		}
		reply, threadID := client.Exchange(r.Context(), request.Message, strings.TrimSpace(request.ThreadID))
		writeJSON(w, http.StatusOK, chatResponse{Reply: reply, ThreadID: threadID})
	})
	mux.Handle("GET /", staticHandler())

	var handler http.Handler = mux
	if logger != nil {
		handler = observability.LoggingMiddleware(logger, 0)(handler)
	}
	return observability.TraceMiddleware(handler)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
