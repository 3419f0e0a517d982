package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/retailagent/retailagent/internal/agent"
	"github.com/retailagent/retailagent/internal/auth"
)

type stubAgent struct {
	mu        sync.Mutex
	answer    string
	err       error
	questions []string
	threadIDs []string
}

func (s *stubAgent) Answer(ctx context.Context, question string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questions = append(s.questions, question)
	s.threadIDs = append(s.threadIDs, agent.ThreadIDFromContext(ctx))
	return s.answer, s.err
}

func newQueryRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestQueryReturnsAnswer(t *testing.T) {
	stub := &stubAgent{answer: "SKU 1 sold 420 units."}
	h := NewHandler(loadConfig(t, nil), Dependencies{Agent: stub})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, newQueryRequest(`{"question":"  How many units did SKU 1 sell?  "}`))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rr.Code, rr.Body.String())
	}
	var body queryResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Response != "SKU 1 sold 420 units." {
		t.Fatalf("response = %q", body.Response)
	}
	if len(stub.questions) != 1 || stub.questions[0] != "How many units did SKU 1 sell?" {
		t.Fatalf("questions = %#v", stub.questions)
	}
	threadID := rr.Header().Get("X-Thread-ID")
	if threadID == "" || stub.threadIDs[0] != threadID {
		t.Fatalf("thread id header = %q, agent saw %q", threadID, stub.threadIDs[0])
	}
}

func TestQueryReusesThreadHeader(t *testing.T) {
	stub := &stubAgent{answer: "ok"}
	h := NewHandler(loadConfig(t, nil), Dependencies{Agent: stub})

	req := newQueryRequest(`{"question":"follow up"}`)
	req.Header.Set("X-Thread-ID", "thread-7")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if rr.Header().Get("X-Thread-ID") != "thread-7" || stub.threadIDs[0] != "thread-7" {
		t.Fatalf("thread ids = %q / %#v", rr.Header().Get("X-Thread-ID"), stub.threadIDs)
	}
}

func TestQueryScopesThreadToAuthenticatedClient(t *testing.T) {
	validator, err := auth.NewStaticAPIKeyValidator("k1:chat-ui,k2:analyst")
	if err != nil {
		t.Fatalf("NewStaticAPIKeyValidator() error = %v", err)
	}
	stub := &stubAgent{answer: "ok"}
	h := NewHandler(loadConfig(t, map[string]string{"RETAILAGENT_AUTH_REQUIRED": "true"}), Dependencies{
		Agent:          stub,
		AuthMiddleware: auth.Middleware(slog.New(slog.DiscardHandler), validator),
	})

	for _, key := range []string{"k1", "k2"} {
		req := newQueryRequest(`{"question":"what did we talk about?"}`)
		req.Header.Set("X-API-Key", key)
		req.Header.Set("X-Thread-ID", "thread-7")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d body=%s", rr.Code, rr.Body.String())
		}
		if rr.Header().Get("X-Thread-ID") != "thread-7" {
			t.Fatalf("thread id header = %q", rr.Header().Get("X-Thread-ID"))
		}
	}

	if len(stub.threadIDs) != 2 {
		t.Fatalf("agent calls = %d", len(stub.threadIDs))
	}
	if stub.threadIDs[0] != "chat-ui:thread-7" || stub.threadIDs[1] != "analyst:thread-7" {
		t.Fatalf("agent thread keys = %#v", stub.threadIDs)
	}
}

func TestQueryPassesFallbackAnswersThrough(t *testing.T) {
	for _, fallback := range []string{agent.DontKnow, agent.NoResponse} {
		h := NewHandler(loadConfig(t, nil), Dependencies{Agent: &stubAgent{answer: fallback}})
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, newQueryRequest(`{"question":"anything"}`))
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d", rr.Code)
		}
		if !strings.Contains(rr.Body.String(), fallback) {
			t.Fatalf("body = %s, want %q", rr.Body.String(), fallback)
		}
	}
}

func TestQueryRejectsInvalidBodies(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "empty body", body: ""},
		{name: "invalid json", body: `{"question":`},
		{name: "missing question", body: `{}`},
		{name: "null question", body: `{"question":null}`},
		{name: "blank question", body: `{"question":"   "}`},
		{name: "wrong type", body: `{"question":42}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			stub := &stubAgent{answer: "unused"}
			h := NewHandler(loadConfig(t, nil), Dependencies{Agent: stub})
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, newQueryRequest(tc.body))
			if rr.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d, want 422", rr.Code)
			}
			var body map[string]string
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body["detail"] == "" {
				t.Fatalf("body = %#v, want detail", body)
			}
			if len(stub.questions) != 0 {
				t.Fatal("agent should not be called")
			}
		})
	}
}

func TestQueryMapsAgentErrorTo500(t *testing.T) {
	h := NewHandler(loadConfig(t, nil), Dependencies{Agent: &stubAgent{err: errors.New("agent loop: upstream timeout")}})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, newQueryRequest(`{"question":"q"}`))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["detail"] != "agent loop: upstream timeout" {
		t.Fatalf("detail = %q", body["detail"])
	}
}

func TestQueryWithoutAgentIs503(t *testing.T) {
	h := NewHandler(loadConfig(t, nil), Dependencies{})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, newQueryRequest(`{"question":"q"}`))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestQueryRejectsWrongMethod(t *testing.T) {
	h := NewHandler(loadConfig(t, nil), Dependencies{Agent: &stubAgent{}})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/query", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestQueryHandlesConcurrentRequests(t *testing.T) {
	stub := &stubAgent{answer: "ok"}
	h := NewHandler(loadConfig(t, nil), Dependencies{Agent: stub})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, newQueryRequest(`{"question":"q"}`))
			if rr.Code != http.StatusOK {
				t.Errorf("status = %d", rr.Code)
			}
		}()
	}
	wg.Wait()
	if len(stub.questions) != 8 {
		t.Fatalf("questions = %d, want 8", len(stub.questions))
	}
	seen := map[string]bool{}
	for _, id := range stub.threadIDs {
		seen[id] = true
	}
	if len(seen) != 8 {
		t.Fatalf("distinct thread ids = %d, want 8", len(seen))
	}
}
