package chatui

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type stubExchanger struct {
	messages []string
	threads  []string
}

func (s *stubExchanger) Exchange(_ context.Context, message, threadID string) (string, string) {
	s.messages = append(s.messages, message)
	s.threads = append(s.threads, threadID)
	if threadID == "" {
		threadID = "thread-new"
	}
	return "echo: " + message, threadID
}

func TestChatForwardsMessage(t *testing.T) {
	stub := &stubExchanger{}
	h := NewHandler(stub, nil)

	body := `{"message":"Show me the sales forecast for next month","history":[{"user":"hi","assistant":"hello"}]}`
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body)))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var reply chatResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &reply); err != nil {
		t.Fatalf("decode reply: %v", err)
	}
	if reply.Reply != "echo: Show me the sales forecast for next month" || reply.ThreadID != "thread-new" {
		t.Fatalf("reply = %#v", reply)
	}
	if len(stub.threads) != 1 || stub.threads[0] != "" {
		t.Fatalf("threads = %#v", stub.threads)
	}
}

func TestChatReusesThread(t *testing.T) {
	stub := &stubExchanger{}
	h := NewHandler(stub, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":"again","thread_id":" t-1 "}`)))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if stub.threads[0] != "t-1" {
		t.Fatalf("thread = %q", stub.threads[0])
	}
}

func TestChatRejectsInvalidBody(t *testing.T) {
	h := NewHandler(&stubExchanger{}, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{`)))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestConfigListsExamples(t *testing.T) {
	h := NewHandler(&stubExchanger{}, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/config", nil))
	var cfg struct {
		Title    string   `json:"title"`
		Examples []string `json:"examples"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &cfg); err != nil {
		t.Fatalf("decode config: %v", err)
	}
	if cfg.Title != Title || len(cfg.Examples) != 5 {
		t.Fatalf("config = %#v", cfg)
	}
}

func TestIndexServedForUnknownPaths(t *testing.T) {
	h := NewHandler(&stubExchanger{}, nil)
	for _, path := range []string{"/", "/index.html", "/some/deep/link"} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("GET %s status = %d", path, rr.Code)
		}
		if !strings.Contains(rr.Body.String(), "Retail Database Assistant") {
			t.Fatalf("GET %s did not serve the chat page", path)
		}
		if rr.Header().Get("X-Trace-ID") == "" {
			t.Fatalf("GET %s missing trace id", path)
		}
	}
}
