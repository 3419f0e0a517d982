package chat

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestAskReturnsResponseField(t *testing.T) {
	var gotBody map[string]any
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/query" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		gotKey = r.Header.Get("X-API-Key")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"response":"Top product is kids Jeans."}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/query", "k1", time.Second)
	history := []Turn{{User: "earlier", Assistant: "reply"}}
	got := client.Ask(context.Background(), "What are our top 5 products by revenue?", history)
	if got != "Top product is kids Jeans." {
		t.Fatalf("Ask() = %q", got)
	}
	if len(gotBody) != 1 || gotBody["question"] != "What are our top 5 products by revenue?" {
		t.Fatalf("payload = %#v, want question only", gotBody)
	}
	if gotKey != "k1" {
		t.Fatalf("X-API-Key = %q", gotKey)
	}
}

func TestExchangeCarriesThreadID(t *testing.T) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("X-Thread-ID"))
		w.Header().Set("X-Thread-ID", "thread-9")
		_, _ = w.Write([]byte(`{"response":"ok"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", time.Second)
	_, thread := client.Exchange(context.Background(), "first", "")
	if thread != "thread-9" {
		t.Fatalf("thread = %q", thread)
	}
	_, _ = client.Exchange(context.Background(), "second", thread)
	if len(seen) != 2 || seen[0] != "" || seen[1] != "thread-9" {
		t.Fatalf("thread headers = %#v", seen)
	}
}

func TestAskConnectionFailure(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := listener.Addr().String()
	_ = listener.Close()

	client := NewClient("http://"+addr+"/query", "", time.Second)
	if got := client.Ask(context.Background(), "hi", nil); got != ConnectErrorMessage {
		t.Fatalf("Ask() = %q, want connect error message", got)
	}
}

func TestAskHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail":"agent loop: boom"}`))
	}))
	defer srv.Close()

	got := NewClient(srv.URL+"/query", "", time.Second).Ask(context.Background(), "hi", nil)
	want := "Error communicating with API: 500 Server Error: Internal Server Error for url: " + srv.URL + "/query"
	if got != want {
		t.Fatalf("Ask() = %q, want %q", got, want)
	}
}

func TestAskValidationErrorIsClientError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	got := NewClient(srv.URL, "", time.Second).Ask(context.Background(), "", nil)
	if !strings.HasPrefix(got, "Error communicating with API: 422 Client Error") {
		t.Fatalf("Ask() = %q", got)
	}
}

func TestAskDecodeFailures(t *testing.T) {
	for _, body := range []string{`not json`, `{"answer":"x"}`} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(body))
		}))
		got := NewClient(srv.URL, "", time.Second).Ask(context.Background(), "hi", nil)
		srv.Close()
		if !strings.HasPrefix(got, "Error: ") {
			t.Fatalf("Ask() with body %q = %q, want Error: prefix", body, got)
		}
	}
}

func TestAskTimeoutIsNotConnectError(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	got := NewClient(srv.URL, "", 50*time.Millisecond).Ask(context.Background(), "hi", nil)
	if !strings.HasPrefix(got, "Error communicating with API: ") {
		t.Fatalf("Ask() = %q", got)
	}
}

func TestNewClientDefaults(t *testing.T) {
	client := NewClient("", "", 0)
	if client.URL != DefaultAPIURL {
		t.Fatalf("URL = %q", client.URL)
	}
	if client.HTTPClient.Timeout != 3*time.Minute {
		t.Fatalf("timeout = %s", client.HTTPClient.Timeout)
	}
}
