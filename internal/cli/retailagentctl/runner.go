// Package retailagentctl implements the operator CLI for the retail agent API.
package retailagentctl

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/retailagent/retailagent/internal/chat"
)

type Options struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
	Stdin      io.Reader
	Stdout     io.Writer
	Stderr     io.Writer
}

func Run(ctx context.Context, args []string, defaults Options) int {
	stdout := defaults.Stdout
	if stdout == nil {
		stdout = io.Discard
	}
	stderr := defaults.Stderr
	if stderr == nil {
		stderr = io.Discard
	}

	fs := flag.NewFlagSet("retailagentctl", flag.ContinueOnError)
	fs.SetOutput(stderr)

	baseURL := fs.String("base-url", firstNonEmpty(defaults.BaseURL, "http://localhost:8000"), "retail agent API base URL")
	apiKey := fs.String("api-key", defaults.APIKey, "API key for authenticated requests")
	timeout := fs.Duration("timeout", durationOr(defaults.Timeout, 3*time.Minute), "HTTP timeout (e.g. 90s)")
	threadID := fs.String("thread", "", "conversation thread id for ask")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		writeUsage(stderr)
		return 2
	}

	client := defaults.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: *timeout}
	}
	root := strings.TrimRight(*baseURL, "/")

	command := strings.TrimSpace(fs.Arg(0))
	var method, path string
	var body []byte
	switch command {
	case "health":
		method, path = http.MethodGet, "/health"
	case "ready":
		method, path = http.MethodGet, "/ready"
	case "ask":
		question := strings.TrimSpace(strings.Join(fs.Args()[1:], " "))
		if question == "" {
			_, _ = fmt.Fprintln(stderr, "ask requires a question")
			return 2
		}
		payload, err := json.Marshal(map[string]string{"question": question})
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "encode question: %v\n", err)
			return 1
		}
		method, path, body = http.MethodPost, "/query", payload
	case "chat":
		return runChat(ctx, &chat.Client{URL: root + "/query", APIKey: strings.TrimSpace(*apiKey), HTTPClient: client}, defaults.Stdin, stdout)
	default:
		_, _ = fmt.Fprintf(stderr, "unknown command %q\n\n", command)
		writeUsage(stderr)
		return 2
	}

	code, header, responseBody, err := doRequest(ctx, client, method, root+path, *apiKey, *threadID, body)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "request failed: %v\n", err)
		return 1
	}

	if code >= 400 {
		_, _ = fmt.Fprintf(stderr, "http %d: %s\n", code, strings.TrimSpace(string(responseBody)))
		return 1
	}

	if command == "ask" {
		var answer struct {
			Response string `json:"response"`
		}
		if err := json.Unmarshal(responseBody, &answer); err != nil {
			_, _ = fmt.Fprintf(stderr, "decode response: %v\n", err)
			return 1
		}
		_, _ = fmt.Fprintln(stdout, answer.Response)
		if thread := header.Get("X-Thread-ID"); thread != "" {
			_, _ = fmt.Fprintf(stderr, "thread: %s\n", thread)
		}
		return 0
	}

	if pretty, ok := prettyJSON(responseBody); ok {
		_, _ = fmt.Fprintln(stdout, pretty)
		return 0
	}
	if len(responseBody) > 0 {
		_, _ = fmt.Fprintln(stdout, string(responseBody))
	}
	return 0
}

// runChat reads one question per line and keeps the whole session on one
// thread. Blank lines are skipped; "exit" or EOF ends the session.
func runChat(ctx context.Context, client *chat.Client, stdin io.Reader, stdout io.Writer) int {
	if stdin == nil {
		stdin = strings.NewReader("")
	}
	_, _ = fmt.Fprintln(stdout, "Retail Database Assistant. Type a question, or \"exit\" to quit.")
	scanner := bufio.NewScanner(stdin)
	thread := ""
	for {
		_, _ = fmt.Fprint(stdout, "> ")
		if !scanner.Scan() {
			_, _ = fmt.Fprintln(stdout)
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}
		var reply string
		reply, thread = client.Exchange(ctx, line, thread)
		_, _ = fmt.Fprintln(stdout, reply)
	}
	if err := scanner.Err(); err != nil {
		return 1
	}
	return 0
}

func doRequest(ctx context.Context, client *http.Client, method, url, apiKey, threadID string, body []byte) (int, http.Header, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if strings.TrimSpace(apiKey) != "" {
		req.Header.Set("X-API-Key", strings.TrimSpace(apiKey))
	}
	if strings.TrimSpace(threadID) != "" {
		req.Header.Set("X-Thread-ID", strings.TrimSpace(threadID))
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, nil, err
	}
	return resp.StatusCode, resp.Header, responseBody, nil
}

func prettyJSON(raw []byte) (string, bool) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return "", false
	}
	var anyValue any
	if err := json.Unmarshal(raw, &anyValue); err != nil {
		return "", false
	}
	formatted, err := json.MarshalIndent(anyValue, "", "  ")
	if err != nil {
		return "", false
	}
	return string(formatted), true
}

func writeUsage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "usage: retailagentctl [flags] <command>")
	_, _ = fmt.Fprintln(w, "")
	_, _ = fmt.Fprintln(w, "commands:")
	_, _ = fmt.Fprintln(w, "  health            GET /health")
	_, _ = fmt.Fprintln(w, "  ready             GET /ready")
	_, _ = fmt.Fprintln(w, "  ask <question>    POST /query and print the answer")
	_, _ = fmt.Fprintln(w, "  chat              interactive session over stdin")
}

func firstNonEmpty(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return strings.TrimSpace(a)
	}
	return b
}

func durationOr(v, fallback time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return fallback
}
