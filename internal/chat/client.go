// Package chat is the front-end side of the question endpoint: it forwards a
// chat message and turns every failure into text a chat window can show.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

const DefaultAPIURL = "http://localhost:8000/query"

// ConnectErrorMessage is shown when the API cannot be reached at all.
const ConnectErrorMessage = "Error: Could not connect to the API. Make sure the API server is running (go run ./cmd/retailagent-api)"

const threadIDHeader = "X-Thread-ID"

// Turn is one past exchange shown in the chat window. History is accepted
// for display parity only and never sent upstream.
type Turn struct {
	User      string `json:"user"`
	Assistant string `json:"assistant"`
}

type Client struct {
	URL        string
	APIKey     string
	HTTPClient *http.Client
}

func NewClient(url, apiKey string, timeout time.Duration) *Client {
	if strings.TrimSpace(url) == "" {
		url = DefaultAPIURL
	}
	if timeout <= 0 {
		timeout = 3 * time.Minute
	}
	return &Client{
		URL:        strings.TrimSpace(url),
		APIKey:     strings.TrimSpace(apiKey),
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) Ask(ctx context.Context, message string, _ []Turn) string {
	answer, _ := c.Exchange(ctx, message, "")
	return answer
}

// Exchange posts message on threadID (empty starts a new thread) and returns
// the rendered reply plus the thread id the API answered on.
func (c *Client) Exchange(ctx context.Context, message, threadID string) (string, string) {
	payload, err := json.Marshal(map[string]string{"question": message})
	if err != nil {
		return "Error: " + err.Error(), threadID
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(), bytes.NewReader(payload))
	if err != nil {
		return "Error communicating with API: " + err.Error(), threadID
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.APIKey != "" {
		req.Header.Set("X-API-Key", c.APIKey)
	}
	if strings.TrimSpace(threadID) != "" {
		req.Header.Set(threadIDHeader, strings.TrimSpace(threadID))
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		if isConnectError(err) {
			return ConnectErrorMessage, threadID
		}
		return "Error communicating with API: " + err.Error(), threadID
	}
	defer func() { _ = resp.Body.Close() }()
	if replyThread := strings.TrimSpace(resp.Header.Get(threadIDHeader)); replyThread != "" {
		threadID = replyThread
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "Error communicating with API: " + err.Error(), threadID
	}
	if resp.StatusCode >= 400 {
		return "Error communicating with API: " + statusError(resp.StatusCode, c.url()), threadID
	}

	var reply struct {
		Response *string `json:"response"`
	}
	if err := json.Unmarshal(body, &reply); err != nil {
		return "Error: " + err.Error(), threadID
	}
	if reply.Response == nil {
		return "Error: 'response' missing from API reply", threadID
	}
	return *reply.Response, threadID
}

func (c *Client) url() string {
	if strings.TrimSpace(c.URL) == "" {
		return DefaultAPIURL
	}
	return c.URL
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient == nil {
		return http.DefaultClient
	}
	return c.HTTPClient
}

func statusError(code int, url string) string {
	kind := "Client"
	if code >= 500 {
		kind = "Server"
	}
	return fmt.Sprintf("%d %s Error: %s for url: %s", code, kind, http.StatusText(code), url)
}

// isConnectError reports failures to reach the server at all: refused or
// unroutable dials and name resolution errors.
func isConnectError(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Op == "dial"
	}
	return false
}
