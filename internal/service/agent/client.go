// Package agent talks to the Python multi-agent backend. The backend
// is an opaque collaborator: one JSON POST in, one JSON document out.
// Every failure mode collapses into presentable text so the streaming
// envelope never has to carry a transport error.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/AudreyYZY/ADHD-Timebox/internal/config"
)

// FallbackApology is streamed whenever the backend cannot be reached
// or its reply carries no usable text. The chat client substitutes the
// same string when the gateway itself is unreachable.
const FallbackApology = "Sorry, I'm having trouble reaching the assistant right now. Please try again in a moment."

const chatPath = "/api/chat"

// Client is an HTTP client for the agent backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a client from the agent section of the config.
func NewClient(cfg config.AgentConfig) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Content  string `json:"content"`
	Response string `json:"response"`
}

// errorDetailKeys are probed in order of specificity. The backend's
// envelope is {error:true, code, message, detail?}, so "error" is a
// boolean there and only counts when some other backend sends a string.
var errorDetailKeys = []string{"detail", "message", "error"}

// Reply forwards the user's message and returns the text to present.
// text is always non-empty; err records the underlying cause for
// logging and is never shown to the user.
func (c *Client) Reply(ctx context.Context, userID, message string) (text string, err error) {
	payload, err := json.Marshal(chatRequest{Message: message})
	if err != nil {
		return FallbackApology, fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+chatPath, bytes.NewReader(payload))
	if err != nil {
		return FallbackApology, fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Id", userID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return FallbackApology, fmt.Errorf("agent backend unreachable: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return FallbackApology, fmt.Errorf("read agent response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		detail := errorDetail(body, resp.StatusCode)
		return fmt.Sprintf("Assistant server error: %s.", detail),
			fmt.Errorf("agent backend returned status %d: %s", resp.StatusCode, detail)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return FallbackApology, fmt.Errorf("agent backend returned non-JSON body: %w", err)
	}

	switch {
	case parsed.Content != "":
		return parsed.Content, nil
	case parsed.Response != "":
		return parsed.Response, nil
	default:
		return FallbackApology, fmt.Errorf("agent backend reply had no content or response field")
	}
}

// errorDetail pulls the most specific message out of an error body,
// falling back to the HTTP status text.
func errorDetail(body []byte, statusCode int) string {
	var parsed map[string]any
	if err := json.Unmarshal(body, &parsed); err == nil {
		for _, key := range errorDetailKeys {
			if s, ok := parsed[key].(string); ok && s != "" {
				return s
			}
		}
	}
	return http.StatusText(statusCode)
}
