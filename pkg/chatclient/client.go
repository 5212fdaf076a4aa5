// Package chatclient drives one conversation's request/response cycle
// against the gateway's paced plain-text stream. It owns the message
// history and a three-state status the UI derives its affordances
// from: idle, submitted (request sent, no bytes yet) and streaming.
package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AudreyYZY/ADHD-Timebox/internal/model/chat"
)

// Status is the client-side stream state machine value.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusSubmitted Status = "submitted"
	StatusStreaming Status = "streaming"
)

// ErrBusy is returned when Send is called while a request is already
// in flight. Only one request per conversation may be active.
var ErrBusy = errors.New("a send is already in flight")

// LocalApology is appended when the gateway itself cannot be reached,
// mirroring the gateway's own fallback text so the user experience is
// the same on both sides of the network boundary.
const LocalApology = "Sorry, I'm having trouble reaching the assistant right now. Please try again in a moment."

const streamPath = "/api/chat/stream"

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithHeader adds a header to every request, e.g. the session token.
func WithHeader(key, value string) Option {
	return func(c *Client) { c.headers[key] = value }
}

// Client is a streaming chat consumer. Send blocks until the stream
// closes; UIs run it in a goroutine and observe progress through
// Status, Messages, Waiting and the OnChange hook.
type Client struct {
	baseURL    string
	httpClient *http.Client
	headers    map[string]string

	mu        sync.Mutex
	status    Status
	messages  []chat.Message
	assistant int // index of the streaming assistant message, -1 when none
	onChange  func()
}

// New creates a client for the gateway at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{},
		headers:    make(map[string]string),
		status:     StatusIdle,
		assistant:  -1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnChange registers a hook invoked after every state mutation. The
// hook runs without the internal lock held.
func (c *Client) OnChange(fn func()) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

// Status returns the current stream state.
func (c *Client) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Messages returns a copy of the conversation history.
func (c *Client) Messages() []chat.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	copied := make([]chat.Message, len(c.messages))
	copy(copied, c.messages)
	return copied
}

// Waiting reports whether the UI should show the pending indicator:
// submitted, or streaming with no assistant text yet. It turns off as
// soon as any assistant text exists, even while tokens keep arriving.
func (c *Client) Waiting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.status {
	case StatusSubmitted:
		return true
	case StatusStreaming:
		return c.assistant < 0 || c.messages[c.assistant].Content == ""
	default:
		return false
	}
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Send appends the user message, runs the request and consumes the
// stream until it closes. It returns ErrBusy when a request is
// already active. Cancelling ctx stops the stream without error; the
// partial assistant text stays in history.
func (c *Client) Send(ctx context.Context, text string) error {
	c.mu.Lock()
	if c.status != StatusIdle {
		c.mu.Unlock()
		return ErrBusy
	}
	c.status = StatusSubmitted
	c.assistant = -1
	c.messages = append(c.messages, chat.Message{
		ID:        uuid.NewString(),
		Role:      chat.RoleUser,
		Content:   text,
		Channel:   chat.ChannelPlanning,
		CreatedAt: time.Now().UTC(),
	})
	history := make([]wireMessage, 0, len(c.messages))
	for _, m := range c.messages {
		if m.Channel == chat.ChannelPlanning {
			history = append(history, wireMessage{Role: string(m.Role), Content: m.Content})
		}
	}
	c.mu.Unlock()
	c.notify()

	err := c.run(ctx, history)
	c.setStatus(StatusIdle)
	return err
}

func (c *Client) run(ctx context.Context, history []wireMessage) error {
	payload, err := json.Marshal(map[string]any{"messages": history})
	if err != nil {
		c.appendAssistant(LocalApology)
		return fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+streamPath, bytes.NewReader(payload))
	if err != nil {
		c.appendAssistant(LocalApology)
		return fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			// Aborted before any byte arrived; nothing to surface.
			return nil
		}
		c.appendAssistant(LocalApology)
		return fmt.Errorf("gateway unreachable: %w", err)
	}
	defer resp.Body.Close()

	// The gateway streams a readable body on every status, 401
	// included; whatever arrives is the assistant's text.
	received := false
	buf := make([]byte, 512)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if !received {
				received = true
				c.setStatus(StatusStreaming)
			}
			c.appendChunk(string(buf[:n]))
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			if ctx.Err() != nil {
				// Normal early termination; already-received text stays.
				return nil
			}
			if !received {
				c.appendAssistant(LocalApology)
			}
			return fmt.Errorf("read stream: %w", readErr)
		}
	}

	if !received && resp.StatusCode >= http.StatusBadRequest {
		// Non-success with an empty body never comes from the gateway,
		// but an intermediary can produce it.
		c.appendAssistant(LocalApology)
	}
	return nil
}

// appendChunk grows the streaming assistant message, creating it on
// the first chunk.
func (c *Client) appendChunk(chunk string) {
	c.mu.Lock()
	if c.assistant < 0 {
		c.messages = append(c.messages, chat.Message{
			ID:        uuid.NewString(),
			Role:      chat.RoleAssistant,
			Channel:   chat.ChannelPlanning,
			CreatedAt: time.Now().UTC(),
		})
		c.assistant = len(c.messages) - 1
	}
	c.messages[c.assistant].Content += chunk
	c.mu.Unlock()
	c.notify()
}

// appendAssistant adds a complete assistant message in one step, used
// for locally synthesized fallbacks.
func (c *Client) appendAssistant(text string) {
	c.mu.Lock()
	c.messages = append(c.messages, chat.Message{
		ID:        uuid.NewString(),
		Role:      chat.RoleAssistant,
		Content:   text,
		Channel:   chat.ChannelPlanning,
		CreatedAt: time.Now().UTC(),
	})
	c.assistant = len(c.messages) - 1
	c.mu.Unlock()
	c.notify()
}

func (c *Client) setStatus(status Status) {
	c.mu.Lock()
	changed := c.status != status
	c.status = status
	c.mu.Unlock()
	if changed {
		c.notify()
	}
}

func (c *Client) notify() {
	c.mu.Lock()
	fn := c.onChange
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}
