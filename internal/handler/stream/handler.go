package stream

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/AudreyYZY/ADHD-Timebox/internal/identity"
	"github.com/AudreyYZY/ADHD-Timebox/internal/model/chat"
	"github.com/AudreyYZY/ADHD-Timebox/internal/pace"
)

// Canned replies for requests that never reach the agent backend.
// They travel through the same paced envelope as real replies so the
// UI behaves identically in every case.
const (
	SignInMessage     = "Please sign in to use the assistant."
	SendMessagePrompt = "Please send a message so I can help."
)

// AgentClient produces the reply text for a user message. Implemented
// by service/agent; faked in tests.
type AgentClient interface {
	Reply(ctx context.Context, userID, message string) (string, error)
}

// Handler re-serves complete agent replies as word-by-word plain-text
// streams.
type Handler struct {
	agent    AgentClient
	resolver identity.Resolver
	opts     pace.Options
}

// New creates a stream handler. Zero-value opts fields use the pace
// package defaults.
func New(agent AgentClient, resolver identity.Resolver, opts pace.Options) *Handler {
	return &Handler{agent: agent, resolver: resolver, opts: opts}
}

// RegisterRoutes mounts the streaming chat endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat/stream", h.handleChatStream)
}

// handleChatStream implements the wire contract: the body is always a
// readable paced stream; the only non-200 status is the auth failure.
func (h *Handler) handleChatStream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := h.resolver.Resolve(r)
	if err != nil {
		h.writePaced(ctx, w, http.StatusUnauthorized, SignInMessage)
		return
	}

	var req chat.StreamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writePaced(ctx, w, http.StatusOK, SendMessagePrompt)
		return
	}

	text := chat.LatestUserText(req.Messages)
	if text == "" {
		h.writePaced(ctx, w, http.StatusOK, SendMessagePrompt)
		return
	}

	reply, err := h.agent.Reply(ctx, userID, text)
	if err != nil {
		// Absorbed into reply text by the agent client; log the cause.
		log.Printf("[stream] upstream failure for user=%s: %v", userID, err)
	}

	h.writePaced(ctx, w, http.StatusOK, reply)
}

// writePaced emits text token by token with the pacing delays, one
// write and flush per token. Cancellation stops emission before the
// next token; tokens already written stay written.
func (h *Handler) writePaced(ctx context.Context, w http.ResponseWriter, status int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)

	// Without a flusher the tokens still go out, just buffered by the
	// server; the body contract is unchanged.
	flusher, _ := w.(http.Flusher)

	s := pace.New(text, h.opts)
	token, delay, ok := s.Next()
	for ok {
		if _, err := w.Write([]byte(token)); err != nil {
			log.Printf("[stream] write failed mid-stream: %v", err)
			return
		}
		if flusher != nil {
			flusher.Flush()
		}

		next, nextDelay, more := s.Next()
		if !more {
			return
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Printf("[stream] client aborted mid-stream")
			return
		case <-timer.C:
		}

		token, delay, ok = next, nextDelay, more
	}
}
