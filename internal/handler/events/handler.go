package events

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	eventbus "github.com/AudreyYZY/ADHD-Timebox/internal/service/events"
	"github.com/AudreyYZY/ADHD-Timebox/pkg/utils"
)

const (
	defaultHeartbeat = 30 * time.Second
	writeTimeout     = 10 * time.Second
)

// Handler pushes bus events to connected clients, over SSE for the
// browser and over WebSocket for the desktop shell.
type Handler struct {
	bus       *eventbus.Bus
	heartbeat time.Duration
	upgrader  websocket.Upgrader
}

// New creates the event push handler. heartbeat <= 0 uses the default.
func New(bus *eventbus.Bus, heartbeat time.Duration) *Handler {
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}
	return &Handler{
		bus:       bus,
		heartbeat: heartbeat,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes mounts both event feeds.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/events", h.handleSSE)
	r.Get("/events/ws", h.handleWebSocket)
}

func (h *Handler) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "STREAM_UNSUPPORTED", "streaming unsupported")
		return
	}

	utils.SetupSSEHeaders(w)

	events, cancel := h.bus.Subscribe()
	defer cancel()

	ctx := r.Context()
	log.Printf("[events] sse stream opened")

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("[events] sse stream closed")
			return
		case event, open := <-events:
			if !open {
				return
			}
			utils.SendSSEEvent(w, flusher, event.Name, event.Data)
		case t := <-ticker.C:
			utils.SendSSEEvent(w, flusher, eventbus.EventHeartbeat, map[string]any{
				"timestamp": t.UTC().Format(time.RFC3339),
			})
		}
	}
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[events] websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	events, cancel := h.bus.Subscribe()
	defer cancel()

	// Reader only watches for the peer closing.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	log.Printf("[events] websocket stream opened")

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-closed:
			log.Printf("[events] websocket peer closed")
			return
		case event, open := <-events:
			if !open {
				return
			}
			if err := h.writeEvent(conn, event); err != nil {
				log.Printf("[events] websocket write failed: %v", err)
				return
			}
		case t := <-ticker.C:
			heartbeat := eventbus.Event{
				Name: eventbus.EventHeartbeat,
				Data: map[string]any{"timestamp": t.UTC().Format(time.RFC3339)},
			}
			if err := h.writeEvent(conn, heartbeat); err != nil {
				return
			}
		}
	}
}

func (h *Handler) writeEvent(conn *websocket.Conn, event eventbus.Event) error {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(event)
}
