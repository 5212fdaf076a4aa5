package parking

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/AudreyYZY/ADHD-Timebox/internal/identity"
	modelchat "github.com/AudreyYZY/ADHD-Timebox/internal/model/chat"
	chatservice "github.com/AudreyYZY/ADHD-Timebox/internal/service/chat"
	"github.com/AudreyYZY/ADHD-Timebox/internal/service/events"
	"github.com/AudreyYZY/ADHD-Timebox/pkg/utils"
)

// thoughtTypes are the categories a parked thought can take. Unknown
// values degrade to memo; absent defaults to search.
var thoughtTypes = map[string]bool{
	"search": true,
	"memo":   true,
	"todo":   true,
}

// Handler captures stray thoughts during a focus session so the user
// can let go of them without switching tasks.
type Handler struct {
	chatSvc  *chatservice.Service
	bus      *events.Bus
	resolver identity.Resolver
}

// New creates the thought-parking handler.
func New(chatSvc *chatservice.Service, bus *events.Bus, resolver identity.Resolver) *Handler {
	return &Handler{chatSvc: chatSvc, bus: bus, resolver: resolver}
}

// RegisterRoutes 注册随手记路由。
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/parking", h.handleParkThought)
}

func (h *Handler) handleParkThought(w http.ResponseWriter, r *http.Request) {
	userID, err := h.resolver.Resolve(r)
	if err != nil {
		utils.RespondError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "Please sign in first")
		return
	}

	var payload struct {
		Message     string `json:"message"`
		ThoughtType string `json:"thought_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}

	message := strings.TrimSpace(payload.Message)
	if message == "" {
		utils.RespondError(w, http.StatusBadRequest, "INVALID_MESSAGE", "message cannot be empty")
		return
	}

	thoughtType := strings.ToLower(strings.TrimSpace(payload.ThoughtType))
	if thoughtType == "" {
		thoughtType = "search"
	} else if !thoughtTypes[thoughtType] {
		thoughtType = "memo"
	}

	session, err := h.chatSvc.SessionForUser(r.Context(), userID)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "SESSION_FAILED", err.Error())
		return
	}

	stored, err := h.chatSvc.SaveMessage(r.Context(), modelchat.Message{
		SessionID: session.ID,
		Role:      modelchat.RoleUser,
		Content:   message,
		Channel:   modelchat.ChannelParking,
	})
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "SAVE_FAILED", err.Error())
		return
	}

	h.bus.Publish(events.Event{
		Name: events.EventThoughtParked,
		Data: map[string]any{
			"message_id":   stored.ID,
			"thought_type": thoughtType,
		},
	})

	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"content": fmt.Sprintf("Parked as %s. Back to your timebox!", thoughtType),
		"status":  "FINISHED",
		"agent":   "parking",
	})
}
