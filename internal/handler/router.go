package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	eventsHandler "github.com/AudreyYZY/ADHD-Timebox/internal/handler/events"
	parkingHandler "github.com/AudreyYZY/ADHD-Timebox/internal/handler/parking"
	streamHandler "github.com/AudreyYZY/ADHD-Timebox/internal/handler/stream"
	"github.com/AudreyYZY/ADHD-Timebox/internal/identity"
	middlewarePkg "github.com/AudreyYZY/ADHD-Timebox/internal/middleware"
	"github.com/AudreyYZY/ADHD-Timebox/internal/pace"
	chatService "github.com/AudreyYZY/ADHD-Timebox/internal/service/chat"
	"github.com/AudreyYZY/ADHD-Timebox/internal/service/events"
	"github.com/AudreyYZY/ADHD-Timebox/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(agent streamHandler.AgentClient, chatSvc *chatService.Service, bus *events.Bus, resolver identity.Resolver) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		streamHandler.New(agent, resolver, pace.Options{}).RegisterRoutes(api)
		parkingHandler.New(chatSvc, bus, resolver).RegisterRoutes(api)
		eventsHandler.New(bus, 0).RegisterRoutes(api)
	})

	return r
}
