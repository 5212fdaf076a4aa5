package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/AudreyYZY/ADHD-Timebox/internal/config"
	"github.com/AudreyYZY/ADHD-Timebox/internal/handler"
	"github.com/AudreyYZY/ADHD-Timebox/internal/identity"
	agentservice "github.com/AudreyYZY/ADHD-Timebox/internal/service/agent"
	chatservice "github.com/AudreyYZY/ADHD-Timebox/internal/service/chat"
	"github.com/AudreyYZY/ADHD-Timebox/internal/service/events"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	chatService := chatservice.NewService()
	bus := events.NewBus()
	agentClient := agentservice.NewClient(cfg.Agent)
	log.Printf("agent backend at %s (timeout %s)", cfg.Agent.BaseURL, cfg.Agent.Timeout)

	resolver := buildResolver(cfg)

	router := handler.NewRouter(agentClient, chatService, bus, resolver)

	startServer(ctx, cfg.Server, router)
}

// buildResolver selects the identity strategy once at wiring time; the
// header fallback is never constructed in production.
func buildResolver(cfg *config.Config) identity.Resolver {
	if cfg.App.Production() {
		sessions := identity.NewSessionResolver()
		for token, user := range cfg.Identity.SessionTokens {
			sessions.Grant(token, user)
		}
		log.Printf("[identity] session resolver active with %d seeded tokens", len(cfg.Identity.SessionTokens))
		return sessions
	}

	log.Printf("[identity] development header resolver active (%s)", cfg.Identity.DevHeader)
	return identity.NewHeaderResolver(cfg.Identity.DevHeader)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("ADHD Timebox gateway listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
