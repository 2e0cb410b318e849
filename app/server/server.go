// Package server wires the store, services, controllers and router into an
// HTTP server.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"

	"collab-go/app/config"
	"collab-go/app/controllers"
	"collab-go/app/llm"
	"collab-go/app/middleware"
	"collab-go/app/observability"
	"collab-go/app/routes"
	"collab-go/app/search"
	"collab-go/app/services"
	"collab-go/app/store"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"
)

// Server is the HTTP front of the application.
type Server struct {
	cfg     config.Config
	store   store.Store
	handler http.Handler
}

// New builds the services and router on top of st. The store stays owned by
// the caller.
func New(cfg config.Config, st store.Store) *Server {
	users := services.NewUserService(st, cfg.Auth)

	var assistantLLM llm.Client
	if client, err := llm.NewOpenAIClient(cfg.LLM); err != nil {
		slog.Warn("Assistant disabled", "error", err)
	} else {
		assistantLLM = client
	}
	var searcher search.Searcher
	if cfg.Search.APIKey != "" {
		searcher = search.NewSerperClient(cfg.Search)
	}

	router := mux.NewRouter()
	router.Use(middleware.Tracing, middleware.AccessLog(slog.Default()), middleware.Metrics)
	routes.RegisterRoutes(router, routes.Controllers{
		Users:     controllers.NewUserController(users),
		Projects:  controllers.NewProjectController(services.NewProjectService(st, st)),
		Messages:  controllers.NewMessageController(services.NewMessageService(st, st)),
		Tasks:     controllers.NewTaskController(services.NewTaskService(st)),
		Assistant: controllers.NewAssistantController(services.NewAssistantService(assistantLLM, searcher, cfg.LLM.RequestsPerMinute)),
	}, users)

	cors := handlers.CORS(
		handlers.AllowedOrigins(cfg.Server.AllowedOrigins),
		handlers.AllowCredentials(),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
	)
	return &Server{cfg: cfg, store: st, handler: cors(router)}
}

// Handler returns the fully wrapped router.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves until ctx is cancelled, then drains in-flight requests for up to
// the configured grace period.
func (s *Server) Run(ctx context.Context) error {
	if s.cfg.Tracing.Enabled {
		shutdownTracing, err := observability.InitTracing(os.Stdout, "collab-go")
		if err != nil {
			return err
		}
		defer func() {
			if err := shutdownTracing(context.Background()); err != nil {
				slog.Warn("Failed to flush traces", "error", err)
			}
		}()
	}

	ln, err := net.Listen("tcp", s.cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Server.Addr, err)
	}
	srv := &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Server is running", "addr", ln.Addr().String(), "store", s.cfg.Store.Driver)
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownGrace)
		defer cancel()
		slog.Info("Shutting down server")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
