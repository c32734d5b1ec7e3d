package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Ravenshaw3/watch-media-server/internal/catalog"
	"github.com/Ravenshaw3/watch-media-server/internal/config"
	"github.com/Ravenshaw3/watch-media-server/internal/db"
	"github.com/Ravenshaw3/watch-media-server/internal/events"
	"github.com/Ravenshaw3/watch-media-server/internal/httputil"
	"github.com/Ravenshaw3/watch-media-server/internal/scanner"
	"github.com/Ravenshaw3/watch-media-server/internal/settings"
	"github.com/Ravenshaw3/watch-media-server/internal/version"
)

type Server struct {
	config       *config.Config
	db           *db.DB
	mediaRepo    *catalog.Repository
	settingsRepo *settings.Repository
	orchestrator *scanner.Orchestrator
	wsHub        *WSHub
	router       chi.Router
	httpServer   *http.Server
}

func NewServer(cfg *config.Config, database *db.DB, orch *scanner.Orchestrator,
	mediaRepo *catalog.Repository, settingsRepo *settings.Repository,
) *Server {
	s := &Server{
		config:       cfg,
		db:           database,
		mediaRepo:    mediaRepo,
		settingsRepo: settingsRepo,
		orchestrator: orch,
		wsHub:        NewWSHub(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) WSHub() *WSHub {
	return s.wsHub
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	mediaHandler := catalog.NewHandler(s.mediaRepo, s.libraryPath)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Mount("/scan", scanner.NewHandler(s.orchestrator).Router())
		r.Mount("/media", mediaHandler.Router())
		r.Get("/library/info", mediaHandler.LibraryInfo)
		r.Mount("/settings", settings.NewHandler(s.settingsRepo).Router())
	})
	r.Get("/ws", s.handleWebSocket)

	s.router = r
}

// libraryPath prefers the database setting over the boot-time config value,
// so a PUT /api/settings takes effect without a restart.
func (s *Server) libraryPath() string {
	if v, err := s.settingsRepo.Get(settings.KeyLibraryPath); err == nil && v != "" {
		return v
	}
	return s.config.LibraryPath
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if err := s.db.Ping(); err != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	httputil.WriteJSON(w, code, map[string]interface{}{
		"status":     status,
		"version":    version.Version,
		"ws_clients": s.wsHub.ClientCount(),
	})
}

// Start runs the HTTP server and a goroutine bridging the event bus to the
// WebSocket hub. Blocks until the server exits.
func (s *Server) Start(ctx context.Context, bus *events.Bus) error {
	go s.wsHub.Run(ctx, bus)

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("Server: listening on :%d", s.config.Port)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
