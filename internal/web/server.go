package web

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/adolfousier/neura-hustle-tracker-sub000/internal/config"
)

type Server struct {
	config  *config.Config
	handler *Handler
	server  *http.Server
}

// NewServer serves the dashboard and JSON API. status may be nil when no
// tracker runs in this process.
func NewServer(cfg *config.Config, repo Store, status StatusSource, customPort int) *Server {
	handler := NewHandler(cfg, repo, status)

	port := cfg.Web.Port
	if customPort > 0 {
		port = customPort
	}

	addr := fmt.Sprintf("%s:%d", cfg.Web.Host, port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      NewRouter(handler),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		config:  cfg,
		handler: handler,
		server:  httpServer,
	}
}

// NewRouter registers every route of h.
func NewRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/sessions", h.handleSessions).Methods("GET")
	api.HandleFunc("/sessions/latest", h.handleLatestSession).Methods("GET")
	api.HandleFunc("/current", h.handleCurrent).Methods("GET")
	api.HandleFunc("/report", h.handleReport).Methods("GET")
	api.HandleFunc("/summary", h.handleSummary).Methods("GET")
	api.HandleFunc("/breakdown/{kind}", h.handleBreakdown).Methods("GET")
	api.HandleFunc("/categories", h.handleCategories).Methods("GET")
	api.HandleFunc("/overrides", h.handleListOverrides).Methods("GET")
	api.HandleFunc("/overrides", h.handleCreateOverride).Methods("POST")
	api.HandleFunc("/errors", h.handleErrors).Methods("GET")
	api.HandleFunc("/status", h.handleStatus).Methods("GET")

	r.HandleFunc("/health", h.handleHealth).Methods("GET")
	r.HandleFunc("/", h.handleIndex).Methods("GET")

	return r
}

func (s *Server) Start() error {
	log.Printf("Starting web server on http://%s", s.server.Addr)
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down web server...")
	return s.server.Shutdown(ctx)
}

func (s *Server) GetAddress() string {
	return s.server.Addr
}
