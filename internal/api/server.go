package api

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/triallog/triallog/internal/events"
	"github.com/triallog/triallog/internal/extract"
	"github.com/triallog/triallog/internal/store"
)

//go:embed templates/dashboard.html
var templateFS embed.FS

type Server struct {
	router    *chi.Mux
	port      int
	store     store.Store
	strategy  extract.Strategy
	publisher *events.Publisher
	patientID string
	logger    *slog.Logger
	tmpl      *template.Template
}

func NewServer(port int, st store.Store, strategy extract.Strategy, pub *events.Publisher, patientID string, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:    router,
		port:      port,
		store:     st,
		strategy:  strategy,
		publisher: pub,
		patientID: patientID,
		logger:    logger,
		tmpl:      template.Must(template.ParseFS(templateFS, "templates/dashboard.html")),
	}

	router.Get("/health", s.health)
	router.Get("/", s.dashboard)
	router.Post("/webhook/{source}", s.handleWebhook)
	router.Post("/api/test", s.handleWebhook)
	router.Get("/api/entries", s.listEntries)
	router.Get("/export/{patientID}", s.exportReport)

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("API server starting", "addr", addr, "extractor", s.strategy.Name())
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.ListAll(r.Context())
	if err != nil {
		s.logger.Error("dashboard list failed", "error", err)
		http.Error(w, "failed to load entries", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.Execute(w, map[string]any{
		"Entries": entries,
		"Total":   len(entries),
	}); err != nil {
		s.logger.Error("dashboard render failed", "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
