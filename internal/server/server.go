// Package server exposes an editing session over HTTP: a canvas page, a JSON
// API for every editor intent, import/export and Prometheus metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/msalah0e/relmap/internal/editor"
	"github.com/msalah0e/relmap/internal/graph"
	"github.com/msalah0e/relmap/internal/metrics"
)

// maxBodyBytes caps request bodies, including imports.
const maxBodyBytes = 8 << 20

// Config holds server configuration.
type Config struct {
	Addr  string
	Title string
	// Generator issues ids and positions for imported records.
	Generator graph.Generator
}

// Server serves one editor store.
type Server struct {
	cfg     Config
	store   *editor.Store
	logger  *zap.Logger
	metrics *metrics.Collector
	http    *http.Server
}

// New creates a server for store. logger and m may be nil.
func New(cfg Config, store *editor.Store, logger *zap.Logger, m *metrics.Collector) *Server {
	if cfg.Title == "" {
		cfg.Title = "relmap"
	}
	if cfg.Generator == nil {
		cfg.Generator = graph.NewGenerator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{cfg: cfg, store: store, logger: logger, metrics: m}
	s.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger(s.logger, s.metrics))

	r.Get("/", s.handleCanvas)
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", s.handleState)
		r.Get("/view", s.handleView)

		r.Route("/persons", func(r chi.Router) {
			r.Get("/", s.handleListPersons)
			r.Post("/", s.handleAddPerson)
			r.Get("/{id}", s.handleGetPerson)
			r.Patch("/{id}", s.handleUpdatePerson)
			r.Delete("/{id}", s.handleDeletePerson)
			r.Post("/{id}/move", s.handleMovePerson)
		})

		r.Route("/relations", func(r chi.Router) {
			r.Get("/", s.handleListRelations)
			r.Post("/", s.handleAddRelation)
			r.Get("/{id}", s.handleGetRelation)
			r.Patch("/{id}", s.handleUpdateRelation)
			r.Delete("/{id}", s.handleDeleteRelation)
		})

		r.Post("/merge", s.handleMerge)
		r.Post("/undo", s.handleUndo)
		r.Post("/redo", s.handleRedo)
		r.Post("/keys", s.handleKey)

		r.Put("/selection", s.handleSelect)
		r.Delete("/selection", s.handleClearSelection)

		r.Route("/connect", func(r chi.Router) {
			r.Post("/", s.handleStartConnect)
			r.Delete("/", s.handleCancelConnect)
			r.Post("/click", s.handleConnectClick)
		})
		r.Post("/canvas/click", s.handleCanvasClick)

		r.Route("/visual-merges", func(r chi.Router) {
			r.Get("/", s.handleListVisualMerges)
			r.Post("/", s.handleVisualMerge)
			r.Delete("/{key}", s.handleVisualUnmerge)
			r.Put("/{key}/displayed", s.handleSetDisplayed)
		})

		r.Route("/export", func(r chi.Router) {
			r.Get("/json", s.handleExportJSON)
			r.Get("/persons.csv", s.handleExportPersonsCSV)
			r.Get("/relations.csv", s.handleExportRelationsCSV)
			r.Get("/dot", s.handleExportDOT)
		})

		r.Route("/import", func(r chi.Router) {
			r.Post("/json", s.handleImportJSON)
			r.Post("/persons", s.handleImportPersonsCSV)
			r.Post("/relations", s.handleImportRelationsCSV)
		})
	})

	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.logger.Info("relmap server listening", zap.String("addr", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.http.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return err
	}
	<-errCh
	return nil
}

// ─── helpers ───

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// decode reads a JSON body into dst and validates it.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	if err := validateStruct(dst); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}
