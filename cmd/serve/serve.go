// Package serve exposes the search stack over HTTP, so other tools can
// query book availability without shelling out to the CLI.
package serve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"bookhunt/internal/classify"
	"bookhunt/internal/cmdutil"
	"bookhunt/internal/orchestrator"
	"bookhunt/internal/source"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Server wraps the orchestrator behind a JSON API. Searches run
// non-interactively: the first identity candidate always wins.
type Server struct {
	orch     *orchestrator.Orchestrator
	registry *source.Registry
}

// NewServer builds a server around an already-wired orchestrator.
func NewServer(orch *orchestrator.Orchestrator, registry *source.Registry) *Server {
	return &Server{orch: orch, registry: registry}
}

// NewFromConfig wires the search stack from the loaded configuration.
func NewFromConfig() (*Server, error) {
	orch, registry, err := cmdutil.BuildOrchestrator(nil)
	if err != nil {
		return nil, err
	}
	return NewServer(orch, registry), nil
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/sources", s.handleSources)
	mux.HandleFunc("GET /api/search", s.handleSearchGet)
	mux.HandleFunc("POST /api/search", s.handleSearchPost)
	return mux
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// sourceInfo is the /api/sources representation of one connector.
type sourceInfo struct {
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Priority int    `json:"priority"`
	Enabled  bool   `json:"enabled"`
	ISBN     bool   `json:"supports_isbn"`
	Title    bool   `json:"supports_title"`
}

func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	srcs := s.registry.All()
	descs := s.registry.Descriptors()

	infos := make([]sourceInfo, len(srcs))
	for i, src := range srcs {
		infos[i] = sourceInfo{
			Name:     src.Name(),
			Kind:     descs[i].Kind,
			Priority: descs[i].Priority,
			Enabled:  descs[i].Enabled,
			ISBN:     src.SupportsISBN(),
			Title:    src.SupportsTitle(),
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"sources": infos})
}

// handleSearchGet is the first half of the two-step flow: it returns the
// identity candidates for a query. Clients pick one and POST its isbn
// and title back for the full report.
func (s *Server) handleSearchGet(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "missing query parameter q")
		return
	}

	candidates, err := s.orch.Candidates(r.Context(), query)
	if err != nil {
		slog.Error("Candidate resolution failed", "query", query, "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	if len(candidates) == 0 {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no matching book found for %q", query))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"query":      query,
		"candidates": candidates,
	})
}

// searchRequest is the POST body. When both isbn and title are supplied
// the identity resolution step is skipped and the fan-out runs with them
// directly.
type searchRequest struct {
	Query string `json:"query"`
	ISBN  string `json:"isbn"`
	Title string `json:"title"`
}

func (s *Server) handleSearchPost(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	if req.ISBN != "" || req.Title != "" {
		identity := orchestrator.Identity{
			ISBN:  classify.Normalize(req.ISBN),
			Title: req.Title,
		}
		if identity.ISBN != "" && !classify.IsISBN(identity.ISBN) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("%q is not a valid ISBN", req.ISBN))
			return
		}
		if identity.ISBN == "" && identity.Title == "" {
			writeError(w, http.StatusBadRequest, "identity needs an isbn or a title")
			return
		}

		query := req.Query
		if query == "" {
			query = identity.Title
			if query == "" {
				query = identity.ISBN
			}
		}

		report := s.orch.RunSearch(r.Context(), query, identity)
		writeJSON(w, http.StatusOK, report)
		return
	}

	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "missing query")
		return
	}

	s.runSearch(w, r.Context(), strings.TrimSpace(req.Query))
}

func (s *Server) runSearch(w http.ResponseWriter, ctx context.Context, query string) {
	report, err := s.orch.Search(ctx, query)
	if err != nil {
		if errors.Is(err, orchestrator.ErrNoCandidates) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("no matching book found for %q", query))
			return
		}
		slog.Error("Search failed", "query", query, "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, report)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
