package visualize

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/phrazzld/docdistill/internal/store"
)

// Server serves the HTML report over HTTP, re-reading the dataset on every
// request so the view stays live while a generation run appends to it.
type Server struct {
	records *store.RecordStore
	logger  *slog.Logger
}

// NewServer creates a report server over the given dataset.
func NewServer(records *store.RecordStore, logger *slog.Logger) *Server {
	return &Server{records: records, logger: logger}
}

// Router builds the HTTP routes: the report at / and a liveness probe at
// /healthz.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Get("/", s.handleReport)
	r.Get("/healthz", s.handleHealthz)

	return r
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	records, err := s.records.All()
	if err != nil {
		s.logger.Error("failed to read dataset for report", "path", s.records.Path(), "error", err)
		http.Error(w, "failed to read dataset", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := Render(w, records); err != nil {
		s.logger.Error("failed to render report", "error", err)
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("ok")); err != nil {
		s.logger.Error("failed to write health response", "error", err)
	}
}
