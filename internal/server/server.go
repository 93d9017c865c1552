package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"recruitexport/internal/export"
)

// Exporter runs exports and exposes the files they produce.
type Exporter interface {
	Export(ctx context.Context) (*export.Result, error)
	CSV() *export.FileSink
	ICS() *export.FileSink
}

// Server wires HTTP handlers.
type Server struct {
	exporter Exporter
	logger   *slog.Logger
}

type fetchResponse struct {
	Message string `json:"message"`
	Records int    `json:"records"`
	RunID   string `json:"runId"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewRouter creates the HTTP router with middleware.
func NewRouter(logger *slog.Logger, exporter Exporter) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))

	srv := &Server{exporter: exporter, logger: logger}

	r.Get("/fetch-participant-info", srv.handleFetch)
	r.Get("/download-csv", srv.handleDownloadCSV)
	r.Get("/download-ics", srv.handleDownloadICS)
	r.Get("/health", srv.handleHealth)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	res, err := s.exporter.Export(r.Context())
	if err != nil {
		s.logger.Error("Export failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, fetchResponse{Message: res.Message, Records: res.Records, RunID: res.RunID})
}

func (s *Server) handleDownloadCSV(w http.ResponseWriter, r *http.Request) {
	s.serveFile(w, r, s.exporter.CSV(), export.ContentTypeCSV, "CSV file not found!")
}

func (s *Server) handleDownloadICS(w http.ResponseWriter, r *http.Request) {
	s.serveFile(w, r, s.exporter.ICS(), export.ContentTypeICS, "ICS file not found!")
}

func (s *Server) serveFile(w http.ResponseWriter, r *http.Request, sink *export.FileSink, contentType, notFound string) {
	if sink == nil || !sink.Exists() {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: notFound})
		return
	}
	f, err := sink.Open()
	if err != nil {
		// Removed between the check and the open.
		if errors.Is(err, os.ErrNotExist) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: notFound})
			return
		}
		s.logger.Error("Failed to open export file", "path", sink.Path(), "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	defer f.Close()

	var modTime time.Time
	if info, err := f.Stat(); err == nil {
		modTime = info.ModTime()
	}

	name := filepath.Base(sink.Path())
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	http.ServeContent(w, r, name, modTime, f)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
			)
		})
	}
}
