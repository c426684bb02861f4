// Package server exposes upload, listing and re-evaluation of analyses over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/lvonguyen/ppc-analyzer/internal/analysis"
	"github.com/lvonguyen/ppc-analyzer/internal/config"
	"github.com/lvonguyen/ppc-analyzer/internal/normalizer"
	"github.com/lvonguyen/ppc-analyzer/internal/source"
	"github.com/lvonguyen/ppc-analyzer/internal/store"
)

// OwnerHeader carries the caller's identity
const OwnerHeader = "X-Owner-ID"

// Store persists saved analyses
type Store interface {
	Save(ctx context.Context, ownerID, name string, rows []normalizer.Row, result *analysis.Result, targetACoS float64) (string, error)
	List(ctx context.Context, ownerID string) ([]store.Record, error)
	Get(ctx context.Context, ownerID, id string) (*store.Record, error)
	Delete(ctx context.Context, ownerID, id string) error
}

// Server handles the analysis API
type Server struct {
	store     Store
	analyzer  *analysis.Analyzer
	logger    *zap.Logger
	target    float64
	maxUpload int64
}

// New creates a new Server
func New(st Store, cfg *config.Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		store:     st,
		analyzer:  analysis.NewAnalyzer(logger),
		logger:    logger,
		target:    cfg.Analysis.TargetACoS,
		maxUpload: cfg.Server.MaxUploadMB << 20,
	}
}

// Routes returns the HTTP handler
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/analyses", func(r chi.Router) {
		r.Use(requireOwner)
		r.Post("/", s.handleCreate)
		r.Get("/", s.handleList)
		r.Get("/{id}", s.handleGet)
		r.Delete("/{id}", s.handleDelete)
		r.Post("/{id}/evaluate", s.handleEvaluate)
	})

	return r
}

type createResponse struct {
	ID       string           `json:"id"`
	Analysis *analysis.Result `json:"analysis"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid upload: %v", err))
		return
	}

	target, err := s.targetACoS(r.FormValue("target_acos"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	wb, err := source.OpenReader(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "the file appears to be empty or corrupted")
		return
	}
	defer wb.Close()

	sheet, err := wb.Sheet(r.FormValue("sheet"))
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}

	res, err := s.analyzer.Analyze(sheet.Rows, target)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}

	name := r.FormValue("name")
	if name == "" {
		name = header.Filename
	}

	id, err := s.store.Save(r.Context(), owner(r), name, sheet.Rows, res, target)
	if err != nil {
		s.logger.Error("Failed to save analysis", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to save analysis")
		return
	}

	s.logger.Info("Analysis saved",
		zap.String("id", id),
		zap.String("sheet", sheet.Name),
		zap.Int("rows", len(sheet.Rows)),
	)
	respondJSON(w, http.StatusCreated, createResponse{ID: id, Analysis: res})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.List(r.Context(), owner(r))
	if err != nil {
		s.logger.Error("Failed to list analyses", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to list analyses")
		return
	}
	respondJSON(w, http.StatusOK, records)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.Get(r.Context(), owner(r), chi.URLParam(r, "id"))
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), owner(r), chi.URLParam(r, "id")); err != nil {
		s.respondStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleEvaluate re-analyzes a saved analysis's rows with a new target
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	target, err := s.targetACoS(r.URL.Query().Get("target_acos"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := s.store.Get(r.Context(), owner(r), chi.URLParam(r, "id"))
	if err != nil {
		s.respondStoreError(w, err)
		return
	}

	res, err := s.analyzer.Analyze(rec.Rows, target)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (s *Server) targetACoS(raw string) (float64, error) {
	if raw == "" {
		return s.target, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("target_acos must be a positive number, got %q", raw)
	}
	return v, nil
}

func (s *Server) respondStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	s.logger.Error("Store request failed", zap.Error(err))
	respondError(w, http.StatusInternalServerError, "internal error")
}

// statusFor maps input errors to client statuses
func statusFor(err error) int {
	switch {
	case errors.Is(err, analysis.ErrNoData),
		errors.Is(err, source.ErrNoData),
		errors.Is(err, source.ErrNoSheets):
		return http.StatusUnprocessableEntity
	case errors.Is(err, source.ErrSheetNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

type ownerKey struct{}

func requireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(OwnerHeader)
		if id == "" {
			respondError(w, http.StatusUnauthorized, OwnerHeader+" header is required")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ownerKey{}, id)))
	})
}

func owner(r *http.Request) string {
	id, _ := r.Context().Value(ownerKey{}).(string)
	return id
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("Request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
