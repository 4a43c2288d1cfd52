// Package httpapi exposes the presentation-layer surface over HTTP: form
// field updates, the submit trigger, the status feedback channel, and the
// operational endpoints.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"admissions-intake/internal/common/errors"
	"admissions-intake/internal/common/logger"
	"admissions-intake/internal/models"
	"admissions-intake/internal/session"
	"admissions-intake/internal/submission"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server serves one intake session to the presentation layer.
type Server struct {
	sess *session.Context
	ctrl *submission.Controller
	log  logger.Logger

	httpServer *http.Server
}

// New builds the server around a session and its controller.
func New(addr string, sess *session.Context, ctrl *submission.Controller, log logger.Logger) *Server {
	s := &Server{
		sess: sess,
		ctrl: ctrl,
		log:  log,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/programs", s.handlePrograms)
	mux.HandleFunc("GET /api/form", s.handleGetForm)
	mux.HandleFunc("PUT /api/form/{field}", s.handleSetField)
	mux.HandleFunc("POST /api/submit", s.handleSubmit)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ready", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	return s
}

// Handler exposes the route table for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe blocks serving requests until Shutdown.
func (s *Server) ListenAndServe() error {
	s.log.Info("HTTP server listening", map[string]interface{}{
		"address": s.httpServer.Addr,
	})
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// statusResponse is the feedback channel of the presentation layer: the
// status string plus the enabled state of the submit trigger.
type statusResponse struct {
	Status        string `json:"status"`
	State         string `json:"state"`
	Identity      string `json:"identity,omitempty"`
	SubmitEnabled bool   `json:"submitEnabled"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Status:        s.sess.Status(),
		State:         string(s.sess.State()),
		Identity:      s.sess.Identity(),
		SubmitEnabled: s.sess.Ready() && !s.ctrl.InFlight(),
	})
}

func (s *Server) handlePrograms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"programs": models.Programs,
	})
}

func (s *Server) handleGetForm(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.Form())
}

type setFieldRequest struct {
	Value string `json:"value"`
}

func (s *Server) handleSetField(w http.ResponseWriter, r *http.Request) {
	field := r.PathValue("field")

	var req setFieldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.ctrl.SetField(field, req.Value); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, s.ctrl.Form())
}

type submitResponse struct {
	DocumentID string `json:"documentId,omitempty"`
	Status     string `json:"status"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	docID, err := s.ctrl.Submit(r.Context())
	if err != nil {
		status := http.StatusBadGateway
		switch errors.Normalize(err).Code {
		case errors.ErrCodeNotReady:
			status = http.StatusServiceUnavailable
		case errors.ErrCodeSubmissionInFlight:
			status = http.StatusConflict
		}
		writeJSON(w, status, submitResponse{Status: s.sess.Status()})
		return
	}

	writeJSON(w, http.StatusCreated, submitResponse{
		DocumentID: docID,
		Status:     s.sess.Status(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if !s.sess.Ready() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"ready":  false,
			"status": s.sess.Status(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"ready": true})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
