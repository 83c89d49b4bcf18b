package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/vikasvdk5/WestBay/internal/report"
	"github.com/vikasvdk5/WestBay/internal/workflow"
)

func (s *Server) registerAPI(mux *http.ServeMux) {
	// Report sessions
	mux.HandleFunc("POST /api/sessions", s.createSession)
	mux.HandleFunc("GET /api/sessions", s.listSessions)
	mux.HandleFunc("GET /api/sessions/{id}", s.getSession)
	mux.HandleFunc("GET /api/sessions/{id}/report", s.getReport)
	mux.HandleFunc("DELETE /api/sessions/{id}", s.deleteSession)

	// System
	mux.HandleFunc("GET /api/status", s.getStatus)
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var spec report.RequestSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	id, err := s.engine.Submit(r.Context(), spec)
	if err != nil {
		var verr *report.ValidationError
		if errors.As(err, &verr) {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"session_id": id})
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	rows, err := s.store.ListSessions()
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	jsonResponse(w, rows)
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	snap, err := s.engine.Poll(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, workflow.ErrNotFound) {
			jsonError(w, "session not found", http.StatusNotFound)
			return
		}
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	jsonResponse(w, snap)
}

func (s *Server) getReport(w http.ResponseWriter, r *http.Request) {
	artifact, err := s.engine.Result(r.PathValue("id"))
	switch {
	case err == nil:
		jsonResponse(w, artifact)
	case errors.Is(err, workflow.ErrNotFound):
		jsonError(w, "session not found", http.StatusNotFound)
	case errors.Is(err, workflow.ErrNotReady):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(map[string]string{"status": "pending"})
	case errors.Is(err, workflow.ErrSessionFailed):
		jsonError(w, "session failed", http.StatusInternalServerError)
	default:
		jsonError(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteSession(r.PathValue("id")); err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	jsonResponse(w, map[string]string{"status": "deleted"})
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	rows, err := s.store.ListSessions()
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	jsonResponse(w, map[string]any{
		"version":  s.version,
		"uptime":   time.Since(s.startedAt).Round(time.Second).String(),
		"sessions": len(rows),
	})
}

func jsonResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
