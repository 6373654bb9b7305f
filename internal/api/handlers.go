// Package api provides HTTP handlers for StandTall endpoints.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/couragelab/standtall/internal/levels"
	"github.com/couragelab/standtall/internal/models"
)

// sessionsHandler routes session operations (POST /sessions, GET /sessions/{id},
// POST /sessions/{id}/{start|turn|advance|retry}).
func (s *Server) sessionsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.sessionsHandler: processing request", "method", r.Method, "path", r.URL.Path)

	path := strings.TrimPrefix(r.URL.Path, "/sessions")

	// Remove leading slash if present
	path = strings.TrimPrefix(path, "/")

	// Split path into segments
	segments := strings.Split(path, "/")

	if len(segments) == 0 || segments[0] == "" {
		// /sessions
		switch r.Method {
		case http.MethodPost:
			s.createSessionHandler(w, r)
		default:
			w.Header().Set("Allow", http.MethodPost)
			writeJSONResponse(w, http.StatusMethodNotAllowed, models.Error("Method not allowed"))
		}
		return
	}

	sessionID := segments[0]

	if len(segments) == 1 {
		// /sessions/{id}
		switch r.Method {
		case http.MethodGet:
			s.getSessionHandler(w, r, sessionID)
		default:
			w.Header().Set("Allow", http.MethodGet)
			writeJSONResponse(w, http.StatusMethodNotAllowed, models.Error("Method not allowed"))
		}
		return
	}

	if len(segments) == 2 {
		// /sessions/{id}/{action}
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			writeJSONResponse(w, http.StatusMethodNotAllowed, models.Error("Method not allowed"))
			return
		}
		switch segments[1] {
		case "start":
			s.startLevelHandler(w, r, sessionID)
		case "turn":
			s.submitTurnHandler(w, r, sessionID)
		case "advance":
			s.advanceLevelHandler(w, r, sessionID)
		case "retry":
			s.retryLevelHandler(w, r, sessionID)
		default:
			writeJSONResponse(w, http.StatusNotFound, models.Error("Unknown session action"))
		}
		return
	}

	writeJSONResponse(w, http.StatusNotFound, models.Error("Unknown session endpoint"))
}

// createSessionHandler handles POST /sessions.
func (s *Server) createSessionHandler(w http.ResponseWriter, r *http.Request) {
	sess, err := s.engine.CreateSession()
	if err != nil {
		slog.Error("Server.createSessionHandler: failed to create session", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to create session"))
		return
	}
	slog.Info("Server.createSessionHandler: session created", "sessionID", sess.ID)
	writeJSONResponse(w, http.StatusCreated, models.Success(sess))
}

// getSessionHandler handles GET /sessions/{id}.
func (s *Server) getSessionHandler(w http.ResponseWriter, r *http.Request, sessionID string) {
	sess, err := s.engine.GetSession(sessionID)
	if err != nil {
		s.writeEngineError(w, "getSessionHandler", sessionID, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(sess))
}

// startLevelHandler handles POST /sessions/{id}/start.
func (s *Server) startLevelHandler(w http.ResponseWriter, r *http.Request, sessionID string) {
	sess, err := s.engine.StartLevel(sessionID)
	if err != nil {
		s.writeEngineError(w, "startLevelHandler", sessionID, err)
		return
	}
	slog.Info("Server.startLevelHandler: level started", "sessionID", sessionID, "level", sess.LevelIndex)
	writeJSONResponse(w, http.StatusOK, models.Success(sess))
}

// submitTurnHandler handles POST /sessions/{id}/turn.
func (s *Server) submitTurnHandler(w http.ResponseWriter, r *http.Request, sessionID string) {
	var req models.TurnSubmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.submitTurnHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if err := req.Validate(); err != nil {
		slog.Warn("Server.submitTurnHandler: validation failed", "error", err, "sessionID", sessionID)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	sess, err := s.engine.SubmitTurn(r.Context(), sessionID, req.Utterance)
	if err != nil {
		s.writeEngineError(w, "submitTurnHandler", sessionID, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(sess))
}

// advanceLevelHandler handles POST /sessions/{id}/advance.
func (s *Server) advanceLevelHandler(w http.ResponseWriter, r *http.Request, sessionID string) {
	sess, err := s.engine.AdvanceLevel(sessionID)
	if err != nil {
		s.writeEngineError(w, "advanceLevelHandler", sessionID, err)
		return
	}
	slog.Info("Server.advanceLevelHandler: advanced", "sessionID", sessionID, "level", sess.LevelIndex, "phase", sess.Phase)
	writeJSONResponse(w, http.StatusOK, models.Success(sess))
}

// retryLevelHandler handles POST /sessions/{id}/retry.
func (s *Server) retryLevelHandler(w http.ResponseWriter, r *http.Request, sessionID string) {
	sess, err := s.engine.RetryLevel(sessionID)
	if err != nil {
		s.writeEngineError(w, "retryLevelHandler", sessionID, err)
		return
	}
	slog.Info("Server.retryLevelHandler: level restarted", "sessionID", sessionID, "level", sess.LevelIndex)
	writeJSONResponse(w, http.StatusOK, models.Success(sess))
}

// writeEngineError maps engine errors to HTTP status codes.
func (s *Server) writeEngineError(w http.ResponseWriter, handler, sessionID string, err error) {
	switch {
	case errors.Is(err, models.ErrSessionNotFound):
		slog.Warn("Server."+handler+": session not found", "sessionID", sessionID)
		writeJSONResponse(w, http.StatusNotFound, models.Error("Session not found"))
	case errors.Is(err, models.ErrTurnPending):
		slog.Warn("Server."+handler+": turn already in flight", "sessionID", sessionID)
		writeJSONResponse(w, http.StatusConflict, models.Error("A turn is already being judged"))
	case errors.Is(err, models.ErrWrongPhase):
		slog.Warn("Server."+handler+": operation not legal in current phase", "sessionID", sessionID)
		writeJSONResponse(w, http.StatusConflict, models.Error("Operation not allowed in the session's current phase"))
	default:
		slog.Error("Server."+handler+": internal error", "error", err, "sessionID", sessionID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Internal server error"))
	}
}

// levelsHandler returns the static level table (GET /levels).
func (s *Server) levelsHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.levelsHandler: processing levels request", "method", r.Method, "path", r.URL.Path)
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		slog.Warn("Server.levelsHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(levels.All()))
}

// healthHandler provides a health check endpoint for monitoring and load balancing
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	healthData := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"levels":    levels.Count(),
	}

	// A store round trip is the health indicator: an unreachable database
	// means the service cannot do useful work.
	if _, err := s.st.GetSession("s_healthcheck"); err != nil {
		slog.Warn("Health check: store probe failed", "error", err)
		healthData["status"] = "degraded"
		healthData["error"] = "Store unreachable"
	}

	statusCode := http.StatusOK
	if healthData["status"] == "degraded" {
		statusCode = http.StatusServiceUnavailable
	}

	writeJSONResponse(w, statusCode, healthData)
}
