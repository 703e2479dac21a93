package http

import (
	"context"
	"net/http"
	"time"

	"spendwise/internal/core"
	"spendwise/internal/log"
)

const serviceName = "spendwise-backend"

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "SpendWise API is running!",
		"status":  "healthy",
		"health":  "/health",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": serviceName})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.deps.DB.Ping(ctx); err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Readiness check failed",
			log.FieldError, err.Error(),
			log.FieldErrorType, log.ErrorTypeDatabase)
		ErrorResponse(http.StatusServiceUnavailable, core.KindStore, "Database unavailable").Write(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready", "service": serviceName})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	session, err := s.deps.Auth.Register(r.Context(), req.Email, req.Password, sanitizeInput(req.Name), req.Currency)
	if err != nil {
		writeError(w, r, err)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "User registered",
		log.FieldUserID, session.User.ID,
		log.FieldOperation, log.OpCreate)

	writeJSON(w, http.StatusOK, sessionResponse{
		Message: "User created successfully",
		Token:   session.Token,
		UserID:  session.User.ID,
		Name:    session.User.Name,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	session, err := s.deps.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{
		Message: "Login successful",
		Token:   session.Token,
		UserID:  session.User.ID,
		Name:    session.User.Name,
	})
}
