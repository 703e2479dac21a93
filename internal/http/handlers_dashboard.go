package http

import (
	"errors"
	"net/http"
	"strings"

	"spendwise/internal/core"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.deps.Analytics.Dashboard(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDashboardResponse(d))
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	in, err := s.deps.Analytics.Insights(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toInsightsResponse(in))
}

func (s *Server) handleChatbot(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, r, core.Invalid(errors.New("message cannot be empty")))
		return
	}

	reply, err := s.deps.Chat.Resolve(r.Context(), userID(r), req.Message)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Reply: reply})
}
