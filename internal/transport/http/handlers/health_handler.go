package handlers

import (
	"net/http"

	"github.com/ivankudzin/commitdating/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/commitdating/internal/transport/http/errors"
)

type SessionCounter interface {
	Len() int
}

type HealthHandler struct {
	sessions SessionCounter
}

func NewHealthHandler(sessions SessionCounter) *HealthHandler {
	return &HealthHandler{sessions: sessions}
}

func (h *HealthHandler) Get(w http.ResponseWriter, _ *http.Request) {
	resp := dto.HealthResponse{OK: true}
	if h.sessions != nil {
		resp.LiveSessions = h.sessions.Len()
	}
	httperrors.Write(w, http.StatusOK, resp)
}
