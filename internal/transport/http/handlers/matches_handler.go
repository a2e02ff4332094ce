package handlers

import (
	"errors"
	"net/http"

	authsvc "github.com/ivankudzin/commitdating/internal/services/auth"
	matchessvc "github.com/ivankudzin/commitdating/internal/services/matches"
	"github.com/ivankudzin/commitdating/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/commitdating/internal/transport/http/errors"
)

type MatchesHandler struct {
	service *matchessvc.Service
}

func NewMatchesHandler(service *matchessvc.Service) *MatchesHandler {
	return &MatchesHandler{service: service}
}

func (h *MatchesHandler) Handle(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MATCHES_SERVICE_UNAVAILABLE", "matches service is unavailable")
		return
	}

	items, err := h.service.List(r.Context(), identity.UserID)
	if err != nil {
		switch {
		case errors.Is(err, matchessvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid matches request")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to load matches")
		}
		return
	}

	out := make([]dto.MatchProfileResponse, 0, len(items))
	for _, item := range items {
		out = append(out, dto.MatchProfileResponse{
			ProfileResponse: dto.NewProfileResponse(item.Partner, item.Score),
			MatchID:         item.Match.ID,
			MatchedAt:       item.Match.CreatedAt,
		})
	}

	httperrors.Write(w, http.StatusOK, out)
}
