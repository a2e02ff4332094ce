package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ivankudzin/commitdating/internal/domain/enums"
	authsvc "github.com/ivankudzin/commitdating/internal/services/auth"
	matchessvc "github.com/ivankudzin/commitdating/internal/services/matches"
	"github.com/ivankudzin/commitdating/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/commitdating/internal/transport/http/errors"
)

type ActionHandler struct {
	service *matchessvc.Service
}

func NewActionHandler(service *matchessvc.Service) *ActionHandler {
	return &ActionHandler{service: service}
}

func (h *ActionHandler) Handle(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MATCH_SERVICE_UNAVAILABLE", "match service is unavailable")
		return
	}

	var req dto.ActionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if req.TargetID <= 0 || strings.TrimSpace(req.ActionType) == "" {
		writeBadRequest(w, "VALIDATION_ERROR", "target_id and action_type are required")
		return
	}

	result, err := h.service.RecordAction(r.Context(), identity.UserID, req.TargetID, enums.ActionKind(req.ActionType))
	if err != nil {
		switch {
		case errors.Is(err, matchessvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid action request")
		case errors.Is(err, matchessvc.ErrUnsupportedAction):
			writeBadRequest(w, "VALIDATION_ERROR", "unsupported action")
		case errors.Is(err, matchessvc.ErrTargetNotFound):
			writeNotFound(w, "USER_NOT_FOUND", "target user not found")
		case errors.Is(err, matchessvc.ErrActorNotFound):
			writeUnauthorized(w, "UNAUTHORIZED", "account no longer exists")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to record action")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, dto.ActionResponse{
		Success: true,
		Match:   result.MatchCreated,
	})
}
