package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	authsvc "github.com/ivankudzin/commitdating/internal/services/auth"
	profilesvc "github.com/ivankudzin/commitdating/internal/services/profiles"
	"github.com/ivankudzin/commitdating/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/commitdating/internal/transport/http/errors"
)

type ProfileHandler struct {
	service  *profilesvc.Service
	pageSize int
}

func NewProfileHandler(service *profilesvc.Service, pageSize int) *ProfileHandler {
	return &ProfileHandler{service: service, pageSize: pageSize}
}

// Candidates serves GET /api/profiles.
func (h *ProfileHandler) Candidates(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}

	limit := parseIntOrDefault(r.URL.Query().Get("limit"), h.pageSize)
	items, err := h.service.Candidates(r.Context(), identity.UserID, limit)
	if err != nil {
		handleProfileError(w, err)
		return
	}
	httperrors.Write(w, http.StatusOK, profileList(items))
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}

	targetID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || targetID <= 0 {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid user id")
		return
	}

	profile, err := h.service.Get(r.Context(), identity.UserID, targetID)
	if err != nil {
		handleProfileError(w, err)
		return
	}
	httperrors.Write(w, http.StatusOK, dto.NewProfileResponse(profile.User, profile.MatchScore))
}

func (h *ProfileHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}

	user, err := h.service.Me(r.Context(), identity.UserID)
	if err != nil {
		handleProfileError(w, err)
		return
	}
	httperrors.Write(w, http.StatusOK, dto.NewProfileResponse(user, 0))
}

func (h *ProfileHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}

	var req dto.UpdateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	user, err := h.service.UpdateMe(r.Context(), identity.UserID, req.Patch())
	if err != nil {
		handleProfileError(w, err)
		return
	}
	httperrors.Write(w, http.StatusOK, dto.NewProfileResponse(user, 0))
}

func (h *ProfileHandler) LikesReceived(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}

	items, err := h.service.LikesReceived(r.Context(), identity.UserID)
	if err != nil {
		handleProfileError(w, err)
		return
	}
	httperrors.Write(w, http.StatusOK, profileList(items))
}

func (h *ProfileHandler) LikesSent(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}

	items, err := h.service.LikesSent(r.Context(), identity.UserID)
	if err != nil {
		handleProfileError(w, err)
		return
	}
	httperrors.Write(w, http.StatusOK, profileList(items))
}

func (h *ProfileHandler) identity(w http.ResponseWriter, r *http.Request) (authsvc.Identity, bool) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return authsvc.Identity{}, false
	}
	if h.service == nil {
		writeInternal(w, "PROFILE_SERVICE_UNAVAILABLE", "profile service is unavailable")
		return authsvc.Identity{}, false
	}
	return identity, true
}

func handleProfileError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, profilesvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "invalid profile request")
	case errors.Is(err, profilesvc.ErrNotFound):
		writeNotFound(w, "USER_NOT_FOUND", "user not found")
	default:
		writeInternal(w, "INTERNAL_ERROR", "failed to load profiles")
	}
}

func profileList(items []profilesvc.Profile) []dto.ProfileResponse {
	out := make([]dto.ProfileResponse, 0, len(items))
	for _, item := range items {
		out = append(out, dto.NewProfileResponse(item.User, item.MatchScore))
	}
	return out
}

func parseIntOrDefault(raw string, fallback int) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return value
}
