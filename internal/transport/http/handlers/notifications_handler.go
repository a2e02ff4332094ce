package handlers

import (
	"net/http"

	authsvc "github.com/ivankudzin/commitdating/internal/services/auth"
	ledgersvc "github.com/ivankudzin/commitdating/internal/services/ledger"
	"github.com/ivankudzin/commitdating/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/commitdating/internal/transport/http/errors"
)

type NotificationsHandler struct {
	ledger *ledgersvc.Service
}

func NewNotificationsHandler(ledger *ledgersvc.Service) *NotificationsHandler {
	return &NotificationsHandler{ledger: ledger}
}

func (h *NotificationsHandler) Handle(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.ledger == nil {
		writeInternal(w, "LEDGER_SERVICE_UNAVAILABLE", "notification service is unavailable")
		return
	}

	count, err := h.ledger.UnreadCount(r.Context(), identity.UserID)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to count notifications")
		return
	}
	httperrors.Write(w, http.StatusOK, dto.NotificationsResponse{UnreadCount: count})
}
