package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	authsvc "github.com/ivankudzin/commitdating/internal/services/auth"
	chatsvc "github.com/ivankudzin/commitdating/internal/services/chat"
	ledgersvc "github.com/ivankudzin/commitdating/internal/services/ledger"
	"github.com/ivankudzin/commitdating/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/commitdating/internal/transport/http/errors"
)

type MessagesHandler struct {
	chat   *chatsvc.Service
	ledger *ledgersvc.Service
}

func NewMessagesHandler(chat *chatsvc.Service, ledger *ledgersvc.Service) *MessagesHandler {
	return &MessagesHandler{chat: chat, ledger: ledger}
}

// Conversation serves GET /api/messages/{partnerId}. Fetching marks the
// partner's messages as read.
func (h *MessagesHandler) Conversation(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.ledger == nil {
		writeInternal(w, "LEDGER_SERVICE_UNAVAILABLE", "message service is unavailable")
		return
	}

	partnerID, err := strconv.ParseInt(chi.URLParam(r, "partnerId"), 10, 64)
	if err != nil || partnerID <= 0 {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid partner id")
		return
	}

	entries, err := h.ledger.FetchAndMarkRead(r.Context(), identity.UserID, partnerID)
	if err != nil {
		switch {
		case errors.Is(err, ledgersvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid conversation request")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to load messages")
		}
		return
	}

	out := make([]dto.ConversationMessageResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, dto.ConversationMessageResponse{
			ID:        e.ID,
			Text:      e.Text,
			Sender:    string(e.Sender),
			Timestamp: e.Timestamp,
			IsRead:    e.Read,
		})
	}
	httperrors.Write(w, http.StatusOK, out)
}

func (h *MessagesHandler) Send(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.chat == nil {
		writeInternal(w, "CHAT_SERVICE_UNAVAILABLE", "chat service is unavailable")
		return
	}

	var req dto.SendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if req.Recipient() <= 0 {
		writeBadRequest(w, "VALIDATION_ERROR", "partner_id is required")
		return
	}

	if _, err := h.chat.Send(r.Context(), identity.UserID, req.Recipient(), req.Text); err != nil {
		var limited *chatsvc.RateLimitedError
		switch {
		case errors.As(err, &limited):
			httperrors.Write(w, http.StatusTooManyRequests, httperrors.RateLimitError{
				Code:          "TOO_FAST",
				Message:       "too many messages",
				RetryAfterSec: limited.RetryAfterSec,
			})
		case errors.Is(err, chatsvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid message")
		case errors.Is(err, chatsvc.ErrMatchNotFound):
			writeNotFound(w, "MATCH_NOT_FOUND", "match not found")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to send message")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, dto.SendMessageResponse{Success: true})
}
