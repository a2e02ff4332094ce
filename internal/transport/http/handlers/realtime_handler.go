package handlers

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ivankudzin/commitdating/internal/realtime"
	authsvc "github.com/ivankudzin/commitdating/internal/services/auth"
)

// RealtimeHandler upgrades authenticated requests to websocket sessions and
// binds them in the registry until the peer disconnects.
type RealtimeHandler struct {
	registry *realtime.Registry
	cfg      realtime.ConnectionConfig
	upgrader websocket.Upgrader
	log      *zap.Logger
}

func NewRealtimeHandler(registry *realtime.Registry, cfg realtime.ConnectionConfig, allowedOrigins []string, log *zap.Logger) *RealtimeHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &RealtimeHandler{
		registry: registry,
		cfg:      cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		log: log,
	}
}

func (h *RealtimeHandler) Handle(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.registry == nil {
		writeInternal(w, "REALTIME_UNAVAILABLE", "realtime is unavailable")
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the response.
		h.log.Debug("websocket upgrade failed", zap.Int64("user_id", identity.UserID), zap.Error(err))
		return
	}

	conn := realtime.NewConnection(identity.UserID, ws, h.cfg)
	conn.Start()
	h.registry.Register(identity.UserID, conn)
	h.log.Info("websocket connected", zap.Int64("user_id", identity.UserID), zap.String("conn_id", conn.ID))

	conn.ReadLoop()

	h.registry.Detach(identity.UserID, conn)
	conn.Close(websocket.CloseNormalClosure, "session closed")
	h.log.Info("websocket disconnected", zap.Int64("user_id", identity.UserID), zap.String("conn_id", conn.ID))
}

func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		if origin == "*" {
			return func(*http.Request) bool { return true }
		}
		set[strings.ToLower(origin)] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[strings.ToLower(origin)]
		return ok
	}
}
