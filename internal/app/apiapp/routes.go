package apiapp

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/ivankudzin/commitdating/internal/config"
	"github.com/ivankudzin/commitdating/internal/infra/metrics"
	"github.com/ivankudzin/commitdating/internal/realtime"
	authsvc "github.com/ivankudzin/commitdating/internal/services/auth"
	chatsvc "github.com/ivankudzin/commitdating/internal/services/chat"
	ledgersvc "github.com/ivankudzin/commitdating/internal/services/ledger"
	matchessvc "github.com/ivankudzin/commitdating/internal/services/matches"
	profilesvc "github.com/ivankudzin/commitdating/internal/services/profiles"
	"github.com/ivankudzin/commitdating/internal/transport/http/handlers"
)

type Dependencies struct {
	AuthService    *authsvc.Service
	ProfileService *profilesvc.Service
	MatchService   *matchessvc.Service
	LedgerService  *ledgersvc.Service
	ChatService    *chatsvc.Service
	Registry       *realtime.Registry
	Logger         *zap.Logger
	Config         config.Config
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	authHandler := handlers.NewAuthHandler(deps.AuthService)
	healthHandler := handlers.NewHealthHandler(deps.Registry)
	profileHandler := handlers.NewProfileHandler(deps.ProfileService, deps.Config.Limits.CandidatesPageSize)
	actionHandler := handlers.NewActionHandler(deps.MatchService)
	matchesHandler := handlers.NewMatchesHandler(deps.MatchService)
	messagesHandler := handlers.NewMessagesHandler(deps.ChatService, deps.LedgerService)
	notificationsHandler := handlers.NewNotificationsHandler(deps.LedgerService)
	realtimeHandler := handlers.NewRealtimeHandler(deps.Registry, realtime.ConnectionConfig{
		SendBuffer:   deps.Config.Realtime.SendBuffer,
		WriteTimeout: deps.Config.Realtime.WriteTimeout,
		PingPeriod:   deps.Config.Realtime.PingPeriod,
		ReadTimeout:  deps.Config.Realtime.ReadTimeout,
	}, deps.Config.CORS.AllowedOrigins, deps.Logger)
	authMW := AuthMiddleware(deps.AuthService, deps.Logger)
	wsAuthMW := WebsocketAuthMiddleware(deps.AuthService, deps.Logger)

	r.Get("/healthz", healthHandler.Get)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.With(wsAuthMW).Get("/ws", realtimeHandler.Handle)

	r.Route("/api", func(r chi.Router) {
		if timeout := deps.Config.HTTP.RequestTimeout; timeout > 0 {
			r.Use(chimiddleware.Timeout(timeout))
		}

		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(authMW)
			r.Get("/profiles", profileHandler.Candidates)
			r.Get("/profiles/{id}", profileHandler.Get)
			r.Get("/profile/me", profileHandler.Me)
			r.Put("/profile/me", profileHandler.UpdateMe)
			r.Post("/action", actionHandler.Handle)
			r.Get("/matches", matchesHandler.Handle)
			r.Get("/notifications", notificationsHandler.Handle)
			r.Get("/messages/{partnerId}", messagesHandler.Conversation)
			r.Post("/messages", messagesHandler.Send)
			r.Get("/likes/received", profileHandler.LikesReceived)
			r.Get("/likes/sent", profileHandler.LikesSent)
		})
	})
}
