package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/ivankudzin/commitdating/internal/config"
	"github.com/ivankudzin/commitdating/internal/realtime"
	redrepo "github.com/ivankudzin/commitdating/internal/repo/redis"
	authsvc "github.com/ivankudzin/commitdating/internal/services/auth"
	chatsvc "github.com/ivankudzin/commitdating/internal/services/chat"
	ledgersvc "github.com/ivankudzin/commitdating/internal/services/ledger"
	matchessvc "github.com/ivankudzin/commitdating/internal/services/matches"
	profilesvc "github.com/ivankudzin/commitdating/internal/services/profiles"
	ratesvc "github.com/ivankudzin/commitdating/internal/services/rate"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	stores     stores
	redis      *goredis.Client
	registry   *realtime.Registry
	stopRelay  context.CancelFunc
	relayDone  chan struct{}
	httpRouter http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	log.Info("storage ready", zap.String("backend", st.backend))

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if redisClient != nil {
		if err := redrepo.Ping(ctx, redisClient); err != nil {
			log.Warn("redis init failed, continuing in degraded mode", zap.Error(err))
			_ = redisClient.Close()
			redisClient = nil
		}
	}

	registry := realtime.NewRegistry()
	broadcaster := realtime.NewBroadcaster(registry, log)

	jwtManager := authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL)
	authService := authsvc.NewService(jwtManager, st.users, authsvc.Config{
		DefaultBio:    cfg.Registration.DefaultBio,
		AvatarBaseURL: cfg.Registration.AvatarBaseURL,
		DefaultLat:    cfg.Registration.DefaultLat,
		DefaultLng:    cfg.Registration.DefaultLng,
		BcryptCost:    cfg.Auth.BcryptCost,
	})
	profileService := profilesvc.NewService(st.users, st.actions)
	matchService := matchessvc.NewService(matchessvc.Dependencies{
		Actions: st.actions,
		Matches: st.matches,
		Users:   st.users,
		Logger:  log,
	})
	ledgerService := ledgersvc.NewService(st.messages, st.matches)

	chatDeps := chatsvc.Dependencies{
		Matches:   st.matches,
		Ledger:    ledgerService,
		Publisher: broadcaster,
		Logger:    log,
	}

	app := &App{
		cfg:      cfg,
		logger:   log,
		stores:   st,
		redis:    redisClient,
		registry: registry,
	}

	if redisClient != nil {
		chatDeps.Limiter = ratesvc.NewLimiter(
			redrepo.NewRateRepo(redisClient),
			"messages",
			cfg.Limits.MessagesPerMinute,
			cfg.Limits.MessagesPer10Seconds,
		)

		relay := realtime.NewNodeRelay(redrepo.NewRelayRepo(redisClient, cfg.Redis.RelayChannel), broadcaster, log)
		broadcaster.AttachRelay(relay)
		app.startRelay(relay)
	}

	chatService := chatsvc.NewService(chatDeps, chatsvc.Config{
		MaxTextLength: cfg.Limits.MaxMessageLength,
	})

	RegisterRoutes(r, Dependencies{
		AuthService:    authService,
		ProfileService: profileService,
		MatchService:   matchService,
		LedgerService:  ledgerService,
		ChatService:    chatService,
		Registry:       registry,
		Logger:         log,
		Config:         cfg,
	})

	handler := cors.New(cors.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}).Handler(r)

	app.httpRouter = handler
	app.server = &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return app, nil
}

func (a *App) startRelay(relay *realtime.NodeRelay) {
	ctx, cancel := context.WithCancel(context.Background())
	a.stopRelay = cancel
	a.relayDone = make(chan struct{})

	go func() {
		defer close(a.relayDone)
		if err := relay.Run(ctx, nil); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Warn("realtime relay stopped", zap.Error(err))
		}
	}()
	a.logger.Info("realtime relay started", zap.String("node_id", relay.NodeID()))
}

func (a *App) Run() error {
	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	// Hijacked websocket connections are not closed by server shutdown.
	a.registry.Close()

	if a.stopRelay != nil {
		a.stopRelay()
		select {
		case <-a.relayDone:
		case <-ctx.Done():
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}
	if err := a.stores.Close(); err != nil && shutdownErr == nil {
		shutdownErr = err
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
