package apiapp

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/ivankudzin/commitdating/internal/config"
	"github.com/ivankudzin/commitdating/internal/domain/enums"
	"github.com/ivankudzin/commitdating/internal/domain/model"
	pgrepo "github.com/ivankudzin/commitdating/internal/repo/postgres"
	sqlrepo "github.com/ivankudzin/commitdating/internal/repo/sqlite"
)

type userStore interface {
	Create(ctx context.Context, user model.User) (model.User, error)
	GetByID(ctx context.Context, id int64) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	ListExcluding(ctx context.Context, excluded []int64) ([]model.User, error)
	ListByIDs(ctx context.Context, ids []int64) ([]model.User, error)
	UpdateProfile(ctx context.Context, id int64, patch model.ProfilePatch) (model.User, error)
}

type actionStore interface {
	Create(ctx context.Context, actorID, targetID int64, kind enums.ActionKind) (model.Action, error)
	HasLike(ctx context.Context, actorID, targetID int64) (bool, error)
	ListTargetIDs(ctx context.Context, actorID int64, kind enums.ActionKind) ([]int64, error)
	ListActorIDs(ctx context.Context, targetID int64, kind enums.ActionKind) ([]int64, error)
}

type matchStore interface {
	Create(ctx context.Context, userID, targetID int64) (model.Match, error)
	FindByUsers(ctx context.Context, userID, targetID int64) (model.Match, error)
	ListForUser(ctx context.Context, userID int64) ([]model.Match, error)
}

type messageStore interface {
	Create(ctx context.Context, matchID, senderID int64, text string) (model.Message, error)
	CountUnreadForUser(ctx context.Context, userID int64) (int, error)
	ListAndMarkRead(ctx context.Context, matchID, viewerID int64) ([]model.Message, error)
}

// stores is the storage backend picked at startup. Exactly one of postgres or
// sqlite is set.
type stores struct {
	users    userStore
	actions  actionStore
	matches  matchStore
	messages messageStore

	postgres *pgxpool.Pool
	sqlite   *sql.DB
	backend  string
}

func openStores(ctx context.Context, cfg config.Config, log *zap.Logger) (stores, error) {
	if cfg.Postgres.DSN != "" {
		pool, err := openPostgres(ctx, cfg.Postgres.DSN)
		if err == nil {
			return stores{
				users:    pgrepo.NewUserRepo(pool),
				actions:  pgrepo.NewActionRepo(pool),
				matches:  pgrepo.NewMatchRepo(pool),
				messages: pgrepo.NewMessageRepo(pool),
				postgres: pool,
				backend:  "postgres",
			}, nil
		}
		log.Warn("postgres init failed, continuing with sqlite", zap.Error(err))
	}

	db, err := sqlrepo.Open(ctx, cfg.SQLite.Path)
	if err != nil {
		return stores{}, fmt.Errorf("open sqlite store: %w", err)
	}
	return stores{
		users:    sqlrepo.NewUserRepo(db),
		actions:  sqlrepo.NewActionRepo(db),
		matches:  sqlrepo.NewMatchRepo(db),
		messages: sqlrepo.NewMessageRepo(db),
		sqlite:   db,
		backend:  "sqlite",
	}, nil
}

func openPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgrepo.NewPool(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pgrepo.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func (s stores) Close() error {
	if s.postgres != nil {
		s.postgres.Close()
	}
	if s.sqlite != nil {
		return s.sqlite.Close()
	}
	return nil
}
