package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/commitdating/internal/domain/enums"
	"github.com/ivankudzin/commitdating/internal/domain/model"
)

type ActionRepo struct {
	pool *pgxpool.Pool
}

func NewActionRepo(pool *pgxpool.Pool) *ActionRepo {
	return &ActionRepo{pool: pool}
}

func (r *ActionRepo) Create(ctx context.Context, actorID, targetID int64, kind enums.ActionKind) (model.Action, error) {
	if actorID <= 0 || targetID <= 0 || kind == "" {
		return model.Action{}, fmt.Errorf("invalid action payload")
	}
	if r.pool == nil {
		return model.Action{}, fmt.Errorf("postgres pool is nil")
	}

	action := model.Action{ActorID: actorID, TargetID: targetID, Kind: kind}
	err := r.pool.QueryRow(ctx, `
INSERT INTO actions (actor_id, target_id, kind)
VALUES ($1, $2, $3)
RETURNING id, created_at
`, actorID, targetID, string(kind)).Scan(&action.ID, &action.CreatedAt)
	if err != nil {
		return model.Action{}, fmt.Errorf("insert action: %w", err)
	}
	return action, nil
}

func (r *ActionRepo) HasLike(ctx context.Context, actorID, targetID int64) (bool, error) {
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}

	var one int
	err := r.pool.QueryRow(ctx, `
SELECT 1
FROM actions
WHERE actor_id = $1 AND target_id = $2 AND kind = 'like'
LIMIT 1
`, actorID, targetID).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("lookup like: %w", err)
	}
	return true, nil
}

func (r *ActionRepo) ListTargetIDs(ctx context.Context, actorID int64, kind enums.ActionKind) ([]int64, error) {
	return r.listIDs(ctx, `
SELECT DISTINCT target_id
FROM actions
WHERE actor_id = $1 AND ($2 = '' OR kind = $2)
ORDER BY target_id
`, actorID, string(kind))
}

func (r *ActionRepo) ListActorIDs(ctx context.Context, targetID int64, kind enums.ActionKind) ([]int64, error) {
	return r.listIDs(ctx, `
SELECT DISTINCT actor_id
FROM actions
WHERE target_id = $1 AND ($2 = '' OR kind = $2)
ORDER BY actor_id
`, targetID, string(kind))
}

func (r *ActionRepo) listIDs(ctx context.Context, query string, args ...any) ([]int64, error) {
	if r.pool == nil {
		return []int64{}, nil
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query action ids: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("collect action ids: %w", err)
	}
	return ids, nil
}
