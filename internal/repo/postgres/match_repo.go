package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/commitdating/internal/domain/model"
	"github.com/ivankudzin/commitdating/internal/repo"
)

type MatchRepo struct {
	pool *pgxpool.Pool
}

func NewMatchRepo(pool *pgxpool.Pool) *MatchRepo {
	return &MatchRepo{pool: pool}
}

// Create stores the pair in canonical order. When the pair already exists the
// unique constraint suppresses the insert and repo.ErrConflict is returned.
func (r *MatchRepo) Create(ctx context.Context, userID, targetID int64) (model.Match, error) {
	if userID <= 0 || targetID <= 0 || userID == targetID {
		return model.Match{}, fmt.Errorf("invalid match payload")
	}
	if r.pool == nil {
		return model.Match{}, fmt.Errorf("postgres pool is nil")
	}

	userA, userB := model.OrderedPair(userID, targetID)
	m := model.Match{UserAID: userA, UserBID: userB}

	err := r.pool.QueryRow(ctx, `
INSERT INTO matches (
	user_a_id,
	user_b_id,
	created_at
) VALUES ($1, $2, NOW())
ON CONFLICT (user_a_id, user_b_id) DO NOTHING
RETURNING id, created_at
`, userA, userB).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Match{}, repo.ErrConflict
		}
		return model.Match{}, fmt.Errorf("create match: %w", err)
	}

	return m, nil
}

func (r *MatchRepo) FindByUsers(ctx context.Context, userID, targetID int64) (model.Match, error) {
	if r.pool == nil {
		return model.Match{}, fmt.Errorf("postgres pool is nil")
	}

	userA, userB := model.OrderedPair(userID, targetID)
	var m model.Match
	err := r.pool.QueryRow(ctx, `
SELECT id, user_a_id, user_b_id, created_at
FROM matches
WHERE user_a_id = $1 AND user_b_id = $2
`, userA, userB).Scan(&m.ID, &m.UserAID, &m.UserBID, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Match{}, repo.ErrNotFound
		}
		return model.Match{}, fmt.Errorf("find match: %w", err)
	}
	return m, nil
}

func (r *MatchRepo) ListForUser(ctx context.Context, userID int64) ([]model.Match, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("invalid user id")
	}
	if r.pool == nil {
		return []model.Match{}, nil
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, user_a_id, user_b_id, created_at
FROM matches
WHERE user_a_id = $1 OR user_b_id = $1
ORDER BY created_at DESC, id DESC
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	matches := make([]model.Match, 0)
	for rows.Next() {
		var m model.Match
		if err := rows.Scan(&m.ID, &m.UserAID, &m.UserBID, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate matches: %w", err)
	}
	return matches, nil
}
