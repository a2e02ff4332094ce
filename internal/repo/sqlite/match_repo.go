package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ivankudzin/commitdating/internal/domain/model"
	"github.com/ivankudzin/commitdating/internal/repo"
)

type MatchRepo struct {
	db  *sql.DB
	now func() time.Time
}

func NewMatchRepo(db *sql.DB) *MatchRepo {
	return &MatchRepo{db: db, now: time.Now}
}

// Create stores the pair in canonical order. A second insert for the same pair returns repo.ErrConflict.
func (r *MatchRepo) Create(ctx context.Context, userID, targetID int64) (model.Match, error) {
	if userID <= 0 || targetID <= 0 || userID == targetID {
		return model.Match{}, fmt.Errorf("invalid match payload")
	}

	userA, userB := model.OrderedPair(userID, targetID)
	createdAt := r.now().UTC()

	res, err := r.db.ExecContext(ctx, `
INSERT INTO matches (user_a_id, user_b_id, created_at) VALUES (?, ?, ?)
`, userA, userB, createdAt)
	if err != nil {
		if isUniqueViolation(err) {
			return model.Match{}, repo.ErrConflict
		}
		return model.Match{}, fmt.Errorf("create match: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Match{}, fmt.Errorf("read match id: %w", err)
	}

	return model.Match{ID: id, UserAID: userA, UserBID: userB, CreatedAt: createdAt}, nil
}

func (r *MatchRepo) FindByUsers(ctx context.Context, userID, targetID int64) (model.Match, error) {
	userA, userB := model.OrderedPair(userID, targetID)

	var m model.Match
	err := r.db.QueryRowContext(ctx, `
SELECT id, user_a_id, user_b_id, created_at FROM matches WHERE user_a_id = ? AND user_b_id = ?
`, userA, userB).Scan(&m.ID, &m.UserAID, &m.UserBID, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Match{}, repo.ErrNotFound
		}
		return model.Match{}, fmt.Errorf("find match: %w", err)
	}
	return m, nil
}

func (r *MatchRepo) ListForUser(ctx context.Context, userID int64) ([]model.Match, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, user_a_id, user_b_id, created_at
FROM matches
WHERE user_a_id = ? OR user_b_id = ?
ORDER BY created_at DESC, id DESC
`, userID, userID)
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
