package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ivankudzin/commitdating/internal/domain/enums"
	"github.com/ivankudzin/commitdating/internal/domain/model"
)

type ActionRepo struct {
	db  *sql.DB
	now func() time.Time
}

func NewActionRepo(db *sql.DB) *ActionRepo {
	return &ActionRepo{db: db, now: time.Now}
}

func (r *ActionRepo) Create(ctx context.Context, actorID, targetID int64, kind enums.ActionKind) (model.Action, error) {
	if actorID <= 0 || targetID <= 0 || kind == "" {
		return model.Action{}, fmt.Errorf("invalid action payload")
	}

	createdAt := r.now().UTC()
	res, err := r.db.ExecContext(ctx, `
INSERT INTO actions (actor_id, target_id, kind, created_at) VALUES (?, ?, ?, ?)
`, actorID, targetID, string(kind), createdAt)
	if err != nil {
		return model.Action{}, fmt.Errorf("insert action: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Action{}, fmt.Errorf("read action id: %w", err)
	}

	return model.Action{
		ID:        id,
		ActorID:   actorID,
		TargetID:  targetID,
		Kind:      kind,
		CreatedAt: createdAt,
	}, nil
}

func (r *ActionRepo) HasLike(ctx context.Context, actorID, targetID int64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `
SELECT 1 FROM actions WHERE actor_id = ? AND target_id = ? AND kind = ? LIMIT 1
`, actorID, targetID, string(enums.ActionLike)).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("lookup like: %w", err)
	}
	return true, nil
}

// ListTargetIDs returns distinct users the actor acted upon. An empty kind matches any action.
func (r *ActionRepo) ListTargetIDs(ctx context.Context, actorID int64, kind enums.ActionKind) ([]int64, error) {
	query := `SELECT DISTINCT target_id FROM actions WHERE actor_id = ?`
	args := []any{actorID}
	if kind != "" {
		query += ` AND kind = ?`
		args = append(args, string(kind))
	}
	return r.listIDs(ctx, query+` ORDER BY target_id`, args...)
}

// ListActorIDs returns distinct users who acted upon the target. An empty kind matches any action.
func (r *ActionRepo) ListActorIDs(ctx context.Context, targetID int64, kind enums.ActionKind) ([]int64, error) {
	query := `SELECT DISTINCT actor_id FROM actions WHERE target_id = ?`
	args := []any{targetID}
	if kind != "" {
		query += ` AND kind = ?`
		args = append(args, string(kind))
	}
	return r.listIDs(ctx, query+` ORDER BY actor_id`, args...)
}

func (r *ActionRepo) listIDs(ctx context.Context, query string, args ...any) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query action ids: %w", err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan action id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate action ids: %w", err)
	}
	return ids, nil
}
