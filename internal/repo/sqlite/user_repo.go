package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ivankudzin/commitdating/internal/domain/model"
	"github.com/ivankudzin/commitdating/internal/repo"
)

const userColumns = `id, name, role, bio, stack, image, location_lat, location_lng, email, password_hash, created_at`

type UserRepo struct {
	db  *sql.DB
	now func() time.Time
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db, now: time.Now}
}

func (r *UserRepo) Create(ctx context.Context, user model.User) (model.User, error) {
	if strings.TrimSpace(user.Email) == "" || strings.TrimSpace(user.Name) == "" {
		return model.User{}, fmt.Errorf("invalid user payload")
	}

	stack, err := encodeStack(user.Stack)
	if err != nil {
		return model.User{}, err
	}
	createdAt := r.now().UTC()

	res, err := r.db.ExecContext(ctx, `
INSERT INTO users (name, role, bio, stack, image, location_lat, location_lng, email, password_hash, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, user.Name, user.Role, user.Bio, stack, user.Image, user.LocationLat, user.LocationLng, user.Email, user.PasswordHash, createdAt)
	if err != nil {
		if isUniqueViolation(err) {
			return model.User{}, repo.ErrConflict
		}
		return model.User{}, fmt.Errorf("insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, fmt.Errorf("read user id: %w", err)
	}

	user.ID = id
	user.CreatedAt = createdAt
	if user.Stack == nil {
		user.Stack = []string{}
	}
	return user, nil
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (model.User, error) {
	if id <= 0 {
		return model.User{}, repo.ErrNotFound
	}
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return model.User{}, repo.ErrNotFound
	}
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return scanUser(row)
}

func (r *UserRepo) ListExcluding(ctx context.Context, excluded []int64) ([]model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	if len(excluded) > 0 {
		query += ` WHERE id NOT IN (` + placeholders(len(excluded)) + `)`
	}
	query += ` ORDER BY id`

	return r.list(ctx, query, int64Args(excluded)...)
}

func (r *UserRepo) ListByIDs(ctx context.Context, ids []int64) ([]model.User, error) {
	if len(ids) == 0 {
		return []model.User{}, nil
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE id IN (` + placeholders(len(ids)) + `) ORDER BY id`
	return r.list(ctx, query, int64Args(ids)...)
}

func (r *UserRepo) UpdateProfile(ctx context.Context, id int64, patch model.ProfilePatch) (model.User, error) {
	var updated model.User
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		current, err := scanUser(tx.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
		if err != nil {
			return err
		}

		updated = patch.Apply(current)
		stack, err := encodeStack(updated.Stack)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `
UPDATE users SET name = ?, role = ?, bio = ?, stack = ?, image = ?
WHERE id = ?
`, updated.Name, updated.Role, updated.Bio, stack, updated.Image, id); err != nil {
			return fmt.Errorf("update user profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.User{}, err
	}
	return updated, nil
}

func (r *UserRepo) list(ctx context.Context, query string, args ...any) ([]model.User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (model.User, error) {
	var (
		user  model.User
		stack string
	)
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Role,
		&user.Bio,
		&stack,
		&user.Image,
		&user.LocationLat,
		&user.LocationLng,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, repo.ErrNotFound
		}
		return model.User{}, fmt.Errorf("scan user: %w", err)
	}

	user.Stack, err = decodeStack(stack)
	if err != nil {
		return model.User{}, err
	}
	return user, nil
}

func encodeStack(stack []string) (string, error) {
	if stack == nil {
		stack = []string{}
	}
	raw, err := json.Marshal(stack)
	if err != nil {
		return "", fmt.Errorf("encode stack: %w", err)
	}
	return string(raw), nil
}

func decodeStack(raw string) ([]string, error) {
	stack := []string{}
	if strings.TrimSpace(raw) == "" {
		return stack, nil
	}
	if err := json.Unmarshal([]byte(raw), &stack); err != nil {
		return nil, fmt.Errorf("decode stack: %w", err)
	}
	return stack, nil
}
