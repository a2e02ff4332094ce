package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/commitdating/internal/domain/model"
	"github.com/ivankudzin/commitdating/internal/repo"
)

const userColumns = `id, name, role, bio, stack, image, location_lat, location_lng, email, password_hash, created_at`

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) Create(ctx context.Context, user model.User) (model.User, error) {
	if strings.TrimSpace(user.Email) == "" || strings.TrimSpace(user.Name) == "" {
		return model.User{}, fmt.Errorf("invalid user payload")
	}
	if r.pool == nil {
		return model.User{}, fmt.Errorf("postgres pool is nil")
	}
	if user.Stack == nil {
		user.Stack = []string{}
	}

	err := r.pool.QueryRow(ctx, `
INSERT INTO users (
	name,
	role,
	bio,
	stack,
	image,
	location_lat,
	location_lng,
	email,
	password_hash
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id, created_at
`, user.Name, user.Role, user.Bio, user.Stack, user.Image, user.LocationLat, user.LocationLng, user.Email, user.PasswordHash,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return model.User{}, repo.ErrConflict
		}
		return model.User{}, fmt.Errorf("insert user: %w", err)
	}

	return user, nil
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (model.User, error) {
	if id <= 0 {
		return model.User{}, repo.ErrNotFound
	}
	if r.pool == nil {
		return model.User{}, fmt.Errorf("postgres pool is nil")
	}
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return model.User{}, repo.ErrNotFound
	}
	if r.pool == nil {
		return model.User{}, fmt.Errorf("postgres pool is nil")
	}
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (r *UserRepo) ListExcluding(ctx context.Context, excluded []int64) ([]model.User, error) {
	if excluded == nil {
		excluded = []int64{}
	}
	return r.list(ctx, `
SELECT `+userColumns+`
FROM users
WHERE NOT (id = ANY($1))
ORDER BY id
`, excluded)
}

func (r *UserRepo) ListByIDs(ctx context.Context, ids []int64) ([]model.User, error) {
	if len(ids) == 0 {
		return []model.User{}, nil
	}
	return r.list(ctx, `
SELECT `+userColumns+`
FROM users
WHERE id = ANY($1)
ORDER BY id
`, ids)
}

func (r *UserRepo) UpdateProfile(ctx context.Context, id int64, patch model.ProfilePatch) (model.User, error) {
	if r.pool == nil {
		return model.User{}, fmt.Errorf("postgres pool is nil")
	}

	var updated model.User
	err := WithTx(ctx, r.pool, func(txCtx context.Context, tx pgx.Tx) error {
		current, err := scanUser(tx.QueryRow(txCtx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}

		updated = patch.Apply(current)
		if updated.Stack == nil {
			updated.Stack = []string{}
		}

		if _, err := tx.Exec(txCtx, `
UPDATE users
SET name = $2, role = $3, bio = $4, stack = $5, image = $6
WHERE id = $1
`, id, updated.Name, updated.Role, updated.Bio, updated.Stack, updated.Image); err != nil {
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
	if r.pool == nil {
		return []model.User{}, nil
	}

	rows, err := r.pool.Query(ctx, query, args...)
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

func scanUser(row pgx.Row) (model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Role,
		&user.Bio,
		&user.Stack,
		&user.Image,
		&user.LocationLat,
		&user.LocationLng,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, repo.ErrNotFound
		}
		return model.User{}, fmt.Errorf("scan user: %w", err)
	}
	if user.Stack == nil {
		user.Stack = []string{}
	}
	return user, nil
}
