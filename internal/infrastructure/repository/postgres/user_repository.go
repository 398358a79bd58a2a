package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/score-labs/score-backend/internal/core/domain"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) CreateUser(ctx context.Context, user *domain.User) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO users (id, username, email, created_at)
VALUES ($1,$2,$3,$4)
`, user.ID, user.Username, user.Email, user.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetUser(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, username, email, created_at
FROM users
WHERE id = $1
`, id)
	return scanUser(row, id)
}

func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, username, email, created_at
FROM users
WHERE username = $1
`, username)
	return scanUser(row, username)
}

func scanUser(row *sql.Row, ref string) (*domain.User, error) {
	var user domain.User
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrUserNotFound, "get user", errors.New(ref))
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &user, nil
}
