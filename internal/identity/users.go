package identity

import (
	"context"
	"database/sql"
)

// UserRepository maps authentication subjects to internal user ids.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) LookupByAuthID(ctx context.Context, authUserID string) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		SELECT id
		FROM users
		WHERE auth_user_id = $1
	`, authUserID).Scan(&id)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, ErrUserNotFound
		}
		return 0, err
	}

	return id, nil
}

func (r *UserRepository) LookupEmail(ctx context.Context, userID int64) (string, error) {
	var email string
	err := r.db.QueryRowContext(ctx, `
		SELECT email
		FROM users
		WHERE id = $1
	`, userID).Scan(&email)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", ErrUserNotFound
		}
		return "", err
	}

	return email, nil
}
