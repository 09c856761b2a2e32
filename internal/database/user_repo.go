package database

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/foxxcyber/pantry-chef/internal/models"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

const userColumns = `id, email, password_hash, display_name, role, created_at, updated_at, last_login_at`

func scanUser(row pgx.Row, user *models.User) error {
	return row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.DisplayName,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.LastLoginAt,
	)
}

// CreateUser creates a new user in the database
func (db *DB) CreateUser(ctx context.Context, email, passwordHash string, displayName *string) (*models.User, error) {
	user := &models.User{}

	err := scanUser(db.Pool.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, display_name, role)
		VALUES ($1, $2, $3, 'user')
		RETURNING `+userColumns,
		email, passwordHash, displayName,
	), user)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrEmailExists
		}
		return nil, err
	}

	return user, nil
}

// GetUserByID retrieves a user by their ID
func (db *DB) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	user := &models.User{}

	err := scanUser(db.Pool.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id), user)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return user, nil
}

// GetUserByEmail retrieves a user by their email
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}

	err := scanUser(db.Pool.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE email = $1", email), user)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return user, nil
}

// UpdateUserLastLogin updates the user's last login timestamp
func (db *DB) UpdateUserLastLogin(ctx context.Context, id int) error {
	_, err := db.Pool.Exec(ctx, "UPDATE users SET last_login_at = NOW() WHERE id = $1", id)
	return err
}
