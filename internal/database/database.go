package database

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/foxxcyber/pantry-chef/internal/config"
)

// DB wraps the connection pool
type DB struct {
	Pool   *pgxpool.Pool
	logger *zap.Logger
}

// Connect creates a new database connection pool
func Connect(databaseURL string, logger *zap.Logger) (*DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database URL: %w", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	logger.Info("database connected")
	return New(pool, logger), nil
}

// New wraps an existing pool
func New(pool *pgxpool.Pool, logger *zap.Logger) *DB {
	return &DB{Pool: pool, logger: logger.Named("database")}
}

// Close closes the database connection pool
func (db *DB) Close() {
	db.Pool.Close()
}

// RunMigrations applies pending migrations in version order
func RunMigrations(ctx context.Context, db *DB) error {
	_, err := db.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INT PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	versions := make([]int, 0, len(migrations))
	for v := range migrations {
		versions = append(versions, v)
	}
	sort.Ints(versions)

	for _, version := range versions {
		var exists bool
		err := db.Pool.QueryRow(ctx,
			"SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)",
			version,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check migration %d: %w", version, err)
		}
		if exists {
			continue
		}

		tx, err := db.Pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", version, err)
		}
		if _, err := tx.Exec(ctx, migrations[version]); err != nil {
			tx.Rollback(ctx)
			return fmt.Errorf("failed to apply migration %d: %w", version, err)
		}
		if _, err := tx.Exec(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", version); err != nil {
			tx.Rollback(ctx)
			return fmt.Errorf("failed to record migration %d: %w", version, err)
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", version, err)
		}

		db.logger.Info("migration applied", zap.Int("version", version))
	}

	return nil
}

// EnsureAdminUser creates the admin user if it doesn't exist
func EnsureAdminUser(ctx context.Context, db *DB, cfg *config.Config) error {
	if cfg.AdminPassword == "" {
		db.logger.Info("ADMIN_PASSWORD not set, skipping admin user creation")
		return nil
	}

	email := strings.ToLower(strings.TrimSpace(cfg.AdminEmail))

	var exists bool
	err := db.Pool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)",
		email,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check for admin user: %w", err)
	}
	if exists {
		return nil
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	_, err = db.Pool.Exec(ctx, `
		INSERT INTO users (email, password_hash, display_name, role)
		VALUES ($1, $2, 'admin', 'admin')
	`, email, string(hashedPassword))
	if err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	db.logger.Info("admin user created", zap.String("email", email))
	return nil
}

// migrations maps version to SQL; they are applied in ascending order
var migrations = map[int]string{
	1: migration001,
	2: migration002,
}

const migration001 = `
CREATE TABLE IF NOT EXISTS users (
    id SERIAL PRIMARY KEY,
    email VARCHAR(255) UNIQUE NOT NULL,
    password_hash VARCHAR(255) NOT NULL,
    display_name VARCHAR(100),
    role VARCHAR(20) NOT NULL DEFAULT 'user',
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
    last_login_at TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_users_email ON users(LOWER(email));
`

const migration002 = `
CREATE TABLE IF NOT EXISTS scans (
    id TEXT PRIMARY KEY,
    user_id INT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    raw_text TEXT NOT NULL DEFAULT '',
    image_key TEXT,
    original_filename VARCHAR(255),
    content_type VARCHAR(100),
    status VARCHAR(20) NOT NULL DEFAULT 'pending',
    error_message TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_scans_user_created ON scans(user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS scan_ingredients (
    id SERIAL PRIMARY KEY,
    scan_id TEXT NOT NULL REFERENCES scans(id) ON DELETE CASCADE,
    position INT NOT NULL,
    name VARCHAR(255) NOT NULL,
    quantity VARCHAR(50) NOT NULL DEFAULT '1',
    unit VARCHAR(50) NOT NULL DEFAULT 'piece',
    confidence DOUBLE PRECISION NOT NULL DEFAULT 0.8,
    UNIQUE (scan_id, position)
);
`
