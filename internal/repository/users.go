package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/marlonjr14/pokemon-api/internal/models"
)

const createUsersTable = `
		CREATE TABLE IF NOT EXISTS users (
			id SERIAL PRIMARY KEY,
			username VARCHAR(50) UNIQUE NOT NULL,
			password VARCHAR(255) NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`

// EnsureUsersTable creates the credential table if it does not exist yet
func (r *Repository) EnsureUsersTable(ctx context.Context) error {
	return r.withConn(ctx, func(conn *sql.Conn) error {
		if _, err := conn.ExecContext(ctx, createUsersTable); err != nil {
			return fmt.Errorf("failed to create users table: %w", err)
		}
		return nil
	})
}

// CreateUser creates a new user in the database
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	return r.withConn(ctx, func(conn *sql.Conn) error {
		query := `
		INSERT INTO users (username, password)
		VALUES ($1, $2)
		RETURNING id, created_at`
		err := conn.QueryRowContext(ctx, query, user.Username, user.PasswordHash).
			Scan(&user.ID, &user.CreatedAt)
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		return nil
	})
}

// FindUserByUsername retrieves a user by exact username
func (r *Repository) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	user := &models.User{}
	err := r.withConn(ctx, func(conn *sql.Conn) error {
		query := `
		SELECT id, username, password, created_at
		FROM users
		WHERE username = $1`
		err := conn.QueryRowContext(ctx, query, username).
			Scan(&user.ID, &user.Username, &user.PasswordHash, &user.CreatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to find user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}
