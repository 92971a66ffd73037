package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lmoran/recipe-keeper/internal/models"
)

// uniqueViolation is the SQLSTATE Postgres reports for a broken UNIQUE constraint.
const uniqueViolation = "23505"

// PostgresStore handles user and recipe CRUD against PostgreSQL.
type PostgresStore struct {
	pool            *pgxpool.Pool
	minInstructions int
}

func NewPostgresStore(pool *pgxpool.Pool, minInstructions int) *PostgresStore {
	return &PostgresStore{pool: pool, minInstructions: minInstructions}
}

// Migrate creates the users and recipes tables if they don't exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id            UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			username      VARCHAR(50)  UNIQUE NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			image_url     TEXT         NOT NULL DEFAULT '',
			bio           TEXT         NOT NULL DEFAULT '',
			created_at    TIMESTAMPTZ  DEFAULT NOW()
		)
	`)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS recipes (
			id                  UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			title               TEXT    NOT NULL,
			instructions        TEXT    NOT NULL,
			minutes_to_complete INTEGER NOT NULL,
			user_id             UUID    NOT NULL REFERENCES users(id),
			created_at          TIMESTAMPTZ DEFAULT NOW()
		)
	`)
	return err
}

// CreateUser inserts a new user inside an explicit transaction. A duplicate
// username rolls back and returns ErrUsernameTaken.
func (s *PostgresStore) CreateUser(ctx context.Context, u *models.User) (*models.User, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO users (username, password_hash, image_url, bio)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		u.Username, u.PasswordHash, u.ImageURL, u.Bio,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, username, password_hash, image_url, bio, created_at
		 FROM users WHERE username = $1`, username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.ImageURL, &u.Bio, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, username, image_url, bio, created_at
		 FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Username, &u.ImageURL, &u.Bio, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return &u, nil
}

// CreateRecipe validates and inserts a recipe inside an explicit transaction.
// A domain validation failure rolls back and surfaces as *ValidationError.
// The owner's public fields are attached to the returned recipe.
func (s *PostgresStore) CreateRecipe(ctx context.Context, r *models.Recipe) (*models.Recipe, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if len(r.Instructions) < s.minInstructions {
		return nil, &ValidationError{
			Field:   "instructions",
			Message: fmt.Sprintf("Instructions must be at least %d characters long.", s.minInstructions),
		}
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO recipes (title, instructions, minutes_to_complete, user_id)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		r.Title, r.Instructions, r.MinutesToComplete, r.UserID,
	).Scan(&r.ID, &r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create recipe: %w", err)
	}

	err = tx.QueryRow(ctx,
		`SELECT id, username, image_url, bio FROM users WHERE id = $1`, r.UserID,
	).Scan(&r.Owner.ID, &r.Owner.Username, &r.Owner.ImageURL, &r.Owner.Bio)
	if err != nil {
		return nil, fmt.Errorf("load recipe owner: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return r, nil
}

// ListRecipesByUser returns every recipe owned by userID, each joined with
// its owner's public fields. No ORDER BY is imposed.
func (s *PostgresStore) ListRecipesByUser(ctx context.Context, userID string) ([]models.Recipe, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT r.id, r.title, r.instructions, r.minutes_to_complete, r.user_id, r.created_at,
		        u.id, u.username, u.image_url, u.bio
		 FROM recipes r
		 JOIN users u ON u.id = r.user_id
		 WHERE r.user_id = $1`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	defer rows.Close()

	var recipes []models.Recipe
	for rows.Next() {
		var r models.Recipe
		if err := rows.Scan(
			&r.ID, &r.Title, &r.Instructions, &r.MinutesToComplete, &r.UserID, &r.CreatedAt,
			&r.Owner.ID, &r.Owner.Username, &r.Owner.ImageURL, &r.Owner.Bio,
		); err != nil {
			return nil, fmt.Errorf("scan recipe: %w", err)
		}
		recipes = append(recipes, r)
	}
	return recipes, rows.Err()
}
