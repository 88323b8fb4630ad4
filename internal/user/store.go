// Package user persists users authenticated through Sign In with Apple.
package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"applesso/pkg/apple"
	"applesso/pkg/db"
	"applesso/pkg/idgen"
)

var ErrUserNotFound = errors.New("user not found")

// User is a persisted account keyed by the Apple subject identifier.
type User struct {
	ID        int64
	AppleUID  string
	Email     string
	FirstName string
	LastName  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store persists users in Postgres.
type Store struct {
	db  db.SQLExecutor
	ids idgen.Generator
}

func NewStore(executor db.SQLExecutor, ids idgen.Generator) *Store {
	return &Store{db: executor, ids: ids}
}

// Upsert inserts or refreshes the user for an auth result. Apple only
// sends the name on first consent, so blank names never overwrite a
// previously stored value.
func (s *Store) Upsert(ctx context.Context, result *apple.AuthResult) error {
	if result.UID == "" {
		return errors.New("auth result has no uid")
	}

	const query = `
		INSERT INTO users (id, apple_uid, email, first_name, last_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (apple_uid) DO UPDATE SET
			email      = EXCLUDED.email,
			first_name = COALESCE(NULLIF(EXCLUDED.first_name, ''), users.first_name),
			last_name  = COALESCE(NULLIF(EXCLUDED.last_name, ''), users.last_name),
			updated_at = NOW()`

	_, err := s.db.ExecContext(ctx, query,
		s.ids.GenerateID(),
		result.UID,
		result.Info.Email,
		result.Info.FirstName,
		result.Info.LastName,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// GetByAppleUID fetches a user by the Apple subject identifier.
func (s *Store) GetByAppleUID(ctx context.Context, appleUID string) (*User, error) {
	const query = `
		SELECT id, apple_uid, email, first_name, last_name, created_at, updated_at
		FROM users
		WHERE apple_uid = $1`

	var u User
	row := s.db.QueryRowContext(ctx, query, appleUID)
	err := row.Scan(&u.ID, &u.AppleUID, &u.Email, &u.FirstName, &u.LastName, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &u, nil
}
