package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// UpsertUser inserts a user account or updates its role and download flag.
func (s *Store) UpsertUser(ctx context.Context, username string, role Role, canDownload bool) (*User, error) {
	if username == "" {
		return nil, errors.New("username is empty")
	}
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)

	if err := s.execWithoutResultRetry(
		ctx,
		`INSERT INTO users (username, role, can_download, created_at)
         VALUES (?, ?, ?, ?)
         ON CONFLICT(username) DO UPDATE SET role = excluded.role, can_download = excluded.can_download`,
		username,
		role,
		boolToInt(canDownload),
		timestamp,
	); err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}

	return s.UserByUsername(ctx, username)
}

// UserByUsername fetches a user account by username.
func (s *Store) UserByUsername(ctx context.Context, username string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// ListUsers returns all user accounts ordered by username.
func (s *Store) ListUsers(ctx context.Context) ([]*User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// RemoveUser deletes a user account by username.
func (s *Store) RemoveUser(ctx context.Context, username string) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM users WHERE username = ?`, username)
	if err != nil {
		return false, fmt.Errorf("delete user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}
