package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewRequest inserts a pending book request.
func (s *Store) NewRequest(ctx context.Context, req *Request) (*Request, error) {
	if req == nil {
		return nil, errors.New("request is nil")
	}
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	requestUUID := req.UUID
	if requestUUID == "" {
		requestUUID = uuid.NewString()
	}
	status := req.Status
	if status == "" {
		status = RequestPending
	}

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO requests (
            uuid, title, author, source, content_type, mode, note, status,
            username, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		requestUUID,
		req.Title,
		nullableString(req.Author),
		req.Source,
		req.ContentType,
		req.Mode,
		nullableString(req.Note),
		status,
		req.Username,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert request: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.RequestByID(ctx, id)
}

// RequestByID fetches a request by identifier.
func (s *Store) RequestByID(ctx context.Context, id int64) (*Request, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+requestColumns+` FROM requests WHERE id = ?`, id)
	request, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}
	return request, nil
}

// RequestByUUID fetches a request by its public identifier.
func (s *Store) RequestByUUID(ctx context.Context, requestUUID string) (*Request, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+requestColumns+` FROM requests WHERE uuid = ?`, requestUUID)
	request, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get request by uuid: %w", err)
	}
	return request, nil
}

// RequestByDownloadID fetches the request that produced a download, if any.
func (s *Store) RequestByDownloadID(ctx context.Context, downloadID int64) (*Request, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+requestColumns+` FROM requests WHERE download_id = ?`, downloadID)
	request, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get request by download: %w", err)
	}
	return request, nil
}

// UpdateRequest persists changes to an existing request.
func (s *Store) UpdateRequest(ctx context.Context, req *Request) error {
	if req == nil {
		return errors.New("request is nil")
	}
	req.UpdatedAt = time.Now().UTC()
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE requests
         SET title = ?, author = ?, source = ?, content_type = ?, mode = ?, note = ?,
             status = ?, username = ?, decided_by = ?, download_id = ?, updated_at = ?
         WHERE id = ?`,
		req.Title,
		nullableString(req.Author),
		req.Source,
		req.ContentType,
		req.Mode,
		nullableString(req.Note),
		req.Status,
		req.Username,
		nullableString(req.DecidedBy),
		nullableID(req.DownloadID),
		req.UpdatedAt.Format(time.RFC3339Nano),
		req.ID,
	); err != nil {
		return fmt.Errorf("update request: %w", err)
	}
	return nil
}

// ListRequests returns requests filtered by status set, newest first.
func (s *Store) ListRequests(ctx context.Context, statuses ...RequestStatus) ([]*Request, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + requestColumns + ` FROM requests`
	orderClause := ` ORDER BY created_at DESC`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		query := baseQuery + ` WHERE status IN (` + placeholders + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	defer rows.Close()

	var requests []*Request
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, request)
	}
	return requests, rows.Err()
}

// RequestsByUsername returns a user's requests, newest first.
func (s *Store) RequestsByUsername(ctx context.Context, username string) ([]*Request, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+requestColumns+` FROM requests WHERE username = ? ORDER BY created_at DESC`,
		username,
	)
	if err != nil {
		return nil, fmt.Errorf("list requests by username: %w", err)
	}
	defer rows.Close()

	var requests []*Request
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, request)
	}
	return requests, rows.Err()
}

// FindPendingDuplicate returns an existing pending request for the same book
// from the same user, or nil when none exists.
func (s *Store) FindPendingDuplicate(ctx context.Context, username, title, author, contentType string) (*Request, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+requestColumns+` FROM requests
         WHERE username = ? AND title = ? AND COALESCE(author, '') = ? AND content_type = ? AND status = ?
         ORDER BY id LIMIT 1`,
		username,
		title,
		author,
		contentType,
		RequestPending,
	)
	request, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find pending duplicate: %w", err)
	}
	return request, nil
}

// RemoveRequest deletes a request by identifier.
func (s *Store) RemoveRequest(ctx context.Context, id int64) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM requests WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete request: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// RequestStats returns a count of requests grouped by status.
func (s *Store) RequestStats(ctx context.Context) (map[RequestStatus]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM requests GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("request stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[RequestStatus]int)
	for rows.Next() {
		var status RequestStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}
