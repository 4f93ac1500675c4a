package api

import (
	"context"

	"shelfmark/internal/queue"
)

// RequestReader abstracts request persistence interactions needed for API queries.
type RequestReader interface {
	ListRequests(ctx context.Context, statuses ...queue.RequestStatus) ([]*queue.Request, error)
	RequestsByUsername(ctx context.Context, username string) ([]*queue.Request, error)
	RequestByUUID(ctx context.Context, requestUUID string) (*queue.Request, error)
	RequestStats(ctx context.Context) (map[queue.RequestStatus]int, error)
}

// RequestService exposes read-only request operations returning API DTOs.
type RequestService struct {
	store RequestReader
}

// NewRequestService constructs a RequestService around the provided reader.
func NewRequestService(store RequestReader) *RequestService {
	if store == nil {
		return nil
	}
	return &RequestService{store: store}
}

// List returns requests filtered by status, newest first.
func (s *RequestService) List(ctx context.Context, statuses ...queue.RequestStatus) ([]Request, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	requests, err := s.store.ListRequests(ctx, statuses...)
	if err != nil {
		return nil, err
	}
	return FromRequests(requests), nil
}

// ListForUser returns one user's requests, newest first.
func (s *RequestService) ListForUser(ctx context.Context, username string) ([]Request, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	requests, err := s.store.RequestsByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return FromRequests(requests), nil
}

// Describe fetches a single request by its public UUID.
func (s *RequestService) Describe(ctx context.Context, requestUUID string) (*Request, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	req, err := s.store.RequestByUUID(ctx, requestUUID)
	if err != nil || req == nil {
		return nil, err
	}
	dto := FromRequest(req)
	return &dto, nil
}

// Stats returns request summary counts keyed by status string.
func (s *RequestService) Stats(ctx context.Context) (map[string]int, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	stats, err := s.store.RequestStats(ctx)
	if err != nil {
		return nil, err
	}
	return MergeRequestStats(stats), nil
}
