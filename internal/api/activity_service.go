package api

import (
	"context"

	"shelfmark/internal/activity"
	"shelfmark/internal/queue"
)

// ActivityReader abstracts the persistence reads the activity feed needs.
type ActivityReader interface {
	List(ctx context.Context, statuses ...queue.Status) ([]*queue.Item, error)
	ListRequests(ctx context.Context, statuses ...queue.RequestStatus) ([]*queue.Request, error)
}

// ActivityService assembles the unified activity feed from queue state.
type ActivityService struct {
	store ActivityReader
}

// NewActivityService constructs an ActivityService around the provided reader.
func NewActivityService(store ActivityReader) *ActivityService {
	if store == nil {
		return nil
	}
	return &ActivityService{store: store}
}

// Feed merges downloads and requests into one newest-first activity feed.
func (s *ActivityService) Feed(ctx context.Context) ([]ActivityEntry, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	items, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	requests, err := s.store.ListRequests(ctx)
	if err != nil {
		return nil, err
	}
	return FromActivityCards(activity.Merge(items, requests)), nil
}
