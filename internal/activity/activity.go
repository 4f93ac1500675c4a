package activity

import (
	"fmt"
	"sort"
	"time"

	"shelfmark/internal/queue"
)

// Kind identifies which lifecycle a card came from.
type Kind string

const (
	KindDownload Kind = "download"
	KindRequest  Kind = "request"
)

// State is the shared display state both lifecycles map onto.
type State string

const (
	StateWaiting    State = "waiting"
	StateInProgress State = "in_progress"
	StateDone       State = "done"
	StateFailed     State = "failed"
	StateDenied     State = "denied"
)

// Card is one entry in the unified activity feed.
type Card struct {
	Kind        Kind      `json:"kind"`
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Author      string    `json:"author,omitempty"`
	Source      string    `json:"source"`
	ContentType string    `json:"content_type"`
	State       State     `json:"state"`
	Detail      string    `json:"detail,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// DownloadState maps a download status onto the shared display state.
func DownloadState(status queue.Status) State {
	switch status {
	case queue.StatusCompleted:
		return StateDone
	case queue.StatusFailed:
		return StateFailed
	default:
		if queue.IsProcessingStatus(status) {
			return StateInProgress
		}
		return StateWaiting
	}
}

// RequestState maps a request status onto the shared display state.
func RequestState(status queue.RequestStatus) State {
	switch status {
	case queue.RequestApproved:
		return StateInProgress
	case queue.RequestFulfilled:
		return StateDone
	case queue.RequestDenied:
		return StateDenied
	default:
		return StateWaiting
	}
}

func downloadDetail(item *queue.Item) string {
	switch {
	case item.Status == queue.StatusFailed && item.ErrorMessage != "":
		return item.ErrorMessage
	case item.ProgressMessage != "":
		if item.ProgressPercent > 0 {
			return fmt.Sprintf("%s (%.0f%%)", item.ProgressMessage, item.ProgressPercent)
		}
		return item.ProgressMessage
	default:
		return ""
	}
}

func requestDetail(req *queue.Request) string {
	switch req.Status {
	case queue.RequestApproved, queue.RequestDenied:
		if req.DecidedBy != "" {
			return fmt.Sprintf("%s by %s", req.Status, req.DecidedBy)
		}
	case queue.RequestPending:
		if req.Note != "" {
			return req.Note
		}
	}
	return ""
}

// FromDownload converts a download into an activity card.
func FromDownload(item *queue.Item) Card {
	return Card{
		Kind:        KindDownload,
		ID:          item.ID,
		Title:       item.Title,
		Author:      item.Author,
		Source:      item.Source,
		ContentType: item.ContentType,
		State:       DownloadState(item.Status),
		Detail:      downloadDetail(item),
		Timestamp:   item.UpdatedAt,
	}
}

// FromRequest converts a book request into an activity card.
func FromRequest(req *queue.Request) Card {
	return Card{
		Kind:        KindRequest,
		ID:          req.ID,
		Title:       req.Title,
		Author:      req.Author,
		Source:      req.Source,
		ContentType: req.ContentType,
		State:       RequestState(req.Status),
		Detail:      requestDetail(req),
		Timestamp:   req.UpdatedAt,
	}
}

// Merge builds the unified feed from downloads and requests, newest first.
// A request that produced a download is folded into the download card so the
// same book does not appear twice; ties sort downloads before requests, then
// by descending ID, keeping the order stable across rebuilds.
func Merge(items []*queue.Item, requests []*queue.Request) []Card {
	linked := make(map[int64]struct{}, len(items))
	cards := make([]Card, 0, len(items)+len(requests))

	for _, item := range items {
		if item == nil {
			continue
		}
		if item.RequestID != 0 {
			linked[item.RequestID] = struct{}{}
		}
		cards = append(cards, FromDownload(item))
	}
	for _, req := range requests {
		if req == nil {
			continue
		}
		if _, ok := linked[req.ID]; ok {
			continue
		}
		cards = append(cards, FromRequest(req))
	}

	sort.SliceStable(cards, func(i, j int) bool {
		a, b := cards[i], cards[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.After(b.Timestamp)
		}
		if a.Kind != b.Kind {
			return a.Kind == KindDownload
		}
		return a.ID > b.ID
	})
	return cards
}
