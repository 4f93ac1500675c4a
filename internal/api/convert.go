package api

import (
	"time"

	"shelfmark/internal/activity"
	"shelfmark/internal/policy"
	"shelfmark/internal/queue"
	"shelfmark/internal/search"
)

// FromDownload converts a queue record to its API representation.
func FromDownload(item *queue.Item) Download {
	if item == nil {
		return Download{}
	}
	dto := Download{
		ID:          item.ID,
		Title:       item.Title,
		Author:      item.Author,
		Source:      item.Source,
		ContentType: item.ContentType,
		Status:      string(item.Status),
		Progress: DownloadProgress{
			Percent: item.ProgressPercent,
			Message: item.ProgressMessage,
		},
		ErrorMessage: item.ErrorMessage,
		RequestID:    item.RequestID,
		RequestedBy:  item.RequestedBy,
		FilePath:     item.FilePath,
	}
	dto.CreatedAt = FormatTime(item.CreatedAt)
	dto.UpdatedAt = FormatTime(item.UpdatedAt)
	return dto
}

// FromDownloads converts a slice of queue records into API DTOs.
func FromDownloads(items []*queue.Item) []Download {
	if len(items) == 0 {
		return nil
	}
	out := make([]Download, 0, len(items))
	for _, item := range items {
		out = append(out, FromDownload(item))
	}
	return out
}

// FromRequest converts a request record to its API representation.
func FromRequest(req *queue.Request) Request {
	if req == nil {
		return Request{}
	}
	return Request{
		ID:          req.ID,
		UUID:        req.UUID,
		Title:       req.Title,
		Author:      req.Author,
		Source:      req.Source,
		ContentType: req.ContentType,
		Mode:        req.Mode,
		Note:        req.Note,
		Status:      string(req.Status),
		Username:    req.Username,
		DecidedBy:   req.DecidedBy,
		DownloadID:  req.DownloadID,
		CreatedAt:   FormatTime(req.CreatedAt),
		UpdatedAt:   FormatTime(req.UpdatedAt),
	}
}

// FromRequests converts a slice of request records into API DTOs.
func FromRequests(requests []*queue.Request) []Request {
	if len(requests) == 0 {
		return nil
	}
	out := make([]Request, 0, len(requests))
	for _, req := range requests {
		out = append(out, FromRequest(req))
	}
	return out
}

// FromUser converts an account record to its API representation.
func FromUser(user *queue.User) User {
	if user == nil {
		return User{}
	}
	return User{
		ID:          user.ID,
		Username:    user.Username,
		Role:        string(user.Role),
		CanDownload: user.CanDownload,
		CreatedAt:   FormatTime(user.CreatedAt),
	}
}

// FromUsers converts a slice of account records into API DTOs.
func FromUsers(users []*queue.User) []User {
	if len(users) == 0 {
		return nil
	}
	out := make([]User, 0, len(users))
	for _, user := range users {
		out = append(out, FromUser(user))
	}
	return out
}

// FromActivityCard converts an activity card to its API representation.
func FromActivityCard(card activity.Card) ActivityEntry {
	return ActivityEntry{
		Kind:        string(card.Kind),
		ID:          card.ID,
		Title:       card.Title,
		Author:      card.Author,
		Source:      card.Source,
		ContentType: card.ContentType,
		State:       string(card.State),
		Detail:      card.Detail,
		Timestamp:   FormatTime(card.Timestamp),
	}
}

// FromActivityCards converts activity cards into API DTOs.
func FromActivityCards(cards []activity.Card) []ActivityEntry {
	if len(cards) == 0 {
		return nil
	}
	out := make([]ActivityEntry, 0, len(cards))
	for _, card := range cards {
		out = append(out, FromActivityCard(card))
	}
	return out
}

// FromSearchResult converts a search hit to its API representation.
func FromSearchResult(result search.Result) SearchResult {
	return SearchResult{
		Title:       result.Title,
		Author:      result.Author,
		Source:      result.Source,
		ContentType: result.ContentType,
		Year:        result.Year,
		Size:        result.Size,
		Seeders:     result.Seeders,
		GUID:        result.GUID,
		Mode:        string(result.Mode),
	}
}

// FromSearchResults converts search hits into API DTOs.
func FromSearchResults(results []search.Result) []SearchResult {
	if len(results) == 0 {
		return nil
	}
	out := make([]SearchResult, 0, len(results))
	for _, result := range results {
		out = append(out, FromSearchResult(result))
	}
	return out
}

// FromPolicy converts a policy document into its API snapshot. A nil policy
// means no restrictions apply and is reported as requests disabled.
func FromPolicy(pol *policy.Policy) PolicySnapshot {
	if pol == nil {
		return PolicySnapshot{}
	}
	snapshot := PolicySnapshot{
		RequestsEnabled: pol.RequestsEnabled,
		IsAdmin:         pol.IsAdmin,
		AllowNotes:      pol.AllowNotes,
	}
	if len(pol.Defaults) > 0 {
		snapshot.Defaults = make(map[string]string, len(pol.Defaults))
		for contentType, mode := range pol.Defaults {
			snapshot.Defaults[contentType] = string(mode)
		}
	}
	for _, sm := range pol.SourceModes {
		modes := make(map[string]string, len(sm.Modes))
		for contentType, mode := range sm.Modes {
			modes[contentType] = string(mode)
		}
		snapshot.SourceModes = append(snapshot.SourceModes, PolicySourceMode{
			Source:                sm.Source,
			SupportedContentTypes: sm.SupportedContentTypes,
			Modes:                 modes,
		})
	}
	return snapshot
}

// MergeQueueStats produces a string-keyed representation of queue stats.
func MergeQueueStats(stats map[queue.Status]int) map[string]int {
	out := make(map[string]int, len(stats))
	for status, count := range stats {
		out[string(status)] = count
	}
	return out
}

// MergeRequestStats produces a string-keyed representation of request stats.
func MergeRequestStats(stats map[queue.RequestStatus]int) map[string]int {
	out := make(map[string]int, len(stats))
	for status, count := range stats {
		out[string(status)] = count
	}
	return out
}

// FormatTime converts a time to RFC3339 or returns empty string.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
