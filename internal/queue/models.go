package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a download item.
type Status string

const (
	StatusPending     Status = "pending"
	StatusSearching   Status = "searching"
	StatusGrabbing    Status = "grabbing"
	StatusDownloading Status = "downloading"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
)

// UserStopReason is the error message set when a user explicitly stops an item.
const UserStopReason = "Stop requested by user"

// DaemonStopReason is the error message set when items are failed due to daemon shutdown.
const DaemonStopReason = "Daemon stopped"

var allStatuses = []Status{
	StatusPending,
	StatusSearching,
	StatusGrabbing,
	StatusDownloading,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var processingStatuses = map[Status]struct{}{
	StatusSearching:   {},
	StatusGrabbing:    {},
	StatusDownloading: {},
}

// Item represents a download queue item persisted in SQLite.
type Item struct {
	ID              int64
	Title           string
	Author          string
	Source          string
	ContentType     string
	Status          Status
	RequestID       int64 // request that produced this download, 0 when user-initiated
	RequestedBy     string
	FilePath        string
	ProgressPercent float64
	ProgressMessage string
	ErrorMessage    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsProcessing returns true when the status reflects an in-flight operation.
func (i Item) IsProcessing() bool {
	return IsProcessingStatus(i.Status)
}

// IsProcessingStatus reports whether a status reflects an in-flight operation.
func IsProcessingStatus(status Status) bool {
	_, ok := processingStatuses[status]
	return ok
}

// SetProgress updates the progress fields together.
func (i *Item) SetProgress(message string, percent float64) {
	i.ProgressMessage = message
	i.ProgressPercent = percent
}

// SetFailed marks the item as failed with the given error message.
func (i *Item) SetFailed(message string) {
	i.Status = StatusFailed
	i.ErrorMessage = message
	i.ProgressPercent = 0
	i.ProgressMessage = message
}

// RequestStatus represents the lifecycle of a book request.
type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestApproved  RequestStatus = "approved"
	RequestDenied    RequestStatus = "denied"
	RequestFulfilled RequestStatus = "fulfilled"
)

var allRequestStatuses = []RequestStatus{
	RequestPending,
	RequestApproved,
	RequestDenied,
	RequestFulfilled,
}

var requestStatusSet = func() map[RequestStatus]struct{} {
	set := make(map[RequestStatus]struct{}, len(allRequestStatuses))
	for _, status := range allRequestStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// ParseRequestStatus converts a string into a known RequestStatus.
func ParseRequestStatus(value string) (RequestStatus, bool) {
	normalized := RequestStatus(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := requestStatusSet[normalized]
	return normalized, ok
}

// Request represents a user's book request persisted in SQLite.
type Request struct {
	ID          int64
	UUID        string
	Title       string
	Author      string
	Source      string
	ContentType string
	Mode        string // policy mode at submission time
	Note        string
	Status      RequestStatus
	Username    string
	DecidedBy   string
	DownloadID  int64 // download created on approval, 0 until approved
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Role describes an account's privilege level.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// ParseRole converts a string into a known Role.
func ParseRole(value string) (Role, bool) {
	normalized := Role(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case RoleAdmin, RoleMember:
		return normalized, true
	default:
		return "", false
	}
}

// User represents an account persisted in SQLite.
type User struct {
	ID          int64
	Username    string
	Role        Role
	CanDownload bool
	CreatedAt   time.Time
}

// IsAdmin reports whether the account bypasses request policy.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// HealthSummary describes aggregated queue counts per key lifecycle states.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Failed     int
	Completed  int
}

// DatabaseHealth captures diagnostic information about the queue database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	TableExists      bool
	TotalItems       int
	Error            string
}
