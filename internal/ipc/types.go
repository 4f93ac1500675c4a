package ipc

import "shelfmark/internal/api"

// StartRequest triggers daemon workflow startup.
type StartRequest struct{}

// StartResponse indicates whether the daemon was started.
type StartResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message"`
}

// StopRequest stops daemon workflow.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// Download mirrors the HTTP API download DTO for internal IPC callers.
type Download = api.Download

// Request mirrors the HTTP API request DTO for internal IPC callers.
type Request = api.Request

// User mirrors the HTTP API user DTO for internal IPC callers.
type User = api.User

// ActivityEntry mirrors the HTTP API activity DTO for internal IPC callers.
type ActivityEntry = api.ActivityEntry

// SearchResult mirrors the HTTP API search DTO for internal IPC callers.
type SearchResult = api.SearchResult

// PolicySnapshot mirrors the HTTP API policy DTO for internal IPC callers.
type PolicySnapshot = api.PolicySnapshot

// StatusResponse represents combined daemon/workflow status information.
type StatusResponse struct {
	Running     bool           `json:"running"`
	QueueStats  map[string]int `json:"queue_stats"`
	LastError   string         `json:"last_error"`
	LastItem    *Download      `json:"last_item"`
	LockPath    string         `json:"lock_path"`
	QueueDBPath string         `json:"queue_db_path"`
	PID         int            `json:"pid"`
}

// QueueListRequest filters queue listing by status.
type QueueListRequest struct {
	Statuses []string `json:"statuses"`
}

// QueueListResponse contains download entries.
type QueueListResponse struct {
	Items []Download `json:"items"`
}

// QueueDescribeRequest fetches a single download by id.
type QueueDescribeRequest struct {
	ID int64 `json:"id"`
}

// QueueDescribeResponse contains a single download entry.
type QueueDescribeResponse struct {
	Item Download `json:"item"`
}

// QueueClearRequest removes all items.
type QueueClearRequest struct{}

// QueueClearResponse reports number of removed entries.
type QueueClearResponse struct {
	Removed int64 `json:"removed"`
}

// QueueClearFailedRequest removes failed items.
type QueueClearFailedRequest struct{}

// QueueClearFailedResponse reports number of removed entries.
type QueueClearFailedResponse struct {
	Removed int64 `json:"removed"`
}

// QueueClearCompletedRequest removes completed items.
type QueueClearCompletedRequest struct{}

// QueueClearCompletedResponse reports number of removed entries.
type QueueClearCompletedResponse struct {
	Removed int64 `json:"removed"`
}

// QueueResetRequest resets in-flight items.
type QueueResetRequest struct{}

// QueueResetResponse reports number of items reset.
type QueueResetResponse struct {
	Updated int64 `json:"updated"`
}

// QueueRetryRequest retries failed items. Empty list means all failed items.
type QueueRetryRequest struct {
	IDs []int64 `json:"ids"`
}

// QueueRetryResponse reports number of retried items.
type QueueRetryResponse struct {
	Updated int64 `json:"updated"`
}

// QueueRemoveRequest removes specific items by ID.
type QueueRemoveRequest struct {
	IDs []int64 `json:"ids"`
}

// QueueRemoveResponse reports number of removed entries.
type QueueRemoveResponse struct {
	Removed int64 `json:"removed"`
}

// QueueHealthRequest fetches aggregate diagnostics.
type QueueHealthRequest struct{}

// QueueHealthResponse reports queue health information.
type QueueHealthResponse struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Failed     int `json:"failed"`
	Completed  int `json:"completed"`
}

// DatabaseHealthRequest fetches detailed database diagnostics.
type DatabaseHealthRequest struct{}

// DatabaseHealthResponse reports database health information.
type DatabaseHealthResponse struct {
	DBPath           string `json:"db_path"`
	DatabaseExists   bool   `json:"database_exists"`
	DatabaseReadable bool   `json:"database_readable"`
	TableExists      bool   `json:"table_exists"`
	TotalItems       int    `json:"total_items"`
	Error            string `json:"error"`
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports notification test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}

// PolicyShowRequest fetches the request policy through the cache.
type PolicyShowRequest struct {
	Username string `json:"username"`
	Force    bool   `json:"force"`
}

// PolicyShowResponse contains the resolved policy snapshot.
type PolicyShowResponse struct {
	Policy PolicySnapshot `json:"policy"`
}

// SearchRequest runs an aggregated search.
type SearchRequest struct {
	Query       string `json:"query"`
	ContentType string `json:"content_type"`
	Username    string `json:"username"`
}

// SearchResponse contains aggregated search results.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
}

// RequestListRequest filters request listing by status or username.
type RequestListRequest struct {
	Statuses []string `json:"statuses"`
	Username string   `json:"username"`
}

// RequestListResponse contains request entries.
type RequestListResponse struct {
	Requests []Request `json:"requests"`
}

// RequestSubmitRequest submits a new book request.
type RequestSubmitRequest struct {
	Username    string `json:"username"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	Source      string `json:"source"`
	ContentType string `json:"content_type"`
	Note        string `json:"note"`
}

// RequestSubmitResponse contains the stored request.
type RequestSubmitResponse struct {
	Request Request `json:"request"`
}

// RequestDecideRequest approves or denies a pending request.
type RequestDecideRequest struct {
	UUID      string `json:"uuid"`
	DecidedBy string `json:"decided_by"`
}

// RequestDecideResponse contains the decided request.
type RequestDecideResponse struct {
	Request Request `json:"request"`
}

// ActivityRequest fetches the unified activity feed.
type ActivityRequest struct{}

// ActivityResponse contains the merged activity feed.
type ActivityResponse struct {
	Entries []ActivityEntry `json:"entries"`
}

// UserListRequest fetches all accounts.
type UserListRequest struct{}

// UserListResponse contains account entries.
type UserListResponse struct {
	Users []User `json:"users"`
}

// UserAddRequest creates or updates an account.
type UserAddRequest struct {
	Username    string `json:"username"`
	Role        string `json:"role"`
	CanDownload bool   `json:"can_download"`
}

// UserAddResponse contains the stored account.
type UserAddResponse struct {
	User User `json:"user"`
}

// UserRemoveRequest deletes an account.
type UserRemoveRequest struct {
	Username string `json:"username"`
}

// UserRemoveResponse reports removal outcome.
type UserRemoveResponse struct {
	Removed bool `json:"removed"`
}

// LogTailRequest reads lines from the daemon log file. A negative offset
// asks for the last Limit lines.
type LogTailRequest struct {
	Offset     int64 `json:"offset"`
	Limit      int   `json:"limit"`
	Follow     bool  `json:"follow"`
	WaitMillis int   `json:"wait_millis"`
}

// LogTailResponse carries log lines and the offset to resume from.
type LogTailResponse struct {
	Lines  []string `json:"lines"`
	Offset int64    `json:"offset"`
}
