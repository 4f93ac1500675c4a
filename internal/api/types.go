package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Download describes a download queue entry in a transport-friendly format.
type Download struct {
	ID           int64            `json:"id"`
	Title        string           `json:"title"`
	Author       string           `json:"author,omitempty"`
	Source       string           `json:"source"`
	ContentType  string           `json:"contentType"`
	Status       string           `json:"status"`
	Progress     DownloadProgress `json:"progress"`
	ErrorMessage string           `json:"errorMessage,omitempty"`
	RequestID    int64            `json:"requestId,omitempty"`
	RequestedBy  string           `json:"requestedBy,omitempty"`
	FilePath     string           `json:"filePath,omitempty"`
	CreatedAt    string           `json:"createdAt,omitempty"`
	UpdatedAt    string           `json:"updatedAt,omitempty"`
}

// DownloadProgress captures progress information for a download.
type DownloadProgress struct {
	Percent float64 `json:"percent"`
	Message string  `json:"message"`
}

// Request describes a book request in a transport-friendly format.
type Request struct {
	ID          int64  `json:"id"`
	UUID        string `json:"uuid"`
	Title       string `json:"title"`
	Author      string `json:"author,omitempty"`
	Source      string `json:"source"`
	ContentType string `json:"contentType"`
	Mode        string `json:"mode"`
	Note        string `json:"note,omitempty"`
	Status      string `json:"status"`
	Username    string `json:"username"`
	DecidedBy   string `json:"decidedBy,omitempty"`
	DownloadID  int64  `json:"downloadId,omitempty"`
	CreatedAt   string `json:"createdAt,omitempty"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
}

// User describes an account in a transport-friendly format.
type User struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	Role        string `json:"role"`
	CanDownload bool   `json:"canDownload"`
	CreatedAt   string `json:"createdAt,omitempty"`
}

// ActivityEntry is one card in the unified activity feed.
type ActivityEntry struct {
	Kind        string `json:"kind"`
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Author      string `json:"author,omitempty"`
	Source      string `json:"source"`
	ContentType string `json:"contentType"`
	State       string `json:"state"`
	Detail      string `json:"detail,omitempty"`
	Timestamp   string `json:"timestamp,omitempty"`
}

// SearchResult describes one aggregated search hit with its resolved mode.
type SearchResult struct {
	Title       string `json:"title"`
	Author      string `json:"author,omitempty"`
	Source      string `json:"source"`
	ContentType string `json:"contentType"`
	Year        int    `json:"year,omitempty"`
	Size        int64  `json:"size,omitempty"`
	Seeders     int    `json:"seeders,omitempty"`
	GUID        string `json:"guid,omitempty"`
	Mode        string `json:"mode"`
}

// PolicySourceMode mirrors one source's declared access modes.
type PolicySourceMode struct {
	Source                string            `json:"source"`
	SupportedContentTypes []string          `json:"supportedContentTypes"`
	Modes                 map[string]string `json:"modes"`
}

// PolicySnapshot is the transport view of the cached request policy.
type PolicySnapshot struct {
	RequestsEnabled bool               `json:"requestsEnabled"`
	IsAdmin         bool               `json:"isAdmin"`
	AllowNotes      bool               `json:"allowNotes"`
	Defaults        map[string]string  `json:"defaults"`
	SourceModes     []PolicySourceMode `json:"sourceModes"`
}

// WorkflowStatus summarizes workflow execution state.
type WorkflowStatus struct {
	Running    bool           `json:"running"`
	QueueStats map[string]int `json:"queueStats"`
	LastError  string         `json:"lastError,omitempty"`
	LastItem   *Download      `json:"lastItem,omitempty"`
}

// DependencyStatus captures availability of an external dependency.
type DependencyStatus struct {
	Name      string `json:"name"`
	Optional  bool   `json:"optional"`
	Available bool   `json:"available"`
	Detail    string `json:"detail,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool               `json:"running"`
	PID          int                `json:"pid"`
	QueueDBPath  string             `json:"queueDbPath"`
	LockFilePath string             `json:"lockFilePath"`
	Workflow     WorkflowStatus     `json:"workflow"`
	Dependencies []DependencyStatus `json:"dependencies"`
}

// QueueStatsResponse provides a normalized queue stats payload.
type QueueStatsResponse struct {
	Counts map[string]int `json:"counts"`
}

// DownloadListResponse wraps a collection of downloads for API responses.
type DownloadListResponse struct {
	Items []Download `json:"items"`
}

// DownloadResponse wraps a single download.
type DownloadResponse struct {
	Item Download `json:"item"`
}

// RequestListResponse wraps a collection of requests.
type RequestListResponse struct {
	Requests []Request `json:"requests"`
}

// RequestResponse wraps a single request.
type RequestResponse struct {
	Request Request `json:"request"`
}

// UserListResponse wraps a collection of users.
type UserListResponse struct {
	Users []User `json:"users"`
}

// ActivityResponse wraps the activity feed.
type ActivityResponse struct {
	Entries []ActivityEntry `json:"entries"`
}

// SearchResponse wraps aggregated search results.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
}

// PolicyResponse wraps the cached policy snapshot.
type PolicyResponse struct {
	Policy PolicySnapshot `json:"policy"`
}
