// Package api defines wire-format types and converters for the IPC and HTTP
// API layer. It translates internal queue, request, and policy models into
// transport-friendly DTOs that CLI and web consumers can render without
// coupling to internal types.
//
// # Key Types
//
// Download: transport representation of a download queue entry with progress
// and request linkage.
//
// Request: transport representation of a book request with its recorded
// policy mode and decision trail.
//
// WorkflowStatus: daemon running state, queue stats, and last item.
//
// DaemonStatus: aggregated runtime information including dependencies.
//
// # Converters
//
// FromDownload: queue.Item -> Download. FromRequest: queue.Request -> Request.
// FromActivityCard: activity.Card -> ActivityEntry. FromPolicy: policy.Policy
// -> PolicySnapshot.
//
// # Design Notes
//
// DTOs use camelCase JSON tags for JavaScript/TypeScript consumers. Internal
// enums (queue.Status, queue.RequestStatus, policy.Mode) are exposed as
// lowercase strings. Timestamps use RFC3339 with milliseconds.
package api
