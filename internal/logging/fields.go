package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldItemID is the standardized structured logging key for download queue item identifiers.
	FieldItemID = "item_id"
	// FieldRequestID is the standardized structured logging key for book request identifiers.
	FieldRequestID = "request_id"
	// FieldSource is the standardized structured logging key for content source names.
	FieldSource = "source"
	// FieldContentType is the standardized structured logging key for content types (ebook/audiobook).
	FieldContentType = "content_type"
	// FieldUsername is the standardized structured logging key for account names.
	FieldUsername = "username"
	// FieldEventType is the standardized structured logging key for machine-readable event names.
	FieldEventType = "event_type"
	// FieldErrorHint is the standardized structured logging key for operator guidance on failures.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for the user-facing consequence of a warning.
	FieldImpact = "impact"
)
