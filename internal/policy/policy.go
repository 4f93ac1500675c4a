package policy

import "strings"

// Mode is the access level granted for a source/content-type pair.
type Mode string

const (
	ModeDownload       Mode = "download"
	ModeRequestRelease Mode = "request_release"
	ModeRequestBook    Mode = "request_book"
	ModeBlocked        Mode = "blocked"
)

// restrictiveness ranks modes from most permissive to most restrictive.
// The two request modes share a rank.
var restrictiveness = map[Mode]int{
	ModeDownload:       0,
	ModeRequestRelease: 1,
	ModeRequestBook:    1,
	ModeBlocked:        2,
}

// ParseMode converts a string into a known Mode.
func ParseMode(value string) (Mode, bool) {
	normalized := Mode(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := restrictiveness[normalized]
	return normalized, ok
}

// Restrictiveness returns the mode's rank in the permissiveness ordering.
// Unknown modes rank as blocked.
func Restrictiveness(m Mode) int {
	if rank, ok := restrictiveness[m]; ok {
		return rank
	}
	return restrictiveness[ModeBlocked]
}

// Cap returns mode unless it is more permissive than floor, in which case
// floor is returned.
func Cap(mode, floor Mode) Mode {
	if Restrictiveness(mode) < Restrictiveness(floor) {
		return floor
	}
	return mode
}

// IsRequest reports whether the mode requires going through the request flow.
func (m Mode) IsRequest() bool {
	return m == ModeRequestRelease || m == ModeRequestBook
}

// Rule is an ordered wildcard fallback applied when a source has no explicit
// source-mode entry.
type Rule struct {
	Source      string `json:"source"`
	ContentType string `json:"content_type"`
	Mode        Mode   `json:"mode"`
}

// SourceMode declares the access modes a single source grants per content type.
type SourceMode struct {
	Source                string          `json:"source"`
	SupportedContentTypes []string        `json:"supported_content_types"`
	Modes                 map[string]Mode `json:"modes"`
}

// Supports reports whether the source lists the content type.
func (s SourceMode) Supports(contentType string) bool {
	for _, candidate := range s.SupportedContentTypes {
		if candidate == contentType {
			return true
		}
	}
	return false
}

// Policy is an immutable snapshot of the request-policy document.
type Policy struct {
	RequestsEnabled bool            `json:"requests_enabled"`
	IsAdmin         bool            `json:"is_admin"`
	AllowNotes      bool            `json:"allow_notes"`
	Defaults        map[string]Mode `json:"defaults"`
	Rules           []Rule          `json:"rules"`
	SourceModes     []SourceMode    `json:"source_modes"`
}
