package policy

import "strings"

// ResolveDefaultMode returns the access mode for a content type before any
// source-specific rules apply. Admins and disabled-policy contexts always
// resolve to download.
func ResolveDefaultMode(p *Policy, isAdmin bool, contentType string) Mode {
	if isAdmin || p == nil || !p.RequestsEnabled {
		return ModeDownload
	}
	contentType = normalizeKey(contentType)
	if mode, ok := p.Defaults[contentType]; ok {
		return mode
	}
	return ModeDownload
}

// ResolveSourceMode returns the access mode for a source/content-type pair.
//
// Resolution order: an explicit source-mode entry listing the content type
// wins; otherwise the first wildcard rule for the content type applies,
// capped so it is never more permissive than the content-type default; with
// no match the content-type default stands.
func ResolveSourceMode(p *Policy, isAdmin bool, source, contentType string) Mode {
	if isAdmin || p == nil || !p.RequestsEnabled {
		return ModeDownload
	}
	source = normalizeKey(source)
	contentType = normalizeKey(contentType)

	for _, sm := range p.SourceModes {
		if sm.Source != source {
			continue
		}
		if !sm.Supports(contentType) {
			break
		}
		if mode, ok := sm.Modes[contentType]; ok {
			return mode
		}
		break
	}

	fallback := ResolveDefaultMode(p, isAdmin, contentType)
	for _, rule := range p.Rules {
		if rule.Source != "*" && rule.Source != "" {
			continue
		}
		if rule.ContentType != contentType {
			continue
		}
		return Cap(rule.Mode, fallback)
	}
	return fallback
}

func normalizeKey(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
