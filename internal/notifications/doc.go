// Package notifications sends push notifications about request decisions and
// download progress through ntfy.
//
// When no ntfy topic is configured the service degrades to a noop
// implementation so callers never need to nil-check.
package notifications
