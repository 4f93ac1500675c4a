// Package activity merges downloads and book requests into a single
// chronological feed of cards for the API and CLI.
package activity
