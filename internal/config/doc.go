// Package config loads, normalizes, and validates Shelfmark's TOML
// configuration. Path fields are tilde-expanded and absolute after Load;
// policy keys and modes are lowercased so lookups are case-insensitive.
package config
