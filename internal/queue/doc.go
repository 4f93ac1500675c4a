// Package queue persists downloads, book requests, and user accounts in
// SQLite and exposes helpers for driving their lifecycle.
//
// The Store manages database connections, schema initialization, stats
// queries, stuck-item recovery, and status transitions shared by the
// workflow manager, the HTTP API, and the CLI. Downloads capture progress
// and error state; requests capture the policy mode they were submitted
// under and the decision trail.
//
// Schema changes bump the version in schema.go; users clear the database
// to adopt the new schema.
package queue
