// Package daemon coordinates the long-running Shelfmark process.
//
// It wires configuration, queue storage, the workflow manager, the policy
// cache, and the search and request services into a single lifecycle with
// flock-based locking to prevent multiple instances. The daemon exposes queue
// maintenance helpers and serves the HTTP API.
//
// Keep orchestration logic here: individual workflow steps should live in
// their respective packages while the daemon focuses on startup, shutdown,
// and high level coordination.
package daemon
