// Package services defines shared utilities consumed by the download worker
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp download IDs, stage names, and correlation
//     identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that keep failure
//     messages and retry classification consistent across integrations.
//
// Use these helpers when wiring new source clients so operational behaviour
// (error handling, observability, retries) stays uniform across the pipeline.
package services
