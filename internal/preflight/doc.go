// Package preflight provides readiness checks for external services
// and filesystem paths that Shelfmark depends on.
//
// These checks run in two contexts:
//   - The daemon runs RunAll at startup so an unreachable indexer or an
//     unwritable library shows up before the first download fails.
//   - The CLI "shelfmark status" command uses individual check functions
//     (CheckProwlarr, CheckDirectoryAccess) to display service health.
//
// Each check is gated by its config toggle -- disabled features are skipped.
package preflight
