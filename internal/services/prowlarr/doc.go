// Package prowlarr provides the Prowlarr indexer client used to search for
// and grab book releases.
package prowlarr
