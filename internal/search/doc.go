// Package search aggregates book results from the configured source
// clients, de-duplicates near-identical entries, and annotates each result
// with the access mode the request policy resolves for its source.
package search
