// Package policy interprets the request-policy document that decides whether
// a source/content-type pair may be downloaded directly, must go through the
// request flow, or is blocked.
//
// Two pure resolvers map a policy snapshot to an access mode, and Cache
// provides a TTL-bounded, de-duplicating front for the remote policy fetch:
// at most one non-forced fetch is in flight per cache, forced refreshes
// always fetch, and fetch errors propagate without being cached.
package policy
