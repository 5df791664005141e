// Package segcache stores rendered route-segment artifacts keyed by route
// position, slot path, and parameter fingerprint.
//
// Fingerprints are derived from only the parameters a segment actually
// reads, so requests that differ in parameters a segment ignores share one
// entry. Entries move fresh to stale through per-segment revalidation
// windows; stale entries are returned with their state so callers can serve
// stale while refetching. Population is single-flight per key: concurrent
// requests for the same key await one upstream computation.
package segcache
