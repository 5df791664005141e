// Package nav plans and executes segment fetches for navigations and
// prefetches.
//
// The orchestrator walks a route tree top-down, fingerprints each segment,
// classifies it if needed, consults the segment cache, and produces an
// ordered plan of actions: serve from cache, fetch synchronously, or fetch
// deferred. Artifact population is the only suspension point; planning and
// lookups never block. Distinct keys populate concurrently; identical keys
// share one in-flight population.
package nav
