// Package observe provides observability primitives for segment caching and
// navigation planning.
//
// It is a pure instrumentation library: no planning, no population, no I/O
// beyond exporter setup. Consumers wire the observer into the cache store
// and the navigation orchestrator.
package observe
