// Package route models hierarchical route trees for segment-level caching.
//
// It provides the route tree descriptor (segments, named slots, declared
// prefetch capabilities), the per-segment accumulator for parameters actually
// read during trial renders, and the classifier that narrows a declared
// capability by validation outcome.
package route
