// Package validate checks a segment's declared prefetch capability against
// trial-render observations and route tree structure.
//
// The checker is a single top-down traversal carrying a boundary-active
// flag. It decides, per segment, whether every runtime-only operation and
// every forced dynamic hole sits under a deferred-rendering boundary, and
// reports structural failures with a reason taxonomy. Failures are build/dev
// time diagnostics: they downgrade classification, they never crash
// navigation.
package validate
