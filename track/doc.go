// Package track records runtime-only operations observed during trial
// renders of a route segment.
//
// A trial render may suspend on the first runtime operation it reaches, so a
// Recorder accumulates observations incrementally across repeated trials,
// resuming past previously observed suspension points. Observations are
// tagged with the conditional branch that produced them; a later validation
// pass evaluates every (branch, operation) combination independently.
package track
