// Package result provides a generic success-or-failure container used to
// carry the outcome of fallible operations between pipeline stages and
// across worker goroutines.
//
// A Result holds exactly one of a value or a captured error at any time.
// Failures keep the original error's kind identity, so callers can match
// them with errors.Is / errors.As (via FailureIs and HasFailureOf) without
// re-propagating.
//
// Design decision: Result is a plain struct with a discriminant flag rather
// than an interface hierarchy because:
//  1. Value semantics make copying and swapping trivial and allocation-free
//  2. The compiler-generated copy preserves the single-live-branch invariant
//  3. Error matching composes with the standard errors package
package result
