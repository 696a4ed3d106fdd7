// Package model defines the query-side types shared across the client.
//
// # Types
//
//   - Filters: the closed set of recognized query dimensions (gender,
//     division, year, total-time bounds). Closed means exhaustive: cache-key
//     canonicalization enumerates every field, so adding a dimension is a
//     compile-time visible change instead of a silently missed map key.
//
// Filter values are canonicalized before they reach a cache key: strings are
// casefolded and trimmed, unset dimensions collapse to the literal "all", and
// numeric bounds format with fixed precision so keys never depend on locale
// or platform float formatting.
package model
