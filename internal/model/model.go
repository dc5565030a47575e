// Package model defines the domain entities and the response shapes the
// API serializes.
//
// Structs carry both db tags (for pgx row scanning) and json tags (for the
// HTTP layer). Sensitive fields such as password hashes are excluded from
// serialization, never stripped by hand.
package model
