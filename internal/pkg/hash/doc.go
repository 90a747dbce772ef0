// Package hash provides helpers for hashing and verifying secrets.
//
// Bcrypt is used for credentials that must survive an offline attack; HMACSHA256
// is used for high-entropy secrets (delivery tokens, verification codes) where a
// keyed digest is enough and deterministic output is required for lookups.
package hash
