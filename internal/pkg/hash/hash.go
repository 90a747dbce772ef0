package hash

// Hash hashes secrets and verifies plaintext against a stored hash.
//
// Implementations must make Verify resistant to timing attacks.
type Hash interface {
	Hash(plaintext string) ([]byte, error)
	Verify(hashed, plaintext string) bool
}
