package uid

// NumberID generates numeric identifiers, typically for database entities.
type NumberID interface {
	Generate() int64
}

// StringID generates string identifiers, such as UUIDs or opaque tokens.
type StringID interface {
	Generate() string
}
