package validator

// Validator validates a struct against its declarative rules.
type Validator interface {
	Validate(data any) error
}
