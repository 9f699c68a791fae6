package apperr

import "errors"

var (
	// ErrValidation marks input that cannot be normalized.
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks a delete or update target that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnsupportedKind marks a filter field kind tag outside the known set.
	ErrUnsupportedKind = errors.New("unsupported filter field kind")
)

// StoreError wraps any failure coming from the database.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Store wraps err as a StoreError for op. A nil err stays nil.
func Store(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}
