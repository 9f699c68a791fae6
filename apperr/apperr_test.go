package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestStoreWrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Store("list location", cause)

	var se *StoreError
	if !errors.As(err, &se) {
		t.Fatalf("expected *StoreError, got %T", err)
	}
	if se.Op != "list location" {
		t.Errorf("Op = %q", se.Op)
	}
	if !errors.Is(err, cause) {
		t.Error("cause not reachable through Unwrap")
	}
	if err.Error() != "list location: connection refused" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestStoreNil(t *testing.T) {
	if err := Store("noop", nil); err != nil {
		t.Fatalf("Store(nil) = %v", err)
	}
}

func TestSentinelsSurviveWrapping(t *testing.T) {
	err := fmt.Errorf("delete walls 7: %w", ErrNotFound)
	if !errors.Is(err, ErrNotFound) {
		t.Error("ErrNotFound lost through %w")
	}
	if errors.Is(err, ErrValidation) {
		t.Error("unrelated sentinel matched")
	}
}
