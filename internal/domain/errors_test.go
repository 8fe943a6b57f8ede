package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsValidation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "empty cart", err: ErrEmptyCart, want: true},
		{name: "wrapped unknown product", err: fmt.Errorf("checkout: %w", ErrUnknownProduct), want: true},
		{name: "invalid status", err: ErrInvalidStatus, want: true},
		{name: "not found", err: ErrOrderNotFound, want: false},
		{name: "storage", err: NewStorageError("insert order", errors.New("boom")), want: false},
		{name: "nil error", err: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidation(tt.err); got != tt.want {
				t.Errorf("IsValidation() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStorageError(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("create order: %w", NewStorageError("insert order", cause))

	if !IsStorage(err) {
		t.Fatal("expected storage error")
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected cause to be unwrapped")
	}
	if NewStorageError("noop", nil) != nil {
		t.Fatal("expected nil for nil cause")
	}
	if IsStorage(ErrOrderNotFound) {
		t.Fatal("not found is not a storage failure")
	}
}
