package controller

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorIsByCode(t *testing.T) {
	cause := errors.New("boom")
	err := newError(CodeReadFailed, "refresh: reading handle failed", cause)

	if !errors.Is(err, ErrReadFailed) {
		t.Error("error should match its code sentinel")
	}
	if errors.Is(err, ErrMutationFailed) {
		t.Error("error should not match another code")
	}
	if !errors.Is(err, cause) {
		t.Error("error should unwrap to its cause")
	}

	wrapped := fmt.Errorf("handler: %w", err)
	if CodeOf(wrapped) != CodeReadFailed {
		t.Errorf("CodeOf = %q, want %q", CodeOf(wrapped), CodeReadFailed)
	}
	if CodeOf(cause) != "" {
		t.Error("CodeOf should be empty for foreign errors")
	}
	if err.Error() != "refresh: reading handle failed: boom" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestConfigValidateBasic(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.ValidateBasic(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}

	cfg.AuthorizationValidity = 0
	if err := cfg.ValidateBasic(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for zero validity, got %v", err)
	}

	cfg = DefaultConfig()
	cfg.Timeouts.Read = -1
	if err := cfg.ValidateBasic(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for negative timeout, got %v", err)
	}
}

func TestOperationStateString(t *testing.T) {
	tests := []struct {
		state OperationState
		want  string
	}{
		{Idle, "idle"},
		{Mutating, "mutating"},
		{Refreshing, "refreshing"},
		{Decrypting, "decrypting"},
		{OperationState(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
