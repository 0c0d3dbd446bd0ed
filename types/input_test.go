package types

import (
	"errors"
	"testing"
)

func TestValidateDelta(t *testing.T) {
	tests := []struct {
		delta int64
		err   error
	}{
		{1, nil},
		{-1, nil},
		{MaxDelta, nil},
		{-MaxDelta, nil},
		{0, ErrZeroDelta},
		{MaxDelta + 1, ErrDeltaTooLarge},
		{-MaxDelta - 1, ErrDeltaTooLarge},
	}
	for _, tt := range tests {
		err := ValidateDelta(tt.delta)
		if tt.err == nil && err != nil {
			t.Errorf("ValidateDelta(%d) unexpected error: %v", tt.delta, err)
		}
		if tt.err != nil && !errors.Is(err, tt.err) {
			t.Errorf("ValidateDelta(%d) = %v, want %v", tt.delta, err, tt.err)
		}
	}
}

func TestSplitDelta(t *testing.T) {
	mag, inc := SplitDelta(5)
	if mag != 5 || !inc {
		t.Errorf("SplitDelta(5) = (%d, %v)", mag, inc)
	}
	mag, inc = SplitDelta(-7)
	if mag != 7 || inc {
		t.Errorf("SplitDelta(-7) = (%d, %v)", mag, inc)
	}
}

func TestReceiptSucceeded(t *testing.T) {
	var r *Receipt
	if r.Succeeded() {
		t.Error("nil receipt should not succeed")
	}
	r = &Receipt{Status: ReceiptStatusFailed}
	if r.Succeeded() {
		t.Error("reverted receipt should not succeed")
	}
	r.Status = ReceiptStatusSuccessful
	if !r.Succeeded() {
		t.Error("successful receipt should succeed")
	}
}
