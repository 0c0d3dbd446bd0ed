package types

import (
	"bytes"
	"testing"
)

func TestNewHandle(t *testing.T) {
	data := make([]byte, HandleSize)
	for i := range data {
		data[i] = byte(i)
	}

	h, err := NewHandle(data)
	if err != nil {
		t.Fatalf("NewHandle failed: %v", err)
	}
	if !bytes.Equal(h[:], data) {
		t.Error("handle data mismatch")
	}

	// Modifying the input must not change the handle
	data[0] = 0xff
	if h[0] == 0xff {
		t.Error("handle should not alias caller's slice")
	}
}

func TestNewHandleError(t *testing.T) {
	if _, err := NewHandle(make([]byte, 16)); err == nil {
		t.Error("expected error for wrong size")
	}
}

func TestMustNewHandlePanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for wrong size")
		}
	}()
	MustNewHandle(make([]byte, 31))
}

func TestHandleHexRoundTrip(t *testing.T) {
	h := MustNewHandle(bytes.Repeat([]byte{0xab}, HandleSize))

	parsed, err := HandleFromHex(h.Hex())
	if err != nil {
		t.Fatalf("HandleFromHex failed: %v", err)
	}
	if parsed != h {
		t.Errorf("expected %s, got %s", h, parsed)
	}

	if _, err := HandleFromHex("0x1234"); err == nil {
		t.Error("expected error for short hex")
	}
	if _, err := HandleFromHex("not-hex"); err == nil {
		t.Error("expected error for malformed hex")
	}
}

func TestHandleIsZero(t *testing.T) {
	var h Handle
	if !h.IsZero() {
		t.Error("zero handle should report IsZero")
	}
	h[HandleSize-1] = 1
	if h.IsZero() {
		t.Error("non-zero handle should not report IsZero")
	}
}

func TestClearValueMatches(t *testing.T) {
	h1 := MustNewHandle(bytes.Repeat([]byte{1}, HandleSize))
	h2 := MustNewHandle(bytes.Repeat([]byte{2}, HandleSize))

	cv := ClearValue{Handle: h1, Value: 42}
	if !cv.Matches(h1) {
		t.Error("clear value should match its own handle")
	}
	if cv.Matches(h2) {
		t.Error("clear value should not match a different handle")
	}
}
