package utils

import (
	"errors"
	"testing"
	"time"
)

func TestOptionalInt(t *testing.T) {
	if n, err := OptionalInt("", 3); err != nil || n != 3 {
		t.Fatalf("empty: %d %v", n, err)
	}
	if n, err := OptionalInt(" 4 ", 0); err != nil || n != 4 {
		t.Fatalf("trimmed: %d %v", n, err)
	}
	if _, err := OptionalInt("four", 0); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestPositiveID(t *testing.T) {
	if n, err := PositiveID("17"); err != nil || n != 17 {
		t.Fatalf("17: %d %v", n, err)
	}
	for _, s := range []string{"", "abc", "1.5"} {
		if _, err := PositiveID(s); err == nil {
			t.Fatalf("%q: expected error", s)
		}
	}
	for _, s := range []string{"0", "-3"} {
		if _, err := PositiveID(s); !errors.Is(err, ErrNotPositive) {
			t.Fatalf("%q: err = %v", s, err)
		}
	}
}

func TestSeconds(t *testing.T) {
	if d, err := Seconds(""); err != nil || d != 0 {
		t.Fatalf("empty: %v %v", d, err)
	}
	if d, err := Seconds("3600"); err != nil || d != time.Hour {
		t.Fatalf("3600: %v %v", d, err)
	}
	if _, err := Seconds("0"); !errors.Is(err, ErrNotPositive) {
		t.Fatalf("zero: %v", err)
	}
	if _, err := Seconds("1h"); err == nil {
		t.Fatalf("duration syntax must be rejected")
	}
}
