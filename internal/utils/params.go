// Package utils provides small, generic helpers for parsing request
// parameters. They are independent of domain or business logic.
package utils

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// ErrNotPositive is returned by the parsers when a value must be above zero.
var ErrNotPositive = errors.New("must be a positive integer")

// OptionalInt parses s as an int. An empty s yields def and no error;
// anything else must parse.
func OptionalInt(s string, def int) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	return strconv.Atoi(s)
}

// PositiveID parses a path identifier: a base-10 int64 above zero.
func PositiveID(s string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, ErrNotPositive
	}
	return n, nil
}

// Seconds parses a whole number of seconds into a duration. An empty s is
// zero; an explicit value must be positive.
func Seconds(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, ErrNotPositive
	}
	return time.Duration(n) * time.Second, nil
}
