// Package sysutil holds the process-level helpers shared by the command and
// the config loader: log level selection and environment value parsing.
package sysutil

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// ParseLevel maps a LOG_LEVEL value onto a zerolog level. Empty means info;
// "warning" is accepted for warn. Levels zerolog knows but the server does
// not use (trace, disabled) are rejected.
func ParseLevel(s string) (zerolog.Level, error) {
	switch v := strings.ToLower(strings.TrimSpace(s)); v {
	case "":
		return zerolog.InfoLevel, nil
	case "warning":
		return zerolog.WarnLevel, nil
	case "debug", "info", "warn", "error", "fatal", "panic":
		return zerolog.ParseLevel(v)
	default:
		return zerolog.InfoLevel, fmt.Errorf("unknown log level %q", s)
	}
}

// SetLogLevel sets the global level; unknown values fall back to info.
func SetLogLevel(s string) zerolog.Level {
	lvl, err := ParseLevel(s)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	return lvl
}

// ParseBool reads the boolean spellings accepted in the environment
// ("1/0", "true/false", "yes/no", "y/n", "on/off"). ok is false when v is
// none of them.
func ParseBool(v string) (value, ok bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true, true
	case "0", "false", "no", "n", "off":
		return false, true
	}
	return false, false
}

// IsTruthy is ParseBool without the validity flag.
func IsTruthy(v string) bool {
	b, _ := ParseBool(v)
	return b
}

// FirstNonEmpty returns the first value that is not blank, unmodified.
func FirstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
