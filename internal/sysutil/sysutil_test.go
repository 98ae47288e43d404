package sysutil

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug":     zerolog.DebugLevel,
		"  DeBuG  ": zerolog.DebugLevel,
		"":          zerolog.InfoLevel,
		"warning":   zerolog.WarnLevel,
		"error":     zerolog.ErrorLevel,
		"panic":     zerolog.PanicLevel,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	for _, bad := range []string{"trace", "disabled", "loud"} {
		if _, err := ParseLevel(bad); err == nil {
			t.Fatalf("ParseLevel(%q) should fail", bad)
		}
	}
}

func TestSetLogLevel_FallsBackToInfo(t *testing.T) {
	orig := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(orig) })

	if got := SetLogLevel("warn"); got != zerolog.WarnLevel || zerolog.GlobalLevel() != zerolog.WarnLevel {
		t.Fatalf("warn -> %v (global %v)", got, zerolog.GlobalLevel())
	}
	if got := SetLogLevel("loud"); got != zerolog.InfoLevel || zerolog.GlobalLevel() != zerolog.InfoLevel {
		t.Fatalf("unknown -> %v (global %v)", got, zerolog.GlobalLevel())
	}
}

func TestParseBool(t *testing.T) {
	for _, v := range []string{"1", "TRUE", " yes ", "Y", "On"} {
		if b, ok := ParseBool(v); !b || !ok {
			t.Fatalf("ParseBool(%q) = %v, %v", v, b, ok)
		}
	}
	for _, v := range []string{"0", "false", "No", "n", "off"} {
		if b, ok := ParseBool(v); b || !ok {
			t.Fatalf("ParseBool(%q) = %v, %v", v, b, ok)
		}
	}
	for _, v := range []string{"", "  ", "maybe"} {
		if _, ok := ParseBool(v); ok {
			t.Fatalf("ParseBool(%q) accepted", v)
		}
	}
	if IsTruthy("maybe") || !IsTruthy("on") {
		t.Fatalf("IsTruthy disagrees with ParseBool")
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := FirstNonEmpty(); got != "" {
		t.Fatalf("no args = %q", got)
	}
	if got := FirstNonEmpty(" ", "\t"); got != "" {
		t.Fatalf("blanks = %q", got)
	}
	if got := FirstNonEmpty("", "  v1.2  ", "dev"); got != "  v1.2  " {
		t.Fatalf("got %q", got)
	}
}
