package logx

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, ColorOff)
	defer SetOutput(os.Stderr, ColorAuto)
	prev := GetLevel()
	defer SetLevel(prev)

	SetLevel(WARN)
	Debugf("test", "hidden %d", 1)
	Infof("test", "hidden %d", 2)
	Warnf("test", "shown %d", 3)
	Errorf("other", "shown %d", 4)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("messages below WARN leaked:\n%s", out)
	}
	if !strings.Contains(out, " WARNING [test] shown 3\n") {
		t.Fatalf("missing warning line:\n%s", out)
	}
	if !strings.Contains(out, "   ERROR [other] shown 4\n") {
		t.Fatalf("missing error line:\n%s", out)
	}
	if n := strings.Count(out, "\n"); n != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", n, out)
	}
}

func TestColoredTags(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, ColorOn)
	defer SetOutput(os.Stderr, ColorAuto)
	prev := GetLevel()
	defer SetLevel(prev)
	SetLevel(DEBUG)

	Debugf("smap", "x")
	if !strings.Contains(buf.String(), "\033[36msmap\033[0m") {
		t.Fatalf("section not colored: %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want Level
		ok   bool
	}{
		{"debug", DEBUG, true},
		{"INFO", INFO, true},
		{" warning ", WARN, true},
		{"warn", WARN, true},
		{"critical", CRITICAL, true},
		{"loud", INFO, false},
	} {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseLevel(tc.in)
			if (err == nil) != tc.ok {
				t.Fatalf("ParseLevel(%q) err = %v", tc.in, err)
			}
			if got != tc.want {
				t.Fatalf("ParseLevel(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
	if s := Level(42).String(); s != "Level(42)" {
		t.Fatalf("out of range level string %q", s)
	}
}
