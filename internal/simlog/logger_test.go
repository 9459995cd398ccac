package simlog

import (
	"bytes"
	"strings"
	"testing"
)

func TestLinesCarryVirtualTime(t *testing.T) {
	var buf bytes.Buffer
	l := New(LevelDebug, "[SIM] ")
	l.SetOutput(&buf)

	now := 0
	cl := l.WithClock(func() int { return now })
	now = 42
	cl.Infof("node %d entered level %d", 3, 1)

	got := buf.String()
	if !strings.Contains(got, "t=42ms") {
		t.Fatalf("expected a virtual time stamp, got %q", got)
	}
	if !strings.Contains(got, "node 3 entered level 1") {
		t.Fatalf("expected the formatted message, got %q", got)
	}
}

func TestWithoutClockOmitsTimeStamp(t *testing.T) {
	var buf bytes.Buffer
	l := New(LevelDebug, "")
	l.SetOutput(&buf)

	l.Warnf("no kernel yet")
	if strings.Contains(buf.String(), "t=") {
		t.Fatalf("clockless logger must not invent a time stamp, got %q", buf.String())
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(LevelWarn, "")
	l.SetOutput(&buf)

	l.Debugf("hidden debug")
	l.Infof("hidden info")
	l.Warnf("shown warn")

	got := buf.String()
	if strings.Contains(got, "hidden") {
		t.Fatalf("messages below the level must be dropped, got %q", got)
	}
	if !strings.Contains(got, "shown warn") {
		t.Fatalf("messages at the level must be written, got %q", got)
	}
}
