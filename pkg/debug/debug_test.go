package debug

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"
)

func captureDebug(t *testing.T, on bool) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := Enabled()
	SetOutput(&buf)
	SetEnabled(on)
	t.Cleanup(func() {
		SetEnabled(prev)
		SetOutput(os.Stderr)
	})
	return &buf
}

func TestLogDisabledIsSilent(t *testing.T) {
	buf := captureDebug(t, false)
	Log("hello %d", 1)
	LogTiming("op", time.Millisecond)
	Section("s")
	LogEnterExit("fn")()
	if buf.Len() != 0 {
		t.Errorf("expected no output when disabled, got %q", buf.String())
	}
}

func TestLogEnabledWrites(t *testing.T) {
	buf := captureDebug(t, true)
	Log("drilled into %s", "seg-a-b")
	LogIf(false, "never")
	Dump("count", 3)

	out := buf.String()
	if !strings.Contains(out, "drilled into seg-a-b") {
		t.Errorf("missing log line: %q", out)
	}
	if strings.Contains(out, "never") {
		t.Errorf("LogIf(false) should not write: %q", out)
	}
	if !strings.Contains(out, "count: int = 3") {
		t.Errorf("missing dump: %q", out)
	}
}

func TestWarnIgnoresFlag(t *testing.T) {
	buf := captureDebug(t, false)
	Warn("skipping line %d", 4)
	if !strings.Contains(buf.String(), "skipping line 4") {
		t.Errorf("warn should always write, got %q", buf.String())
	}
}
