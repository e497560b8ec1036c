package logger

import (
	"bytes"
	"log"
	"strings"
	"testing"
	"time"
)

// captureLog redirects the standard logger for the duration of a test.
func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevOut, prevFlags := log.Writer(), log.Flags()
	log.SetOutput(&buf)
	log.SetFlags(0)
	t.Cleanup(func() {
		log.SetOutput(prevOut)
		log.SetFlags(prevFlags)
		SetPrefix("")
		SetLevel(LevelInfo)
	})
	return &buf
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"TRACE", LevelDebug},
		{" error ", LevelError},
		{"info", LevelInfo},
		{"", LevelInfo},
		{"verbose", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestPrefixAndLevels(t *testing.T) {
	buf := captureLog(t)
	SetPrefix("client")

	Debugf("hidden %d", 1)
	Infof("request %s", "POST /auth/register")
	Errorf("failed: %s", "timeout")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug line written at info level:\n%s", out)
	}
	if !strings.Contains(out, "[client] request POST /auth/register") {
		t.Errorf("missing prefixed info line:\n%s", out)
	}
	if !strings.Contains(out, "[client] ERROR: failed: timeout") {
		t.Errorf("missing prefixed error line:\n%s", out)
	}
}

func TestDebugLevel(t *testing.T) {
	buf := captureLog(t)
	SetLevel(LevelDebug)

	if !DebugEnabled() {
		t.Fatal("DebugEnabled() = false after SetLevel(LevelDebug)")
	}
	Debugf("body=%s", "{}")
	if !strings.Contains(buf.String(), "DEBUG: body={}") {
		t.Errorf("debug line missing:\n%s", buf.String())
	}
}

func TestErrorLevelSuppressesInfo(t *testing.T) {
	buf := captureLog(t)
	SetLevel(LevelError)

	Info("quiet")
	Error("loud")
	out := buf.String()
	if strings.Contains(out, "quiet") {
		t.Errorf("info written at error level:\n%s", out)
	}
	if !strings.Contains(out, "loud") {
		t.Errorf("error line missing:\n%s", out)
	}
}

func TestLogDuration(t *testing.T) {
	buf := captureLog(t)

	LogDuration("fast", time.Now())
	if strings.Contains(buf.String(), "fn=fast") {
		t.Errorf("fast call logged at info level:\n%s", buf.String())
	}

	LogDuration("slow", time.Now().Add(-200*time.Millisecond))
	if !strings.Contains(buf.String(), "fn=slow") {
		t.Errorf("slow call not logged:\n%s", buf.String())
	}
}
