package log

import (
	"bytes"
	"strings"
	"testing"
)

func TestHelpersReportTheirCaller(t *testing.T) {
	var buf bytes.Buffer
	l := Init(Options{})
	l.SetOutput(&buf)

	fields := Fields{"frame": 3}
	Info(fields, "frame rejected")
	Warn(nil, "no usable frames")

	out := buf.String()
	if strings.Count(out, "log_test.go:") != 2 {
		t.Errorf("expected both lines to name log_test.go, got:\n%s", out)
	}
	if strings.Contains(out, "log.go:") {
		t.Errorf("caller points into the logging helpers:\n%s", out)
	}
	if !strings.Contains(out, "TestHelpersReportTheirCaller") {
		t.Errorf("caller function missing:\n%s", out)
	}
	if len(fields) != 1 {
		t.Errorf("helper modified the caller's fields: %v", fields)
	}
}
