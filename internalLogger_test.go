package ringlog

import (
	"bytes"
	"errors"
	"log"
	"strings"
	"testing"
)

func TestSetInternalLogger(t *testing.T) {
	orig := InternalLogger()
	defer SetInternalLogger(orig)

	var buf bytes.Buffer
	SetInternalLogger(log.New(&buf, "[test] ", 0))

	InternalLogger().Printf("sink misbehaved: %v", "details")

	got := buf.String()
	if !strings.HasPrefix(got, "[test] ") {
		t.Errorf("missing prefix: %q", got)
	}
	if !strings.Contains(got, "sink misbehaved: details") {
		t.Errorf("missing message: %q", got)
	}
}

func TestInternalLoggerFeedsDispatchFailures(t *testing.T) {
	orig := InternalLogger()
	defer SetInternalLogger(orig)

	var buf bytes.Buffer
	SetInternalLogger(log.New(&buf, "", 0))

	d := NewDispatcher(LevelDebug, nil)
	d.AddSink(&memorySink{failWith: errors.New("write refused")})
	d.Info("will fail", nil)

	if !strings.Contains(buf.String(), "sink write failed") {
		t.Errorf("dispatch failure not reported on the internal logger: %q", buf.String())
	}
}
