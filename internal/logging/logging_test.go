package logging

import (
	"bytes"
	"testing"
)

func TestConfigureOnce(t *testing.T) {
	var first, second bytes.Buffer
	l1 := Configure(&first, true)
	l2 := Configure(&second, false)
	if l1 != l2 {
		t.Fatalf("expected the same logger instance")
	}
	if Logger() != l1 {
		t.Fatalf("Logger() should return the configured instance")
	}

	l1.Debug("pass started", "pass", 1)
	if !bytes.Contains(first.Bytes(), []byte("pass started")) {
		t.Fatalf("debug record missing: %q", first.String())
	}
	if second.Len() != 0 {
		t.Fatalf("second writer must stay unused, got %q", second.String())
	}
}
