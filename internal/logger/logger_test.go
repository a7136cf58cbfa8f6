package logger

import (
	"bytes"
	"encoding/json"
	"testing"
)

// TestSetup はJSON形式でログが出力されることを確認する。
func TestSetup(t *testing.T) {
	var buf bytes.Buffer
	log := Setup(&buf)

	log.Info("server started", "port", "8080")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if entry["msg"] != "server started" {
		t.Errorf("msg = %v, want server started", entry["msg"])
	}
	if entry["port"] != "8080" {
		t.Errorf("port = %v, want 8080", entry["port"])
	}
	if entry["level"] != "INFO" {
		t.Errorf("level = %v, want INFO", entry["level"])
	}
}

// TestSetup_DebugSuppressed はInfoレベル未満のログが出力されないことを確認する。
func TestSetup_DebugSuppressed(t *testing.T) {
	var buf bytes.Buffer
	log := Setup(&buf)

	log.Debug("verbose detail")

	if buf.Len() != 0 {
		t.Errorf("debug log should be suppressed: %s", buf.String())
	}
}
