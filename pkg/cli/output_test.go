package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestTextFormatter(t *testing.T) {
	var buf bytes.Buffer
	if err := NewFormatter(FormatText).FormatTo(&buf, "3 policies loaded"); err != nil {
		t.Fatalf("FormatTo: %v", err)
	}
	if buf.String() != "3 policies loaded\n" {
		t.Errorf("output = %q", buf.String())
	}
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	data := map[string]any{"valid": true, "errors": []string{}}
	if err := NewFormatter(FormatJSON).FormatTo(&buf, data); err != nil {
		t.Fatalf("FormatTo: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if decoded["valid"] != true {
		t.Errorf("decoded = %v", decoded)
	}
	if !strings.Contains(buf.String(), "  ") {
		t.Error("JSON output is not indented")
	}
}

func TestNewFormatter_UnknownFallsBackToText(t *testing.T) {
	if _, ok := NewFormatter("yaml").(*TextFormatter); !ok {
		t.Error("unknown format did not fall back to text")
	}
}
