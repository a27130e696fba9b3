package logging

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestLoggerV2_WritesComponentAndFields(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(&bytes.Buffer{})

	logger := NewLoggerV2("checkout")
	logger.Info("Order placed", Fields{"order_id": "a1b2c3d4", "items": 2})

	var record map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("Failed to parse log line: %v", err)
	}

	if record["msg"] != "Order placed" {
		t.Errorf("Expected msg 'Order placed', got %v", record["msg"])
	}
	if record["component"] != "checkout" {
		t.Errorf("Expected component 'checkout', got %v", record["component"])
	}
	if record["order_id"] != "a1b2c3d4" {
		t.Errorf("Expected order_id 'a1b2c3d4', got %v", record["order_id"])
	}
}

func TestLoggerV2_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(&bytes.Buffer{})

	SetLevel("info")
	NewLoggerV2("test").Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("Expected debug record to be dropped, got %q", buf.String())
	}

	SetLevel("debug")
	defer SetLevel("info")
	NewLoggerV2("test").Debug("visible")
	if buf.Len() == 0 {
		t.Error("Expected debug record to be written")
	}
}

func TestLoggerV2_Fatal(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(&bytes.Buffer{})

	var code int
	prev := exitFun
	exitFun = func(c int) { code = c }
	defer func() { exitFun = prev }()

	NewLoggerV2("test").Fatal("boom")
	if code != 1 {
		t.Errorf("Expected exit code 1, got %d", code)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"debug", "DEBUG"},
		{"WARN", "WARN"},
		{"error", "ERROR"},
		{"", "INFO"},
		{"verbose", "INFO"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := parseLevel(tt.in).String(); got != tt.want {
				t.Errorf("parseLevel(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}
