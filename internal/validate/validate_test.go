// SPDX-License-Identifier: MIT
package validate

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestValidator_URL(t *testing.T) {
	tests := []struct {
		name           string
		value          string
		allowedSchemes []string
		wantErr        bool
	}{
		{"valid http", "http://example.com", []string{"http", "https"}, false},
		{"valid https", "https://example.com", []string{"http", "https"}, false},
		{"empty url", "", []string{"http"}, true},
		{"no host", "http://", []string{"http"}, true},
		{"invalid scheme", "ftp://example.com", []string{"http", "https"}, true},
		{"no scheme", "example.com", []string{"http"}, true},
		{"with port", "http://localhost:5000", []string{"http"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			v.URL("testURL", tt.value, tt.allowedSchemes)

			if tt.wantErr && v.IsValid() {
				t.Errorf("expected error, got none")
			}
			if !tt.wantErr && !v.IsValid() {
				t.Errorf("unexpected error: %v", v.Err())
			}
		})
	}
}

func TestValidator_ListenAddr(t *testing.T) {
	tests := []struct {
		value   string
		wantErr bool
	}{
		{":8080", false},
		{"127.0.0.1:3000", false},
		{"", true},
		{"8080", true},
		{"localhost:", true},
	}

	for _, tt := range tests {
		v := New()
		v.ListenAddr("listen", tt.value)
		if tt.wantErr == v.IsValid() {
			t.Errorf("ListenAddr(%q): wantErr=%v, got errors=%v", tt.value, tt.wantErr, v.Errors())
		}
	}
}

func TestValidator_RangeAndOneOf(t *testing.T) {
	v := New()
	v.Range("rpm", 0, 1, 10000)
	v.OneOf("tracker", "magic", []string{"simulated", "polling"})
	v.FloatRange("samplingRate", 1.5, 0, 1)

	if v.IsValid() {
		t.Fatal("expected errors")
	}
	if got := len(v.Errors()); got != 3 {
		t.Fatalf("expected 3 errors, got %d", got)
	}
	if !strings.Contains(v.Err().Error(), "tracker") {
		t.Errorf("aggregate error should mention tracker: %v", v.Err())
	}
}

func TestValidator_PositiveDuration(t *testing.T) {
	v := New()
	v.PositiveDuration("tick", 0)
	v.PositiveDuration("delay", time.Second)
	if len(v.Errors()) != 1 || v.Errors()[0].Field != "tick" {
		t.Fatalf("unexpected errors: %v", v.Errors())
	}
}

func TestValidator_WritableDirectory_CreatesMissing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "spool", "nested")

	v := New()
	v.WritableDirectory("spoolDir", dir)
	if !v.IsValid() {
		t.Fatalf("unexpected error: %v", v.Err())
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("directory not created: %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("probe file left behind: %v", entries)
	}
}

func TestValidator_WritableDirectory_RejectsFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "plain")
	if err := os.WriteFile(file, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	v := New()
	v.WritableDirectory("spoolDir", file)
	if v.IsValid() {
		t.Fatal("expected error for non-directory")
	}
}

func TestValidationError_Unwrap(t *testing.T) {
	v := New()
	v.NotEmpty("name", "  ")
	err := v.Err()

	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if len(verr.Errors()) != 1 || verr.Errors()[0].Field != "name" {
		t.Errorf("unexpected errors: %v", verr.Errors())
	}
}
