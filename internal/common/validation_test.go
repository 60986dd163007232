package common

import (
	"strings"
	"testing"
)

func TestValidateOutputFormat(t *testing.T) {
	supported := []string{"json", "text", "markdown"}

	tests := []struct {
		name        string
		format      string
		supported   []string
		expectError bool
	}{
		{name: "json allowed", format: "json", supported: supported},
		{name: "text allowed", format: "text", supported: supported},
		{name: "markdown allowed", format: "markdown", supported: supported},
		{name: "unknown format rejected", format: "xml", supported: supported, expectError: true},
		{name: "matching is case sensitive", format: "JSON", supported: supported, expectError: true},
		{name: "empty format rejected", format: "", supported: supported, expectError: true},
		{name: "empty allow list permits anything", format: "xml", supported: nil},
		{name: "single entry list", format: "json", supported: []string{"json"}},
		{name: "single entry list rejects others", format: "text", supported: []string{"json"}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputFormat(tt.format, tt.supported)
			if tt.expectError {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.Contains(err.Error(), "unsupported output format") {
					t.Errorf("unexpected error message: %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
