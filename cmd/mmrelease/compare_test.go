package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/mmaksimovic94/mm-test-release/internal/common/output"
	"github.com/mmaksimovic94/mm-test-release/internal/release"
)

func TestReportComparison(t *testing.T) {
	output.NoColor()

	tests := []struct {
		name    string
		results []release.BranchVersion
		match   bool
		expect  string
	}{
		{
			name:    "match",
			results: []release.BranchVersion{{Branch: "main", Version: "1.2.0"}, {Branch: "integration", Version: "1.2.0"}},
			match:   true,
			expect:  "Versions match: 1.2.0",
		},
		{
			name:    "mismatch",
			results: []release.BranchVersion{{Branch: "main", Version: "1.2.0"}, {Branch: "integration", Version: "1.3.0"}},
			match:   false,
			expect:  "Versions do not match",
		},
		{
			name:    "failure",
			results: []release.BranchVersion{{Branch: "main", Version: "1.2.0"}, {Branch: "integration", Err: errors.New("fetch: boom")}},
			match:   false,
			expect:  "[failed] integration: fetch: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got := reportComparison(&out, &release.Comparison{Original: "main", Results: tt.results})
			if got != tt.match {
				t.Errorf("reportComparison() = %v, want %v", got, tt.match)
			}
			if !strings.Contains(out.String(), tt.expect) {
				t.Errorf("output should contain %q, got:\n%s", tt.expect, out.String())
			}
		})
	}
}
