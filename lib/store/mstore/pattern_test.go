package mstore

import "testing"

func TestMatchPattern(t *testing.T) {
	tests := []struct {
		pattern string
		channel string
		want    bool
	}{
		{"data_update:*", "data_update:units:1", true},
		{"data_update:*", "data_update:", true},
		{"data_update:*", "data_updat", false},
		{"data_update:*", "other:units:1", false},
		{"data_update:*", "data_update:a/b:c", true},
		{"*", "", true},
		{"a?c", "abc", true},
		{"a?c", "ac", false},
		{"a*b*c", "aXXbYYc", true},
		{"a*b*c", "aXXbYY", false},
		{`a\*`, "a*", true},
		{`a\*`, "ab", false},
		{"exact", "exact", true},
		{"exact", "exactly", false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"|"+tt.channel, func(t *testing.T) {
			if got := matchPattern(tt.pattern, tt.channel); got != tt.want {
				t.Errorf("matchPattern(%q, %q) = %v, want %v", tt.pattern, tt.channel, got, tt.want)
			}
		})
	}
}
