package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatVersion(t *testing.T) {
	tests := []struct {
		version, commit, want string
	}{
		{"1.2.0", "abcdef1234", "1.2.0"},
		{" 1.2.0 ", "", "1.2.0"},
		{"dev", "abcdef1234", "dev-abcdef1"},
		{"", "abc", "dev-abc"},
		{"dev", "unknown", "dev"},
		{"dev", "  ", "dev"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatVersion(tt.version, tt.commit), "%q/%q", tt.version, tt.commit)
	}
}
