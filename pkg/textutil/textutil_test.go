package textutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsBinary(t *testing.T) {
	t.Parallel()

	beyondSniff := make([]byte, BinarySniffLength+100)
	for i := range beyondSniff {
		beyondSniff[i] = 'a'
	}

	beyondSniff[BinarySniffLength+50] = 0x00

	atBoundary := make([]byte, BinarySniffLength)
	atBoundary[BinarySniffLength-1] = 0x00

	tests := []struct {
		name     string
		data     []byte
		expected bool
	}{
		{"nil", nil, false},
		{"empty", []byte{}, false},
		{"plain text", []byte("hello world\n"), false},
		{"null byte", []byte("hello\x00world"), true},
		{"null at start", []byte("\x00start"), true},
		{"null at sniff boundary", atBoundary, true},
		{"null beyond sniff window", beyondSniff, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, IsBinary(tt.data))
		})
	}
}

func TestCountLines(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		data     []byte
		expected int
	}{
		{"nil", nil, 0},
		{"empty", []byte{}, 0},
		{"no trailing newline", []byte("hello"), 1},
		{"trailing newline", []byte("hello\n"), 1},
		{"multiple lines", []byte("a\nb\nc\n"), 3},
		{"partial last line", []byte("a\nb\nc"), 3},
		{"blank lines", []byte("\n\n\n"), 3},
		{"large buffer", []byte(strings.Repeat("line\n", 10000)), 10000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, CountLines(tt.data))
		})
	}
}
