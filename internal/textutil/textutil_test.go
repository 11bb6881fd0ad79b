package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWindow(t *testing.T) {
	text := "0123456789"

	assert.Equal(t, "234567", Window(text, 4, 6, 2))
	assert.Equal(t, "0123", Window(text, 0, 2, 2))
	assert.Equal(t, "6789", Window(text, 8, 10, 2))
	assert.Equal(t, text, Window(text, 5, 5, 100))
}

func TestWindow_RuneBoundaries(t *testing.T) {
	text := "café au lait"
	// byte 4 sits inside the two-byte é
	lo, hi := Bounds(text, 4, 4)
	assert.Equal(t, 3, lo)
	assert.Equal(t, 5, hi)
	assert.Equal(t, "é", text[lo:hi])
}

func TestFindAllFold(t *testing.T) {
	spans := FindAllFold("Golang and go and GO", "go")
	assert.Equal(t, []Span{{0, 2}, {11, 13}, {18, 20}}, spans)

	assert.Nil(t, FindAllFold("text", ""))
	assert.Nil(t, FindAllFold("", "go"))
	assert.Empty(t, FindAllFold("nothing here", "acme"))
}

func TestFindAllFold_EscapesMetacharacters(t *testing.T) {
	spans := FindAllFold("Try C++ or c++ today", "C++")
	assert.Len(t, spans, 2)
}

func TestSentences(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "Terminal punctuation",
			input:    "First one. Second one! Third?",
			expected: []string{"First one.", "Second one!", "Third?"},
		},
		{
			name:     "Line breaks",
			input:    "Line one\nLine two",
			expected: []string{"Line one", "Line two"},
		},
		{
			name:     "Decimals stay intact",
			input:    "It costs 9.99 dollars. Cheap.",
			expected: []string{"It costs 9.99 dollars.", "Cheap."},
		},
		{
			name:     "Empty",
			input:    "   ",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Sentences(tt.input))
		})
	}
}
