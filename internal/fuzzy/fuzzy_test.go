// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fuzzy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "st88-14 cells", Normalize("  ST88-14\n\tCells "))
	// Fullwidth digits fold under NFKC.
	assert.Equal(t, "hek293", Normalize("HEK２９３"))
}

func TestRatio(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"ImageJ", "imagej", 1},
		{"", "", 1},
		{"abcd", "abce", 0.75},
		{"abcd", "wxyz", 0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, Ratio(tt.a, tt.b), 1e-9, "%s vs %s", tt.a, tt.b)
	}
}

func TestAtBoundary(t *testing.T) {
	text := "prismatic Prism 9"
	assert.False(t, AtBoundary(text, 0, 5))
	assert.True(t, AtBoundary(text, 10, 15))
}

func TestWordStarts(t *testing.T) {
	assert.Equal(t, []int{0, 5, 10}, WordStarts("the (NF1) gene"))
}

func TestWindow(t *testing.T) {
	text := "aaaa bbbb TOOL cccc dddd"
	assert.Equal(t, "bbbb TOOL cccc", Window(text, 10, 14, 5))
	assert.Equal(t, text, Window(text, 10, 14, 100))
}
