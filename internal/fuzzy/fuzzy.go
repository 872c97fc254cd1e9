// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fuzzy holds the text normalisation and edit-similarity helpers
// shared by the matcher, resolver, and deduplicator.
package fuzzy

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/unicode/norm"
)

// Normalize applies NFKC, lowercases, and collapses whitespace runs to one space.
func Normalize(s string) string {
	s = norm.NFKC.String(s)
	s = strings.ToLower(s)
	return strings.Join(strings.Fields(s), " ")
}

// Ratio returns 1 - distance/maxlen over the normalised inputs, in [0,1].
// Two empty strings are identical.
func Ratio(a, b string) float64 {
	a, b = Normalize(a), Normalize(b)
	if a == b {
		return 1
	}
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	maxLen := la
	if lb > maxLen {
		maxLen = lb
	}
	if maxLen == 0 {
		return 1
	}
	d := levenshtein.ComputeDistance(a, b)
	return 1 - float64(d)/float64(maxLen)
}

// IsWordRune reports whether r is part of a word for boundary checks.
func IsWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// AtBoundary reports whether text[start:end] is not glued to letters or
// digits on either side.
func AtBoundary(text string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if IsWordRune(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[end:])
		if IsWordRune(r) {
			return false
		}
	}
	return true
}

// WordStarts returns the byte offsets where words begin in text.
func WordStarts(text string) []int {
	var starts []int
	prevWord := false
	for i, r := range text {
		w := IsWordRune(r)
		if w && !prevWord {
			starts = append(starts, i)
		}
		prevWord = w
	}
	return starts
}

// Window returns a snippet of at most radius bytes on each side of
// [start,end), widened to rune boundaries and trimmed.
func Window(text string, start, end, radius int) string {
	lo := start - radius
	if lo < 0 {
		lo = 0
	}
	hi := end + radius
	if hi > len(text) {
		hi = len(text)
	}
	for lo > 0 && !utf8.RuneStart(text[lo]) {
		lo--
	}
	for hi < len(text) && !utf8.RuneStart(text[hi]) {
		hi++
	}
	return strings.Join(strings.Fields(text[lo:hi]), " ")
}
