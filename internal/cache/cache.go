// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache persists the section text fetched for each publication so
// repeat runs reuse it instead of calling the literature service again.
//
// Entries carry a completeness level. A minimal entry holds the abstract
// and methods only and is upgraded to full when the publication produced at
// least one surviving candidate.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/pdiddy/tool-miner/pkg/types"
)

// ErrInvalidEntry is returned by Put for entries without a publication ID.
var ErrInvalidEntry = errors.New("cache entry has no publication id")

// Cache stores one entry per publication identifier.
type Cache interface {
	// Get returns the entry for id. A missing entry is (zero, false, nil).
	Get(ctx context.Context, id string) (types.CacheEntry, bool, error)

	// Put writes e, replacing any previous entry for the same publication.
	Put(ctx context.Context, e types.CacheEntry) error

	// Stats counts stored entries.
	Stats(ctx context.Context) (Stats, error)
}

// Stats summarises cache contents.
type Stats struct {
	Entries        int
	ByCompleteness map[types.Completeness]int
}

func (s *Stats) add(c types.Completeness) {
	if s.ByCompleteness == nil {
		s.ByCompleteness = make(map[types.Completeness]int)
	}
	s.Entries++
	s.ByCompleteness[c]++
}

// MinimalSections are the sections kept in a minimal entry.
var MinimalSections = []types.SectionKind{types.SectionAbstract, types.SectionMethods}

// Minimal returns a copy of e reduced to MinimalSections. Entries built
// from an abstract alone stay abstract_only.
func Minimal(e types.CacheEntry) types.CacheEntry {
	out := e
	out.Sections = make(map[types.SectionKind]string, len(MinimalSections))
	for _, k := range MinimalSections {
		if text, ok := e.Sections[k]; ok {
			out.Sections[k] = text
		}
	}
	if e.Completeness != types.CompletenessAbstractOnly {
		out.Completeness = types.CompletenessMinimal
	}
	return out
}

// NeedsUpgrade reports whether e should be refetched as full text once the
// publication is known to carry candidates.
func NeedsUpgrade(e types.CacheEntry) bool {
	return e.Completeness == types.CompletenessMinimal
}

// SanitizeID maps a publication identifier to a safe file or key name.
// Identifiers that need rewriting get a short hash of the original
// appended so distinct identifiers never share a name.
func SanitizeID(id string) string {
	var b strings.Builder
	changed := false
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
			changed = true
		}
	}
	s := b.String()
	if s == "" || strings.HasPrefix(s, ".") {
		s = "_" + s
		changed = true
	}
	if changed {
		sum := sha256.Sum256([]byte(id))
		s += "-" + hex.EncodeToString(sum[:4])
	}
	return s
}
