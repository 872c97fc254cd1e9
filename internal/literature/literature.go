// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package literature fetches publication text and bibliographic metadata.
// Sources report "no text" as (zero, false, nil); an error means the service
// could not be reached or answered garbage.
package literature

import (
	"context"
	"errors"

	"github.com/pdiddy/tool-miner/pkg/types"
)

// ErrUnavailable wraps failures that survive every retry.
var ErrUnavailable = errors.New("literature service unavailable")

// Abstract is the abstract-only fallback for a publication.
type Abstract struct {
	Publication types.Publication
	Text        string
}

// Source looks up publication text by identifier.
type Source interface {
	// FetchFullText returns the structured full text, if any.
	FetchFullText(ctx context.Context, id string) (types.Document, bool, error)

	// FetchAbstract returns the abstract and bibliographic metadata, if any.
	FetchAbstract(ctx context.Context, id string) (Abstract, bool, error)
}
