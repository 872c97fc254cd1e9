// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package literature

import (
	"context"

	"github.com/pdiddy/tool-miner/pkg/types"
)

// Chain asks each source in order and returns the first text found. An
// error from one source is returned only when no later source has the text.
type Chain []Source

// FetchFullText implements Source.
func (c Chain) FetchFullText(ctx context.Context, id string) (types.Document, bool, error) {
	var firstErr error
	for _, s := range c {
		doc, ok, err := s.FetchFullText(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return types.Document{}, false, ctx.Err()
			}
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if ok {
			return doc, true, nil
		}
	}
	return types.Document{}, false, firstErr
}

// FetchAbstract implements Source.
func (c Chain) FetchAbstract(ctx context.Context, id string) (Abstract, bool, error) {
	var firstErr error
	for _, s := range c {
		abs, ok, err := s.FetchAbstract(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return Abstract{}, false, ctx.Err()
			}
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if ok {
			return abs, true, nil
		}
	}
	return Abstract{}, false, firstErr
}
