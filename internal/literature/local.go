// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package literature

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/tool-miner/internal/cache"
	"github.com/pdiddy/tool-miner/pkg/types"
)

// localFormats lists full-text file extensions in lookup order.
var localFormats = []struct {
	ext    string
	format types.DocumentFormat
}{
	{".xml", types.FormatJATS},
	{".html", types.FormatHTML},
	{".md", types.FormatMarkdown},
}

// LocalSource reads documents from a directory:
//
//	<id>.xml            JATS full text
//	<id>.html           HTML full text
//	<id>.md             Markdown full text
//	<id>.abstract.txt   abstract fallback
//	<id>.yaml           bibliographic metadata (types.Publication)
type LocalSource struct {
	Dir string
}

// NewLocalSource checks that dir exists.
func NewLocalSource(dir string) (*LocalSource, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("local literature directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("local literature directory: %s is not a directory", dir)
	}
	return &LocalSource{Dir: dir}, nil
}

func (s *LocalSource) path(id, ext string) string {
	return filepath.Join(s.Dir, cache.SanitizeID(id)+ext)
}

// FetchFullText returns the first full-text file found for id.
func (s *LocalSource) FetchFullText(ctx context.Context, id string) (types.Document, bool, error) {
	if err := ctx.Err(); err != nil {
		return types.Document{}, false, err
	}
	for _, lf := range localFormats {
		body, err := os.ReadFile(s.path(id, lf.ext))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return types.Document{}, false, fmt.Errorf("reading %s%s: %w", id, lf.ext, err)
		}
		pub, err := s.publication(id)
		if err != nil {
			return types.Document{}, false, err
		}
		return types.Document{Publication: pub, Format: lf.format, Body: body}, true, nil
	}
	return types.Document{}, false, nil
}

// FetchAbstract reads <id>.abstract.txt.
func (s *LocalSource) FetchAbstract(ctx context.Context, id string) (Abstract, bool, error) {
	if err := ctx.Err(); err != nil {
		return Abstract{}, false, err
	}
	data, err := os.ReadFile(s.path(id, ".abstract.txt"))
	if errors.Is(err, fs.ErrNotExist) {
		return Abstract{}, false, nil
	}
	if err != nil {
		return Abstract{}, false, fmt.Errorf("reading abstract for %s: %w", id, err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return Abstract{}, false, nil
	}
	pub, err := s.publication(id)
	if err != nil {
		return Abstract{}, false, err
	}
	return Abstract{Publication: pub, Text: text}, true, nil
}

// publication reads <id>.yaml, falling back to a record holding only the ID.
func (s *LocalSource) publication(id string) (types.Publication, error) {
	data, err := os.ReadFile(s.path(id, ".yaml"))
	if errors.Is(err, fs.ErrNotExist) {
		return types.Publication{ID: id}, nil
	}
	if err != nil {
		return types.Publication{}, fmt.Errorf("reading metadata for %s: %w", id, err)
	}
	var pub types.Publication
	if err := yaml.Unmarshal(data, &pub); err != nil {
		return types.Publication{}, fmt.Errorf("parsing metadata for %s: %w", id, err)
	}
	if pub.ID == "" {
		pub.ID = id
	}
	return pub, nil
}
