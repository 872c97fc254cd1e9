// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package literature

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/tool-miner/internal/httputil"
	"github.com/pdiddy/tool-miner/pkg/types"
)

// openAlexWorksBase is the OpenAlex single-work endpoint. Declared as a var
// so tests can substitute an httptest server.
var openAlexWorksBase = "https://api.openalex.org/works"

// openAlexRate stays inside the OpenAlex polite pool.
const openAlexRate = 10

// OpenAlexClient answers abstracts and bibliographic metadata from OpenAlex.
// OpenAlex carries no full text, so FetchFullText always reports none.
type OpenAlexClient struct {
	HTTP      *httputil.Client
	Email     string
	UserAgent string
}

// NewOpenAlexClient builds a client sharing cfg's timeout and retry settings.
func NewOpenAlexClient(cfg types.LiteratureConfig) *OpenAlexClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &OpenAlexClient{
		HTTP:      httputil.NewClient(&http.Client{Timeout: timeout}, openAlexRate, cfg.MaxRetries),
		Email:     cfg.Email,
		UserAgent: cfg.UserAgent,
	}
}

// FetchFullText reports no full text.
func (c *OpenAlexClient) FetchFullText(context.Context, string) (types.Document, bool, error) {
	return types.Document{}, false, nil
}

// FetchAbstract looks the work up by PMID, PMCID, or DOI and rebuilds its
// abstract from the inverted index.
func (c *OpenAlexClient) FetchAbstract(ctx context.Context, id string) (Abstract, bool, error) {
	work, ok, err := c.fetchWork(ctx, openAlexKey(id))
	if err != nil || !ok {
		return Abstract{}, false, err
	}
	text := reconstructAbstract(work.AbstractInvertedIndex)
	if text == "" {
		return Abstract{}, false, nil
	}
	pub := work.publication()
	if pub.ID == "" {
		pub.ID = id
	}
	return Abstract{Publication: pub, Text: text}, true, nil
}

// openAlexKey maps a publication identifier to an OpenAlex external-ID path.
func openAlexKey(id string) string {
	id = strings.TrimSpace(id)
	switch {
	case isPMCID(id):
		return "pmcid:" + normalizePMCID(id)
	case strings.HasPrefix(id, "10."):
		return "doi:" + id
	default:
		return "pmid:" + id
	}
}

func (c *OpenAlexClient) fetchWork(ctx context.Context, key string) (openAlexWork, bool, error) {
	reqURL := openAlexWorksBase + "/" + key
	if c.Email != "" {
		reqURL += "?" + url.Values{"mailto": {c.Email}}.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return openAlexWork{}, false, fmt.Errorf("creating request: %w", err)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := c.HTTP.Do(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return openAlexWork{}, false, ctx.Err()
		}
		return openAlexWork{}, false, fmt.Errorf("%w: OpenAlex %s: %v", ErrUnavailable, key, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return openAlexWork{}, false, nil
	case httputil.Retryable(resp.StatusCode):
		return openAlexWork{}, false, fmt.Errorf("%w: OpenAlex %s: HTTP %d", ErrUnavailable, key, resp.StatusCode)
	default:
		return openAlexWork{}, false, fmt.Errorf("OpenAlex %s: HTTP %d", key, resp.StatusCode)
	}

	var work openAlexWork
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&work); err != nil {
		return openAlexWork{}, false, fmt.Errorf("parsing OpenAlex response: %w", err)
	}
	return work, true, nil
}

// reconstructAbstract converts OpenAlex's abstract_inverted_index back to
// plain text. The index maps each word to the positions it appears at.
func reconstructAbstract(invertedIndex map[string][]int) string {
	if len(invertedIndex) == 0 {
		return ""
	}

	type posWord struct {
		pos  int
		word string
	}
	var pairs []posWord
	for word, positions := range invertedIndex {
		for _, pos := range positions {
			pairs = append(pairs, posWord{pos: pos, word: word})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].pos < pairs[j].pos
	})

	words := make([]string, len(pairs))
	for i, p := range pairs {
		words[i] = p.word
	}
	return strings.Join(words, " ")
}

// OpenAlex work JSON.
type openAlexWork struct {
	ID                    string               `json:"id"`
	Title                 string               `json:"title"`
	DOI                   string               `json:"doi"`
	PublicationDate       string               `json:"publication_date"`
	PublicationYear       int                  `json:"publication_year"`
	IDs                   openAlexIDs          `json:"ids"`
	Authorships           []openAlexAuthorship `json:"authorships"`
	PrimaryLocation       *openAlexLocation    `json:"primary_location"`
	Grants                []openAlexGrant      `json:"grants"`
	AbstractInvertedIndex map[string][]int     `json:"abstract_inverted_index"`
}

type openAlexIDs struct {
	PMID  string `json:"pmid"`
	PMCID string `json:"pmcid"`
}

type openAlexAuthorship struct {
	Author struct {
		DisplayName string `json:"display_name"`
	} `json:"author"`
}

type openAlexLocation struct {
	Source *struct {
		DisplayName string `json:"display_name"`
	} `json:"source"`
}

type openAlexGrant struct {
	FunderDisplayName string `json:"funder_display_name"`
	AwardID           string `json:"award_id"`
}

func (w openAlexWork) publication() types.Publication {
	p := types.Publication{
		ID:    lastPathSegment(w.IDs.PMID),
		PMCID: lastPathSegment(w.IDs.PMCID),
		DOI:   strings.TrimPrefix(w.DOI, "https://doi.org/"),
		Title: w.Title,
	}
	if p.PMCID != "" {
		p.PMCID = normalizePMCID(p.PMCID)
	}
	switch {
	case w.PublicationYear > 0:
		p.Year = strconv.Itoa(w.PublicationYear)
	case w.PublicationDate != "":
		if t, err := time.Parse("2006-01-02", w.PublicationDate); err == nil {
			p.Year = strconv.Itoa(t.Year())
		}
	}
	if w.PrimaryLocation != nil && w.PrimaryLocation.Source != nil {
		p.Journal = w.PrimaryLocation.Source.DisplayName
	}
	for _, a := range w.Authorships {
		if a.Author.DisplayName != "" {
			p.Authors = append(p.Authors, a.Author.DisplayName)
		}
	}
	for _, g := range w.Grants {
		tag := strings.TrimSpace(g.FunderDisplayName + " " + g.AwardID)
		if tag != "" {
			p.FundingTags = append(p.FundingTags, tag)
		}
	}
	return p
}

// lastPathSegment strips URL prefixes such as https://pubmed.ncbi.nlm.nih.gov/.
func lastPathSegment(s string) string {
	s = strings.TrimRight(s, "/")
	if i := strings.LastIndex(s, "/"); i >= 0 {
		return s[i+1:]
	}
	return s
}
