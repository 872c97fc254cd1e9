// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package literature

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pdiddy/tool-miner/internal/httputil"
	"github.com/pdiddy/tool-miner/pkg/types"
)

// E-utilities efetch endpoints. Declared as vars so tests can substitute an
// httptest server.
var (
	pubmedFetchBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/efetch.fcgi"
	pmcFetchBase    = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/efetch.fcgi"
)

// NCBI request rates, without and with an API key, and response limits.
const (
	ncbiRate       = 3
	ncbiKeyedRate  = 10
	maxBodyBytes   = 32 << 20
	defaultTimeout = 60 * time.Second
)

// NCBIClient reads PubMed metadata and abstracts and PMC JATS full text.
type NCBIClient struct {
	HTTP      *httputil.Client
	APIKey    string
	Email     string
	UserAgent string
}

// NewNCBIClient builds a client rate limited to NCBI's published limits
// unless cfg sets its own rate.
func NewNCBIClient(cfg types.LiteratureConfig) *NCBIClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = ncbiRate
		if cfg.APIKey != "" {
			rps = ncbiKeyedRate
		}
	}
	return &NCBIClient{
		HTTP:      httputil.NewClient(&http.Client{Timeout: timeout}, rps, cfg.MaxRetries),
		APIKey:    cfg.APIKey,
		Email:     cfg.Email,
		UserAgent: cfg.UserAgent,
	}
}

// FetchAbstract reads the PubMed record for a PMID. PMC identifiers are
// answered from the PMC article front matter.
func (c *NCBIClient) FetchAbstract(ctx context.Context, id string) (Abstract, bool, error) {
	if isPMCID(id) {
		doc, ok, err := c.fetchPMC(ctx, id)
		if err != nil || !ok {
			return Abstract{}, ok, err
		}
		meta := parseJATSFront(doc.Body)
		if meta.abstract == "" {
			return Abstract{}, false, nil
		}
		return Abstract{Publication: doc.Publication, Text: meta.abstract}, true, nil
	}

	art, ok, err := c.fetchPubMed(ctx, id)
	if err != nil || !ok {
		return Abstract{}, ok, err
	}
	text := art.abstractText()
	if text == "" {
		return Abstract{}, false, nil
	}
	return Abstract{Publication: art.publication(), Text: text}, true, nil
}

// FetchFullText resolves a PMID to its PMCID and fetches the JATS document.
// Publications outside the PMC open access subset have no full text.
func (c *NCBIClient) FetchFullText(ctx context.Context, id string) (types.Document, bool, error) {
	if isPMCID(id) {
		return c.fetchPMC(ctx, id)
	}
	art, ok, err := c.fetchPubMed(ctx, id)
	if err != nil || !ok {
		return types.Document{}, ok, err
	}
	pub := art.publication()
	if pub.PMCID == "" {
		return types.Document{}, false, nil
	}
	doc, ok, err := c.fetchPMC(ctx, pub.PMCID)
	if err != nil || !ok {
		return types.Document{}, ok, err
	}
	doc.Publication = pub
	return doc, true, nil
}

func (c *NCBIClient) fetchPubMed(ctx context.Context, pmid string) (pubmedArticle, bool, error) {
	body, ok, err := c.efetch(ctx, pubmedFetchBase, "pubmed", pmid)
	if err != nil || !ok {
		return pubmedArticle{}, ok, err
	}
	var set pubmedArticleSet
	if err := xml.Unmarshal(body, &set); err != nil {
		return pubmedArticle{}, false, fmt.Errorf("parsing PubMed record %s: %w", pmid, err)
	}
	if len(set.Articles) == 0 {
		return pubmedArticle{}, false, nil
	}
	return set.Articles[0], true, nil
}

func (c *NCBIClient) fetchPMC(ctx context.Context, pmcid string) (types.Document, bool, error) {
	body, ok, err := c.efetch(ctx, pmcFetchBase, "pmc", strings.TrimPrefix(strings.ToUpper(pmcid), "PMC"))
	if err != nil || !ok {
		return types.Document{}, ok, err
	}
	// PMC answers restricted articles with front matter only.
	if !bytes.Contains(body, []byte("<body")) {
		return types.Document{}, false, nil
	}
	meta := parseJATSFront(body)
	pub := meta.pub
	if pub.PMCID == "" {
		pub.PMCID = normalizePMCID(pmcid)
	}
	if pub.ID == "" {
		pub.ID = pub.PMCID
	}
	return types.Document{Publication: pub, Format: types.FormatJATS, Body: body}, true, nil
}

// efetch returns the response body. A 400 or 404 means the identifier is
// unknown and is reported as not found.
func (c *NCBIClient) efetch(ctx context.Context, base, db, id string) ([]byte, bool, error) {
	params := url.Values{
		"db":      {db},
		"id":      {id},
		"retmode": {"xml"},
		"tool":    {"tool-miner"},
	}
	if c.APIKey != "" {
		params.Set("api_key", c.APIKey)
	}
	if c.Email != "" {
		params.Set("email", c.Email)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+params.Encode(), nil)
	if err != nil {
		return nil, false, fmt.Errorf("creating request: %w", err)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := c.HTTP.Do(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, false, fmt.Errorf("%w: %s efetch %s: %v", ErrUnavailable, db, id, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusNotFound:
		return nil, false, nil
	case httputil.Retryable(resp.StatusCode):
		return nil, false, fmt.Errorf("%w: %s efetch %s: HTTP %d", ErrUnavailable, db, id, resp.StatusCode)
	default:
		return nil, false, fmt.Errorf("%s efetch %s: HTTP %d", db, id, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, false, fmt.Errorf("%w: reading %s response: %v", ErrUnavailable, db, err)
	}
	return body, true, nil
}

func isPMCID(id string) bool {
	return strings.HasPrefix(strings.ToUpper(id), "PMC")
}

func normalizePMCID(id string) string {
	id = strings.TrimSpace(id)
	if isPMCID(id) {
		return "PMC" + id[3:]
	}
	return "PMC" + id
}

// PubMed efetch XML.
type pubmedArticleSet struct {
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

type pubmedArticle struct {
	PMID    string `xml:"MedlineCitation>PMID"`
	Article struct {
		Title   string `xml:"ArticleTitle"`
		Journal struct {
			Title   string `xml:"Title"`
			PubDate struct {
				Year        string `xml:"Year"`
				MedlineDate string `xml:"MedlineDate"`
			} `xml:"JournalIssue>PubDate"`
		} `xml:"Journal"`
		Abstract []struct {
			Label string `xml:"Label,attr"`
			Text  string `xml:",innerxml"`
		} `xml:"Abstract>AbstractText"`
		Authors []struct {
			LastName       string `xml:"LastName"`
			ForeName       string `xml:"ForeName"`
			CollectiveName string `xml:"CollectiveName"`
		} `xml:"AuthorList>Author"`
		Grants []struct {
			ID     string `xml:"GrantID"`
			Agency string `xml:"Agency"`
		} `xml:"GrantList>Grant"`
	} `xml:"MedlineCitation>Article"`
	ArticleIDs []struct {
		Type  string `xml:"IdType,attr"`
		Value string `xml:",chardata"`
	} `xml:"PubmedData>ArticleIdList>ArticleId"`
}

func (a pubmedArticle) publication() types.Publication {
	p := types.Publication{
		ID:      strings.TrimSpace(a.PMID),
		Title:   strings.TrimSpace(a.Article.Title),
		Journal: strings.TrimSpace(a.Article.Journal.Title),
		Year:    strings.TrimSpace(a.Article.Journal.PubDate.Year),
	}
	if p.Year == "" && len(a.Article.Journal.PubDate.MedlineDate) >= 4 {
		p.Year = a.Article.Journal.PubDate.MedlineDate[:4]
	}
	for _, id := range a.ArticleIDs {
		switch id.Type {
		case "doi":
			p.DOI = strings.TrimSpace(id.Value)
		case "pmc":
			p.PMCID = normalizePMCID(id.Value)
		}
	}
	for _, au := range a.Article.Authors {
		switch {
		case au.CollectiveName != "":
			p.Authors = append(p.Authors, au.CollectiveName)
		case au.ForeName != "":
			p.Authors = append(p.Authors, au.ForeName+" "+au.LastName)
		case au.LastName != "":
			p.Authors = append(p.Authors, au.LastName)
		}
	}
	for _, g := range a.Article.Grants {
		tag := strings.TrimSpace(strings.Join(strings.Fields(g.Agency+" "+g.ID), " "))
		if tag != "" {
			p.FundingTags = append(p.FundingTags, tag)
		}
	}
	return p
}

// abstractText joins structured abstract parts, keeping their labels.
func (a pubmedArticle) abstractText() string {
	var parts []string
	for _, at := range a.Article.Abstract {
		text := collapse(stripTags(at.Text))
		if text == "" {
			continue
		}
		if at.Label != "" {
			text = at.Label + ": " + text
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, "\n")
}

// jatsFront is the subset of JATS front matter used for metadata.
type jatsFront struct {
	pub      types.Publication
	abstract string
}

type jatsArticle struct {
	Journal string `xml:"front>journal-meta>journal-title-group>journal-title"`
	Meta    struct {
		IDs []struct {
			Type  string `xml:"pub-id-type,attr"`
			Value string `xml:",chardata"`
		} `xml:"article-id"`
		Title    string   `xml:"title-group>article-title"`
		Years    []string `xml:"pub-date>year"`
		Abstract struct {
			Inner string `xml:",innerxml"`
		} `xml:"abstract"`
	} `xml:"front>article-meta"`
}

func parseJATSFront(body []byte) jatsFront {
	var art jatsArticle
	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.Strict = false
	dec.Entity = xml.HTMLEntity
	// PMC wraps the article in <pmc-articleset>.
	for {
		tok, err := dec.Token()
		if err != nil {
			return jatsFront{}
		}
		if se, ok := tok.(xml.StartElement); ok && se.Name.Local == "article" {
			if err := dec.DecodeElement(&art, &se); err != nil {
				return jatsFront{}
			}
			break
		}
	}

	var f jatsFront
	f.pub.Title = collapse(stripTags(art.Meta.Title))
	f.pub.Journal = collapse(art.Journal)
	if len(art.Meta.Years) > 0 {
		f.pub.Year = strings.TrimSpace(art.Meta.Years[0])
	}
	for _, id := range art.Meta.IDs {
		v := strings.TrimSpace(id.Value)
		switch id.Type {
		case "pmid":
			f.pub.ID = v
		case "pmc", "pmcid":
			f.pub.PMCID = normalizePMCID(v)
		case "doi":
			f.pub.DOI = v
		}
	}
	f.abstract = collapse(stripTags(art.Meta.Abstract.Inner))
	return f
}

func stripTags(s string) string {
	var b strings.Builder
	in := false
	for _, r := range s {
		switch {
		case r == '<':
			in = true
			b.WriteByte(' ')
		case r == '>':
			in = false
		case !in:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
