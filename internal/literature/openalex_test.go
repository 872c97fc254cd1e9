// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package literature

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/tool-miner/pkg/types"
)

const openAlexWorkJSON = `{
  "id": "https://openalex.org/W1",
  "title": "An NF1 atlas",
  "doi": "https://doi.org/10.1/nf",
  "publication_year": 2023,
  "ids": {"pmid": "https://pubmed.ncbi.nlm.nih.gov/111", "pmcid": "https://www.ncbi.nlm.nih.gov/pmc/articles/999"},
  "authorships": [{"author": {"display_name": "Ann Smith"}}, {"author": {"display_name": ""}}],
  "primary_location": {"source": {"display_name": "Neuro-Oncology"}},
  "grants": [{"funder_display_name": "CDMRP", "award_id": "W81XWH"}],
  "abstract_inverted_index": {"cells": [1], "ST88-14": [0], "were": [2], "cultured.": [3]}
}`

func fakeOpenAlex(t *testing.T) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch strings.TrimPrefix(r.URL.Path, "/works/") {
		case "pmid:111", "pmcid:PMC999":
			w.Write([]byte(openAlexWorkJSON))
		case "pmid:222":
			w.Write([]byte(`{"id": "https://openalex.org/W2", "title": "No abstract"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	old := openAlexWorksBase
	openAlexWorksBase = srv.URL + "/works"
	t.Cleanup(func() { openAlexWorksBase = old })
}

func testOpenAlex() *OpenAlexClient {
	c := NewOpenAlexClient(types.LiteratureConfig{HTTPConfig: types.HTTPConfig{MaxRetries: 1}})
	c.HTTP.Limiter = nil
	return c
}

func TestOpenAlexClient_FetchAbstract(t *testing.T) {
	fakeOpenAlex(t)
	c := testOpenAlex()
	ctx := context.Background()

	abs, ok, err := c.FetchAbstract(ctx, "111")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "ST88-14 cells were cultured.", abs.Text)
	assert.Equal(t, types.Publication{
		ID:          "111",
		PMCID:       "PMC999",
		DOI:         "10.1/nf",
		Title:       "An NF1 atlas",
		Journal:     "Neuro-Oncology",
		Year:        "2023",
		Authors:     []string{"Ann Smith"},
		FundingTags: []string{"CDMRP W81XWH"},
	}, abs.Publication)

	abs, ok, err = c.FetchAbstract(ctx, "pmc999")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "111", abs.Publication.ID)

	_, ok, err = c.FetchAbstract(ctx, "222")
	require.NoError(t, err)
	assert.False(t, ok, "work without an abstract")

	_, ok, err = c.FetchAbstract(ctx, "333")
	require.NoError(t, err)
	assert.False(t, ok, "unknown work")

	_, ok, err = c.FetchFullText(ctx, "111")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOpenAlexKey(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"12345", "pmid:12345"},
		{" PMC77 ", "pmcid:PMC77"},
		{"10.1000/xyz", "doi:10.1000/xyz"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, openAlexKey(tt.id), tt.id)
	}
}

func TestReconstructAbstract(t *testing.T) {
	assert.Equal(t, "", reconstructAbstract(nil))
	assert.Equal(t, "the mice and the cells",
		reconstructAbstract(map[string][]int{"the": {0, 3}, "mice": {1}, "and": {2}, "cells": {4}}))
}

// stubSource returns fixed answers.
type stubSource struct {
	abs  Abstract
	doc  types.Document
	ok   bool
	err  error
	hits int
}

func (s *stubSource) FetchFullText(context.Context, string) (types.Document, bool, error) {
	s.hits++
	return s.doc, s.ok, s.err
}

func (s *stubSource) FetchAbstract(context.Context, string) (Abstract, bool, error) {
	s.hits++
	return s.abs, s.ok, s.err
}

func TestChain(t *testing.T) {
	ctx := context.Background()
	down := &stubSource{err: errors.New("boom")}
	empty := &stubSource{}
	found := &stubSource{ok: true, abs: Abstract{Text: "abstract"}, doc: types.Document{Format: types.FormatJATS}}

	abs, ok, err := Chain{down, empty, found}.FetchAbstract(ctx, "1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "abstract", abs.Text)

	doc, ok, err := Chain{empty, found}.FetchFullText(ctx, "1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, types.FormatJATS, doc.Format)

	_, ok, err = Chain{down, empty}.FetchAbstract(ctx, "1")
	assert.False(t, ok)
	assert.EqualError(t, err, "boom")

	_, ok, err = Chain{empty}.FetchFullText(ctx, "1")
	require.NoError(t, err)
	assert.False(t, ok)

	before := found.hits
	_, _, _ = Chain{found, down}.FetchAbstract(ctx, "1")
	assert.Equal(t, before+1, found.hits)
	assert.Equal(t, 2, down.hits, "later sources are not asked once one answers")
}
