// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs the mining stages over a batch of publications:
// fetch and cache text, match candidates, classify usage, extract
// metadata, resolve against the registry, validate, filter, and finally
// deduplicate, score, and aggregate across the batch.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/tool-miner/internal/aggregate"
	"github.com/pdiddy/tool-miner/internal/cache"
	"github.com/pdiddy/tool-miner/internal/classify"
	"github.com/pdiddy/tool-miner/internal/dedup"
	"github.com/pdiddy/tool-miner/internal/filter"
	"github.com/pdiddy/tool-miner/internal/literature"
	"github.com/pdiddy/tool-miner/internal/logging"
	"github.com/pdiddy/tool-miner/internal/matcher"
	"github.com/pdiddy/tool-miner/internal/metadata"
	"github.com/pdiddy/tool-miner/internal/metrics"
	"github.com/pdiddy/tool-miner/internal/patterns"
	"github.com/pdiddy/tool-miner/internal/registry"
	"github.com/pdiddy/tool-miner/internal/resolve"
	"github.com/pdiddy/tool-miner/internal/score"
	"github.com/pdiddy/tool-miner/internal/sections"
	"github.com/pdiddy/tool-miner/internal/validation"
	"github.com/pdiddy/tool-miner/pkg/types"
)

// Publication outcomes used for status lines and metrics.
const (
	statusProcessed = "processed"
	statusCached    = "cached"
	statusDegraded  = "degraded"
	statusFailed    = "failed"
)

// Defaults applied by New.
const (
	DefaultWorkers           = 1
	DefaultValidationBatch   = 40
	DefaultValidationRetries = 3
)

// Config wires an Engine. Library, Snapshot, Source, and Cache are required.
type Config struct {
	Library  *patterns.Library
	Snapshot *registry.Snapshot
	Source   literature.Source
	Cache    cache.Cache

	// Validator is optional; nil skips AI validation.
	Validator         validation.Validator
	ValidationBatch   int
	ValidationRetries int

	// Workers bounds concurrently mined publications (default 1).
	Workers int

	// MinDevelopmentWeight overrides the classifier default when positive.
	MinDevelopmentWeight float64

	Logger  logging.Logger
	Metrics *metrics.Metrics
}

// Engine holds the read-only context shared by every publication in a run.
// It is safe to call Run from one goroutine at a time.
type Engine struct {
	lib        *patterns.Library
	matcher    *matcher.Matcher
	classifier *classify.Classifier
	extractor  *metadata.Extractor
	resolver   *resolve.Resolver
	filter     *filter.Filter
	scorer     *score.Scorer

	source    literature.Source
	cache     cache.Cache
	validator validation.Validator

	validationBatch   int
	validationRetries int
	workers           int

	logger  logging.Logger
	metrics *metrics.Metrics
}

// New builds an Engine from cfg.
func New(cfg Config) (*Engine, error) {
	switch {
	case cfg.Library == nil:
		return nil, errors.New("pipeline: pattern library is required")
	case cfg.Snapshot == nil:
		return nil, errors.New("pipeline: registry snapshot is required")
	case cfg.Source == nil:
		return nil, errors.New("pipeline: literature source is required")
	case cfg.Cache == nil:
		return nil, errors.New("pipeline: cache is required")
	}

	cls := classify.New(cfg.Library, cfg.MinDevelopmentWeight)
	ext := metadata.New(cfg.Library, cls)

	e := &Engine{
		lib:               cfg.Library,
		matcher:           matcher.New(cfg.Library, 0),
		classifier:        cls,
		extractor:         ext,
		resolver:          resolve.New(cfg.Snapshot, cfg.Library.Config().Thresholds()),
		filter:            filter.New(cfg.Library, ext),
		scorer:            score.New(cfg.Library, ext),
		source:            cfg.Source,
		cache:             cfg.Cache,
		validator:         cfg.Validator,
		validationBatch:   cfg.ValidationBatch,
		validationRetries: cfg.ValidationRetries,
		workers:           cfg.Workers,
		logger:            cfg.Logger,
		metrics:           cfg.Metrics,
	}
	if e.workers <= 0 {
		e.workers = DefaultWorkers
	}
	if e.validationBatch <= 0 {
		e.validationBatch = DefaultValidationBatch
	}
	if e.validationRetries <= 0 {
		e.validationRetries = DefaultValidationRetries
	}
	if e.logger == nil {
		e.logger = logging.NewNop()
	}
	return e, nil
}

// BatchSummary counts publication outcomes of one run. Every publication
// lands in exactly one bucket.
type BatchSummary struct {
	Processed int
	Cached    int
	Degraded  int
	Failed    int
}

// Total returns the number of publications handled.
func (s BatchSummary) Total() int {
	return s.Processed + s.Cached + s.Degraded + s.Failed
}

// HasFailures reports whether any publication failed.
func (s BatchSummary) HasFailures() bool {
	return s.Failed > 0
}

func (s *BatchSummary) add(status string) {
	switch status {
	case statusProcessed:
		s.Processed++
	case statusCached:
		s.Cached++
	case statusDegraded:
		s.Degraded++
	case statusFailed:
		s.Failed++
	}
}

// Result is the outcome of a run. Everything except RunID and Batch is a
// pure function of the inputs.
type Result struct {
	RunID string
	Batch BatchSummary

	// Candidates are the kept per-publication candidates, ordered by
	// publication input order then match order.
	Candidates []types.ToolCandidate

	// Removed is sorted by publication, category, and raw text.
	Removed []types.RemovedCandidate

	Records      []types.ReviewRecord
	Rows         []types.PublicationReviewRow
	Links        map[types.ToolCategory][]types.CategoryLink
	Summary      aggregate.Summary
	Publications map[string]types.Publication

	Validation validation.ApplySummary
}

// outcome is one publication's contribution to the batch.
type outcome struct {
	id         string
	status     string
	pub        types.Publication
	kept       []types.ToolCandidate
	removed    []types.RemovedCandidate
	validation validation.ApplySummary
	detail     string
	err        error
}

// Run mines ids and aggregates the results. Cancelling ctx stops new
// publications from starting; publications already in flight finish with
// an uncancelled context so their cache writes complete. A cancelled run
// returns the partial result together with the context error.
func (e *Engine) Run(ctx context.Context, ids []string, w io.Writer) (*Result, error) {
	ids = uniqueIDs(ids)
	res := &Result{
		RunID:        uuid.NewString(),
		Publications: make(map[string]types.Publication),
	}
	log := e.logger.With(logging.String("run_id", res.RunID))
	log.Info("run started", logging.Int("publications", len(ids)), logging.Int("workers", e.workers))

	var (
		outs    = make([]outcome, len(ids))
		mu      sync.Mutex
		g       errgroup.Group
		work    = context.WithoutCancel(ctx)
		started int
	)
	g.SetLimit(e.workers)

	for i, id := range ids {
		if ctx.Err() != nil {
			break
		}
		i, id := i, id
		g.Go(func() error {
			// Cancellation can land while Go waits for a free worker.
			if ctx.Err() != nil {
				return nil
			}
			mu.Lock()
			started++
			mu.Unlock()

			begin := time.Now()
			out := e.process(work, log.With(logging.String("publication", id)), id)
			e.metrics.Observe(time.Since(begin).Seconds())
			e.metrics.Publication(out.status)

			mu.Lock()
			outs[i] = out
			printStatus(w, out)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	for _, out := range outs {
		if out.status == "" {
			continue
		}
		res.Batch.add(out.status)
		if out.pub.ID != "" {
			res.Publications[out.pub.ID] = out.pub
		}
		res.Candidates = append(res.Candidates, out.kept...)
		res.Removed = append(res.Removed, out.removed...)
		res.Validation = addApply(res.Validation, out.validation)
	}
	sortRemoved(res.Removed)

	res.Records = dedup.Merge(res.Candidates, res.Publications)
	e.scorer.ScoreAll(res.Records)
	res.Rows = aggregate.ByPublication(res.Records, res.Publications)
	res.Links = aggregate.Links(res.Records)
	res.Summary = aggregate.Summarize(res.Records)

	fmt.Fprintf(w, "\nBatch summary: %d processed, %d cached, %d degraded, %d failed (total: %d)\n",
		res.Batch.Processed, res.Batch.Cached, res.Batch.Degraded, res.Batch.Failed, res.Batch.Total())
	log.Info("run finished",
		logging.Int("records", res.Summary.Records),
		logging.Int("novel", res.Summary.Novel),
		logging.Int("removed", len(res.Removed)),
		logging.Int("failed", res.Batch.Failed))

	if err := ctx.Err(); err != nil {
		return res, fmt.Errorf("run stopped after %d of %d publications: %w", started, len(ids), err)
	}
	return res, nil
}

// process handles one publication end to end.
func (e *Engine) process(ctx context.Context, log logging.Logger, id string) outcome {
	out := outcome{id: id, pub: types.Publication{ID: id}}

	entry, hit, err := e.cache.Get(ctx, id)
	if err != nil {
		out.status, out.err = statusFailed, fmt.Errorf("reading cache: %w", err)
		log.Error("cache read failed", logging.Err(err))
		return out
	}
	if hit {
		e.metrics.Cache("hit")
		out.status = statusCached
	} else {
		e.metrics.Cache("miss")
		var full *types.CacheEntry
		entry, full, err = e.fetch(ctx, log, id)
		if err != nil {
			out.status, out.err = statusFailed, err
			return out
		}
		if full == nil && len(entry.Sections) == 0 {
			out.status, out.detail = statusDegraded, "no text available"
			log.Warn("no text available")
			return out
		}
		if full != nil && len(entry.Sections) == 0 {
			// Nothing in the minimal sections to decide on; keep it all.
			entry = *full
		}
		if err := e.cache.Put(ctx, entry); err != nil {
			out.status, out.err = statusFailed, fmt.Errorf("writing cache: %w", err)
			log.Error("cache write failed", logging.Err(err))
			return out
		}
		out.status = statusProcessed
		if entry.Completeness == types.CompletenessAbstractOnly {
			out.status, out.detail = statusDegraded, "abstract only"
		}
		out.pub = entry.Publication
		e.mineEntry(ctx, log, entry, &out)
		if len(out.kept) > 0 && cache.NeedsUpgrade(entry) && full != nil {
			e.upgrade(ctx, log, *full, &out)
		}
		return out
	}

	out.pub = entry.Publication
	if out.pub.ID == "" {
		out.pub.ID = id
	}
	e.mineEntry(ctx, log, entry, &out)
	if len(out.kept) > 0 && cache.NeedsUpgrade(entry) {
		full, err := e.fetchFull(ctx, log, id)
		if err != nil {
			log.Warn("full text upgrade failed", logging.Err(err))
		} else if full != nil {
			e.upgrade(ctx, log, *full, &out)
		}
	}
	return out
}

// fetch retrieves text for id and returns the entry to cache, reduced to
// the minimal sections, plus the full entry when full text was found.
// Retrieval failures degrade to an empty entry instead of an error.
func (e *Engine) fetch(ctx context.Context, log logging.Logger, id string) (types.CacheEntry, *types.CacheEntry, error) {
	full, err := e.fetchFull(ctx, log, id)
	if err != nil {
		log.Warn("full text unavailable", logging.Err(err))
	}
	if full != nil {
		return cache.Minimal(*full), full, nil
	}

	abs, ok, err := e.source.FetchAbstract(ctx, id)
	if err != nil {
		log.Warn("abstract unavailable", logging.Err(err))
		return types.CacheEntry{}, nil, nil
	}
	if !ok {
		return types.CacheEntry{}, nil, nil
	}
	pub := abs.Publication
	if pub.ID == "" {
		pub.ID = id
	}
	secs := sections.FromAbstract(pub.ID, abs.Text)
	if len(secs) == 0 {
		return types.CacheEntry{}, nil, nil
	}
	return newEntry(pub, types.CompletenessAbstractOnly, "abstract", secs), nil, nil
}

// fetchFull returns the full-text entry for id, or nil when the source has
// no usable full text.
func (e *Engine) fetchFull(ctx context.Context, log logging.Logger, id string) (*types.CacheEntry, error) {
	doc, ok, err := e.source.FetchFullText(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	if doc.Publication.ID == "" {
		doc.Publication.ID = id
	}
	secs := sections.Extract(doc)
	if len(secs) == 0 {
		log.Debug("full text has no recognised sections", logging.String("format", string(doc.Format)))
		return nil, nil
	}
	entry := newEntry(doc.Publication, types.CompletenessFull, string(doc.Format), secs)
	return &entry, nil
}

func newEntry(pub types.Publication, c types.Completeness, source string, secs []types.Section) types.CacheEntry {
	entry := types.CacheEntry{
		Publication:  pub,
		Completeness: c,
		Source:       source,
		FetchedAt:    time.Now().UTC(),
		Sections:     make(map[types.SectionKind]string, len(secs)),
	}
	for _, s := range secs {
		entry.Sections[s.Kind] = s.Text
	}
	return entry
}

// upgrade caches the full entry and re-mines every section, replacing the
// results mined from the minimal sections.
func (e *Engine) upgrade(ctx context.Context, log logging.Logger, full types.CacheEntry, out *outcome) {
	if err := e.cache.Put(ctx, full); err != nil {
		log.Warn("caching full text failed", logging.Err(err))
		return
	}
	e.metrics.Cache("upgrade")
	log.Debug("upgraded to full text", logging.Int("sections", len(full.Sections)))
	out.kept, out.removed, out.validation = nil, nil, validation.ApplySummary{}
	e.mineEntry(ctx, log, full, out)
}

// mineEntry runs the per-publication stages over the entry's sections.
func (e *Engine) mineEntry(ctx context.Context, log logging.Logger, entry types.CacheEntry, out *outcome) {
	secs := entry.SectionList()
	cands := e.matcher.Match(out.pub.ID, secs)
	countByCategory(e.metrics, cands, metrics.StageMatched)

	texts := make(map[types.SectionKind]string, len(secs))
	for _, s := range secs {
		texts[s.Kind] = s.Text
	}
	for i := range cands {
		c := &cands[i]
		snippets := matcher.Snippets(c, texts, e.matcher.Window())
		c.UsageType = e.classifier.Classify(c, snippets).Usage
		e.extractor.Extract(c, snippets)
	}

	e.resolver.ResolveAll(cands)

	if e.validator != nil && len(cands) > 0 {
		req := validation.Request{Publication: out.pub, Sections: secs, Candidates: cands}
		verdicts, err := validation.Batched(ctx, e.validator, req, e.validationBatch, e.validationRetries)
		if err != nil {
			log.Warn("validation incomplete", logging.Err(err), logging.Int("verdicts", len(verdicts)))
		}
		out.validation = validation.Apply(cands, verdicts)
		e.metrics.Candidate("all", metrics.StageValidated, out.validation.Validated)
	}

	out.kept, out.removed = e.filter.Apply(cands)
	countRemoved(e.metrics, out.removed)
	countByCategory(e.metrics, out.kept, metrics.StageKept)
	log.Debug("mined",
		logging.Int("matched", len(cands)),
		logging.Int("kept", len(out.kept)),
		logging.Int("removed", len(out.removed)))
}

func printStatus(w io.Writer, out outcome) {
	switch out.status {
	case statusFailed:
		fmt.Fprintf(w, "failed   %s: %v\n", out.id, out.err)
	case statusDegraded:
		fmt.Fprintf(w, "degraded %s (%s, %d candidates)\n", out.id, out.detail, len(out.kept))
	case statusCached:
		fmt.Fprintf(w, "cached   %s (%d candidates, %d removed)\n", out.id, len(out.kept), len(out.removed))
	default:
		fmt.Fprintf(w, "mined    %s (%d candidates, %d removed)\n", out.id, len(out.kept), len(out.removed))
	}
}

func countByCategory(m *metrics.Metrics, cands []types.ToolCandidate, stage string) {
	n := make(map[types.ToolCategory]int)
	for _, c := range cands {
		n[c.Category]++
	}
	for cat, k := range n {
		m.Candidate(string(cat), stage, k)
	}
}

func countRemoved(m *metrics.Metrics, removed []types.RemovedCandidate) {
	n := make(map[types.ToolCategory]int)
	for _, r := range removed {
		n[r.Category]++
	}
	for cat, k := range n {
		m.Candidate(string(cat), metrics.StageFiltered, k)
	}
}

func addApply(a, b validation.ApplySummary) validation.ApplySummary {
	a.Validated += b.Validated
	a.Remove += b.Remove
	a.ManualReview += b.ManualReview
	a.FieldsCorrected += b.FieldsCorrected
	a.Unmatched += b.Unmatched
	return a
}

func sortRemoved(rs []types.RemovedCandidate) {
	sort.SliceStable(rs, func(i, j int) bool {
		a, b := rs[i], rs[j]
		if a.PublicationID != b.PublicationID {
			return a.PublicationID < b.PublicationID
		}
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		return a.RawText < b.RawText
	})
}

// uniqueIDs trims ids and drops blanks and repeats, keeping first-seen order.
func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
