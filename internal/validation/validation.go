// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package validation asks a generative AI service to judge mined tool
// candidates and merges its answers back into them. Validation is optional;
// the pipeline runs without a Validator.
package validation

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/pdiddy/tool-miner/pkg/types"
)

// Request carries one publication's sections and its candidates.
type Request struct {
	Publication types.Publication
	Sections    []types.Section
	Candidates  []types.ToolCandidate
}

// Verdict is the service's answer for one candidate.
type Verdict struct {
	CandidateID    string               `json:"candidate_id"`
	Verdict        types.Verdict        `json:"verdict"`
	Confidence     float64              `json:"confidence"`
	Recommendation types.Recommendation `json:"recommendation"`
	Reasoning      string               `json:"reasoning,omitempty"`

	// Metadata holds corrected or added fields keyed by metadata field name.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Validator abstracts the AI service so tests can supply a mock.
type Validator interface {
	Validate(ctx context.Context, req Request) ([]Verdict, error)
}

var validVerdicts = map[types.Verdict]bool{
	types.VerdictAccept:    true,
	types.VerdictReject:    true,
	types.VerdictUncertain: true,
}

var validRecommendations = map[types.Recommendation]bool{
	types.RecommendKeep:         true,
	types.RecommendRemove:       true,
	types.RecommendManualReview: true,
}

// Check reports why v is malformed, or nil.
func (v Verdict) Check() error {
	switch {
	case v.CandidateID == "":
		return fmt.Errorf("missing candidate_id")
	case !validVerdicts[v.Verdict]:
		return fmt.Errorf("candidate %s: invalid verdict %q", v.CandidateID, v.Verdict)
	case !validRecommendations[v.Recommendation]:
		return fmt.Errorf("candidate %s: invalid recommendation %q", v.CandidateID, v.Recommendation)
	case v.Confidence < 0 || v.Confidence > 1:
		return fmt.Errorf("candidate %s: confidence %.2f out of range", v.CandidateID, v.Confidence)
	}
	return nil
}

// ApplySummary counts what Apply changed.
type ApplySummary struct {
	Validated       int
	Remove          int
	ManualReview    int
	FieldsCorrected int
	Unmatched       int
}

// Apply attaches verdicts to the candidates they name and writes corrected
// metadata over extracted values. Removal is left to the quality filter,
// which drops candidates whose recommendation is Remove. Verdicts naming
// unknown candidates are counted and ignored.
func Apply(cands []types.ToolCandidate, verdicts []Verdict) ApplySummary {
	byID := make(map[string][]int, len(cands))
	for i := range cands {
		byID[cands[i].ID] = append(byID[cands[i].ID], i)
	}

	var s ApplySummary
	for _, v := range verdicts {
		idx, ok := byID[v.CandidateID]
		if !ok {
			s.Unmatched++
			continue
		}
		for _, i := range idx {
			c := &cands[i]
			c.Validation = &types.Validation{
				Verdict:        v.Verdict,
				Recommendation: v.Recommendation,
				Confidence:     v.Confidence,
				Reasoning:      v.Reasoning,
			}
			for field, value := range v.Metadata {
				if c.Metadata.Override(field, value, types.SourceValidation) {
					s.FieldsCorrected++
				}
			}
			s.Validated++
			switch v.Recommendation {
			case types.RecommendRemove:
				s.Remove++
			case types.RecommendManualReview:
				s.ManualReview++
			}
		}
	}
	return s
}

// backoffBase controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var backoffBase = time.Second

// callWithRetry calls the validator with exponential backoff.
func callWithRetry(ctx context.Context, v Validator, req Request, maxRetries int) ([]Verdict, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		verdicts, err := v.Validate(ctx, req)
		if err == nil {
			return verdicts, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}

// Batched splits req into requests of at most size candidates and
// validates each with retries. A size of zero sends everything at once.
func Batched(ctx context.Context, v Validator, req Request, size, maxRetries int) ([]Verdict, error) {
	if size <= 0 {
		size = len(req.Candidates)
	}
	var out []Verdict
	for start := 0; start < len(req.Candidates); start += size {
		end := min(start+size, len(req.Candidates))
		part := req
		part.Candidates = req.Candidates[start:end]
		verdicts, err := callWithRetry(ctx, v, part, maxRetries)
		if err != nil {
			return out, fmt.Errorf("validating candidates %d-%d: %w", start, end-1, err)
		}
		out = append(out, verdicts...)
	}
	return out, nil
}
