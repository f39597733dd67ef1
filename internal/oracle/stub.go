package oracle

import (
	"context"
	"sync/atomic"
)

// Stub is a deterministic in-process Oracle for tests and offline runs.
// Zero value: every call fails with Err (nil Err means canned successes).
type Stub struct {
	Score      float64
	Vector     []float64
	Suggestion string
	// Err, when set, is returned by every call.
	Err error

	// Call counters, useful for asserting cost-control short circuits.
	// Atomic: the checker scores from multiple workers against one stub.
	ScoreCalls   atomic.Int64
	EmbedCalls   atomic.Int64
	RewriteCalls atomic.Int64
}

func (s *Stub) ScoreSimilarity(ctx context.Context, a, b string) (float64, error) {
	s.ScoreCalls.Add(1)
	if s.Err != nil {
		return 0, s.Err
	}
	return s.Score, nil
}

func (s *Stub) Embed(ctx context.Context, text string, dim int) ([]float64, error) {
	s.EmbedCalls.Add(1)
	if s.Err != nil {
		return nil, s.Err
	}
	if s.Vector != nil {
		return s.Vector, nil
	}
	// Canned unit-ish vector so distinct texts are distinguishable by length.
	vec := make([]float64, dim)
	for i, r := range []rune(text) {
		vec[i%dim] += float64(r%97) / 97
	}
	return vec, nil
}

func (s *Stub) SuggestRewrite(ctx context.Context, text string) (string, error) {
	s.RewriteCalls.Add(1)
	if s.Err != nil {
		return "", s.Err
	}
	if s.Suggestion != "" {
		return s.Suggestion, nil
	}
	return "改写：" + text, nil
}

var _ Oracle = (*Stub)(nil)
