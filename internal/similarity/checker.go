package similarity

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/doc2book/originality/internal/chunker"
	"github.com/doc2book/originality/internal/observability"
)

// Match records a candidate chunk and the best-matching source region.
// Immutable once created.
type Match struct {
	ChunkText     string  `json:"chunk_text"`
	MatchedSource string  `json:"matched_source"`
	Similarity    float64 `json:"similarity"`
}

// Result is the outcome of a similarity check. Score is the maximum
// similarity observed across all chunk×source pairs, not an average: a
// single strongly overlapping sentence dominates the document-level score.
type Result struct {
	Success bool          `json:"success"`
	Error   string        `json:"error,omitempty"`
	Score   float64       `json:"score"`
	Matches []Match       `json:"matches"`
	Elapsed time.Duration `json:"elapsed"`
}

// Options configures a check. Zero fields take the documented defaults.
type Options struct {
	Threshold  float64 // flagging threshold, default 0.8
	ChunkSize  int     // target chunk size in runes, default 500
	MaxMatches int     // match list cap, default 10
	Workers    int     // scoring concurrency, default NumCPU
}

func (o Options) withDefaults() Options {
	if o.Threshold <= 0 {
		o.Threshold = 0.8
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = chunker.DefaultTargetSize
	}
	if o.MaxMatches <= 0 {
		o.MaxMatches = 10
	}
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU()
	}
	return o
}

// Checker cross-products candidate chunks against source documents.
type Checker struct {
	scorer *HybridScorer
}

// NewChecker creates a checker using the given scorer.
func NewChecker(scorer *HybridScorer) *Checker {
	return &Checker{scorer: scorer}
}

// Check chunks text, scores every (chunk, source) pair against the whole
// source, and flags pairs at or above the threshold with a localized source
// region. The returned match order is deterministic regardless of scoring
// concurrency: similarity descending, ties broken by discovery order
// (chunk-major, source-minor). A local failure or cancellation aborts with
// Success=false and no partial results.
func (c *Checker) Check(ctx context.Context, text string, sources []string, opts Options) (result Result) {
	start := time.Now()
	opts = opts.withDefaults()

	ctx, span := observability.Tracer().Start(ctx, "similarity.Check")
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			result = Result{Error: fmt.Sprintf("similarity check: %v", r), Matches: []Match{}}
		}
		result.Elapsed = time.Since(start)
	}()

	chunks := chunker.Split(text, opts.ChunkSize)
	span.SetAttributes(
		attribute.Int("chunks", len(chunks)),
		attribute.Int("sources", len(sources)),
	)
	if len(chunks) == 0 || len(sources) == 0 {
		return Result{Success: true, Matches: []Match{}}
	}

	scores := c.scorePairs(ctx, chunks, sources, opts.Workers)
	if err := ctx.Err(); err != nil {
		return Result{Error: err.Error(), Matches: []Match{}}
	}

	maxScore := 0.0
	var matches []Match
	for ci, chunk := range chunks {
		for si, source := range sources {
			score := scores[ci*len(sources)+si]
			if score > maxScore {
				maxScore = score
			}
			if score >= opts.Threshold {
				matches = append(matches, Match{
					ChunkText:     chunk,
					MatchedSource: localize(chunk, source),
					Similarity:    score,
				})
			}
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	if len(matches) > opts.MaxMatches {
		matches = matches[:opts.MaxMatches]
	}
	if matches == nil {
		matches = []Match{}
	}

	span.SetAttributes(attribute.Float64("score", maxScore))
	return Result{Success: true, Score: maxScore, Matches: matches}
}

// scorePairs runs the chunk×source cross product on a bounded worker pool.
// Every pair is independent; results land in an index-addressed slice so
// completion order cannot influence the outcome.
func (c *Checker) scorePairs(ctx context.Context, chunks, sources []string, workers int) []float64 {
	total := len(chunks) * len(sources)
	scores := make([]float64, total)
	if workers > total {
		workers = total
	}

	var wg sync.WaitGroup
	per := (total + workers - 1) / workers
	for w := 0; w < workers; w++ {
		lo := w * per
		if lo >= total {
			break
		}
		hi := lo + per
		if hi > total {
			hi = total
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for p := lo; p < hi; p++ {
				if ctx.Err() != nil {
					return
				}
				chunk := chunks[p/len(sources)]
				source := sources[p%len(sources)]
				scores[p] = c.scorer.Score(ctx, chunk, source)
			}
		}(lo, hi)
	}
	wg.Wait()
	return scores
}

// localize re-chunks the source into pieces sized to the candidate chunk and
// returns the piece with the highest lexical similarity. Only the lexical
// metric runs here, keeping localization free of remote calls.
func localize(chunk, source string) string {
	pieces := chunker.Split(source, len([]rune(chunk)))
	if len(pieces) == 0 {
		return source
	}
	best := pieces[0]
	bestScore := JaroWinkler(chunk, best)
	for _, p := range pieces[1:] {
		if s := JaroWinkler(chunk, p); s > bestScore {
			best, bestScore = p, s
		}
	}
	return best
}
