// Package vectorstore provides the ephemeral in-memory embedding index used
// during a report run, plus the Index interface persistent backends
// implement. Entries live until Clear or process end; callers clear the
// store between unrelated runs so documents never leak across reports.
package vectorstore

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/doc2book/originality/internal/oracle"
)

// DefaultDimension is the embedding dimension requested from the oracle and
// produced by the hash fallback.
const DefaultDimension = 1536

// Entry is a stored text with its unit-normalized vector.
type Entry struct {
	ID       string            `json:"id"`
	Text     string            `json:"text"`
	Vector   []float64         `json:"vector"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// SearchResult is a single match from a similarity search.
type SearchResult struct {
	ID         string            `json:"id"`
	Text       string            `json:"text"`
	Similarity float64           `json:"similarity"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// SearchOptions configures a search. Zero Limit means 10; Threshold filters
// results below it.
type SearchOptions struct {
	Limit     int
	Threshold float64
}

// SimilarityCheck is the result of the convenience similarity probe.
type SimilarityCheck struct {
	IsSimilar bool           `json:"is_similar"`
	Matches   []SearchResult `json:"matches"`
}

// Snapshot is a full copy of store contents for export/import round-trips.
type Snapshot struct {
	Dimension int     `json:"dimension"`
	Entries   []Entry `json:"entries"`
}

// Index is a nearest-neighbor index over entries. The in-memory Store covers
// the per-report lifetime; persistent backends (Qdrant) keep reference
// corpora across runs.
type Index interface {
	Upsert(ctx context.Context, entries []Entry) error
	Search(ctx context.Context, vector []float64, topK int) ([]SearchResult, error)
	Close() error
}

// Store is the in-memory brute-force cosine index.
type Store struct {
	oracle oracle.Oracle
	dim    int

	mu      sync.RWMutex
	entries []Entry
}

// New creates a Store. A nil oracle makes every embedding use the
// deterministic hash fallback. dim <= 0 takes DefaultDimension.
func New(o oracle.Oracle, dim int) *Store {
	if dim <= 0 {
		dim = DefaultDimension
	}
	return &Store{oracle: o, dim: dim}
}

// Add embeds text and stores it under a fresh id. It never fails: oracle
// errors and malformed output degrade to the hash vector. The embedding is
// computed outside the lock; only the insert is serialized.
func (s *Store) Add(ctx context.Context, text string, metadata map[string]string) string {
	vec := Embed(ctx, s.oracle, text, s.dim)

	entry := Entry{
		ID:       uuid.NewString(),
		Text:     text,
		Vector:   vec,
		Metadata: metadata,
	}
	s.mu.Lock()
	s.entries = append(s.entries, entry)
	s.mu.Unlock()
	return entry.ID
}

// Search embeds the query the same way Add does and scans every entry.
// Mismatched vector lengths are tolerated by truncating to the shorter.
// Results at or above the threshold come back sorted by similarity
// descending, ties in insertion order, truncated to the limit.
func (s *Store) Search(ctx context.Context, query string, opts SearchOptions) []SearchResult {
	if opts.Limit <= 0 {
		opts.Limit = 10
	}
	vec := Embed(ctx, s.oracle, query, s.dim)

	s.mu.RLock()
	var results []SearchResult
	for _, e := range s.entries {
		sim := Cosine(vec, e.Vector)
		if sim < opts.Threshold {
			continue
		}
		results = append(results, SearchResult{
			ID:         e.ID,
			Text:       e.Text,
			Similarity: sim,
			Metadata:   e.Metadata,
		})
	}
	s.mu.RUnlock()

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if len(results) > opts.Limit {
		results = results[:opts.Limit]
	}
	return results
}

// CheckSimilarity reports whether any stored entry reaches the threshold.
func (s *Store) CheckSimilarity(ctx context.Context, text string, threshold float64) SimilarityCheck {
	matches := s.Search(ctx, text, SearchOptions{Threshold: threshold})
	return SimilarityCheck{IsSimilar: len(matches) > 0, Matches: matches}
}

// Export returns a deep copy of the store contents.
func (s *Store) Export() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := make([]Entry, len(s.entries))
	for i, e := range s.entries {
		entries[i] = e
		entries[i].Vector = append([]float64(nil), e.Vector...)
	}
	return Snapshot{Dimension: s.dim, Entries: entries}
}

// Import replaces the store contents with the snapshot.
func (s *Store) Import(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if snap.Dimension > 0 {
		s.dim = snap.Dimension
	}
	s.entries = append([]Entry(nil), snap.Entries...)
}

// Clear empties the store. Callers invoke this between unrelated runs.
func (s *Store) Clear() {
	s.mu.Lock()
	s.entries = nil
	s.mu.Unlock()
}

// Size returns the number of stored entries.
func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Embed returns a unit-normalized embedding for text. It never fails: a nil
// oracle, a call error, or malformed output all fall back to the
// deterministic hash vector.
func Embed(ctx context.Context, o oracle.Oracle, text string, dim int) []float64 {
	if dim <= 0 {
		dim = DefaultDimension
	}
	if o != nil {
		if vec, err := o.Embed(ctx, text, dim); err == nil && len(vec) > 0 {
			return Normalize(vec)
		} else if err != nil {
			slog.Debug("embedding failed, using hash fallback", "error", err)
		}
	}
	return Normalize(HashVector(text, dim))
}

// HashVector builds a deterministic pseudo-embedding by accumulating rune
// codes positionally modulo the dimension.
func HashVector(text string, dim int) []float64 {
	vec := make([]float64, dim)
	for i, r := range []rune(text) {
		vec[i%dim] += float64(r)
	}
	return vec
}

// Normalize L2-normalizes v in a fresh slice. Zero-magnitude vectors come
// back unchanged to avoid dividing by zero.
func Normalize(v []float64) []float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return v
	}
	norm := math.Sqrt(sum)
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}

// Cosine computes the cosine similarity of a and b, truncating to the
// shorter length when the dimensions disagree.
func Cosine(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
