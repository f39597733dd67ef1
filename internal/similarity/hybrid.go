package similarity

import (
	"context"
	"log/slog"
	"math"

	"github.com/doc2book/originality/internal/oracle"
)

// lexicalFloor is the lexical similarity below which the semantic oracle is
// never consulted. Clearly dissimilar text is not worth a remote call.
const lexicalFloor = 0.3

// HybridScorer combines the lexical metric with the semantic oracle. It
// never returns an error and its result is always a finite value in [0,1]:
// oracle failures degrade to the lexical score.
type HybridScorer struct {
	oracle oracle.Oracle
}

// NewHybridScorer creates a scorer. A nil oracle yields lexical-only scoring.
func NewHybridScorer(o oracle.Oracle) *HybridScorer {
	return &HybridScorer{oracle: o}
}

// Score returns the similarity of a and b in [0,1].
func (h *HybridScorer) Score(ctx context.Context, a, b string) float64 {
	lexical := JaroWinkler(a, b)
	if lexical < lexicalFloor || h.oracle == nil {
		return lexical
	}

	semantic, err := h.oracle.ScoreSimilarity(ctx, a, b)
	if err != nil {
		slog.Debug("semantic scoring failed, using lexical score", "error", err)
		return lexical
	}
	if math.IsNaN(semantic) || math.IsInf(semantic, 0) || semantic < 0 || semantic > 1 {
		return lexical
	}
	return semantic
}
