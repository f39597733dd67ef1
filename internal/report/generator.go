// Package report orchestrates the detection pipeline and renders the
// originality report consumed by UI and report renderers.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/doc2book/originality/internal/observability"
	"github.com/doc2book/originality/internal/oracle"
	"github.com/doc2book/originality/internal/similarity"
	"github.com/doc2book/originality/internal/vectorstore"
)

// Fixed user-facing strings for degraded paths.
const (
	failureSummary     = "检测失败"
	fallbackSuggestion = "无法生成改写建议"
)

// FlaggedSection is a passage whose similarity to some source met the
// threshold.
type FlaggedSection struct {
	Text       string  `json:"text"`
	Similarity float64 `json:"similarity"`
	Source     string  `json:"source"`
	Suggestion string  `json:"suggestion,omitempty"`
}

// Report is the originality report for one document.
type Report struct {
	ID               string           `json:"id"`
	Success          bool             `json:"success"`
	Error            string           `json:"error,omitempty"`
	OverallScore     float64          `json:"overall_score"`
	OriginalityScore float64          `json:"originality_score"`
	IsOriginal       bool             `json:"is_original"`
	TotalChecked     int              `json:"total_checked"`
	FlaggedSections  []FlaggedSection `json:"flagged_sections"`
	Summary          string           `json:"summary"`
	GeneratedAt      time.Time        `json:"generated_at"`
}

// QuickResult is the lightweight verdict from QuickCheck.
type QuickResult struct {
	IsPlagiarized bool    `json:"is_plagiarized"`
	Score         float64 `json:"score"`
}

// Options configures report generation. Zero fields take the checker and
// store defaults.
type Options struct {
	Threshold   float64
	ChunkSize   int
	MaxMatches  int
	Workers     int
	Dimension   int
	Suggestions bool
}

// Generator runs the one-shot detection pipeline. It holds no state across
// calls; each report run builds and clears its own vector index.
type Generator struct {
	checker *similarity.Checker
	oracle  oracle.Oracle
	opts    Options
}

// NewGenerator creates a Generator. A nil oracle disables semantic scoring,
// remote embedding, and rewrite suggestions; everything else still runs on
// the deterministic fallbacks.
func NewGenerator(o oracle.Oracle, opts Options) *Generator {
	if opts.Threshold <= 0 {
		opts.Threshold = 0.8
	}
	return &Generator{
		checker: similarity.NewChecker(similarity.NewHybridScorer(o)),
		oracle:  o,
		opts:    opts,
	}
}

// GenerateReport checks text against sources and renders the full report.
// Collaborator failures degrade to fallbacks and never fail the run; only
// local failures produce a Success=false report. The internal vector store
// is cleared on every path.
func (g *Generator) GenerateReport(ctx context.Context, text string, sources []string) *Report {
	ctx, span := observability.Tracer().Start(ctx, "report.GenerateReport")
	defer span.End()

	store := vectorstore.New(g.oracle, g.opts.Dimension)
	defer store.Clear()

	// Source index, tagged for future nearest-neighbor prefiltering.
	for i, src := range sources {
		store.Add(ctx, src, map[string]string{"source_index": strconv.Itoa(i)})
	}

	res := g.checker.Check(ctx, text, sources, similarity.Options{
		Threshold:  g.opts.Threshold,
		ChunkSize:  g.opts.ChunkSize,
		MaxMatches: g.opts.MaxMatches,
		Workers:    g.opts.Workers,
	})

	now := time.Now()
	totalChecked := len([]rune(text))
	if !res.Success {
		slog.Warn("similarity check failed", "error", res.Error)
		return &Report{
			ID:               uuid.NewString(),
			Error:            res.Error,
			OverallScore:     0,
			OriginalityScore: 1,
			IsOriginal:       true,
			TotalChecked:     totalChecked,
			FlaggedSections:  []FlaggedSection{},
			Summary:          failureSummary,
			GeneratedAt:      now,
		}
	}

	sections := g.buildSections(ctx, res.Matches)
	span.SetAttributes(
		attribute.Float64("overall_score", res.Score),
		attribute.Int("flagged", len(sections)),
	)

	return &Report{
		ID:               uuid.NewString(),
		Success:          true,
		OverallScore:     res.Score,
		OriginalityScore: 1 - res.Score,
		IsOriginal:       res.Score < g.opts.Threshold,
		TotalChecked:     totalChecked,
		FlaggedSections:  sections,
		Summary:          summarize(res.Score, len(sections)),
		GeneratedAt:      now,
	}
}

// QuickCheck runs a single-match check with no suggestions and no vector
// store, comparing the aggregate score to the configured threshold.
func (g *Generator) QuickCheck(ctx context.Context, text string, sources []string) QuickResult {
	res := g.checker.Check(ctx, text, sources, similarity.Options{
		Threshold:  g.opts.Threshold,
		ChunkSize:  g.opts.ChunkSize,
		MaxMatches: 1,
		Workers:    g.opts.Workers,
	})
	if !res.Success {
		return QuickResult{}
	}
	return QuickResult{IsPlagiarized: res.Score >= g.opts.Threshold, Score: res.Score}
}

// buildSections converts matches into flagged sections, requesting rewrite
// suggestions concurrently when enabled. Suggestion calls are independent;
// results land by index so output order follows match order.
func (g *Generator) buildSections(ctx context.Context, matches []similarity.Match) []FlaggedSection {
	sections := make([]FlaggedSection, len(matches))
	for i, m := range matches {
		sections[i] = FlaggedSection{
			Text:       m.ChunkText,
			Similarity: m.Similarity,
			Source:     m.MatchedSource,
		}
	}
	if !g.opts.Suggestions || g.oracle == nil {
		return sections
	}

	var wg sync.WaitGroup
	for i := range sections {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			suggestion, err := g.oracle.SuggestRewrite(ctx, sections[i].Text)
			if err != nil {
				slog.Warn("rewrite suggestion failed", "error", err)
				suggestion = fallbackSuggestion
			}
			sections[i].Suggestion = suggestion
		}(i)
	}
	wg.Wait()
	return sections
}

// summarize renders the tiered natural-language summary for a score.
func summarize(score float64, flagged int) string {
	switch {
	case score < 0.2:
		return "文档原创度较高，未发现明显的抄袭内容。"
	case score < 0.5:
		return fmt.Sprintf("文档整体原创度一般，共发现 %d 处相似片段，建议对相关内容进行适当修改。", flagged)
	case score < 0.8:
		return fmt.Sprintf("文档原创度较低，发现 %d 处高度相似的片段，强烈建议改写相关内容。", flagged)
	default:
		return "文档存在严重的抄袭嫌疑，与参考来源高度重合，建议对全文进行大幅改写。"
	}
}
