// Package oracle is the capability boundary to the remote model collaborator.
// It exposes exactly the three call shapes the detection core needs: semantic
// similarity scoring, embedding, and rewrite suggestion. Failures are
// returned to callers, which recover with deterministic fallbacks; no retry
// policy lives on this side of the boundary.
package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/doc2book/originality/internal/llm"
	"github.com/doc2book/originality/internal/observability"
)

// Oracle estimates meaning-level similarity, embeds text, and rewrites
// flagged passages.
type Oracle interface {
	// ScoreSimilarity returns a semantic similarity in [0,1] for two texts.
	ScoreSimilarity(ctx context.Context, a, b string) (float64, error)
	// Embed returns a vector of roughly dim floats in [-1,1] for text.
	Embed(ctx context.Context, text string, dim int) ([]float64, error)
	// SuggestRewrite proposes an original rewording of text.
	SuggestRewrite(ctx context.Context, text string) (string, error)
}

// maxScoreInput caps each text sent for similarity scoring, in runes.
const maxScoreInput = 1000

// LLMOracle implements Oracle on top of an llm.Provider.
type LLMOracle struct {
	provider llm.Provider
}

// NewLLMOracle wraps a provider. The provider must be non-nil; callers that
// run without one should pass a nil Oracle to the consuming components
// instead.
func NewLLMOracle(provider llm.Provider) (*LLMOracle, error) {
	if provider == nil {
		return nil, errors.New("oracle: nil provider")
	}
	return &LLMOracle{provider: provider}, nil
}

func (o *LLMOracle) ScoreSimilarity(ctx context.Context, a, b string) (float64, error) {
	ctx, span := observability.StartOracleSpan(ctx, "score_similarity", o.provider.Name())
	defer span.End()

	prompt := llm.UserPrompt(
		"你是文本相似度评估工具。只输出一个 0 到 1 之间的小数，不要输出任何其他内容。",
		fmt.Sprintf("评估以下两段文本的语义相似度：\n\n文本一：\n%s\n\n文本二：\n%s", truncate(a, maxScoreInput), truncate(b, maxScoreInput)),
	)
	start := time.Now()
	resp, err := o.provider.Complete(ctx, prompt, &llm.RequestOptions{
		Temperature: llm.Temp(0),
		MaxTokens:   llm.Tokens(16),
	})
	if err != nil {
		return 0, fmt.Errorf("similarity completion: %w", err)
	}
	observability.RecordTokens(span, resp.InputTokens, resp.OutputTokens, time.Since(start))
	return parseScore(resp.Content)
}

func (o *LLMOracle) Embed(ctx context.Context, text string, dim int) ([]float64, error) {
	ctx, span := observability.StartOracleSpan(ctx, "embed", o.provider.Name())
	defer span.End()

	vectors, err := o.provider.Embed(ctx, []string{text})
	if err == nil && len(vectors) == 1 && len(vectors[0]) > 0 {
		return vectors[0], nil
	}

	// Providers without an embeddings endpoint are prompted for a JSON array.
	prompt := llm.UserPrompt(
		"你是文本向量化工具。只输出一个 JSON 数组，不要输出任何其他内容。",
		fmt.Sprintf("为以下文本生成一个 %d 维的语义向量，每个分量是 -1 到 1 之间的小数：\n\n%s", dim, truncate(text, maxScoreInput)),
	)
	resp, err := o.provider.Complete(ctx, prompt, &llm.RequestOptions{
		Temperature: llm.Temp(0),
	})
	if err != nil {
		return nil, fmt.Errorf("embedding completion: %w", err)
	}
	return parseVector(resp.Content)
}

func (o *LLMOracle) SuggestRewrite(ctx context.Context, text string) (string, error) {
	ctx, span := observability.StartOracleSpan(ctx, "suggest_rewrite", o.provider.Name())
	defer span.End()

	prompt := llm.UserPrompt(
		"你是文本改写助手。将用户提供的文本改写为原创表达，保持原意，直接输出改写结果。",
		text,
	)
	resp, err := o.provider.Complete(ctx, prompt, &llm.RequestOptions{
		Temperature: llm.Temp(0.7),
	})
	if err != nil {
		return "", fmt.Errorf("rewrite completion: %w", err)
	}
	suggestion := strings.TrimSpace(stripFences(resp.Content))
	if suggestion == "" {
		return "", errors.New("rewrite: empty suggestion")
	}
	return suggestion, nil
}

// parseScore extracts a similarity value from model output and validates its
// range.
func parseScore(content string) (float64, error) {
	s := strings.TrimSpace(stripFences(content))
	score, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse score %q: %w", s, err)
	}
	if score < 0 || score > 1 {
		return 0, fmt.Errorf("score %v outside [0,1]", score)
	}
	return score, nil
}

// parseVector extracts the first JSON array of floats from model output.
func parseVector(content string) ([]float64, error) {
	s := stripFences(content)
	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start < 0 || end <= start {
		return nil, errors.New("no JSON array in embedding output")
	}
	var vec []float64
	if err := json.Unmarshal([]byte(s[start:end+1]), &vec); err != nil {
		return nil, fmt.Errorf("parse embedding: %w", err)
	}
	if len(vec) == 0 {
		return nil, errors.New("empty embedding array")
	}
	return vec, nil
}

// stripFences removes <think> blocks and the outermost markdown code fence
// pair, which some models wrap around bare values.
func stripFences(s string) string {
	for {
		open := strings.Index(s, "<think>")
		if open < 0 {
			break
		}
		stop := strings.Index(s[open:], "</think>")
		if stop < 0 {
			s = s[:open]
			break
		}
		s = s[:open] + s[open+stop+len("</think>"):]
	}

	lines := strings.Split(s, "\n")
	start, end := 0, len(lines)
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			start = i + 1
			break
		}
	}
	for i := len(lines) - 1; i >= start; i-- {
		if strings.HasPrefix(strings.TrimSpace(lines[i]), "```") {
			end = i
			break
		}
	}
	if start == 0 && end == len(lines) {
		return s
	}
	return strings.Join(lines[start:end], "\n")
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
