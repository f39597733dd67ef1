package similarity

import (
	"context"
	"strings"
	"testing"

	"github.com/doc2book/originality/internal/oracle"
)

const sampleText = "人工智能正在改变世界，推动各个行业的数字化转型持续加速发展。机器学习是其核心技术，支撑着从图像识别到自然语言处理的广泛应用。"

func TestCheck_EmptySources(t *testing.T) {
	c := NewChecker(NewHybridScorer(nil))
	res := c.Check(context.Background(), sampleText, nil, Options{})

	if !res.Success {
		t.Fatalf("expected success, got error %q", res.Error)
	}
	if res.Score != 0 {
		t.Errorf("score = %v, want 0", res.Score)
	}
	if len(res.Matches) != 0 {
		t.Errorf("matches = %d, want 0", len(res.Matches))
	}
}

func TestCheck_IdenticalSource(t *testing.T) {
	c := NewChecker(NewHybridScorer(nil))
	res := c.Check(context.Background(), sampleText, []string{sampleText}, Options{Threshold: 0.8, ChunkSize: 500})

	if !res.Success {
		t.Fatalf("expected success, got error %q", res.Error)
	}
	if res.Score < 0.8 {
		t.Errorf("score = %v, want >= threshold 0.8", res.Score)
	}
	if len(res.Matches) == 0 {
		t.Fatal("expected at least one match")
	}
	if res.Matches[0].Similarity < 0.99 {
		t.Errorf("best match similarity = %v, want ~1.0", res.Matches[0].Similarity)
	}
}

func TestCheck_ScoreIsMaximumNotAverage(t *testing.T) {
	overlap := strings.Repeat("这一段文字与参考来源完全相同，用来验证最大值聚合的行为特征。", 2)
	original := strings.Repeat("而其余的内容则完全是独立创作的原创文字，与任何来源都没有关系。", 2)
	text := overlap + original

	c := NewChecker(NewHybridScorer(nil))
	res := c.Check(context.Background(), text, []string{overlap}, Options{Threshold: 0.9, ChunkSize: len([]rune(overlap))})

	if !res.Success {
		t.Fatalf("expected success, got error %q", res.Error)
	}
	// One chunk matches perfectly, the other not at all; the document score
	// must track the worst-case chunk.
	if res.Score < 0.9 {
		t.Errorf("score = %v, want the maximum pair score >= 0.9", res.Score)
	}
}

func TestCheck_MaxMatchesCap(t *testing.T) {
	c := NewChecker(NewHybridScorer(nil))
	sources := make([]string, 5)
	for i := range sources {
		sources[i] = sampleText
	}
	res := c.Check(context.Background(), sampleText, sources, Options{Threshold: 0.5, MaxMatches: 2})

	if !res.Success {
		t.Fatalf("expected success, got error %q", res.Error)
	}
	if len(res.Matches) > 2 {
		t.Errorf("matches = %d, want <= 2", len(res.Matches))
	}
}

func TestCheck_MatchOrderDeterministic(t *testing.T) {
	stub := &oracle.Stub{Score: 0.85}
	c := NewChecker(NewHybridScorer(stub))
	sources := []string{sampleText, sampleText, sampleText}

	first := c.Check(context.Background(), sampleText, sources, Options{Threshold: 0.5, Workers: 4})
	for run := 0; run < 5; run++ {
		res := c.Check(context.Background(), sampleText, sources, Options{Threshold: 0.5, Workers: 4})
		if len(res.Matches) != len(first.Matches) {
			t.Fatalf("run %d: match count %d != %d", run, len(res.Matches), len(first.Matches))
		}
		for i := range res.Matches {
			if res.Matches[i] != first.Matches[i] {
				t.Errorf("run %d: match %d differs", run, i)
			}
		}
	}
}

func TestCheck_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewChecker(NewHybridScorer(nil))
	res := c.Check(ctx, sampleText, []string{sampleText}, Options{})

	if res.Success {
		t.Error("expected failure for canceled context")
	}
	if res.Score != 0 || len(res.Matches) != 0 {
		t.Errorf("canceled check must not return partial results: score=%v matches=%d", res.Score, len(res.Matches))
	}
	// Failure results keep the empty-slice shape so JSON stays "matches":[].
	if res.Matches == nil {
		t.Error("failure result matches must be an empty slice, not nil")
	}
}

func TestCheck_EndToEndChinese(t *testing.T) {
	text := "人工智能正在改变世界。机器学习是其核心技术。"
	sources := []string{"人工智能正在改变世界，这是不可否认的事实。"}

	c := NewChecker(NewHybridScorer(nil))
	res := c.Check(context.Background(), text, sources, Options{Threshold: 0.5, ChunkSize: 500})

	if !res.Success {
		t.Fatalf("expected success, got error %q", res.Error)
	}
	if len(res.Matches) == 0 {
		t.Fatal("expected a flagged match for the overlapping first sentence")
	}
	if res.Matches[0].Similarity < 0.5 {
		t.Errorf("similarity = %v, want >= 0.5", res.Matches[0].Similarity)
	}
}

func TestLocalize_PicksBestRegion(t *testing.T) {
	chunk := "机器学习是人工智能领域的核心技术之一，它让计算机系统能够从大量的历史数据当中自动地学习出有用的规律模式。"
	filler := "金融市场今天的波动幅度非常大，投资者的情绪普遍偏向谨慎保守，各大交易所的成交量也出现了明显的萎缩迹象。"
	source := filler + chunk + filler

	got := localize(chunk, source)
	if !strings.Contains(got, "机器学习") {
		t.Errorf("localized region %q should contain the matching sentence", got)
	}
}
