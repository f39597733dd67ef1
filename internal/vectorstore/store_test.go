package vectorstore

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/doc2book/originality/internal/oracle"
)

func TestAddThenSearch_SelfMatch(t *testing.T) {
	s := New(nil, 64)
	ctx := context.Background()

	id := s.Add(ctx, "人工智能正在改变世界。", map[string]string{"source_index": "0"})
	if id == "" {
		t.Fatal("expected non-empty id")
	}

	results := s.Search(ctx, "人工智能正在改变世界。", SearchOptions{})
	if len(results) == 0 {
		t.Fatal("expected the stored entry back")
	}
	if results[0].ID != id {
		t.Errorf("top result id = %q, want %q", results[0].ID, id)
	}
	if math.Abs(results[0].Similarity-1) > 1e-9 {
		t.Errorf("self similarity = %v, want ~1.0", results[0].Similarity)
	}
	if results[0].Metadata["source_index"] != "0" {
		t.Errorf("metadata lost: %v", results[0].Metadata)
	}
}

func TestAdd_NeverFails(t *testing.T) {
	s := New(&oracle.Stub{Err: errors.New("collaborator down")}, 32)
	ctx := context.Background()

	id := s.Add(ctx, "嵌入服务不可用时也必须成功。", nil)
	if id == "" {
		t.Fatal("expected id despite oracle failure")
	}
	if s.Size() != 1 {
		t.Errorf("size = %d, want 1", s.Size())
	}

	// The hash fallback is deterministic, so the same text still matches.
	results := s.Search(ctx, "嵌入服务不可用时也必须成功。", SearchOptions{Threshold: 0.99})
	if len(results) != 1 {
		t.Fatalf("expected a self match via hash fallback, got %d results", len(results))
	}
}

func TestSearch_ThresholdAndLimit(t *testing.T) {
	s := New(nil, 32)
	ctx := context.Background()

	texts := []string{
		"机器学习是人工智能的核心技术。",
		"机器学习是人工智能的关键技术。",
		"深度学习推动了图像识别的进步。",
		"今天的天气非常晴朗适合出行。",
	}
	for _, txt := range texts {
		s.Add(ctx, txt, nil)
	}

	all := s.Search(ctx, texts[0], SearchOptions{Limit: 2})
	if len(all) != 2 {
		t.Errorf("limit 2 returned %d results", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].Similarity > all[i-1].Similarity {
			t.Error("results not sorted descending")
		}
	}

	strict := s.Search(ctx, texts[0], SearchOptions{Threshold: 0.999})
	for _, r := range strict {
		if r.Similarity < 0.999 {
			t.Errorf("result %v below threshold", r.Similarity)
		}
	}
}

func TestCheckSimilarity(t *testing.T) {
	s := New(nil, 32)
	ctx := context.Background()
	s.Add(ctx, "这是一段参考来源的文本内容。", nil)

	hit := s.CheckSimilarity(ctx, "这是一段参考来源的文本内容。", 0.9)
	if !hit.IsSimilar || len(hit.Matches) == 0 {
		t.Error("expected a similar verdict for identical text")
	}

	miss := s.CheckSimilarity(ctx, "完全无关的另外一段别的文字。", 0.999)
	if miss.IsSimilar {
		t.Errorf("expected dissimilar verdict, got matches %v", miss.Matches)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	s := New(nil, 16)
	ctx := context.Background()
	s.Add(ctx, "第一条。", map[string]string{"k": "v"})
	s.Add(ctx, "第二条。", nil)

	snap := s.Export()
	if snap.Dimension != 16 || len(snap.Entries) != 2 {
		t.Fatalf("snapshot = dim %d, %d entries", snap.Dimension, len(snap.Entries))
	}

	restored := New(nil, 0)
	restored.Import(snap)
	if restored.Size() != 2 {
		t.Errorf("restored size = %d, want 2", restored.Size())
	}
	results := restored.Search(ctx, "第一条。", SearchOptions{})
	if len(results) == 0 || results[0].Text != "第一条。" {
		t.Errorf("restored store does not answer searches: %v", results)
	}
}

func TestClear(t *testing.T) {
	s := New(nil, 16)
	s.Add(context.Background(), "即将被清空的内容。", nil)
	s.Clear()
	if s.Size() != 0 {
		t.Errorf("size after clear = %d, want 0", s.Size())
	}
}

func TestNormalize(t *testing.T) {
	v := Normalize([]float64{3, 4})
	if math.Abs(v[0]-0.6) > 1e-12 || math.Abs(v[1]-0.8) > 1e-12 {
		t.Errorf("normalized = %v", v)
	}
	if got := Cosine(v, v); math.Abs(got-1) > 1e-12 {
		t.Errorf("self cosine = %v, want 1", got)
	}

	zero := []float64{0, 0, 0}
	if got := Normalize(zero); got[0] != 0 || len(got) != 3 {
		t.Errorf("zero vector should pass through, got %v", got)
	}
}

func TestCosine_MismatchedLengths(t *testing.T) {
	a := []float64{1, 0, 0, 0}
	b := []float64{1, 0}
	if got := Cosine(a, b); math.Abs(got-1) > 1e-12 {
		t.Errorf("truncated cosine = %v, want 1", got)
	}
	if got := Cosine(a, []float64{}); got != 0 {
		t.Errorf("empty operand cosine = %v, want 0", got)
	}
}

func TestHashVector_Deterministic(t *testing.T) {
	a := HashVector("同样的文本", 32)
	b := HashVector("同样的文本", 32)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("hash vectors differ at %d", i)
		}
	}
	c := HashVector("不同的文本", 32)
	same := true
	for i := range a {
		if a[i] != c[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("distinct texts produced identical hash vectors")
	}
}
