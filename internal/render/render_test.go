package render

import (
	"strings"
	"testing"
	"time"

	"github.com/doc2book/originality/internal/report"
)

func TestReport_Success(t *testing.T) {
	rep := &report.Report{
		ID:               "r1",
		Success:          true,
		OverallScore:     0.85,
		OriginalityScore: 0.15,
		TotalChecked:     120,
		FlaggedSections: []report.FlaggedSection{
			{Text: "高度相似的片段内容", Similarity: 0.92, Source: "参考来源片段", Suggestion: "改写建议"},
		},
		Summary:     "文档存在严重的抄袭嫌疑。",
		GeneratedAt: time.Now(),
	}

	out := Report(rep)
	for _, want := range []string{"原创性检测报告", "85.0%", "抄袭嫌疑", "高度相似的片段内容", "改写建议"} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered report missing %q", want)
		}
	}
}

func TestReport_Failure(t *testing.T) {
	rep := &report.Report{Summary: "检测失败", Error: "context canceled"}
	out := Report(rep)
	if !strings.Contains(out, "检测失败") {
		t.Error("failure rendering should carry the failure summary")
	}
	if !strings.Contains(out, "context canceled") {
		t.Error("failure rendering should carry the error detail")
	}
}

func TestExcerpt_Truncates(t *testing.T) {
	long := strings.Repeat("很长的内容", 50)
	got := excerpt(long)
	if len([]rune(got)) != 121 {
		t.Errorf("excerpt length = %d runes, want 121", len([]rune(got)))
	}
	if !strings.HasSuffix(got, "…") {
		t.Error("truncated excerpt should end with ellipsis")
	}
}
