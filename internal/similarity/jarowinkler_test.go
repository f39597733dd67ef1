package similarity

import (
	"math"
	"testing"
)

func TestJaroWinkler_Identity(t *testing.T) {
	for _, s := range []string{"a", "martha", "人工智能正在改变世界", "The quick brown fox"} {
		if got := JaroWinkler(s, s); got != 1 {
			t.Errorf("JaroWinkler(%q, %q) = %v, want 1", s, s, got)
		}
	}
}

func TestJaroWinkler_Empty(t *testing.T) {
	cases := [][2]string{{"", "x"}, {"x", ""}, {"", ""}}
	for _, c := range cases {
		if got := JaroWinkler(c[0], c[1]); got != 0 {
			t.Errorf("JaroWinkler(%q, %q) = %v, want 0", c[0], c[1], got)
		}
	}
}

func TestJaroWinkler_Disjoint(t *testing.T) {
	if got := JaroWinkler("abc", "xyz"); got != 0 {
		t.Errorf("disjoint strings = %v, want 0", got)
	}
	if got := JaroWinkler("机器学习", "奶茶"); got != 0 {
		t.Errorf("disjoint CJK strings = %v, want 0", got)
	}
}

func TestJaroWinkler_KnownValues(t *testing.T) {
	// Classic reference pairs for the metric.
	cases := []struct {
		a, b string
		want float64
	}{
		{"MARTHA", "MARHTA", 0.9611},
		{"DWAYNE", "DUANE", 0.8400},
		{"DIXON", "DICKSONX", 0.8133},
	}
	for _, c := range cases {
		got := JaroWinkler(c.a, c.b)
		if math.Abs(got-c.want) > 0.001 {
			t.Errorf("JaroWinkler(%q, %q) = %.4f, want %.4f", c.a, c.b, got, c.want)
		}
	}
}

func TestJaroWinkler_PrefixBoost(t *testing.T) {
	// The boost pairs share a prefix with their counterpart; the base pairs
	// contain the same runes without the shared prefix.
	withPrefix := JaroWinkler("prefixed", "prefixes")
	scrambled := JaroWinkler("refixedp", "prefixes")
	if withPrefix <= scrambled {
		t.Errorf("prefix pair %v should outscore scrambled pair %v", withPrefix, scrambled)
	}

	// Range invariant over assorted pairs.
	pairs := [][2]string{
		{"abcd", "abcd"}, {"abcd", "dcba"}, {"短文本", "另一段短文本"},
		{"hello world", "hello there"},
	}
	for _, p := range pairs {
		got := JaroWinkler(p[0], p[1])
		if got < 0 || got > 1 {
			t.Errorf("JaroWinkler(%q, %q) = %v outside [0,1]", p[0], p[1], got)
		}
	}
}
