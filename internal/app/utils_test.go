package app

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplitArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		s    string
		n    int
		want []string
	}{
		{"basic", "judge@x.com h1", 2, []string{"judge@x.com", "h1"}},
		{"trim", "   a    b  ", 2, []string{"a", "b"}},
		{"keep_remainder", "a b c", 2, []string{"a", "b c"}},
		{"three", "a b c", 3, []string{"a", "b", "c"}},
		{"fewer_than_n", "a", 3, []string{"a"}},
		{"tabs", "a\tb", 2, []string{"a", "b"}},
		{"empty", "   ", 2, []string{}},
		{"zero", "a b", 0, []string{}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got := splitArgs(tt.s, tt.n)
			if len(got) != len(tt.want) {
				t.Fatalf("len: got=%d want=%d, got=%v", len(got), len(tt.want), got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("idx=%d got=%q want=%q (got=%v)", i, got[i], tt.want[i], got)
				}
			}
		})
	}
}

func FuzzSplitArgs(f *testing.F) {
	seeds := []struct {
		s string
		n int
	}{
		{"a b", 2},
		{"a  b", 3},
		{"  a b c  ", 3},
		{" x ", 4},
		{"single", 2},
	}
	for _, s := range seeds {
		f.Add(s.s, s.n)
	}

	f.Fuzz(func(t *testing.T, s string, n int) {
		if n < 0 {
			n = -n
		}
		if n > 20 {
			n = 20
		}

		got := splitArgs(s, n)

		if n == 0 && len(got) != 0 {
			t.Fatalf("n=0 => expected empty, got=%v", got)
		}
		if len(got) > n {
			t.Fatalf("len(got)=%d > n=%d (got=%v)", len(got), n, got)
		}
		for _, p := range got {
			if p == "" {
				t.Fatalf("empty part in %v", got)
			}
			if strings.TrimSpace(p) != p {
				t.Fatalf("not trimmed: %q", p)
			}
		}
	})
}

func TestParseScoreArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		s       string
		team    string
		scores  []float64
		wantErr bool
	}{
		{"one", "t1 7", "t1", []float64{7}, false},
		{"several", " t1 7 8.5  3 ", "t1", []float64{7, 8.5, 3}, false},
		{"comma_decimal", "t1 7,5", "t1", []float64{7.5}, false},
		{"no_scores", "t1", "", nil, true},
		{"empty", "", "", nil, true},
		{"not_a_number", "t1 seven", "", nil, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			team, scores, err := parseScoreArgs(tt.s)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got team=%q scores=%v", team, scores)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseScoreArgs: %v", err)
			}
			if team != tt.team || len(scores) != len(tt.scores) {
				t.Fatalf("got %q %v, want %q %v", team, scores, tt.team, tt.scores)
			}
			for i := range scores {
				if scores[i] != tt.scores[i] {
					t.Fatalf("idx=%d got=%v want=%v", i, scores[i], tt.scores[i])
				}
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	short := "hello"
	if truncate(short) != short {
		t.Fatalf("short text changed")
	}

	long := strings.Repeat("é", maxMessageLen)
	got := truncate(long)
	if !utf8.ValidString(got) {
		t.Fatalf("truncate split a rune")
	}
	if !strings.HasSuffix(got, "(truncated, too much text)") {
		t.Fatalf("missing truncation note")
	}
}
