package patch

import (
	"reflect"
	"strings"
	"testing"
)

func TestEngine_ApplyClean(t *testing.T) {
	e := New()

	origin := "a\nb\nc\n"
	local := "a\nX\nc\n"
	target := "a\nb\nc\nd\n"

	hunks := e.Make(e.Diff(origin, local))
	if len(hunks) == 0 {
		t.Fatal("Make() produced no hunks for a real change")
	}

	res := e.Apply(hunks, target)
	if !res.OK() {
		t.Fatalf("Apply() outcomes = %v, want all applied", res.Outcomes)
	}
	if res.Content != "a\nX\nc\nd\n" {
		t.Errorf("Apply() content = %q, want %q", res.Content, "a\nX\nc\nd\n")
	}
}

func TestEngine_ApplyShifted(t *testing.T) {
	e := New()

	origin := "header\nfunc main() {\n\tprintln(\"hi\")\n}\n"
	local := "header\nfunc main() {\n\tprintln(\"hello\")\n}\n"
	target := "// added above\n// and more\nheader\nfunc main() {\n\tprintln(\"hi\")\n}\n"

	res := e.Apply(e.Make(e.Diff(origin, local)), target)
	if !res.OK() {
		t.Fatalf("Apply() outcomes = %v", res.Outcomes)
	}
	want := "// added above\n// and more\nheader\nfunc main() {\n\tprintln(\"hello\")\n}\n"
	if res.Content != want {
		t.Errorf("Apply() content = %q, want %q", res.Content, want)
	}
}

func TestEngine_ApplyUnplaceable(t *testing.T) {
	e := New()

	origin := "alpha\nbeta\ngamma\n"
	local := "alpha\nBETA-LOCAL\ngamma\n"
	target := "0123456789\n9876543210\n"

	hunks := e.Make(e.Diff(origin, local))
	res := e.Apply(hunks, target)

	if res.OK() {
		t.Fatalf("Apply() reported success on unrelated target: %q", res.Content)
	}
	if len(res.Outcomes) != len(hunks) {
		t.Errorf("got %d outcomes for %d hunks", len(res.Outcomes), len(hunks))
	}
	if strings.Contains(res.Content, "BETA-LOCAL") {
		t.Errorf("failed hunk leaked into content: %q", res.Content)
	}
}

func TestEngine_ApplyLongHunk(t *testing.T) {
	e := New()

	origin := "head\n" + strings.Repeat("line of original text\n", 4) + "tail\n"
	local := "head\n" + strings.Repeat("0123456789", 8) + "\ntail\n"

	hunks := e.Make(e.Diff(origin, local))
	res := e.Apply(hunks, origin)
	if len(res.Outcomes) != len(hunks) {
		t.Fatalf("got %d outcomes for %d hunks", len(res.Outcomes), len(hunks))
	}
	if !res.OK() || res.Content != local {
		t.Errorf("Apply() = %+v, want %q", res, local)
	}
}

func TestEngine_RebaseConflict(t *testing.T) {
	tests := []struct {
		name   string
		origin string
		local  string
		target string
	}{
		{
			name:   "same line",
			origin: "a\nb\nc\n",
			local:  "a\nX\nc\n",
			target: "a\nY\nc\n",
		},
		{
			name:   "same token",
			origin: "func f() int {\n\treturn 1\n}\n",
			local:  "func f() int {\n\treturn 2\n}\n",
			target: "func f() int {\n\treturn 3\n}\n",
		},
		{
			name:   "line removed upstream",
			origin: "alpha\nbeta\ngamma\n",
			local:  "alpha\nBETA-LOCAL\ngamma\n",
			target: "alpha\ngamma\n",
		},
		{
			name:   "unrelated target",
			origin: "alpha\nbeta\ngamma\n",
			local:  "alpha\nBETA-LOCAL\ngamma\n",
			target: "0123456789\n9876543210\n",
		},
	}

	e := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := e.Rebase(tt.origin, tt.local, tt.target)
			if res.OK() {
				t.Fatalf("Rebase() reported success: %q", res.Content)
			}
			if len(res.Failed()) == 0 {
				t.Error("Failed() is empty for a conflicting rebase")
			}
			if res.Content != "" {
				t.Errorf("Rebase() content = %q, want empty on conflict", res.Content)
			}
		})
	}
}

func TestEngine_RebaseClean(t *testing.T) {
	tests := []struct {
		name   string
		origin string
		local  string
		target string
		want   string
	}{
		{
			name:   "line appended upstream",
			origin: "a\nb\nc\n",
			local:  "a\nX\nc\n",
			target: "a\nb\nc\nd\ne\n",
			want:   "a\nX\nc\nd\ne\n",
		},
		{
			name:   "distant change upstream",
			origin: "one\ntwo\nthree\nfour\nfive\nsix\n",
			local:  "one\nTWO\nthree\nfour\nfive\nsix\n",
			target: "one\ntwo\nthree\nfour\nfive\nSIX\n",
			want:   "one\nTWO\nthree\nfour\nfive\nSIX\n",
		},
		{
			name:   "target equals origin",
			origin: "a\nb\nc\n",
			local:  "a\nX\nc\n",
			target: "a\nb\nc\n",
			want:   "a\nX\nc\n",
		},
		{
			name:   "no local changes",
			origin: "a\nb\n",
			local:  "a\nb\n",
			target: "a\nB\n",
			want:   "a\nB\n",
		},
	}

	e := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := e.Rebase(tt.origin, tt.local, tt.target)
			if !res.OK() {
				t.Fatalf("Rebase() outcomes = %v", res.Outcomes)
			}
			if res.Content != tt.want {
				t.Errorf("Rebase() content = %q, want %q", res.Content, tt.want)
			}
		})
	}
}

func TestChangedSpans(t *testing.T) {
	e := New()

	got := changedSpans(e.Diff("a\nb\nc\n", "a\nX\nc\nd\n"))
	want := []span{{2, 3}, {6, 6}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("changedSpans() = %v, want %v", got, want)
	}

	if !(span{2, 3}).touches(span{3, 3}) {
		t.Error("insertion at the end of a rewritten run should touch it")
	}
	if (span{2, 3}).touches(span{6, 6}) {
		t.Error("distant spans should not touch")
	}
}

func TestEngine_NoChanges(t *testing.T) {
	e := New()

	hunks := e.Make(e.Diff("same\n", "same\n"))
	if len(hunks) != 0 {
		t.Errorf("Make() = %d hunks for identical text, want 0", len(hunks))
	}

	res := e.Apply(hunks, "target\n")
	if !res.OK() || res.Content != "target\n" {
		t.Errorf("Apply() of empty hunk set = %+v", res)
	}
}

func TestResult_Reduction(t *testing.T) {
	tests := []struct {
		name       string
		outcomes   []Outcome
		wantOK     bool
		wantFailed []int
	}{
		{"empty", nil, true, nil},
		{"all applied", []Outcome{Applied, Applied}, true, nil},
		{"one failed", []Outcome{Applied, Failed, Applied}, false, []int{1}},
		{"all failed", []Outcome{Failed, Failed}, false, []int{0, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Result{Outcomes: tt.outcomes}
			if got := r.OK(); got != tt.wantOK {
				t.Errorf("OK() = %v, want %v", got, tt.wantOK)
			}
			if got := r.Failed(); !reflect.DeepEqual(got, tt.wantFailed) {
				t.Errorf("Failed() = %v, want %v", got, tt.wantFailed)
			}
		})
	}
}

func TestOutcome_String(t *testing.T) {
	if Applied.String() != "applied" || Failed.String() != "failed" {
		t.Errorf("String() = %q, %q", Applied, Failed)
	}
	if Outcome(7).String() != "Outcome(7)" {
		t.Errorf("String() of unknown = %q", Outcome(7))
	}
}

func TestEngine_ToText(t *testing.T) {
	e := New()

	hunks := e.Make(e.Diff("one\ntwo\nthree\n", "one\n2\nthree\n"))
	text := e.ToText(hunks)
	if !strings.HasPrefix(text, "@@ -") {
		t.Errorf("ToText() = %q, want unidiff-like header", text)
	}

	if !strings.Contains(text, "-two") || !strings.Contains(text, "+2") {
		t.Errorf("ToText() = %q, want the deleted and inserted runs", text)
	}
}

func TestNewWithOptions(t *testing.T) {
	e := NewWithOptions(Options{MatchThreshold: 0.2, MatchDistance: 50, DeleteThreshold: 0.3, Margin: 8})
	if e.dmp.MatchThreshold != 0.2 || e.dmp.MatchDistance != 50 ||
		e.dmp.PatchDeleteThreshold != 0.3 || e.dmp.PatchMargin != 8 {
		t.Errorf("options not applied: %+v", e.dmp)
	}

	d := New()
	if d.dmp.MatchThreshold != 0.5 || d.dmp.PatchMargin != 4 {
		t.Errorf("defaults changed: threshold %v margin %v", d.dmp.MatchThreshold, d.dmp.PatchMargin)
	}
}
