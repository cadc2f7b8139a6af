// Package patch adapts the diff-match-patch engine to the shapes the core
// needs: character-level diffs, hunk sets with context, and fuzzy application
// with a typed per-hunk outcome.
package patch

import (
	"fmt"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Edit is one diff operation (equal, insert or delete) over a run of text.
type Edit = diffmatchpatch.Diff

// Hunk is one localized, independently relocatable unit of a patch set.
type Hunk = diffmatchpatch.Patch

// Outcome is the result of applying a single hunk.
type Outcome int

const (
	Applied Outcome = iota
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Result is the patched text together with one outcome per hunk, in hunk order.
type Result struct {
	Content  string
	Outcomes []Outcome
}

// OK reports whether every hunk applied. An empty hunk set is trivially OK.
func (r Result) OK() bool {
	ok := true
	for _, o := range r.Outcomes {
		ok = ok && o == Applied
	}
	return ok
}

// Failed returns the indices of hunks that did not apply.
func (r Result) Failed() []int {
	var failed []int
	for i, o := range r.Outcomes {
		if o != Applied {
			failed = append(failed, i)
		}
	}
	return failed
}

// Options tunes the fuzzy matcher. Zero values keep the engine defaults.
type Options struct {
	MatchThreshold  float64 // 0.0 exact .. 1.0 anything; engine default 0.5
	MatchDistance   int     // how far from the expected location to search; default 1000
	DeleteThreshold float64 // how closely deleted text must match; default 0.5
	Margin          int     // context chars around each hunk; default 4
}

// Engine wraps a configured diff-match-patch instance.
type Engine struct {
	dmp *diffmatchpatch.DiffMatchPatch
}

// New creates an Engine with the default tolerances.
func New() *Engine {
	return NewWithOptions(Options{})
}

// NewWithOptions creates an Engine, overriding any non-zero tolerance in opts.
func NewWithOptions(opts Options) *Engine {
	dmp := diffmatchpatch.New()
	if opts.MatchThreshold > 0 {
		dmp.MatchThreshold = opts.MatchThreshold
	}
	if opts.MatchDistance > 0 {
		dmp.MatchDistance = opts.MatchDistance
	}
	if opts.DeleteThreshold > 0 {
		dmp.PatchDeleteThreshold = opts.DeleteThreshold
	}
	if opts.Margin > 0 {
		dmp.PatchMargin = opts.Margin
	}
	return &Engine{dmp: dmp}
}

// Diff computes the edits turning from into to.
func (e *Engine) Diff(from, to string) []Edit {
	return e.dmp.DiffMain(from, to, true)
}

// Make builds a hunk set from a diff. The source text is recovered from the edits.
func (e *Engine) Make(edits []Edit) []Hunk {
	return e.dmp.PatchMake(edits)
}

// ToText serializes hunks in the unidiff-like patch text format.
func (e *Engine) ToText(hunks []Hunk) string {
	return e.dmp.PatchToText(hunks)
}

// Apply relocates and applies each hunk onto text. Hunks longer than the
// matcher's window are applied in pieces; a hunk is Applied only when all of
// its pieces are.
func (e *Engine) Apply(hunks []Hunk, text string) Result {
	content, applied := e.dmp.PatchApply(hunks, text)
	if len(hunks) == 0 {
		return Result{Content: content}
	}

	// PatchApply pads and splits a copy of hunks before applying. Repeat
	// that here to fold its per-piece results back onto the caller's hunks.
	padded := e.dmp.PatchDeepCopy(hunks)
	e.dmp.PatchAddPadding(padded)

	outcomes := make([]Outcome, len(hunks))
	next := 0
	for i := range padded {
		pieces := len(e.dmp.PatchSplitMax([]Hunk{padded[i]}))
		for j := next; j < next+pieces; j++ {
			if j >= len(applied) || !applied[j] {
				outcomes[i] = Failed
			}
		}
		next += pieces
	}
	return Result{Content: content, Outcomes: outcomes}
}

// Rebase replays the change origin -> local onto target. Besides failing
// hunks the matcher cannot place, a hunk fails when target itself changed
// the stretch of origin that the hunk edits, even if the surrounding context
// still matches. Content is empty unless every hunk applied.
func (e *Engine) Rebase(origin, local, target string) Result {
	edits := e.Diff(origin, local)
	hunks := e.Make(edits)
	res := e.Apply(hunks, target)
	if len(hunks) == 0 {
		return res
	}

	ours := changedSpans(edits)
	theirs := changedSpans(e.dmp.DiffCleanupSemantic(e.Diff(origin, target)))

	shift := 0
	for i, h := range hunks {
		// Start1 of later hunks is relative to text with earlier hunks applied.
		covered := span{start: h.Start1 - shift, end: h.Start1 - shift + h.Length1}
		shift += h.Length2 - h.Length1

		if res.Outcomes[i] == Failed {
			continue
		}
		for _, o := range ours {
			if o.touches(covered) && o.touchesAny(theirs) {
				res.Outcomes[i] = Failed
				break
			}
		}
	}

	if !res.OK() {
		res.Content = ""
	}
	return res
}

// span is a half-open range of origin text rewritten by an edit script.
// A pure insertion is an empty span at the insertion point.
type span struct {
	start, end int
}

// touches reports whether the spans overlap or meet.
func (s span) touches(o span) bool {
	return s.start <= o.end && o.start <= s.end
}

func (s span) touchesAny(spans []span) bool {
	for _, o := range spans {
		if s.touches(o) {
			return true
		}
	}
	return false
}

// changedSpans lists, in origin offsets, the runs of origin that edits
// delete or insert into. Adjacent deletes and inserts form one span.
func changedSpans(edits []Edit) []span {
	var spans []span
	pos := 0
	open := false
	for _, ed := range edits {
		if ed.Type == diffmatchpatch.DiffEqual {
			pos += len(ed.Text)
			open = false
			continue
		}
		if !open {
			spans = append(spans, span{start: pos, end: pos})
			open = true
		}
		if ed.Type == diffmatchpatch.DiffDelete {
			pos += len(ed.Text)
			spans[len(spans)-1].end = pos
		}
	}
	return spans
}
