package loop

import (
	"fmt"
	"strings"
)

// graph assembles a complex filter graph from labeled chains of stages.
// Labels are allocated sequentially (v0, v1, ...) so rendered graphs are
// deterministic and directly comparable in tests.
type graph struct {
	stmts []string
	next  int
}

func newGraph() *graph { return &graph{} }

// input returns the label of input i's video stream.
func (g *graph) input(i int) string {
	return fmt.Sprintf("%d:v:0", i)
}

func (g *graph) label() string {
	l := fmt.Sprintf("v%d", g.next)
	g.next++
	return l
}

// chain applies chainable stages to the stream labeled in and returns the
// resulting label. With no renderable stages the input label passes through.
func (g *graph) chain(in string, stages ...Stage) string {
	expr := chainExpr(stages)
	if expr == "" {
		return in
	}
	out := g.label()
	g.stmts = append(g.stmts, fmt.Sprintf("[%s]%s[%s]", in, expr, out))
	return out
}

// split duplicates the stream labeled in per a StageSplit stage.
func (g *graph) split(in string, s Stage) []string {
	outs := make([]string, s.Count)
	labels := make([]string, s.Count)
	for i := range outs {
		outs[i] = g.label()
		labels[i] = "[" + outs[i] + "]"
	}
	g.stmts = append(g.stmts, fmt.Sprintf("[%s]split=%d%s", in, s.Count, strings.Join(labels, "")))
	return outs
}

// xfade dissolves b into a per a StageCrossDissolve stage.
func (g *graph) xfade(a, b string, s Stage) string {
	out := g.label()
	g.stmts = append(g.stmts, fmt.Sprintf("[%s][%s]xfade=transition=fade:duration=%s:offset=%s[%s]",
		a, b, ffNum(s.DurSec), ffNum(s.OffsetSec), out))
	return out
}

// concat splices the given streams back to back (video only) per a
// StageConcatenate stage.
func (g *graph) concat(s Stage, parts ...string) string {
	out := g.label()
	var b strings.Builder
	for _, p := range parts {
		b.WriteString("[" + p + "]")
	}
	g.stmts = append(g.stmts, fmt.Sprintf("%sconcat=n=%d:v=1:a=0[%s]", b.String(), s.Count, out))
	return out
}

// String renders the whole graph for -filter_complex.
func (g *graph) String() string {
	return strings.Join(g.stmts, ";")
}
