package router

import "github.com/OpenTraceLab/OpenTracePerf/pkg/board"

// Apply returns a copy of p whose traces are replaced by the routed ones.
// An incomplete result is rejected as a whole: p is returned untouched and
// ok is false.
func Apply(p board.Project, res *Result) (board.Project, bool) {
	if res == nil || !res.Complete {
		return p, false
	}
	out := p.Clone()
	out.Traces = make([]board.Trace, len(res.Traces))
	for i, t := range res.Traces {
		t.Nodes = append([]board.Hole(nil), t.Nodes...)
		out.Traces[i] = t
	}
	return out, true
}
