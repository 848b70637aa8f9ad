// Package connectivity derives electrical groupings from the traces, pins and
// net labels of a project.
//
// The grouping is independent of the user-declared netlist: it answers
// "which holes are currently joined", not "which holes should be joined".
// Every hole touched by a trace node, a resolved pin or a label anchor is
// seeded; consecutive trace nodes are merged. Each resulting group gets the
// id "net:" followed by its lexicographically smallest hole key, so an
// unchanged graph always yields the same ids.
package connectivity

import (
	"context"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/OpenTraceLab/OpenTracePerf/pkg/board"
	"github.com/OpenTraceLab/OpenTracePerf/pkg/footprint"
)

var tracer = otel.Tracer("perfroute/connectivity")

// NetIDPrefix prefixes every derived net id.
const NetIDPrefix = "net:"

// Index is the derived connectivity of a project.
type Index struct {
	// HoleToNetID maps a hole key to its group id.
	HoleToNetID map[string]string
	// NetIDToHoles lists the hole keys of each group, sorted.
	NetIDToHoles map[string][]string
	// NetIDToName is the display name of each labeled group.
	NetIDToName map[string]string
	// NetIDToConflicts lists every distinct label name of a group when
	// there is more than one, sorted; empty otherwise.
	NetIDToConflicts map[string][]string
}

// ComputeIndex builds the connectivity index of a project. It is a pure
// function of its input.
func ComputeIndex(p board.Project) *Index {
	return ComputeIndexContext(context.Background(), p)
}

// ComputeIndexContext is ComputeIndex with a parent context for tracing.
func ComputeIndexContext(ctx context.Context, p board.Project) *Index {
	_, span := tracer.Start(ctx, "connectivity.ComputeIndex")
	defer span.End()

	b := newBuilder()

	for _, tr := range p.Traces {
		prev := -1
		for _, h := range tr.Nodes {
			id := b.seed(h.Key())
			if prev >= 0 {
				b.uf.union(prev, id)
			}
			prev = id
		}
	}
	for _, part := range p.Parts {
		for _, pin := range footprint.Pins(part) {
			b.seed(pin.Hole.Key())
		}
	}
	labelIDs := make([]int, len(p.Labels))
	for i, l := range p.Labels {
		labelIDs[i] = b.seed(l.Anchor.Key())
	}

	idx := b.finish()

	names := make(map[string]map[string]bool)
	for i, l := range p.Labels {
		if l.Name == "" {
			continue
		}
		netID := idx.HoleToNetID[b.keys[labelIDs[i]]]
		if names[netID] == nil {
			names[netID] = make(map[string]bool)
		}
		names[netID][l.Name] = true
	}
	for netID, set := range names {
		distinct := make([]string, 0, len(set))
		for n := range set {
			distinct = append(distinct, n)
		}
		sort.Strings(distinct)
		idx.NetIDToName[netID] = distinct[0]
		if len(distinct) > 1 {
			idx.NetIDToConflicts[netID] = distinct
		} else {
			idx.NetIDToConflicts[netID] = []string{}
		}
	}

	span.SetAttributes(
		attribute.Int("holes", len(b.keys)),
		attribute.Int("groups", len(idx.NetIDToHoles)),
	)
	return idx
}

// NetIDs returns every group id, sorted.
func (idx *Index) NetIDs() []string {
	ids := make([]string, 0, len(idx.NetIDToHoles))
	for id := range idx.NetIDToHoles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// NetOf returns the group id of a hole, if the hole is part of any group.
func (idx *Index) NetOf(h board.Hole) (string, bool) {
	id, ok := idx.HoleToNetID[h.Key()]
	return id, ok
}

// Connected reports whether two holes belong to the same group.
func (idx *Index) Connected(a, b board.Hole) bool {
	na, okA := idx.NetOf(a)
	nb, okB := idx.NetOf(b)
	return okA && okB && na == nb
}

// builder assigns contiguous ids to hole keys as they are first seen.
type builder struct {
	ids  map[string]int
	keys []string
	uf   *unionFind
}

func newBuilder() *builder {
	return &builder{ids: make(map[string]int), uf: newUnionFind(0)}
}

func (b *builder) seed(key string) int {
	if id, ok := b.ids[key]; ok {
		return id
	}
	id := b.uf.add()
	b.ids[key] = id
	b.keys = append(b.keys, key)
	return id
}

func (b *builder) finish() *Index {
	// group members by representative, in seed order
	members := make(map[int][]string)
	for id, key := range b.keys {
		root := b.uf.find(id)
		members[root] = append(members[root], key)
	}

	idx := &Index{
		HoleToNetID:      make(map[string]string, len(b.keys)),
		NetIDToHoles:     make(map[string][]string, len(members)),
		NetIDToName:      make(map[string]string),
		NetIDToConflicts: make(map[string][]string),
	}
	for _, keys := range members {
		sort.Strings(keys)
		netID := NetIDPrefix + keys[0]
		idx.NetIDToHoles[netID] = keys
		for _, k := range keys {
			idx.HoleToNetID[k] = netID
		}
	}
	return idx
}
