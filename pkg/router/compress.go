package router

import "github.com/OpenTraceLab/OpenTracePerf/pkg/board"

// Compress drops repeated holes and every interior hole where the path keeps
// its direction, leaving only endpoints and corners. Compressing a
// compressed path returns it unchanged. Traces from Route are compressed
// with their branch junctions kept, so they need not be fixed points of
// Compress.
func Compress(path []board.Hole) []board.Hole {
	return compressKeep(path, nil)
}

// compressKeep is Compress that also retains every hole in keep, so branch
// junctions on a straight run stay addressable as trace nodes.
func compressKeep(path []board.Hole, keep map[board.Hole]bool) []board.Hole {
	if len(path) == 0 {
		return nil
	}
	dedup := make([]board.Hole, 0, len(path))
	for _, h := range path {
		if len(dedup) > 0 && dedup[len(dedup)-1] == h {
			continue
		}
		dedup = append(dedup, h)
	}
	if len(dedup) <= 2 {
		return dedup
	}

	out := []board.Hole{dedup[0]}
	for i := 1; i < len(dedup)-1; i++ {
		prev, cur, next := out[len(out)-1], dedup[i], dedup[i+1]
		if !keep[cur] && direction(prev, cur) == direction(cur, next) {
			continue
		}
		out = append(out, cur)
	}
	return append(out, dedup[len(dedup)-1])
}

func direction(a, b board.Hole) [2]int {
	return [2]int{sign(b.X - a.X), sign(b.Y - a.Y)}
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
