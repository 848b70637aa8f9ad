package connectivity

// unionFind is a weighted union-find over dense integer ids.
type unionFind struct {
	parent []int32
	rank   []uint8
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{
		parent: make([]int32, n),
		rank:   make([]uint8, n),
	}
	for i := range uf.parent {
		uf.parent[i] = int32(i)
	}
	return uf
}

// add appends a new singleton set and returns its id.
func (uf *unionFind) add() int {
	id := len(uf.parent)
	uf.parent = append(uf.parent, int32(id))
	uf.rank = append(uf.rank, 0)
	return id
}

// find returns the representative of x, compressing the path on the way.
func (uf *unionFind) find(x int) int {
	root := x
	for int(uf.parent[root]) != root {
		root = int(uf.parent[root])
	}
	for x != root {
		next := int(uf.parent[x])
		uf.parent[x] = int32(root)
		x = next
	}
	return root
}

// union merges the sets containing a and b by rank.
func (uf *unionFind) union(a, b int) {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return
	}
	switch {
	case uf.rank[ra] < uf.rank[rb]:
		uf.parent[ra] = int32(rb)
	case uf.rank[ra] > uf.rank[rb]:
		uf.parent[rb] = int32(ra)
	default:
		uf.parent[rb] = int32(ra)
		uf.rank[ra]++
	}
}
