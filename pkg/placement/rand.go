package placement

import (
	"hash/fnv"
	"strconv"
	"strings"

	"github.com/OpenTraceLab/OpenTracePerf/pkg/board"
)

// fallbackSeed replaces a zero seed, which would lock xorshift at zero.
const fallbackSeed uint32 = 0x9e3779b9

// Rand is a xorshift32 generator. It is a plain value so every run threads
// its own state explicitly.
type Rand struct {
	state uint32
}

// NewRand returns a generator seeded with seed.
func NewRand(seed uint32) *Rand {
	if seed == 0 {
		seed = fallbackSeed
	}
	return &Rand{state: seed}
}

// Uint32 advances the generator.
func (r *Rand) Uint32() uint32 {
	x := r.state
	x ^= x << 13
	x ^= x >> 17
	x ^= x << 5
	r.state = x
	return x
}

// Float64 returns a value in [0, 1).
func (r *Rand) Float64() float64 {
	return float64(r.Uint32()) / 4294967296.0
}

// Intn returns a value in [0, n). n must be positive.
func (r *Rand) Intn(n int) int {
	return int(r.Float64() * float64(n))
}

// DeriveSeed hashes the structural signature of a project: board size,
// every part's placement, the netlist terminals and the constraints.
// Unseeded runs on an unchanged project are therefore reproducible.
func DeriveSeed(p board.Project) uint32 {
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(p.Board.Width))
	sb.WriteByte('x')
	sb.WriteString(strconv.Itoa(p.Board.Height))
	for _, part := range p.Parts {
		sb.WriteString("|p:")
		sb.WriteString(part.ID)
		sb.WriteByte('@')
		sb.WriteString(part.Placement.Origin.Key())
		sb.WriteByte('r')
		sb.WriteString(strconv.Itoa(int(part.Placement.Rotation)))
		if part.Placement.Flip {
			sb.WriteByte('f')
		}
	}
	for _, n := range p.Netlist {
		sb.WriteString("|n:")
		sb.WriteString(n.ID)
		for _, t := range n.Terminals {
			sb.WriteByte(';')
			sb.WriteString(t.String())
		}
	}
	for _, id := range p.Constraints.FixedPartIDs {
		sb.WriteString("|fp:")
		sb.WriteString(id)
	}
	for _, fh := range p.Constraints.FixedHoles {
		sb.WriteString("|fh:")
		sb.WriteString(fh.Key())
	}

	hash := fnv.New32a()
	hash.Write([]byte(sb.String()))
	seed := hash.Sum32()
	if seed == 0 {
		seed = fallbackSeed
	}
	return seed
}
