package placement

import "log/slog"

// Defaults for the optimizer.
const (
	DefaultIterations     = 1800
	DefaultRestarts       = 5
	DefaultPreferredLimit = 80
	DefaultSwapRate       = 0.18
	DefaultPreferredRate  = 0.75
	DefaultClearance      = 2

	// minTemperature keeps the acceptance exponent finite near the end of
	// the annealing schedule.
	minTemperature = 0.05
)

// Options controls a placement run. Start from DefaultOptions and override
// fields: Validate cannot tell a zero Iterations or a false AllowRotate in a
// bare literal from a deliberate choice, so those are kept as given.
type Options struct {
	// Seed fixes the pseudorandom sequence. When nil a seed is derived
	// from the project's structural signature.
	Seed *uint32

	Iterations  int  // annealing steps per restart (default: 1800)
	AllowRotate bool // consider all four rotations (default: true)
	Restarts    int  // number of start configurations (default: 5)

	// PreferredLimit bounds the candidates a part draws from in most
	// annealing moves (default: 80).
	PreferredLimit int

	SwapRate      float64 // share of steps proposing a swap (default: 0.18)
	PreferredRate float64 // share of re-placements drawn from the preferred subset (default: 0.75)

	Weights Weights

	// Logger receives debug progress. Nil discards.
	Logger *slog.Logger
}

// DefaultOptions returns Options with sensible defaults for most boards.
func DefaultOptions() *Options {
	return &Options{
		Iterations:     DefaultIterations,
		AllowRotate:    true,
		Restarts:       DefaultRestarts,
		PreferredLimit: DefaultPreferredLimit,
		SwapRate:       DefaultSwapRate,
		PreferredRate:  DefaultPreferredRate,
		Weights:        DefaultWeights(),
	}
}

// Validate replaces out-of-range values with defaults. Zero Iterations
// (no annealing) and false AllowRotate are valid settings and left alone.
func (o *Options) Validate() {
	if o.Iterations < 0 {
		o.Iterations = DefaultIterations
	}
	if o.Restarts < 1 {
		o.Restarts = DefaultRestarts
	}
	if o.PreferredLimit < 1 {
		o.PreferredLimit = DefaultPreferredLimit
	}
	if o.SwapRate < 0 || o.SwapRate > 1 {
		o.SwapRate = DefaultSwapRate
	}
	if o.PreferredRate < 0 || o.PreferredRate > 1 {
		o.PreferredRate = DefaultPreferredRate
	}
	if o.Weights == (Weights{}) {
		o.Weights = DefaultWeights()
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
}

// Weights scales every term of the cost model.
type Weights struct {
	Collision    float64 // per pin collision between unrelated parts
	FixedHole    float64 // per pin on a fixed hole
	Overlap      float64 // per cell of bounding-box overlap
	Clearance    float64 // times squared encroachment
	ClearanceMin int     // Manhattan radius below which unrelated pins encroach

	MedianDistance float64 // per cell from a terminal to the net median
	Span           float64 // per cell of net bounding-box span
	Diagonal       float64 // 2-terminal net whose endpoints are diagonal

	ProxyLength     float64 // routing proxy, per cell
	ProxyBend       float64 // routing proxy, per bend
	ProxyCongestion float64 // routing proxy, per contested cell

	Adjacency float64 // times shared nets times centroid distance
	Area      float64 // per cell of overall bounding area

	RotationChange float64 // per part rotated away from baseline
	OriginMove     float64 // per grid step moved from baseline
}

// DefaultWeights returns the standard cost weights, ordered by severity.
func DefaultWeights() Weights {
	return Weights{
		Collision:    7000,
		FixedHole:    5000,
		Overlap:      9000,
		Clearance:    60,
		ClearanceMin: DefaultClearance,

		MedianDistance: 0.9,
		Span:           0.75,
		Diagonal:       4.5,

		ProxyLength:     0.55,
		ProxyBend:       1.8,
		ProxyCongestion: 42,

		Adjacency: 0.2,
		Area:      0.02,

		RotationChange: 0.6,
		OriginMove:     0.45,
	}
}
