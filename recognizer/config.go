package recognizer

import "math"

// Config holds every tunable parameter of a recognition call (spec.md
// §6's parameter table), and is the one struct both the functional
// options below and config.Config (the YAML-loadable ambient config)
// populate.
type Config struct {
	VoxelSize                    float64
	PairWidth                    float64
	PairWidthTolerance           float64
	AbsZDistThresh               float64
	SceneBoundsEnlargementFactor float64
	PositionDiscretization       float64
	RotationDiscretization       float64
	Visibility                   float64
	RelativeNumOfIllegalPts      float64
	IntersectionFraction         float64
	// MatchConfidenceThreshold is not part of spec.md §6's configuration
	// table; it defaults to 0, which is a no-op post-filter, so an
	// unconfigured Recognizer emits every outcome of spec.md §4.8's
	// conflict-graph filter unchanged. Set via WithMatchConfidenceThreshold
	// to opt into dropping low-confidence outputs.
	MatchConfidenceThreshold     float64
	IgnoreCoplanarOPPs           bool
	MaxCoplanarityAngle          float64
	UseICP                       bool
	FracOfPointsForICPRefinement float64
	NewToOldEnergyRatio          float64
	PriorQ                       float64
	NormalVariant                bool
	Workers                      int
}

// DefaultConfig returns the spec's recommended defaults, scaled from
// voxelSize the way spec.md §6's table derives PairWidth/discretization
// defaults from it.
func DefaultConfig(voxelSize float64) Config {
	return Config{
		VoxelSize:                    voxelSize,
		PairWidth:                    10 * voxelSize,
		PairWidthTolerance:           0.1,
		AbsZDistThresh:               1.5 * voxelSize,
		SceneBoundsEnlargementFactor: 0.25,
		PositionDiscretization:       5 * voxelSize,
		RotationDiscretization:       5 * (math.Pi / 180),
		Visibility:                   0.1,
		RelativeNumOfIllegalPts:      0.1,
		IntersectionFraction:         0.5,
		MatchConfidenceThreshold:     0,
		IgnoreCoplanarOPPs:           true,
		MaxCoplanarityAngle:          3 * (math.Pi / 180),
		UseICP:                       false,
		FracOfPointsForICPRefinement: 0.5,
		NewToOldEnergyRatio:          1.1,
		PriorQ:                       0.01,
		NormalVariant:                false,
		Workers:                      1,
	}
}

// Option mutates a Config; functional options are the idiomatic Go
// analogue of the teacher's AppOptions/ApplyOptions CLI-flag pattern,
// generalized for a library entry point rather than a binary's flags.
type Option func(*Config)

func WithPairWidth(w float64) Option {
	return func(c *Config) { c.PairWidth = w }
}

func WithPairWidthTolerance(t float64) Option {
	return func(c *Config) { c.PairWidthTolerance = t }
}

func WithVisibility(v float64) Option {
	return func(c *Config) { c.Visibility = v }
}

func WithRelativeNumOfIllegalPts(f float64) Option {
	return func(c *Config) { c.RelativeNumOfIllegalPts = f }
}

func WithIntersectionFraction(f float64) Option {
	return func(c *Config) { c.IntersectionFraction = f }
}

// WithMatchConfidenceThreshold sets a minimum match_confidence_ for an
// output to be emitted; it is off (0) by default, since spec.md §4.8's
// orchestrator sequence has no threshold step after the conflict graph
// filter — set this only to opt into dropping low-confidence outputs.
func WithMatchConfidenceThreshold(t float64) Option {
	return func(c *Config) { c.MatchConfidenceThreshold = t }
}

func WithICP(enabled bool, fracForRefinement, newToOldEnergyRatio float64) Option {
	return func(c *Config) {
		c.UseICP = enabled
		c.FracOfPointsForICPRefinement = fracForRefinement
		c.NewToOldEnergyRatio = newToOldEnergyRatio
	}
}

func WithCoplanarityFilter(enabled bool, maxAngle float64) Option {
	return func(c *Config) {
		c.IgnoreCoplanarOPPs = enabled
		c.MaxCoplanarityAngle = maxAngle
	}
}

func WithPriorQ(q float64) Option {
	return func(c *Config) { c.PriorQ = q }
}

func WithNormalVariant(enabled bool) Option {
	return func(c *Config) { c.NormalVariant = enabled }
}

func WithWorkers(n int) Option {
	return func(c *Config) {
		if n < 1 {
			n = 1
		}
		c.Workers = n
	}
}
