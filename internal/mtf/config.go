package mtf

// Minimum row counts required before indicator math is attempted.
const (
	MinPrimaryRows   = 15
	MinSecondaryRows = 30
)

// Config holds the evaluation thresholds. Zero values are replaced with
// defaults, so an empty Config is usable.
type Config struct {
	// PrimaryTimeframe labels the slower timeframe in reasons and logs.
	// It must match whatever interval the caller fetched the primary
	// series for.
	PrimaryTimeframe   string
	SecondaryTimeframe string

	// MinPrimaryConfidence is the confirmation threshold applied to the
	// boosted confidence.
	MinPrimaryConfidence float64

	// MaxHybridBoost caps the total confidence that secondary and market
	// compensation may add on top of the primary score.
	MaxHybridBoost float64
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{
		PrimaryTimeframe:     "4h",
		SecondaryTimeframe:   "1h",
		MinPrimaryConfidence: 0.6,
		MaxHybridBoost:       0.35,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.PrimaryTimeframe == "" {
		c.PrimaryTimeframe = def.PrimaryTimeframe
	}
	if c.SecondaryTimeframe == "" {
		c.SecondaryTimeframe = def.SecondaryTimeframe
	}
	if c.MinPrimaryConfidence == 0 {
		c.MinPrimaryConfidence = def.MinPrimaryConfidence
	}
	if c.MaxHybridBoost == 0 {
		c.MaxHybridBoost = def.MaxHybridBoost
	}
	return c
}
