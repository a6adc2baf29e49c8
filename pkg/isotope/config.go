package isotope

import (
	"fmt"
	"math"

	"github.com/ChrisMcGann/IsoDist/pkg/core"
)

// Defaults for Config fields.
const (
	DefaultFineResolution = 0.01
	DefaultMinProbability = 1e-200
	DefaultMassResolution = 1e-12
)

// Config controls the resolution and pruning of a computation.
//
// A zero FineResolution or MassResolution takes the default. MinProbability
// is used as given; zero keeps every non-zero term.
type Config struct {
	FineResolution float64            // Target mass resolution in daltons
	MinProbability float64            // Terms below this are discarded
	MassResolution float64            // Quantization step for term powers
	Normalization  core.Normalization // Sum or BasePeak
}

// DefaultConfig returns the recommended configuration.
func DefaultConfig() Config {
	return Config{
		FineResolution: DefaultFineResolution,
		MinProbability: DefaultMinProbability,
		MassResolution: DefaultMassResolution,
		Normalization:  core.NormalizeSum,
	}
}

// withDefaults fills zero resolutions.
func (c Config) withDefaults() Config {
	if c.FineResolution == 0 {
		c.FineResolution = DefaultFineResolution
	}
	if c.MassResolution == 0 {
		c.MassResolution = DefaultMassResolution
	}
	return c
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	c = c.withDefaults()
	switch {
	case !(c.FineResolution > 0) || math.IsInf(c.FineResolution, 0):
		return fmt.Errorf("%w: fine resolution must be positive, got %g", ErrInvalidConfig, c.FineResolution)
	case !(c.MassResolution > 0) || math.IsInf(c.MassResolution, 0):
		return fmt.Errorf("%w: mass resolution must be positive, got %g", ErrInvalidConfig, c.MassResolution)
	case c.MassResolution >= c.FineResolution:
		return fmt.Errorf("%w: mass resolution %g must be finer than fine resolution %g", ErrInvalidConfig, c.MassResolution, c.FineResolution)
	case !(c.MinProbability >= 0 && c.MinProbability <= 1):
		return fmt.Errorf("%w: min probability must be in [0,1], got %g", ErrInvalidConfig, c.MinProbability)
	case c.Normalization != core.NormalizeSum && c.Normalization != core.NormalizeBasePeak:
		return fmt.Errorf("%w: unknown normalization %d", ErrInvalidConfig, int(c.Normalization))
	}
	return nil
}

// resolutionTier admits a resolution for molecules lighter than massCeiling.
type resolutionTier struct {
	resolution  float64
	massCeiling float64
}

// Finer tiers are only allowed for lighter molecules, which keeps the
// convolution accumulator bounded.
var resolutionTiers = []resolutionTier{
	{resolution: 1e-4, massCeiling: 1e5},
	{resolution: 1e-3, massCeiling: 1e6},
	{resolution: 1e-2, massCeiling: 2e6},
}

// coarsestResolution is the floor used when no tier admits the request.
const coarsestResolution = 5e-2

// selectResolution returns the merge resolution for a requested fine
// resolution and an approximate molecule mass: the finest tier that is at
// least as coarse as the request and whose mass ceiling admits the molecule.
// Past the last tier the request is honoured, but never finer than
// coarsestResolution.
func selectResolution(requested, mass float64) float64 {
	for _, tier := range resolutionTiers {
		if requested <= tier.resolution && mass < tier.massCeiling {
			return tier.resolution
		}
	}
	return max(requested, coarsestResolution)
}
