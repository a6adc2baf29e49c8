// Package filter provides peak filtering for computed isotope envelopes
package filter

import (
	"fmt"
	"sort"

	"github.com/ChrisMcGann/IsoDist/pkg/core"
)

// Config holds filtering configuration
type Config struct {
	TopN            int     // Keep only top N most intense peaks (0 = no limit)
	IntensityCutoff float64 // Keep only peaks at or above this % of base peak (0 = no cutoff)
	MinMass         float64 // Drop peaks below this mass or m/z (0 = no lower bound)
	MaxMass         float64 // Drop peaks above this mass or m/z (0 = no upper bound)
	Renormalize     bool    // Rescale the surviving peaks with the spectrum's normalization
}

// IsZero reports whether the config filters nothing.
func (c *Config) IsZero() bool {
	return c.TopN == 0 && c.IntensityCutoff == 0 && c.MinMass == 0 && c.MaxMass == 0
}

// Validate checks the configured bounds
func (c *Config) Validate() error {
	if c.TopN < 0 {
		return fmt.Errorf("top-n must not be negative, got %d", c.TopN)
	}
	if c.IntensityCutoff < 0 || c.IntensityCutoff > 100 {
		return fmt.Errorf("intensity cutoff must be between 0 and 100, got %g", c.IntensityCutoff)
	}
	if c.MinMass < 0 || c.MaxMass < 0 {
		return fmt.Errorf("mass bounds must not be negative")
	}
	if c.MaxMass > 0 && c.MinMass > c.MaxMass {
		return fmt.Errorf("min mass %g exceeds max mass %g", c.MinMass, c.MaxMass)
	}
	return nil
}

// Apply drops zero-intensity peaks, then applies the mass window, the
// intensity cutoff and top-N in that order. Peaks end sorted by mass.
func (c *Config) Apply(spec *core.Spectrum) error {
	if err := c.Validate(); err != nil {
		return err
	}

	RemoveZeroIntensityPeaks(spec)

	// Mass window first so the base peak is taken from what remains
	if c.MinMass > 0 || c.MaxMass > 0 {
		keep(spec, c.inMassWindow)
	}

	if c.IntensityCutoff > 0 {
		if base, ok := spec.BasePeak(); ok {
			threshold := c.IntensityCutoff / 100 * base.Intensity
			keep(spec, func(p core.Peak) bool { return p.Intensity >= threshold })
		}
	}

	if c.TopN > 0 && len(spec.Peaks) > c.TopN {
		byIntensity := append([]core.Peak(nil), spec.Peaks...)
		sort.SliceStable(byIntensity, func(i, j int) bool {
			return byIntensity[i].Intensity > byIntensity[j].Intensity
		})
		spec.Peaks = byIntensity[:c.TopN]
	}

	spec.SortPeaks()

	if c.Renormalize {
		spec.Normalize(spec.Normalization)
	}
	return nil
}

func (c *Config) inMassWindow(p core.Peak) bool {
	return p.Mass >= c.MinMass && (c.MaxMass == 0 || p.Mass <= c.MaxMass)
}

// keep filters spec.Peaks in place
func keep(spec *core.Spectrum, pred func(core.Peak) bool) {
	out := spec.Peaks[:0]
	for _, p := range spec.Peaks {
		if pred(p) {
			out = append(out, p)
		}
	}
	spec.Peaks = out
}

// RemoveZeroIntensityPeaks removes peaks with zero or negative intensity
func RemoveZeroIntensityPeaks(spec *core.Spectrum) {
	keep(spec, func(p core.Peak) bool { return p.Intensity > 0 })
}
