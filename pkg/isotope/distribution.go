package isotope

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ChrisMcGann/IsoDist/pkg/core"
	"github.com/ChrisMcGann/IsoDist/pkg/elements"
)

// Calculator computes isotope distributions against an isotope source.
type Calculator struct {
	source        IsotopeSource
	logFactorials *LogFactorials
	logger        *zap.Logger
}

// NewCalculator creates a calculator. A nil logger disables logging.
func NewCalculator(source IsotopeSource, logger *zap.Logger) *Calculator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Calculator{
		source:        source,
		logFactorials: defaultLogFactorials,
		logger:        logger,
	}
}

// WithLogFactorials replaces the shared log-factorial table, for example
// with one precomputed to the largest atom count expected.
func (c *Calculator) WithLogFactorials(lf *LogFactorials) *Calculator {
	c.logFactorials = lf
	return c
}

// ComputeDistribution uses the default element table.
func ComputeDistribution(comp core.Composition, cfg Config) (*core.Spectrum, error) {
	return NewCalculator(elements.DefaultTable(), nil).ComputeDistribution(context.Background(), comp, cfg)
}

// ComputeDistribution returns the isotope distribution of comp. A
// composition without atoms yields an empty spectrum. Oversized elements
// fail with *UnsupportedSizeError and no partial result.
func (c *Calculator) ComputeDistribution(ctx context.Context, comp core.Composition, cfg Config) (*core.Spectrum, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	if comp.HasNegative() {
		return nil, fmt.Errorf("%w: negative atom count in %s", ErrInvalidComposition, comp)
	}

	spectrum := &core.Spectrum{
		Formula:       comp.String(),
		Normalization: cfg.Normalization,
	}
	if comp.TotalAtoms() == 0 {
		return spectrum, nil
	}

	terms, monoMass, resolution, err := c.computeTerms(ctx, comp, cfg)
	if err != nil {
		return nil, err
	}

	spectrum.MonoisotopicMass = monoMass
	spectrum.Resolution = resolution
	spectrum.Peaks = normalizeTerms(terms, cfg.Normalization, cfg.MassResolution)

	c.logger.Debug("computed isotope distribution",
		zap.String("formula", spectrum.Formula),
		zap.Float64("resolution", resolution),
		zap.Int("peaks", len(spectrum.Peaks)))

	return spectrum, nil
}

// computeTerms runs every stage up to normalization and returns the merged
// molecule terms, the approximate monoisotopic mass and the effective merge
// resolution.
func (c *Calculator) computeTerms(ctx context.Context, comp core.Composition, cfg Config) ([]Term, float64, float64, error) {
	els, monoMass, err := buildElements(comp, c.source, cfg.MassResolution)
	if err != nil {
		return nil, 0, 0, err
	}

	resolution := selectResolution(cfg.FineResolution, monoMass)
	half := resolution / 2

	perElement := make([][]Term, 0, len(els))
	for _, el := range els {
		terms, err := enumerateElement(ctx, el, c.logFactorials, cfg.MinProbability)
		if err != nil {
			return nil, 0, 0, err
		}
		raw := len(terms)
		terms = MergeTerms(terms, half, cfg.MassResolution)
		c.logger.Debug("enumerated element",
			zap.String("element", el.Symbol),
			zap.Int("atoms", el.Atoms),
			zap.Int("isotopes", len(el.Isotopes)),
			zap.Int("terms", raw),
			zap.Int("merged", len(terms)))
		perElement = append(perElement, terms)
	}

	var acc []Term
	for i, terms := range perElement {
		if i == 0 {
			acc = terms
			continue
		}
		acc, err = Convolve(ctx, acc, terms, half, cfg.MinProbability, cfg.MassResolution)
		if err != nil {
			return nil, 0, 0, err
		}
	}

	return MergeTerms(acc, resolution, cfg.MassResolution), monoMass, resolution, nil
}
