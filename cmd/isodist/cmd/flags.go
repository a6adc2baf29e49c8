package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/IsoDist/pkg/core"
	"github.com/ChrisMcGann/IsoDist/pkg/filter"
	"github.com/ChrisMcGann/IsoDist/pkg/isotope"
)

// calcFlags holds the calculation and peak filter flags shared by compute
// and batch.
type calcFlags struct {
	fineResolution float64
	minProbability float64
	normalization  string
	topN           int
	cutoffPercent  float64
	minMass        float64
	maxMass        float64
	renormalize    bool
}

func (f *calcFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.fineResolution, "fine-res", isotope.DefaultFineResolution, "Requested mass resolution in daltons; snapped up to the nearest 1e-4/1e-3/1e-2 tier, otherwise used as given but never finer than 0.05")
	cmd.Flags().Float64Var(&f.minProbability, "min-prob", isotope.DefaultMinProbability, "Discard isotopologues less probable than this")
	cmd.Flags().StringVar(&f.normalization, "normalization", "sum", "Intensity normalization: sum or basepeak")
	cmd.Flags().IntVar(&f.topN, "top-n", 0, "Keep only top N most intense peaks (0 = no limit)")
	cmd.Flags().Float64Var(&f.cutoffPercent, "cutoff", 0, "Intensity cutoff as % of base peak (0 = no cutoff)")
	cmd.Flags().Float64Var(&f.minMass, "min-mass", 0, "Drop peaks below this mass or m/z (0 = no limit)")
	cmd.Flags().Float64Var(&f.maxMass, "max-mass", 0, "Drop peaks above this mass or m/z (0 = no limit)")
	cmd.Flags().BoolVar(&f.renormalize, "renormalize", false, "Normalize intensities again after filtering")
}

// build validates the flags and returns the calculator and filter configs.
// The filter config is nil when no filter flag is set.
func (f *calcFlags) build() (isotope.Config, *filter.Config, error) {
	norm, err := core.ParseNormalization(f.normalization)
	if err != nil {
		return isotope.Config{}, nil, err
	}

	cfg := isotope.DefaultConfig()
	cfg.FineResolution = f.fineResolution
	cfg.MinProbability = f.minProbability
	cfg.Normalization = norm
	if err := cfg.Validate(); err != nil {
		return isotope.Config{}, nil, err
	}

	filters := &filter.Config{
		TopN:            f.topN,
		IntensityCutoff: f.cutoffPercent,
		MinMass:         f.minMass,
		MaxMass:         f.maxMass,
		Renormalize:     f.renormalize,
	}
	if filters.IsZero() {
		return cfg, nil, nil
	}
	if err := filters.Validate(); err != nil {
		return isotope.Config{}, nil, err
	}
	return cfg, filters, nil
}
