// Package isotope computes fine-grained theoretical isotope distributions.
//
// Given an elemental composition, the calculator produces the mass spectrum
// generated by all combinations of naturally occurring isotopes. The work is
// split into five stages:
//
//   - building per-element isotope weights (normalized abundances, their
//     logarithms and masses quantized to the mass resolution);
//   - enumerating, per element, the statistically significant isotope-count
//     combinations inside a ±10σ window and scoring each with its exact
//     multinomial probability;
//   - merging near-duplicate terms in several passes of increasing threshold;
//   - convolving the per-element term lists pairwise into one list for the
//     molecule, pruning products below the probability floor;
//   - normalizing the result into an ascending mass/intensity spectrum.
//
// Enumeration is guarded: an element whose window product exceeds 1e13
// combinations, or which has more than ten isotopes present, fails with an
// *UnsupportedSizeError instead of being attempted. Callers can retry with a
// coarser FineResolution.
//
// A Calculator is safe for concurrent use. The only state shared between
// calls is the log-factorial table, which grows under a mutex.
//
// Example:
//
//	calc := isotope.NewCalculator(elements.DefaultTable(), nil)
//	spec, err := calc.ComputeDistribution(ctx, core.Composition{"C": 2, "H": 3, "N": 1, "O": 1}, isotope.DefaultConfig())
//	if err != nil {
//		// errors.Is(err, isotope.ErrUnsupportedSize) for oversized formulas
//	}
//	for _, p := range spec.Peaks {
//		fmt.Printf("%.5f\t%.6f\n", p.Mass, p.Intensity)
//	}
package isotope
