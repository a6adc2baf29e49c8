package isotope

import (
	"sort"

	"github.com/ChrisMcGann/IsoDist/pkg/core"
)

// normalizeTerms converts terms into an ascending peak list scaled by mode.
// It returns nil when no term carries probability.
func normalizeTerms(terms []Term, mode core.Normalization, massResolution float64) []core.Peak {
	var total, highest float64
	for _, t := range terms {
		total += t.Probability
		if t.Probability > highest {
			highest = t.Probability
		}
	}
	if total <= 0 {
		return nil
	}

	divisor := total
	if mode == core.NormalizeBasePeak {
		divisor = highest
	}

	peaks := make([]core.Peak, 0, len(terms))
	for _, t := range terms {
		if t.Probability <= 0 {
			continue
		}
		peaks = append(peaks, core.Peak{
			Mass:      t.Power * massResolution,
			Intensity: t.Probability / divisor,
		})
	}
	sort.Slice(peaks, func(i, j int) bool { return peaks[i].Mass < peaks[j].Mass })
	return peaks
}
