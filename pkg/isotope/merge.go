package isotope

import (
	"math"
	"sort"
)

// mergePasses is the number of fractional threshold passes before the
// final one at 1.01 × mergeResolution.
const mergePasses = 8

// MergeTerms collapses terms whose masses lie within mergeResolution daltons
// of each other into probability-weighted means. It sorts terms by power in
// place, runs passes at k/8 of the resolution (k = 1..8) and a last pass at
// 1.01×, then drops tombstones. The result is a fixed point: merging it
// again returns an identical list.
func MergeTerms(terms []Term, mergeResolution, massResolution float64) []Term {
	sort.Slice(terms, func(i, j int) bool { return terms[i].Power < terms[j].Power })

	for k := 1; k <= mergePasses+1; k++ {
		threshold := float64(k) * mergeResolution / mergePasses
		if k > mergePasses {
			threshold = mergeResolution * 1.01
		}
		mergePass(terms, threshold, massResolution)
	}

	return compactTerms(terms)
}

// mergePass absorbs, for each live term, the following terms within
// threshold. Absorbed terms become tombstones.
func mergePass(terms []Term, threshold, massResolution float64) {
	for i := range terms {
		if terms[i].Probability == 0 {
			continue
		}
		for j := i + 1; j < len(terms); j++ {
			if terms[j].Probability == 0 {
				continue
			}
			if math.Abs(terms[j].Power-terms[i].Power)*massResolution > threshold {
				break
			}
			absorb(&terms[i], terms[j])
			terms[j].Probability = 0
		}
	}
}

// absorb folds t into acc as a probability-weighted mean power.
func absorb(acc *Term, t Term) {
	total := acc.Probability + t.Probability
	acc.Power = (acc.Power*acc.Probability + t.Power*t.Probability) / total
	acc.Probability = total
}

// compactTerms drops tombstones, reusing the backing array.
func compactTerms(terms []Term) []Term {
	out := terms[:0]
	for _, t := range terms {
		if t.Probability != 0 {
			out = append(out, t)
		}
	}
	return out
}
