package isotope

import (
	"context"
	"math"
	"sort"
)

// maxDenseBuckets caps the dense accumulator; wider spans use a map.
const maxDenseBuckets = 1 << 22

// bucket accumulates probability and probability-weighted power.
type bucket struct {
	weightedPower float64
	probability   float64
}

// Convolve combines two term lists: every pair contributes the product of
// its probabilities at the sum of its powers, accumulated into buckets
// spacing daltons wide. Products below minProbability are skipped. The
// result is ordered by power.
func Convolve(ctx context.Context, a, b []Term, spacing, minProbability, massResolution float64) ([]Term, error) {
	if len(a) == 0 || len(b) == 0 {
		return nil, nil
	}

	minA, maxA := powerRange(a)
	minB, maxB := powerRange(b)
	lo := minA + minB
	delta := spacing / massResolution
	span := int(math.Round((maxA+maxB-lo)/delta)) + 1

	index := func(power float64) int {
		return int(math.Round((power - lo) / delta))
	}

	if span <= maxDenseBuckets {
		buckets := make([]bucket, span)
		for _, ta := range a {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			for _, tb := range b {
				p := ta.Probability * tb.Probability
				if p == 0 || p < minProbability {
					continue
				}
				power := ta.Power + tb.Power
				bk := &buckets[index(power)]
				bk.weightedPower += power * p
				bk.probability += p
			}
		}

		var out []Term
		for _, bk := range buckets {
			if bk.probability > 0 {
				out = append(out, Term{Power: bk.weightedPower / bk.probability, Probability: bk.probability})
			}
		}
		return out, nil
	}

	sparse := make(map[int]*bucket)
	for _, ta := range a {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, tb := range b {
			p := ta.Probability * tb.Probability
			if p == 0 || p < minProbability {
				continue
			}
			power := ta.Power + tb.Power
			i := index(power)
			bk, ok := sparse[i]
			if !ok {
				bk = &bucket{}
				sparse[i] = bk
			}
			bk.weightedPower += power * p
			bk.probability += p
		}
	}

	keys := make([]int, 0, len(sparse))
	for i := range sparse {
		keys = append(keys, i)
	}
	sort.Ints(keys)

	out := make([]Term, 0, len(keys))
	for _, i := range keys {
		bk := sparse[i]
		out = append(out, Term{Power: bk.weightedPower / bk.probability, Probability: bk.probability})
	}
	return out, nil
}

func powerRange(terms []Term) (float64, float64) {
	lo, hi := terms[0].Power, terms[0].Power
	for _, t := range terms[1:] {
		lo = math.Min(lo, t.Power)
		hi = math.Max(hi, t.Power)
	}
	return lo, hi
}
