package isotope

import (
	"context"
	"math"
)

const (
	maxCombinations = 1e13
	maxIsotopes     = 10

	// Window half-width is addConst + spreadFactor standard deviations.
	spreadFactor   = 10.0
	largeAtomCount = 10000

	cancelCheckEvery = 1 << 12
)

var logMaxCombinations = math.Log(maxCombinations)

// Term is a weighted quantized mass. Power is in units of the mass
// resolution; a Probability of 0 marks a merged-away term.
type Term struct {
	Power       float64
	Probability float64
}

// window is the inclusive range of isotope counts worth enumerating.
type window struct {
	lo, hi int
}

func (w window) size() int { return w.hi - w.lo + 1 }

// isotopeWindow bounds the count of an isotope with probability p among n
// atoms to mean ± ceil(addConst + 10σ), clamped to [0, n].
func isotopeWindow(n int, p float64) window {
	addConst := 1.0
	if n > largeAtomCount {
		addConst = 10
	}
	mean := float64(n) * p
	std := math.Ceil(addConst + spreadFactor*math.Sqrt(float64(n)*p*(1-p)))

	lo := int(math.Ceil(mean - std))
	if lo < 0 {
		lo = 0
	}
	hi := int(math.Floor(mean + std))
	if hi > n {
		hi = n
	}
	return window{lo: lo, hi: hi}
}

// enumerateElement lists the significant isotope-count combinations of one
// element with their multinomial probabilities. Every isotope but the last
// is driven by an odometer over its window; the last takes the remaining
// atoms and must fall inside its own window.
func enumerateElement(ctx context.Context, el elementWeights, lf *LogFactorials, minProbability float64) ([]Term, error) {
	m := len(el.Isotopes)
	n := el.Atoms

	if m == 1 {
		return []Term{{Power: float64(n) * el.Isotopes[0].Power, Probability: 1}}, nil
	}
	if m > maxIsotopes {
		return nil, &UnsupportedSizeError{Element: el.Symbol, Atoms: n, Isotopes: m}
	}

	windows := make([]window, m)
	logCombinations := 0.0
	for i, iso := range el.Isotopes {
		windows[i] = isotopeWindow(n, iso.Probability)
		if i < m-1 {
			logCombinations += math.Log(float64(windows[i].size()))
		}
	}
	if logCombinations > logMaxCombinations {
		return nil, &UnsupportedSizeError{Element: el.Symbol, Atoms: n, Isotopes: m, LogCombinations: logCombinations}
	}

	table := lf.upTo(n)
	logFact := func(k int) float64 {
		if k < len(table) {
			return table[k]
		}
		return lgammaFactorial(k)
	}
	last := el.Isotopes[m-1]
	lastWindow := windows[m-1]

	free := m - 1
	counts := make([]int, free)
	for i := range counts {
		counts[i] = windows[i].lo
	}

	var terms []Term
	for iter := 0; ; iter++ {
		if iter%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		sum := 0
		for _, k := range counts {
			sum += k
		}

		if kLast := n - sum; kLast >= lastWindow.lo && kLast <= lastWindow.hi {
			logP := logFact(n) - logFact(kLast) + float64(kLast)*last.LogProbability
			power := float64(kLast) * last.Power
			for i, k := range counts {
				logP += float64(k)*el.Isotopes[i].LogProbability - logFact(k)
				power += float64(k) * el.Isotopes[i].Power
			}
			if p := math.Exp(logP); p > 0 && p >= minProbability {
				terms = append(terms, Term{Power: power, Probability: p})
			}
		}

		i := 0
		for ; i < free; i++ {
			if counts[i] < windows[i].hi {
				counts[i]++
				break
			}
			counts[i] = windows[i].lo
		}
		if i == free {
			break
		}
	}

	return terms, nil
}
