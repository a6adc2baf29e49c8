package isotope

import (
	"fmt"

	"github.com/ChrisMcGann/IsoDist/pkg/elements"
)

// fakeSource serves hand-built isotope lists for synthetic elements.
type fakeSource map[string][]elements.Isotope

func (f fakeSource) Isotopes(symbol string) ([]elements.Isotope, error) {
	iso, ok := f[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: %s", elements.ErrUnknownElement, symbol)
	}
	return append([]elements.Isotope(nil), iso...), nil
}

// uniformElement returns n isotopes of equal abundance one dalton apart.
func uniformElement(n int) []elements.Isotope {
	out := make([]elements.Isotope, n)
	for i := range out {
		out[i] = elements.Isotope{MassNumber: 100 + i, Mass: float64(100 + i), Abundance: 1 / float64(n)}
	}
	return out
}

// twoIsotopeElement has masses 1 and 2 with abundances 0.7 and 0.3.
var twoIsotopeElement = []elements.Isotope{
	{MassNumber: 1, Mass: 1.0, Abundance: 0.7},
	{MassNumber: 2, Mass: 2.0, Abundance: 0.3},
}

func mustBuild(src IsotopeSource, symbol string, atoms int) elementWeights {
	els, _, err := buildElements(map[string]int{symbol: atoms}, src, DefaultMassResolution)
	if err != nil {
		panic(err)
	}
	return els[0]
}

func sumProbability(terms []Term) float64 {
	total := 0.0
	for _, t := range terms {
		total += t.Probability
	}
	return total
}
