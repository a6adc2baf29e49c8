package isotope

import (
	"fmt"
	"math"

	"github.com/ChrisMcGann/IsoDist/pkg/core"
	"github.com/ChrisMcGann/IsoDist/pkg/elements"
)

// IsotopeSource supplies isotope masses and abundances for a symbol.
// *elements.Table implements it.
type IsotopeSource interface {
	Isotopes(symbol string) ([]elements.Isotope, error)
}

// IsotopeWeight is one isotope of an element prepared for enumeration.
type IsotopeWeight struct {
	MassNumber     int
	Atoms          int     // Atoms of the element in the molecule
	Probability    float64 // Abundance normalized within the element
	LogProbability float64
	Mass           float64
	Power          float64 // round(Mass / massResolution)
}

// elementWeights groups the isotope weights of one element.
type elementWeights struct {
	Symbol   string
	Atoms    int
	Isotopes []IsotopeWeight
}

// buildElements turns a composition into per-element isotope weights and
// returns them with the approximate monoisotopic mass of the molecule.
func buildElements(comp core.Composition, source IsotopeSource, massResolution float64) ([]elementWeights, float64, error) {
	var (
		out      []elementWeights
		monoMass float64
	)

	for _, sym := range comp.Symbols() {
		n := comp[sym]
		if n <= 0 {
			continue
		}

		isotopes, err := source.Isotopes(sym)
		if err != nil {
			return nil, 0, fmt.Errorf("element %s: %w", sym, err)
		}

		total := 0.0
		for _, iso := range isotopes {
			if iso.Abundance > 0 {
				total += iso.Abundance
			}
		}
		if total <= 0 {
			return nil, 0, fmt.Errorf("%w: element %s has no isotope with non-zero abundance", ErrInvalidComposition, sym)
		}

		el := elementWeights{Symbol: sym, Atoms: n}
		var principal IsotopeWeight
		for _, iso := range isotopes {
			if iso.Abundance <= 0 {
				continue
			}
			p := iso.Abundance / total
			w := IsotopeWeight{
				MassNumber:     iso.MassNumber,
				Atoms:          n,
				Probability:    p,
				LogProbability: math.Log(p),
				Mass:           iso.Mass,
				Power:          math.Round(iso.Mass / massResolution),
			}
			if w.Probability > principal.Probability {
				principal = w
			}
			el.Isotopes = append(el.Isotopes, w)
		}

		monoMass += float64(n) * principal.Mass
		out = append(out, el)
	}

	return out, monoMass, nil
}
