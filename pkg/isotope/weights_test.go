package isotope

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChrisMcGann/IsoDist/pkg/core"
	"github.com/ChrisMcGann/IsoDist/pkg/elements"
)

func TestBuildElements_Water(t *testing.T) {
	els, mono, err := buildElements(core.Composition{"H": 2, "O": 1}, elements.DefaultTable(), DefaultMassResolution)
	require.NoError(t, err)
	require.Len(t, els, 2)

	assert.Equal(t, "H", els[0].Symbol)
	assert.Equal(t, "O", els[1].Symbol)
	assert.InDelta(t, 18.0105646837, mono, 1e-9)

	for _, el := range els {
		total := 0.0
		for _, w := range el.Isotopes {
			total += w.Probability
			assert.Equal(t, el.Atoms, w.Atoms)
			assert.InDelta(t, math.Log(w.Probability), w.LogProbability, 1e-15)
			assert.Equal(t, math.Round(w.Mass/DefaultMassResolution), w.Power)
		}
		assert.InDelta(t, 1.0, total, 1e-12, "element %s", el.Symbol)
	}
	assert.Len(t, els[1].Isotopes, 3)
}

func TestBuildElements_NormalizesAndDropsZeroAbundance(t *testing.T) {
	src := fakeSource{
		"X": {
			{MassNumber: 1, Mass: 1, Abundance: 2},
			{MassNumber: 2, Mass: 2, Abundance: 0},
			{MassNumber: 3, Mass: 3, Abundance: 6},
		},
	}

	els, mono, err := buildElements(core.Composition{"X": 4}, src, DefaultMassResolution)
	require.NoError(t, err)
	require.Len(t, els, 1)
	require.Len(t, els[0].Isotopes, 2)

	assert.Equal(t, 1, els[0].Isotopes[0].MassNumber)
	assert.InDelta(t, 0.25, els[0].Isotopes[0].Probability, 1e-15)
	assert.InDelta(t, 0.75, els[0].Isotopes[1].Probability, 1e-15)
	assert.InDelta(t, 12.0, mono, 1e-12, "monoisotopic mass uses the most abundant isotope")
}

func TestBuildElements_SkipsNonPositiveCounts(t *testing.T) {
	els, _, err := buildElements(core.Composition{"C": 0, "H": 2}, elements.DefaultTable(), DefaultMassResolution)
	require.NoError(t, err)
	require.Len(t, els, 1)
	assert.Equal(t, "H", els[0].Symbol)
}

func TestBuildElements_Errors(t *testing.T) {
	_, _, err := buildElements(core.Composition{"Xx": 1}, elements.DefaultTable(), DefaultMassResolution)
	assert.ErrorIs(t, err, elements.ErrUnknownElement)

	src := fakeSource{"Z": {{MassNumber: 1, Mass: 1, Abundance: 0}}}
	_, _, err = buildElements(core.Composition{"Z": 1}, src, DefaultMassResolution)
	assert.ErrorIs(t, err, ErrInvalidComposition)
}
