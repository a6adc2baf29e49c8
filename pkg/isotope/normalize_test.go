package isotope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChrisMcGann/IsoDist/pkg/core"
)

func TestNormalizeTerms(t *testing.T) {
	terms := []Term{
		termAt(3, 0.2),
		termAt(1, 0.4),
		termAt(2, 0),
		termAt(4, 0.2),
	}

	sum := normalizeTerms(terms, core.NormalizeSum, DefaultMassResolution)
	require.Len(t, sum, 3)
	assert.InDelta(t, 1.0, sum[0].Mass, 1e-12)
	assert.InDelta(t, 0.5, sum[0].Intensity, 1e-15)
	assert.InDelta(t, 0.25, sum[1].Intensity, 1e-15)
	assert.InDelta(t, 4.0, sum[2].Mass, 1e-12)

	base := normalizeTerms(terms, core.NormalizeBasePeak, DefaultMassResolution)
	require.Len(t, base, 3)
	assert.Equal(t, 1.0, base[0].Intensity)
	assert.InDelta(t, 0.5, base[1].Intensity, 1e-15)
}

func TestNormalizeTerms_Empty(t *testing.T) {
	assert.Nil(t, normalizeTerms(nil, core.NormalizeSum, DefaultMassResolution))
	assert.Nil(t, normalizeTerms([]Term{{Power: 1, Probability: 0}}, core.NormalizeBasePeak, DefaultMassResolution))
}
