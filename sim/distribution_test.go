package sim

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTriangular_Validation(t *testing.T) {
	_, err := NewTriangular(0.9, 1.0, 1.2)
	require.NoError(t, err)

	for name, tri := range map[string][3]float64{
		"min equals max":  {1, 1, 1},
		"min above max":   {2, 1.5, 1},
		"mode below min":  {1, 0.5, 2},
		"mode above max":  {1, 3, 2},
		"non-finite mode": {1, math.NaN(), 2},
	} {
		_, err := NewTriangular(tri[0], tri[1], tri[2])
		assert.Error(t, err, name)
	}
}

func TestTriangular_SampleWithinSupportAndMean(t *testing.T) {
	// GIVEN the rain duration multiplier
	tri := Triangular{Min: 1.1, Mode: 1.25, Max: 1.5}
	rng := rand.New(rand.NewSource(3))

	// WHEN sampled many times
	const n = 50000
	sum := 0.0
	for i := 0; i < n; i++ {
		x := tri.Sample(rng)
		require.GreaterOrEqual(t, x, tri.Min)
		require.LessOrEqual(t, x, tri.Max)
		sum += x
	}

	// THEN the empirical mean approaches (min+mode+max)/3
	assert.InDelta(t, tri.Mean(), sum/n, 0.005)
}

func TestTriangular_SampleDeterministic(t *testing.T) {
	tri := Triangular{Min: 0, Mode: 1, Max: 4}
	a := rand.New(rand.NewSource(11))
	b := rand.New(rand.NewSource(11))
	for i := 0; i < 20; i++ {
		assert.Equal(t, tri.Sample(a), tri.Sample(b))
	}
}

func TestTriangular_DegenerateDoesNotPanic(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	assert.Equal(t, 2.0, Triangular{Min: 2, Mode: 2, Max: 2}.Sample(rng))
	assert.Equal(t, 3.0, Triangular{Min: 1, Mode: 9, Max: 3}.Sample(rng))
}

func TestNormalCDF(t *testing.T) {
	assert.InDelta(t, 0.5, NormalCDF(10, 10, 2), 1e-12)
	assert.InDelta(t, 0.975, NormalCDF(1.96, 0, 1), 1e-3)
	assert.Equal(t, 0.0, NormalCDF(-1, 0, 0))
	assert.Equal(t, 1.0, NormalCDF(0, 0, 0))
}
