package feature

import (
	"math"
	"math/rand"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
)

func TestComputePairFeature_Degenerate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		p1, n1, p2, n2 r3.Vector
	}{
		{
			name: "coincident points",
			p1:   r3.Vector{X: 1, Y: 2, Z: 3}, n1: r3.Vector{Z: 1},
			p2: r3.Vector{X: 1, Y: 2, Z: 3}, n2: r3.Vector{X: 1},
		},
		{
			name: "pair vector parallel to reference normal",
			p1:   r3.Vector{}, n1: r3.Vector{Z: 1},
			p2: r3.Vector{Z: 2}, n2: r3.Vector{Z: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := ComputePairFeature(tt.p1, tt.n1, tt.p2, tt.n2)
			assert.True(t, f.IsZero(), "got %+v", f)
		})
	}
}

func TestComputePairFeature_CoplanarNormals(t *testing.T) {
	t.Parallel()

	f := ComputePairFeature(r3.Vector{}, r3.Vector{Z: 1}, r3.Vector{X: 1}, r3.Vector{Z: 1})
	assert.InDelta(t, 0, f.Alpha, 1e-12)
	assert.InDelta(t, 0, f.Phi, 1e-12)
	assert.InDelta(t, 0, f.Theta, 1e-12)
	assert.InDelta(t, 1, f.Distance, 1e-12)

	alpha, phi, theta := f.Bins()
	assert.Equal(t, 5, alpha)
	assert.Equal(t, 5, phi)
	assert.Equal(t, 5, theta)
}

func TestComputePairFeature_SwapsToSmallerAngle(t *testing.T) {
	t.Parallel()

	tilt := 0.3
	tilted := r3.Vector{X: math.Sin(tilt), Z: math.Cos(tilt)}
	up := r3.Vector{Z: 1}

	// n2 makes the smaller angle with the pair vector, so it becomes the
	// reference normal.
	f := ComputePairFeature(r3.Vector{}, up, r3.Vector{X: 1}, tilted)
	assert.InDelta(t, tilt, f.Alpha, 1e-12)
	assert.InDelta(t, 0, f.Phi, 1e-12)
	assert.InDelta(t, -math.Sin(tilt), f.Theta, 1e-12)
	assert.InDelta(t, 1, f.Distance, 1e-12)

	g := ComputePairFeature(r3.Vector{X: 1}, tilted, r3.Vector{}, up)
	assert.InDelta(t, f.Alpha, g.Alpha, 1e-12)
	assert.InDelta(t, f.Phi, g.Phi, 1e-12)
	assert.InDelta(t, f.Theta, g.Theta, 1e-12)
	assert.InDelta(t, f.Distance, g.Distance, 1e-12)
}

func randomUnit(rng *rand.Rand) r3.Vector {
	for {
		v := r3.Vector{X: rng.NormFloat64(), Y: rng.NormFloat64(), Z: rng.NormFloat64()}
		if n := v.Norm(); n > 1e-6 {
			return v.Mul(1 / n)
		}
	}
}

func TestComputePairFeature_OrderIndependent(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		p1 := r3.Vector{X: rng.Float64(), Y: rng.Float64(), Z: rng.Float64()}
		p2 := r3.Vector{X: rng.Float64(), Y: rng.Float64(), Z: rng.Float64()}
		n1, n2 := randomUnit(rng), randomUnit(rng)

		f := ComputePairFeature(p1, n1, p2, n2)
		g := ComputePairFeature(p2, n2, p1, n1)
		assert.InDelta(t, f.Alpha, g.Alpha, 1e-9, "pair %d", i)
		assert.InDelta(t, f.Phi, g.Phi, 1e-9, "pair %d", i)
		assert.InDelta(t, f.Theta, g.Theta, 1e-9, "pair %d", i)
		assert.InDelta(t, f.Distance, g.Distance, 1e-12, "pair %d", i)
	}
}

func TestComputePairFeature_Ranges(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 500; i++ {
		p1 := r3.Vector{X: rng.Float64(), Y: rng.Float64(), Z: rng.Float64()}
		p2 := r3.Vector{X: rng.Float64(), Y: rng.Float64(), Z: rng.Float64()}
		f := ComputePairFeature(p1, randomUnit(rng), p2, randomUnit(rng))
		assert.LessOrEqual(t, math.Abs(f.Alpha), math.Pi)
		assert.LessOrEqual(t, math.Abs(f.Phi), 1+1e-12)
		assert.LessOrEqual(t, math.Abs(f.Theta), 1+1e-12)
		assert.InDelta(t, p1.Distance(p2), f.Distance, 1e-12)
	}
}

func TestPairFeature_Bins(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name              string
		f                 PairFeature
		alpha, phi, theta int
	}{
		{"lower edges", PairFeature{Alpha: -math.Pi, Phi: -1, Theta: -1}, 0, 0, 0},
		{"upper edges clamp", PairFeature{Alpha: math.Pi, Phi: 1, Theta: 1}, 10, 10, 10},
		{"centre", PairFeature{}, 5, 5, 5},
		{"out of range clamps", PairFeature{Alpha: -4, Phi: 1.5, Theta: -1.5}, 0, 10, 0},
		{"interior", PairFeature{Alpha: math.Pi / 2, Phi: 0.5, Theta: -0.5}, 8, 8, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alpha, phi, theta := tt.f.Bins()
			assert.Equal(t, tt.alpha, alpha, "alpha")
			assert.Equal(t, tt.phi, phi, "phi")
			assert.Equal(t, tt.theta, theta, "theta")
		})
	}
}
