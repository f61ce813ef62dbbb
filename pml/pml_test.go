package pml

import (
	"math"
	"testing"

	"github.com/phil-mansfield/gopic/geom"
	"github.com/stretchr/testify/assert"
)

func jGrid(n int) *geom.Grid {
	g := geom.NewGrid([3]int{0, 0, 0}, [3]int{n, n, n},
		[3]geom.Centering{geom.Node, geom.Node, geom.Node})
	for i := range g.Vals {
		g.Vals[i] = float64(i%7) - 3
	}
	return g
}

func TestProfileInterior(t *testing.T) {
	p := NewProfile(0, 32, 8, 2.0, 3.0)
	for i := 8; i <= 24; i++ {
		assert.Equal(t, 0.0, p.Sigma[i], "interior sigma at %d", i)
		assert.Equal(t, 1.0, p.Fac[i], "interior factor at %d", i)
	}
	// Damping grows monotonically into the layer.
	for i := 1; i <= 8; i++ {
		if p.Fac[i] < p.Fac[i-1] {
			t.Errorf("Decay factor not monotone at %d: %g < %g.",
				i, p.Fac[i], p.Fac[i-1])
		}
	}
	for i := range p.Fac {
		if p.Fac[i] <= 0 || p.Fac[i] > 1 {
			t.Errorf("Decay factor out of (0, 1] at %d: %g", i, p.Fac[i])
		}
	}
}

// Damping with unit profiles must be a no-op, applied once or twice.
func TestDampUnitProfileNoOp(t *testing.T) {
	n := 8
	jx := jGrid(n)
	want := jGrid(n)
	unit := NewUnitProfile(0, n)

	for pass := 0; pass < 2; pass++ {
		for l := 0; l < n; l++ {
			for k := 0; k < n; k++ {
				for j := 0; j < n; j++ {
					DampJx(j, k, l, jx, unit, unit, unit, true)
				}
			}
		}
	}
	assert.Equal(t, want.Vals, jx.Vals)
}

func TestDampNeverIncreases(t *testing.T) {
	n := 16
	jx, jy, jz := jGrid(n), jGrid(n), jGrid(n)
	before := jGrid(n)
	sig := NewProfile(0, n, 4, 3.0, 2.0)

	for l := 0; l < n; l++ {
		for k := 0; k < n; k++ {
			for j := 0; j < n; j++ {
				DampJx(j, k, l, jx, sig, sig, sig, true)
				DampJy(j, k, l, jy, sig, sig, sig, true)
				DampJz(j, k, l, jz, sig, sig, sig, true)
			}
		}
	}

	for _, g := range []*geom.Grid{jx, jy, jz} {
		for i := range g.Vals {
			if math.Abs(g.Vals[i]) > math.Abs(before.Vals[i])+1e-15 {
				t.Fatalf("|j| grew at %d: %g -> %g.",
					i, before.Vals[i], g.Vals[i])
			}
		}
	}
}

func TestDamp2DUsesTwoAxes(t *testing.T) {
	n := 8
	jx := jGrid(n)
	sigx := NewProfile(0, n, 2, 1.0, 2.0)
	sigz := NewProfile(0, n, 2, 1.0, 2.0)

	want := jx.At(0, 0, 0, 0) * sigx.AtStar(0) * sigz.At(0)
	DampJx(0, 0, 0, jx, sigx, nil, sigz, false)
	assert.InDelta(t, want, jx.At(0, 0, 0, 0), 1e-15)
}

func TestAlphaSplitTieBreak(t *testing.T) {
	a1, a2 := AlphaSplit(0, 0)
	assert.Equal(t, 0.5, a1)
	assert.Equal(t, 0.5, a2)
}

func TestAlphaSplitSumsToOne(t *testing.T) {
	cases := [][2]float64{{1, 0}, {0, 2.5}, {0.3, 0.7}, {5, 5}, {1e-12, 3}}
	for _, c := range cases {
		a1, a2 := AlphaSplit(c[0], c[1])
		assert.InDelta(t, 1.0, a1+a2, 1e-15, "sigmas %v", c)
		assert.True(t, a1 >= 0 && a2 >= 0, "sigmas %v", c)
	}
}

func TestPushExCurrentSplit(t *testing.T) {
	n := 8
	ex := geom.NewMultiGrid([3]int{0, 0, 0}, [3]int{n, n, n},
		[3]geom.Centering{geom.Node, geom.Node, geom.Node}, 2)
	jx := jGrid(n)
	sig := NewProfile(0, n, 2, 1.5, 2.0)
	muC2Dt := 0.25

	// Interior cell: both sigmas are zero, so the push splits evenly.
	j, k, l := 4, 4, 4
	PushExCurrent(j, k, l, ex, jx, sig, sig, muC2Dt, true)
	want := -muC2Dt * 0.5 * jx.At(j, k, l, 0)
	assert.InDelta(t, want, ex.At(j, k, l, 0), 1e-15)
	assert.InDelta(t, want, ex.At(j, k, l, 1), 1e-15)

	// Boundary cell: the two split contributions still sum to the full push.
	j, k, l = 4, 1, 0
	PushExCurrent(j, k, l, ex, jx, sig, sig, muC2Dt, true)
	total := ex.At(j, k, l, 0) + ex.At(j, k, l, 1)
	assert.InDelta(t, -muC2Dt*jx.At(j, k, l, 0), total, 1e-15)
}
