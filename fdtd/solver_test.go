package fdtd

import (
	"math"
	"testing"

	"github.com/phil-mansfield/gopic/geom"
	"github.com/phil-mansfield/gopic/phys"
	"github.com/phil-mansfield/gopic/rand"
	"github.com/stretchr/testify/assert"
)

func nodal(width [3]int, ncomp int) *geom.Grid {
	return geom.NewMultiGrid([3]int{0, 0, 0}, width,
		[3]geom.Centering{geom.Node, geom.Node, geom.Node}, ncomp)
}

func fieldSet3D(n int, v float64) [3]*geom.Grid {
	var f [3]*geom.Grid
	for a := 0; a < 3; a++ {
		f[a] = nodal([3]int{n, n, n}, 1)
		f[a].Fill(v)
	}
	return f
}

func randomFill(g *geom.Grid, gen *rand.Generator) {
	for i := range g.Vals {
		g.Vals[i] = gen.Uniform(-1, 1)
	}
}

func TestCoefsLinearExactness(t *testing.T) {
	cell := [3]float64{0.5, 0.7, 0.9}
	for _, alg := range []Algorithm{Yee, CKC} {
		cx, cy, cz := InitCoefs(alg, cell, false)
		for a, c := range []Coefs{cx, cy, cz} {
			sum := c.Alpha + 2*c.BetaA + 2*c.BetaB + 4*c.Gamma
			assert.InDelta(t, 1/cell[a], sum, 1e-14,
				"alg %d axis %d", alg, a)
		}
	}
}

// The upward derivative of a field linear in x must be exactly the slope for
// every algorithm, since the transverse weights see the same x difference.
func TestUpwardDxLinearField(t *testing.T) {
	n, slope := 8, 1.75
	cell := [3]float64{0.25, 0.25, 0.25}
	f := nodal([3]int{n, n, n}, 1)
	for k := 0; k < n; k++ {
		for j := 0; j < n; j++ {
			for i := 0; i < n; i++ {
				f.Set(i, j, k, 0, slope*cell[0]*float64(i))
			}
		}
	}

	for _, alg := range []Algorithm{Yee, CKC} {
		cx, _, _ := InitCoefs(alg, cell, false)
		got := UpwardDx(f, &cx, 3, 3, 3, 0)
		assert.InDelta(t, slope, got, 1e-12, "alg %d", alg)
	}
}

// A uniform field in vacuum is a static Maxwell solution; a full leapfrog
// step must leave it bit-for-bit unchanged for both algorithms.
func TestUniformFieldsAreStatic(t *testing.T) {
	n := 10
	for _, alg := range []Algorithm{Yee, CKC} {
		s := New(alg, geom.Cart3D, [3]float64{0.5, 0.5, 0.5}, 0, 0)
		e := fieldSet3D(n, 3.0)
		b := fieldSet3D(n, -2.0)
		j := fieldSet3D(n, 0)
		dt := 1e-10

		s.EvolveB(b, e, dt/2)
		s.EvolveE(e, b, j, nil, dt)
		s.EvolveB(b, e, dt/2)

		for a := 0; a < 3; a++ {
			for _, v := range e[a].Vals {
				assert.Equal(t, 3.0, v, "alg %d E%d", alg, a)
			}
			for _, v := range b[a].Vals {
				assert.Equal(t, -2.0, v, "alg %d B%d", alg, a)
			}
		}
	}
}

func TestUniformFieldsAreStatic2D(t *testing.T) {
	n := 12
	for _, alg := range []Algorithm{Yee, CKC} {
		s := New(alg, geom.Cart2D, [3]float64{0.5, 0.25, 0}, 0, 0)
		var e, b, j [3]*geom.Grid
		for a := 0; a < 3; a++ {
			e[a] = nodal([3]int{n, n, 1}, 1)
			b[a] = nodal([3]int{n, n, 1}, 1)
			j[a] = nodal([3]int{n, n, 1}, 1)
			e[a].Fill(1.5)
			b[a].Fill(0.5)
		}
		dt := 1e-10

		s.EvolveB(b, e, dt/2)
		s.EvolveE(e, b, j, nil, dt)
		s.EvolveB(b, e, dt/2)

		for a := 0; a < 3; a++ {
			for _, v := range e[a].Vals {
				assert.Equal(t, 1.5, v, "alg %d E%d", alg, a)
			}
			for _, v := range b[a].Vals {
				assert.Equal(t, 0.5, v, "alg %d B%d", alg, a)
			}
		}
	}
}

// The discrete divergence of the curl vanishes, so B seeded at zero stays
// divergence-free after EvolveB no matter what E looks like.
func TestEvolveBPreservesDivB(t *testing.T) {
	n := 12
	dx := [3]float64{0.5, 0.5, 0.5}
	gen := rand.New(rand.Xorshift, 17)

	s := New(Yee, geom.Cart3D, dx, 0, 0)
	e := fieldSet3D(n, 0)
	b := fieldSet3D(n, 0)
	for a := 0; a < 3; a++ {
		randomFill(e[a], gen)
	}

	s.EvolveB(b, e, 1e-3)

	// Only check cells whose entire stencil was updated.
	for k := 1; k < n-2; k++ {
		for j := 1; j < n-2; j++ {
			for i := 1; i < n-2; i++ {
				div := (b[0].At(i+1, j, k, 0)-b[0].At(i, j, k, 0))/dx[0] +
					(b[1].At(i, j+1, k, 0)-b[1].At(i, j, k, 0))/dx[1] +
					(b[2].At(i, j, k+1, 0)-b[2].At(i, j, k, 0))/dx[2]
				if math.Abs(div) > 1e-12 {
					t.Fatalf("div B = %g at (%d, %d, %d).", div, i, j, k)
				}
			}
		}
	}
}

func TestComputeDivELinearField(t *testing.T) {
	n, a := 10, 2.5
	dx := [3]float64{0.5, 0.5, 0.5}
	s := New(Yee, geom.Cart3D, dx, 0, 0)

	e := fieldSet3D(n, 0)
	for k := 0; k < n; k++ {
		for j := 0; j < n; j++ {
			for i := 0; i < n; i++ {
				e[0].Set(i, j, k, 0, a*dx[0]*float64(i))
			}
		}
	}
	divE := nodal([3]int{n, n, n}, 1)
	s.ComputeDivE(e, divE)

	for k := 1; k < n-1; k++ {
		for j := 1; j < n-1; j++ {
			for i := 1; i < n-1; i++ {
				assert.InDelta(t, a, divE.At(i, j, k, 0), 1e-12)
			}
		}
	}
}

// With no curl and no current, a conducting medium just drains E at the rate
// given by the scheme coefficients.
func TestMacroscopicUniformDecay(t *testing.T) {
	n := 8
	dt := 1e-12
	med := &Medium{Epsilon: phys.Eps0, Mu: phys.Mu0, Sigma: 1e-3}

	for _, scheme := range []MacroscopicScheme{LaxWendroff, BackwardEuler} {
		med.Scheme = scheme
		s := New(Yee, geom.Cart3D, [3]float64{0.5, 0.5, 0.5}, 0, 0)
		e := fieldSet3D(n, 2.0)
		b := fieldSet3D(n, 0)
		j := fieldSet3D(n, 0)

		s.MacroscopicEvolveE(e, b, j, med, dt)

		alpha, _ := med.coefs(dt)
		assert.True(t, alpha < 1 && alpha > 0, "scheme %d", scheme)
		assert.InDelta(t, 2.0*alpha, e[0].At(4, 4, 4, 0), 1e-15,
			"scheme %d", scheme)
	}
}

func TestMacroscopicSchemesAgreeInVacuumLimit(t *testing.T) {
	dt := 1e-12
	lw := &Medium{Epsilon: phys.Eps0, Mu: phys.Mu0, Sigma: 0,
		Scheme: LaxWendroff}
	be := &Medium{Epsilon: phys.Eps0, Mu: phys.Mu0, Sigma: 0,
		Scheme: BackwardEuler}

	a1, b1 := lw.coefs(dt)
	a2, b2 := be.coefs(dt)
	assert.Equal(t, 1.0, a1)
	assert.Equal(t, 1.0, a2)
	assert.InDelta(t, b1, b2, 1e-25)
	assert.InDelta(t, dt/phys.Eps0, b1, 1e-25)
}

func rzFields(n, nModes int) [3]*geom.Grid {
	var f [3]*geom.Grid
	for a := 0; a < 3; a++ {
		f[a] = nodal([3]int{n, n, 1}, geom.ModeComps(nModes))
	}
	return f
}

// Uniform longitudinal fields are static in RZ too, including the axis rows.
func TestUniformFieldsAreStaticRZ(t *testing.T) {
	n, nModes := 12, 2
	s := New(Yee, geom.RZ, [3]float64{0.5, 0.5, 0}, 0, nModes)

	e, b, j := rzFields(n, nModes), rzFields(n, nModes), rzFields(n, nModes)
	e[2].Fill(0)
	b[2].Fill(0)
	for k := 0; k < n; k++ {
		for i := 0; i < n; i++ {
			e[2].Set(i, k, 0, 0, 4.0) // mode 0 only
			b[2].Set(i, k, 0, 0, -1.0)
		}
	}
	dt := 1e-10

	s.EvolveB(b, e, dt/2)
	s.EvolveE(e, b, j, nil, dt)
	s.EvolveB(b, e, dt/2)

	for k := 1; k < n-1; k++ {
		for i := 0; i < n-1; i++ {
			assert.Equal(t, 4.0, e[2].At(i, k, 0, 0), "Ez at (%d, %d)", i, k)
			assert.Equal(t, -1.0, b[2].At(i, k, 0, 0), "Bz at (%d, %d)", i, k)
			for _, g := range []*geom.Grid{e[0], e[1], b[0], b[1]} {
				for c := 0; c < g.NComp; c++ {
					assert.Equal(t, 0.0, g.At(i, k, 0, c))
				}
			}
		}
	}
}

// The radial metric derivative is exact for fields proportional to 1/r, so a
// 1/r radial E field is divergence-free away from the axis.
func TestDivEExactFor1OverR(t *testing.T) {
	n := 12
	dr := 0.5
	rMin := 3.0 // keep the axis out of the domain
	s := New(Yee, geom.RZ, [3]float64{dr, 0.5, 0}, rMin, 1)

	e := rzFields(n, 1)
	for k := 0; k < n; k++ {
		for i := 0; i < n; i++ {
			rHalf := rMin + dr*(float64(i)+0.5)
			e[0].Set(i, k, 0, 0, 1/rHalf)
		}
	}
	divE := nodal([3]int{n, n, 1}, 1)
	s.ComputeDivE(e, divE)

	for k := 1; k < n-1; k++ {
		for i := 1; i < n-1; i++ {
			assert.InDelta(t, 0.0, divE.At(i, k, 0, 0), 1e-14,
				"divE at (%d, %d)", i, k)
		}
	}
}

// The sum of the split PML components must evolve exactly like the unsplit
// Yee update when no damping has been applied.
func TestPMLSplitSumMatchesUnsplit(t *testing.T) {
	n := 10
	dx := [3]float64{0.5, 0.5, 0.5}
	dt := 1e-11
	gen := rand.New(rand.Tausworthe, 99)
	s := New(Yee, geom.Cart3D, dx, 0, 0)

	var eSplit, bSplit, e, b, j [3]*geom.Grid
	for a := 0; a < 3; a++ {
		eSplit[a] = nodal([3]int{n, n, n}, 2)
		bSplit[a] = nodal([3]int{n, n, n}, 2)
		e[a] = nodal([3]int{n, n, n}, 1)
		b[a] = nodal([3]int{n, n, n}, 1)
		j[a] = nodal([3]int{n, n, n}, 1)

		// Split E arbitrarily between the two components.
		for k := 0; k < n; k++ {
			for jj := 0; jj < n; jj++ {
				for i := 0; i < n; i++ {
					v := gen.Uniform(-1, 1)
					frac := gen.Uniform(0, 1)
					eSplit[a].Set(i, jj, k, 0, v*frac)
					eSplit[a].Set(i, jj, k, 1, v*(1-frac))
					e[a].Set(i, jj, k, 0, v)
				}
			}
		}
	}

	s.EvolveBPML(bSplit, eSplit, dt)
	s.EvolveB(b, e, dt)
	for a := 0; a < 3; a++ {
		for k := 1; k < n-1; k++ {
			for jj := 1; jj < n-1; jj++ {
				for i := 1; i < n-1; i++ {
					tot := bSplit[a].At(i, jj, k, 0) + bSplit[a].At(i, jj, k, 1)
					assert.InDelta(t, b[a].At(i, jj, k, 0), tot, 1e-15,
						"B%d at (%d, %d, %d)", a, i, jj, k)
				}
			}
		}
	}

	s.EvolveEPML(eSplit, bSplit, dt)
	s.EvolveE(e, b, j, nil, dt)
	for a := 0; a < 3; a++ {
		for k := 2; k < n-2; k++ {
			for jj := 2; jj < n-2; jj++ {
				for i := 2; i < n-2; i++ {
					tot := eSplit[a].At(i, jj, k, 0) + eSplit[a].At(i, jj, k, 1)
					assert.InDelta(t, e[a].At(i, jj, k, 0), tot, 1e-12,
						"E%d at (%d, %d, %d)", a, i, jj, k)
				}
			}
		}
	}
}
