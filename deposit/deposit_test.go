package deposit

import (
	"math"
	"testing"

	"github.com/phil-mansfield/gopic/geom"
	"github.com/phil-mansfield/gopic/phys"
	"github.com/stretchr/testify/assert"
)

func nodalGrid(width [3]int) *geom.Grid {
	return geom.NewGrid([3]int{0, 0, 0}, width,
		[3]geom.Centering{geom.Node, geom.Node, geom.Node})
}

func params3D(order int) *Params {
	return &Params{
		Geom:  geom.Cart3D,
		Order: order,
		Dt:    1e-12,
		Dx:    [3]float64{0.5, 0.5, 0.5},
		Min:   [3]float64{0, 0, 0},
	}
}

// A stationary particle carries no current, so nothing may be deposited,
// regardless of shape order.
func TestDirectStationaryParticle(t *testing.T) {
	for order := 1; order <= 3; order++ {
		jx, jy, jz := nodalGrid([3]int{16, 16, 16}),
			nodalGrid([3]int{16, 16, 16}), nodalGrid([3]int{16, 16, 16})

		x, y, z := []float64{4.1}, []float64{3.9}, []float64{4.0}
		u := []float64{0}
		w := []float64{1}

		Direct(jx, jy, jz, x, y, z, u, u, u, w, nil, 1, phys.QE, params3D(order))

		for _, g := range []*geom.Grid{jx, jy, jz} {
			for _, v := range g.Vals {
				if v != 0 {
					t.Fatalf("Order %d: stationary particle deposited %g.",
						order, v)
				}
			}
		}
	}
}

// The grid integral of the deposited current must equal q w v / volume since
// the shape weights sum to one along every axis.
func TestDirectTotalCurrent(t *testing.T) {
	for order := 1; order <= 3; order++ {
		p := params3D(order)
		jx, jy, jz := nodalGrid([3]int{16, 16, 16}),
			nodalGrid([3]int{16, 16, 16}), nodalGrid([3]int{16, 16, 16})

		ux := 1e7 // non-relativistic enough that gamma ~ 1 is not assumed
		x, y, z := []float64{4.0}, []float64{4.0}, []float64{4.0}
		w := []float64{2.5}
		zeroU := []float64{0}

		Direct(jx, jy, jz, x, y, z,
			[]float64{ux}, zeroU, zeroU, w, nil, 1, phys.QE, p)

		gamma := math.Sqrt(1 + ux*ux/(phys.C*phys.C))
		invvol := 1 / (p.Dx[0] * p.Dx[1] * p.Dx[2])
		want := phys.QE * 2.5 * (ux / gamma) * invvol

		sum := 0.0
		for _, v := range jx.Vals {
			sum += v
		}
		assert.InEpsilon(t, want, sum, 1e-12, "order %d", order)
	}
}

func TestDirectIonizationLevel(t *testing.T) {
	p := params3D(1)
	jx1, jy1, jz1 := nodalGrid([3]int{16, 16, 16}),
		nodalGrid([3]int{16, 16, 16}), nodalGrid([3]int{16, 16, 16})
	jx3, jy3, jz3 := nodalGrid([3]int{16, 16, 16}),
		nodalGrid([3]int{16, 16, 16}), nodalGrid([3]int{16, 16, 16})

	x, y, z := []float64{4.2}, []float64{4.2}, []float64{4.2}
	u, zeroU := []float64{2e7}, []float64{0}
	w := []float64{1}

	Direct(jx1, jy1, jz1, x, y, z, u, zeroU, zeroU, w, nil, 1, phys.QE, p)
	Direct(jx3, jy3, jz3, x, y, z, u, zeroU, zeroU, w, []int{3}, 1, phys.QE, p)

	for i := range jx1.Vals {
		assert.InDelta(t, 3*jx1.Vals[i], jx3.Vals[i], 1e-25)
	}
}

// Cell-centered target grids must use the half-cell-shifted shape table.
func TestDirectCellCentering(t *testing.T) {
	p := params3D(1)
	center := [3]geom.Centering{geom.Cell, geom.Node, geom.Node}
	jx := geom.NewGrid([3]int{0, 0, 0}, [3]int{16, 16, 16}, center)
	jy, jz := nodalGrid([3]int{16, 16, 16}), nodalGrid([3]int{16, 16, 16})

	// Particle exactly on a node: the cell-centered stencil must split the
	// x weight evenly between the two neighboring cell centers.
	x, y, z := []float64{2.0}, []float64{2.0}, []float64{2.0}
	u, zeroU := []float64{1e7}, []float64{0}
	w := []float64{1}

	Direct(jx, jy, jz, x, y, z, u, zeroU, zeroU, w, nil, 1, phys.QE, p)

	// xmid = 4 - dts2dx*vx, essentially 4. Cell stencil covers i=3, 4.
	a, b := jx.At(3, 4, 4, 0), jx.At(4, 4, 4, 0)
	assert.InEpsilon(t, 1.0, a/b, 1e-3)
}

func continuityResidual3D(
	t *testing.T, order int, pos, mom [3]float64,
) float64 {
	p := params3D(order)
	p.Dt = 1e-9 // large enough that the stencil crosses cell boundaries
	width := [3]int{16, 16, 16}
	jx, jy, jz := nodalGrid(width), nodalGrid(width), nodalGrid(width)
	rhoNew, rhoOld := nodalGrid(width), nodalGrid(width)

	x, y, z := []float64{pos[0]}, []float64{pos[1]}, []float64{pos[2]}
	ux, uy, uz := []float64{mom[0]}, []float64{mom[1]}, []float64{mom[2]}
	w := []float64{1.5}

	Esirkepov(jx, jy, jz, x, y, z, ux, uy, uz, w, nil, 1, phys.QE, p)

	gi := gammaInv(mom[0], mom[1], mom[2])
	xOld := []float64{pos[0] - p.Dt*mom[0]*gi}
	yOld := []float64{pos[1] - p.Dt*mom[1]*gi}
	zOld := []float64{pos[2] - p.Dt*mom[2]*gi}

	Charge(rhoNew, x, y, z, w, nil, 1, phys.QE, p)
	Charge(rhoOld, xOld, yOld, zOld, w, nil, 1, phys.QE, p)

	worst := 0.0
	for k := 1; k < width[2]; k++ {
		for j := 1; j < width[1]; j++ {
			for i := 1; i < width[0]; i++ {
				divJ := (jx.At(i, j, k, 0)-jx.At(i-1, j, k, 0))/p.Dx[0] +
					(jy.At(i, j, k, 0)-jy.At(i, j-1, k, 0))/p.Dx[1] +
					(jz.At(i, j, k, 0)-jz.At(i, j, k-1, 0))/p.Dx[2]
				dRho := (rhoNew.At(i, j, k, 0) - rhoOld.At(i, j, k, 0)) / p.Dt
				res := math.Abs(divJ + dRho)
				if res > worst {
					worst = res
				}
			}
		}
	}
	return worst
}

// The defining property of the Esirkepov scheme: the deposited current and
// the shape-N charge density satisfy the discrete continuity equation.
func TestEsirkepovContinuity3D(t *testing.T) {
	positions := [][3]float64{
		{2.05, 2.55, 3.05},
		{2.49, 3.01, 2.76}, // crosses a cell boundary in y
	}
	moms := [][3]float64{
		{5e7, -3e7, 8e7},
		{-9e7, 9e7, -2e7},
	}

	for order := 1; order <= 3; order++ {
		for i := range positions {
			// Scale of the terms being cancelled.
			scale := phys.QE / (1e-9 * 0.5 * 0.5 * 0.5)
			worst := continuityResidual3D(t, order, positions[i], moms[i])
			if worst > 1e-12*scale {
				t.Errorf("Order %d case %d: continuity residual %g (scale %g).",
					order, i, worst, scale)
			}
		}
	}
}

func continuityResidual2D(
	t *testing.T, gtag geom.Geometry, order int, pos, mom [3]float64,
) float64 {
	p := params3D(order)
	p.Dt = 1e-9
	p.Geom = gtag
	if gtag == geom.RZ {
		p.NModes = 1
	}
	width := [3]int{24, 24, 1}
	jx, jy, jz := nodalGrid(width), nodalGrid(width), nodalGrid(width)
	rhoNew, rhoOld := nodalGrid(width), nodalGrid(width)

	x, y, z := []float64{pos[0]}, []float64{pos[1]}, []float64{pos[2]}
	ux, uy, uz := []float64{mom[0]}, []float64{mom[1]}, []float64{mom[2]}
	w := []float64{1}

	Esirkepov(jx, jy, jz, x, y, z, ux, uy, uz, w, nil, 1, phys.QE, p)

	gi := gammaInv(mom[0], mom[1], mom[2])
	xOld := []float64{pos[0] - p.Dt*mom[0]*gi}
	yOld := []float64{pos[1] - p.Dt*mom[1]*gi}
	zOld := []float64{pos[2] - p.Dt*mom[2]*gi}

	Charge(rhoNew, x, y, z, w, nil, 1, phys.QE, p)
	Charge(rhoOld, xOld, yOld, zOld, w, nil, 1, phys.QE, p)

	worst := 0.0
	for k := 1; k < width[1]; k++ {
		for i := 1; i < width[0]; i++ {
			divJ := (jx.At(i, k, 0, 0)-jx.At(i-1, k, 0, 0))/p.Dx[0] +
				(jz.At(i, k, 0, 0)-jz.At(i, k-1, 0, 0))/p.Dx[2]
			dRho := (rhoNew.At(i, k, 0, 0) - rhoOld.At(i, k, 0, 0)) / p.Dt
			res := math.Abs(divJ + dRho)
			if res > worst {
				worst = res
			}
		}
	}
	return worst
}

func TestEsirkepovContinuity2D(t *testing.T) {
	for order := 1; order <= 3; order++ {
		scale := phys.QE / (1e-9 * 0.5 * 0.5)
		worst := continuityResidual2D(t, geom.Cart2D, order,
			[3]float64{3.05, 0, 4.55}, [3]float64{6e7, 1e7, -7e7})
		if worst > 1e-12*scale {
			t.Errorf("Order %d: 2D continuity residual %g.", order, worst)
		}
	}
}

// In RZ the mode-0 radial and longitudinal currents obey the same index-space
// continuity as 2D. The particle moves along the +x half-plane (theta = 0)
// so its radius is its x coordinate.
func TestEsirkepovContinuityRZ(t *testing.T) {
	for order := 1; order <= 3; order++ {
		scale := phys.QE / (1e-9 * 0.5 * 0.5)
		worst := continuityResidual2D(t, geom.RZ, order,
			[3]float64{4.05, 0, 5.65}, [3]float64{5e7, 0, -6e7})
		if worst > 1e-12*scale {
			t.Errorf("Order %d: RZ continuity residual %g.", order, worst)
		}
	}
}

// Direct deposition does not conserve charge exactly, but its grid integral
// matches Esirkepov's: both deposit the full particle current.
func TestDirectEsirkepovSameTotalJz(t *testing.T) {
	p := params3D(2)
	width := [3]int{16, 16, 16}
	jx1, jy1, jz1 := nodalGrid(width), nodalGrid(width), nodalGrid(width)
	jx2, jy2, jz2 := nodalGrid(width), nodalGrid(width), nodalGrid(width)

	x, y, z := []float64{4.3}, []float64{4.1}, []float64{3.9}
	zeroU := []float64{0}
	uz := []float64{4e7}
	w := []float64{1}

	Direct(jx1, jy1, jz1, x, y, z, zeroU, zeroU, uz, w, nil, 1, phys.QE, p)
	Esirkepov(jx2, jy2, jz2, x, y, z, zeroU, zeroU, uz, w, nil, 1, phys.QE, p)

	sum1, sum2 := 0.0, 0.0
	for i := range jz1.Vals {
		sum1 += jz1.Vals[i]
		sum2 += jz2.Vals[i]
	}
	// Esirkepov total Jz: sum over k of the antiderivative telescopes to the
	// same q w vz / volume integral.
	assert.InEpsilon(t, sum1, sum2, 1e-10)
}
