/*package deposit scatters particle charge and current onto grid fields.

Two current-deposition algorithms are provided. Direct computes the current
carried by each macro-particle at the half-step position and area-weights it
onto the grid. Esirkepov instead accumulates the discrete antiderivative of
the charge-density difference between the old and new particle positions, so
the deposited current satisfies the discrete continuity equation exactly.

All scatters go through Grid.AtomicAdd: batches running on separate worker
goroutines may deposit into the same grids concurrently.
*/
package deposit

import (
	"log"
	"math"

	"github.com/phil-mansfield/gopic/geom"
	"github.com/phil-mansfield/gopic/phys"
	"github.com/phil-mansfield/gopic/shape"
)

// Params bundles the geometry and step parameters shared by every deposition
// call. It is immutable during a step.
type Params struct {
	Geom  geom.Geometry
	Order int
	// Dt is the particle-level time step.
	Dt float64
	// Dx is the cell size along each axis. In 2D and RZ only Dx[0] and
	// Dx[2] are used, as the (x, z) or (r, z) cell size.
	Dx [3]float64
	// Min is the physical lower bound of the domain along each axis.
	Min [3]float64
	// NModes is the number of azimuthal modes in RZ geometry.
	NModes int
}

// CheckInit fails on malformed geometry configuration. Construction-time
// only: per-call validation would be wasted work on the hot path.
func (p *Params) CheckInit() {
	shape.CheckOrder(p.Order)
	if p.Dt <= 0 {
		log.Fatalf("Deposition Params given dt = %g.", p.Dt)
	}
	for i, dx := range p.Dx {
		if dx <= 0 && !(i == 1 && p.Geom != geom.Cart3D) {
			log.Fatalf("Deposition Params given dx[%d] = %g.", i, dx)
		}
	}
	if p.Geom == geom.RZ && p.NModes < 1 {
		log.Fatalf("RZ deposition Params given %d modes.", p.NModes)
	}
}

// Direct deposits the current of the first n particles onto jx, jy and jz
// using area-weighted (shape factor) deposition at the half-step position.
//
// x, y, z are positions, ux, uy, uz are momenta divided by particle mass
// (SI, m/s scaled by gamma), w are macro-particle weights. ionLev scales the
// charge q per particle; nil means every particle carries charge q.
func Direct(
	jx, jy, jz *geom.Grid,
	x, y, z, ux, uy, uz, w []float64,
	ionLev []int, n int, q float64,
	p *Params,
) {
	switch p.Geom {
	case geom.Cart3D:
		direct3D(jx, jy, jz, x, y, z, ux, uy, uz, w, ionLev, n, q, p)
	case geom.Cart2D:
		direct2D(jx, jy, jz, x, y, z, ux, uy, uz, w, ionLev, n, q, p)
	case geom.RZ:
		directRZ(jx, jy, jz, x, y, z, ux, uy, uz, w, ionLev, n, q, p)
	default:
		log.Fatalf("Unrecognized geometry, %d.", p.Geom)
	}
}

// gammaInv returns 1/gamma for an SI momentum-per-mass triple.
func gammaInv(ux, uy, uz float64) float64 {
	c2i := 1 / (phys.C * phys.C)
	return 1 / math.Sqrt(1+(ux*ux+uy*uy+uz*uz)*c2i)
}

// axisWeights computes the node- and cell-centered shape factors along one
// axis at fractional coordinate x, but only the variants some J grid needs.
type axisWeights struct {
	node, cell []float64
	iNode, iCell int
}

func newAxisWeights(order int) axisWeights {
	return axisWeights{
		node: make([]float64, order+1),
		cell: make([]float64, order+1),
	}
}

func (aw *axisWeights) compute(x float64, order int, needNode, needCell bool) {
	if needNode {
		aw.iNode = shape.Factor(aw.node, x, order)
	}
	if needCell {
		aw.iCell = shape.Factor(aw.cell, x-0.5, order)
	}
}

// pick returns the weights and leftmost index for the given centering.
func (aw *axisWeights) pick(c geom.Centering) ([]float64, int) {
	if c == geom.Node {
		return aw.node, aw.iNode
	}
	return aw.cell, aw.iCell
}

func needCenterings(axis int, gs ...*geom.Grid) (needNode, needCell bool) {
	for _, g := range gs {
		if g.Center[axis] == geom.Node {
			needNode = true
		} else {
			needCell = true
		}
	}
	return needNode, needCell
}

func direct3D(
	jx, jy, jz *geom.Grid,
	x, y, z, ux, uy, uz, w []float64,
	ionLev []int, n int, q float64,
	p *Params,
) {
	order := p.Order
	dxi, dyi, dzi := 1/p.Dx[0], 1/p.Dx[1], 1/p.Dx[2]
	dts2dx, dts2dy, dts2dz := 0.5*p.Dt*dxi, 0.5*p.Dt*dyi, 0.5*p.Dt*dzi
	invvol := dxi * dyi * dzi

	sx, sy, sz := newAxisWeights(order), newAxisWeights(order), newAxisWeights(order)
	nodeX, cellX := needCenterings(0, jx, jy, jz)
	nodeY, cellY := needCenterings(1, jx, jy, jz)
	nodeZ, cellZ := needCenterings(2, jx, jy, jz)

	for ip := 0; ip < n; ip++ {
		gi := gammaInv(ux[ip], uy[ip], uz[ip])
		wq := q * w[ip]
		if ionLev != nil {
			wq *= float64(ionLev[ip])
		}

		vx, vy, vz := ux[ip]*gi, uy[ip]*gi, uz[ip]*gi
		wqx, wqy, wqz := wq*invvol*vx, wq*invvol*vy, wq*invvol*vz

		// Half-step-shifted fractional coordinates.
		xmid := (x[ip]-p.Min[0])*dxi - dts2dx*vx
		ymid := (y[ip]-p.Min[1])*dyi - dts2dy*vy
		zmid := (z[ip]-p.Min[2])*dzi - dts2dz*vz

		sx.compute(xmid, order, nodeX, cellX)
		sy.compute(ymid, order, nodeY, cellY)
		sz.compute(zmid, order, nodeZ, cellZ)

		sxJx, iJx := sx.pick(jx.Center[0])
		sxJy, iJy := sx.pick(jy.Center[0])
		sxJz, iJz := sx.pick(jz.Center[0])
		syJx, jJx := sy.pick(jx.Center[1])
		syJy, jJy := sy.pick(jy.Center[1])
		syJz, jJz := sy.pick(jz.Center[1])
		szJx, kJx := sz.pick(jx.Center[2])
		szJy, kJy := sz.pick(jy.Center[2])
		szJz, kJz := sz.pick(jz.Center[2])

		for k := 0; k <= order; k++ {
			for j := 0; j <= order; j++ {
				for i := 0; i <= order; i++ {
					jx.AtomicAdd(iJx+i, jJx+j, kJx+k, 0,
						sxJx[i]*syJx[j]*szJx[k]*wqx)
					jy.AtomicAdd(iJy+i, jJy+j, kJy+k, 0,
						sxJy[i]*syJy[j]*szJy[k]*wqy)
					jz.AtomicAdd(iJz+i, jJz+j, kJz+k, 0,
						sxJz[i]*syJz[j]*szJz[k]*wqz)
				}
			}
		}
	}
}

func direct2D(
	jx, jy, jz *geom.Grid,
	x, y, z, ux, uy, uz, w []float64,
	ionLev []int, n int, q float64,
	p *Params,
) {
	order := p.Order
	dxi, dzi := 1/p.Dx[0], 1/p.Dx[2]
	dts2dx, dts2dz := 0.5*p.Dt*dxi, 0.5*p.Dt*dzi
	invvol := dxi * dzi

	sx, sz := newAxisWeights(order), newAxisWeights(order)
	nodeX, cellX := needCenterings(0, jx, jy, jz)
	nodeZ, cellZ := needCenterings(1, jx, jy, jz)

	for ip := 0; ip < n; ip++ {
		gi := gammaInv(ux[ip], uy[ip], uz[ip])
		wq := q * w[ip]
		if ionLev != nil {
			wq *= float64(ionLev[ip])
		}

		vx, vy, vz := ux[ip]*gi, uy[ip]*gi, uz[ip]*gi
		wqx, wqy, wqz := wq*invvol*vx, wq*invvol*vy, wq*invvol*vz

		xmid := (x[ip]-p.Min[0])*dxi - dts2dx*vx
		zmid := (z[ip]-p.Min[2])*dzi - dts2dz*vz

		sx.compute(xmid, order, nodeX, cellX)
		sz.compute(zmid, order, nodeZ, cellZ)

		sxJx, iJx := sx.pick(jx.Center[0])
		sxJy, iJy := sx.pick(jy.Center[0])
		sxJz, iJz := sx.pick(jz.Center[0])
		szJx, kJx := sz.pick(jx.Center[1])
		szJy, kJy := sz.pick(jy.Center[1])
		szJz, kJz := sz.pick(jz.Center[1])

		for k := 0; k <= order; k++ {
			for i := 0; i <= order; i++ {
				jx.AtomicAdd(iJx+i, kJx+k, 0, 0, sxJx[i]*szJx[k]*wqx)
				jy.AtomicAdd(iJy+i, kJy+k, 0, 0, sxJy[i]*szJy[k]*wqy)
				jz.AtomicAdd(iJz+i, kJz+k, 0, 0, sxJz[i]*szJz[k]*wqz)
			}
		}
	}
}

func directRZ(
	jr, jt, jz *geom.Grid,
	x, y, z, ux, uy, uz, w []float64,
	ionLev []int, n int, q float64,
	p *Params,
) {
	order := p.Order
	dri, dzi := 1/p.Dx[0], 1/p.Dx[2]
	dts2dz := 0.5 * p.Dt * dzi
	invvol := dri * dzi

	sr, sz := newAxisWeights(order), newAxisWeights(order)
	nodeR, cellR := needCenterings(0, jr, jt, jz)
	nodeZ, cellZ := needCenterings(1, jr, jt, jz)

	for ip := 0; ip < n; ip++ {
		gi := gammaInv(ux[ip], uy[ip], uz[ip])
		wq := q * w[ip]
		if ionLev != nil {
			wq *= float64(ionLev[ip])
		}

		vx, vy, vz := ux[ip]*gi, uy[ip]*gi, uz[ip]*gi

		// Convert to cylindrical at the half-step position.
		xmid, ymid := x[ip]-0.5*p.Dt*vx, y[ip]-0.5*p.Dt*vy
		rmid := math.Sqrt(xmid*xmid + ymid*ymid)
		cosT, sinT := 1.0, 0.0
		if rmid > 0 {
			cosT, sinT = xmid/rmid, ymid/rmid
		}

		// wqr and wqt are the radial and azimuthal currents.
		wqr := wq * invvol * (vx*cosT + vy*sinT)
		wqt := wq * invvol * (-vx*sinT + vy*cosT)
		wqz := wq * invvol * vz

		rfrac := (rmid - p.Min[0]) * dri
		zmid := (z[ip]-p.Min[2])*dzi - dts2dz*vz

		sr.compute(rfrac, order, nodeR, cellR)
		sz.compute(zmid, order, nodeZ, cellZ)

		srJr, iJr := sr.pick(jr.Center[0])
		srJt, iJt := sr.pick(jt.Center[0])
		srJz, iJz := sr.pick(jz.Center[0])
		szJr, kJr := sz.pick(jr.Center[1])
		szJt, kJt := sz.pick(jt.Center[1])
		szJz, kJz := sz.pick(jz.Center[1])

		for k := 0; k <= order; k++ {
			for i := 0; i <= order; i++ {
				jr.AtomicAdd(iJr+i, kJr+k, 0, 0, srJr[i]*szJr[k]*wqr)
				jt.AtomicAdd(iJt+i, kJt+k, 0, 0, srJt[i]*szJt[k]*wqt)
				jz.AtomicAdd(iJz+i, kJz+k, 0, 0, srJz[i]*szJz[k]*wqz)

				// Higher modes: xy tracks e^{i m theta} as a running
				// product instead of recomputing trigonometry per mode.
				// The factor 2 comes from the mode normalization.
				xyRe, xyIm := cosT, sinT
				for m := 1; m < p.NModes; m++ {
					jr.AtomicAdd(iJr+i, kJr+k, 0, 2*m-1, 2*srJr[i]*szJr[k]*wqr*xyRe)
					jr.AtomicAdd(iJr+i, kJr+k, 0, 2*m, 2*srJr[i]*szJr[k]*wqr*xyIm)
					jt.AtomicAdd(iJt+i, kJt+k, 0, 2*m-1, 2*srJt[i]*szJt[k]*wqt*xyRe)
					jt.AtomicAdd(iJt+i, kJt+k, 0, 2*m, 2*srJt[i]*szJt[k]*wqt*xyIm)
					jz.AtomicAdd(iJz+i, kJz+k, 0, 2*m-1, 2*srJz[i]*szJz[k]*wqz*xyRe)
					jz.AtomicAdd(iJz+i, kJz+k, 0, 2*m, 2*srJz[i]*szJz[k]*wqz*xyIm)
					xyRe, xyIm = xyRe*cosT-xyIm*sinT, xyRe*sinT+xyIm*cosT
				}
			}
		}
	}
}

// Charge deposits the charge density of the first n particles onto rho at
// the current particle positions. Used by divergence cleaning and by the
// continuity diagnostics. rho must be node-centered on every axis.
func Charge(
	rho *geom.Grid,
	x, y, z, w []float64,
	ionLev []int, n int, q float64,
	p *Params,
) {
	order := p.Order
	dxi, dzi := 1/p.Dx[0], 1/p.Dx[2]

	switch p.Geom {
	case geom.Cart3D:
		dyi := 1 / p.Dx[1]
		invvol := dxi * dyi * dzi
		sx := make([]float64, order+1)
		sy := make([]float64, order+1)
		sz := make([]float64, order+1)
		for ip := 0; ip < n; ip++ {
			wq := q * w[ip] * invvol
			if ionLev != nil {
				wq *= float64(ionLev[ip])
			}
			i0 := shape.Factor(sx, (x[ip]-p.Min[0])*dxi, order)
			j0 := shape.Factor(sy, (y[ip]-p.Min[1])*dyi, order)
			k0 := shape.Factor(sz, (z[ip]-p.Min[2])*dzi, order)
			for k := 0; k <= order; k++ {
				for j := 0; j <= order; j++ {
					for i := 0; i <= order; i++ {
						rho.AtomicAdd(i0+i, j0+j, k0+k, 0,
							sx[i]*sy[j]*sz[k]*wq)
					}
				}
			}
		}
	case geom.Cart2D, geom.RZ:
		invvol := dxi * dzi
		sx := make([]float64, order+1)
		sz := make([]float64, order+1)
		for ip := 0; ip < n; ip++ {
			wq := q * w[ip] * invvol
			if ionLev != nil {
				wq *= float64(ionLev[ip])
			}
			r := x[ip]
			if p.Geom == geom.RZ {
				r = math.Sqrt(x[ip]*x[ip] + y[ip]*y[ip])
			}
			i0 := shape.Factor(sx, (r-p.Min[0])*dxi, order)
			k0 := shape.Factor(sz, (z[ip]-p.Min[2])*dzi, order)
			for k := 0; k <= order; k++ {
				for i := 0; i <= order; i++ {
					rho.AtomicAdd(i0+i, k0+k, 0, 0, sx[i]*sz[k]*wq)
				}
			}
		}
	default:
		log.Fatalf("Unrecognized geometry, %d.", p.Geom)
	}
}
