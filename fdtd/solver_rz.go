package fdtd

import (
	"github.com/phil-mansfield/gopic/geom"
	"github.com/phil-mansfield/gopic/phys"
)

// Cylindrical updates. Fields are decomposed into azimuthal modes
// F(r, theta, z) = sum_m F_m(r, z) exp(i m theta), stored as component 0 for
// the real mode 0 followed by real/imaginary pairs, so the theta derivative
// becomes multiplication by i*m and couples the real and imaginary parts.
//
// When rMin is zero the first radial node sits on the axis, where 1/r terms
// need their analytic limits: mode-m fields vanish on the axis except the
// m = 1 transverse components, F/r limits to dF/dr, and (1/r) d(r F)/dr
// limits to 2 dF/dr, which the half-cell staggering turns into the 4/dr rule.

func (s *Solver) onAxis() bool { return s.rMin == 0 }

func (s *Solver) evolveBRZ(b, e [3]*geom.Grid, dt float64) {
	br, bt, bz := b[0], b[1], b[2]
	er, et, ez := e[0], e[1], e[2]
	cr, cz := &s.cx, &s.cz
	invDr := 1 / s.dr

	lo, hi := interior2D(br)
	for k := lo[1]; k < hi[1]; k++ {
		for i := lo[0]; i < hi[0]; i++ {
			r := s.rMin + s.dr*float64(i)
			br.Add(i, k, 0, 0, dt*UpwardDz2D(et, cz, i, k, 0))
			for m := 1; m < s.NModes; m++ {
				re, im := 2*m-1, 2*m
				br.Add(i, k, 0, re, dt*(UpwardDz2D(et, cz, i, k, re)+
					float64(m)/r*ez.At(i, k, 0, im)))
				br.Add(i, k, 0, im, dt*(UpwardDz2D(et, cz, i, k, im)-
					float64(m)/r*ez.At(i, k, 0, re)))
			}
		}
		if s.onAxis() && s.NModes > 1 {
			// Only the m = 1 mode of Br survives on the axis. Ez vanishes
			// there, so Ez/r limits to its radial derivative.
			i := br.Origin[0]
			br.Add(i, k, 0, 1, dt*(UpwardDz2D(et, cz, i, k, 1)+
				invDr*ez.At(i+1, k, 0, 2)))
			br.Add(i, k, 0, 2, dt*(UpwardDz2D(et, cz, i, k, 2)-
				invDr*ez.At(i+1, k, 0, 1)))
		}
	}

	lo, hi = interior2D(bt)
	for k := lo[1]; k < hi[1]; k++ {
		for i := lo[0]; i < hi[0]; i++ {
			for n := 0; n < bt.NComp; n++ {
				bt.Add(i, k, 0, n, dt*(UpwardDx2D(ez, cr, i, k, n)-
					UpwardDz2D(er, cz, i, k, n)))
			}
		}
	}

	lo, hi = interior2D(bz)
	for k := lo[1]; k < hi[1]; k++ {
		for i := lo[0]; i < hi[0]; i++ {
			rHalf := s.rMin + s.dr*(float64(i)+0.5)
			bz.Add(i, k, 0, 0,
				-dt*UpwardDrrOverR(et, invDr, s.rMin, s.dr, i, k, 0))
			for m := 1; m < s.NModes; m++ {
				re, im := 2*m-1, 2*m
				bz.Add(i, k, 0, re,
					dt*(-UpwardDrrOverR(et, invDr, s.rMin, s.dr, i, k, re)-
						float64(m)/rHalf*er.At(i, k, 0, im)))
				bz.Add(i, k, 0, im,
					dt*(-UpwardDrrOverR(et, invDr, s.rMin, s.dr, i, k, im)+
						float64(m)/rHalf*er.At(i, k, 0, re)))
			}
		}
	}
}

func (s *Solver) evolveERZ(e, b, j [3]*geom.Grid, f *geom.Grid, dt float64) {
	er, et, ez := e[0], e[1], e[2]
	br, bt, bz := b[0], b[1], b[2]
	jr, jt, jz := j[0], j[1], j[2]
	cr, cz := &s.cx, &s.cz
	invDr := 1 / s.dr

	c2 := phys.C * phys.C
	invEps0 := 1 / phys.Eps0

	lo, hi := interior2D(er)
	for k := lo[1]; k < hi[1]; k++ {
		for i := lo[0]; i < hi[0]; i++ {
			rHalf := s.rMin + s.dr*(float64(i)+0.5)
			d := -c2*DownwardDz2D(bt, cz, i, k, 0) - invEps0*jr.At(i, k, 0, 0)
			if f != nil {
				d += c2 * UpwardDx2D(f, cr, i, k, 0)
			}
			er.Add(i, k, 0, 0, dt*d)
			for m := 1; m < s.NModes; m++ {
				re, im := 2*m-1, 2*m
				dre := c2*(-float64(m)/rHalf*bz.At(i, k, 0, im)-
					DownwardDz2D(bt, cz, i, k, re)) -
					invEps0*jr.At(i, k, 0, re)
				dim := c2*(float64(m)/rHalf*bz.At(i, k, 0, re)-
					DownwardDz2D(bt, cz, i, k, im)) -
					invEps0*jr.At(i, k, 0, im)
				if f != nil {
					dre += c2 * UpwardDx2D(f, cr, i, k, re)
					dim += c2 * UpwardDx2D(f, cr, i, k, im)
				}
				er.Add(i, k, 0, re, dt*dre)
				er.Add(i, k, 0, im, dt*dim)
			}
		}
	}

	lo, hi = interior2D(et)
	for k := lo[1]; k < hi[1]; k++ {
		for i := lo[0]; i < hi[0]; i++ {
			r := s.rMin + s.dr*float64(i)
			for n := 0; n < et.NComp; n++ {
				d := c2*(DownwardDz2D(br, cz, i, k, n)-
					DownwardDx2D(bz, cr, i, k, n)) -
					invEps0*jt.At(i, k, 0, n)
				et.Add(i, k, 0, n, dt*d)
			}
			if f != nil {
				for m := 1; m < s.NModes; m++ {
					re, im := 2*m-1, 2*m
					et.Add(i, k, 0, re, -dt*c2*float64(m)/r*f.At(i, k, 0, im))
					et.Add(i, k, 0, im, dt*c2*float64(m)/r*f.At(i, k, 0, re))
				}
			}
		}
		if s.onAxis() {
			// Regularity of the transverse field at r = 0: Et_1 = i Er_1,
			// everything else vanishes.
			i := et.Origin[0]
			for n := 0; n < et.NComp; n++ {
				et.Set(i, k, 0, n, 0)
			}
			if s.NModes > 1 {
				et.Set(i, k, 0, 1, -er.At(i, k, 0, 2))
				et.Set(i, k, 0, 2, er.At(i, k, 0, 1))
			}
		}
	}

	lo, hi = interior2D(ez)
	for k := lo[1]; k < hi[1]; k++ {
		for i := lo[0]; i < hi[0]; i++ {
			r := s.rMin + s.dr*float64(i)
			d := c2*DownwardDrrOverR(bt, invDr, s.rMin, s.dr, i, k, 0) -
				invEps0*jz.At(i, k, 0, 0)
			if f != nil {
				d += c2 * UpwardDz2D(f, cz, i, k, 0)
			}
			ez.Add(i, k, 0, 0, dt*d)
			for m := 1; m < s.NModes; m++ {
				re, im := 2*m-1, 2*m
				dre := c2*(DownwardDrrOverR(bt, invDr, s.rMin, s.dr, i, k, re)+
					float64(m)/r*br.At(i, k, 0, im)) -
					invEps0*jz.At(i, k, 0, re)
				dim := c2*(DownwardDrrOverR(bt, invDr, s.rMin, s.dr, i, k, im)-
					float64(m)/r*br.At(i, k, 0, re)) -
					invEps0*jz.At(i, k, 0, im)
				if f != nil {
					dre += c2 * UpwardDz2D(f, cz, i, k, re)
					dim += c2 * UpwardDz2D(f, cz, i, k, im)
				}
				ez.Add(i, k, 0, re, dt*dre)
				ez.Add(i, k, 0, im, dt*dim)
			}
		}
		if s.onAxis() {
			i := ez.Origin[0]
			d := c2*4*invDr*bt.At(i, k, 0, 0) - invEps0*jz.At(i, k, 0, 0)
			if f != nil {
				d += c2 * UpwardDz2D(f, cz, i, k, 0)
			}
			ez.Add(i, k, 0, 0, dt*d)
			for m := 1; m < s.NModes; m++ {
				ez.Set(i, k, 0, 2*m-1, 0)
				ez.Set(i, k, 0, 2*m, 0)
			}
		}
	}
}

// divERZ evaluates the mode-n divergence of E at node (i, k). n must not be
// an axis point unless it is the mode-0 component.
func (s *Solver) divERZ(e [3]*geom.Grid, i, k, m int, re bool) float64 {
	er, et, ez := e[0], e[1], e[2]
	cz := &s.cz
	invDr := 1 / s.dr
	r := s.rMin + s.dr*float64(i)

	if m == 0 {
		return DownwardDrrOverR(er, invDr, s.rMin, s.dr, i, k, 0) +
			DownwardDz2D(ez, cz, i, k, 0)
	}
	nRe, nIm := 2*m-1, 2*m
	if re {
		return DownwardDrrOverR(er, invDr, s.rMin, s.dr, i, k, nRe) -
			float64(m)/r*et.At(i, k, 0, nIm) +
			DownwardDz2D(ez, cz, i, k, nRe)
	}
	return DownwardDrrOverR(er, invDr, s.rMin, s.dr, i, k, nIm) +
		float64(m)/r*et.At(i, k, 0, nRe) +
		DownwardDz2D(ez, cz, i, k, nIm)
}

func (s *Solver) evolveFRZ(
	f *geom.Grid, e [3]*geom.Grid, rho *geom.Grid, rhoComp int, dt float64,
) {
	invEps0 := 1 / phys.Eps0
	invDr := 1 / s.dr

	lo, hi := interior2D(f)
	for k := lo[1]; k < hi[1]; k++ {
		for i := lo[0]; i < hi[0]; i++ {
			f.Add(i, k, 0, 0, dt*(s.divERZ(e, i, k, 0, true)-
				invEps0*rho.At(i, k, 0, rhoComp)))
			for m := 1; m < s.NModes; m++ {
				re, im := 2*m-1, 2*m
				f.Add(i, k, 0, re, dt*(s.divERZ(e, i, k, m, true)-
					invEps0*rho.At(i, k, 0, rhoComp+re)))
				f.Add(i, k, 0, im, dt*(s.divERZ(e, i, k, m, false)-
					invEps0*rho.At(i, k, 0, rhoComp+im)))
			}
		}
		if s.onAxis() {
			i := f.Origin[0]
			div := 4*invDr*e[0].At(i, k, 0, 0) +
				DownwardDz2D(e[2], &s.cz, i, k, 0)
			f.Add(i, k, 0, 0, dt*(div-invEps0*rho.At(i, k, 0, rhoComp)))
		}
	}
}

func (s *Solver) computeDivERZ(e [3]*geom.Grid, divE *geom.Grid) {
	invDr := 1 / s.dr

	lo, hi := interior2D(divE)
	for k := lo[1]; k < hi[1]; k++ {
		for i := lo[0]; i < hi[0]; i++ {
			divE.Set(i, k, 0, 0, s.divERZ(e, i, k, 0, true))
			for m := 1; m < s.NModes; m++ {
				divE.Set(i, k, 0, 2*m-1, s.divERZ(e, i, k, m, true))
				divE.Set(i, k, 0, 2*m, s.divERZ(e, i, k, m, false))
			}
		}
		if s.onAxis() {
			i := divE.Origin[0]
			divE.Set(i, k, 0, 0, 4*invDr*e[0].At(i, k, 0, 0)+
				DownwardDz2D(e[2], &s.cz, i, k, 0))
			for m := 1; m < s.NModes; m++ {
				divE.Set(i, k, 0, 2*m-1, 0)
				divE.Set(i, k, 0, 2*m, 0)
			}
		}
	}
}
