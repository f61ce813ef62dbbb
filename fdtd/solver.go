package fdtd

import (
	"fmt"
	"log"

	"github.com/phil-mansfield/gopic/geom"
	"github.com/phil-mansfield/gopic/phys"
)

// Solver advances the fields on one grid patch. It owns no field data: all
// grids are passed into the Evolve methods, so a single Solver can be shared
// read-only by every worker. Field slices are ordered (x, y, z) in Cartesian
// geometries and (r, theta, z) in RZ.
type Solver struct {
	Alg    Algorithm
	Geom   geom.Geometry
	NModes int

	cx, cy, cz Coefs
	dr, dz     float64
	rMin       float64
}

// New creates a Solver for the given algorithm and geometry. cellSize is
// (dx, dy, dz) in 3D, (dx, dz, unused) in 2D, and (dr, dz, unused) in RZ.
// rMin is the radial coordinate of the first node and is only read in RZ.
func New(
	alg Algorithm, gtag geom.Geometry,
	cellSize [3]float64, rMin float64, nModes int,
) *Solver {
	s := &Solver{Alg: alg, Geom: gtag, NModes: nModes, rMin: rMin}

	switch gtag {
	case geom.Cart3D:
		s.cx, s.cy, s.cz = InitCoefs(alg, cellSize, false)
	case geom.Cart2D:
		s.cx, s.cy, s.cz = InitCoefs(alg,
			[3]float64{cellSize[0], 1, cellSize[1]}, true)
	case geom.RZ:
		if alg != Yee {
			log.Fatalf("The RZ solver only supports the Yee algorithm.")
		}
		if nModes < 1 {
			log.Fatalf("RZ solver given %d azimuthal modes.", nModes)
		}
		s.dr, s.dz = cellSize[0], cellSize[1]
		// r and z reuse the 2D operators with plain Yee coefficients.
		s.cx = Coefs{InvD: 1 / s.dr, Alpha: 1 / s.dr}
		s.cz = Coefs{InvD: 1 / s.dz, Alpha: 1 / s.dz}
	default:
		log.Fatalf("Unrecognized geometry, %d.", gtag)
	}
	return s
}

// interior returns the loop bounds that keep every stencil read in bounds.
// The outermost cell layer is owned by the boundary handling (PML or guard
// exchange), not by the bulk update.
func interior(g *geom.Grid) (lo, hi [3]int) {
	for a := 0; a < 3; a++ {
		lo[a] = g.Origin[a] + 1
		hi[a] = g.Origin[a] + g.Width[a] - 1
	}
	return lo, hi
}

// interior2D is the (x, z) analogue for grids with a collapsed third axis.
func interior2D(g *geom.Grid) (lo, hi [2]int) {
	for a := 0; a < 2; a++ {
		lo[a] = g.Origin[a] + 1
		hi[a] = g.Origin[a] + g.Width[a] - 1
	}
	return lo, hi
}

// EvolveB advances B by a half or full step dt from the curl of E.
func (s *Solver) EvolveB(b, e [3]*geom.Grid, dt float64) {
	switch s.Geom {
	case geom.Cart3D:
		s.evolveB3D(b, e, dt)
	case geom.Cart2D:
		s.evolveB2D(b, e, dt)
	case geom.RZ:
		s.evolveBRZ(b, e, dt)
	}
}

func (s *Solver) evolveB3D(b, e [3]*geom.Grid, dt float64) {
	bx, by, bz := b[0], b[1], b[2]
	ex, ey, ez := e[0], e[1], e[2]
	cx, cy, cz := &s.cx, &s.cy, &s.cz

	lo, hi := interior(bx)
	for k := lo[2]; k < hi[2]; k++ {
		for j := lo[1]; j < hi[1]; j++ {
			for i := lo[0]; i < hi[0]; i++ {
				bx.Add(i, j, k, 0, dt*(UpwardDz(ey, cz, i, j, k, 0)-
					UpwardDy(ez, cy, i, j, k, 0)))
			}
		}
	}
	lo, hi = interior(by)
	for k := lo[2]; k < hi[2]; k++ {
		for j := lo[1]; j < hi[1]; j++ {
			for i := lo[0]; i < hi[0]; i++ {
				by.Add(i, j, k, 0, dt*(UpwardDx(ez, cx, i, j, k, 0)-
					UpwardDz(ex, cz, i, j, k, 0)))
			}
		}
	}
	lo, hi = interior(bz)
	for k := lo[2]; k < hi[2]; k++ {
		for j := lo[1]; j < hi[1]; j++ {
			for i := lo[0]; i < hi[0]; i++ {
				bz.Add(i, j, k, 0, dt*(UpwardDy(ex, cy, i, j, k, 0)-
					UpwardDx(ey, cx, i, j, k, 0)))
			}
		}
	}
}

func (s *Solver) evolveB2D(b, e [3]*geom.Grid, dt float64) {
	bx, by, bz := b[0], b[1], b[2]
	ex, ey, ez := e[0], e[1], e[2]
	cx, cz := &s.cx, &s.cz

	lo, hi := interior2D(bx)
	for k := lo[1]; k < hi[1]; k++ {
		for i := lo[0]; i < hi[0]; i++ {
			bx.Add(i, k, 0, 0, dt*UpwardDz2D(ey, cz, i, k, 0))
		}
	}
	lo, hi = interior2D(by)
	for k := lo[1]; k < hi[1]; k++ {
		for i := lo[0]; i < hi[0]; i++ {
			by.Add(i, k, 0, 0, dt*(UpwardDx2D(ez, cx, i, k, 0)-
				UpwardDz2D(ex, cz, i, k, 0)))
		}
	}
	lo, hi = interior2D(bz)
	for k := lo[1]; k < hi[1]; k++ {
		for i := lo[0]; i < hi[0]; i++ {
			bz.Add(i, k, 0, 0, -dt*UpwardDx2D(ey, cx, i, k, 0))
		}
	}
}

// EvolveE advances E by dt in vacuum from the curl of B and the deposited
// current. If f is non-nil the divergence-cleaning gradient term is added.
func (s *Solver) EvolveE(e, b, j [3]*geom.Grid, f *geom.Grid, dt float64) {
	switch s.Geom {
	case geom.Cart3D:
		s.evolveE3D(e, b, j, f, dt)
	case geom.Cart2D:
		s.evolveE2D(e, b, j, f, dt)
	case geom.RZ:
		s.evolveERZ(e, b, j, f, dt)
	}
}

func (s *Solver) evolveE3D(e, b, j [3]*geom.Grid, f *geom.Grid, dt float64) {
	ex, ey, ez := e[0], e[1], e[2]
	bx, by, bz := b[0], b[1], b[2]
	jx, jy, jz := j[0], j[1], j[2]
	cx, cy, cz := &s.cx, &s.cy, &s.cz

	c2 := phys.C * phys.C
	invEps0 := 1 / phys.Eps0

	lo, hi := interior(ex)
	for k := lo[2]; k < hi[2]; k++ {
		for j := lo[1]; j < hi[1]; j++ {
			for i := lo[0]; i < hi[0]; i++ {
				d := c2*(DownwardDy(bz, cy, i, j, k, 0)-
					DownwardDz(by, cz, i, j, k, 0)) -
					invEps0*jx.At(i, j, k, 0)
				if f != nil {
					d += c2 * UpwardDx(f, cx, i, j, k, 0)
				}
				ex.Add(i, j, k, 0, dt*d)
			}
		}
	}
	lo, hi = interior(ey)
	for k := lo[2]; k < hi[2]; k++ {
		for j := lo[1]; j < hi[1]; j++ {
			for i := lo[0]; i < hi[0]; i++ {
				d := c2*(DownwardDz(bx, cz, i, j, k, 0)-
					DownwardDx(bz, cx, i, j, k, 0)) -
					invEps0*jy.At(i, j, k, 0)
				if f != nil {
					d += c2 * UpwardDy(f, cy, i, j, k, 0)
				}
				ey.Add(i, j, k, 0, dt*d)
			}
		}
	}
	lo, hi = interior(ez)
	for k := lo[2]; k < hi[2]; k++ {
		for j := lo[1]; j < hi[1]; j++ {
			for i := lo[0]; i < hi[0]; i++ {
				d := c2*(DownwardDx(by, cx, i, j, k, 0)-
					DownwardDy(bx, cy, i, j, k, 0)) -
					invEps0*jz.At(i, j, k, 0)
				if f != nil {
					d += c2 * UpwardDz(f, cz, i, j, k, 0)
				}
				ez.Add(i, j, k, 0, dt*d)
			}
		}
	}
}

func (s *Solver) evolveE2D(e, b, j [3]*geom.Grid, f *geom.Grid, dt float64) {
	ex, ey, ez := e[0], e[1], e[2]
	bx, by, bz := b[0], b[1], b[2]
	jx, jy, jz := j[0], j[1], j[2]
	cx, cz := &s.cx, &s.cz

	c2 := phys.C * phys.C
	invEps0 := 1 / phys.Eps0

	lo, hi := interior2D(ex)
	for k := lo[1]; k < hi[1]; k++ {
		for i := lo[0]; i < hi[0]; i++ {
			d := -c2*DownwardDz2D(by, cz, i, k, 0) -
				invEps0*jx.At(i, k, 0, 0)
			if f != nil {
				d += c2 * UpwardDx2D(f, cx, i, k, 0)
			}
			ex.Add(i, k, 0, 0, dt*d)
		}
	}
	lo, hi = interior2D(ey)
	for k := lo[1]; k < hi[1]; k++ {
		for i := lo[0]; i < hi[0]; i++ {
			d := c2*(DownwardDz2D(bx, cz, i, k, 0)-
				DownwardDx2D(bz, cx, i, k, 0)) -
				invEps0*jy.At(i, k, 0, 0)
			ey.Add(i, k, 0, 0, dt*d)
		}
	}
	lo, hi = interior2D(ez)
	for k := lo[1]; k < hi[1]; k++ {
		for i := lo[0]; i < hi[0]; i++ {
			d := c2*DownwardDx2D(by, cx, i, k, 0) -
				invEps0*jz.At(i, k, 0, 0)
			if f != nil {
				d += c2 * UpwardDz2D(f, cz, i, k, 0)
			}
			ez.Add(i, k, 0, 0, dt*d)
		}
	}
}

// EvolveF advances the divergence-cleaning potential F by dt from the error
// in Gauss's law. rhoComp selects the component of rho to read, so callers
// with separate old/new charge components can clean against either.
func (s *Solver) EvolveF(
	f *geom.Grid, e [3]*geom.Grid, rho *geom.Grid, rhoComp int, dt float64,
) {
	if s.Geom == geom.RZ {
		s.evolveFRZ(f, e, rho, rhoComp, dt)
		return
	}

	invEps0 := 1 / phys.Eps0
	if s.Geom == geom.Cart3D {
		cx, cy, cz := &s.cx, &s.cy, &s.cz
		ex, ey, ez := e[0], e[1], e[2]
		lo, hi := interior(f)
		for k := lo[2]; k < hi[2]; k++ {
			for j := lo[1]; j < hi[1]; j++ {
				for i := lo[0]; i < hi[0]; i++ {
					f.Add(i, j, k, 0, dt*(DownwardDx(ex, cx, i, j, k, 0)+
						DownwardDy(ey, cy, i, j, k, 0)+
						DownwardDz(ez, cz, i, j, k, 0)-
						invEps0*rho.At(i, j, k, rhoComp)))
				}
			}
		}
		return
	}

	cx, cz := &s.cx, &s.cz
	ex, ez := e[0], e[2]
	lo, hi := interior2D(f)
	for k := lo[1]; k < hi[1]; k++ {
		for i := lo[0]; i < hi[0]; i++ {
			f.Add(i, k, 0, 0, dt*(DownwardDx2D(ex, cx, i, k, 0)+
				DownwardDz2D(ez, cz, i, k, 0)-
				invEps0*rho.At(i, k, 0, rhoComp)))
		}
	}
}

// ComputeDivE writes the discrete divergence of E into divE, which must be
// node-centered.
func (s *Solver) ComputeDivE(e [3]*geom.Grid, divE *geom.Grid) {
	switch s.Geom {
	case geom.Cart3D:
		cx, cy, cz := &s.cx, &s.cy, &s.cz
		ex, ey, ez := e[0], e[1], e[2]
		lo, hi := interior(divE)
		for k := lo[2]; k < hi[2]; k++ {
			for j := lo[1]; j < hi[1]; j++ {
				for i := lo[0]; i < hi[0]; i++ {
					divE.Set(i, j, k, 0, DownwardDx(ex, cx, i, j, k, 0)+
						DownwardDy(ey, cy, i, j, k, 0)+
						DownwardDz(ez, cz, i, j, k, 0))
				}
			}
		}
	case geom.Cart2D:
		cx, cz := &s.cx, &s.cz
		ex, ez := e[0], e[2]
		lo, hi := interior2D(divE)
		for k := lo[1]; k < hi[1]; k++ {
			for i := lo[0]; i < hi[0]; i++ {
				divE.Set(i, k, 0, 0, DownwardDx2D(ex, cx, i, k, 0)+
					DownwardDz2D(ez, cz, i, k, 0))
			}
		}
	case geom.RZ:
		s.computeDivERZ(e, divE)
	}
}

// MacroscopicScheme selects the time discretization of the conduction term
// in a macroscopic medium.
type MacroscopicScheme int

const (
	LaxWendroff MacroscopicScheme = iota
	BackwardEuler
)

// ParseMacroscopicScheme converts a config string into a MacroscopicScheme.
func ParseMacroscopicScheme(s string) (MacroscopicScheme, error) {
	switch s {
	case "laxwendroff", "lax-wendroff":
		return LaxWendroff, nil
	case "backwardeuler", "backward-euler":
		return BackwardEuler, nil
	default:
		return 0, fmt.Errorf("Unrecognized macroscopic scheme, '%s'.", s)
	}
}

// Medium holds spatially uniform macroscopic material properties.
type Medium struct {
	Epsilon float64 // permittivity
	Mu      float64 // permeability
	Sigma   float64 // conductivity

	Scheme MacroscopicScheme
}

// coefs returns the self-coupling and source coefficients of the conduction
// update. Lax-Wendroff time-centers sigma, backward Euler is fully implicit;
// they agree as sigma*dt/epsilon goes to zero.
func (m *Medium) coefs(dt float64) (alpha, beta float64) {
	switch m.Scheme {
	case LaxWendroff:
		fac := m.Sigma * dt / (2 * m.Epsilon)
		return (1 - fac) / (1 + fac), dt / m.Epsilon / (1 + fac)
	case BackwardEuler:
		fac := m.Sigma * dt / m.Epsilon
		return 1 / (1 + fac), dt / m.Epsilon / (1 + fac)
	}
	log.Fatalf("Unrecognized macroscopic scheme, %d.", m.Scheme)
	return 0, 0
}

// MacroscopicEvolveE advances E by dt inside a conducting medium. Only the
// Cartesian geometries support a macroscopic medium.
func (s *Solver) MacroscopicEvolveE(
	e, b, j [3]*geom.Grid, med *Medium, dt float64,
) {
	if s.Geom == geom.RZ {
		log.Fatalf("Macroscopic media are not supported in RZ geometry.")
	}
	alpha, beta := med.coefs(dt)
	invMu := 1 / med.Mu

	if s.Geom == geom.Cart2D {
		s.macroscopicEvolveE2D(e, b, j, alpha, beta, invMu)
		return
	}

	ex, ey, ez := e[0], e[1], e[2]
	bx, by, bz := b[0], b[1], b[2]
	jx, jy, jz := j[0], j[1], j[2]
	cx, cy, cz := &s.cx, &s.cy, &s.cz

	lo, hi := interior(ex)
	for k := lo[2]; k < hi[2]; k++ {
		for jj := lo[1]; jj < hi[1]; jj++ {
			for i := lo[0]; i < hi[0]; i++ {
				curl := DownwardDy(bz, cy, i, jj, k, 0) -
					DownwardDz(by, cz, i, jj, k, 0)
				ex.Set(i, jj, k, 0, alpha*ex.At(i, jj, k, 0)+
					beta*(invMu*curl-jx.At(i, jj, k, 0)))
			}
		}
	}
	lo, hi = interior(ey)
	for k := lo[2]; k < hi[2]; k++ {
		for jj := lo[1]; jj < hi[1]; jj++ {
			for i := lo[0]; i < hi[0]; i++ {
				curl := DownwardDz(bx, cz, i, jj, k, 0) -
					DownwardDx(bz, cx, i, jj, k, 0)
				ey.Set(i, jj, k, 0, alpha*ey.At(i, jj, k, 0)+
					beta*(invMu*curl-jy.At(i, jj, k, 0)))
			}
		}
	}
	lo, hi = interior(ez)
	for k := lo[2]; k < hi[2]; k++ {
		for jj := lo[1]; jj < hi[1]; jj++ {
			for i := lo[0]; i < hi[0]; i++ {
				curl := DownwardDx(by, cx, i, jj, k, 0) -
					DownwardDy(bx, cy, i, jj, k, 0)
				ez.Set(i, jj, k, 0, alpha*ez.At(i, jj, k, 0)+
					beta*(invMu*curl-jz.At(i, jj, k, 0)))
			}
		}
	}
}

func (s *Solver) macroscopicEvolveE2D(
	e, b, j [3]*geom.Grid, alpha, beta, invMu float64,
) {
	ex, ey, ez := e[0], e[1], e[2]
	bx, by, bz := b[0], b[1], b[2]
	jx, jy, jz := j[0], j[1], j[2]
	cx, cz := &s.cx, &s.cz

	lo, hi := interior2D(ex)
	for k := lo[1]; k < hi[1]; k++ {
		for i := lo[0]; i < hi[0]; i++ {
			curl := -DownwardDz2D(by, cz, i, k, 0)
			ex.Set(i, k, 0, 0, alpha*ex.At(i, k, 0, 0)+
				beta*(invMu*curl-jx.At(i, k, 0, 0)))
		}
	}
	lo, hi = interior2D(ey)
	for k := lo[1]; k < hi[1]; k++ {
		for i := lo[0]; i < hi[0]; i++ {
			curl := DownwardDz2D(bx, cz, i, k, 0) -
				DownwardDx2D(bz, cx, i, k, 0)
			ey.Set(i, k, 0, 0, alpha*ey.At(i, k, 0, 0)+
				beta*(invMu*curl-jy.At(i, k, 0, 0)))
		}
	}
	lo, hi = interior2D(ez)
	for k := lo[1]; k < hi[1]; k++ {
		for i := lo[0]; i < hi[0]; i++ {
			curl := DownwardDx2D(by, cx, i, k, 0)
			ez.Set(i, k, 0, 0, alpha*ez.At(i, k, 0, 0)+
				beta*(invMu*curl-jz.At(i, k, 0, 0)))
		}
	}
}
