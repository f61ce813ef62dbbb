package fdtd

import (
	"log"

	"github.com/phil-mansfield/gopic/geom"
	"github.com/phil-mansfield/gopic/phys"
)

// Split-field updates for the absorbing boundary patches. Every field grid
// here carries two components, one per transverse split direction, ordered
// by axis index: Ex and Bx split into (y, z), Ey and By into (x, z), Ez and
// Bz into (x, y). The derivative of a split field always acts on the sum of
// its components, and each curl term is accumulated into the split component
// of its own derivative direction. The patches use the plain Yee derivative
// regardless of the bulk algorithm.

func upTot(f *geom.Grid, invD float64, i, j, k, di, dj, dk int) float64 {
	return invD * (f.At(i+di, j+dj, k+dk, 0) + f.At(i+di, j+dj, k+dk, 1) -
		f.At(i, j, k, 0) - f.At(i, j, k, 1))
}

func downTot(f *geom.Grid, invD float64, i, j, k, di, dj, dk int) float64 {
	return invD * (f.At(i, j, k, 0) + f.At(i, j, k, 1) -
		f.At(i-di, j-dj, k-dk, 0) - f.At(i-di, j-dj, k-dk, 1))
}

// EvolveBPML advances the split B fields in a boundary patch by dt.
func (s *Solver) EvolveBPML(b, e [3]*geom.Grid, dt float64) {
	switch s.Geom {
	case geom.Cart3D:
		s.evolveBPML3D(b, e, dt)
	case geom.Cart2D:
		s.evolveBPML2D(b, e, dt)
	default:
		log.Fatalf("PML patches are not supported in geometry %v.", s.Geom)
	}
}

func (s *Solver) evolveBPML3D(b, e [3]*geom.Grid, dt float64) {
	bx, by, bz := b[0], b[1], b[2]
	ex, ey, ez := e[0], e[1], e[2]
	invDx, invDy, invDz := s.cx.InvD, s.cy.InvD, s.cz.InvD

	lo, hi := interior(bx)
	for k := lo[2]; k < hi[2]; k++ {
		for j := lo[1]; j < hi[1]; j++ {
			for i := lo[0]; i < hi[0]; i++ {
				bx.Add(i, j, k, 0, -dt*upTot(ez, invDy, i, j, k, 0, 1, 0))
				bx.Add(i, j, k, 1, dt*upTot(ey, invDz, i, j, k, 0, 0, 1))
			}
		}
	}
	lo, hi = interior(by)
	for k := lo[2]; k < hi[2]; k++ {
		for j := lo[1]; j < hi[1]; j++ {
			for i := lo[0]; i < hi[0]; i++ {
				by.Add(i, j, k, 0, dt*upTot(ez, invDx, i, j, k, 1, 0, 0))
				by.Add(i, j, k, 1, -dt*upTot(ex, invDz, i, j, k, 0, 0, 1))
			}
		}
	}
	lo, hi = interior(bz)
	for k := lo[2]; k < hi[2]; k++ {
		for j := lo[1]; j < hi[1]; j++ {
			for i := lo[0]; i < hi[0]; i++ {
				bz.Add(i, j, k, 0, -dt*upTot(ey, invDx, i, j, k, 1, 0, 0))
				bz.Add(i, j, k, 1, dt*upTot(ex, invDy, i, j, k, 0, 1, 0))
			}
		}
	}
}

func (s *Solver) evolveBPML2D(b, e [3]*geom.Grid, dt float64) {
	bx, by, bz := b[0], b[1], b[2]
	ex, ey, ez := e[0], e[1], e[2]
	invDx, invDz := s.cx.InvD, s.cz.InvD

	lo, hi := interior2D(bx)
	for k := lo[1]; k < hi[1]; k++ {
		for i := lo[0]; i < hi[0]; i++ {
			bx.Add(i, k, 0, 1, dt*upTot(ey, invDz, i, k, 0, 0, 1, 0))
		}
	}
	lo, hi = interior2D(by)
	for k := lo[1]; k < hi[1]; k++ {
		for i := lo[0]; i < hi[0]; i++ {
			by.Add(i, k, 0, 0, dt*upTot(ez, invDx, i, k, 0, 1, 0, 0))
			by.Add(i, k, 0, 1, -dt*upTot(ex, invDz, i, k, 0, 0, 1, 0))
		}
	}
	lo, hi = interior2D(bz)
	for k := lo[1]; k < hi[1]; k++ {
		for i := lo[0]; i < hi[0]; i++ {
			bz.Add(i, k, 0, 0, -dt*upTot(ey, invDx, i, k, 0, 1, 0, 0))
		}
	}
}

// EvolveEPML advances the split E fields in a boundary patch by dt. The
// deposited PML-region current is pushed separately by the pml package
// kernels, which also decide how it divides between the split components.
func (s *Solver) EvolveEPML(e, b [3]*geom.Grid, dt float64) {
	switch s.Geom {
	case geom.Cart3D:
		s.evolveEPML3D(e, b, dt)
	case geom.Cart2D:
		s.evolveEPML2D(e, b, dt)
	default:
		log.Fatalf("PML patches are not supported in geometry %v.", s.Geom)
	}
}

func (s *Solver) evolveEPML3D(e, b [3]*geom.Grid, dt float64) {
	ex, ey, ez := e[0], e[1], e[2]
	bx, by, bz := b[0], b[1], b[2]
	invDx, invDy, invDz := s.cx.InvD, s.cy.InvD, s.cz.InvD
	c2dt := phys.C * phys.C * dt

	lo, hi := interior(ex)
	for k := lo[2]; k < hi[2]; k++ {
		for j := lo[1]; j < hi[1]; j++ {
			for i := lo[0]; i < hi[0]; i++ {
				ex.Add(i, j, k, 0, c2dt*downTot(bz, invDy, i, j, k, 0, 1, 0))
				ex.Add(i, j, k, 1, -c2dt*downTot(by, invDz, i, j, k, 0, 0, 1))
			}
		}
	}
	lo, hi = interior(ey)
	for k := lo[2]; k < hi[2]; k++ {
		for j := lo[1]; j < hi[1]; j++ {
			for i := lo[0]; i < hi[0]; i++ {
				ey.Add(i, j, k, 0, -c2dt*downTot(bz, invDx, i, j, k, 1, 0, 0))
				ey.Add(i, j, k, 1, c2dt*downTot(bx, invDz, i, j, k, 0, 0, 1))
			}
		}
	}
	lo, hi = interior(ez)
	for k := lo[2]; k < hi[2]; k++ {
		for j := lo[1]; j < hi[1]; j++ {
			for i := lo[0]; i < hi[0]; i++ {
				ez.Add(i, j, k, 0, c2dt*downTot(by, invDx, i, j, k, 1, 0, 0))
				ez.Add(i, j, k, 1, -c2dt*downTot(bx, invDy, i, j, k, 0, 1, 0))
			}
		}
	}
}

func (s *Solver) evolveEPML2D(e, b [3]*geom.Grid, dt float64) {
	ex, ey, ez := e[0], e[1], e[2]
	bx, by, bz := b[0], b[1], b[2]
	invDx, invDz := s.cx.InvD, s.cz.InvD
	c2dt := phys.C * phys.C * dt

	lo, hi := interior2D(ex)
	for k := lo[1]; k < hi[1]; k++ {
		for i := lo[0]; i < hi[0]; i++ {
			ex.Add(i, k, 0, 1, -c2dt*downTot(by, invDz, i, k, 0, 0, 1, 0))
		}
	}
	lo, hi = interior2D(ey)
	for k := lo[1]; k < hi[1]; k++ {
		for i := lo[0]; i < hi[0]; i++ {
			ey.Add(i, k, 0, 0, -c2dt*downTot(bz, invDx, i, k, 0, 1, 0, 0))
			ey.Add(i, k, 0, 1, c2dt*downTot(bx, invDz, i, k, 0, 0, 1, 0))
		}
	}
	lo, hi = interior2D(ez)
	for k := lo[1]; k < hi[1]; k++ {
		for i := lo[0]; i < hi[0]; i++ {
			ez.Add(i, k, 0, 0, c2dt*downTot(by, invDx, i, k, 0, 1, 0, 0))
		}
	}
}

// EvolveFPML advances the divergence-cleaning potential inside a boundary
// patch. The patch carries no charge, so F relaxes against the divergence of
// the split E fields alone.
func (s *Solver) EvolveFPML(f *geom.Grid, e [3]*geom.Grid, dt float64) {
	ex, ey, ez := e[0], e[1], e[2]
	invDx, invDy, invDz := s.cx.InvD, s.cy.InvD, s.cz.InvD

	switch s.Geom {
	case geom.Cart3D:
		lo, hi := interior(f)
		for k := lo[2]; k < hi[2]; k++ {
			for j := lo[1]; j < hi[1]; j++ {
				for i := lo[0]; i < hi[0]; i++ {
					f.Add(i, j, k, 0,
						dt*(downTot(ex, invDx, i, j, k, 1, 0, 0)+
							downTot(ey, invDy, i, j, k, 0, 1, 0)+
							downTot(ez, invDz, i, j, k, 0, 0, 1)))
				}
			}
		}
	case geom.Cart2D:
		lo, hi := interior2D(f)
		for k := lo[1]; k < hi[1]; k++ {
			for i := lo[0]; i < hi[0]; i++ {
				f.Add(i, k, 0, 0,
					dt*(downTot(ex, invDx, i, k, 0, 1, 0, 0)+
						downTot(ez, invDz, i, k, 0, 0, 1, 0)))
			}
		}
	default:
		log.Fatalf("PML patches are not supported in geometry %v.", s.Geom)
	}
}
