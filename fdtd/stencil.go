/*package fdtd advances the electromagnetic fields on a staggered grid by
finite differences: leapfrog B and E updates, optional divergence cleaning,
macroscopic-medium updates, and the split-field PML boundary updates.

The per-axis derivative operators read a precomputed stencil coefficient
vector. The standard Yee algorithm fills only the inverse cell size; the
Cole-Karkkainen (CKC) algorithm extends the upward derivatives with
transverse and diagonal weights. One operator implementation serves both, so
selecting the algorithm costs nothing on the per-cell path.
*/
package fdtd

import (
	"fmt"
	"log"

	"github.com/phil-mansfield/gopic/geom"
)

// Algorithm selects the finite-difference stencil, fixed at construction.
type Algorithm int

const (
	Yee Algorithm = iota
	CKC
)

// ParseAlgorithm converts a config string into an Algorithm tag.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch s {
	case "yee":
		return Yee, nil
	case "ckc":
		return CKC, nil
	}
	return 0, fmt.Errorf("Unrecognized solver algorithm, '%s'.", s)
}

// Coefs is the stencil coefficient vector for derivatives along one axis.
// InvD is the plain inverse cell size, used by all downward derivatives.
// Alpha, BetaA, BetaB and Gamma weight the in-line, two transverse, and
// diagonal differences of the upward derivative; for Yee Alpha = InvD and
// the rest are zero. All carry the inverse cell size. Immutable and shared
// read-only by all workers during a step.
type Coefs struct {
	InvD                 float64
	Alpha, BetaA, BetaB  float64
	Gamma                float64
}

// InitCoefs builds the per-axis stencil coefficients from the cell size.
// For CKC the weights follow Cowan's construction: BetaA/BetaB shift along
// the other two axes in cyclic order (x: y then z, y: z then x, z: x then y),
// and Alpha is fixed by requiring the derivative of a linear field to be
// exact, Alpha = InvD - 2*BetaA - 2*BetaB - 4*Gamma.
func InitCoefs(alg Algorithm, cellSize [3]float64, twoD bool) (cx, cy, cz Coefs) {
	dx, dy, dz := cellSize[0], cellSize[1], cellSize[2]
	if twoD {
		dy = 1
	}
	invDx, invDy, invDz := 1/dx, 1/dy, 1/dz

	cx, cy, cz = Coefs{InvD: invDx}, Coefs{InvD: invDy}, Coefs{InvD: invDz}

	switch alg {
	case Yee:
		cx.Alpha, cy.Alpha, cz.Alpha = invDx, invDy, invDz
	case CKC:
		if twoD {
			cx.BetaB = 0.125 * invDx // z shift
			cz.BetaA = 0.125 * invDz // x shift
			cx.Alpha = invDx - 2*cx.BetaB
			cy.Alpha = invDy
			cz.Alpha = invDz - 2*cz.BetaA
			break
		}
		delta := dx
		if dy > delta {
			delta = dy
		}
		if dz > delta {
			delta = dz
		}
		rx := (dx / delta) * (dx / delta)
		ry := (dy / delta) * (dy / delta)
		rz := (dz / delta) * (dz / delta)
		rSum := ry*rz + rz*rx + rx*ry
		beta := 0.125 * (1 - rx*ry*rz/rSum)

		cx.BetaA, cx.BetaB = ry*beta*invDx, rz*beta*invDx
		cy.BetaA, cy.BetaB = rz*beta*invDy, rx*beta*invDy
		cz.BetaA, cz.BetaB = rx*beta*invDz, ry*beta*invDz
		cx.Gamma = ry * rz * (0.0625 - 0.125*ry*rz/rSum) * invDx
		cy.Gamma = rz * rx * (0.0625 - 0.125*rz*rx/rSum) * invDy
		cz.Gamma = rx * ry * (0.0625 - 0.125*rx*ry/rSum) * invDz

		cx.Alpha = invDx - 2*cx.BetaA - 2*cx.BetaB - 4*cx.Gamma
		cy.Alpha = invDy - 2*cy.BetaA - 2*cy.BetaB - 4*cy.Gamma
		cz.Alpha = invDz - 2*cz.BetaA - 2*cz.BetaB - 4*cz.Gamma
	default:
		log.Fatalf("Unrecognized solver algorithm, %d.", alg)
	}
	return cx, cy, cz
}

// UpwardDx is the forward derivative along x: it maps a field that is
// node-centered in x to the cell centers. BetaA shifts along y, BetaB
// along z.
func UpwardDx(f *geom.Grid, c *Coefs, i, j, k, n int) float64 {
	d := c.Alpha * (f.At(i+1, j, k, n) - f.At(i, j, k, n))
	if c.BetaA != 0 {
		d += c.BetaA * (f.At(i+1, j+1, k, n) - f.At(i, j+1, k, n) +
			f.At(i+1, j-1, k, n) - f.At(i, j-1, k, n))
	}
	if c.BetaB != 0 {
		d += c.BetaB * (f.At(i+1, j, k+1, n) - f.At(i, j, k+1, n) +
			f.At(i+1, j, k-1, n) - f.At(i, j, k-1, n))
	}
	if c.Gamma != 0 {
		d += c.Gamma * (f.At(i+1, j+1, k+1, n) - f.At(i, j+1, k+1, n) +
			f.At(i+1, j-1, k+1, n) - f.At(i, j-1, k+1, n) +
			f.At(i+1, j+1, k-1, n) - f.At(i, j+1, k-1, n) +
			f.At(i+1, j-1, k-1, n) - f.At(i, j-1, k-1, n))
	}
	return d
}

// DownwardDx is the backward derivative along x, mapping cell centers back
// to nodes.
func DownwardDx(f *geom.Grid, c *Coefs, i, j, k, n int) float64 {
	return c.InvD * (f.At(i, j, k, n) - f.At(i-1, j, k, n))
}

// UpwardDy is the forward derivative along y. BetaA shifts along z, BetaB
// along x.
func UpwardDy(f *geom.Grid, c *Coefs, i, j, k, n int) float64 {
	d := c.Alpha * (f.At(i, j+1, k, n) - f.At(i, j, k, n))
	if c.BetaA != 0 {
		d += c.BetaA * (f.At(i, j+1, k+1, n) - f.At(i, j, k+1, n) +
			f.At(i, j+1, k-1, n) - f.At(i, j, k-1, n))
	}
	if c.BetaB != 0 {
		d += c.BetaB * (f.At(i+1, j+1, k, n) - f.At(i+1, j, k, n) +
			f.At(i-1, j+1, k, n) - f.At(i-1, j, k, n))
	}
	if c.Gamma != 0 {
		d += c.Gamma * (f.At(i+1, j+1, k+1, n) - f.At(i+1, j, k+1, n) +
			f.At(i-1, j+1, k+1, n) - f.At(i-1, j, k+1, n) +
			f.At(i+1, j+1, k-1, n) - f.At(i+1, j, k-1, n) +
			f.At(i-1, j+1, k-1, n) - f.At(i-1, j, k-1, n))
	}
	return d
}

// DownwardDy is the backward derivative along y.
func DownwardDy(f *geom.Grid, c *Coefs, i, j, k, n int) float64 {
	return c.InvD * (f.At(i, j, k, n) - f.At(i, j-1, k, n))
}

// UpwardDz is the forward derivative along z. BetaA shifts along x, BetaB
// along y.
func UpwardDz(f *geom.Grid, c *Coefs, i, j, k, n int) float64 {
	d := c.Alpha * (f.At(i, j, k+1, n) - f.At(i, j, k, n))
	if c.BetaA != 0 {
		d += c.BetaA * (f.At(i+1, j, k+1, n) - f.At(i+1, j, k, n) +
			f.At(i-1, j, k+1, n) - f.At(i-1, j, k, n))
	}
	if c.BetaB != 0 {
		d += c.BetaB * (f.At(i, j+1, k+1, n) - f.At(i, j+1, k, n) +
			f.At(i, j-1, k+1, n) - f.At(i, j-1, k, n))
	}
	if c.Gamma != 0 {
		d += c.Gamma * (f.At(i+1, j+1, k+1, n) - f.At(i+1, j+1, k, n) +
			f.At(i-1, j+1, k+1, n) - f.At(i-1, j+1, k, n) +
			f.At(i+1, j-1, k+1, n) - f.At(i+1, j-1, k, n) +
			f.At(i-1, j-1, k+1, n) - f.At(i-1, j-1, k, n))
	}
	return d
}

// DownwardDz is the backward derivative along z.
func DownwardDz(f *geom.Grid, c *Coefs, i, j, k, n int) float64 {
	return c.InvD * (f.At(i, j, k, n) - f.At(i, j, k-1, n))
}

// 2D (x-z) variants: the grid stores x along axis 0 and z along axis 1, and
// the derivative along y is identically zero.

// UpwardDx2D is the forward x derivative on an (x, z) grid. BetaB shifts
// along z.
func UpwardDx2D(f *geom.Grid, c *Coefs, i, k, n int) float64 {
	d := c.Alpha * (f.At(i+1, k, 0, n) - f.At(i, k, 0, n))
	if c.BetaB != 0 {
		d += c.BetaB * (f.At(i+1, k+1, 0, n) - f.At(i, k+1, 0, n) +
			f.At(i+1, k-1, 0, n) - f.At(i, k-1, 0, n))
	}
	return d
}

// DownwardDx2D is the backward x derivative on an (x, z) grid.
func DownwardDx2D(f *geom.Grid, c *Coefs, i, k, n int) float64 {
	return c.InvD * (f.At(i, k, 0, n) - f.At(i-1, k, 0, n))
}

// UpwardDz2D is the forward z derivative on an (x, z) grid. BetaA shifts
// along x.
func UpwardDz2D(f *geom.Grid, c *Coefs, i, k, n int) float64 {
	d := c.Alpha * (f.At(i, k+1, 0, n) - f.At(i, k, 0, n))
	if c.BetaA != 0 {
		d += c.BetaA * (f.At(i+1, k+1, 0, n) - f.At(i+1, k, 0, n) +
			f.At(i-1, k+1, 0, n) - f.At(i-1, k, 0, n))
	}
	return d
}

// DownwardDz2D is the backward z derivative on an (x, z) grid.
func DownwardDz2D(f *geom.Grid, c *Coefs, i, k, n int) float64 {
	return c.InvD * (f.At(i, k, 0, n) - f.At(i, k-1, 0, n))
}
