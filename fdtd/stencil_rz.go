package fdtd

import (
	"github.com/phil-mansfield/gopic/geom"
)

// Cylindrical grids share the (x, z) layout of 2D Cartesian grids, with r on
// axis 0, so the plain r and z derivatives reuse the 2D operators. Only the
// radial-metric derivative (1/r) d(r f)/dr needs its own operators; these
// weight the samples by their radius, which keeps the derivative exact for
// fields proportional to 1/r.

// UpwardDrrOverR evaluates (1/r) d(r f)/dr at the half-cell point i+1/2 from
// the node samples at i and i+1. rMin is the radius of node 0.
func UpwardDrrOverR(f *geom.Grid, invDr, rMin, dr float64, i, k, n int) float64 {
	r := rMin + dr*float64(i)
	return invDr / (r + 0.5*dr) *
		((r+dr)*f.At(i+1, k, 0, n) - r*f.At(i, k, 0, n))
}

// DownwardDrrOverR evaluates (1/r) d(r f)/dr at node i from the half-cell
// samples at i-1/2 and i+1/2. It must not be called on the axis node; the
// solver applies the analytic axis limits there instead.
func DownwardDrrOverR(f *geom.Grid, invDr, rMin, dr float64, i, k, n int) float64 {
	r := rMin + dr*float64(i)
	return invDr / r *
		((r+0.5*dr)*f.At(i, k, 0, n) - (r-0.5*dr)*f.At(i-1, k, 0, n))
}
