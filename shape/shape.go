/*package shape computes the polynomial shape factors that distribute a
particle's contribution across nearby grid points.

A fractional grid coordinate x (in cell units, relative to the domain lower
corner) maps to order+1 weights which sum to 1 and an integer index of the
leftmost grid point the particle touches. Order 1 is linear area weighting;
orders 2 and 3 are the standard quadratic and cubic B-splines.

Fields stored at cell centers use the same tables with the coordinate shifted
by half a cell; that shift is the caller's responsibility.
*/
package shape

import (
	"log"
)

// MaxOrder is the highest supported interpolation order.
const MaxOrder = 3

// CheckOrder fails if order is not supported. Deposition and gather loops
// call it once per batch, not per particle.
func CheckOrder(order int) {
	if order < 1 || order > MaxOrder {
		log.Fatalf("Unsupported shape factor order, %d.", order)
	}
}

// Factor writes order+1 weights into w and returns the index of the leftmost
// grid point the particle at fractional coordinate x contributes to. w must
// have room for order+1 values starting at index 0.
func Factor(w []float64, x float64, order int) int {
	switch order {
	case 1:
		j := int(x)
		f := x - float64(j)
		w[0] = 1 - f
		w[1] = f
		return j
	case 2:
		// Quadratic splines center on the nearest grid point.
		j := int(x + 0.5)
		f := x - float64(j)
		w[0] = 0.5 * (0.5 - f) * (0.5 - f)
		w[1] = 0.75 - f*f
		w[2] = 0.5 * (0.5 + f) * (0.5 + f)
		return j - 1
	case 3:
		j := int(x)
		f := x - float64(j)
		w[0] = 1.0 / 6.0 * (1 - f) * (1 - f) * (1 - f)
		w[1] = 2.0/3.0 - f*f*(1-f/2)
		w[2] = 2.0/3.0 - (1-f)*(1-f)*(1-0.5*(1-f))
		w[3] = 1.0 / 6.0 * f * f * f
		return j - 1
	}
	CheckOrder(order)
	return 0
}

// ShiftedFactor writes the weights for the old particle position xOld into w,
// placed relative to the index origin iNew already computed for the new
// position, and returns the leftmost index of the old stencil. w must have
// room for order+3 values: the extra slot above and below absorbs a one-cell
// drift of the particle between the two positions.
//
// Esirkepov deposition relies on the old and new stencils sharing an index
// origin: the caller passes the new-position weights in slots 1..order+1 of
// its own order+3 array, and this function places the old-position weights so
// that equal slots refer to equal grid points.
func ShiftedFactor(w []float64, xOld float64, iNew, order int) int {
	switch order {
	case 1:
		i := int(xOld)
		shift := i - iNew
		f := xOld - float64(i)
		w[1+shift] = 1 - f
		w[2+shift] = f
		return i
	case 2:
		i := int(xOld + 0.5)
		shift := i - (iNew + 1)
		f := xOld - float64(i)
		w[1+shift] = 0.5 * (0.5 - f) * (0.5 - f)
		w[2+shift] = 0.75 - f*f
		w[3+shift] = 0.5 * (0.5 + f) * (0.5 + f)
		return i - 1
	case 3:
		i := int(xOld)
		shift := i - (iNew + 1)
		f := xOld - float64(i)
		w[1+shift] = 1.0 / 6.0 * (1 - f) * (1 - f) * (1 - f)
		w[2+shift] = 2.0/3.0 - f*f*(1-f/2)
		w[3+shift] = 2.0/3.0 - (1-f)*(1-f)*(1-0.5*(1-f))
		w[4+shift] = 1.0 / 6.0 * f * f * f
		return i - 1
	}
	CheckOrder(order)
	return 0
}
