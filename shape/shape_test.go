package shape

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

const testEps = 1e-14

func TestFactorWeightSum(t *testing.T) {
	for order := 1; order <= MaxOrder; order++ {
		w := make([]float64, order+1)
		for i := 0; i <= 100; i++ {
			x := 5.0 + float64(i)/100
			Factor(w, x, order)
			sum := 0.0
			for _, wi := range w {
				sum += wi
			}
			if math.Abs(sum-1) > testEps {
				t.Errorf("Order %d weights at x = %g sum to %g.", order, x, sum)
			}
		}
	}
}

func TestFactorWeightsNonNegative(t *testing.T) {
	for order := 1; order <= MaxOrder; order++ {
		w := make([]float64, order+1)
		for i := 0; i < 100; i++ {
			x := 3.0 + float64(i)/100
			Factor(w, x, order)
			for j, wi := range w {
				if wi < -testEps {
					t.Errorf("Order %d weight %d at x = %g is %g.",
						order, j, x, wi)
				}
			}
		}
	}
}

func TestFactorLinear(t *testing.T) {
	w := make([]float64, 2)
	j := Factor(w, 4.25, 1)
	assert.Equal(t, 4, j)
	assert.InDelta(t, 0.75, w[0], testEps)
	assert.InDelta(t, 0.25, w[1], testEps)
}

func TestFactorLeftmostIndex(t *testing.T) {
	// The leftmost index and the weights must bracket the particle: the
	// center of mass of the stencil is the particle position.
	for order := 1; order <= MaxOrder; order++ {
		w := make([]float64, order+1)
		for i := 0; i < 50; i++ {
			x := 7.0 + float64(i)/50
			j := Factor(w, x, order)
			com := 0.0
			for k, wk := range w {
				com += wk * float64(j+k)
			}
			if math.Abs(com-x) > 1e-12 {
				t.Errorf("Order %d stencil at x = %g has center %g.",
					order, x, com)
			}
		}
	}
}

// Shifted and unshifted factors must place identical weights on identical
// grid points whenever the old and new positions share a cell.
func TestShiftedFactorMatchesFactor(t *testing.T) {
	for order := 1; order <= MaxOrder; order++ {
		for i := 0; i < 20; i++ {
			xNew := 6.0 + float64(i)/20
			xOld := xNew - 0.3 // may fall in the previous cell

			wNew := make([]float64, order+3)
			iNew := Factor(wNew[1:], xNew, order)

			wOld := make([]float64, order+3)
			ShiftedFactor(wOld, xOld, iNew, order)

			wRef := make([]float64, order+1)
			iOld := Factor(wRef, xOld, order)

			// Slot s of the aligned arrays is grid point iNew - 1 + s.
			for s := 0; s < order+3; s++ {
				point := iNew - 1 + s
				want := 0.0
				if point >= iOld && point <= iOld+order {
					want = wRef[point-iOld]
				}
				if math.Abs(wOld[s]-want) > testEps {
					t.Errorf(
						"Order %d: point %d has shifted weight %g, want %g.",
						order, point, wOld[s], want)
				}
			}
		}
	}
}

func TestShiftedFactorWeightSum(t *testing.T) {
	for order := 1; order <= MaxOrder; order++ {
		w := make([]float64, order+3)
		wNew := make([]float64, order+1)
		iNew := Factor(wNew, 9.4, order)
		ShiftedFactor(w, 8.7, iNew, order)
		sum := 0.0
		for _, wi := range w {
			sum += wi
		}
		assert.InDelta(t, 1.0, sum, testEps, "order %d", order)
	}
}
