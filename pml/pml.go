/*package pml implements the split-field Perfectly Matched Layer used to
absorb radiation leaving the domain.

Near each boundary the current and field components are split into
directional parts damped independently. The damping profiles are precomputed
per axis from the layer thickness and a power-law damping strength; the
kernels here multiply currents by decay-factor products and push the
PML-region current onto the split E-field components.
*/
package pml

import (
	"log"
	"math"

	"github.com/phil-mansfield/gopic/geom"
)

// Profile holds per-axis damping coefficients indexed by local grid offset.
// Sigma is the raw damping strength (zero in the domain interior), Fac the
// per-step decay factor exp(-Sigma) in (0, 1]. The Star variants are sampled
// at the staggered half-cell points. Immutable after construction.
type Profile struct {
	Lo int

	Sigma, SigmaStar []float64
	Fac, FacStar     []float64
}

// NewProfile builds the damping profile for one axis of a grid n cells wide
// with a PML layer `thickness` cells deep at both ends. The damping strength
// grows into the layer as sigMax * (depth/thickness)^power.
func NewProfile(lo, n, thickness int, sigMax, power float64) *Profile {
	if thickness < 0 || 2*thickness > n {
		log.Fatalf("PML thickness %d does not fit in %d cells.", thickness, n)
	}
	if sigMax < 0 {
		log.Fatalf("PML sigma max is %g.", sigMax)
	}

	p := &Profile{Lo: lo}
	p.Sigma = make([]float64, n+1)
	p.SigmaStar = make([]float64, n+1)
	p.Fac = make([]float64, n+1)
	p.FacStar = make([]float64, n+1)

	for i := 0; i <= n; i++ {
		p.Sigma[i] = strength(float64(i), n, thickness, sigMax, power)
		p.SigmaStar[i] = strength(float64(i)+0.5, n, thickness, sigMax, power)
		p.Fac[i] = math.Exp(-p.Sigma[i])
		p.FacStar[i] = math.Exp(-p.SigmaStar[i])
	}
	return p
}

// NewUnitProfile returns a profile with no damping anywhere, used for axes
// that carry no PML layer.
func NewUnitProfile(lo, n int) *Profile {
	return NewProfile(lo, n, 0, 0, 1)
}

func strength(x float64, n, thickness int, sigMax, power float64) float64 {
	if thickness == 0 {
		return 0
	}
	depth := 0.0
	if x < float64(thickness) {
		depth = (float64(thickness) - x) / float64(thickness)
	} else if x > float64(n-thickness) {
		depth = (x - float64(n-thickness)) / float64(thickness)
	}
	if depth <= 0 {
		return 0
	}
	if depth > 1 {
		depth = 1
	}
	return sigMax * math.Pow(depth, power)
}

// At returns the node-sampled decay factor at global index i.
func (p *Profile) At(i int) float64 { return p.Fac[i-p.Lo] }

// AtStar returns the staggered decay factor at global index i.
func (p *Profile) AtStar(i int) float64 { return p.FacStar[i-p.Lo] }

// SigmaAt returns the raw node-sampled damping strength at global index i.
func (p *Profile) SigmaAt(i int) float64 { return p.Sigma[i-p.Lo] }

// DampJx multiplies jx at (j, k, l) by the product of the per-axis decay
// factors: the staggered profile along the current's own axis and the node
// profiles transverse to it. In 2D the y axis collapses away and k indexes z.
func DampJx(j, k, l int, jx *geom.Grid, sigsx, sigy, sigz *Profile, threeD bool) {
	if threeD {
		jx.Vals[jx.Idx(j, k, l, 0)] *= sigsx.AtStar(j) * sigy.At(k) * sigz.At(l)
	} else {
		jx.Vals[jx.Idx(j, k, 0, 0)] *= sigsx.AtStar(j) * sigz.At(k)
	}
}

// DampJy is the y-current analogue of DampJx.
func DampJy(j, k, l int, jy *geom.Grid, sigx, sigsy, sigz *Profile, threeD bool) {
	if threeD {
		jy.Vals[jy.Idx(j, k, l, 0)] *= sigx.At(j) * sigsy.AtStar(k) * sigz.At(l)
	} else {
		jy.Vals[jy.Idx(j, k, 0, 0)] *= sigx.At(j) * sigz.At(k)
	}
}

// DampJz is the z-current analogue of DampJx.
func DampJz(j, k, l int, jz *geom.Grid, sigx, sigy, sigsz *Profile, threeD bool) {
	if threeD {
		jz.Vals[jz.Idx(j, k, l, 0)] *= sigx.At(j) * sigy.At(k) * sigsz.AtStar(l)
	} else {
		jz.Vals[jz.Idx(j, k, 0, 0)] *= sigx.At(j) * sigsz.AtStar(k)
	}
}

// AlphaSplit partitions a unit source between two split components in
// proportion to the raw damping strengths. When both are exactly zero the
// split is 0.5/0.5; this tie-break, not a limit of the ratio, is what
// reference implementations use, and changing it breaks bit reproducibility.
func AlphaSplit(sig1, sig2 float64) (a1, a2 float64) {
	if sig1+sig2 == 0 {
		return 0.5, 0.5
	}
	return sig1 / (sig1 + sig2), sig2 / (sig1 + sig2)
}

// PushExCurrent subtracts the PML-region current jx from the split Ex
// components at (j, k, l). muC2Dt is mu0 * c^2 * dt. The source is divided
// between the y- and z-split components according to the local damping.
func PushExCurrent(
	j, k, l int,
	ex, jx *geom.Grid,
	sigy, sigz *Profile,
	muC2Dt float64, threeD bool,
) {
	if threeD {
		axy, axz := AlphaSplit(sigy.SigmaAt(k), sigz.SigmaAt(l))
		cur := jx.At(j, k, l, 0)
		ex.Add(j, k, l, 0, -muC2Dt*axy*cur)
		ex.Add(j, k, l, 1, -muC2Dt*axz*cur)
	} else {
		// 2D: Ex splits only against z.
		ex.Add(j, k, 0, 1, -muC2Dt*jx.At(j, k, 0, 0))
	}
}

// PushEyCurrent is the y-field analogue of PushExCurrent.
func PushEyCurrent(
	j, k, l int,
	ey, jy *geom.Grid,
	sigx, sigz *Profile,
	muC2Dt float64, threeD bool,
) {
	if threeD {
		ayx, ayz := AlphaSplit(sigx.SigmaAt(j), sigz.SigmaAt(l))
		cur := jy.At(j, k, l, 0)
		ey.Add(j, k, l, 0, -muC2Dt*ayx*cur)
		ey.Add(j, k, l, 1, -muC2Dt*ayz*cur)
	} else {
		cur := jy.At(j, k, 0, 0)
		ey.Add(j, k, 0, 0, -0.5*muC2Dt*cur)
		ey.Add(j, k, 0, 1, -0.5*muC2Dt*cur)
	}
}

// PushEzCurrent is the z-field analogue of PushExCurrent.
func PushEzCurrent(
	j, k, l int,
	ez, jz *geom.Grid,
	sigx, sigy *Profile,
	muC2Dt float64, threeD bool,
) {
	if threeD {
		azx, azy := AlphaSplit(sigx.SigmaAt(j), sigy.SigmaAt(k))
		cur := jz.At(j, k, l, 0)
		ez.Add(j, k, l, 0, -muC2Dt*azx*cur)
		ez.Add(j, k, l, 1, -muC2Dt*azy*cur)
	} else {
		ez.Add(j, k, 0, 0, -muC2Dt*jz.At(j, k, 0, 0))
	}
}
