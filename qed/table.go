/*package qed implements the stochastic Breit-Wheeler pair-creation process:
per-photon optical depths drawn from an exponential distribution, evolved
each step from a tabulated rate function, and pair momenta sampled from a
tabulated cumulative distribution when the optical depth runs out.

The Engine owns the table storage. The functors hand out to workers carry
non-owning Lookup1D/Lookup2D views into that storage, so the per-particle
calls never allocate.
*/
package qed

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Lookup1D is a non-owning view over coordinate breakpoints and co-indexed
// function values. Coords must be monotonically non-decreasing.
type Lookup1D struct {
	Coords, Vals []float64
}

// locate returns the index of the breakpoint interval containing x and the
// fractional position inside it, clamping outside the table range.
func locate(coords []float64, x float64) (int, float64) {
	n := len(coords)
	if x <= coords[0] {
		return 0, 0
	}
	if x >= coords[n-1] {
		return n - 2, 1
	}
	lo, hi := 0, n-1
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if coords[mid] <= x {
			lo = mid
		} else {
			hi = mid
		}
	}
	w := coords[hi] - coords[lo]
	if w == 0 {
		return lo, 0
	}
	return lo, (x - coords[lo]) / w
}

// Interp linearly interpolates the table at x, clamping at both ends.
func (t Lookup1D) Interp(x float64) float64 {
	i, f := locate(t.Coords, x)
	return t.Vals[i] + f*(t.Vals[i+1]-t.Vals[i])
}

// Lookup2D is a non-owning view over a function tabulated on the outer
// product of two coordinate axes. Vals is stored row-major with Coords1
// as the slow axis: Vals[i1*len(Coords2) + i2].
type Lookup2D struct {
	Coords1, Coords2 []float64
	Vals             []float64
}

func (t Lookup2D) at(i1, i2 int) float64 {
	return t.Vals[i1*len(t.Coords2)+i2]
}

// Interp bilinearly interpolates the table at (x1, x2), clamping at the
// table edges.
func (t Lookup2D) Interp(x1, x2 float64) float64 {
	i1, f1 := locate(t.Coords1, x1)
	i2, f2 := locate(t.Coords2, x2)
	lo := t.at(i1, i2) + f2*(t.at(i1, i2+1)-t.at(i1, i2))
	hi := t.at(i1+1, i2) + f2*(t.at(i1+1, i2+1)-t.at(i1+1, i2))
	return lo + f1*(hi-lo)
}

// InvertCDF treats each row of the table as a cumulative distribution over
// Coords2 and returns the x2 where the distribution interpolated to x1
// crosses u. The row values must be non-decreasing for this to be
// meaningful. No allocation.
func (t Lookup2D) InvertCDF(x1, u float64) float64 {
	i1, f1 := locate(t.Coords1, x1)
	cdf := func(i2 int) float64 {
		return t.at(i1, i2) + f1*(t.at(i1+1, i2)-t.at(i1, i2))
	}

	n2 := len(t.Coords2)
	if u <= cdf(0) {
		return t.Coords2[0]
	}
	if u >= cdf(n2-1) {
		return t.Coords2[n2-1]
	}
	lo, hi := 0, n2-1
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if cdf(mid) <= u {
			lo = mid
		} else {
			hi = mid
		}
	}
	cLo, cHi := cdf(lo), cdf(hi)
	if cHi == cLo {
		return t.Coords2[lo]
	}
	f := (u - cLo) / (cHi - cLo)
	return t.Coords2[lo] + f*(t.Coords2[hi]-t.Coords2[lo])
}

// Byte-buffer serialization. The format is little-endian: a 4-byte magic,
// a version, the section lengths, then the raw float64 payloads. The only
// contract is that export followed by import reproduces the same coordinate
// and value sequences and that corrupt or truncated buffers fail cleanly.

var tableMagic = [4]byte{'g', 'q', 'e', 'd'}

const tableVersion = uint32(1)

func putFloats(buf []byte, xs []float64) []byte {
	for _, x := range xs {
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(x))
	}
	return buf
}

func getFloats(buf []byte, n int) ([]float64, []byte, error) {
	if len(buf) < 8*n {
		return nil, nil, fmt.Errorf(
			"Table buffer truncated: need %d bytes, have %d.", 8*n, len(buf))
	}
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[8*i:]))
	}
	return xs, buf[8*n:], nil
}
