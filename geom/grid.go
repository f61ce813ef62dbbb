/*package geom provides the index-space types shared by the deposition and
field-solve packages: bounding boxes of grid cells and field arrays defined
over them.
*/
package geom

import (
	"log"
	"math"
	"sync/atomic"
	"unsafe"
)

// Centering specifies where a field component lives within a cell along one
// axis. It is fixed for the lifetime of a Grid and selects which shape-factor
// table interpolation must use.
type Centering int

const (
	Node Centering = iota
	Cell
)

// CellBounds represents a bounding box aligned to grid cells.
type CellBounds struct {
	Origin, Width [3]int
}

// Grid is a rectangular array of float64 values over the index box
// [Origin, Origin + Width), tagged with a per-axis centering. NComp packs
// multiple components along a trailing axis: PML split fields use two
// components, cylindrical fields store azimuthal modes as component 0 for
// the real mode-0 part followed by real/imaginary pairs for higher modes.
type Grid struct {
	CellBounds
	Center [3]Centering
	NComp  int

	Length, Area, Volume int
	Vals                 []float64

	uBounds [3]int
}

// NewGrid returns a grid over the given index box with a single component.
func NewGrid(origin, width [3]int, center [3]Centering) *Grid {
	return NewMultiGrid(origin, width, center, 1)
}

// NewMultiGrid returns a grid with ncomp components per cell.
func NewMultiGrid(origin, width [3]int, center [3]Centering, ncomp int) *Grid {
	if ncomp < 1 {
		log.Fatalf("NewMultiGrid() given ncomp = %d.", ncomp)
	}
	for i := 0; i < 3; i++ {
		if width[i] < 1 {
			log.Fatalf("NewMultiGrid() given width%c = %d.", 'X'+i, width[i])
		}
	}

	g := &Grid{}
	g.Origin, g.Width, g.Center, g.NComp = origin, width, center, ncomp

	g.Length = width[0]
	g.Area = width[0] * width[1]
	g.Volume = width[0] * width[1] * width[2]
	g.Vals = make([]float64, g.Volume*ncomp)

	for i := 0; i < 3; i++ {
		g.uBounds[i] = g.Origin[i] + g.Width[i]
	}
	return g
}

// Idx returns the flat index corresponding to a set of coordinates and a
// component.
func (g *Grid) Idx(x, y, z, c int) int {
	return ((x - g.Origin[0]) + (y-g.Origin[1])*g.Length +
		(z-g.Origin[2])*g.Area) + c*g.Volume
}

// BoundsCheck returns true if the given coordinates are within the Grid and
// false otherwise.
func (g *Grid) BoundsCheck(x, y, z int) bool {
	return (g.Origin[0] <= x && g.Origin[1] <= y && g.Origin[2] <= z) &&
		(x < g.uBounds[0] && y < g.uBounds[1] && z < g.uBounds[2])
}

// Coords returns the x, y, z coordinates of a point from its flat index.
func (g *Grid) Coords(idx int) (x, y, z int) {
	idx %= g.Volume
	x = idx%g.Length + g.Origin[0]
	y = (idx%g.Area)/g.Length + g.Origin[1]
	z = idx/g.Area + g.Origin[2]
	return x, y, z
}

// At returns the value stored at the given coordinates and component.
func (g *Grid) At(x, y, z, c int) float64 { return g.Vals[g.Idx(x, y, z, c)] }

// Set stores a value at the given coordinates and component.
func (g *Grid) Set(x, y, z, c int, v float64) { g.Vals[g.Idx(x, y, z, c)] = v }

// Add adds v to the value at the given coordinates and component. It is not
// safe for concurrent use; use AtomicAdd when several goroutines scatter into
// the same grid.
func (g *Grid) Add(x, y, z, c int, v float64) { g.Vals[g.Idx(x, y, z, c)] += v }

// AtomicAdd adds v to the value at the given coordinates and component. The
// add is associative and commutative, so concurrent scatters from many
// particles are correct regardless of ordering.
func (g *Grid) AtomicAdd(x, y, z, c int, v float64) {
	addr := (*uint64)(unsafe.Pointer(&g.Vals[g.Idx(x, y, z, c)]))
	for {
		old := atomic.LoadUint64(addr)
		new := math.Float64bits(math.Float64frombits(old) + v)
		if atomic.CompareAndSwapUint64(addr, old, new) {
			return
		}
	}
}

// Fill sets every value in the grid to v.
func (g *Grid) Fill(v float64) {
	for i := range g.Vals {
		g.Vals[i] = v
	}
}

// Clone returns a deep copy of the grid.
func (g *Grid) Clone() *Grid {
	out := NewMultiGrid(g.Origin, g.Width, g.Center, g.NComp)
	copy(out.Vals, g.Vals)
	return out
}

// Intersect returns true if the two bounding boxes overlap.
func (cb1 *CellBounds) Intersect(cb2 *CellBounds) bool {
	for i := 0; i < 3; i++ {
		if cb1.Origin[i]+cb1.Width[i] <= cb2.Origin[i] ||
			cb2.Origin[i]+cb2.Width[i] <= cb1.Origin[i] {
			return false
		}
	}
	return true
}
