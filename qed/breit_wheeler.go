package qed

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/phil-mansfield/gopic/phys"
	"github.com/phil-mansfield/gopic/rand"
)

// Params is the control-parameter bundle captured by value into every
// functor. TauThreshold is the optical depth at or below which a photon
// decays; ChiMin cuts the rate off where the tables lose accuracy.
type Params struct {
	TauThreshold float64
	ChiMin       float64
}

// Engine owns the lookup-table storage for the Breit-Wheeler process: the
// tabulated TT rate function over photon chi, and the cumulative pair-energy
// distribution over (chi, fraction). Functors built from the Engine view
// this storage without copying, so the Engine must outlive them.
type Engine struct {
	params Params
	init   bool

	ttCoords, ttVals           []float64
	pairChi, pairFrac, pairCDF []float64
}

// NewEngine creates an Engine with no tables. Tables must be installed with
// InitBuiltinTables, SetTables, or ImportTables before functors are built.
func NewEngine(p Params) *Engine {
	return &Engine{params: p}
}

// TablesInitialized reports whether usable lookup tables are installed.
// Callers must check it before building the evolve or generation functors.
func (e *Engine) TablesInitialized() bool { return e.init }

// Params returns the control-parameter bundle the Engine was built with.
func (e *Engine) Params() Params { return e.params }

// SetTables installs copies of the given tables. The pair table rows must be
// non-decreasing cumulative distributions.
func (e *Engine) SetTables(tt Lookup1D, pair Lookup2D) error {
	if len(tt.Coords) < 2 || len(tt.Coords) != len(tt.Vals) {
		return fmt.Errorf("TT table has %d coords and %d values.",
			len(tt.Coords), len(tt.Vals))
	}
	if len(pair.Coords1) < 2 || len(pair.Coords2) < 2 ||
		len(pair.Vals) != len(pair.Coords1)*len(pair.Coords2) {
		return fmt.Errorf("Pair table has %d x %d coords but %d values.",
			len(pair.Coords1), len(pair.Coords2), len(pair.Vals))
	}

	e.ttCoords = append([]float64(nil), tt.Coords...)
	e.ttVals = append([]float64(nil), tt.Vals...)
	e.pairChi = append([]float64(nil), pair.Coords1...)
	e.pairFrac = append([]float64(nil), pair.Coords2...)
	e.pairCDF = append([]float64(nil), pair.Vals...)
	e.init = true
	return nil
}

// TTTable returns a non-owning view of the tabulated rate function.
func (e *Engine) TTTable() Lookup1D {
	return Lookup1D{Coords: e.ttCoords, Vals: e.ttVals}
}

// PairTable returns a non-owning view of the cumulative pair distribution.
func (e *Engine) PairTable() Lookup2D {
	return Lookup2D{Coords1: e.pairChi, Coords2: e.pairFrac, Vals: e.pairCDF}
}

// erberT approximates the Breit-Wheeler TT function by blending Erber's
// small- and large-chi limits. Coarse, but good enough for the builtin
// development tables; production runs load externally generated tables.
func erberT(chi float64) float64 {
	return 0.46 * math.Exp(-8/(3*chi)) / math.Cbrt(1+0.8*chi)
}

// InitBuiltinTables fills the Engine with small development-quality tables:
// a log-spaced chi grid over the Erber approximation of the rate function
// and a smoothstep cumulative pair distribution.
func (e *Engine) InitBuiltinTables() {
	const nChi, nFrac = 64, 33
	chiLo, chiHi := 0.01, 100.0

	tt := Lookup1D{
		Coords: make([]float64, nChi),
		Vals:   make([]float64, nChi),
	}
	lnLo, lnHi := math.Log(chiLo), math.Log(chiHi)
	for i := 0; i < nChi; i++ {
		chi := math.Exp(lnLo + (lnHi-lnLo)*float64(i)/float64(nChi-1))
		tt.Coords[i] = chi
		tt.Vals[i] = erberT(chi)
	}

	pair := Lookup2D{
		Coords1: tt.Coords,
		Coords2: make([]float64, nFrac),
		Vals:    make([]float64, nChi*nFrac),
	}
	for j := 0; j < nFrac; j++ {
		f := float64(j) / float64(nFrac-1)
		pair.Coords2[j] = f
		cdf := f * f * (3 - 2*f)
		for i := 0; i < nChi; i++ {
			pair.Vals[i*nFrac+j] = cdf
		}
	}

	// Both tables are well-formed by construction.
	if err := e.SetTables(tt, pair); err != nil {
		panic(err.Error())
	}
}

// ExportTables serializes the installed tables into an opaque byte buffer
// suitable for checkpointing.
func (e *Engine) ExportTables() []byte {
	buf := make([]byte, 0,
		20+8*(2*len(e.ttCoords)+len(e.pairChi)+len(e.pairFrac)+
			len(e.pairCDF)))

	buf = append(buf, tableMagic[:]...)
	buf = binary.LittleEndian.AppendUint32(buf, tableVersion)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(e.ttCoords)))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(e.pairChi)))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(e.pairFrac)))

	buf = putFloats(buf, e.ttCoords)
	buf = putFloats(buf, e.ttVals)
	buf = putFloats(buf, e.pairChi)
	buf = putFloats(buf, e.pairFrac)
	buf = putFloats(buf, e.pairCDF)
	return buf
}

// ImportTables replaces the installed tables with the contents of an
// exported buffer. On any parse failure the Engine is left with its tables
// uninitialized and an error describing the corruption is returned.
func (e *Engine) ImportTables(buf []byte) error {
	e.init = false

	if len(buf) < 20 {
		return fmt.Errorf("Table buffer is %d bytes, smaller than the header.",
			len(buf))
	}
	if [4]byte(buf[:4]) != tableMagic {
		return fmt.Errorf("Table buffer has magic %q.", buf[:4])
	}
	if v := binary.LittleEndian.Uint32(buf[4:]); v != tableVersion {
		return fmt.Errorf("Table buffer has version %d, expected %d.",
			v, tableVersion)
	}
	nTT := int(binary.LittleEndian.Uint32(buf[8:]))
	nChi := int(binary.LittleEndian.Uint32(buf[12:]))
	nFrac := int(binary.LittleEndian.Uint32(buf[16:]))
	buf = buf[20:]

	var tt Lookup1D
	var pair Lookup2D
	var err error
	if tt.Coords, buf, err = getFloats(buf, nTT); err != nil {
		return err
	}
	if tt.Vals, buf, err = getFloats(buf, nTT); err != nil {
		return err
	}
	if pair.Coords1, buf, err = getFloats(buf, nChi); err != nil {
		return err
	}
	if pair.Coords2, buf, err = getFloats(buf, nFrac); err != nil {
		return err
	}
	if pair.Vals, _, err = getFloats(buf, nChi*nFrac); err != nil {
		return err
	}
	return e.SetTables(tt, pair)
}

// DrawOpticalDepth initializes a photon's optical depth: an exponential
// draw, so the decay process is memoryless.
func DrawOpticalDepth(gen *rand.Generator) float64 {
	return gen.Exponential()
}

// PhotonChi returns the quantum nonlinearity parameter of a photon with
// momentum-per-mass u in local fields E and B: the transverse Lorentz force
// scale in units of the Schwinger field, times the photon energy in units
// of the electron rest energy.
func PhotonChi(ux, uy, uz, ex, ey, ez, bx, by, bz float64) float64 {
	um := math.Sqrt(ux*ux + uy*uy + uz*uz)
	if um == 0 {
		return 0
	}
	nx, ny, nz := ux/um, uy/um, uz/um
	gamma := um / phys.C

	// E + c n x B
	fx := ex + phys.C*(ny*bz-nz*by)
	fy := ey + phys.C*(nz*bx-nx*bz)
	fz := ez + phys.C*(nx*by-ny*bx)
	f2 := fx*fx + fy*fy + fz*fz
	par := nx*ex + ny*ey + nz*ez

	perp2 := f2 - par*par
	if perp2 < 0 {
		perp2 = 0
	}
	return gamma * math.Sqrt(perp2) / phys.SchwingerField
}

// OpticalDepthEvolve decrements photon optical depths by the tabulated
// Breit-Wheeler rate. It captures the control parameters and a table view at
// build time; Evolve is allocation-free and mutates only *tau.
type OpticalDepthEvolve struct {
	p  Params
	tt Lookup1D
}

// OpticalDepthEvolve builds the evolve functor. The Engine's tables must be
// initialized.
func (e *Engine) OpticalDepthEvolve() OpticalDepthEvolve {
	return OpticalDepthEvolve{p: e.params, tt: e.TTTable()}
}

// Evolve advances one photon's optical depth over dt and reports whether it
// crossed the decay threshold.
func (ev OpticalDepthEvolve) Evolve(
	ux, uy, uz, ex, ey, ez, bx, by, bz, dt float64, tau *float64,
) bool {
	chi := PhotonChi(ux, uy, uz, ex, ey, ez, bx, by, bz)
	if chi > ev.p.ChiMin {
		um := math.Sqrt(ux*ux + uy*uy + uz*uz)
		gamma := um / phys.C
		rate := phys.Alpha * phys.ME * phys.C * phys.C / phys.Hbar *
			chi / gamma * ev.tt.Interp(chi)
		*tau -= rate * dt
	}
	return *tau <= ev.p.TauThreshold
}

// PairGenerator samples electron-positron pairs for decayed photons from the
// cumulative pair-energy distribution.
type PairGenerator struct {
	p    Params
	pair Lookup2D
}

// PairGenerator builds the generation functor. The Engine's tables must be
// initialized.
func (e *Engine) PairGenerator() PairGenerator {
	return PairGenerator{p: e.params, pair: e.PairTable()}
}

// Generate samples k pairs for a photon with momentum-per-mass u and weight
// w. Each draw picks the electron's momentum fraction from the tabulated
// distribution; both daughters are emitted collinear with the photon, which
// conserves momentum exactly. The electron and positron momenta are written
// into the first k slots of the output slices, and the per-sample daughter
// weight w/k is returned.
func (pg PairGenerator) Generate(
	ux, uy, uz, ex, ey, ez, bx, by, bz, w float64,
	k int, gen *rand.Generator,
	eleUx, eleUy, eleUz, posUx, posUy, posUz []float64,
) float64 {
	chi := PhotonChi(ux, uy, uz, ex, ey, ez, bx, by, bz)
	for i := 0; i < k; i++ {
		frac := pg.pair.InvertCDF(chi, gen.Uniform(0, 1))
		eleUx[i], eleUy[i], eleUz[i] = frac*ux, frac*uy, frac*uz
		posUx[i] = (1 - frac) * ux
		posUy[i] = (1 - frac) * uy
		posUz[i] = (1 - frac) * uz
	}
	return w / float64(k)
}
