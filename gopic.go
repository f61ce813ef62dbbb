/*package gopic orchestrates one particle-in-cell time step over macro
particles and staggered-grid electromagnetic fields: current deposition,
the finite-difference Maxwell solve with an optional absorbing boundary
layer, optional divergence cleaning, and the per-photon QED optical-depth
process.
*/
package gopic

import (
	"log"
	"math"
	"runtime"

	"gonum.org/v1/gonum/floats"

	"github.com/phil-mansfield/gopic/config"
	"github.com/phil-mansfield/gopic/deposit"
	"github.com/phil-mansfield/gopic/fdtd"
	"github.com/phil-mansfield/gopic/geom"
	"github.com/phil-mansfield/gopic/phys"
	"github.com/phil-mansfield/gopic/pml"
	"github.com/phil-mansfield/gopic/qed"
	"github.com/phil-mansfield/gopic/rand"
)

// Manager owns the field grids and runs the per-step control flow. Particle
// arrays are owned by the Species handed to AddSpecies; the Manager reads
// and scatter-updates them in place.
type Manager struct {
	Geom geom.Geometry

	E, B, J [3]*geom.Grid
	Rho, F  *geom.Grid

	solver *fdtd.Solver
	dep    *deposit.Params
	med    *fdtd.Medium
	bw     *qed.Engine
	pml    *absorber

	species   []*Species
	esirkepov bool
	divClean  bool

	logging bool
	workers int
	gens    []*rand.Generator
	ms      runtime.MemStats
}

// absorber is the split-field boundary state: one split grid per field
// component over the domain, plus the per-axis damping profiles. The split
// grids are authoritative inside the damping layer; the bulk grids are
// authoritative in the interior.
type absorber struct {
	sig       [3]*pml.Profile
	eSplit    [3]*geom.Grid
	bSplit    [3]*geom.Grid
	thickness int
}

// NewManager builds the grids, solver, boundary, and QED engine described
// by a validated config.
func NewManager(cfg *config.Config, logFlag bool) (*Manager, error) {
	man := &Manager{logging: logFlag}

	gtag, err := geom.ParseGeometry(cfg.Run.Geometry)
	if err != nil {
		return nil, err
	}
	alg, err := fdtd.ParseAlgorithm(cfg.Run.Algorithm)
	if err != nil {
		return nil, err
	}
	man.Geom = gtag

	run := &cfg.Run
	threeD := gtag == geom.Cart3D
	width := [3]int{run.Nx, run.Ny, run.Nz}
	if !threeD {
		width = [3]int{run.Nx, run.Nz, 1}
	}
	nComp := 1
	if gtag == geom.RZ {
		nComp = geom.ModeComps(run.NModes)
	}

	// Staggering per component: E and J live on edges, B on faces. In 2D
	// and RZ storage the collapsed y axis drops out.
	var eCenter, bCenter [3][3]geom.Centering
	if threeD {
		eCenter = [3][3]geom.Centering{
			{geom.Cell, geom.Node, geom.Node},
			{geom.Node, geom.Cell, geom.Node},
			{geom.Node, geom.Node, geom.Cell},
		}
		bCenter = [3][3]geom.Centering{
			{geom.Node, geom.Cell, geom.Cell},
			{geom.Cell, geom.Node, geom.Cell},
			{geom.Cell, geom.Cell, geom.Node},
		}
	} else {
		eCenter = [3][3]geom.Centering{
			{geom.Cell, geom.Node, geom.Node},
			{geom.Node, geom.Node, geom.Node},
			{geom.Node, geom.Cell, geom.Node},
		}
		bCenter = [3][3]geom.Centering{
			{geom.Node, geom.Cell, geom.Node},
			{geom.Cell, geom.Cell, geom.Node},
			{geom.Cell, geom.Node, geom.Node},
		}
	}

	origin := [3]int{0, 0, 0}
	for a := 0; a < 3; a++ {
		man.E[a] = geom.NewMultiGrid(origin, width, eCenter[a], nComp)
		man.B[a] = geom.NewMultiGrid(origin, width, bCenter[a], nComp)
		man.J[a] = geom.NewMultiGrid(origin, width, eCenter[a], nComp)
	}
	nodal := [3]geom.Centering{geom.Node, geom.Node, geom.Node}
	man.Rho = geom.NewMultiGrid(origin, width, nodal, nComp)
	if run.DivClean {
		man.F = geom.NewMultiGrid(origin, width, nodal, nComp)
		man.divClean = true
	}

	cellSize := [3]float64{run.Dx, run.Dy, run.Dz}
	if !threeD {
		cellSize = [3]float64{run.Dx, run.Dz, 0}
	}
	man.solver = fdtd.New(alg, gtag, cellSize, run.XMin, run.NModes)

	man.dep = &deposit.Params{
		Geom:   gtag,
		Order:  run.Order,
		Dt:     run.Dt,
		Dx:     [3]float64{run.Dx, run.Dy, run.Dz},
		Min:    [3]float64{run.XMin, run.YMin, run.ZMin},
		NModes: run.NModes,
	}
	man.dep.CheckInit()
	man.esirkepov = run.Esirkepov

	if cfg.Medium.Enable {
		scheme, err := fdtd.ParseMacroscopicScheme(cfg.Medium.Scheme)
		if err != nil {
			return nil, err
		}
		man.med = &fdtd.Medium{
			Epsilon: cfg.Medium.Epsilon,
			Mu:      cfg.Medium.Mu,
			Sigma:   cfg.Medium.Sigma,
			Scheme:  scheme,
		}
	}

	if cfg.Pml.Thickness > 0 {
		if gtag == geom.RZ {
			log.Fatalf("PML layers are not supported in RZ geometry.")
		}
		man.pml = man.newAbsorber(&cfg.Pml, width, eCenter, bCenter)
	}

	if cfg.Qed.Enable {
		man.bw = qed.NewEngine(qed.Params{
			TauThreshold: cfg.Qed.TauThreshold,
			ChiMin:       cfg.Qed.ChiMin,
		})
		if cfg.Qed.TTTable == "" {
			man.bw.InitBuiltinTables()
		} else {
			tt, err := qed.LoadTTTable(cfg.Qed.TTTable)
			if err != nil {
				return nil, err
			}
			pair, err := qed.LoadPairTable(cfg.Qed.PairTable)
			if err != nil {
				return nil, err
			}
			if err := man.bw.SetTables(tt, pair); err != nil {
				return nil, err
			}
		}
	}

	man.workers = run.Threads
	if man.workers == 0 {
		man.workers = runtime.NumCPU()
	}
	runtime.GOMAXPROCS(man.workers)
	man.gens = make([]*rand.Generator, man.workers)
	for id := range man.gens {
		man.gens[id] = rand.New(rand.Xorshift, uint64(id)+1)
	}

	if man.logging {
		runtime.ReadMemStats(&man.ms)
		log.Printf("Grid: %d x %d x %d, workers: %d, Alloc: %5d MB",
			width[0], width[1], width[2], man.workers, man.ms.Alloc>>20)
	}
	return man, nil
}

func (man *Manager) newAbsorber(
	cfg *config.PmlConfig, width [3]int,
	eCenter, bCenter [3][3]geom.Centering,
) *absorber {
	ab := &absorber{thickness: cfg.Thickness}

	// Profiles are indexed by physical axis. In 2D storage, z lives on
	// storage axis 1 and y collapses to the single-cell axis 2, so the
	// profile lengths follow that mapping.
	threeD := man.Geom == geom.Cart3D
	n := width
	if !threeD {
		n = [3]int{width[0], width[2], width[1]}
	}
	for a := 0; a < 3; a++ {
		if a == 1 && !threeD {
			ab.sig[a] = pml.NewUnitProfile(0, n[a])
			continue
		}
		ab.sig[a] = pml.NewProfile(
			0, n[a], cfg.Thickness, cfg.SigmaMax, cfg.Power)
	}

	origin := [3]int{0, 0, 0}
	for a := 0; a < 3; a++ {
		ab.eSplit[a] = geom.NewMultiGrid(origin, width, eCenter[a], 2)
		ab.bSplit[a] = geom.NewMultiGrid(origin, width, bCenter[a], 2)
	}
	return ab
}

// AddSpecies registers a particle species with the Manager. QED-tracked
// species get their optical depths initialized if the caller has not done
// so already.
func (man *Manager) AddSpecies(sp *Species) {
	sp.checkLengths()
	if man.bw != nil && sp.Mass == 0 && sp.Tau == nil {
		sp.TrackOpticalDepth(man.gens[0])
	}
	man.species = append(man.species, sp)
}

// Log turns progress logging on or off.
func (man *Manager) Log(flag bool) { man.logging = flag }

// Step advances the fields by one time step dt: deposit currents, damp them
// in the absorbing layer, advance B and E in leapfrog, optionally clean the
// divergence error, then evolve the photon optical depths against the
// updated fields. It returns the particles whose optical depth crossed the
// decay threshold this step.
func (man *Manager) Step(dt float64) []Event {
	for a := 0; a < 3; a++ {
		man.J[a].Fill(0)
	}
	man.depositCurrents()
	if man.divClean {
		man.DepositCharge()
	}
	if man.pml != nil {
		man.dampCurrents()
		man.pml.refreshFromBulk(man)
	}

	man.solver.EvolveB(man.B, man.E, dt/2)
	if man.med != nil {
		man.solver.MacroscopicEvolveE(man.E, man.B, man.J, man.med, dt)
	} else {
		man.solver.EvolveE(man.E, man.B, man.J, man.F, dt)
	}
	man.solver.EvolveB(man.B, man.E, dt/2)

	if man.pml != nil {
		man.advanceAbsorber(dt)
	}
	if man.divClean {
		man.solver.EvolveF(man.F, man.E, man.Rho, 0, dt)
	}

	return man.evolveOpticalDepths(dt)
}

// depositCurrents scatters every species onto the current grids with the
// configured deposition scheme. The scatter adds are atomic, so the worker
// chunks can overlap freely in index space.
func (man *Manager) depositCurrents() {
	out := make(chan int, man.workers)
	for _, sp := range man.species {
		for id := 0; id < man.workers-1; id++ {
			go man.chanDeposit(id, sp, out)
		}
		man.chanDeposit(man.workers-1, sp, out)
		for i := 0; i < man.workers; i++ {
			<-out
		}
	}
}

func (man *Manager) chunk(id, n int) (lo, hi int) {
	per := (n + man.workers - 1) / man.workers
	lo = id * per
	hi = lo + per
	if hi > n {
		hi = n
	}
	if lo > hi {
		lo = hi
	}
	return lo, hi
}

func (man *Manager) chanDeposit(id int, sp *Species, out chan<- int) {
	lo, hi := man.chunk(id, sp.Len())
	if lo < hi {
		var ion []int
		if sp.IonLev != nil {
			ion = sp.IonLev[lo:hi]
		}
		if man.esirkepov {
			deposit.Esirkepov(man.J[0], man.J[1], man.J[2],
				sp.X[lo:hi], sp.Y[lo:hi], sp.Z[lo:hi],
				sp.Ux[lo:hi], sp.Uy[lo:hi], sp.Uz[lo:hi],
				sp.W[lo:hi], ion, hi-lo, sp.Charge, man.dep)
		} else {
			deposit.Direct(man.J[0], man.J[1], man.J[2],
				sp.X[lo:hi], sp.Y[lo:hi], sp.Z[lo:hi],
				sp.Ux[lo:hi], sp.Uy[lo:hi], sp.Uz[lo:hi],
				sp.W[lo:hi], ion, hi-lo, sp.Charge, man.dep)
		}
	}
	out <- id
}

// DepositCharge rebuilds the charge-density grid from the current particle
// positions.
func (man *Manager) DepositCharge() {
	man.Rho.Fill(0)
	for _, sp := range man.species {
		var ion []int
		if sp.IonLev != nil {
			ion = sp.IonLev
		}
		deposit.Charge(man.Rho, sp.X, sp.Y, sp.Z, sp.W, ion,
			sp.Len(), sp.Charge, man.dep)
	}
}

// dampCurrents applies the per-axis decay factors to the deposited current
// everywhere; the factors are one outside the layer.
func (man *Manager) dampCurrents() {
	ab := man.pml
	threeD := man.Geom == geom.Cart3D
	w := man.J[0].Width

	for l := 0; l < w[2]; l++ {
		for k := 0; k < w[1]; k++ {
			for j := 0; j < w[0]; j++ {
				pml.DampJx(j, k, l, man.J[0],
					ab.sig[0], ab.sig[1], ab.sig[2], threeD)
				pml.DampJy(j, k, l, man.J[1],
					ab.sig[0], ab.sig[1], ab.sig[2], threeD)
				pml.DampJz(j, k, l, man.J[2],
					ab.sig[0], ab.sig[1], ab.sig[2], threeD)
			}
		}
	}
}

// inLayer reports whether cell (i, j, k) lies in the absorbing layer.
// Storage axis 1 is y in 3D and z in 2D; both carry a layer.
func (ab *absorber) inLayer(i, j, k int, w [3]int, threeD bool) bool {
	t := ab.thickness
	if i < t || i >= w[0]-t {
		return true
	}
	if j < t || j >= w[1]-t {
		return true
	}
	return threeD && (k < t || k >= w[2]-t)
}

// refreshFromBulk resets the split fields from the bulk fields, dividing
// each value between the two split components in proportion to the local
// damping strengths. In the interior both strengths vanish and the split is
// even, so the split grids track the bulk everywhere they are not
// authoritative.
func (ab *absorber) refreshFromBulk(man *Manager) {
	threeD := man.Geom == geom.Cart3D
	split := func(g, s *geom.Grid, sig1, sig2 *pml.Profile, a1, a2 int) {
		w := g.Width
		for l := 0; l < w[2]; l++ {
			for k := 0; k < w[1]; k++ {
				for j := 0; j < w[0]; j++ {
					idx := [3]int{j, k, l}
					f1, f2 := pml.AlphaSplit(
						sig1.SigmaAt(idx[a1]), sig2.SigmaAt(idx[a2]))
					v := g.At(j, k, l, 0)
					s.Set(j, k, l, 0, f1*v)
					s.Set(j, k, l, 1, f2*v)
				}
			}
		}
	}

	// Split axes per component, ordered by axis index. In 2D storage the
	// z profile indexes storage axis 1.
	if threeD {
		split(man.E[0], ab.eSplit[0], ab.sig[1], ab.sig[2], 1, 2)
		split(man.E[1], ab.eSplit[1], ab.sig[0], ab.sig[2], 0, 2)
		split(man.E[2], ab.eSplit[2], ab.sig[0], ab.sig[1], 0, 1)
		split(man.B[0], ab.bSplit[0], ab.sig[1], ab.sig[2], 1, 2)
		split(man.B[1], ab.bSplit[1], ab.sig[0], ab.sig[2], 0, 2)
		split(man.B[2], ab.bSplit[2], ab.sig[0], ab.sig[1], 0, 1)
	} else {
		split(man.E[0], ab.eSplit[0], ab.sig[1], ab.sig[2], 2, 1)
		split(man.E[1], ab.eSplit[1], ab.sig[0], ab.sig[2], 0, 1)
		split(man.E[2], ab.eSplit[2], ab.sig[0], ab.sig[1], 0, 2)
		split(man.B[0], ab.bSplit[0], ab.sig[1], ab.sig[2], 2, 1)
		split(man.B[1], ab.bSplit[1], ab.sig[0], ab.sig[2], 0, 1)
		split(man.B[2], ab.bSplit[2], ab.sig[0], ab.sig[1], 0, 2)
	}
}

// advanceAbsorber runs the split-field leapfrog over the layer and writes
// the damped result back into the bulk fields there.
func (man *Manager) advanceAbsorber(dt float64) {
	ab := man.pml
	threeD := man.Geom == geom.Cart3D

	man.solver.EvolveBPML(ab.bSplit, ab.eSplit, dt/2)
	ab.dampB(threeD)

	man.solver.EvolveEPML(ab.eSplit, ab.bSplit, dt)
	man.pushLayerCurrents(dt)
	ab.dampE(threeD)

	man.solver.EvolveBPML(ab.bSplit, ab.eSplit, dt/2)
	ab.dampB(threeD)

	// Write back: the split sums replace the bulk fields in the layer.
	w := man.E[0].Width
	for l := 0; l < w[2]; l++ {
		for k := 0; k < w[1]; k++ {
			for j := 0; j < w[0]; j++ {
				if !ab.inLayer(j, k, l, w, threeD) {
					continue
				}
				for a := 0; a < 3; a++ {
					man.E[a].Set(j, k, l, 0,
						ab.eSplit[a].At(j, k, l, 0)+
							ab.eSplit[a].At(j, k, l, 1))
					man.B[a].Set(j, k, l, 0,
						ab.bSplit[a].At(j, k, l, 0)+
							ab.bSplit[a].At(j, k, l, 1))
				}
			}
		}
	}
}

// pushLayerCurrents subtracts the damped layer current from the split E
// components.
func (man *Manager) pushLayerCurrents(dt float64) {
	ab := man.pml
	threeD := man.Geom == geom.Cart3D
	muC2Dt := phys.Mu0 * phys.C * phys.C * dt
	w := man.J[0].Width

	for l := 0; l < w[2]; l++ {
		for k := 0; k < w[1]; k++ {
			for j := 0; j < w[0]; j++ {
				if !ab.inLayer(j, k, l, w, threeD) {
					continue
				}
				pml.PushExCurrent(j, k, l, ab.eSplit[0], man.J[0],
					ab.sig[1], ab.sig[2], muC2Dt, threeD)
				pml.PushEyCurrent(j, k, l, ab.eSplit[1], man.J[1],
					ab.sig[0], ab.sig[2], muC2Dt, threeD)
				pml.PushEzCurrent(j, k, l, ab.eSplit[2], man.J[2],
					ab.sig[0], ab.sig[1], muC2Dt, threeD)
			}
		}
	}
}

// dampE multiplies each split E component by the decay factor of its split
// axis.
func (ab *absorber) dampE(threeD bool) {
	ab.dampSplit(ab.eSplit, threeD)
}

// dampB is the B-field analogue of dampE.
func (ab *absorber) dampB(threeD bool) {
	ab.dampSplit(ab.bSplit, threeD)
}

func (ab *absorber) dampSplit(fs [3]*geom.Grid, threeD bool) {
	// Component c of field a is split against axis splitAxes[a][c].
	var splitAxes [3][2]int
	var axisOf [3]int // storage axis each profile indexes
	if threeD {
		splitAxes = [3][2]int{{1, 2}, {0, 2}, {0, 1}}
		axisOf = [3]int{0, 1, 2}
	} else {
		splitAxes = [3][2]int{{1, 2}, {0, 2}, {0, 1}}
		axisOf = [3]int{0, -1, 1} // y collapses away in 2D storage
	}

	for a := 0; a < 3; a++ {
		g := fs[a]
		w := g.Width
		for l := 0; l < w[2]; l++ {
			for k := 0; k < w[1]; k++ {
				for j := 0; j < w[0]; j++ {
					idx := [3]int{j, k, l}
					for c := 0; c < 2; c++ {
						axis := splitAxes[a][c]
						st := axisOf[axis]
						if st < 0 {
							continue // no damping along the collapsed axis
						}
						g.Vals[g.Idx(j, k, l, c)] *=
							ab.sig[axis].At(idx[st])
					}
				}
			}
		}
	}
}

// evolveOpticalDepths advances the optical depth of every QED-tracked
// photon against the updated fields.
func (man *Manager) evolveOpticalDepths(dt float64) []Event {
	if man.bw == nil || !man.bw.TablesInitialized() {
		return nil
	}
	ev := man.bw.OpticalDepthEvolve()

	found := make([][]Event, man.workers)
	out := make(chan int, man.workers)
	for _, sp := range man.species {
		if sp.Tau == nil {
			continue
		}
		for id := 0; id < man.workers-1; id++ {
			go man.chanEvolveTau(id, sp, ev, dt, found, out)
		}
		man.chanEvolveTau(man.workers-1, sp, ev, dt, found, out)
		for i := 0; i < man.workers; i++ {
			<-out
		}
	}

	events := []Event{}
	for id := range found {
		events = append(events, found[id]...)
	}
	return events
}

func (man *Manager) chanEvolveTau(
	id int, sp *Species, ev qed.OpticalDepthEvolve, dt float64,
	found [][]Event, out chan<- int,
) {
	lo, hi := man.chunk(id, sp.Len())
	for i := lo; i < hi; i++ {
		ex, ey, ez := man.gather(man.E, sp.X[i], sp.Y[i], sp.Z[i])
		bx, by, bz := man.gather(man.B, sp.X[i], sp.Y[i], sp.Z[i])
		if ev.Evolve(sp.Ux[i], sp.Uy[i], sp.Uz[i],
			ex, ey, ez, bx, by, bz, dt, &sp.Tau[i]) {
			found[id] = append(found[id], Event{Species: sp, Index: i})
		}
	}
	out <- id
}

// gatherAxis returns the linear-interpolation cell and fraction for one
// axis, honoring the grid centering and clamping to the valid range.
func gatherAxis(x float64, c geom.Centering, n int) (int, float64) {
	if c == geom.Cell {
		x -= 0.5
	}
	if x < 0 {
		x = 0
	}
	i := int(x)
	if i > n-2 {
		i = n - 2
		x = float64(n - 1)
	}
	return i, x - float64(i)
}

// gather linearly interpolates the three components of a field to a
// physical particle position, converting to grid units with the same cell
// size and domain bound the deposition uses. In RZ only the mode-0 part
// contributes; gathering the azimuthal phase factors is left to the
// particle pusher, which is outside the Manager.
func (man *Manager) gather(f [3]*geom.Grid, x, y, z float64) (
	fx, fy, fz float64,
) {
	d, min := man.dep.Dx, man.dep.Min
	xg := (x - min[0]) / d[0]
	zg := (z - min[2]) / d[2]

	var out [3]float64
	for a := 0; a < 3; a++ {
		g := f[a]
		if man.Geom == geom.Cart3D {
			yg := (y - min[1]) / d[1]
			i, di := gatherAxis(xg, g.Center[0], g.Width[0])
			j, dj := gatherAxis(yg, g.Center[1], g.Width[1])
			k, dk := gatherAxis(zg, g.Center[2], g.Width[2])
			for c := 0; c < 2; c++ {
				wc := di
				if c == 0 {
					wc = 1 - di
				}
				out[a] += wc * ((1-dj)*((1-dk)*g.At(i+c, j, k, 0)+
					dk*g.At(i+c, j, k+1, 0)) +
					dj*((1-dk)*g.At(i+c, j+1, k, 0)+
						dk*g.At(i+c, j+1, k+1, 0)))
			}
			continue
		}

		h := xg
		if man.Geom == geom.RZ {
			h = (math.Sqrt(x*x+y*y) - min[0]) / d[0]
		}
		i, di := gatherAxis(h, g.Center[0], g.Width[0])
		k, dk := gatherAxis(zg, g.Center[1], g.Width[1])
		out[a] = (1-di)*((1-dk)*g.At(i, k, 0, 0)+dk*g.At(i, k+1, 0, 0)) +
			di*((1-dk)*g.At(i+1, k, 0, 0)+dk*g.At(i+1, k+1, 0, 0))
	}
	return out[0], out[1], out[2]
}

// FieldEnergy returns the total electromagnetic energy on the grid.
func (man *Manager) FieldEnergy() float64 {
	e2, b2 := 0.0, 0.0
	for a := 0; a < 3; a++ {
		e2 += floats.Dot(man.E[a].Vals, man.E[a].Vals)
		b2 += floats.Dot(man.B[a].Vals, man.B[a].Vals)
	}
	return man.cellVolume() * (0.5*phys.Eps0*e2 + 0.5/phys.Mu0*b2)
}

// TotalCharge integrates the mode-0 charge density over the grid. Call
// DepositCharge first unless divergence cleaning already keeps Rho current.
func (man *Manager) TotalCharge() float64 {
	return man.cellVolume() * floats.Sum(man.Rho.Vals[:man.Rho.Volume])
}

func (man *Manager) cellVolume() float64 {
	d := man.dep.Dx
	if man.Geom == geom.Cart3D {
		return d[0] * d[1] * d[2]
	}
	return d[0] * d[2]
}

// GeneratePairs converts the photon behind an event into k sampled
// electron-positron pairs, appending the daughters to ele and pos at the
// photon's position. The photon's weight is zeroed and its optical depth
// rearmed, so it takes no further part in deposition or QED tracking.
func (man *Manager) GeneratePairs(ev Event, k int, ele, pos *Species) {
	if man.bw == nil || !man.bw.TablesInitialized() {
		log.Fatalf("GeneratePairs called without initialized QED tables.")
	}
	ph, i := ev.Species, ev.Index

	ex, ey, ez := man.gather(man.E, ph.X[i], ph.Y[i], ph.Z[i])
	bx, by, bz := man.gather(man.B, ph.X[i], ph.Y[i], ph.Z[i])

	eleUx, eleUy, eleUz := make([]float64, k),
		make([]float64, k), make([]float64, k)
	posUx, posUy, posUz := make([]float64, k),
		make([]float64, k), make([]float64, k)

	pg := man.bw.PairGenerator()
	w := pg.Generate(ph.Ux[i], ph.Uy[i], ph.Uz[i],
		ex, ey, ez, bx, by, bz, ph.W[i], k, man.gens[0],
		eleUx, eleUy, eleUz, posUx, posUy, posUz)

	for j := 0; j < k; j++ {
		ele.Append(ph.X[i], ph.Y[i], ph.Z[i],
			eleUx[j], eleUy[j], eleUz[j], w)
		pos.Append(ph.X[i], ph.Y[i], ph.Z[i],
			posUx[j], posUy[j], posUz[j], w)
	}

	ph.W[i] = 0
	ph.Tau[i] = qed.DrawOpticalDepth(man.gens[0])
}

// QedEngine returns the Breit-Wheeler engine, or nil when QED is disabled.
func (man *Manager) QedEngine() *qed.Engine { return man.bw }
