/*package config reads and validates simulation config files. The format is
the INI dialect understood by gcfg; every section is validated by a CheckInit
method after parsing so the rest of the code can trust the values.
*/
package config

import (
	"fmt"
	"math"

	"gopkg.in/gcfg.v1"

	"github.com/phil-mansfield/gopic/fdtd"
	"github.com/phil-mansfield/gopic/geom"
)

type Config struct {
	Run     RunConfig
	Pml     PmlConfig
	Medium  MediumConfig
	Qed     QedConfig
	Species map[string]*SpeciesConfig
}

// RunConfig selects the geometry, solver algorithm, and grid.
type RunConfig struct {
	Geometry  string
	Algorithm string

	Order  int
	NModes int

	Nx, Ny, Nz       int
	Dx, Dy, Dz       float64
	XMin, YMin, ZMin float64

	Dt    float64
	Steps int

	Esirkepov bool
	DivClean  bool

	Threads int

	LogFile, ProfileFile string
}

func (run *RunConfig) ValidLogFile() bool     { return run.LogFile != "" }
func (run *RunConfig) ValidProfileFile() bool { return run.ProfileFile != "" }

func (run *RunConfig) CheckInit() error {
	gtag, err := geom.ParseGeometry(run.Geometry)
	if err != nil {
		return err
	}
	if _, err := fdtd.ParseAlgorithm(run.Algorithm); err != nil {
		return err
	}

	if run.Order < 1 || run.Order > 3 {
		return fmt.Errorf("Shape order is %d, must be 1, 2, or 3.", run.Order)
	}
	if gtag == geom.RZ && run.NModes < 1 {
		return fmt.Errorf("RZ runs need NModes >= 1, but NModes = %d.",
			run.NModes)
	}

	if run.Nx < 4 || run.Ny < 1 || run.Nz < 4 {
		return fmt.Errorf("Grid is %d x %d x %d; each solved axis needs "+
			"at least 4 cells.", run.Nx, run.Ny, run.Nz)
	}
	if gtag == geom.Cart3D && run.Ny < 4 {
		return fmt.Errorf("3D runs need Ny >= 4, but Ny = %d.", run.Ny)
	}

	if run.Dx <= 0 || run.Dz <= 0 || (gtag == geom.Cart3D && run.Dy <= 0) {
		return fmt.Errorf("Cell sizes must be positive, but are "+
			"(%g, %g, %g).", run.Dx, run.Dy, run.Dz)
	}
	if gtag == geom.RZ && run.XMin < 0 {
		return fmt.Errorf("RZ runs need XMin >= 0, but XMin = %g.", run.XMin)
	}

	if run.Dt <= 0 {
		return fmt.Errorf("Time step is %g.", run.Dt)
	}
	if run.Steps < 0 {
		return fmt.Errorf("Step count is %d.", run.Steps)
	}
	if run.Threads < 0 {
		return fmt.Errorf("Thread count is %d.", run.Threads)
	}
	return nil
}

// PmlConfig describes the absorbing boundary layer. Thickness 0 disables it.
type PmlConfig struct {
	Thickness int
	SigmaMax  float64
	Power     float64
}

func (pml *PmlConfig) CheckInit() error {
	if pml.Thickness < 0 {
		return fmt.Errorf("PML thickness is %d.", pml.Thickness)
	}
	if pml.Thickness > 0 && pml.SigmaMax <= 0 {
		return fmt.Errorf("PML sigma max is %g.", pml.SigmaMax)
	}
	if pml.Power == 0 {
		pml.Power = 3
	} else if pml.Power < 1 {
		return fmt.Errorf("PML power is %g, must be at least 1.", pml.Power)
	}
	return nil
}

// MediumConfig describes a uniform macroscopic medium. Disabled by default,
// in which case the vacuum update runs.
type MediumConfig struct {
	Enable bool

	Epsilon, Mu, Sigma float64
	Scheme             string
}

func (med *MediumConfig) CheckInit() error {
	if !med.Enable {
		return nil
	}
	if med.Epsilon <= 0 || med.Mu <= 0 {
		return fmt.Errorf("Medium epsilon and mu must be positive, but are "+
			"%g and %g.", med.Epsilon, med.Mu)
	}
	if med.Sigma < 0 {
		return fmt.Errorf("Medium conductivity is %g.", med.Sigma)
	}
	if med.Scheme == "" {
		med.Scheme = "laxwendroff"
	}
	if _, err := fdtd.ParseMacroscopicScheme(med.Scheme); err != nil {
		return err
	}
	return nil
}

// QedConfig enables the Breit-Wheeler process. Empty table paths fall back
// to the builtin development tables.
type QedConfig struct {
	Enable bool

	TauThreshold float64
	ChiMin       float64

	TTTable, PairTable string
}

func (q *QedConfig) CheckInit() error {
	if !q.Enable {
		return nil
	}
	if q.TauThreshold < 0 {
		return fmt.Errorf("QED optical-depth threshold is %g.",
			q.TauThreshold)
	}
	if q.ChiMin < 0 {
		return fmt.Errorf("QED chi cutoff is %g.", q.ChiMin)
	}
	if (q.TTTable == "") != (q.PairTable == "") {
		return fmt.Errorf("QED table paths must be given together.")
	}
	return nil
}

// SpeciesConfig describes one macro-particle species.
type SpeciesConfig struct {
	Charge, Mass float64
	Count        int

	Ionizable  bool
	QedTracked bool

	Name string
}

func (sp *SpeciesConfig) CheckInit(name string) error {
	sp.Name = name
	if sp.Mass <= 0 && !(sp.Mass == 0 && sp.QedTracked) {
		return fmt.Errorf("Species '%s' has mass %g.", name, sp.Mass)
	}
	if math.IsNaN(sp.Charge) {
		return fmt.Errorf("Species '%s' has charge NaN.", name)
	}
	if sp.Count < 0 {
		return fmt.Errorf("Species '%s' has count %d.", name, sp.Count)
	}
	return nil
}

// ExampleFile is a complete, runnable config printed by the -ExampleConfig
// mode of the command line tool.
const ExampleFile = `[run]
geometry = cart3d  # cart3d, cart2d, or rz
algorithm = yee    # yee or ckc
order = 2          # particle shape order: 1, 2, or 3

nx = 64
ny = 64
nz = 64
dx = 1e-6
dy = 1e-6
dz = 1e-6

dt = 1e-15
steps = 100

esirkepov = true
divclean = false
threads = 0  # 0 means one worker per CPU

[pml]
thickness = 8
sigmamax = 1e8

[qed]
enable = false

[species "electrons"]
charge = -1.602176634e-19
mass = 9.1093837015e-31
count = 100000
`

// ReadFile parses and validates a config file.
func ReadFile(path string) (*Config, error) {
	cfg := &Config{}
	if err := gcfg.ReadFileInto(cfg, path); err != nil {
		return nil, err
	}

	if err := cfg.Run.CheckInit(); err != nil {
		return nil, err
	}
	if err := cfg.Pml.CheckInit(); err != nil {
		return nil, err
	}
	if err := cfg.Medium.CheckInit(); err != nil {
		return nil, err
	}
	if err := cfg.Qed.CheckInit(); err != nil {
		return nil, err
	}
	for name, sp := range cfg.Species {
		if err := sp.CheckInit(name); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
