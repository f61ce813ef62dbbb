package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"strings"

	"github.com/phil-mansfield/gopic"
	"github.com/phil-mansfield/gopic/config"
	"github.com/phil-mansfield/gopic/geom"
	"github.com/phil-mansfield/gopic/phys"
	"github.com/phil-mansfield/gopic/qed"
	"github.com/phil-mansfield/gopic/rand"
)

const (
	logEvery     = 10
	pairsPerDraw = 1
)

type FileGroup struct {
	log, prof *os.File
}

func (fg *FileGroup) Close() {
	if fg.log != nil {
		err := fg.log.Close()
		if err != nil {
			log.Fatal(err.Error())
		}
	}

	if fg.prof != nil {
		pprof.StopCPUProfile()
		err := fg.prof.Close()
		if err != nil {
			log.Fatal(err.Error())
		}
	}
}

func main() {
	var (
		run, exampleConfig, qedTables string
	)
	vars := map[string]*string{
		"Run":           &run,
		"ExampleConfig": &exampleConfig,
		"QedTables":     &qedTables,
	}

	flag.StringVar(
		&run, "Run", "",
		"Configuration file for [Run] mode.",
	)
	flag.StringVar(
		&exampleConfig, "ExampleConfig", "",
		"Prints an example configuration file of the specified type to "+
			"stdout. The only accepted argument is 'Run'.",
	)
	flag.StringVar(
		&qedTables, "QedTables", "",
		"Writes the builtin Breit-Wheeler lookup tables to the given "+
			"file so they can be inspected or replaced.",
	)

	flag.Parse()

	modeName, err := getModeName(vars)
	if err != nil {
		log.Fatal(err.Error())
	}

	switch modeName {
	case "Run":
		cfg, err := config.ReadFile(run)
		if err != nil {
			log.Fatal(err.Error())
		}
		runMain(cfg)

	case "ExampleConfig":
		switch exampleConfig {
		case "Run":
			fmt.Println(config.ExampleFile)
		default:
			log.Fatal(
				"Unrecognized 'ExampleConfig' argument. The only " +
					"recognized argument is 'Run'.",
			)
		}

	case "QedTables":
		eng := qed.NewEngine(qed.Params{})
		eng.InitBuiltinTables()
		err := os.WriteFile(qedTables, eng.ExportTables(), 0644)
		if err != nil {
			log.Fatal(err.Error())
		}

	default:
		panic("Impossible")
	}
}

func getModeName(vars map[string]*string) (string, error) {
	setNames := []string{}

	for name, varPtr := range vars {
		if *varPtr != "" {
			setNames = append(setNames, name)
		}
	}

	if len(setNames) == 0 {
		return "", fmt.Errorf("No flags have been set.")
	}

	if len(setNames) > 1 {
		return "", fmt.Errorf(
			"The following flags were set: %s, but gopic only accepts "+
				"one flag at a time.",
			strings.Join(setNames, ", "),
		)
	}

	return setNames[0], nil
}

func setupIO(run *config.RunConfig) *FileGroup {
	fg := &FileGroup{}
	var err error

	if run.ValidLogFile() {
		fg.log, err = os.Create(run.LogFile)
		if err != nil {
			log.Fatal(err.Error())
		}
		log.SetOutput(fg.log)
	}

	log.Println("Running Run main.")

	if run.ValidProfileFile() {
		fg.prof, err = os.Create(run.ProfileFile)
		if err != nil {
			log.Fatal(err.Error())
		}
		err = pprof.StartCPUProfile(fg.prof)
		if err != nil {
			log.Fatal(err.Error())
		}
	}

	return fg
}

func runMain(cfg *config.Config) {
	fg := setupIO(&cfg.Run)
	defer fg.Close()

	man, err := gopic.NewManager(cfg, true)
	if err != nil {
		log.Fatal(err.Error())
	}

	gen := rand.NewTimeSeed(rand.Xorshift)
	for _, spCfg := range cfg.Species {
		man.AddSpecies(seedSpecies(spCfg, &cfg.Run, gen))
	}

	// Pair daughters go into their own species so their charge and current
	// feed back into the field solve on later steps.
	var ele, pos *gopic.Species
	if cfg.Qed.Enable {
		ele = gopic.NewSpecies("bw-electrons", -phys.QE, phys.ME, 0)
		pos = gopic.NewSpecies("bw-positrons", phys.QE, phys.ME, 0)
		man.AddSpecies(ele)
		man.AddSpecies(pos)
	}

	pairs := 0
	for step := 0; step < cfg.Run.Steps; step++ {
		events := man.Step(cfg.Run.Dt)
		for _, ev := range events {
			man.GeneratePairs(ev, pairsPerDraw, ele, pos)
			pairs += pairsPerDraw
		}

		if step%logEvery == 0 {
			log.Printf("step %d: field energy = %.6g J, pairs = %d",
				step, man.FieldEnergy(), pairs)
		}
	}
	log.Printf("finished: field energy = %.6g J, pairs = %d",
		man.FieldEnergy(), pairs)
}

// seedSpecies places a species' particles uniformly over the interior of
// the domain, one cell in from every solved boundary, in the physical
// coordinates the Manager expects.
func seedSpecies(
	spCfg *config.SpeciesConfig, run *config.RunConfig, gen *rand.Generator,
) *gopic.Species {
	sp := gopic.NewSpecies(spCfg.Name, spCfg.Charge, spCfg.Mass, spCfg.Count)
	if spCfg.Ionizable {
		sp.IonLev = make([]int, spCfg.Count)
	}

	gtag, err := geom.ParseGeometry(run.Geometry)
	if err != nil {
		log.Fatal(err.Error())
	}

	for i := 0; i < spCfg.Count; i++ {
		sp.X[i] = run.XMin + run.Dx*gen.Uniform(1, float64(run.Nx-1))
		if gtag == geom.Cart3D {
			sp.Y[i] = run.YMin + run.Dy*gen.Uniform(1, float64(run.Ny-1))
		}
		sp.Z[i] = run.ZMin + run.Dz*gen.Uniform(1, float64(run.Nz-1))
		sp.W[i] = 1.0
	}
	return sp
}
