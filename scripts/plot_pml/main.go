/*plot_pml draws the absorbing-layer damping profile and the field energy
decay it produces in a small test run. Usage:

    plot_pml output_dir
*/
package main

import (
	"fmt"
	"log"
	"os"
	"path"

	plt "github.com/phil-mansfield/pyplot"

	"github.com/phil-mansfield/gopic"
	"github.com/phil-mansfield/gopic/config"
	"github.com/phil-mansfield/gopic/pml"
)

const (
	cells     = 32
	thickness = 8
	sigMax    = 0.5
	power     = 3

	steps = 200
)

func main() {
	if len(os.Args) != 2 {
		log.Fatalf("Usage: %s output_dir", os.Args[0])
	}
	dir := os.Args[1]

	plotProfile(dir)
	plotEnergyDecay(dir)

	plt.Execute()
}

func plotProfile(dir string) {
	p := pml.NewProfile(0, cells, thickness, sigMax, power)

	xs, sigs, facs := make([]float64, cells), make([]float64, cells),
		make([]float64, cells)
	for i := 0; i < cells; i++ {
		xs[i] = float64(i)
		sigs[i] = p.SigmaAt(i)
		facs[i] = p.At(i)
	}

	plt.Figure()
	plt.Plot(xs, sigs, "k", plt.LW(2))
	plt.Plot(xs, facs, plt.C("b"), plt.LW(2))

	plt.Title(fmt.Sprintf("Layer profile, thickness %d, power %d",
		thickness, power))
	plt.XLabel(`Cell`, plt.FontSize(16))
	plt.YLabel(`$\sigma$, damping factor`, plt.FontSize(16))
	plt.Grid(plt.Axis("y"))
	plt.SaveFig(path.Join(dir, "pml_profile.png"))
}

func plotEnergyDecay(dir string) {
	cfg := &config.Config{
		Run: config.RunConfig{
			Geometry:  "cart3d",
			Algorithm: "yee",
			Order:     1,
			Nx:        cells, Ny: cells, Nz: cells,
			Dx: 0.5, Dy: 0.5, Dz: 0.5,
			Dt:      1e-12,
			Threads: 1,
		},
		Pml: config.PmlConfig{
			Thickness: thickness, SigmaMax: sigMax, Power: power,
		},
	}
	man, err := gopic.NewManager(cfg, false)
	if err != nil {
		log.Fatal(err.Error())
	}

	// Seed the layer so the decay curve is dominated by absorption.
	man.E[2].Set(2, cells/2, cells/2, 0, 1.0)

	ts, es := make([]float64, steps), make([]float64, steps)
	for step := 0; step < steps; step++ {
		ts[step] = float64(step)
		es[step] = man.FieldEnergy()
		man.Step(cfg.Run.Dt)
	}

	plt.Figure()
	plt.Plot(ts, es, "k", plt.LW(2))

	plt.Title("Field energy decay in the absorbing layer")
	plt.XLabel(`Step`, plt.FontSize(16))
	plt.YLabel(`Energy [J]`, plt.FontSize(16))
	plt.YScale("log")
	plt.Grid(plt.Axis("y"))
	plt.SaveFig(path.Join(dir, "pml_decay.png"))
}
