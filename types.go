package gopic

import (
	"log"

	"github.com/phil-mansfield/gopic/qed"
	"github.com/phil-mansfield/gopic/rand"
)

// Species holds the particle attribute arrays for one macro-particle
// species: parallel slices indexed by particle id. Positions are physical
// SI coordinates inside the domain; momenta are momentum per unit mass in
// SI units. IonLev is nil for fully ionized species with a scalar charge;
// Tau is nil for species whose photons are not tracked by the QED engine.
type Species struct {
	Name         string
	Charge, Mass float64

	X, Y, Z    []float64
	Ux, Uy, Uz []float64
	W          []float64

	IonLev []int
	Tau    []float64
}

// NewSpecies allocates the attribute arrays for n particles.
func NewSpecies(name string, charge, mass float64, n int) *Species {
	return &Species{
		Name: name, Charge: charge, Mass: mass,
		X: make([]float64, n), Y: make([]float64, n), Z: make([]float64, n),
		Ux: make([]float64, n), Uy: make([]float64, n),
		Uz: make([]float64, n),
		W:  make([]float64, n),
	}
}

func (sp *Species) Len() int { return len(sp.X) }

// Append adds one particle to the back of every attribute array.
func (sp *Species) Append(x, y, z, ux, uy, uz, w float64) {
	sp.X, sp.Y, sp.Z = append(sp.X, x), append(sp.Y, y), append(sp.Z, z)
	sp.Ux, sp.Uy = append(sp.Ux, ux), append(sp.Uy, uy)
	sp.Uz = append(sp.Uz, uz)
	sp.W = append(sp.W, w)
	if sp.IonLev != nil {
		sp.IonLev = append(sp.IonLev, 0)
	}
	if sp.Tau != nil {
		sp.Tau = append(sp.Tau, 0)
	}
}

// checkLengths enforces the index-correspondence invariant across every
// attribute array.
func (sp *Species) checkLengths() {
	n := len(sp.X)
	ok := len(sp.Y) == n && len(sp.Z) == n &&
		len(sp.Ux) == n && len(sp.Uy) == n && len(sp.Uz) == n &&
		len(sp.W) == n &&
		(sp.IonLev == nil || len(sp.IonLev) == n) &&
		(sp.Tau == nil || len(sp.Tau) == n)
	if !ok {
		log.Fatalf("Species '%s' attribute arrays have mismatched lengths.",
			sp.Name)
	}
}

// TrackOpticalDepth allocates and initializes the optical-depth array from
// exponential draws.
func (sp *Species) TrackOpticalDepth(gen *rand.Generator) {
	sp.Tau = make([]float64, sp.Len())
	for i := range sp.Tau {
		sp.Tau[i] = qed.DrawOpticalDepth(gen)
	}
}

// Event records a particle whose optical depth crossed the decay threshold
// during a step. The pair-generation pass consumes these.
type Event struct {
	Species *Species
	Index   int
}
