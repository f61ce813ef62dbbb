package qed

import (
	"fmt"

	"github.com/phil-mansfield/table"
)

// LoadTTTable reads the tabulated rate function from a two-column text
// table of (chi, T(chi)) rows.
func LoadTTTable(path string) (Lookup1D, error) {
	cols, err := table.ReadTable(path, []int{0, 1}, nil)
	if err != nil {
		return Lookup1D{}, err
	}
	t := Lookup1D{Coords: cols[0], Vals: cols[1]}
	if len(t.Coords) < 2 {
		return Lookup1D{}, fmt.Errorf(
			"TT table %s has only %d rows.", path, len(t.Coords))
	}
	return t, nil
}

// LoadPairTable reads the cumulative pair-energy distribution from a
// three-column text table of (chi, fraction, cdf) rows, ordered with chi as
// the slow axis and the same fraction grid repeated for every chi.
func LoadPairTable(path string) (Lookup2D, error) {
	cols, err := table.ReadTable(path, []int{0, 1, 2}, nil)
	if err != nil {
		return Lookup2D{}, err
	}
	chi, frac, cdf := cols[0], cols[1], cols[2]

	// The fraction grid repeats with period nFrac.
	nFrac := 0
	for i := range chi {
		if i > 0 && chi[i] != chi[0] {
			break
		}
		nFrac++
	}
	if nFrac < 2 || len(chi)%nFrac != 0 {
		return Lookup2D{}, fmt.Errorf(
			"Pair table %s has %d rows with a fraction period of %d.",
			path, len(chi), nFrac)
	}
	nChi := len(chi) / nFrac

	t := Lookup2D{
		Coords1: make([]float64, nChi),
		Coords2: frac[:nFrac],
		Vals:    cdf,
	}
	for i := 0; i < nChi; i++ {
		t.Coords1[i] = chi[i*nFrac]
		for j := 0; j < nFrac; j++ {
			if frac[i*nFrac+j] != frac[j] {
				return Lookup2D{}, fmt.Errorf(
					"Pair table %s fraction grid changes at row %d.",
					path, i*nFrac+j)
			}
		}
	}
	return t, nil
}
