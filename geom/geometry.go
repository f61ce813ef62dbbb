package geom

import (
	"fmt"
)

// Geometry selects the coordinate system a simulation runs in. It is fixed at
// construction time.
//
// Cart2D grids use grid axes (x, z, unused); RZ grids use (r, z, unused) with
// azimuthal Fourier modes packed along the component axis.
type Geometry int

const (
	Cart3D Geometry = iota
	Cart2D
	RZ
)

func (g Geometry) String() string {
	switch g {
	case Cart3D:
		return "cart3d"
	case Cart2D:
		return "cart2d"
	case RZ:
		return "rz"
	}
	return fmt.Sprintf("Geometry(%d)", int(g))
}

// ParseGeometry converts a config string into a Geometry tag.
func ParseGeometry(s string) (Geometry, error) {
	switch s {
	case "cart3d", "3d":
		return Cart3D, nil
	case "cart2d", "2d":
		return Cart2D, nil
	case "rz":
		return RZ, nil
	}
	return 0, fmt.Errorf("Unrecognized geometry, '%s'.", s)
}

// ModeComps returns the number of grid components needed to store nModes
// azimuthal modes: mode 0 is real, higher modes store real/imaginary pairs.
func ModeComps(nModes int) int {
	if nModes < 1 {
		return 1
	}
	return 2*nModes - 1
}
