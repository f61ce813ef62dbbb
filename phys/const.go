// package phys collects the SI physical constants used by the deposition,
// field-solve, and QED kernels.
package phys

const (
	// C is the speed of light in m/s.
	C = 299792458.0
	// Eps0 is the vacuum permittivity in F/m.
	Eps0 = 8.8541878128e-12
	// Mu0 is the vacuum permeability in H/m.
	Mu0 = 1.25663706212e-6
	// QE is the elementary charge in C.
	QE = 1.602176634e-19
	// ME is the electron mass in kg.
	ME = 9.1093837015e-31
	// Hbar is the reduced Planck constant in J*s.
	Hbar = 1.054571817e-34
	// Alpha is the fine structure constant.
	Alpha = 0.0072973525693

	// SchwingerField is the QED critical field strength in V/m.
	SchwingerField = ME * ME * C * C * C / (QE * Hbar)
)
