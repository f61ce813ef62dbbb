package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

const validConfig = `[run]
geometry = cart3d
algorithm = ckc
order = 2
nx = 32
ny = 32
nz = 32
dx = 0.5
dy = 0.5
dz = 0.5
dt = 1e-12
steps = 10
esirkepov = true
divclean = true
threads = 4

[pml]
thickness = 8
sigmamax = 2.5

[qed]
enable = true

[species "electrons"]
charge = -1.602176634e-19
mass = 9.1093837015e-31
count = 1000
`

func writeConfig(t *testing.T, body string) string {
	path := filepath.Join(t.TempDir(), "run.ini")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err.Error())
	}
	return path
}

func TestReadFile(t *testing.T) {
	cfg, err := ReadFile(writeConfig(t, validConfig))
	assert.Nil(t, err)

	assert.Equal(t, "cart3d", cfg.Run.Geometry)
	assert.Equal(t, 2, cfg.Run.Order)
	assert.True(t, cfg.Run.Esirkepov)
	assert.Equal(t, 8, cfg.Pml.Thickness)
	// Unset power falls back to the cubic default.
	assert.Equal(t, 3.0, cfg.Pml.Power)
	assert.True(t, cfg.Qed.Enable)

	sp, ok := cfg.Species["electrons"]
	if !ok {
		t.Fatalf("Species section 'electrons' was not parsed.")
	}
	assert.Equal(t, "electrons", sp.Name)
	assert.Equal(t, 1000, sp.Count)
}

func TestReadFileRejectsBadValues(t *testing.T) {
	bad := []string{
		"[run]\ngeometry = polar\nalgorithm = yee\norder = 1\n" +
			"nx = 8\nny = 8\nnz = 8\ndx = 1\ndy = 1\ndz = 1\ndt = 1e-12\n",
		"[run]\ngeometry = cart3d\nalgorithm = yee\norder = 7\n" +
			"nx = 8\nny = 8\nnz = 8\ndx = 1\ndy = 1\ndz = 1\ndt = 1e-12\n",
		"[run]\ngeometry = cart3d\nalgorithm = yee\norder = 1\n" +
			"nx = 8\nny = 8\nnz = 8\ndx = 1\ndy = 1\ndz = 1\ndt = 0\n",
		"[run]\ngeometry = rz\nalgorithm = yee\norder = 1\nnmodes = 0\n" +
			"nx = 8\nny = 1\nnz = 8\ndx = 1\ndz = 1\ndt = 1e-12\n",
	}
	for i, body := range bad {
		_, err := ReadFile(writeConfig(t, body))
		assert.NotNil(t, err, "config %d", i)
	}
}
