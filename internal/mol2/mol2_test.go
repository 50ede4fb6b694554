package mol2

import (
	"errors"
	"strings"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/pointfeature/internal/feature"
	"github.com/banshee-data/pointfeature/internal/fsutil"
)

const cavity = `@<TRIPOS>MOLECULE
CAVITY_N1_ALL
 4 0 0 0 0
SMALL
USER_CHARGES

@<TRIPOS>ATOM
      1 CZ         -1.6450   22.1590   10.0250 C.3     1 CAV1        0.0000
      2 OG          0.3550   22.1590   12.0250 O.3     1 CAV1        0.0000

      3 DU         -3.6450   20.1590    8.0250 Du      1 CAV1        0.0000
      4 OD1        -1.6450   24.1590   10.0250 O.2     1 CAV1        0.0000
@<TRIPOS>BOND
`

func TestRead(t *testing.T) {
	t.Parallel()

	c, err := Read(strings.NewReader(cavity))
	require.NoError(t, err)
	assert.Equal(t, "CAVITY_N1_ALL", c.Name)
	require.Len(t, c.Atoms, 4)
	assert.Equal(t, Atom{Index: 2, Name: "OG", Position: r3.Vector{X: 0.355, Y: 22.159, Z: 12.025}}, c.Atoms[1])
	assert.Equal(t, []string{"1:CZ", "2:OG", "3:DU", "4:OD1"}, c.Labels())
}

func TestCavity_PointCloud(t *testing.T) {
	t.Parallel()

	c, err := Read(strings.NewReader(cavity))
	require.NoError(t, err)

	pc, err := c.PointCloud()
	require.NoError(t, err)
	require.Equal(t, 4, pc.Len())
	assert.True(t, pc.HasColors())
	assert.False(t, pc.HasNormals())

	for i, name := range []string{"CZ", "OG", "DU", "OD1"} {
		rc, _, ok := feature.ReferenceByLabel(name)
		require.True(t, ok)
		assert.Equal(t, rc.Color, pc.Colors[i], name)
	}
}

func TestCavity_PointCloudUnknownAtom(t *testing.T) {
	t.Parallel()

	c := &Cavity{Atoms: []Atom{{Index: 7, Name: "FE"}}}
	_, err := c.PointCloud()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"FE"`)
}

func TestRead_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      string
		wantErr string
	}{
		{"no atoms", "@<TRIPOS>MOLECULE\nempty\n", "no ATOM records"},
		{"short record", "@<TRIPOS>ATOM\n1 CA 0.0 1.0\n", "at least 5"},
		{"bad index", "@<TRIPOS>ATOM\nx CA 0 0 0\n", "invalid atom index"},
		{"bad coordinate", "@<TRIPOS>ATOM\n1 CA 0 nan? 0\n", "invalid coordinate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.in))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	_, err := Read(strings.NewReader(""))
	assert.True(t, errors.Is(err, ErrNoAtoms))
}

func TestReadFile(t *testing.T) {
	t.Parallel()

	fsys := fsutil.NewMemoryFileSystem()
	fsys.WriteFile("/data/cavity.mol2", []byte(cavity))

	c, err := ReadFile(fsys, "/data/cavity.mol2")
	require.NoError(t, err)
	assert.Len(t, c.Atoms, 4)

	_, err = ReadFile(fsys, "/data/missing.mol2")
	assert.Error(t, err)
}
