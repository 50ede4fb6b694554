// Package mol2 reads protein cavity models stored as Tripos MOL2 files.
//
// Each atom of a cavity is a pharmacophore pseudo-atom whose name (CA, CZ,
// O, OD1, OG, N, NZ or DU) maps to one of the reference colours of the
// colour descriptor.
package mol2

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/banshee-data/pointfeature/internal/feature"
	"github.com/banshee-data/pointfeature/internal/fsutil"
	"github.com/banshee-data/pointfeature/internal/geometry"
)

const (
	moleculeSection = "@<TRIPOS>MOLECULE"
	atomSection     = "@<TRIPOS>ATOM"
)

// ErrNoAtoms is returned when a file has no ATOM records.
var ErrNoAtoms = errors.New("mol2: no ATOM records")

// Atom is one record of the ATOM section.
type Atom struct {
	Index    int
	Name     string
	Position r3.Vector
}

// Cavity is a parsed MOL2 cavity.
type Cavity struct {
	Name  string
	Atoms []Atom
}

// Read parses the MOLECULE name and the ATOM section of a MOL2 stream.
// Other sections are ignored.
func Read(r io.Reader) (*Cavity, error) {
	s := bufio.NewScanner(r)
	c := &Cavity{}
	section := ""
	wantName := false
	line := 0
	for s.Scan() {
		line++
		text := strings.TrimSpace(s.Text())
		if strings.HasPrefix(text, "@<TRIPOS>") {
			section = text
			wantName = section == moleculeSection
			continue
		}
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		switch section {
		case moleculeSection:
			if wantName {
				c.Name = text
				wantName = false
			}
		case atomSection:
			atom, err := parseAtom(text)
			if err != nil {
				return nil, fmt.Errorf("mol2 line %d: %w", line, err)
			}
			c.Atoms = append(c.Atoms, atom)
		}
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("failed to read mol2: %w", err)
	}
	if len(c.Atoms) == 0 {
		return nil, ErrNoAtoms
	}
	return c, nil
}

func parseAtom(text string) (Atom, error) {
	cols := strings.Fields(text)
	if len(cols) < 5 {
		return Atom{}, fmt.Errorf("ATOM record has %d columns, want at least 5", len(cols))
	}
	idx, err := strconv.Atoi(cols[0])
	if err != nil {
		return Atom{}, fmt.Errorf("invalid atom index %q: %w", cols[0], err)
	}
	var xyz [3]float64
	for i := range xyz {
		if xyz[i], err = strconv.ParseFloat(cols[2+i], 64); err != nil {
			return Atom{}, fmt.Errorf("invalid coordinate %q: %w", cols[2+i], err)
		}
	}
	return Atom{
		Index:    idx,
		Name:     cols[1],
		Position: r3.Vector{X: xyz[0], Y: xyz[1], Z: xyz[2]},
	}, nil
}

// PointCloud converts the cavity to a coloured point cloud, one point per
// atom in file order. Atom names outside the reference palette are an
// error.
func (c *Cavity) PointCloud() (*geometry.PointCloud, error) {
	pc := &geometry.PointCloud{
		Points: make([]r3.Vector, len(c.Atoms)),
		Colors: make([]colorful.Color, len(c.Atoms)),
	}
	for i, a := range c.Atoms {
		rc, _, ok := feature.ReferenceByLabel(a.Name)
		if !ok {
			return nil, fmt.Errorf("atom %d: unknown cavity atom name %q", a.Index, a.Name)
		}
		pc.Points[i] = a.Position
		pc.Colors[i] = rc.Color
	}
	return pc, nil
}

// Labels returns "<index>:<name>" for every atom, used to label
// descriptor rows.
func (c *Cavity) Labels() []string {
	out := make([]string, len(c.Atoms))
	for i, a := range c.Atoms {
		out[i] = strconv.Itoa(a.Index) + ":" + a.Name
	}
	return out
}

// ReadFile reads the MOL2 file at path.
func ReadFile(fsys fsutil.FileSystem, path string) (*Cavity, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	c, err := Read(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}
