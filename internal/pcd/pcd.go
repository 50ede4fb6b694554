// Package pcd reads and writes point clouds in the ASCII PCD v0.7 format.
//
// Recognised fields are x, y, z, rgb (or rgba) and normal_x, normal_y,
// normal_z. Other fields are skipped. Binary data sections are rejected
// with ErrUnsupportedFormat.
package pcd

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

	"github.com/banshee-data/pointfeature/internal/colorcode"
	"github.com/banshee-data/pointfeature/internal/fsutil"
	"github.com/banshee-data/pointfeature/internal/geometry"
)

// ErrUnsupportedFormat is returned for PCD data sections other than ascii.
var ErrUnsupportedFormat = errors.New("unsupported PCD data format")

// Header is the parsed PCD header.
type Header struct {
	Version   string
	Fields    []string
	Size      []int
	Type      []byte
	Count     []int
	Width     int
	Height    int
	Viewpoint []float64
	Points    int
	Data      string
}

// column returns the token offset of field name within a data line, its
// type and size, or -1 when the field is absent.
func (h *Header) column(name string) (offset int, typ byte, size int) {
	for i, f := range h.Fields {
		if f == name {
			return offset, h.Type[i], h.Size[i]
		}
		offset += h.Count[i]
	}
	return -1, 0, 0
}

// tokensPerPoint is the number of values on each data line.
func (h *Header) tokensPerPoint() int {
	n := 0
	for _, c := range h.Count {
		n += c
	}
	return n
}

func (h *Header) validate() error {
	if len(h.Fields) == 0 {
		return errors.New("missing FIELDS")
	}
	if h.Count == nil {
		h.Count = make([]int, len(h.Fields))
		for i := range h.Count {
			h.Count[i] = 1
		}
	}
	if len(h.Size) != len(h.Fields) || len(h.Type) != len(h.Fields) || len(h.Count) != len(h.Fields) {
		return fmt.Errorf("FIELDS, SIZE, TYPE and COUNT lengths differ (%d, %d, %d, %d)",
			len(h.Fields), len(h.Size), len(h.Type), len(h.Count))
	}
	if h.Points == 0 {
		h.Points = h.Width * h.Height
	}
	if h.Points < 0 {
		return fmt.Errorf("negative point count %d", h.Points)
	}
	for _, f := range []string{"x", "y", "z"} {
		if off, _, _ := h.column(f); off < 0 {
			return fmt.Errorf("missing required field %q", f)
		}
	}
	return nil
}

// ReadHeader parses header lines up to and including DATA.
func ReadHeader(s *bufio.Scanner) (*Header, error) {
	h := &Header{Height: 1}
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, rest, _ := strings.Cut(line, " ")
		args := strings.Fields(rest)
		var err error
		switch strings.ToUpper(key) {
		case "VERSION":
			h.Version = strings.TrimSpace(rest)
		case "FIELDS":
			h.Fields = args
		case "SIZE":
			h.Size, err = atoiAll(args)
		case "TYPE":
			h.Type = make([]byte, len(args))
			for i, a := range args {
				if len(a) != 1 {
					return nil, fmt.Errorf("invalid TYPE %q", a)
				}
				h.Type[i] = a[0]
			}
		case "COUNT":
			h.Count, err = atoiAll(args)
		case "WIDTH":
			h.Width, err = strconv.Atoi(strings.TrimSpace(rest))
		case "HEIGHT":
			h.Height, err = strconv.Atoi(strings.TrimSpace(rest))
		case "VIEWPOINT":
			h.Viewpoint = make([]float64, len(args))
			for i, a := range args {
				if h.Viewpoint[i], err = strconv.ParseFloat(a, 64); err != nil {
					break
				}
			}
		case "POINTS":
			h.Points, err = strconv.Atoi(strings.TrimSpace(rest))
		case "DATA":
			h.Data = strings.ToLower(strings.TrimSpace(rest))
			if h.Data != "ascii" {
				return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, h.Data)
			}
			if err := h.validate(); err != nil {
				return nil, err
			}
			return h, nil
		default:
			return nil, fmt.Errorf("unexpected header line %q", line)
		}
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", key, err)
		}
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return nil, errors.New("missing DATA line")
}

func atoiAll(args []string) ([]int, error) {
	out := make([]int, len(args))
	for i, a := range args {
		v, err := strconv.Atoi(a)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Read parses an ASCII PCD stream.
func Read(r io.Reader) (*geometry.PointCloud, error) {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), 1024*1024)

	h, err := ReadHeader(s)
	if err != nil {
		return nil, fmt.Errorf("failed to read PCD header: %w", err)
	}

	xOff, _, _ := h.column("x")
	yOff, _, _ := h.column("y")
	zOff, _, _ := h.column("z")
	rgbOff, rgbType, rgbSize := h.column("rgb")
	if rgbOff < 0 {
		rgbOff, rgbType, rgbSize = h.column("rgba")
	}
	nxOff, _, _ := h.column("normal_x")
	nyOff, _, _ := h.column("normal_y")
	nzOff, _, _ := h.column("normal_z")
	hasNormals := nxOff >= 0 && nyOff >= 0 && nzOff >= 0

	pc := &geometry.PointCloud{Points: make([]r3.Vector, 0, h.Points)}
	if hasNormals {
		pc.Normals = make([]r3.Vector, 0, h.Points)
	}
	if rgbOff >= 0 {
		pc.Colors = make([]colorful.Color, 0, h.Points)
	}

	want := h.tokensPerPoint()
	for len(pc.Points) < h.Points && s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" {
			continue
		}
		tok := strings.Fields(line)
		if len(tok) != want {
			return nil, fmt.Errorf("point %d: expected %d values, got %d", len(pc.Points), want, len(tok))
		}
		p, err := parseVector(tok, xOff, yOff, zOff)
		if err != nil {
			return nil, fmt.Errorf("point %d: %w", len(pc.Points), err)
		}
		pc.Points = append(pc.Points, p)
		if hasNormals {
			n, err := parseVector(tok, nxOff, nyOff, nzOff)
			if err != nil {
				return nil, fmt.Errorf("point %d normal: %w", len(pc.Points)-1, err)
			}
			pc.Normals = append(pc.Normals, n)
		}
		if rgbOff >= 0 {
			c, err := parseColor(tok[rgbOff], rgbType, rgbSize)
			if err != nil {
				return nil, fmt.Errorf("point %d color: %w", len(pc.Points)-1, err)
			}
			pc.Colors = append(pc.Colors, c)
		}
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("failed to read PCD data: %w", err)
	}
	if len(pc.Points) != h.Points {
		return nil, fmt.Errorf("PCD declares %d points but contains %d", h.Points, len(pc.Points))
	}
	return pc, nil
}

func parseVector(tok []string, xi, yi, zi int) (r3.Vector, error) {
	var v r3.Vector
	var err error
	if v.X, err = strconv.ParseFloat(tok[xi], 64); err != nil {
		return v, err
	}
	if v.Y, err = strconv.ParseFloat(tok[yi], 64); err != nil {
		return v, err
	}
	if v.Z, err = strconv.ParseFloat(tok[zi], 64); err != nil {
		return v, err
	}
	return v, nil
}

func parseColor(tok string, typ byte, size int) (colorful.Color, error) {
	switch typ {
	case colorcode.FloatKind:
		return colorcode.Decode(tok, typ, size), nil
	case 'U', 'I':
		v, err := strconv.ParseInt(tok, 10, 64)
		if err != nil {
			return colorful.Color{}, err
		}
		return colorcode.FromPacked(uint32(v)), nil
	}
	return colorful.Color{}, fmt.Errorf("unsupported rgb type %q", typ)
}

// Write encodes pc as ASCII PCD with every channel it carries. Colours
// are written as float-packed rgb values that Read decodes exactly.
func Write(w io.Writer, pc *geometry.PointCloud) error {
	n := pc.Len()
	fields := []string{"x", "y", "z"}
	if pc.HasColors() {
		fields = append(fields, "rgb")
	}
	if pc.HasNormals() {
		fields = append(fields, "normal_x", "normal_y", "normal_z")
	}
	repeat := func(s string) string {
		return strings.TrimSpace(strings.Repeat(s+" ", len(fields)))
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# .PCD v0.7 - Point Cloud Data file format\n")
	fmt.Fprintf(bw, "VERSION 0.7\n")
	fmt.Fprintf(bw, "FIELDS %s\n", strings.Join(fields, " "))
	fmt.Fprintf(bw, "SIZE %s\n", repeat("4"))
	fmt.Fprintf(bw, "TYPE %s\n", repeat("F"))
	fmt.Fprintf(bw, "COUNT %s\n", repeat("1"))
	fmt.Fprintf(bw, "WIDTH %d\n", n)
	fmt.Fprintf(bw, "HEIGHT 1\n")
	fmt.Fprintf(bw, "VIEWPOINT 0 0 0 1 0 0 0\n")
	fmt.Fprintf(bw, "POINTS %d\n", n)
	fmt.Fprintf(bw, "DATA ascii\n")

	for i := 0; i < n; i++ {
		p := pc.Points[i]
		bw.WriteString(formatVector(p))
		if pc.HasColors() {
			bw.WriteByte(' ')
			bw.WriteString(colorcode.Encode(pc.Colors[i]))
		}
		if pc.HasNormals() {
			bw.WriteByte(' ')
			bw.WriteString(formatVector(pc.Normals[i]))
		}
		bw.WriteByte('\n')
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write PCD: %w", err)
	}
	return nil
}

func formatVector(v r3.Vector) string {
	return strconv.FormatFloat(v.X, 'g', -1, 64) + " " +
		strconv.FormatFloat(v.Y, 'g', -1, 64) + " " +
		strconv.FormatFloat(v.Z, 'g', -1, 64)
}

// ReadFile reads the PCD file at path.
func ReadFile(fsys fsutil.FileSystem, path string) (*geometry.PointCloud, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	pc, err := Read(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return pc, nil
}

// WriteFile writes pc to path as ASCII PCD.
func WriteFile(fsys fsutil.FileSystem, path string, pc *geometry.PointCloud) (err error) {
	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()
	return Write(f, pc)
}
