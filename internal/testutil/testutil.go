// Package testutil provides shared test utilities and fixtures.
//
// Fixtures are synthetic oriented point clouds with known geometry so
// descriptor tests can assert exact bin placements.
package testutil

import (
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/golang/geo/r3"

	"github.com/banshee-data/pointfeature/internal/geometry"
	"github.com/banshee-data/pointfeature/internal/monitoring"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// FlatGrid returns an n x n grid on the z=0 plane with the given spacing and
// every normal set to +Z.
func FlatGrid(n int, spacing float64) *geometry.PointCloud {
	pc := &geometry.PointCloud{}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			pc.Points = append(pc.Points, r3.Vector{X: float64(i) * spacing, Y: float64(j) * spacing})
			pc.Normals = append(pc.Normals, r3.Vector{Z: 1})
		}
	}
	return pc
}

// FibonacciSphere returns n points spread evenly over a sphere of the
// given radius centred at the origin, with outward unit normals.
func FibonacciSphere(n int, radius float64) *geometry.PointCloud {
	pc := &geometry.PointCloud{
		Points:  make([]r3.Vector, n),
		Normals: make([]r3.Vector, n),
	}
	golden := math.Pi * (3 - math.Sqrt(5))
	for i := 0; i < n; i++ {
		y := 1 - 2*(float64(i)+0.5)/float64(n)
		r := math.Sqrt(1 - y*y)
		phi := golden * float64(i)
		normal := r3.Vector{X: r * math.Cos(phi), Y: y, Z: r * math.Sin(phi)}
		pc.Normals[i] = normal
		pc.Points[i] = normal.Mul(radius)
	}
	return pc
}

// LogCapture records every message sent to monitoring.Logf.
type LogCapture struct {
	mu       sync.Mutex
	messages []string
}

// Messages returns a copy of the captured messages.
func (c *LogCapture) Messages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.messages...)
}

// CaptureLogs redirects monitoring.Logf for the rest of the test. Tests
// using it must not run in parallel with other tests that log.
func CaptureLogs(t *testing.T) *LogCapture {
	t.Helper()
	c := &LogCapture{}
	original := monitoring.Logf
	monitoring.SetLogger(func(format string, v ...interface{}) {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.messages = append(c.messages, fmt.Sprintf(format, v...))
	})
	t.Cleanup(func() { monitoring.Logf = original })
	return c
}
