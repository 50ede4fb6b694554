// Package search provides neighbourhood queries over a set of 3-D points.
//
// A Param selects k-nearest, fixed-radius or hybrid (radius capped at k)
// semantics. Feature computation treats it as opaque and forwards it to
// every query unchanged.
package search

import (
	"fmt"
	"strings"
)

// DefaultKNN is the neighbour count used when no search parameter is given.
const DefaultKNN = 30

// Kind selects the neighbourhood semantics of a query.
type Kind int

const (
	// KindKNN returns the MaxNN nearest points.
	KindKNN Kind = iota
	// KindRadius returns every point within Radius.
	KindRadius
	// KindHybrid returns at most MaxNN nearest points within Radius.
	KindHybrid
)

func (k Kind) String() string {
	switch k {
	case KindKNN:
		return "knn"
	case KindRadius:
		return "radius"
	case KindHybrid:
		return "hybrid"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "knn":
		return KindKNN, nil
	case "radius":
		return KindRadius, nil
	case "hybrid":
		return KindHybrid, nil
	}
	return 0, fmt.Errorf("unknown search kind %q", s)
}

// MarshalText encodes the kind by name so stored parameters stay readable.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name.
func (k *Kind) UnmarshalText(b []byte) error {
	v, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// Param configures a neighbourhood query.
type Param struct {
	Kind   Kind    `json:"kind"`
	Radius float64 `json:"radius,omitempty"`
	MaxNN  int     `json:"max_nn,omitempty"`
}

// KNN returns a k-nearest parameter.
func KNN(k int) Param {
	return Param{Kind: KindKNN, MaxNN: k}
}

// Radius returns a fixed-radius parameter.
func Radius(r float64) Param {
	return Param{Kind: KindRadius, Radius: r}
}

// Hybrid returns a radius parameter that keeps at most maxNN neighbours.
func Hybrid(r float64, maxNN int) Param {
	return Param{Kind: KindHybrid, Radius: r, MaxNN: maxNN}
}

// DefaultParam returns KNN(DefaultKNN).
func DefaultParam() Param {
	return KNN(DefaultKNN)
}

// IsZero reports whether p is the zero value, which callers treat as
// "use DefaultParam".
func (p Param) IsZero() bool {
	return p == Param{}
}

// Validate checks that the fields required by p.Kind are positive.
func (p Param) Validate() error {
	switch p.Kind {
	case KindKNN:
		if p.MaxNN <= 0 {
			return fmt.Errorf("knn search requires max_nn > 0, got %d", p.MaxNN)
		}
	case KindRadius:
		if p.Radius <= 0 {
			return fmt.Errorf("radius search requires radius > 0, got %g", p.Radius)
		}
	case KindHybrid:
		if p.Radius <= 0 || p.MaxNN <= 0 {
			return fmt.Errorf("hybrid search requires radius > 0 and max_nn > 0, got radius=%g max_nn=%d", p.Radius, p.MaxNN)
		}
	default:
		return fmt.Errorf("unknown search kind %d", int(p.Kind))
	}
	return nil
}

func (p Param) String() string {
	switch p.Kind {
	case KindKNN:
		return fmt.Sprintf("knn(k=%d)", p.MaxNN)
	case KindRadius:
		return fmt.Sprintf("radius(r=%g)", p.Radius)
	case KindHybrid:
		return fmt.Sprintf("hybrid(r=%g, k=%d)", p.Radius, p.MaxNN)
	}
	return p.Kind.String()
}
