package search

import (
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bruteForce is the reference Searcher used to check the k-d tree.
type bruteForce []r3.Vector

func (b bruteForce) Search(query r3.Vector, p Param) ([]int, []float64) {
	if p.Validate() != nil {
		return nil, nil
	}
	all := make([]neighbor, 0, len(b))
	for i, pt := range b {
		all = append(all, neighbor{index: i, dist2: pt.Sub(query).Norm2()})
	}
	sortNeighbors(all)

	var out []neighbor
	for _, n := range all {
		if (p.Kind == KindRadius || p.Kind == KindHybrid) && n.dist2 > p.Radius*p.Radius {
			break
		}
		if (p.Kind == KindKNN || p.Kind == KindHybrid) && len(out) == p.MaxNN {
			break
		}
		out = append(out, n)
	}
	indices := make([]int, len(out))
	dist2 := make([]float64, len(out))
	for i, n := range out {
		indices[i], dist2[i] = n.index, n.dist2
	}
	return indices, dist2
}

func randomPoints(n int, seed uint64) []r3.Vector {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	pts := make([]r3.Vector, n)
	for i := range pts {
		pts[i] = r3.Vector{X: rng.Float64() * 10, Y: rng.Float64() * 10, Z: rng.Float64() * 10}
	}
	return pts
}

func TestKDTree_MatchesBruteForce(t *testing.T) {
	t.Parallel()

	pts := randomPoints(400, 7)
	tree := NewKDTree(pts)
	ref := bruteForce(pts)
	require.Equal(t, len(pts), tree.Len())

	params := []Param{KNN(1), KNN(5), KNN(30), Radius(0.8), Radius(2.5), Hybrid(1.5, 10), Hybrid(3, 500)}
	for _, p := range params {
		t.Run(p.String(), func(t *testing.T) {
			for i := 0; i < len(pts); i += 13 {
				gotIdx, gotD := tree.Search(pts[i], p)
				wantIdx, wantD := ref.Search(pts[i], p)
				require.Equal(t, wantIdx, gotIdx, "query %d", i)
				require.InDeltaSlice(t, wantD, gotD, 1e-12, "query %d", i)
			}
		})
	}
}

func TestKDTree_SelfFirst(t *testing.T) {
	t.Parallel()

	pts := randomPoints(100, 3)
	tree := NewKDTree(pts)
	for i, p := range pts {
		idx, d2 := tree.Search(p, KNN(4))
		require.Len(t, idx, 4)
		assert.Equal(t, i, idx[0])
		assert.Zero(t, d2[0])
		for k := 1; k < len(d2); k++ {
			assert.LessOrEqual(t, d2[k-1], d2[k])
		}
	}
}

func TestKDTree_DuplicatePointsLowestIndexFirst(t *testing.T) {
	t.Parallel()

	pts := []r3.Vector{{}, {}, {X: 1}}
	idx, d2 := NewKDTree(pts).Search(pts[1], KNN(3))
	want := []int{0, 1, 2}
	for k := range want {
		if idx[k] != want[k] {
			t.Fatalf("indices = %v, want %v", idx, want)
		}
	}
	if d2[0] != 0 || d2[1] != 0 {
		t.Errorf("dist2 = %v, want two zero distances first", d2)
	}
}

// On a regular grid many neighbours tie at the k-th distance. The tree may
// keep a different member of the tie than a full sort would, but the
// distances must agree.
func TestKDTree_GridTiesMatchBruteForceDistances(t *testing.T) {
	t.Parallel()

	var pts []r3.Vector
	for y := 0; y < 6; y++ {
		for x := 0; x < 6; x++ {
			pts = append(pts, r3.Vector{X: float64(x), Y: float64(y)})
		}
	}
	tree := NewKDTree(pts)
	ref := bruteForce(pts)

	tests := []struct {
		name string
		p    Param
	}{
		{"knn5", KNN(5)},
		{"knn9", KNN(9)},
		{"hybrid", Hybrid(1.5, 6)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i, q := range pts {
				gotIdx, gotD := tree.Search(q, tt.p)
				_, wantD := ref.Search(q, tt.p)
				if len(gotD) != len(wantD) {
					t.Fatalf("query %d: got %d results, want %d", i, len(gotD), len(wantD))
				}
				for k := range wantD {
					if gotD[k] != wantD[k] {
						t.Errorf("query %d rank %d: dist2 = %v, want %v", i, k, gotD[k], wantD[k])
					}
				}
				if gotIdx[0] != i {
					t.Errorf("query %d: first result = %d", i, gotIdx[0])
				}
			}
		})
	}
}

func TestKDTree_FewerPointsThanK(t *testing.T) {
	t.Parallel()

	pts := []r3.Vector{{X: 0}, {X: 1}, {X: 3}}
	idx, d2 := NewKDTree(pts).Search(pts[0], KNN(10))
	assert.Equal(t, []int{0, 1, 2}, idx)
	assert.Equal(t, []float64{0, 1, 9}, d2)
}

func TestKDTree_RadiusExcludesFarPoints(t *testing.T) {
	t.Parallel()

	pts := []r3.Vector{{X: 0}, {X: 1}, {X: 2}, {X: 5}}
	tree := NewKDTree(pts)

	idx, _ := tree.Search(pts[0], Radius(1.5))
	assert.Equal(t, []int{0, 1}, idx)

	idx, _ = tree.Search(pts[3], Radius(1.5))
	assert.Equal(t, []int{3}, idx)

	idx, _ = tree.Search(pts[1], Hybrid(10, 3))
	assert.Equal(t, []int{1, 0, 2}, idx, "equal distances tie-break on index")
}

func TestKDTree_EmptyAndInvalid(t *testing.T) {
	t.Parallel()

	idx, d2 := NewKDTree(nil).Search(r3.Vector{}, KNN(3))
	assert.Nil(t, idx)
	assert.Nil(t, d2)

	tree := NewKDTree(randomPoints(10, 1))
	for _, p := range []Param{KNN(0), Radius(0), Hybrid(1, 0), {Kind: Kind(9), MaxNN: 3}} {
		idx, _ := tree.Search(r3.Vector{}, p)
		assert.Nil(t, idx, "param %v", p)
	}
}

func TestKDTree_ConcurrentSearch(t *testing.T) {
	t.Parallel()

	pts := randomPoints(500, 11)
	tree := NewKDTree(pts)
	ref := bruteForce(pts)

	var wg sync.WaitGroup
	errs := make(chan int, len(pts))
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := w; i < len(pts); i += 8 {
				got, _ := tree.Search(pts[i], KNN(8))
				want, _ := ref.Search(pts[i], KNN(8))
				if len(got) != len(want) || got[0] != want[0] {
					errs <- i
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)
	for i := range errs {
		t.Errorf("concurrent search mismatch at query %d", i)
	}
}
