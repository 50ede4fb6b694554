package search

import (
	"math"
	"sort"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/spatial/kdtree"
)

// Searcher answers neighbourhood queries. Results are sorted by ascending
// squared distance, so a point at the query position comes first. When
// several indexed points share that position, the lowest index leads.
// Implementations must be safe for concurrent use.
type Searcher interface {
	Search(query r3.Vector, p Param) (indices []int, dist2 []float64)
}

// KDTree is a Searcher backed by a gonum k-d tree. It is read-only once
// built, so concurrent searches are safe.
type KDTree struct {
	tree *kdtree.Tree
	size int
}

// NewKDTree indexes points. The slice is copied; callers may keep using it.
func NewKDTree(points []r3.Vector) *KDTree {
	if len(points) == 0 {
		return &KDTree{}
	}
	nodes := make(indexedPoints, len(points))
	for i, p := range points {
		nodes[i] = indexedPoint{Vector: p, index: i}
	}
	return &KDTree{tree: kdtree.New(nodes, false), size: len(points)}
}

// Len returns the number of indexed points.
func (t *KDTree) Len() int {
	return t.size
}

// Search implements Searcher. An invalid parameter yields no results.
func (t *KDTree) Search(query r3.Vector, p Param) ([]int, []float64) {
	if t.tree == nil || p.Validate() != nil {
		return nil, nil
	}
	q := indexedPoint{Vector: query, index: -1}

	var heap kdtree.Heap
	limit := math.Inf(1)
	switch p.Kind {
	case KindKNN:
		keep := kdtree.NewNKeeper(p.MaxNN)
		t.tree.NearestSet(keep, q)
		heap = keep.Heap
	case KindRadius:
		limit = p.Radius * p.Radius
		keep := kdtree.NewDistKeeper(limit)
		t.tree.NearestSet(keep, q)
		heap = keep.Heap
	case KindHybrid:
		limit = p.Radius * p.Radius
		keep := kdtree.NewNKeeper(p.MaxNN)
		t.tree.NearestSet(keep, q)
		heap = keep.Heap
	}
	return collect(heap, limit)
}

// collect drops keeper sentinels and anything past limit, then orders the
// survivors by distance with index as the tie-break. The tie-break only
// orders what the keeper returned: when equally distant points straddle
// the k-th place, which of them is kept is decided by the tree walk.
func collect(heap kdtree.Heap, limit float64) ([]int, []float64) {
	found := make([]neighbor, 0, len(heap))
	for _, cd := range heap {
		if cd.Comparable == nil || cd.Dist > limit {
			continue
		}
		found = append(found, neighbor{index: cd.Comparable.(indexedPoint).index, dist2: cd.Dist})
	}
	sortNeighbors(found)

	indices := make([]int, len(found))
	dist2 := make([]float64, len(found))
	for i, n := range found {
		indices[i] = n.index
		dist2[i] = n.dist2
	}
	return indices, dist2
}

type neighbor struct {
	index int
	dist2 float64
}

func sortNeighbors(ns []neighbor) {
	sort.Slice(ns, func(i, j int) bool {
		if ns[i].dist2 != ns[j].dist2 {
			return ns[i].dist2 < ns[j].dist2
		}
		return ns[i].index < ns[j].index
	})
}

// indexedPoint satisfies kdtree.Comparable. Distance is squared Euclidean.
type indexedPoint struct {
	r3.Vector
	index int
}

func (p indexedPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(indexedPoint)
	switch d {
	case 0:
		return p.X - q.X
	case 1:
		return p.Y - q.Y
	case 2:
		return p.Z - q.Z
	default:
		panic("illegal dimension")
	}
}

func (p indexedPoint) Dims() int { return 3 }

func (p indexedPoint) Distance(c kdtree.Comparable) float64 {
	q := c.(indexedPoint)
	return p.Vector.Sub(q.Vector).Norm2()
}

// indexedPoints satisfies kdtree.Interface.
type indexedPoints []indexedPoint

func (ps indexedPoints) Index(i int) kdtree.Comparable { return ps[i] }

func (ps indexedPoints) Len() int { return len(ps) }

func (ps indexedPoints) Slice(start, end int) kdtree.Interface { return ps[start:end] }

func (ps indexedPoints) Pivot(d kdtree.Dim) int {
	return pointsHelper{Dim: d, indexedPoints: ps}.Pivot()
}

type pointsHelper struct {
	kdtree.Dim
	indexedPoints
}

func (h pointsHelper) Less(i, j int) bool {
	return h.indexedPoints[i].Compare(h.indexedPoints[j], h.Dim) < 0
}

func (h pointsHelper) Pivot() int {
	return kdtree.Partition(h, kdtree.MedianOfMedians(h))
}

func (h pointsHelper) Slice(start, end int) kdtree.SortSlicer {
	h.indexedPoints = h.indexedPoints[start:end]
	return h
}

func (h pointsHelper) Swap(i, j int) {
	h.indexedPoints[i], h.indexedPoints[j] = h.indexedPoints[j], h.indexedPoints[i]
}
