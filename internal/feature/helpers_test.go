package feature

import (
	"github.com/golang/geo/r3"

	"github.com/banshee-data/pointfeature/internal/search"
)

// scriptedIndex answers each query with a fixed neighbour list keyed by the
// query position.
type scriptedIndex struct {
	results map[r3.Vector]scriptedResult
}

type scriptedResult struct {
	indices []int
	dist2   []float64
}

func newScriptedIndex() *scriptedIndex {
	return &scriptedIndex{results: make(map[r3.Vector]scriptedResult)}
}

func (s *scriptedIndex) set(p r3.Vector, indices []int, dist2 []float64) {
	s.results[p] = scriptedResult{indices: indices, dist2: dist2}
}

func (s *scriptedIndex) Search(query r3.Vector, _ search.Param) ([]int, []float64) {
	r := s.results[query]
	return r.indices, r.dist2
}

// onesDist2 returns n distance values of 1, self first at 0.
func onesDist2(n int) []float64 {
	d := make([]float64, n)
	for i := 1; i < n; i++ {
		d[i] = 1
	}
	return d
}

func sumRange(col []float64, from, to int) float64 {
	var s float64
	for _, v := range col[from:to] {
		s += v
	}
	return s
}

var testParam = search.KNN(30)
