package feature

import (
	"github.com/banshee-data/pointfeature/internal/geometry"
	"github.com/banshee-data/pointfeature/internal/monitoring"
	"github.com/banshee-data/pointfeature/internal/search"
)

// Options configures a descriptor computation. The zero value searches the
// 30 nearest neighbours over a k-d tree built from the cloud, using every
// CPU.
type Options struct {
	// Param is forwarded unchanged to every neighbourhood query. The zero
	// value means search.DefaultParam().
	Param search.Param
	// Index answers the queries. It must index the cloud's points in
	// order. Nil builds a k-d tree.
	Index search.Searcher
	// Workers bounds the goroutines used per pass; <= 0 means GOMAXPROCS.
	Workers int
}

func (o Options) resolve(pc *geometry.PointCloud) (search.Searcher, search.Param) {
	param := o.Param
	if param.IsZero() {
		param = search.DefaultParam()
	}
	index := o.Index
	if index == nil {
		index = search.NewKDTree(pc.Points)
		monitoring.Debugf("built k-d tree over %d points", pc.Len())
	}
	return index, param
}
