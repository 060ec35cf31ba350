package coloc

import (
	"sort"

	"gonum.org/v1/gonum/spatial/kdtree"

	"coloccount/internal/models"
)

// nucleusPoint is a nucleus centroid tagged with its detector index
type nucleusPoint struct {
	X, Y  float64
	Index int
}

// Compare implements the kdtree.Comparable interface
func (p nucleusPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(nucleusPoint)
	switch d {
	case 0:
		return p.X - q.X
	case 1:
		return p.Y - q.Y
	default:
		panic("illegal dimension")
	}
}

// Dims returns the number of dimensions for the KD-tree
func (p nucleusPoint) Dims() int { return 2 }

// Distance returns the squared Euclidean distance between two centroids
func (p nucleusPoint) Distance(c kdtree.Comparable) float64 {
	q := c.(nucleusPoint)
	dx := p.X - q.X
	dy := p.Y - q.Y
	return dx*dx + dy*dy
}

// nucleusPoints satisfies kdtree.Interface
type nucleusPoints []nucleusPoint

func (p nucleusPoints) Index(i int) kdtree.Comparable         { return p[i] }
func (p nucleusPoints) Len() int                              { return len(p) }
func (p nucleusPoints) Slice(start, end int) kdtree.Interface { return p[start:end] }

func (p nucleusPoints) Pivot(d kdtree.Dim) int {
	return kdtree.Partition(nucleusPlane{nucleusPoints: p, Dim: d}, kdtree.MedianOfRandoms(nucleusPlane{nucleusPoints: p, Dim: d}, 100))
}

// nucleusPlane implements sort.Interface and kdtree.SortSlicer
type nucleusPlane struct {
	nucleusPoints
	kdtree.Dim
}

func (p nucleusPlane) Less(i, j int) bool {
	switch p.Dim {
	case 0:
		return p.nucleusPoints[i].X < p.nucleusPoints[j].X
	case 1:
		return p.nucleusPoints[i].Y < p.nucleusPoints[j].Y
	default:
		panic("illegal dimension")
	}
}

func (p nucleusPlane) Slice(start, end int) kdtree.SortSlicer {
	return nucleusPlane{nucleusPoints: p.nucleusPoints[start:end], Dim: p.Dim}
}

func (p nucleusPlane) Swap(i, j int) {
	p.nucleusPoints[i], p.nucleusPoints[j] = p.nucleusPoints[j], p.nucleusPoints[i]
}

// nucleusIndex answers "which nuclei could pass the window test" without
// visiting every nucleus. It never decides a match on its own.
type nucleusIndex struct {
	tree *kdtree.Tree
}

func newNucleusIndex(nuclei models.DetectionSet) *nucleusIndex {
	points := make(nucleusPoints, len(nuclei))
	for i, n := range nuclei {
		points[i] = nucleusPoint{X: n.Centroid.X, Y: n.Centroid.Y, Index: i}
	}
	return &nucleusIndex{tree: kdtree.New(points, false)}
}

// candidates returns, in ascending detector order, every nucleus whose
// centroid lies within the square window of half width w around at.
// The query radius w*sqrt(2) circumscribes the window; callers still apply
// the exact window test.
func (idx *nucleusIndex) candidates(at models.Point, w float64) []int {
	keeper := kdtree.NewDistKeeper(2 * w * w)
	idx.tree.NearestSet(keeper, nucleusPoint{X: at.X, Y: at.Y, Index: -1})

	found := make([]int, 0, keeper.Len())
	for _, item := range keeper.Heap {
		// Skip the sentinel value
		if item.Comparable == nil {
			continue
		}
		found = append(found, item.Comparable.(nucleusPoint).Index)
	}
	sort.Ints(found)
	return found
}
