package iceberg

import (
	"math"
	"slices"

	ierrors "github.com/matzehuels/icebergviz/pkg/errors"
)

// MinQuartileShapes is the smallest set that can be split into quartiles.
const MinQuartileShapes = 4

// QuantileEdges returns the 0, 25, 50, 75 and 100 percent quantiles of
// sorted using linear interpolation between closest ranks (the "type 7"
// estimator: h = (n-1)p).
func QuantileEdges(sorted []float64) [5]float64 {
	var edges [5]float64
	for i, p := range []float64{0, 0.25, 0.5, 0.75, 1} {
		edges[i] = quantile(sorted, p)
	}
	return edges
}

func quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	h := float64(n-1) * p
	lo := int(math.Floor(h))
	if lo >= n-1 {
		return sorted[n-1]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[lo+1]-sorted[lo])
}

// AssignQuartiles labels every measured shape with its area quartile and
// returns a new set in the original order.
//
// Bins are (lo, hi] between consecutive quantile edges, with the smallest
// area in Q1, so an area equal to an edge lands in the lower quartile.
// When duplicate areas collapse two edges or leave a bin empty, labels fall
// back to rank order: the i-th smallest of n shapes (stable, ties by
// position) gets quartile floor(4i/n). Either way all four labels are
// present.
//
// Fewer than four measured shapes is an INSUFFICIENT_DATA error and no
// labels are assigned.
func AssignQuartiles(set ShapeSet) (ShapeSet, error) {
	idx := make([]int, 0, len(set.Shapes))
	for i, s := range set.Shapes {
		if s.Measured {
			idx = append(idx, i)
		}
	}
	if len(idx) < MinQuartileShapes {
		return ShapeSet{}, ierrors.New(ierrors.ErrCodeInsufficientData,
			"quartiles need at least %d measured shapes, got %d", MinQuartileShapes, len(idx))
	}

	slices.SortStableFunc(idx, func(a, b int) int {
		aa, ab := set.Shapes[a].Area, set.Shapes[b].Area
		switch {
		case aa < ab:
			return -1
		case aa > ab:
			return 1
		}
		return 0
	})

	areas := make([]float64, len(idx))
	for i, j := range idx {
		areas[i] = set.Shapes[j].Area
	}

	labels, ok := binByEdges(areas)
	if !ok {
		labels = binByRank(len(areas))
	}

	out := set.clone()
	for i := range out.Shapes {
		out.Shapes[i].Quartile = ""
	}
	for rank, j := range idx {
		out.Shapes[j].Quartile = labels[rank]
	}
	return out, nil
}

// binByEdges labels ascending areas by quantile edges. ok is false when the
// edges are not strictly increasing or a bin would be empty.
func binByEdges(areas []float64) (labels []Quartile, ok bool) {
	edges := QuantileEdges(areas)
	for i := 1; i < len(edges); i++ {
		if !(edges[i] > edges[i-1]) {
			return nil, false
		}
	}

	labels = make([]Quartile, len(areas))
	var counts [4]int
	for i, a := range areas {
		q := 3
		for k := 1; k <= 3; k++ {
			if a <= edges[k] {
				q = k - 1
				break
			}
		}
		labels[i] = Quartiles[q]
		counts[q]++
	}
	for _, c := range counts {
		if c == 0 {
			return nil, false
		}
	}
	return labels, true
}

func binByRank(n int) []Quartile {
	labels := make([]Quartile, n)
	for rank := range labels {
		labels[rank] = Quartiles[rank*4/n]
	}
	return labels
}

// QuartileCounts returns how many shapes carry each label.
func QuartileCounts(set ShapeSet) map[Quartile]int {
	counts := make(map[Quartile]int, len(Quartiles))
	for _, q := range Quartiles {
		counts[q] = 0
	}
	for _, s := range set.Shapes {
		if s.Quartile != "" {
			counts[s.Quartile]++
		}
	}
	return counts
}
