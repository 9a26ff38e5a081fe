// Package kmeans partitions color vectors into a fixed number of clusters by minimizing
// within-cluster variance (Lloyd iterations seeded with k-means++).
//
// Fit is a pure function of (points, options): the random source is created from
// Options.Seed on every call, so identical input yields identical labels.
package kmeans

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"cluster-matcher/internal/models"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var ErrInvalidK = errors.New("cluster count must be positive")

type Options struct {
	K             int
	Seed          int64
	MaxIterations int
	// Tolerance is relative to the mean per-feature variance of the input.
	Tolerance float64
}

type Result struct {
	Labels     models.ClusterAssignment
	Centers    [][]float64
	Iterations int
	Inertia    float64
}

// Fit clusters points into opts.K groups. Points may contain fewer distinct values than K;
// the surplus centers then duplicate existing ones and their clusters stay empty.
func Fit(points [][]float64, opts Options) (*Result, error) {
	if opts.K <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidK, opts.K)
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = 300
	}

	n := len(points)
	result := &Result{Labels: make(models.ClusterAssignment, n)}
	if n == 0 {
		return result, nil
	}
	dim := len(points[0])
	for i, p := range points {
		if len(p) != dim {
			return nil, fmt.Errorf("point %d has %d components, want %d", i, len(p), dim)
		}
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	centers := seedCenters(points, opts.K, rng)
	tol := opts.Tolerance * meanVariance(points)

	labels := result.Labels
	for i := range labels {
		labels[i] = -1
	}

	for iter := 0; iter < opts.MaxIterations; iter++ {
		result.Iterations = iter + 1
		if !assign(points, centers, labels) {
			break
		}
		if shift := update(points, labels, centers); shift <= tol {
			break
		}
	}

	// Labels always reflect the final centers.
	assign(points, centers, labels)
	result.Centers = centers
	result.Inertia = inertia(points, centers, labels)
	return result, nil
}

// seedCenters runs k-means++: the first center is uniform, each next one is drawn with
// probability proportional to the squared distance to the nearest chosen center.
func seedCenters(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(points)
	centers := make([][]float64, 0, k)
	centers = append(centers, clone(points[rng.Intn(n)]))

	nearest := make([]float64, n)
	for i, p := range points {
		nearest[i] = sqDist(p, centers[0])
	}
	cumulative := make([]float64, n)

	for len(centers) < k {
		floats.CumSum(cumulative, nearest)
		total := cumulative[n-1]

		var idx int
		if total <= 0 {
			// Every point already coincides with a center.
			idx = rng.Intn(n)
		} else {
			r := rng.Float64() * total
			idx = n - 1
			for i, c := range cumulative {
				if c > r {
					idx = i
					break
				}
			}
		}

		center := clone(points[idx])
		centers = append(centers, center)
		for i, p := range points {
			if d := sqDist(p, center); d < nearest[i] {
				nearest[i] = d
			}
		}
	}
	return centers
}

// assign labels every point with its nearest center; ties go to the lowest index.
// It reports whether any label changed.
func assign(points, centers [][]float64, labels models.ClusterAssignment) bool {
	changed := false
	for i, p := range points {
		best, bestDist := 0, math.Inf(1)
		for c, center := range centers {
			if d := sqDist(p, center); d < bestDist {
				best, bestDist = c, d
			}
		}
		if labels[i] != best {
			labels[i] = best
			changed = true
		}
	}
	return changed
}

// update moves each center to the mean of its members and returns the total squared shift.
// Empty clusters keep their previous center.
func update(points [][]float64, labels models.ClusterAssignment, centers [][]float64) float64 {
	dim := len(centers[0])
	sums := make([][]float64, len(centers))
	for c := range sums {
		sums[c] = make([]float64, dim)
	}
	counts := make([]int, len(centers))
	for i, p := range points {
		floats.Add(sums[labels[i]], p)
		counts[labels[i]]++
	}

	shift := 0.0
	for c, center := range centers {
		if counts[c] == 0 {
			continue
		}
		next := floats.ScaleTo(sums[c], 1/float64(counts[c]), sums[c])
		d := floats.Distance(center, next, 2)
		shift += d * d
		copy(center, next)
	}
	return shift
}

func inertia(points, centers [][]float64, labels models.ClusterAssignment) float64 {
	total := 0.0
	for i, p := range points {
		total += sqDist(p, centers[labels[i]])
	}
	return total
}

func meanVariance(points [][]float64) float64 {
	n := len(points)
	if n < 2 {
		return 0
	}
	dim := len(points[0])
	column := make([]float64, n)
	variances := make([]float64, dim)
	for d := 0; d < dim; d++ {
		for i, p := range points {
			column[i] = p[d]
		}
		variances[d] = stat.Variance(column, nil)
	}
	return stat.Mean(variances, nil)
}

func sqDist(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return s
}

func clone(p []float64) []float64 {
	out := make([]float64, len(p))
	copy(out, p)
	return out
}
