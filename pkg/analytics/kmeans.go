package analytics

import (
	"math"
	"math/rand"
)

const (
	kmeansSeed    = 42
	kmeansMaxIter = 100
)

// kmeans partitions l2-normalized sparse vectors into k groups by
// iterative centroid refinement: assign each vector to the centroid
// with highest dot product, recompute centroids, stop when
// assignments are stable or the iteration cap is hit. The fixed seed
// makes repeated runs over the same input produce the same grouping.
func kmeans(vecs []sparseVec, k, dim int) []int {
	assignments := make([]int, len(vecs))
	if k <= 1 || len(vecs) == 0 {
		return assignments
	}

	rng := rand.New(rand.NewSource(kmeansSeed))

	// Farthest-point seeding: start from a random vector, then
	// repeatedly take the vector least similar to any chosen
	// centroid. Spreads the seeds across the obvious groups.
	centroids := make([][]float64, 0, k)
	toDense := func(v sparseVec) []float64 {
		d := make([]float64, dim)
		for i, x := range v {
			d[i] = x
		}
		return d
	}
	centroids = append(centroids, toDense(vecs[rng.Intn(len(vecs))]))
	for len(centroids) < k {
		next, nextSim := 0, math.Inf(1)
		for i, v := range vecs {
			sim := math.Inf(-1)
			for _, c := range centroids {
				if s := v.dot(c); s > sim {
					sim = s
				}
			}
			if sim < nextSim {
				next, nextSim = i, sim
			}
		}
		centroids = append(centroids, toDense(vecs[next]))
	}

	for iter := 0; iter < kmeansMaxIter; iter++ {
		changed := false
		for i, v := range vecs {
			best, bestSim := 0, v.dot(centroids[0])
			for c := 1; c < k; c++ {
				if sim := v.dot(centroids[c]); sim > bestSim {
					best, bestSim = c, sim
				}
			}
			if assignments[i] != best {
				assignments[i] = best
				changed = true
			}
		}
		if !changed && iter > 0 {
			break
		}

		// Recompute centroids as member means; a cluster that lost
		// all members keeps its previous centroid.
		sums := make([][]float64, k)
		counts := make([]int, k)
		for c := range sums {
			sums[c] = make([]float64, dim)
		}
		for i, v := range vecs {
			c := assignments[i]
			counts[c]++
			for idx, x := range v {
				sums[c][idx] += x
			}
		}
		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				continue
			}
			for idx := range sums[c] {
				sums[c][idx] /= float64(counts[c])
			}
			centroids[c] = sums[c]
		}
	}
	return assignments
}
