// Package matching picks the cluster whose membership best overlaps a ground-truth mask
// and renders it as an image.
package matching

import (
	"fmt"

	"cluster-matcher/internal/metrics"
	"cluster-matcher/internal/models"
)

// NoCluster is the sentinel index returned when no cluster overlaps the ground truth.
const NoCluster = -1

// Candidate is one cluster's membership and its score against the ground truth.
type Candidate struct {
	Cluster int
	Members models.BinaryMask
	Score   float64
}

type Selection struct {
	Cluster int
	Score   float64
	// Scores holds every cluster's IoU, indexed by cluster.
	Scores []float64
}

// Matched reports whether some cluster scored above zero.
func (s Selection) Matched() bool { return s.Cluster != NoCluster }

// SelectBest scores clusters 0..k-1 in order and keeps the first one reaching the maximum.
// A later cluster replaces the current best only with a strictly greater score, and the
// search starts from (NoCluster, 0), so an all-zero image yields NoCluster.
func SelectBest(labels models.ClusterAssignment, truth models.BinaryMask, k int) (Selection, error) {
	if len(labels) != len(truth) {
		return Selection{}, fmt.Errorf("%w: assignment %d, ground truth %d", metrics.ErrLengthMismatch, len(labels), len(truth))
	}

	best := Selection{Cluster: NoCluster, Score: 0, Scores: make([]float64, k)}
	for cluster := 0; cluster < k; cluster++ {
		candidate, err := score(labels, truth, cluster)
		if err != nil {
			return Selection{}, err
		}
		best.Scores[cluster] = candidate.Score
		if candidate.Score > best.Score {
			best.Cluster = candidate.Cluster
			best.Score = candidate.Score
		}
	}
	return best, nil
}

func score(labels models.ClusterAssignment, truth models.BinaryMask, cluster int) (Candidate, error) {
	members := labels.Members(cluster)
	s, err := metrics.IoU(truth, members)
	if err != nil {
		return Candidate{}, fmt.Errorf("score cluster %d: %w", cluster, err)
	}
	return Candidate{Cluster: cluster, Members: members, Score: s}, nil
}
