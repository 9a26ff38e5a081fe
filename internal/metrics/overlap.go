package metrics

import (
	"errors"
	"fmt"

	"cluster-matcher/internal/models"
)

// EmptyOverlapScore is returned when both masks are entirely false. Two empty regions are
// treated as no overlap, so an empty cluster never "matches" an empty ground truth.
const EmptyOverlapScore = 0.0

var ErrLengthMismatch = errors.New("mask lengths differ")

// Confusion holds per-pixel classification counts of a candidate mask against ground truth.
type Confusion struct {
	TruePositive  int
	FalsePositive int
	FalseNegative int
	TrueNegative  int
}

// SegmentationMetrics contains overlap quality measures for one candidate mask.
type SegmentationMetrics struct {
	IoU                    float64 // Intersection over Union
	DiceCoefficient        float64 // Dice Similarity Coefficient
	MisclassificationError float64 // Misclassification Error Rate
	Confusion              Confusion
}

// Count tallies truth against candidate pixel by pixel.
func Count(truth, candidate models.BinaryMask) (Confusion, error) {
	if len(truth) != len(candidate) {
		return Confusion{}, fmt.Errorf("%w: ground truth %d, candidate %d", ErrLengthMismatch, len(truth), len(candidate))
	}
	var c Confusion
	for i, gt := range truth {
		seg := candidate[i]
		switch {
		case gt && seg:
			c.TruePositive++
		case !gt && seg:
			c.FalsePositive++
		case gt && !seg:
			c.FalseNegative++
		default:
			c.TrueNegative++
		}
	}
	return c, nil
}

// IoU returns |A ∩ B| / |A ∪ B|, or EmptyOverlapScore when the union is empty.
func (c Confusion) IoU() float64 {
	union := c.TruePositive + c.FalsePositive + c.FalseNegative
	if union == 0 {
		return EmptyOverlapScore
	}
	return float64(c.TruePositive) / float64(union)
}

// Dice returns 2|A ∩ B| / (|A| + |B|), with the same empty policy as IoU.
func (c Confusion) Dice() float64 {
	denom := 2*c.TruePositive + c.FalsePositive + c.FalseNegative
	if denom == 0 {
		return EmptyOverlapScore
	}
	return 2 * float64(c.TruePositive) / float64(denom)
}

func (c Confusion) Total() int {
	return c.TruePositive + c.FalsePositive + c.FalseNegative + c.TrueNegative
}

// IoU scores candidate against truth as a Jaccard index in [0, 1].
func IoU(truth, candidate models.BinaryMask) (float64, error) {
	c, err := Count(truth, candidate)
	if err != nil {
		return 0, err
	}
	return c.IoU(), nil
}

// CalculateSegmentationMetrics computes IoU, Dice and misclassification rate in one pass.
func CalculateSegmentationMetrics(truth, candidate models.BinaryMask) (*SegmentationMetrics, error) {
	c, err := Count(truth, candidate)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate binary mask metrics: %w", err)
	}
	m := &SegmentationMetrics{
		IoU:             c.IoU(),
		DiceCoefficient: c.Dice(),
		Confusion:       c,
	}
	if total := c.Total(); total > 0 {
		m.MisclassificationError = float64(c.FalsePositive+c.FalseNegative) / float64(total)
	}
	return m, nil
}
