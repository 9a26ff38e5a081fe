package metrics

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"cluster-matcher/internal/models"

	"github.com/google/go-cmp/cmp"
)

func mask(bits string) models.BinaryMask {
	m := make(models.BinaryMask, len(bits))
	for i, b := range bits {
		m[i] = b == '1'
	}
	return m
}

func TestIoU(t *testing.T) {
	tests := []struct {
		name      string
		truth     string
		candidate string
		want      float64
	}{
		{"identical", "0110", "0110", 1},
		{"disjoint", "1100", "0011", 0},
		{"half", "1100", "1000", 0.5},
		{"partial union", "1110", "0111", 0.5},
		{"empty candidate", "0110", "0000", 0},
		{"empty truth", "0000", "0110", 0},
		{"both empty", "0000", "0000", EmptyOverlapScore},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := IoU(mask(tt.truth), mask(tt.candidate))
			if err != nil {
				t.Fatalf("IoU: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("IoU(%s, %s) = %v, want %v", tt.truth, tt.candidate, got, tt.want)
			}
		})
	}
}

func TestIoUProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for trial := 0; trial < 200; trial++ {
		n := 1 + rng.Intn(64)
		a := make(models.BinaryMask, n)
		b := make(models.BinaryMask, n)
		for i := 0; i < n; i++ {
			a[i] = rng.Intn(2) == 0
			b[i] = rng.Intn(3) == 0
		}

		ab, err := IoU(a, b)
		if err != nil {
			t.Fatal(err)
		}
		ba, _ := IoU(b, a)
		if ab < 0 || ab > 1 {
			t.Fatalf("IoU out of range: %v", ab)
		}
		if ab != ba {
			t.Fatalf("IoU not symmetric: %v vs %v", ab, ba)
		}
		if a.Count() > 0 {
			if self, _ := IoU(a, a); self != 1 {
				t.Fatalf("IoU(A, A) = %v for non-empty A", self)
			}
		}
	}
}

func TestIoULengthMismatch(t *testing.T) {
	if _, err := IoU(mask("01"), mask("011")); !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("err = %v, want ErrLengthMismatch", err)
	}
}

func TestCalculateSegmentationMetrics(t *testing.T) {
	got, err := CalculateSegmentationMetrics(mask("11100"), mask("01110"))
	if err != nil {
		t.Fatal(err)
	}
	want := &SegmentationMetrics{
		IoU:                    0.5,
		DiceCoefficient:        2.0 / 3.0,
		MisclassificationError: 0.4,
		Confusion:              Confusion{TruePositive: 2, FalsePositive: 1, FalseNegative: 1, TrueNegative: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("metrics mismatch (-want +got):\n%s", diff)
	}
}
