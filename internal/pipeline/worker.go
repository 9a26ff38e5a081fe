package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"cluster-matcher/internal/algorithms/kmeans"
	"cluster-matcher/internal/config"
	"cluster-matcher/internal/imageio"
	"cluster-matcher/internal/logger"
	"cluster-matcher/internal/matching"
	"cluster-matcher/internal/metrics"
	"cluster-matcher/internal/models"
	"cluster-matcher/internal/timing"
)

// Match is the in-memory result of clustering one image and selecting its best cluster.
type Match struct {
	Labels     models.ClusterAssignment
	Selection  matching.Selection
	Metrics    *metrics.SegmentationMetrics
	Iterations int
	Inertia    float64
}

// Worker processes one image/mask pair. It holds no per-task state and is shared by all
// goroutines of a batch.
type Worker struct {
	cfg    config.Config
	codec  imageio.Codec
	logger logger.Logger
	timer  *timing.Tracker
}

func NewWorker(cfg config.Config, codec imageio.Codec, log logger.Logger, timer *timing.Tracker) *Worker {
	if log == nil {
		log = logger.NewNop()
	}
	return &Worker{cfg: cfg, codec: codec, logger: log, timer: timer}
}

// Process never returns an error: every failure becomes a skipped outcome.
func (w *Worker) Process(ctx context.Context, task models.Task) (outcome models.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = models.Skipped(task, models.SkipPanic, fmt.Errorf("panic: %v", r))
		}
		if !outcome.OK() {
			w.logSkip(outcome)
		}
	}()

	if err := ctx.Err(); err != nil {
		return models.Skipped(task, models.SkipCancelled, err)
	}

	if _, err := os.Stat(task.MaskPath); err != nil {
		return models.Skipped(task, models.SkipMissingMask, err)
	}

	decodeCtx := w.timer.StartTiming(ctx, "decode")
	img, err := w.codec.LoadColor(task.ImagePath)
	if err != nil {
		return models.Skipped(task, models.SkipUnreadableImage, err)
	}
	mask, err := w.codec.LoadGray(task.MaskPath)
	if err != nil {
		return models.Skipped(task, models.SkipUnreadableMask, err)
	}
	w.timer.EndTiming(decodeCtx)

	if mask.Width != img.Width || mask.Height != img.Height {
		return models.Skipped(task, models.SkipDimensionMismatch,
			fmt.Errorf("image %dx%d, mask %dx%d", img.Width, img.Height, mask.Width, mask.Height))
	}

	match, err := w.Match(ctx, img, mask)
	if err != nil {
		return models.Skipped(task, models.SkipProcessingFailed, err)
	}

	sel := match.Selection
	if !sel.Matched() && w.cfg.NoMatchPolicy == config.NoMatchSkip {
		return models.Skipped(task, models.SkipNoMatch, nil)
	}

	renderCtx := w.timer.StartTiming(ctx, "render")
	outputPath := OutputPath(w.cfg, task.ImageID, sel.Cluster, sel.Score)
	rendered, err := matching.Render(img, match.Labels, sel.Cluster)
	if err == nil {
		err = w.codec.Save(outputPath, rendered)
	}
	w.timer.EndTiming(renderCtx)
	if err != nil {
		return models.Skipped(task, models.SkipOutputFailed, err)
	}

	fields := map[string]interface{}{
		"image":             task.ImageID,
		"cluster":           sel.Cluster,
		"iou":               sel.Score,
		"output":            outputPath,
		"kmeans_iterations": match.Iterations,
	}
	if match.Metrics != nil {
		fields["dice"] = match.Metrics.DiceCoefficient
		fields["true_positive"] = match.Metrics.Confusion.TruePositive
		fields["false_positive"] = match.Metrics.Confusion.FalsePositive
		fields["false_negative"] = match.Metrics.Confusion.FalseNegative
	}
	w.logger.Debug("Worker", "image matched", fields)

	return models.Matched(task, models.MatchResult{
		ImageID:     task.ImageID,
		BestCluster: sel.Cluster,
		Score:       Round(sel.Score, 4),
		OutputPath:  outputPath,
		Success:     true,
	})
}

// Match clusters the image colors and picks the cluster that best overlaps the pixels of
// mask equal to the configured target value.
func (w *Worker) Match(ctx context.Context, img *models.RGBImage, mask *models.GrayImage) (*Match, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}
	if err := mask.Validate(); err != nil {
		return nil, err
	}
	truth := mask.Binarize(w.cfg.TargetValue)

	clusterCtx := w.timer.StartTiming(ctx, "cluster")
	res, err := kmeans.Fit(img.Features(), kmeans.Options{
		K:             w.cfg.Clusters,
		Seed:          w.cfg.Seed,
		MaxIterations: w.cfg.MaxIterations,
		Tolerance:     w.cfg.Tolerance,
	})
	w.timer.EndTiming(clusterCtx)
	if err != nil {
		return nil, fmt.Errorf("clustering failed: %w", err)
	}

	selectCtx := w.timer.StartTiming(ctx, "select")
	sel, err := matching.SelectBest(res.Labels, truth, w.cfg.Clusters)
	w.timer.EndTiming(selectCtx)
	if err != nil {
		return nil, err
	}

	m := &Match{
		Labels:     res.Labels,
		Selection:  sel,
		Iterations: res.Iterations,
		Inertia:    res.Inertia,
	}
	if sel.Matched() {
		m.Metrics, err = metrics.CalculateSegmentationMetrics(truth, res.Labels.Members(sel.Cluster))
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (w *Worker) logSkip(outcome models.Outcome) {
	fields := map[string]interface{}{
		"image":  outcome.Task.ImageID,
		"reason": string(outcome.Reason),
	}
	if outcome.Err != nil {
		fields["error"] = outcome.Err.Error()
	}
	switch {
	case outcome.Reason == models.SkipNoMatch:
		w.logger.Warning("Worker", "no cluster overlaps the ground truth", fields)
	case outcome.Reason == models.SkipPanic, outcome.Reason == models.SkipProcessingFailed,
		outcome.Reason == models.SkipOutputFailed:
		w.logger.Error("Worker", errors.New(string(outcome.Reason)), fields)
	default:
		w.logger.Debug("Worker", "image skipped", fields)
	}
}

// OutputPath names the rendered cluster as {id}_cluster{index}_iou{score:.2f}{ext}.
func OutputPath(cfg config.Config, imageID string, cluster int, score float64) string {
	name := fmt.Sprintf("%s_cluster%d_iou%.2f%s", imageID, cluster, score, cfg.OutputExt)
	return filepath.Join(cfg.OutputDir, name)
}

// Round rounds half away from zero to the given number of decimals.
func Round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
