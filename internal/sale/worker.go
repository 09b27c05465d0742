package sale

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/multierr"

	"github.com/sssssubin/cart-service/internal/catalog"
	"github.com/sssssubin/cart-service/pkg/config"
	"github.com/sssssubin/cart-service/pkg/logger"
	"github.com/sssssubin/cart-service/pkg/metrics"
)

const (
	flashJobName     = "flash_sale"
	recommendJobName = "recommend_sale"
)

type lastSelectedSource interface {
	LastSelected(ctx context.Context) (string, error)
}

// WorkerParams configure the sale worker.
type WorkerParams struct {
	Catalog  catalog.Service
	Selected lastSelectedSource
	Lock     Lock
	Logger   *logger.Logger
	Metrics  *metrics.SaleJobMetrics
	Config   config.SaleConfig
	Rand     *rand.Rand
}

// Worker applies timed price markdowns to the catalog: a probabilistic flash
// sale and a recommendation sale steered by the last selected product.
type Worker struct {
	catalog  catalog.Service
	selected lastSelectedSource
	lock     Lock
	logg     *logger.Logger
	metrics  *metrics.SaleJobMetrics
	cfg      config.SaleConfig
	rng      *rand.Rand
}

// NewWorker builds a sale worker.
func NewWorker(params WorkerParams) (*Worker, error) {
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog service required")
	}
	if params.Selected == nil {
		return nil, fmt.Errorf("selection source required")
	}
	if params.Lock == nil {
		return nil, fmt.Errorf("lock required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	rng := params.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	cfg := params.Config
	if cfg.FlashInterval <= 0 {
		cfg.FlashInterval = 30 * time.Second
	}
	if cfg.RecommendInterval <= 0 {
		cfg.RecommendInterval = time.Minute
	}
	return &Worker{
		catalog:  params.Catalog,
		selected: params.Selected,
		lock:     params.Lock,
		logg:     params.Logger,
		metrics:  params.Metrics,
		cfg:      cfg,
		rng:      rng,
	}, nil
}

// Run drives both sale cadences until the context is canceled.
func (w *Worker) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := multierr.Append(w.runFlash(ctx), w.runRecommendation(ctx)); err != nil {
		w.logg.Error(ctx, "initial sale cycle failed", err)
	}

	flash := time.NewTicker(w.cfg.FlashInterval)
	defer flash.Stop()
	recommend := time.NewTicker(w.cfg.RecommendInterval)
	defer recommend.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logg.Info(ctx, "sale worker context canceled")
			return ctx.Err()
		case <-flash.C:
			if err := w.runFlash(ctx); err != nil {
				w.logg.Error(ctx, "flash sale cycle failed", err)
			}
		case <-recommend.C:
			if !w.cfg.RecommendationEnabled {
				continue
			}
			if err := w.runRecommendation(ctx); err != nil {
				w.logg.Error(ctx, "recommendation sale cycle failed", err)
			}
		}
	}
}

func (w *Worker) runFlash(ctx context.Context) error {
	return w.runJob(ctx, flashJobName, func(ctx context.Context) (bool, error) {
		if w.rng.Float64() >= w.cfg.FlashProbability {
			return false, nil
		}

		products, err := w.catalog.List(ctx)
		if err != nil {
			return false, fmt.Errorf("list catalog: %w", err)
		}
		pick := PickFlashProduct(products, w.rng)
		if pick == nil {
			return false, nil
		}

		newPrice := FlashSalePrice(pick.Price)
		if err := w.catalog.MutatePrice(ctx, pick.ID, newPrice); err != nil {
			return false, fmt.Errorf("apply flash price: %w", err)
		}

		jobCtx := w.logg.WithProductID(ctx, pick.ID)
		jobCtx = w.logg.WithField(jobCtx, "new_price", newPrice)
		w.logg.Info(jobCtx, "flash sale applied")
		return true, nil
	})
}

func (w *Worker) runRecommendation(ctx context.Context) error {
	return w.runJob(ctx, recommendJobName, func(ctx context.Context) (bool, error) {
		lastSelected, err := w.selected.LastSelected(ctx)
		if err != nil {
			return false, fmt.Errorf("read last selection: %w", err)
		}
		// no selection yet means nothing to recommend against
		if lastSelected == "" {
			return false, nil
		}

		products, err := w.catalog.List(ctx)
		if err != nil {
			return false, fmt.Errorf("list catalog: %w", err)
		}
		pick := PickRecommendation(products, lastSelected)
		if pick == nil {
			return false, nil
		}

		newPrice := RecommendationPrice(pick.Price)
		if err := w.catalog.MutatePrice(ctx, pick.ID, newPrice); err != nil {
			return false, fmt.Errorf("apply recommendation price: %w", err)
		}

		jobCtx := w.logg.WithProductID(ctx, pick.ID)
		jobCtx = w.logg.WithField(jobCtx, "new_price", newPrice)
		w.logg.Info(jobCtx, "recommendation sale applied")
		return true, nil
	})
}

// runJob serializes a cycle behind the shared lock and records job metrics.
// A cycle that applies nothing counts as skipped, not failed.
func (w *Worker) runJob(ctx context.Context, name string, fn func(ctx context.Context) (bool, error)) error {
	locked, err := w.lock.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("lock acquire: %w", err)
	}
	if !locked {
		w.logg.Info(ctx, "another sale worker holds the lock; skipping cycle")
		w.recordSkipped(name)
		return nil
	}
	defer func() {
		if relErr := w.lock.Release(ctx); relErr != nil {
			w.logg.Error(ctx, "failed to release sale lock", relErr)
		}
	}()

	jobCtx := w.logg.WithField(ctx, "job", name)
	start := time.Now()
	applied, err := fn(jobCtx)
	w.observeDuration(name, time.Since(start))
	if err != nil {
		w.recordFailure(name)
		return err
	}
	if !applied {
		w.recordSkipped(name)
		return nil
	}
	w.recordSuccess(name)
	return nil
}

func (w *Worker) observeDuration(job string, duration time.Duration) {
	if w.metrics == nil {
		return
	}
	w.metrics.ObserveDuration(job, duration)
}

func (w *Worker) recordSuccess(job string) {
	if w.metrics == nil {
		return
	}
	w.metrics.IncSuccess(job)
}

func (w *Worker) recordFailure(job string) {
	if w.metrics == nil {
		return
	}
	w.metrics.IncFailure(job)
}

func (w *Worker) recordSkipped(job string) {
	if w.metrics == nil {
		return
	}
	w.metrics.IncSkipped(job)
}
