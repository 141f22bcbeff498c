package demo

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mappool/mappool/pkg/config"
	"github.com/mappool/mappool/pkg/errors"
	"github.com/mappool/mappool/pkg/logger"
	"github.com/mappool/mappool/pkg/metrics"
	"github.com/mappool/mappool/pkg/pool"
)

// StressResult summarizes a stress run.
type StressResult struct {
	Workers      int           `json:"workers"`
	Objects      int           `json:"objects"`
	Hits         int           `json:"hits"`
	Misses       int           `json:"misses"`
	Drained      int           `json:"drained"`
	Freed        int64         `json:"freed"`
	Duration     time.Duration `json:"duration"`
	OpsPerSecond float64       `json:"ops_per_second"`
	Stats        pool.Stats    `json:"stats"`
}

// RunStress has cfg.Workers goroutines put cfg.Objects handles into p,
// spread over all object types, each put followed by a get of the same key.
// Leftover handles are drained afterwards. The run fails unless every handle
// put was got exactly once and every object was freed.
func RunStress(ctx context.Context, p pool.Keyed[ObjectType, Object], cfg config.StressConfig, tr *Tracker, tp *metrics.ThroughputTracker) (*StressResult, error) {
	workers := cfg.GetWorkers()
	log := logger.WithContext(ctx).With(zap.String("driver", "stress"), zap.Int("workers", workers))

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	firstID := tr.nextID.Load() + 1
	liveBefore := tr.Live()
	freedBefore := tr.Freed()

	timer := metrics.NewTimer("stress")
	seen := make([][]int64, workers)
	hits := make([]int, workers)
	misses := make([]int, workers)

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		share := cfg.Objects / workers
		if w < cfg.Objects%workers {
			share++
		}
		g.Go(func() error {
			for i := 0; i < share; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				t := ObjectTypes[(w+i)%len(ObjectTypes)]
				ref, err := tr.New(t)
				if err != nil {
					return err
				}
				if err := p.Put(t, ref); err != nil {
					return err
				}
				got, ok := p.Get(t)
				if ok {
					seen[w] = append(seen[w], got.Value().ID())
					got.Release()
					hits[w]++
				} else {
					misses[w]++
				}
				if tp != nil {
					tp.Increment(2)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "stress workers failed")
	}

	result := &StressResult{Workers: workers, Objects: cfg.Objects}
	var ids []int64
	for w := 0; w < workers; w++ {
		ids = append(ids, seen[w]...)
		result.Hits += hits[w]
		result.Misses += misses[w]
	}
	for _, t := range ObjectTypes {
		for {
			ref, ok := p.Get(t)
			if !ok {
				break
			}
			ids = append(ids, ref.Value().ID())
			ref.Release()
			result.Drained++
		}
	}

	result.Duration = timer.Stop()
	if tp != nil {
		result.OpsPerSecond = tp.GetAndReset()
	}
	result.Stats = p.Stats()
	result.Freed = tr.Freed() - freedBefore

	if err := checkMultiset(ids, firstID, cfg.Objects); err != nil {
		return result, err
	}
	if live := tr.Live() - liveBefore; live != 0 {
		return result, errors.New(errors.ErrorTypeInternal, "objects not freed").
			WithDetail("live", live)
	}

	log.Info("stress run complete",
		zap.Int("objects", result.Objects),
		zap.Int("hits", result.Hits),
		zap.Int("misses", result.Misses),
		zap.Int("drained", result.Drained),
		zap.Duration("duration", result.Duration))
	return result, nil
}

// checkMultiset verifies ids holds each of first..first+n-1 exactly once.
// Tracker IDs are dense.
func checkMultiset(ids []int64, first int64, n int) error {
	if len(ids) != n {
		return errors.New(errors.ErrorTypeInternal, "handle count mismatch").
			WithDetail("want", n).
			WithDetail("got", len(ids))
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for i, id := range ids {
		if id != first+int64(i) {
			return errors.New(errors.ErrorTypeInternal, "handle lost or duplicated").
				WithDetail("position", i).
				WithDetail("id", id)
		}
	}
	return nil
}
