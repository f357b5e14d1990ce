// pkg/bra/batch.go
// Copyright(c) 2025-2026 qbra contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package bra

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
)

// BuildObserver is called after each build of a batch with its result.
// It may be called concurrently.
type BuildObserver func(req Request, layer *Layer, err error, elapsed time.Duration)

// BuildAll builds the given requests concurrently, running at most
// parallelism builds at once (runtime.NumCPU() if parallelism <= 0). The
// returned layers are in the same order as reqs. The first failure
// cancels the builds that haven't started yet and is returned, annotated
// with the failing layer's name.
func BuildAll(ctx context.Context, reqs []Request, parallelism int) ([]*Layer, error) {
	return BuildAllObserved(ctx, reqs, parallelism, nil)
}

// BuildAllObserved is BuildAll, additionally reporting each completed
// build to obs if it is non-nil.
func BuildAllObserved(ctx context.Context, reqs []Request, parallelism int, obs BuildObserver) ([]*Layer, error) {
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}

	layers := make([]*Layer, len(reqs))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(parallelism)

	for i, req := range reqs {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			layer, err := req.Build()
			if obs != nil {
				obs(req, layer, err, time.Since(start))
			}
			if err != nil {
				return fmt.Errorf("%s: %w", req.LayerName(), err)
			}
			layers[i] = layer
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return layers, nil
}
