// Copyright 2020 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package parallel

import (
	"context"
	"runtime"

	"github.com/gorse-io/knn/common/log"
	"github.com/juju/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Parallel runs worker for every job in [0, nJobs) using at most nWorkers goroutines.
// Jobs are split into contiguous chunks, one per worker, so a worker that owns
// rows [begin, end) is the only writer of those rows. The first error cancels
// outstanding chunks and is returned.
func Parallel(ctx context.Context, nJobs, nWorkers int, worker func(workerId, jobId int) error) error {
	if nWorkers <= 1 || nJobs <= 1 {
		for i := 0; i < nJobs; i++ {
			if err := ctx.Err(); err != nil {
				return errors.Trace(err)
			}
			if err := worker(0, i); err != nil {
				return errors.Trace(err)
			}
		}
		return nil
	}
	chunks := Split(nJobs, nWorkers)
	g, gCtx := errgroup.WithContext(ctx)
	for workerId, chunk := range chunks {
		workerId, chunk := workerId, chunk
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					log.Logger().Error("panic recovered", zap.Any("panic", r), zap.Int("worker_id", workerId))
					err = errors.Errorf("worker %d panicked: %v", workerId, r)
				}
			}()
			for jobId := chunk[0]; jobId < chunk[1]; jobId++ {
				if err := gCtx.Err(); err != nil {
					return err
				}
				if err := worker(workerId, jobId); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return errors.Trace(g.Wait())
}

// Split divides [0, n) into at most k contiguous ranges of nearly equal size.
// Earlier ranges get the remainder.
func Split(n, k int) [][2]int {
	if n <= 0 {
		return nil
	}
	if k > n {
		k = n
	}
	if k < 1 {
		k = 1
	}
	size, rest := n/k, n%k
	ranges := make([][2]int, k)
	for i, begin := 0, 0; i < k; i++ {
		end := begin + size
		if i < rest {
			end++
		}
		ranges[i] = [2]int{begin, end}
		begin = end
	}
	return ranges
}

// Jobs returns n if positive, otherwise the number of CPUs.
func Jobs(n int) int {
	if n > 0 {
		return n
	}
	return runtime.NumCPU()
}
