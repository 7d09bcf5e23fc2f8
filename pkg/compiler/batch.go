// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package compiler

import (
	"context"

	"github.com/gomlx/ppim/internal/workerspool"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Job is one compilation of a batch.
type Job struct {
	Name string
	Dims MatmulDims
}

// BatchResult holds the outcome of a Job: either Program or Err is set.
type BatchResult struct {
	Job     Job
	Program *Program
	Err     error
}

// CompileBatch compiles the jobs concurrently, running at most parallelism of them at a time
// (0 compiles them sequentially, -1 means no limit).
//
// Jobs not yet started when ctx is cancelled fail with ctx's error. onDone, if not nil, is called
// as each job finishes, possibly from different goroutines.
//
// Results are returned in the same order as jobs.
func (c *Compiler) CompileBatch(ctx context.Context, jobs []Job, parallelism int, onDone func(BatchResult)) []BatchResult {
	results := make([]BatchResult, len(jobs))
	pool := workerspool.New()
	pool.SetMaxParallelism(parallelism)
	for ii, job := range jobs {
		results[ii].Job = job
		if err := ctx.Err(); err != nil {
			results[ii].Err = errors.Wrapf(err, "job %q not started", job.Name)
			if onDone != nil {
				onDone(results[ii])
			}
			continue
		}
		pool.WaitToStart(func() {
			results[ii].Program, results[ii].Err = c.CompileNamed(job.Name, job.Dims)
			if results[ii].Err != nil {
				klog.V(1).Infof("job %q failed: %v", job.Name, results[ii].Err)
			}
			if onDone != nil {
				onDone(results[ii])
			}
		})
	}
	pool.Wait()
	return results
}
