// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package commandline

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/gomlx/ppim/pkg/compiler"
	"github.com/muesli/termenv"
	"github.com/schollz/progressbar/v3"
	"k8s.io/klog/v2"
)

// ProgressbarStyle to use. Defaults to the ASCII version.
var ProgressbarStyle = progressbar.ThemeASCII

// BatchProgress displays the progress of a batch compilation.
//
// On a terminal it shows a progress bar, otherwise it logs one line per job.
type BatchProgress struct {
	mu       sync.Mutex
	total    int
	finished int
	failed   int
	bar      *progressbar.ProgressBar
	termenv  *termenv.Output
}

// IsTerminal returns whether w is a terminal that supports escape sequences.
func IsTerminal(w io.Writer) bool {
	return termenv.NewOutput(w).Profile != termenv.Ascii
}

// NewBatchProgress creates the progress display for total jobs, written to os.Stderr.
func NewBatchProgress(total int) *BatchProgress {
	p := &BatchProgress{total: total}
	if !IsTerminal(os.Stderr) {
		return p
	}
	p.termenv = termenv.NewOutput(os.Stderr)
	p.termenv.HideCursor()
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetDescription("compiling"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("jobs"),
		progressbar.OptionShowIts(),
		progressbar.OptionSetTheme(ProgressbarStyle),
		progressbar.OptionOnCompletion(func() { _, _ = fmt.Fprintln(os.Stderr) }),
	)
	return p
}

// OnDone should be called when a job finishes. It is safe for concurrent use, and it
// can be passed directly to compiler.Compiler.CompileBatch.
func (p *BatchProgress) OnDone(result compiler.BatchResult) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.finished++
	if result.Err != nil {
		p.failed++
	}
	if p.bar != nil {
		if p.failed > 0 {
			p.bar.Describe(fmt.Sprintf("compiling (%d failed)", p.failed))
		}
		_ = p.bar.Add(1)
		return
	}
	if result.Err != nil {
		klog.Infof("[%d/%d] %s: failed", p.finished, p.total, result.Job.Name)
	} else {
		klog.Infof("[%d/%d] %s: %d instructions", p.finished, p.total, result.Job.Name, result.Program.Len())
	}
}

// Finish closes the progress display and returns the number of failed jobs.
func (p *BatchProgress) Finish() (failed int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		_ = p.bar.Finish()
		p.termenv.ShowCursor()
	}
	return p.failed
}
