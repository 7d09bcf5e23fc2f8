// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// ppimc compiles the matrix multiplication found in LLVM IR (or C++) files into pPIM instruction streams.
//
// Usage:
//
//	ppimc [flags] <matmul.ll>...
//	ppimc -cpp [flags] <matmul.cpp>...
//	ppimc -dims=2x3,3x2 [flags]
//
// Each input produces one instruction stream file. If any input fails, no file is written.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gomlx/ppim/internal/toolchain"
	"github.com/gomlx/ppim/pkg/compiler"
	"github.com/gomlx/ppim/pkg/core/layout"
	"github.com/gomlx/ppim/pkg/irscan"
	"github.com/gomlx/ppim/pkg/stream"
	"github.com/gomlx/ppim/pkg/support/fsutil"
	"github.com/gomlx/ppim/ui/commandline"
	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

var (
	flagOutput = flag.String("o", "pPIM_full.bin",
		"Output file of the instruction stream, used when there is a single input.")
	flagOutputDir = flag.String("out_dir", "",
		"Output directory used when compiling more than one input: each input <name>.<ext> generates <name>.bin. "+
			"Defaults to the directory of each input.")
	flagDims = flag.String("dims", "",
		`Matrix shapes given directly, as "<A rows>x<A cols>,<B rows>x<B cols>" (e.g. "2x3,3x2"), instead of input files.`)
	flagCPP       = flag.Bool("cpp", false, "Inputs are C++ sources: clean them and compile them to optimized LLVM IR first.")
	flagClang     = flag.String("clang", "clang++", "C++ compiler used with -cpp.")
	flagOpt       = flag.String("opt", "opt", "LLVM optimizer used with -cpp.")
	flagCrossCore = flag.String("cross_core", compiler.CrossCoreShared.String(),
		`Policy for operands stored in a core different from the accumulator's: "shared" assumes the `+
			`accelerator makes them visible to all cores, "reject" fails the compilation.`)
	flagBase        = flag.Int("base", layout.DefaultBaseAddress, "Byte address of matrix A. B and C follow it.")
	flagReport      = flag.Bool("report", false, "Print a report of each compiled program.")
	flagParallelism = flag.Int("parallelism", runtime.NumCPU(),
		"Number of compilations to run in parallel. 0 runs them sequentially, -1 means no limit.")
	flagTopology = commandline.CreateTopologySettingsFlag("topology")
)

// input is one compilation request, tracked by a job id in the logs.
type input struct {
	id     string
	path   string
	output string
}

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	c, err := newCompiler()
	if err != nil {
		klog.Fatalf("Configuration: %+v", err)
	}

	var inputs []input
	var jobs []compiler.Job
	if *flagDims != "" {
		if flag.NArg() > 0 {
			klog.Fatalf("Use either -dims or input files, not both. See 'ppimc -help'.")
		}
		dims, err := parseDims(*flagDims)
		if err != nil {
			klog.Fatalf("Dimension extraction: %+v", err)
		}
		in := input{id: uuid.NewString(), path: *flagDims, output: *flagOutput}
		inputs = append(inputs, in)
		jobs = append(jobs, compiler.Job{Name: in.path, Dims: dims})
	} else {
		if flag.NArg() == 0 {
			klog.Errorf("Missing input files to compile. See 'ppimc -help'.")
			os.Exit(1)
		}
		for _, path := range flag.Args() {
			in := input{id: uuid.NewString(), path: path, output: outputPath(path, flag.NArg())}
			if err := checkInput(path); err != nil {
				klog.Fatalf("Dimension extraction of %q (job %s): %+v", path, in.id, err)
			}
			dims, err := extractDims(ctx, in)
			if err != nil {
				klog.Fatalf("Dimension extraction of %q (job %s): %+v", path, in.id, err)
			}
			inputs = append(inputs, in)
			jobs = append(jobs, compiler.Job{Name: path, Dims: dims})
		}
	}

	var onDone func(compiler.BatchResult)
	var progress *commandline.BatchProgress
	if len(jobs) > 1 {
		progress = commandline.NewBatchProgress(len(jobs))
		onDone = progress.OnDone
	}
	results := c.CompileBatch(ctx, jobs, *flagParallelism, onDone)
	var failed int
	if progress != nil {
		failed = progress.Finish()
	} else {
		for _, r := range results {
			if r.Err != nil {
				failed++
			}
		}
	}
	if failed > 0 {
		for ii, r := range results {
			if r.Err != nil {
				klog.Errorf("Compilation of %q (job %s): %+v", r.Job.Name, inputs[ii].id, r.Err)
			}
		}
		if len(results) > 1 {
			fmt.Print(commandline.SprintBatch(results))
		}
		klog.Errorf("%d of %d compilations failed, no instruction stream written.", failed, len(results))
		os.Exit(1)
	}

	if err := writeOutputs(inputs, results); err != nil {
		klog.Fatalf("Serialization: %+v", err)
	}
	for ii, r := range results {
		klog.Infof("Generated %d instructions for %s (job %s): %q", r.Program.Len(), r.Job.Dims, inputs[ii].id, inputs[ii].output)
		if *flagReport {
			must.M(commandline.ReportProgram(os.Stdout, r.Program))
		}
	}
	if *flagReport && len(results) > 1 {
		fmt.Print(commandline.SprintBatch(results))
	}
}

// checkInput returns an error if the input file doesn't exist or can't be checked.
func checkInput(path string) error {
	exists, err := fsutil.FileExists(path)
	if err != nil {
		return err
	}
	if !exists {
		return errors.Errorf("input file %q not found", path)
	}
	return nil
}

// writeOutputs writes the instruction stream of each successful result to its input's output path.
// Either all of them are written, or none is.
func writeOutputs(inputs []input, results []compiler.BatchResult) error {
	paths := make([]string, len(results))
	programs := make([]*compiler.Program, len(results))
	for ii, r := range results {
		output, err := fsutil.OutputFile(inputs[ii].output)
		if err != nil {
			return errors.WithMessagef(err, "output of %q (job %s)", inputs[ii].path, inputs[ii].id)
		}
		paths[ii], programs[ii] = output, r.Program
	}
	return stream.WriteFiles(paths, programs)
}

func newCompiler() (*compiler.Compiler, error) {
	topology := layout.DefaultTopology()
	if _, err := commandline.ParseTopologySettings(&topology, *flagTopology); err != nil {
		return nil, err
	}
	policy, err := compiler.ParseCrossCorePolicy(*flagCrossCore)
	if err != nil {
		return nil, err
	}
	return compiler.Build().
		Topology(topology).
		CrossCore(policy).
		BaseAddress(*flagBase).
		Done()
}

// outputPath returns where to write the instruction stream of the input in path.
func outputPath(path string, numInputs int) string {
	if numInputs == 1 {
		return *flagOutput
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + ".bin"
	if *flagOutputDir != "" {
		return filepath.Join(*flagOutputDir, name)
	}
	return filepath.Join(filepath.Dir(path), name)
}

// extractDims of the matrix multiplication of the input, compiling it first if it is C++.
func extractDims(ctx context.Context, in input) (compiler.MatmulDims, error) {
	irPath := in.path
	if *flagCPP {
		tc := toolchain.Default()
		tc.Clang, tc.Opt = *flagClang, *flagOpt
		var err error
		irPath, err = tc.CompileSource(ctx, in.path)
		if err != nil {
			return compiler.MatmulDims{}, err
		}
		klog.V(1).Infof("job %s: compiled and optimized %q to %q", in.id, in.path, irPath)
	}
	return irscan.ScanFile(irPath)
}

// parseDims parses "<rows>x<cols>,<rows>x<cols>".
func parseDims(s string) (compiler.MatmulDims, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return compiler.MatmulDims{}, errors.Wrapf(compiler.ErrDimensionExtraction,
			"-dims=%q must have 2 shapes separated by \",\"", s)
	}
	var shapes [2]layout.Shape
	for ii, part := range parts {
		rowsStr, colsStr, found := strings.Cut(strings.TrimSpace(part), "x")
		if !found {
			return compiler.MatmulDims{}, errors.Wrapf(compiler.ErrDimensionExtraction,
				"shape %q must have the format \"<rows>x<cols>\"", part)
		}
		rows, err := strconv.Atoi(rowsStr)
		if err != nil {
			return compiler.MatmulDims{}, errors.Wrapf(compiler.ErrDimensionExtraction, "rows of %q: %v", part, err)
		}
		cols, err := strconv.Atoi(colsStr)
		if err != nil {
			return compiler.MatmulDims{}, errors.Wrapf(compiler.ErrDimensionExtraction, "columns of %q: %v", part, err)
		}
		shapes[ii] = layout.Shape{Rows: rows, Cols: cols}
	}
	dims := compiler.MatmulDims{A: shapes[0], B: shapes[1]}
	return dims, dims.Validate()
}
