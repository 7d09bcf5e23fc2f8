// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package toolchain prepares C++ sources and runs the external LLVM toolchain (clang++ and opt)
// to produce the optimized IR scanned by package irscan.
package toolchain

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

var (
	includeRegexp   = regexp.MustCompile(`#\s*include\s*["<][^">]+[">]`)
	usingStdRegexp  = regexp.MustCompile(`using\s+namespace\s+std\s*;`)
	consoleIORegexp = regexp.MustCompile(`\b(std::)?(cout|cin)\b`)
)

// CleanSource removes what keeps the IR of a matmul kernel from being simple: includes,
// `using namespace std;`, and console I/O (`cout`/`cin` statements are commented out).
func CleanSource(src string) string {
	src = includeRegexp.ReplaceAllString(src, "")
	src = usingStdRegexp.ReplaceAllString(src, "")
	src = consoleIORegexp.ReplaceAllString(src, "//")
	return src
}

// withSuffix returns path with suffix inserted before its extension: "dir/x.cpp" -> "dir/x_suffix.cpp".
func withSuffix(path, suffix, ext string) string {
	base := strings.TrimSuffix(path, filepath.Ext(path))
	if ext == "" {
		ext = filepath.Ext(path)
	}
	return base + suffix + ext
}

// CleanFile writes the cleaned version of the source in path to "<name>_cleaned.<ext>" and returns its path.
func CleanFile(path string) (string, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrapf(err, "failed to read source %q", path)
	}
	cleanedPath := withSuffix(path, "_cleaned", "")
	if err := os.WriteFile(cleanedPath, []byte(CleanSource(string(contents))), 0o644); err != nil {
		return "", errors.Wrapf(err, "failed to write cleaned source %q", cleanedPath)
	}
	return cleanedPath, nil
}

// Toolchain holds the paths to the LLVM tools.
type Toolchain struct {
	// Clang is the C++ compiler, "clang++" by default.
	Clang string

	// Opt is the LLVM optimizer, "opt" by default.
	Opt string

	// OptLevel passed to opt, "-O3" by default.
	OptLevel string
}

// Default toolchain, found in the PATH.
func Default() Toolchain {
	return Toolchain{Clang: "clang++", Opt: "opt", OptLevel: "-O3"}
}

func run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	klog.V(1).Infof("running %s %s", name, strings.Join(args, " "))
	if err := cmd.Run(); err != nil {
		return errors.Wrapf(err, "%s %s failed: %s", name, strings.Join(args, " "), strings.TrimSpace(stderr.String()))
	}
	return nil
}

// EmitIR compiles the C++ source in path to LLVM IR text, "<name>.ll", and returns its path.
func (tc Toolchain) EmitIR(ctx context.Context, path string) (string, error) {
	irPath := withSuffix(path, "", ".ll")
	if err := run(ctx, tc.Clang, "-S", "-emit-llvm", path, "-o", irPath); err != nil {
		return "", err
	}
	return irPath, nil
}

// Optimize runs opt over the IR in irPath, writing "<name>_optimized.ll", and returns its path.
func (tc Toolchain) Optimize(ctx context.Context, irPath string) (string, error) {
	optimizedPath := withSuffix(irPath, "_optimized", ".ll")
	if err := run(ctx, tc.Opt, tc.OptLevel, "-S", irPath, "-o", optimizedPath); err != nil {
		return "", err
	}
	return optimizedPath, nil
}

// CompileSource cleans the C++ source in path, compiles it to IR and optimizes it.
// It returns the path to the optimized IR.
func (tc Toolchain) CompileSource(ctx context.Context, path string) (string, error) {
	cleanedPath, err := CleanFile(path)
	if err != nil {
		return "", err
	}
	irPath, err := tc.EmitIR(ctx, cleanedPath)
	if err != nil {
		return "", err
	}
	return tc.Optimize(ctx, irPath)
}
