// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package commandline

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/gomlx/ppim/pkg/compiler"
	"github.com/gomlx/ppim/pkg/core/isa"
	"github.com/gomlx/ppim/pkg/core/layout"
	"github.com/pkg/errors"
)

// bytesPerWord is the storage of one 24-bit instruction word.
const bytesPerWord = isa.WordBits / 8

func humanizeInt(n int) string { return humanize.Comma(int64(n)) }

func percentage(n, total int) string {
	if total == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", 100*float64(n)/float64(total))
}

// SprintProgram returns the report of a compiled program: a summary, the layouts of the matrices and
// instruction histograms per opcode and per core.
func SprintProgram(p *compiler.Program) string {
	var parts []string
	name := p.Name()
	if name == "" {
		name = "program"
	}
	stats := p.Stats()
	topology := p.Topology()

	parts = append(parts, titleStyle.Render(fmt.Sprintf("Summary: %s", name)))
	summary := newTable(nil, lipgloss.Right, lipgloss.Left)
	summary.Row(false, "matmul", p.Dims().String())
	summary.Row(false, "element type", p.Dims().DType.String())
	summary.Row(false, "topology", SprintTopologySettings(topology))
	summary.Row(false, "cross-core policy", p.CrossCorePolicy().String())
	summary.Row(false, "# instructions", humanizeInt(p.Len()))
	summary.Row(false, "stream size", humanize.Bytes(uint64(p.Len()*bytesPerWord)))
	summary.Row(false, "matrices memory", humanize.Bytes(uint64(p.Memory())))
	summary.Row(stats.CrossCoreReads > 0, "cross-core reads",
		fmt.Sprintf("%s (%s of loads)", humanizeInt(stats.CrossCoreReads), percentage(stats.CrossCoreReads, stats.Loads)))
	summary.Row(stats.LUTRowAliases > 0, "LUT row aliases", humanizeInt(stats.LUTRowAliases))
	parts = append(parts, summary.Table.Render())

	parts = append(parts, titleStyle.Render("Layout"))
	layouts := newTable([]string{"Matrix", "Shape", "Base", "End", "Bytes"}, lipgloss.Left, lipgloss.Right)
	a, b, c := p.Layouts()
	for _, l := range []*layout.Layout{a, b, c} {
		layouts.Row(false, l.Name(), l.Shape().String(), fmt.Sprintf("0x%x", l.Base()), fmt.Sprintf("0x%x", l.End()),
			humanizeInt(l.Footprint()))
	}
	parts = append(parts, layouts.Table.Render())

	parts = append(parts, titleStyle.Render("Instructions"))
	opcodes := newTable([]string{"Opcode", "Count", "Share"}, lipgloss.Left, lipgloss.Right)
	for _, op := range isa.OpcodeValues() {
		count := stats.OpcodeCounts[op]
		opcodes.Row(false, op.String(), humanizeInt(count), percentage(count, p.Len()))
	}
	opcodes.Row(false, "EXE read", humanizeInt(stats.Loads), percentage(stats.Loads, p.Len()))
	opcodes.Row(false, "EXE write", humanizeInt(stats.WriteBacks), percentage(stats.WriteBacks, p.Len()))
	opcodes.Row(false, "EXE compute", humanizeInt(stats.Computes), percentage(stats.Computes, p.Len()))
	parts = append(parts, opcodes.Table.Render())

	parts = append(parts, titleStyle.Render("Cores"))
	cores := newTable([]string{"Core", "EXE", "Share"}, lipgloss.Right)
	exeCount := stats.OpcodeCounts[isa.EXE]
	for core, count := range stats.CoreCounts {
		cores.Row(count == 0, fmt.Sprintf("%d", core), humanizeInt(count), percentage(count, exeCount))
	}
	parts = append(parts, cores.Table.Render())
	return strings.Join(parts, "\n") + "\n"
}

// ReportProgram writes SprintProgram(p) to w.
func ReportProgram(w io.Writer, p *compiler.Program) error {
	if _, err := io.WriteString(w, SprintProgram(p)); err != nil {
		return errors.Wrapf(err, "writing report of %s", p)
	}
	return nil
}

// SprintBatch returns a table with one row per job, failed jobs highlighted.
func SprintBatch(results []compiler.BatchResult) string {
	table := newTable([]string{"Job", "Matmul", "Instructions", "Cross-core reads", "Status"},
		lipgloss.Left, lipgloss.Left, lipgloss.Right, lipgloss.Right, lipgloss.Left)
	var failed int
	for _, r := range results {
		if r.Err != nil {
			failed++
			table.Row(true, r.Job.Name, r.Job.Dims.String(), "-", "-", r.Err.Error())
			continue
		}
		table.Row(false, r.Job.Name, r.Job.Dims.String(), humanizeInt(r.Program.Len()),
			humanizeInt(r.Program.Stats().CrossCoreReads), "ok")
	}
	title := titleStyle.Render(fmt.Sprintf("Batch: %s compiled, %s failed",
		humanizeInt(len(results)-failed), humanizeInt(failed)))
	return title + "\n" + table.Table.Render() + "\n"
}
