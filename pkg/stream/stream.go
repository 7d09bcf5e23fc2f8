// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package stream serializes pPIM programs to their textual artifact, and reads them back.
//
// The artifact has a two-line header documenting the word format, followed by one line per
// instruction: the 24-digit binary word, two spaces, and a comment classifying the instruction:
//
//	// pPIM Instruction Stream
//	// 24-bit format: [2 op][6 ptr][1 rd][1 wr][8 addr][6 reserved]
//	010000000000000000000000  // PROG core 0
//	000000000000000000000000  // NOP
//	...
//	110000000000000000000000  // END
package stream

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gomlx/ppim/pkg/compiler"
	"github.com/gomlx/ppim/pkg/core/isa"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// HeaderLines documenting the format, written before the instructions.
var HeaderLines = [2]string{
	"// pPIM Instruction Stream",
	"// 24-bit format: [2 op][6 ptr][1 rd][1 wr][8 addr][6 reserved]",
}

// Separator between the word and its comment.
const Separator = "  "

// CommentPrefix of the classification comment of each instruction line.
const CommentPrefix = "// "

// Line renders one instruction line, without the trailing newline.
func Line(w isa.Word, inst isa.Instruction) string {
	return w.String() + Separator + CommentPrefix + inst.Comment()
}

// Write the program's artifact to w.
func Write(w io.Writer, p *compiler.Program) error {
	words, instructions := p.Words(), p.Instructions()
	if len(words) != len(instructions) {
		return errors.Errorf("%s has %d encoded words for %d instructions", p, len(words), len(instructions))
	}
	bw := bufio.NewWriter(w)
	for _, line := range HeaderLines {
		if _, err := bw.WriteString(line + "\n"); err != nil {
			return errors.Wrapf(err, "writing header of %s", p)
		}
	}
	for ii, inst := range instructions {
		if _, err := bw.WriteString(Line(words[ii], inst) + "\n"); err != nil {
			return errors.Wrapf(err, "writing instruction #%d of %s", ii, p)
		}
	}
	if err := bw.Flush(); err != nil {
		return errors.Wrapf(err, "writing %s", p)
	}
	return nil
}

// Bytes returns the program's artifact.
func Bytes(p *compiler.Program) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, p); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// stagedFile is an artifact written to a temporary file in the directory of its final path.
type stagedFile struct {
	path, tmpPath string
}

// stage writes the artifact of p to a temporary file next to path.
func stage(path string, p *compiler.Program) (*stagedFile, error) {
	contents, err := Bytes(p)
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(path)
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return nil, errors.Wrapf(err, "creating temporary file in %q", dir)
	}
	s := &stagedFile{path: path, tmpPath: f.Name()}
	if _, err = f.Write(contents); err != nil {
		_ = f.Close()
		s.discard()
		return nil, errors.Wrapf(err, "writing %q", s.tmpPath)
	}
	if err = f.Close(); err != nil {
		s.discard()
		return nil, errors.Wrapf(err, "closing %q", s.tmpPath)
	}
	if err = os.Chmod(s.tmpPath, 0o644); err != nil {
		s.discard()
		return nil, errors.Wrapf(err, "setting permissions of %q", s.tmpPath)
	}
	return s, nil
}

// commit renames the temporary file to its final path.
func (s *stagedFile) commit() error {
	if err := os.Rename(s.tmpPath, s.path); err != nil {
		return errors.Wrapf(err, "renaming %q to %q", s.tmpPath, s.path)
	}
	s.tmpPath = ""
	return nil
}

// discard removes the temporary file, if not yet committed.
func (s *stagedFile) discard() {
	if s.tmpPath != "" {
		_ = os.Remove(s.tmpPath)
		s.tmpPath = ""
	}
}

// WriteFile writes the program's artifact to path.
//
// The contents are written to a temporary file in the same directory, which is then renamed to path,
// so either the complete artifact is stored or nothing is.
func WriteFile(path string, p *compiler.Program) error {
	s, err := stage(path, p)
	if err != nil {
		return err
	}
	if err = s.commit(); err != nil {
		s.discard()
		return err
	}
	klog.V(1).Infof("wrote %d instructions of %s to %q", p.Len(), p, path)
	return nil
}

// WriteFiles writes the artifact of programs[i] to paths[i].
//
// All artifacts are first written to temporary files, and only once every one of them succeeded
// they are renamed to their paths: if writing any artifact fails, none of the paths is touched.
// Renaming is the only step that can still fail after that, in which case the artifacts not
// yet renamed are removed and the error lists the paths already written.
func WriteFiles(paths []string, programs []*compiler.Program) error {
	if len(paths) != len(programs) {
		return errors.Errorf("WriteFiles got %d paths for %d programs", len(paths), len(programs))
	}
	staged := make([]*stagedFile, 0, len(paths))
	defer func() {
		for _, s := range staged {
			s.discard()
		}
	}()
	for ii, path := range paths {
		s, err := stage(path, programs[ii])
		if err != nil {
			return errors.WithMessagef(err, "nothing written, artifact of %s failed", programs[ii])
		}
		staged = append(staged, s)
	}
	for ii, s := range staged {
		if err := s.commit(); err != nil {
			return errors.WithMessagef(err, "artifacts already written: %q", paths[:ii])
		}
		klog.V(1).Infof("wrote %d instructions of %s to %q", programs[ii].Len(), programs[ii], s.path)
	}
	return nil
}

// Read parses an artifact written by Write, returning the decoded words and the instructions.
//
// The row addresses of the instructions are the encoded (local) ones. Each line's comment must
// match the decoded instruction.
func Read(r io.Reader) ([]isa.Word, []isa.Instruction, error) {
	scanner := bufio.NewScanner(r)
	var (
		lineNum      int
		words        []isa.Word
		instructions []isa.Instruction
	)
	for scanner.Scan() {
		line := scanner.Text()
		lineNum++
		if lineNum <= len(HeaderLines) {
			if line != HeaderLines[lineNum-1] {
				return nil, nil, errors.Errorf("line %d: invalid header %q, expected %q", lineNum, line, HeaderLines[lineNum-1])
			}
			continue
		}
		wordStr, comment, found := strings.Cut(line, Separator)
		if !found {
			return nil, nil, errors.Errorf("line %d: missing separator in %q", lineNum, line)
		}
		w, err := isa.ParseWord(wordStr)
		if err != nil {
			return nil, nil, errors.WithMessagef(err, "line %d", lineNum)
		}
		inst, err := isa.Decode(w)
		if err != nil {
			return nil, nil, errors.WithMessagef(err, "line %d", lineNum)
		}
		if want := CommentPrefix + inst.Comment(); comment != want {
			return nil, nil, errors.Errorf("line %d: comment %q doesn't match instruction %s, expected %q",
				lineNum, comment, inst, want)
		}
		words = append(words, w)
		instructions = append(instructions, inst)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, errors.Wrapf(err, "reading instruction stream")
	}
	if lineNum < len(HeaderLines) {
		return nil, nil, errors.Errorf("instruction stream is missing the header, only %d lines read", lineNum)
	}
	return words, instructions, nil
}

// ReadFile is like Read, but reads from the file in path.
func ReadFile(path string) ([]isa.Word, []isa.Instruction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "opening instruction stream %q", path)
	}
	defer func() { _ = f.Close() }()
	words, instructions, err := Read(f)
	if err != nil {
		return nil, nil, errors.WithMessagef(err, "reading %q", path)
	}
	return words, instructions, nil
}
