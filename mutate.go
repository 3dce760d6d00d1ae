package main

import (
	"fmt"
	"os"
	"strings"
)

// LineWriter is the only way task changes reach the backing file.
// Line numbers are 1-indexed.
type LineWriter interface {
	ReplaceLine(lineNumber int, content string) error
	DeleteLines(lineNumbers []int) error
	AppendLine(content string) (int, error)
}

// FileMutator rewrites a todo file on disk. Each call re-reads the file,
// so changes made by earlier calls are visible to later ones. Nothing
// protects against another process writing between the read and the
// write.
type FileMutator struct {
	Path string
}

// NewFileMutator returns a mutator for the file at path
func NewFileMutator(path string) *FileMutator {
	return &FileMutator{Path: path}
}

// fileLines holds a file split into lines plus the terminator that
// followed each one, so untouched lines are written back byte for byte.
// The last line's terminator is empty when the file has no trailing
// newline.
type fileLines struct {
	lines []string
	ends  []string
	sep   string // most common terminator, used for new lines
}

func splitLines(content string) fileLines {
	var fl fileLines
	crlf := 0

	for content != "" {
		i := strings.IndexByte(content, '\n')
		if i < 0 {
			fl.lines = append(fl.lines, content)
			fl.ends = append(fl.ends, "")
			break
		}

		line, end := content[:i], "\n"
		if strings.HasSuffix(line, "\r") {
			line, end = line[:len(line)-1], "\r\n"
			crlf++
		}

		fl.lines = append(fl.lines, line)
		fl.ends = append(fl.ends, end)
		content = content[i+1:]
	}

	fl.sep = "\n"
	if lf := len(fl.ends) - crlf - fl.openEnded(); crlf > lf {
		fl.sep = "\r\n"
	}

	return fl
}

// openEnded is 1 when the last line has no terminator
func (fl fileLines) openEnded() int {
	if n := len(fl.ends); n > 0 && fl.ends[n-1] == "" {
		return 1
	}
	return 0
}

func (fl fileLines) trailing() bool {
	return len(fl.lines) > 0 && fl.openEnded() == 0
}

func (fl fileLines) String() string {
	var b strings.Builder

	for i, line := range fl.lines {
		b.WriteString(line)
		b.WriteString(fl.ends[i])
	}

	return b.String()
}

// readLines returns the lines of the file at path without separators
func readLines(path string) ([]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return splitLines(string(content)).lines, nil
}

func (m *FileMutator) read() (fileLines, os.FileMode, error) {
	info, err := os.Stat(m.Path)
	if err != nil {
		return fileLines{}, 0, err
	}

	content, err := os.ReadFile(m.Path)
	if err != nil {
		return fileLines{}, 0, err
	}

	return splitLines(string(content)), info.Mode().Perm(), nil
}

// write replaces the file through a temp file and rename so a failed
// write never leaves a half-written todo file behind.
func (m *FileMutator) write(fl fileLines, mode os.FileMode) error {
	tempPath := m.Path + ".tmp"

	if err := os.WriteFile(tempPath, []byte(fl.String()), mode); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("write %s: %w", m.Path, err)
	}

	if err := os.Rename(tempPath, m.Path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("write %s: %w", m.Path, err)
	}

	return nil
}

// ReplaceLine overwrites one line. A line number outside the file leaves
// the content as it was, although the file is still rewritten.
func (m *FileMutator) ReplaceLine(lineNumber int, content string) error {
	fl, mode, err := m.read()
	if err != nil {
		return err
	}

	if lineNumber > 0 && lineNumber <= len(fl.lines) {
		fl.lines[lineNumber-1] = content
	}

	return m.write(fl, mode)
}

// DeleteLines drops every listed line and keeps the rest in order.
// Numbers outside the file are ignored.
func (m *FileMutator) DeleteLines(lineNumbers []int) error {
	fl, mode, err := m.read()
	if err != nil {
		return err
	}

	drop := make(map[int]bool, len(lineNumbers))
	for _, n := range lineNumbers {
		drop[n] = true
	}

	openEnded := fl.openEnded() == 1
	kept := fileLines{sep: fl.sep}

	for i, line := range fl.lines {
		if !drop[i+1] {
			kept.lines = append(kept.lines, line)
			kept.ends = append(kept.ends, fl.ends[i])
		}
	}

	// A file without a trailing newline keeps ending without one.
	if n := len(kept.ends); n > 0 && openEnded {
		kept.ends[n-1] = ""
	}

	return m.write(kept, mode)
}

// AppendLine adds content as the last line without touching existing
// lines and returns the new line's number.
func (m *FileMutator) AppendLine(content string) (int, error) {
	fl, _, err := m.read()
	if err != nil {
		return 0, err
	}

	f, err := os.OpenFile(m.Path, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		return 0, err
	}

	data := content + fl.sep
	if len(fl.lines) > 0 && !fl.trailing() {
		data = fl.sep + data
	}

	if _, err := f.WriteString(data); err != nil {
		f.Close()
		return 0, fmt.Errorf("append to %s: %w", m.Path, err)
	}

	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("append to %s: %w", m.Path, err)
	}

	return len(fl.lines) + 1, nil
}
