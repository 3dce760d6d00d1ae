package main

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

var (
	tagRe     = regexp.MustCompile(`#[\p{L}\p{N}_]+`)
	mentionRe = regexp.MustCompile(`@[\p{L}\p{N}_]+`)
)

// ErrInvalidDate is returned when a date token is not a calendar date
var ErrInvalidDate = errors.New("invalid due date")

// ParseError reports the line that stopped a parse
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Task represents a single task line from the todo file.
//
// ID is assigned in parse order and is only meaningful for the file
// snapshot it was parsed from: inserting or deleting lines renumbers
// every task after the edit.
type Task struct {
	ID       int        // 1-indexed position among tasks
	Line     int        // 1-indexed line number in the file
	Done     bool       // Is the task completed?
	Title    string     // Text left after markers and tokens are removed
	Due      *time.Time // First ISO date on the line (nil if none)
	Tags     []string   // #tags in order of appearance
	Mentions []string   // @mentions in order of appearance
}

// Toggle switches the task between done and not done
func (t *Task) Toggle() {
	t.Done = !t.Done
}

// Format renders the task back into a single line of the dialect.
// Only the first date on a line is read as the due date, so when the
// title itself carries a date the due date is written ahead of it.
func (t *Task) Format(d Dialect) string {
	parts := []string{d.Marker(t.Done)}

	var due string
	if t.Due != nil {
		due = t.Due.Format(dateLayout)
	}

	if due != "" && d.DateRe.MatchString(t.Title) {
		parts = append(parts, due)
		due = ""
	}

	if t.Title != "" {
		parts = append(parts, t.Title)
	}

	if due != "" {
		parts = append(parts, due)
	}

	parts = append(parts, t.Tags...)
	parts = append(parts, t.Mentions...)

	return strings.Join(parts, " ")
}

// parseLine turns a single task line into a Task. The caller has already
// checked the line against the dialect's task pattern.
func parseLine(line string, d Dialect) (*Task, error) {
	task := &Task{}
	rest := line

	if d.DoneRe.MatchString(line) {
		task.Done = true
		rest = d.DoneRe.ReplaceAllString(rest, "")
	} else {
		rest = d.TaskRe.ReplaceAllString(rest, "")
	}

	if loc := d.DateRe.FindStringSubmatchIndex(rest); loc != nil {
		token := rest[loc[2]:loc[3]]
		date, err := time.Parse(dateLayout, token)

		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidDate, token)
		}

		task.Due = &date
		rest = rest[:loc[0]] + " " + rest[loc[1]:]
	}

	task.Tags = tagRe.FindAllString(rest, -1)
	rest = tagRe.ReplaceAllString(rest, "")

	task.Mentions = mentionRe.FindAllString(rest, -1)
	rest = mentionRe.ReplaceAllString(rest, "")

	task.Title = strings.TrimSpace(rest)

	return task, nil
}

// parseLines extracts tasks from raw file lines. Lines that are not tasks
// are skipped but still count towards line numbers.
func parseLines(lines []string, d Dialect) ([]*Task, error) {
	var tasks []*Task

	for i, line := range lines {
		if !d.TaskRe.MatchString(line) {
			continue
		}

		task, err := parseLine(line, d)
		if err != nil {
			return nil, &ParseError{Line: i + 1, Err: err}
		}

		task.ID = len(tasks) + 1
		task.Line = i + 1
		tasks = append(tasks, task)
	}

	return tasks, nil
}

// parseFile extracts tasks from a todo file
func parseFile(path string, d Dialect) ([]*Task, error) {
	lines, err := readLines(path)
	if err != nil {
		return nil, err
	}

	return parseLines(lines, d)
}
