package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
)

// ErrEmptyTask is returned when add is called without any text
var ErrEmptyTask = errors.New("task text is empty")

// Action names what happened to a task
type Action string

const (
	ActionAdded     Action = "adding"
	ActionDone      Action = "done"
	ActionUnchecked Action = "unchecked"
	ActionRemoved   Action = "removed"
)

// Change pairs a task with the action applied to it
type Change struct {
	Action Action
	Task   *Task
}

// Decision is the answer to "delete this task?"
type Decision int

const (
	Skip Decision = iota
	Delete
	DeleteRest // delete this and every remaining task without asking
)

// DecideFunc is asked once per task selected for removal
type DecideFunc func(task *Task) (Decision, error)

// Store holds the tasks of one todo file for the length of a command
type Store struct {
	Path    string
	Dialect Dialect

	tasks  []*Task
	writer LineWriter
	logger *log.Logger
}

// StoreOption configures a Store
type StoreOption func(*Store)

// WithLogger sets the logger used for per-id warnings
func WithLogger(logger *log.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithWriter replaces the file mutator
func WithWriter(w LineWriter) StoreOption {
	return func(s *Store) {
		s.writer = w
	}
}

// NewStore wraps already parsed tasks
func NewStore(path string, d Dialect, tasks []*Task, opts ...StoreOption) *Store {
	s := &Store{
		Path:    path,
		Dialect: d,
		tasks:   tasks,
		writer:  NewFileMutator(path),
		logger:  log.New(io.Discard),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Load reads and parses the todo file at path
func Load(path string, d Dialect, opts ...StoreOption) (*Store, error) {
	tasks, err := parseFile(path, d)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	return NewStore(path, d, tasks, opts...), nil
}

// List returns the tasks in file order
func (s *Store) List() []*Task {
	return s.tasks
}

// Len returns the number of tasks
func (s *Store) Len() int {
	return len(s.tasks)
}

// lookup returns the task for an id, warning when it is out of range
func (s *Store) lookup(id int) (*Task, bool) {
	if id < 1 || id > len(s.tasks) {
		s.logger.Warn(fmt.Sprintf("argument %d is out of range", id), "tasks", len(s.tasks))
		return nil, false
	}

	return s.tasks[id-1], true
}

// Add appends a new open task built from words. Dates, tags and mentions
// in the text are picked up exactly as they would be from the file.
func (s *Store) Add(words []string) (*Task, error) {
	text := strings.TrimSpace(strings.Join(words, " "))
	if text == "" {
		return nil, ErrEmptyTask
	}

	parsed, err := parseLines([]string{s.Dialect.OpenMarker + " " + text}, s.Dialect)
	if err != nil {
		var perr *ParseError
		if errors.As(err, &perr) {
			return nil, perr.Err
		}
		return nil, err
	}

	if len(parsed) == 0 {
		return nil, fmt.Errorf("unable to convert %q into a task", text)
	}

	task := parsed[0]
	task.ID = len(s.tasks) + 1

	line, err := s.writer.AppendLine(task.Format(s.Dialect))
	if err != nil {
		return nil, err
	}

	task.Line = line
	s.tasks = append(s.tasks, task)

	return task, nil
}

// Complete checks off the given ids. Tasks that are already done are
// unchecked instead, after all check-offs are written.
func (s *Store) Complete(ids []int) ([]Change, error) {
	var checkOff []*Task
	var uncheck []int

	for _, id := range uniqueIDs(ids) {
		task, ok := s.lookup(id)
		if !ok {
			continue
		}

		if task.Done {
			uncheck = append(uncheck, id)
		} else {
			checkOff = append(checkOff, task)
		}
	}

	var changes []Change

	for _, task := range checkOff {
		if err := s.setDone(task, true); err != nil {
			return changes, err
		}
		changes = append(changes, Change{Action: ActionDone, Task: task})
	}

	if len(uncheck) > 0 {
		unchecked, err := s.Uncheck(uncheck)
		changes = append(changes, unchecked...)
		if err != nil {
			return changes, err
		}
	}

	return changes, nil
}

// Uncheck marks the given ids as not done
func (s *Store) Uncheck(ids []int) ([]Change, error) {
	var changes []Change

	for _, id := range uniqueIDs(ids) {
		task, ok := s.lookup(id)
		if !ok {
			continue
		}

		if err := s.setDone(task, false); err != nil {
			return changes, err
		}
		changes = append(changes, Change{Action: ActionUnchecked, Task: task})
	}

	return changes, nil
}

func (s *Store) setDone(task *Task, done bool) error {
	was := task.Done
	task.Done = done

	if err := s.writer.ReplaceLine(task.Line, task.Format(s.Dialect)); err != nil {
		task.Done = was
		return err
	}

	s.logger.Debug("rewrote task", "id", task.ID, "line", task.Line, "done", done)
	return nil
}

// Remove asks decide about every task matching ids and deletes the
// confirmed ones with a single rewrite. Remaining tasks are renumbered the
// way a fresh parse of the file would number them.
func (s *Store) Remove(ids []int, decide DecideFunc) ([]*Task, error) {
	wanted := make(map[int]bool)
	for _, id := range uniqueIDs(ids) {
		if _, ok := s.lookup(id); ok {
			wanted[id] = true
		}
	}

	var removed []*Task
	var lines []int
	deleteRest := false

	for _, task := range s.tasks {
		if !wanted[task.ID] {
			continue
		}

		if !deleteRest {
			decision, err := decide(task)
			if err != nil {
				return nil, err
			}

			switch decision {
			case Skip:
				continue
			case DeleteRest:
				deleteRest = true
			}
		}

		removed = append(removed, task)
		lines = append(lines, task.Line)
	}

	// Nothing confirmed: the file is left untouched, not rewritten.
	if len(lines) == 0 {
		return nil, nil
	}

	if err := s.writer.DeleteLines(lines); err != nil {
		return nil, err
	}

	s.forget(removed)
	return removed, nil
}

// forget drops removed tasks and shifts ids and line numbers of the rest
func (s *Store) forget(removed []*Task) {
	gone := make(map[*Task]bool, len(removed))
	for _, task := range removed {
		gone[task] = true
	}

	kept := make([]*Task, 0, len(s.tasks)-len(removed))
	shift := 0

	for _, task := range s.tasks {
		if gone[task] {
			shift++
			continue
		}

		task.Line -= shift
		task.ID = len(kept) + 1
		kept = append(kept, task)
	}

	s.tasks = kept
}

func uniqueIDs(ids []int) []int {
	seen := make(map[int]bool, len(ids))
	out := make([]int, 0, len(ids))

	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}

	return out
}
