package main

import (
	"path/filepath"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
)

// FileChangeMsg is sent when the watched file changes
type FileChangeMsg struct {
	Path    string
	Deleted bool
}

// DebouncedRefreshMsg signals that enough time has passed to trigger a refresh
type DebouncedRefreshMsg struct{}

// WatchErrMsg carries an error reported by fsnotify
type WatchErrMsg struct {
	Err error
}

// Watcher wraps fsnotify to watch a single todo file. The parent directory
// is watched so that rename-over writes keep being seen.
type Watcher struct {
	watcher *fsnotify.Watcher
	path    string
}

// NewWatcher creates a new file watcher for the given todo file
func NewWatcher(path string) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, err
	}

	return &Watcher{watcher: w, path: abs}, nil
}

// WatchCmd returns a BubbleTea command that listens for file changes
func (w *Watcher) WatchCmd() tea.Cmd {
	return func() tea.Msg {
		for {
			select {
			case event, ok := <-w.watcher.Events:
				if !ok {
					return nil
				}

				// Only care about the todo file itself
				if filepath.Clean(event.Name) != w.path {
					continue
				}

				if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
					continue
				}

				deleted := event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
				return FileChangeMsg{Path: event.Name, Deleted: deleted}

			case err, ok := <-w.watcher.Errors:
				if !ok {
					return nil
				}
				return WatchErrMsg{Err: err}
			}
		}
	}
}

// Close stops the watcher
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// Debouncer coalesces rapid file change events into a single refresh
type Debouncer struct {
	mu       sync.Mutex
	timer    *time.Timer
	duration time.Duration
	program  *tea.Program
}

// NewDebouncer creates a new debouncer with the given delay duration
func NewDebouncer(d time.Duration) *Debouncer {
	return &Debouncer{duration: d}
}

// SetProgram sets the BubbleTea program to send messages to
func (d *Debouncer) SetProgram(p *tea.Program) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.program = p
}

// Trigger starts or resets the debounce timer
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}

	d.timer = time.AfterFunc(d.duration, func() {
		d.mu.Lock()
		p := d.program
		d.mu.Unlock()

		if p != nil {
			p.Send(DebouncedRefreshMsg{})
		}
	})
}

// Stop cancels a pending refresh
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
}
