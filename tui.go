package main

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	defaultWindowHeight = 24
	defaultWindowWidth  = 80
	reservedUILines     = 4 // title(1) + newline(1) + help margin(1) + help(1)
	minVisibleHeight    = 3
	maxInputWidth       = 70
	minInputWidth       = 30
	selfWriteGrace      = 500 * time.Millisecond
	refreshDebounce     = 150 * time.Millisecond
	cursorCharacter     = ">"
)

// loadFunc reparses the todo file
type loadFunc func() (*Store, error)

// editorFinishedMsg is sent when the external editor closes
type editorFinishedMsg struct {
	err error
}

// model is the BubbleTea model for `list --watch`
type model struct {
	load    loadFunc
	store   *Store
	query   *Query
	printer *printer

	tasks        []*Task
	cursor       int
	quitting     bool
	err          error
	status       string
	windowHeight int
	windowWidth  int

	adding      bool
	addingInput textinput.Model

	deleting     bool
	deletingTask *Task

	watcher      *Watcher
	debouncer    *Debouncer
	selfModified time.Time
}

func newModel(load loadFunc, query *Query, p *printer, watcher *Watcher, debouncer *Debouncer) model {
	m := model{
		load:         load,
		query:        query,
		printer:      p,
		windowHeight: defaultWindowHeight,
		windowWidth:  defaultWindowWidth,
		watcher:      watcher,
		debouncer:    debouncer,
	}
	m.refresh()
	return m
}

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{tea.WindowSize()}
	if m.watcher != nil {
		cmds = append(cmds, m.watcher.WatchCmd())
	}
	return tea.Batch(cmds...)
}

// refresh reparses the file. Ids are recomputed on every parse, so the
// cursor is kept by position rather than by id.
func (m *model) refresh() {
	store, err := m.load()
	if err != nil {
		m.err = err
		return
	}

	m.err = nil
	m.store = store
	m.tasks = store.List()

	if m.query != nil {
		m.tasks = sortTasks(filterTasks(m.tasks, m.query, time.Now()), m.query.SortBy)
	}

	m.clampCursor(len(m.tasks))
}

func (m *model) clampCursor(length int) {
	m.cursor = max(0, min(m.cursor, length-1))
}

func (m *model) inputWidth() int {
	return max(minInputWidth, min(maxInputWidth, m.windowWidth-10))
}

func (m *model) current() *Task {
	if len(m.tasks) == 0 {
		return nil
	}
	return m.tasks[m.cursor]
}

// mutate runs a store operation and reloads from the file afterwards
func (m *model) mutate(status string, op func(*Store) error) {
	if m.store == nil {
		return
	}

	if err := op(m.store); err != nil {
		m.err = err
		return
	}

	m.selfModified = time.Now()
	m.status = status
	m.refresh()
}

func (m *model) toggleAndSave(task *Task) {
	m.mutate(fmt.Sprintf("toggled %d", task.ID), func(s *Store) error {
		_, err := s.Complete([]int{task.ID})
		return err
	})
}

func (m *model) deleteAndSave(task *Task) {
	m.mutate(fmt.Sprintf("removed %q", task.Title), func(s *Store) error {
		_, err := s.Remove([]int{task.ID}, func(*Task) (Decision, error) { return Delete, nil })
		return err
	})
}

func (m *model) addAndSave(text string) {
	m.mutate("added task", func(s *Store) error {
		_, err := s.Add(strings.Fields(text))
		return err
	})
}

func (m *model) startAdd() tea.Cmd {
	ti := textinput.New()
	ti.Placeholder = "title #tag @name 2024-01-01"
	ti.Width = m.inputWidth()
	ti.Focus()

	m.adding = true
	m.addingInput = ti
	return textinput.Blink
}

// openInEditor opens the todo file in an external editor at the task's line
func openInEditor(path string, task *Task) tea.Cmd {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}

	args := []string{path}
	if task != nil {
		args = []string{fmt.Sprintf("+%d", task.Line), path}
	}

	c := exec.Command(editor, args...)

	return tea.ExecProcess(c, func(err error) tea.Msg {
		return editorFinishedMsg{err: err}
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.windowHeight = msg.Height
		m.windowWidth = msg.Width
		return m, nil

	case FileChangeMsg:
		// Skip self-triggered changes
		if time.Since(m.selfModified) >= selfWriteGrace && m.debouncer != nil {
			m.debouncer.Trigger()
		}
		if m.watcher != nil {
			return m, m.watcher.WatchCmd()
		}
		return m, nil

	case WatchErrMsg:
		m.status = fmt.Sprintf("watch: %v", msg.Err)
		if m.watcher != nil {
			return m, m.watcher.WatchCmd()
		}
		return m, nil

	case DebouncedRefreshMsg:
		m.refresh()
		return m, nil

	case editorFinishedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if m.adding {
			switch msg.String() {
			case "esc", "ctrl+[":
				m.adding = false
				return m, nil
			case "ctrl+c":
				m.quitting = true
				return m, tea.Quit
			case "enter":
				m.adding = false
				if text := strings.TrimSpace(m.addingInput.Value()); text != "" {
					m.addAndSave(text)
				}
				return m, nil
			}

			var cmd tea.Cmd
			m.addingInput, cmd = m.addingInput.Update(msg)
			return m, cmd
		}

		if m.deleting {
			switch msg.String() {
			case "y", "Y", "enter", "d", "D":
				if m.deletingTask != nil {
					m.deleteAndSave(m.deletingTask)
				}
			case "ctrl+c":
				m.quitting = true
				return m, tea.Quit
			}
			m.deleting = false
			m.deletingTask = nil
			return m, nil
		}

		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit

		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}

		case "down", "j":
			if m.cursor < len(m.tasks)-1 {
				m.cursor++
			}

		case "g":
			m.cursor = 0

		case "G":
			if len(m.tasks) > 0 {
				m.cursor = len(m.tasks) - 1
			}

		case "enter", " ", "x":
			if task := m.current(); task != nil {
				m.toggleAndSave(task)
			}

		case "a", "n":
			return m, m.startAdd()

		case "d":
			if task := m.current(); task != nil {
				m.deleting = true
				m.deletingTask = task
			}

		case "e":
			if m.store != nil {
				return m, openInEditor(m.store.Path, m.current())
			}

		case "r":
			m.status = ""
			m.refresh()
		}
	}

	return m, nil
}

// visibleRange returns the slice of task indexes that fit on screen
func visibleRange(cursor, total, height int) (int, int) {
	height = max(minVisibleHeight, height)
	if total <= height {
		return 0, total
	}

	start := max(0, cursor-height/2)
	end := start + height
	if end > total {
		end = total
		start = end - height
	}

	return start, end
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	path := ""
	if m.store != nil {
		path = m.store.Path
	}
	b.WriteString(m.printer.header(path, len(m.tasks)))
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(dangerStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	}

	if len(m.tasks) == 0 {
		b.WriteString(countStyle.Render("No tasks found."))
		b.WriteString("\n")
	}

	start, end := visibleRange(m.cursor, len(m.tasks), m.windowHeight-reservedUILines)
	for i := start; i < end; i++ {
		line := m.printer.formatTask(m.tasks[i], "")
		if i == m.cursor {
			b.WriteString(cursorStyle.Render(cursorCharacter) + " " + selectedStyle.Render(line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	switch {
	case m.adding:
		b.WriteString("\n" + titleStyle.Render("+ Add Task") + " " + m.addingInput.View())
	case m.deleting && m.deletingTask != nil:
		b.WriteString("\n" + dangerStyle.Render(fmt.Sprintf("Delete %q? (y/n)", m.deletingTask.Title)))
	default:
		help := "↑/k ↓/j move • x toggle • a add • d delete • e edit • r reload • q quit"
		if m.status != "" {
			help = m.status + " • " + help
		}
		b.WriteString(helpStyle.Render(help))
	}

	return b.String()
}

// runWatch shows the task list and reloads it whenever the file changes
func runWatch(path string, load loadFunc, query *Query, p *printer) error {
	watcher, err := NewWatcher(path)
	if err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	defer watcher.Close()

	debouncer := NewDebouncer(refreshDebounce)
	defer debouncer.Stop()

	prog := tea.NewProgram(newModel(load, query, p, watcher, debouncer), tea.WithAltScreen())
	debouncer.SetProgram(prog)

	_, err = prog.Run()
	return err
}
