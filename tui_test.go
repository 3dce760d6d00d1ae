package main

import (
	"bytes"
	"os"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func newTestModel(t *testing.T, content string) (model, string) {
	t.Helper()

	path := writeTodo(t, content)
	load := func() (*Store, error) {
		return Load(path, markdownDialect)
	}

	return newModel(load, nil, newPrinter(&bytes.Buffer{}, false), nil, nil), path
}

func press(t *testing.T, m model, keys ...string) model {
	t.Helper()

	for _, key := range keys {
		var msg tea.KeyMsg
		switch key {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
		}

		next, _ := m.Update(msg)
		m = next.(model)
	}

	return m
}

func TestModelLoadsTasks(t *testing.T) {
	m, _ := newTestModel(t, scenarioTodo)

	if m.err != nil {
		t.Fatalf("Unexpected error: %v", m.err)
	}
	if len(m.tasks) != 2 {
		t.Errorf("Expected 2 tasks, got %d", len(m.tasks))
	}

	view := m.View()
	if !strings.Contains(view, "buy milk") || !strings.Contains(view, "done thing") {
		t.Errorf("View should list the tasks:\n%s", view)
	}
}

func TestModelCursor(t *testing.T) {
	m, _ := newTestModel(t, "- [ ] a\n- [ ] b\n- [ ] c\n")

	m = press(t, m, "j", "j", "j")
	if m.cursor != 2 {
		t.Errorf("cursor = %d, want 2", m.cursor)
	}

	m = press(t, m, "g")
	if m.cursor != 0 {
		t.Errorf("cursor = %d, want 0", m.cursor)
	}

	m = press(t, m, "G", "k")
	if m.cursor != 1 {
		t.Errorf("cursor = %d, want 1", m.cursor)
	}
}

func TestModelToggle(t *testing.T) {
	m, path := newTestModel(t, scenarioTodo)

	m = press(t, m, "j", "x")
	if m.err != nil {
		t.Fatalf("Unexpected error: %v", m.err)
	}

	if !strings.HasSuffix(readTodo(t, path), "- [ ] done thing\n") {
		t.Errorf("Second task should be unchecked: %q", readTodo(t, path))
	}
	if m.tasks[1].Done {
		t.Error("Model should reload after writing")
	}
	if m.selfModified.IsZero() {
		t.Error("Own writes should be remembered")
	}
}

func TestModelAdd(t *testing.T) {
	m, path := newTestModel(t, scenarioTodo)

	m = press(t, m, "a")
	if !m.adding {
		t.Fatal("a should open the add input")
	}

	m = press(t, m, "water plants #home", "enter")
	if m.adding {
		t.Error("enter should close the add input")
	}

	if !strings.HasSuffix(readTodo(t, path), "- [ ] water plants #home\n") {
		t.Errorf("Task not appended: %q", readTodo(t, path))
	}
	if len(m.tasks) != 3 {
		t.Errorf("Expected 3 tasks, got %d", len(m.tasks))
	}
}

func TestModelAddCancelled(t *testing.T) {
	m, path := newTestModel(t, scenarioTodo)

	m = press(t, m, "a", "nope", "esc")
	if m.adding {
		t.Error("esc should close the add input")
	}
	if readTodo(t, path) != scenarioTodo {
		t.Error("File should be untouched")
	}
}

func TestModelDelete(t *testing.T) {
	m, path := newTestModel(t, scenarioTodo)

	m = press(t, m, "d", "n")
	if readTodo(t, path) != scenarioTodo {
		t.Error("Declined delete should keep the file")
	}

	m = press(t, m, "d", "y")
	if readTodo(t, path) != "not a task\n- [x] done thing\n" {
		t.Errorf("Unexpected file: %q", readTodo(t, path))
	}
	if len(m.tasks) != 1 || m.tasks[0].ID != 1 {
		t.Errorf("Remaining task should be renumbered, got %+v", m.tasks)
	}
}

func TestModelFiltered(t *testing.T) {
	path := writeTodo(t, scenarioTodo)
	query, err := parseQuery("is done")
	if err != nil {
		t.Fatal(err)
	}

	m := newModel(func() (*Store, error) {
		return Load(path, markdownDialect)
	}, query, newPrinter(&bytes.Buffer{}, false), nil, nil)

	if len(m.tasks) != 1 || m.tasks[0].ID != 2 {
		t.Errorf("Expected only task 2, got %+v", m.tasks)
	}
}

func TestModelLoadError(t *testing.T) {
	m, path := newTestModel(t, scenarioTodo)

	if err := os.WriteFile(path, []byte("- [ ] bad 2024-13-45\n"), 0644); err != nil {
		t.Fatal(err)
	}

	m = press(t, m, "r")
	if m.err == nil {
		t.Error("Reload of a broken file should show an error")
	}
	if !strings.Contains(m.View(), "Error:") {
		t.Errorf("View should show the error:\n%s", m.View())
	}
}

func TestVisibleRange(t *testing.T) {
	tests := []struct {
		cursor, total, height int
		start, end            int
	}{
		{cursor: 0, total: 2, height: 10, start: 0, end: 2},
		{cursor: 0, total: 10, height: 3, start: 0, end: 3},
		{cursor: 9, total: 10, height: 3, start: 7, end: 10},
		{cursor: 5, total: 10, height: 4, start: 3, end: 7},
		{cursor: 0, total: 10, height: 1, start: 0, end: 3},
	}

	for _, tt := range tests {
		start, end := visibleRange(tt.cursor, tt.total, tt.height)
		if start != tt.start || end != tt.end {
			t.Errorf("visibleRange(%d, %d, %d) = %d, %d, want %d, %d",
				tt.cursor, tt.total, tt.height, start, end, tt.start, tt.end)
		}
	}
}
