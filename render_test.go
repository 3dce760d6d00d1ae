package main

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func scenarioTasks(t *testing.T) []*Task {
	t.Helper()

	tasks, err := parseLines(strings.Split(strings.TrimSuffix(scenarioTodo, "\n"), "\n"), markdownDialect)
	if err != nil {
		t.Fatalf("parseLines failed: %v", err)
	}

	return tasks
}

func TestFormatTaskPlain(t *testing.T) {
	tasks := scenarioTasks(t)
	p := newPrinter(&bytes.Buffer{}, false)

	tests := []struct {
		name   string
		task   *Task
		prefix string
		want   string
	}{
		{
			name: "open task with fields",
			task: tasks[0],
			want: "[ ]  1 buy milk | 2024-01-01 | #errand | @alex",
		},
		{
			name:   "done task with prefix",
			task:   tasks[1],
			prefix: "done",
			want:   "done: [x]  2 done thing",
		},
		{
			name: "markdown title stays raw without color",
			task: &Task{ID: 12, Title: "read *this*"},
			want: "[ ] 12 read *this*",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.formatTask(tt.task, tt.prefix); got != tt.want {
				t.Errorf("formatTask() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHeaderPlain(t *testing.T) {
	p := newPrinter(&bytes.Buffer{}, false)

	if got := p.header("/home/me/notes/todo.md", 3); got != "todo.md (3)" {
		t.Errorf("header() = %q", got)
	}
}

func TestPrintTasks(t *testing.T) {
	var buf bytes.Buffer
	p := newPrinter(&buf, false)

	p.printTasks("todo.md", scenarioTasks(t))

	want := "todo.md (2)\n" +
		"[ ]  1 buy milk | 2024-01-01 | #errand | @alex\n" +
		"[x]  2 done thing\n"
	if buf.String() != want {
		t.Errorf("Expected:\n%s\ngot:\n%s", want, buf.String())
	}
}

func TestPrintTasksEmpty(t *testing.T) {
	var buf bytes.Buffer
	newPrinter(&buf, false).printTasks("todo.md", nil)

	if buf.String() != "todo.md (0)\nNo tasks found.\n" {
		t.Errorf("Unexpected output: %q", buf.String())
	}
}

func TestPrintChanges(t *testing.T) {
	var buf bytes.Buffer
	tasks := scenarioTasks(t)

	newPrinter(&buf, false).printChanges([]Change{
		{Action: ActionDone, Task: tasks[0]},
		{Action: ActionUnchecked, Task: tasks[1]},
	})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %q", lines)
	}
	if !strings.HasPrefix(lines[0], "done: ") || !strings.HasPrefix(lines[1], "unchecked: ") {
		t.Errorf("Unexpected prefixes: %q", lines)
	}
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer

	if err := writeYAML(&buf, scenarioTasks(t)); err != nil {
		t.Fatalf("writeYAML failed: %v", err)
	}

	var got []taskRecord
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("Output is not valid YAML: %v\n%s", err, buf.String())
	}

	want := []taskRecord{
		{ID: 1, Line: 1, Title: "buy milk", Due: "2024-01-01", Tags: []string{"#errand"}, Mentions: []string{"@alex"}},
		{ID: 2, Line: 3, Done: true, Title: "done thing"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %+v, got %+v", want, got)
	}

	second := buf.String()[strings.Index(buf.String(), "- id: 2"):]
	for _, key := range []string{"due:", "tags:", "mentions:"} {
		if strings.Contains(second, key) {
			t.Errorf("Empty %s should be omitted:\n%s", key, second)
		}
	}
}

func TestWriteYAMLEmpty(t *testing.T) {
	var buf bytes.Buffer

	if err := writeYAML(&buf, nil); err != nil {
		t.Fatalf("writeYAML failed: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("Expected an empty sequence, got %q", buf.String())
	}
}
