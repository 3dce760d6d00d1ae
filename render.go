package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/savioxavier/termlink"
	"gopkg.in/yaml.v3"
)

const defaultTheme = "dracula"

// inlineMarkdown holds characters that make a title worth running
// through glamour
const inlineMarkdown = "*_`~["

// printer writes tasks for humans. With color off it emits plain text.
type printer struct {
	w        io.Writer
	color    bool
	renderer *glamour.TermRenderer
}

func newPrinter(w io.Writer, color bool) *printer {
	p := &printer{w: w, color: color}

	if color {
		p.renderer, _ = glamour.NewTermRenderer(
			glamour.WithStandardStyle(defaultTheme),
			glamour.WithWordWrap(0),
		)
	}

	return p
}

// renderTitle renders inline markdown in a title using Glamour
func (p *printer) renderTitle(title string) string {
	if p.renderer == nil || !strings.ContainsAny(title, inlineMarkdown) {
		return title
	}

	rendered, err := p.renderer.Render(title)
	if err != nil {
		return title
	}

	// Keep as single line
	return strings.TrimSpace(rendered)
}

func (p *printer) style(s string, render func(...string) string) string {
	if !p.color || s == "" {
		return s
	}
	return render(s)
}

// formatTask renders one task; prefix is followed by ": " unless empty
func (p *printer) formatTask(task *Task, prefix string) string {
	var b strings.Builder

	if prefix != "" {
		b.WriteString(p.style(prefix+": ", prefixStyle.Render))
	}

	checkbox := "[ ]"
	if task.Done {
		checkbox = "[x]"
	}

	title := task.Title
	if !task.Done {
		title = p.renderTitle(title)
	}

	line := fmt.Sprintf("%s %2s %s", checkbox, p.style(fmt.Sprint(task.ID), idStyle.Render), title)
	if task.Done {
		line = p.style(line, doneStyle.Render)
	}
	b.WriteString(line)

	sep := p.style(" | ", separatorStyle.Render)

	if task.Due != nil {
		b.WriteString(sep + p.style(task.Due.Format(dateLayout), dueStyle.Render))
	}

	if len(task.Tags) > 0 {
		b.WriteString(sep + p.style(strings.Join(task.Tags, " "), tagStyle.Render))
	}

	if len(task.Mentions) > 0 {
		b.WriteString(sep + p.style(strings.Join(task.Mentions, " "), mentionStyle.Render))
	}

	return b.String()
}

// header names the todo file, as a terminal hyperlink when supported
func (p *printer) header(path string, count int) string {
	name := filepath.Base(path)

	if p.color && termlink.SupportsHyperlinks() {
		if abs, err := filepath.Abs(path); err == nil {
			name = termlink.Link(name, "file://"+abs)
		}
	}

	counter := fmt.Sprintf("(%d)", count)
	if p.color {
		return titleNameStyle.Render(name) + " " + countStyle.Render(counter)
	}

	return name + " " + counter
}

func (p *printer) printTask(task *Task, prefix string) {
	fmt.Fprintln(p.w, p.formatTask(task, prefix))
}

func (p *printer) printTasks(path string, tasks []*Task) {
	fmt.Fprintln(p.w, p.header(path, len(tasks)))

	if len(tasks) == 0 {
		fmt.Fprintln(p.w, "No tasks found.")
		return
	}

	for _, task := range tasks {
		p.printTask(task, "")
	}
}

func (p *printer) printChanges(changes []Change) {
	for _, c := range changes {
		p.printTask(c.Task, string(c.Action))
	}
}

// taskRecord is the exported shape of a task
type taskRecord struct {
	ID       int      `yaml:"id"`
	Line     int      `yaml:"line"`
	Done     bool     `yaml:"done"`
	Title    string   `yaml:"title"`
	Due      string   `yaml:"due,omitempty"`
	Tags     []string `yaml:"tags,omitempty"`
	Mentions []string `yaml:"mentions,omitempty"`
}

func newTaskRecord(task *Task) taskRecord {
	rec := taskRecord{
		ID:       task.ID,
		Line:     task.Line,
		Done:     task.Done,
		Title:    task.Title,
		Tags:     task.Tags,
		Mentions: task.Mentions,
	}

	if task.Due != nil {
		rec.Due = task.Due.Format(dateLayout)
	}

	return rec
}

// writeYAML exports tasks as a YAML sequence
func writeYAML(w io.Writer, tasks []*Task) error {
	records := make([]taskRecord, 0, len(tasks))
	for _, task := range tasks {
		records = append(records, newTaskRecord(task))
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	if err := enc.Encode(records); err != nil {
		return err
	}

	return enc.Close()
}
