package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
)

// ErrPromptCancelled is returned when the user aborts a question
var ErrPromptCancelled = errors.New("prompt cancelled")

// askFunc asks a question and returns the trimmed answer
type askFunc func(question string) (string, error)

type promptModel struct {
	input     textinput.Model
	answer    string
	cancelled bool
	done      bool
}

func newPromptModel(question string) promptModel {
	ti := textinput.New()
	ti.Prompt = question
	ti.PromptStyle = promptStyle
	ti.Focus()

	return promptModel{input: ti}
}

func (m promptModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "enter":
			m.answer = strings.TrimSpace(m.input.Value())
			m.done = true
			return m, tea.Quit

		case "esc", "ctrl+[", "ctrl+c":
			m.cancelled = true
			m.done = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m promptModel) View() string {
	if m.done {
		// Leave the answered question on screen.
		return m.input.Prompt + m.answer + "\n"
	}
	return m.input.View()
}

// terminalAsk asks through a one line bubbletea program
func terminalAsk(question string) (string, error) {
	p := tea.NewProgram(newPromptModel(question), tea.WithOutput(os.Stderr))

	final, err := p.Run()
	if err != nil {
		return "", err
	}

	m := final.(promptModel)
	if m.cancelled {
		return "", ErrPromptCancelled
	}

	return m.answer, nil
}

// lineAsk reads answers line by line, for piped input. End of input
// answers with an empty string.
func lineAsk(r io.Reader, w io.Writer) askFunc {
	reader := bufio.NewReader(r)

	return func(question string) (string, error) {
		fmt.Fprint(w, question)

		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}

		if errors.Is(err, io.EOF) {
			fmt.Fprintln(w)
		}

		return strings.TrimSpace(line), nil
	}
}

// defaultAsk picks the interactive prompt when stdin is a terminal
func defaultAsk() askFunc {
	fd := os.Stdin.Fd()
	if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		return terminalAsk
	}
	return lineAsk(os.Stdin, os.Stderr)
}

// confirmDecider turns answers to "delete that task?" into decisions.
// show is called with each task before the question is asked.
func confirmDecider(ask askFunc, show func(*Task)) DecideFunc {
	return func(task *Task) (Decision, error) {
		if show != nil {
			show(task)
		}

		answer, err := ask("delete that task? ( [y]es / [n]o / [a]ll ): ")
		if err != nil {
			return Skip, err
		}

		switch strings.ToLower(answer) {
		case "y", "yes":
			return Delete, nil
		case "a", "all":
			return DeleteRest, nil
		default:
			return Skip, nil
		}
	}
}

// deleteAll skips confirmation
func deleteAll(*Task) (Decision, error) {
	return DeleteRest, nil
}
