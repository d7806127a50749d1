package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/wippyai/suspendjs/suspend"
	"github.com/wippyai/suspendjs/syntax"
)

var exploreCmd = &cobra.Command{
	Use:   "explore <file.js>",
	Short: "Step through the propagation of suspending names interactively",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read file: %w", err)
		}
		extra, _ := cmd.Flags().GetStringSlice("names")
		output, err := outputMode(cmd)
		if err != nil {
			return err
		}
		names := append(append([]string{}, app.cfg.Names...), extra...)
		if _, err := suspend.ParsePatterns(names); err != nil {
			return err
		}

		m := newExploreModel(args[0], string(data), names, output)
		_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
		return err
	},
}

func init() {
	exploreCmd.Flags().StringSlice("names", nil, "extra suspending names or patterns")
	exploreCmd.Flags().String("output", "auto", "output shape (auto|cooperative|native)")
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	funcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

const headerLines = 8

type exploreState int

const (
	stateBrowse exploreState = iota
	stateEditNames
)

type exploreModel struct {
	err      error
	report   suspend.Report
	path     string
	src      string
	text     string
	names    []string
	input    textinput.Model
	view     viewport.Model
	output   suspend.Output
	step     int
	state    exploreState
	original bool
	ready    bool
}

// transformedMsg carries the result of one rewrite of the explored file.
type transformedMsg struct {
	err    error
	text   string
	report suspend.Report
}

func newExploreModel(path, src string, names []string, output suspend.Output) *exploreModel {
	ti := textinput.New()
	ti.Prompt = "names: "
	ti.Placeholder = "fetch /^db\\./ http.*"
	ti.Width = 60
	return &exploreModel{
		path:   path,
		src:    src,
		names:  names,
		output: output,
		input:  ti,
	}
}

func (m *exploreModel) Init() tea.Cmd {
	return m.transform
}

// rewrite runs a fresh transformation of src.
func rewrite(src string, names []string, output suspend.Output) (string, suspend.Report, error) {
	ps, err := suspend.ParsePatterns(names)
	if err != nil {
		return "", suspend.Report{}, err
	}
	set, err := suspend.NewNameSet(ps...)
	if err != nil {
		return "", suspend.Report{}, err
	}
	tree, err := syntax.Parse(src)
	if err != nil {
		return "", suspend.Report{}, err
	}
	report, err := suspend.TransformTree(tree, set, suspend.Config{Output: output})
	if err != nil {
		return "", suspend.Report{}, err
	}
	return syntax.Generate(tree), report, nil
}

func (m *exploreModel) transform() tea.Msg {
	text, report, err := rewrite(m.src, m.names, m.output)
	return transformedMsg{err: err, text: text, report: report}
}

func (m *exploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		h := msg.Height - headerLines
		if h < 3 {
			h = 3
		}
		if !m.ready {
			m.view = viewport.New(msg.Width, h)
			m.ready = true
		} else {
			m.view.Width, m.view.Height = msg.Width, h
		}
		m.refresh()
		return m, nil

	case transformedMsg:
		m.err = msg.err
		m.text = msg.text
		m.report = msg.report
		m.step = 0
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if m.state == stateEditNames {
			return m.updateNames(msg)
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "left", "h":
			if m.step > 0 {
				m.step--
			}
			return m, nil
		case "right", "l":
			if m.step < len(m.report.Steps)-1 {
				m.step++
			}
			return m, nil
		case "tab":
			m.original = !m.original
			m.refresh()
			return m, nil
		case "o":
			m.output = nextOutput(m.output)
			return m, m.transform
		case "n":
			m.state = stateEditNames
			m.input.SetValue(strings.Join(m.names, " "))
			m.input.CursorEnd()
			return m, m.input.Focus()
		}
	}

	var cmd tea.Cmd
	if m.ready {
		m.view, cmd = m.view.Update(msg)
	}
	return m, cmd
}

func (m *exploreModel) updateNames(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.state = stateBrowse
		m.input.Blur()
		return m, nil
	case "enter":
		names := strings.Fields(m.input.Value())
		if _, err := suspend.ParsePatterns(names); err != nil {
			m.err = err
			return m, nil
		}
		m.names = names
		m.state = stateBrowse
		m.input.Blur()
		return m, m.transform
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func nextOutput(o suspend.Output) suspend.Output {
	switch suspend.ResolveOutput(o) {
	case suspend.OutputCooperative:
		return suspend.OutputNative
	default:
		return suspend.OutputCooperative
	}
}

func (m *exploreModel) refresh() {
	if !m.ready {
		return
	}
	if m.original || m.err != nil {
		m.view.SetContent(m.src)
		return
	}
	m.view.SetContent(m.text)
}

func (m *exploreModel) View() string {
	if !m.ready {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("suspendjs explore"))
	b.WriteString(" ")
	b.WriteString(m.path)
	b.WriteString("\n\n")

	if m.state == stateEditNames {
		b.WriteString(m.input.View())
	} else {
		b.WriteString("names: ")
		b.WriteString(nameStyle.Render(strings.Join(m.names, " ")))
		fmt.Fprintf(&b, "   output: %s", suspend.ResolveOutput(m.output))
	}
	b.WriteString("\n")

	switch {
	case m.err != nil:
		b.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		b.WriteString("\n\n")
	default:
		b.WriteString(m.stepLine())
		b.WriteString("\n")
		fmt.Fprintf(&b, "%d pass(es), %d name(s), %d call(s) rewritten, %d coroutine(s)\n",
			m.report.Iterations, len(m.report.Names), m.report.Rewritten, m.report.Coroutines)
	}

	label := "rewritten"
	if m.original || m.err != nil {
		label = "original"
	}
	b.WriteString(selectedStyle.Render(" " + label + " "))
	b.WriteString("\n")
	b.WriteString(m.view.View())
	b.WriteString("\n")

	if m.state == stateEditNames {
		b.WriteString(helpStyle.Render("enter apply • esc cancel"))
	} else {
		b.WriteString(helpStyle.Render("←/→ step • tab original/rewritten • o output • n names • ↑/↓ scroll • q quit"))
	}
	return b.String()
}

// stepLine describes the selected propagation step.
func (m *exploreModel) stepLine() string {
	if len(m.report.Steps) == 0 {
		return "no propagation steps"
	}
	s := m.report.Steps[m.step]
	added := "-"
	if len(s.Added) > 0 {
		added = nameStyle.Render(strings.Join(s.Added, " "))
	}
	marked := "-"
	if len(s.Marked) > 0 {
		marked = funcStyle.Render(strings.Join(s.Marked, " "))
	}
	return fmt.Sprintf("step %d/%d  added: %s  marked: %s", m.step+1, len(m.report.Steps), added, marked)
}
