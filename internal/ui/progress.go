package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
)

type fileProgressMsg struct {
	name string
	pct  int
}

type fileDoneMsg struct {
	name   string
	failed bool
	detail string
}

type finishedMsg struct{}

type fileRow struct {
	bar    progress.Model
	name   string
	detail string
	pct    int
	done   bool
	failed bool
}

// UploadProgressModel shows one progress bar per file
type UploadProgressModel struct {
	rows  []*fileRow
	index map[string]*fileRow
	width int
	done  bool
}

func newBar(width int) progress.Model {
	return progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(width),
		progress.WithoutPercentage(),
	)
}

func NewUploadProgressModel(names []string) UploadProgressModel {
	m := UploadProgressModel{index: make(map[string]*fileRow), width: 40}
	for _, name := range names {
		row := &fileRow{name: name, bar: newBar(m.width)}
		m.rows = append(m.rows, row)
		m.index[name] = row
	}
	return m
}

func (m UploadProgressModel) Init() tea.Cmd {
	return nil
}

func (m UploadProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width - padding*2 - nameWidth - 8
		if m.width > maxWidth {
			m.width = maxWidth
		}
		if m.width < 10 {
			m.width = 10
		}
		for _, row := range m.rows {
			row.bar.Width = m.width
		}
		return m, nil

	case fileProgressMsg:
		if row, ok := m.index[msg.name]; ok && msg.pct > row.pct {
			row.pct = msg.pct
		}
		return m, nil

	case fileDoneMsg:
		if row, ok := m.index[msg.name]; ok {
			row.done = true
			row.failed = msg.failed
			row.detail = msg.detail
		}
		return m, nil

	case finishedMsg:
		m.done = true
		return m, tea.Quit
	}

	return m, nil
}

func (m UploadProgressModel) View() string {
	pad := strings.Repeat(" ", padding)
	var b strings.Builder
	b.WriteString("\n")
	for _, row := range m.rows {
		name := row.name
		if VisibleLen(name) > nameWidth {
			name = Truncate(name, nameWidth)
		}
		name += strings.Repeat(" ", nameWidth-VisibleLen(name))

		var tail string
		switch {
		case row.done && row.failed:
			tail = ErrorStyle.Render("failed")
			if row.detail != "" {
				tail += " " + MutedStyle.Render(row.detail)
			}
		case row.done:
			tail = SuccessStyle.Render("done")
		default:
			tail = MutedStyle.Render(fmt.Sprintf("%3d%%", row.pct))
		}
		fmt.Fprintf(&b, "%s%s %s %s\n", pad, name, row.bar.ViewAs(float64(row.pct)/100), tail)
	}
	if !m.done {
		b.WriteString("\n")
	}
	return b.String()
}

// Constants
const (
	padding   = 2
	maxWidth  = 60
	nameWidth = 28
)

// ProgressReporter receives per-file updates from a running upload batch
type ProgressReporter interface {
	Progress(name string, pct int)
	Done(name string, failed bool, detail string)
}

type programReporter struct {
	p *tea.Program
}

func (r programReporter) Progress(name string, pct int) {
	r.p.Send(fileProgressMsg{name: name, pct: pct})
}

func (r programReporter) Done(name string, failed bool, detail string) {
	r.p.Send(fileDoneMsg{name: name, failed: failed, detail: detail})
}

// RunUploads renders a bar per file while action runs.
func RunUploads(names []string, action func(r ProgressReporter)) error {
	p := tea.NewProgram(NewUploadProgressModel(names))

	go func() {
		action(programReporter{p: p})
		p.Send(finishedMsg{})
	}()

	_, err := p.Run()
	return err
}
