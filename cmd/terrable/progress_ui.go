// File: cmd/terrable/progress_ui.go
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"terrable/internal/progress"
	"terrable/pkg/storage"

	progressbar "github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const barWidth = 40

var (
	labelStyle = lipgloss.NewStyle().Width(24)
	doneStyle  = lipgloss.NewStyle().Faint(true)
)

type eventMsg progress.Event

type finishedMsg struct{}

// progressModel shows a bar for the transfer in flight and one line per finished transfer
type progressModel struct {
	bar       progressbar.Model
	current   *progress.Event
	completed []string
}

func newProgressModel() progressModel {
	return progressModel{
		bar: progressbar.New(progressbar.WithDefaultGradient(), progressbar.WithWidth(barWidth)),
	}
}

func (m progressModel) Init() tea.Cmd {
	return nil
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		e := progress.Event(msg)
		if e.Done {
			m.completed = append(m.completed, doneStyle.Render(fmt.Sprintf("%s %s (%s)", transferLabel(e, true), e.Key, storage.FormatBytes(e.Bytes))))
			m.current = nil
			return m, nil
		}
		m.current = &e
		return m, nil

	case finishedMsg:
		m.current = nil
		return m, tea.Quit
	}
	return m, nil
}

func (m progressModel) View() string {
	var sb strings.Builder
	for _, line := range m.completed {
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	if m.current == nil {
		return sb.String()
	}

	e := *m.current
	sb.WriteString(labelStyle.Render(transferLabel(e, false)))
	if e.Total > 0 {
		sb.WriteString(m.bar.ViewAs(e.Fraction()))
		sb.WriteString(fmt.Sprintf("  %s / %s", storage.FormatBytes(e.Bytes), storage.FormatBytes(e.Total)))
	} else {
		sb.WriteString(storage.FormatBytes(e.Bytes))
	}
	sb.WriteString("\n")
	return sb.String()
}

func transferLabel(e progress.Event, done bool) string {
	verbs := map[bool]string{false: "Uploading", true: "Uploaded"}
	if e.Operation == progress.Download {
		verbs = map[bool]string{false: "Downloading", true: "Downloaded"}
	}
	return verbs[done] + " " + e.Module
}

type progressUI struct {
	program *tea.Program
}

// newProgressUI renders to out without reading the terminal; cancelling ctx tears the UI down
func newProgressUI(ctx context.Context, out io.Writer) *progressUI {
	return &progressUI{
		program: tea.NewProgram(
			newProgressModel(),
			tea.WithContext(ctx),
			tea.WithOutput(out),
			tea.WithInput(nil),
			tea.WithoutSignalHandler(),
		),
	}
}

func (u *progressUI) Send(msg tea.Msg) {
	u.program.Send(msg)
}

// Run blocks until finishedMsg arrives. Being torn down by the context is not an error of its own
func (u *progressUI) Run() error {
	_, err := u.program.Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}
