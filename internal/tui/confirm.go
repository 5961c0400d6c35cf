// internal/tui/confirm.go
//
// Interactive confirmation for a release cycle, built on bubbletea.
// The flow mirrors the release plan: show what will change, collect
// an optional custom message, then ask for a yes/no before any side
// effect runs.

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/yourusername/warehousekeeper/internal/release"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00B8D4"))
	actionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50"))
	skipStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
)

// ConfirmPrompt runs the interactive confirmation flow. It satisfies
// the release cycle's Confirmer interface.
type ConfirmPrompt struct{}

// NewConfirmPrompt creates the prompt.
func NewConfirmPrompt() *ConfirmPrompt {
	return &ConfirmPrompt{}
}

// Confirm shows the plan and blocks until the user decides.
func (p *ConfirmPrompt) Confirm(plan release.Plan) (release.Decision, error) {
	program := tea.NewProgram(newConfirmModel(plan))
	final, err := program.Run()
	if err != nil {
		return release.Decision{}, fmt.Errorf("tui: run confirmation: %w", err)
	}
	model, ok := final.(confirmModel)
	if !ok {
		return release.Decision{}, fmt.Errorf("tui: unexpected final model %T", final)
	}
	return model.decision(), nil
}

type confirmPhase int

const (
	phaseMessage confirmPhase = iota
	phaseDecide
	phaseDone
)

type confirmModel struct {
	plan      release.Plan
	input     textinput.Model
	phase     confirmPhase
	confirmed bool
	message   string
	aborted   bool
}

func newConfirmModel(plan release.Plan) confirmModel {
	input := textinput.New()
	input.Placeholder = "optional note for the commit and tag"
	input.CharLimit = 200
	input.Width = 60
	input.Focus()
	return confirmModel{plan: plan, input: input}
}

// Init starts the cursor blink for the message field.
func (m confirmModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch key.String() {
	case "ctrl+c", "esc":
		m.aborted = true
		m.phase = phaseDone
		return m, tea.Quit
	}

	switch m.phase {
	case phaseMessage:
		if key.Type == tea.KeyEnter {
			m.message = strings.TrimSpace(m.input.Value())
			m.phase = phaseDecide
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	case phaseDecide:
		switch key.String() {
		case "y", "Y", "enter":
			m.confirmed = true
			m.phase = phaseDone
			return m, tea.Quit
		case "n", "N":
			m.confirmed = false
			m.phase = phaseDone
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m confirmModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Please confirm the following release:"))
	b.WriteString("\n\n")

	for _, change := range m.plan.Changes {
		line := fmt.Sprintf("  %s %s", change.Op.Verb(), change.Path)
		b.WriteString(actionStyle.Render(line))
		b.WriteString("\n")
	}
	for _, path := range m.plan.Skipped {
		b.WriteString(skipStyle.Render(fmt.Sprintf("  skip %s", path)))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("  Tag: "))
	b.WriteString(valueStyle.Render(m.plan.Tag))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("  Commit message:"))
	b.WriteString("\n")
	for _, line := range strings.Split(strings.TrimRight(m.plan.Summary, "\n"), "\n") {
		b.WriteString(skipStyle.Render("    " + line))
		b.WriteString("\n")
	}
	if m.plan.Push {
		b.WriteString(labelStyle.Render("  Push to remote after tagging"))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch m.phase {
	case phaseMessage:
		b.WriteString(labelStyle.Render("Custom message (enter to continue):"))
		b.WriteString("\n")
		b.WriteString(m.input.View())
		b.WriteString("\n")
	case phaseDecide:
		if m.message != "" {
			b.WriteString(labelStyle.Render("  Note: "))
			b.WriteString(valueStyle.Render(m.message))
			b.WriteString("\n")
		}
		b.WriteString(titleStyle.Render("Proceed with stage, commit, tag, push? [Y/n] "))
	}
	b.WriteString("\n")
	b.WriteString(hintStyle.Render("esc aborts without touching the repository"))
	b.WriteString("\n")
	return b.String()
}

func (m confirmModel) decision() release.Decision {
	if m.aborted {
		return release.Decision{Confirmed: false}
	}
	return release.Decision{Confirmed: m.confirmed, Message: m.message}
}
