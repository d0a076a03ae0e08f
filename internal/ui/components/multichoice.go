package components

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/cazamitos/cazamitos/internal/ui/theme"
)

// ChoiceMsg is emitted when an option is picked.
type ChoiceMsg struct {
	Index int
}

// MultiChoice is a multiple-choice selector. Picking an option does not
// lock it; the learner may change their mind until the quiz is sent.
type MultiChoice struct {
	Question string
	Options  []string
	Cursor   int

	// Chosen is the picked option, or -1.
	Chosen int

	// Correct, when >= 0, switches to review mode: options are graded
	// and keys are ignored.
	Correct int
}

// NewMultiChoice creates a selector with nothing chosen.
func NewMultiChoice(question string, options []string) MultiChoice {
	return MultiChoice{
		Question: question,
		Options:  options,
		Chosen:   -1,
		Correct:  -1,
	}
}

// NewReview creates a read-only graded view of an answered question.
func NewReview(question string, options []string, chosen, correct int) MultiChoice {
	return MultiChoice{
		Question: question,
		Options:  options,
		Cursor:   -1,
		Chosen:   chosen,
		Correct:  correct,
	}
}

// Choose marks index as chosen and moves the cursor onto it.
func (m *MultiChoice) Choose(index int) {
	if index < 0 || index >= len(m.Options) {
		return
	}
	m.Chosen = index
	m.Cursor = index
}

// Update handles arrow navigation, Enter and the 1-9 shortcuts.
func (m MultiChoice) Update(msg tea.Msg) (MultiChoice, tea.Cmd) {
	if m.Correct >= 0 {
		return m, nil
	}

	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	key := kmsg.String()
	switch key {
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
		}
		return m, nil
	case "down", "j":
		if m.Cursor < len(m.Options)-1 {
			m.Cursor++
		}
		return m, nil
	case "enter", "space":
		return m.pick(m.Cursor)
	}

	if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
		return m.pick(int(key[0] - '1'))
	}
	return m, nil
}

func (m MultiChoice) pick(index int) (MultiChoice, tea.Cmd) {
	if index < 0 || index >= len(m.Options) {
		return m, nil
	}
	m.Choose(index)
	return m, func() tea.Msg { return ChoiceMsg{Index: index} }
}

// View renders the question and its options wrapped to width.
func (m MultiChoice) View(width int) string {
	var b strings.Builder

	b.WriteString(lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Width(width).Render(m.Question))
	b.WriteString("\n\n")

	for i, opt := range m.Options {
		marker := "○"
		if i == m.Chosen {
			marker = "●"
		}
		prefix := "  "
		if i == m.Cursor {
			prefix = "▸ "
		}
		line := fmt.Sprintf("%s%s %d) %s", prefix, marker, i+1, opt)

		style := theme.Unselected
		switch {
		case m.Correct >= 0 && i == m.Correct:
			style = theme.Correct
		case m.Correct >= 0 && i == m.Chosen:
			style = theme.Incorrect
		case m.Correct >= 0:
			style = lipgloss.NewStyle().Foreground(theme.TextDim)
		case i == m.Cursor:
			style = theme.Selected
		case i == m.Chosen:
			style = theme.Chosen
		}
		b.WriteString(style.Width(width).Render(line))
		b.WriteString("\n")
	}

	return b.String()
}
