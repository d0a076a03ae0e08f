package results

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/cazamitos/cazamitos/internal/router"
	"github.com/cazamitos/cazamitos/internal/screen"
	"github.com/cazamitos/cazamitos/internal/session"
	"github.com/cazamitos/cazamitos/internal/ui/components"
	"github.com/cazamitos/cazamitos/internal/ui/layout"
	"github.com/cazamitos/cazamitos/internal/ui/theme"
)

// DetailScreen reviews one graded question.
type DetailScreen struct {
	state session.State
	index int
}

var _ screen.Screen = (*DetailScreen)(nil)
var _ screen.KeyHintProvider = (*DetailScreen)(nil)

// NewDetail reviews question index of st.
func NewDetail(st session.State, index int) *DetailScreen {
	return &DetailScreen{state: st, index: index}
}

func (d *DetailScreen) Init() tea.Cmd {
	return nil
}

func (d *DetailScreen) Title() string {
	return fmt.Sprintf("Pregunta %d", d.index+1)
}

func (d *DetailScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "←→", Description: "Anterior/siguiente"},
		{Key: "Esc", Description: "Volver"},
	}
}

func (d *DetailScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyPressMsg)
	if !ok {
		return d, nil
	}
	switch kmsg.String() {
	case "esc", "q", "backspace":
		return d, screen.Send(router.PopScreenMsg{})
	case "left", "h":
		return d, d.neighbour(-1)
	case "right", "l":
		return d, d.neighbour(1)
	}
	return d, nil
}

func (d *DetailScreen) neighbour(delta int) tea.Cmd {
	i := d.index + delta
	if i < 0 || i >= len(d.state.Evaluations) {
		return nil
	}
	return screen.Send(router.ReplaceScreenMsg{Screen: NewDetail(d.state, i)})
}

func (d *DetailScreen) View(width, height int) string {
	if d.index >= len(d.state.Evaluations) || d.index >= len(d.state.Questions) {
		return ""
	}
	w := layout.ContentWidth(width)
	q := d.state.Questions[d.index]
	ev := d.state.Evaluations[d.index]

	chosen := -1
	if d.index < len(d.state.Answers) && d.state.Answers[d.index] != nil {
		chosen = *d.state.Answers[d.index]
	}

	var b strings.Builder
	b.WriteString(components.NewReview(fmt.Sprintf("%d. %s", d.index+1, q.Question), q.Options, chosen, q.CorrectOptionIndex).View(w))
	b.WriteString("\n")

	answer := ev.StudentAnswer
	if answer == "" {
		answer = "(sin respuesta)"
	}
	if ev.IsCorrect {
		b.WriteString(theme.Label.Render("Tu Respuesta: ") + theme.Correct.Render("✓ "+answer))
	} else {
		b.WriteString(theme.Label.Render("Tu Respuesta: ") + theme.Incorrect.Render("✗ "+answer))
		b.WriteString("\n")
		b.WriteString(theme.Label.Render("Respuesta Correcta: ") + theme.Body.Render(ev.CorrectAnswer))
	}
	b.WriteString("\n\n")

	b.WriteString(theme.Label.Render("Explicación:"))
	b.WriteString("\n")
	b.WriteString(theme.Body.Width(w).Render(ev.Explanation))
	if q.MythExplanation != "" {
		b.WriteString("\n\n")
		b.WriteString(theme.Label.Render("El mito:"))
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Accent).Width(w).Render(q.MythExplanation))
	}

	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}
