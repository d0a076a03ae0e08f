// Package quiz is the answering screen: one question at a time, answers
// can be changed freely until the quiz is sent.
package quiz

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/cazamitos/cazamitos/internal/screen"
	"github.com/cazamitos/cazamitos/internal/session"
	"github.com/cazamitos/cazamitos/internal/ui/components"
	"github.com/cazamitos/cazamitos/internal/ui/layout"
	"github.com/cazamitos/cazamitos/internal/ui/theme"
)

// Session is the part of the session machine this screen drives.
type Session interface {
	State() session.State
	Select(question, option int) error
	CanSubmit() bool
}

// Screen shows the current question and the overall progress.
type Screen struct {
	sess    Session
	choices []components.MultiChoice
	current int
	notice  string
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)

// New builds the screen from the session's questions and any answers
// already given.
func New(sess Session) *Screen {
	st := sess.State()
	s := &Screen{sess: sess, choices: make([]components.MultiChoice, len(st.Questions))}
	for i, q := range st.Questions {
		s.choices[i] = components.NewMultiChoice(q.Question, q.Options)
		if i < len(st.Answers) && st.Answers[i] != nil {
			s.choices[i].Choose(*st.Answers[i])
		}
	}
	return s
}

func (s *Screen) Init() tea.Cmd {
	return nil
}

func (s *Screen) Title() string {
	return fmt.Sprintf("Pregunta %d de %d", s.current+1, len(s.choices))
}

func (s *Screen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "1-4", Description: "Responder"},
		{Key: "←→", Description: "Cambiar pregunta"},
		{Key: "S", Description: "Enviar"},
		{Key: "Ctrl+R", Description: "Empezar de nuevo"},
	}
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if len(s.choices) == 0 {
		return s, nil
	}

	switch msg := msg.(type) {
	case components.ChoiceMsg:
		return s.choose(msg.Index)

	case tea.KeyPressMsg:
		switch msg.String() {
		case "left", "h", "shift+tab":
			s.goTo(s.current - 1)
			return s, nil
		case "right", "l", "tab":
			s.goTo(s.current + 1)
			return s, nil
		case "s":
			return s.submit()
		}
	}

	var cmd tea.Cmd
	s.choices[s.current], cmd = s.choices[s.current].Update(msg)
	return s, cmd
}

func (s *Screen) goTo(i int) {
	if i < 0 || i >= len(s.choices) {
		return
	}
	s.current = i
	s.notice = ""
}

func (s *Screen) choose(option int) (screen.Screen, tea.Cmd) {
	wasAnswered := s.answered(s.current)
	if err := s.sess.Select(s.current, option); err != nil {
		s.notice = err.Error()
		return s, nil
	}
	s.choices[s.current].Choose(option)
	s.notice = ""

	// First answers move on; corrections stay put.
	if !wasAnswered {
		if next := s.nextUnanswered(); next >= 0 {
			s.current = next
		}
	}
	return s, nil
}

func (s *Screen) answered(i int) bool {
	st := s.sess.State()
	return i < len(st.Answers) && st.Answers[i] != nil
}

func (s *Screen) nextUnanswered() int {
	st := s.sess.State()
	n := len(st.Answers)
	for k := 1; k <= n; k++ {
		i := (s.current + k) % n
		if st.Answers[i] == nil {
			return i
		}
	}
	return -1
}

func (s *Screen) submit() (screen.Screen, tea.Cmd) {
	if !s.sess.CanSubmit() {
		s.notice = "Responde todas las preguntas antes de enviar."
		if next := s.nextUnanswered(); next >= 0 {
			s.current = next
		}
		return s, nil
	}
	return s, screen.Send(screen.SubmitMsg{})
}

func (s *Screen) View(width, height int) string {
	if len(s.choices) == 0 {
		return ""
	}
	w := layout.ContentWidth(width)
	st := s.sess.State()

	done := 0
	dots := make([]string, len(s.choices))
	for i := range s.choices {
		dot := "○"
		style := lipgloss.NewStyle().Foreground(theme.TextDim)
		if i < len(st.Answers) && st.Answers[i] != nil {
			done++
			dot = "●"
			style = lipgloss.NewStyle().Foreground(theme.Secondary)
		}
		if i == s.current {
			style = style.Foreground(theme.Primary).Bold(true)
		}
		dots[i] = style.Render(dot)
	}

	var b strings.Builder
	b.WriteString(components.NewProgressBar("Respondidas", done, len(s.choices), w).View())
	b.WriteString("\n")
	b.WriteString(strings.Join(dots, " "))
	b.WriteString("\n\n")
	b.WriteString(s.choices[s.current].View(w))
	b.WriteString("\n")
	b.WriteString(components.NewButton("Enviar respuestas", "S", s.sess.CanSubmit()).View())
	if s.notice != "" {
		b.WriteString("\n\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Accent).Render(s.notice))
	}

	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}
