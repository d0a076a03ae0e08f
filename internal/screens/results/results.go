// Package results shows the graded quiz, the personalised commentary and
// asks for a difficulty rating, which triggers saving the result.
package results

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	res "github.com/cazamitos/cazamitos/internal/results"
	"github.com/cazamitos/cazamitos/internal/router"
	"github.com/cazamitos/cazamitos/internal/screen"
	"github.com/cazamitos/cazamitos/internal/session"
	"github.com/cazamitos/cazamitos/internal/ui/components"
	"github.com/cazamitos/cazamitos/internal/ui/layout"
	"github.com/cazamitos/cazamitos/internal/ui/theme"
)

const pollInterval = 500 * time.Millisecond

// Session is the part of the session machine this screen reads.
type Session interface {
	State() session.State
	Score() (correct, total, percent int)
	Commentary() (text string, pending bool)
	Rated() bool
	RateDifficulty(ctx context.Context, difficulty int) (res.Receipt, error)
}

type pollMsg time.Time

type ratedMsg struct {
	receipt res.Receipt
	err     error
}

// Screen is the results summary.
type Screen struct {
	sess   Session
	list   components.Menu
	rating int
	saving bool
	status string
	failed bool
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)

// New builds the summary for the evaluated attempt.
func New(sess Session) *Screen {
	s := &Screen{sess: sess}
	st := sess.State()

	items := make([]components.MenuItem, len(st.Evaluations))
	for i, ev := range st.Evaluations {
		mark := theme.Correct.Render("✓")
		if !ev.IsCorrect {
			mark = theme.Incorrect.Render("✗")
		}
		label := ""
		if i < len(st.Questions) {
			label = st.Questions[i].Question
		}
		items[i] = components.MenuItem{
			Label: fmt.Sprintf("%s %d. %s", mark, i+1, truncate(label, 70)),
			Action: func() tea.Cmd {
				return screen.Send(router.PushScreenMsg{Screen: NewDetail(st, i)})
			},
		}
	}
	s.list = components.NewMenu(items)
	s.list.Visible = 6
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func (s *Screen) Init() tea.Cmd {
	return poll()
}

func poll() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return pollMsg(t)
	})
}

func (s *Screen) Title() string {
	return "Resultados"
}

func (s *Screen) KeyHints() []layout.KeyHint {
	hints := []layout.KeyHint{{Key: "Enter", Description: "Ver explicación"}}
	if !s.sess.Rated() {
		hints = append(hints, layout.KeyHint{Key: "1-5", Description: "Valorar dificultad"})
	}
	return append(hints,
		layout.KeyHint{Key: "N", Description: "Otro cuestionario"},
		layout.KeyHint{Key: "K", Description: "Cambiar clave"},
	)
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case pollMsg:
		// Keep polling while the commentary or a re-submission may change.
		if _, pending := s.sess.Commentary(); pending {
			return s, poll()
		}
		return s, nil

	case ratedMsg:
		s.saving = false
		if msg.err != nil {
			s.failed = true
			s.status = "No se pudieron guardar los resultados: " + msg.err.Error() + ". Pulsa 1-5 para reintentar."
			return s, nil
		}
		s.failed = false
		s.status = fmt.Sprintf("Resultados guardados (%d en total).", msg.receipt.TotalResults)
		if msg.receipt.TotalResults == 0 {
			s.status = "Valoración registrada."
		}
		return s, nil

	case tea.KeyPressMsg:
		key := msg.String()
		switch key {
		case "n", "r":
			return s, screen.Send(screen.StartOverMsg{})
		case "k":
			return s, screen.Send(screen.ChangeKeyMsg{})
		}
		if len(key) == 1 && key[0] >= '1' && key[0] <= '5' {
			return s.rate(int(key[0] - '0'))
		}
	}

	var cmd tea.Cmd
	s.list, cmd = s.list.Update(msg)
	return s, cmd
}

func (s *Screen) rate(d int) (screen.Screen, tea.Cmd) {
	if s.saving || s.sess.Rated() {
		return s, nil
	}
	s.rating = d
	s.saving = true
	s.status = "Guardando..."
	sess := s.sess
	return s, func() tea.Msg {
		receipt, err := sess.RateDifficulty(context.Background(), d)
		return ratedMsg{receipt: receipt, err: err}
	}
}

func (s *Screen) View(width, height int) string {
	w := layout.ContentWidth(width)
	correct, total, pct := s.sess.Score()

	var b strings.Builder
	b.WriteString(theme.Title.Render("Resultados del Cuestionario"))
	b.WriteString("\n")
	b.WriteString(theme.Body.Render("Obtuviste una puntuación de ") +
		theme.ScoreColor(pct).Render(fmt.Sprintf("%d%%", pct)) +
		theme.Subtitle.Render(fmt.Sprintf("  (%d de %d correctas)", correct, total)))
	b.WriteString("\n\n")
	b.WriteString(s.list.View())
	b.WriteString("\n")

	b.WriteString(theme.Label.Render("Comentario"))
	b.WriteString("\n")
	text, pending := s.sess.Commentary()
	switch {
	case text != "":
		b.WriteString(theme.Body.Width(w).Render(text))
	case pending:
		b.WriteString(theme.Hint.Render("Preparando un comentario personalizado..."))
	default:
		b.WriteString(theme.Hint.Render("No hay comentario disponible."))
	}
	b.WriteString("\n\n")

	b.WriteString(s.ratingView())
	if s.status != "" {
		style := lipgloss.NewStyle().Foreground(theme.Success)
		if s.failed {
			style = lipgloss.NewStyle().Foreground(theme.Error)
		}
		b.WriteString("\n" + style.Width(w).Render(s.status))
	}

	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

func (s *Screen) ratingView() string {
	label := theme.Label.Render("¿Qué dificultad te ha parecido? ")
	cells := make([]string, 5)
	for i := range cells {
		n := i + 1
		style := lipgloss.NewStyle().Foreground(theme.TextDim)
		if n == s.rating {
			style = theme.Selected
		}
		cells[i] = style.Render(fmt.Sprintf("[%d]", n))
	}
	hint := theme.Hint.Render("  1 muy fácil, 5 muy difícil")
	return label + strings.Join(cells, " ") + hint
}
