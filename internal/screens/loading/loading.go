// Package loading shows a spinner while the model works.
package loading

import (
	"fmt"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/cazamitos/cazamitos/internal/screen"
	"github.com/cazamitos/cazamitos/internal/ui/layout"
	"github.com/cazamitos/cazamitos/internal/ui/theme"
)

const spinnerInterval = 120 * time.Millisecond

var frames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// spinnerTickMsg animates the spinner.
type spinnerTickMsg time.Time

// Messages for the two long-running phases.
const (
	Generating = "Extrayendo texto y generando un cuestionario..."
	Evaluating = "Evaluando tus respuestas y preparando el feedback..."
)

// Screen is a centered spinner with a message.
type Screen struct {
	message string
	frame   int
	started time.Time
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)

// New creates a spinner showing message.
func New(message string) *Screen {
	return &Screen{message: message, started: time.Now()}
}

func (s *Screen) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(spinnerInterval, func(t time.Time) tea.Msg {
		return spinnerTickMsg(t)
	})
}

func (s *Screen) Title() string {
	return ""
}

func (s *Screen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Ctrl+R", Description: "Cancelar y empezar de nuevo"},
		{Key: "Ctrl+C", Description: "Salir"},
	}
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if _, ok := msg.(spinnerTickMsg); ok {
		s.frame = (s.frame + 1) % len(frames)
		return s, tick()
	}
	return s, nil
}

func (s *Screen) View(width, height int) string {
	spin := lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render(frames[s.frame])
	elapsed := int(time.Since(s.started).Seconds())

	content := lipgloss.JoinVertical(lipgloss.Center,
		spin+"  "+theme.Body.Render(s.message),
		"",
		theme.Hint.Render(elapsedLabel(elapsed)),
	)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}

func elapsedLabel(seconds int) string {
	if seconds < 5 {
		return "Esto puede tardar unos segundos."
	}
	return fmt.Sprintf("Llevamos %d s...", seconds)
}
