package welcome

import (
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/cazamitos/cazamitos/internal/router"
	"github.com/cazamitos/cazamitos/internal/screen"
	"github.com/cazamitos/cazamitos/internal/ui/theme"
)

const (
	tickInterval = 100 * time.Millisecond
	taglineAt    = 600 * time.Millisecond
	hintAt       = 1200 * time.Millisecond
	totalDur     = 1500 * time.Millisecond
)

const bannerArt = `
  ___   _   ____  _   __  __ ___ _____ ___  ___
 / __| /_\ |_  / /_\ |  \/  |_ _|_   _/ _ \/ __|
| (__ / _ \ / / / _ \| |\/| || |  | || (_) \__ \
 \___/_/ \_\/___/_/ \_\_|  |_|___| |_| \___/|___/`

const bannerCompact = "C A Z A M I T O S"

const tagline = "¡Pon a prueba tus conocimientos y descubre si puedes identificar los mitos económicos!"

type tickMsg time.Time

// WelcomeScreen is the splash shown at startup. Any key continues to the
// screen produced by next.
type WelcomeScreen struct {
	next         func() screen.Screen
	elapsed      time.Duration
	transitioned bool
}

var _ screen.Screen = (*WelcomeScreen)(nil)

// New creates a WelcomeScreen that hands over to next().
func New(next func() screen.Screen) *WelcomeScreen {
	return &WelcomeScreen{next: next}
}

func (w *WelcomeScreen) Title() string {
	return ""
}

func (w *WelcomeScreen) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (w *WelcomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg.(type) {
	case tickMsg:
		w.elapsed += tickInterval
		if w.elapsed >= totalDur {
			w.elapsed = totalDur
			return w, nil
		}
		return w, tick()

	case tea.KeyPressMsg:
		return w, w.transition()
	}
	return w, nil
}

func (w *WelcomeScreen) transition() tea.Cmd {
	if w.transitioned {
		return nil
	}
	w.transitioned = true
	next := w.next()
	return func() tea.Msg {
		return router.ReplaceScreenMsg{Screen: next}
	}
}

func (w *WelcomeScreen) View(width, height int) string {
	bannerStyle := lipgloss.NewStyle().Foreground(theme.Primary).Bold(true)

	var sections []string
	if width < 52 {
		sections = append(sections, bannerStyle.Render(bannerCompact))
	} else {
		sections = append(sections, bannerStyle.Render(bannerArt))
	}
	sections = append(sections, "", theme.Subtitle.Render("Cuestionario de Economía"))

	if w.elapsed >= taglineAt {
		sections = append(sections, "", lipgloss.NewStyle().
			Foreground(theme.Text).
			Bold(true).
			Width(min(width-4, 60)).
			Align(lipgloss.Center).
			Render(tagline))
	}
	if w.elapsed >= hintAt {
		sections = append(sections, "", theme.Hint.Render("pulsa cualquier tecla para empezar"))
	}

	content := lipgloss.JoinVertical(lipgloss.Center, sections...)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, strings.TrimPrefix(content, "\n"))
}
