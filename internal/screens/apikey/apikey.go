// Package apikey asks for the model provider key and stores it locally.
package apikey

import (
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/cazamitos/cazamitos/internal/screen"
	"github.com/cazamitos/cazamitos/internal/ui/components"
	"github.com/cazamitos/cazamitos/internal/ui/layout"
	"github.com/cazamitos/cazamitos/internal/ui/theme"
)

// SaveFunc persists key and activates it. It may block on disk I/O.
type SaveFunc func(key string) error

type savedMsg struct {
	err error
}

// Screen collects the API key.
type Screen struct {
	provider string
	save     SaveFunc
	input    components.TextInput
	saving   bool
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)
var _ screen.TextEntry = (*Screen)(nil)

// New creates the key screen for provider.
func New(provider string, save SaveFunc) *Screen {
	return &Screen{
		provider: provider,
		save:     save,
		input:    components.NewSecretInput("Clave de API", "Pega tu clave de API aquí"),
	}
}

func (s *Screen) Init() tea.Cmd {
	return s.input.Focus()
}

func (s *Screen) Title() string {
	return "Clave de API"
}

func (s *Screen) CapturingText() bool {
	return true
}

func (s *Screen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Guardar"},
		{Key: "Ctrl+C", Description: "Salir"},
	}
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case savedMsg:
		s.saving = false
		if msg.err != nil {
			s.input.Err = "No se pudo guardar la clave: " + msg.err.Error()
			return s, nil
		}
		return s, screen.Send(screen.KeySavedMsg{})

	case tea.KeyPressMsg:
		if s.saving {
			return s, nil
		}
		if msg.String() == "enter" {
			return s.submit()
		}
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

func (s *Screen) submit() (screen.Screen, tea.Cmd) {
	key := s.input.Value()
	if key == "" {
		s.input.Err = "Introduce una clave."
		return s, nil
	}
	s.saving = true
	save := s.save
	return s, func() tea.Msg {
		return savedMsg{err: save(key)}
	}
}

func (s *Screen) View(width, height int) string {
	w := min(layout.ContentWidth(width), 70)

	var b strings.Builder
	b.WriteString(theme.Title.Render("Configura tu clave de API"))
	b.WriteString("\n\n")
	b.WriteString(theme.Body.Width(w).Render(
		"Para generar y corregir cuestionarios se necesita una clave de " + s.provider +
			". Se guarda solo en este equipo."))
	b.WriteString("\n\n")
	b.WriteString(s.input.View())
	if s.saving {
		b.WriteString("\n\n" + theme.Hint.Render("Guardando..."))
	}

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, theme.Card.Render(b.String()))
}
