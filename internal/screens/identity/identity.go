// Package identity asks who is taking the quiz and on which subject.
package identity

import (
	"net/mail"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/cazamitos/cazamitos/internal/screen"
	"github.com/cazamitos/cazamitos/internal/session"
	"github.com/cazamitos/cazamitos/internal/ui/components"
	"github.com/cazamitos/cazamitos/internal/ui/layout"
	"github.com/cazamitos/cazamitos/internal/ui/theme"
)

const (
	fieldName = iota
	fieldEmail
	fieldSubject
	fieldTopic
	fieldCount
)

// Screen is a four-field form.
type Screen struct {
	fields [fieldCount]components.TextInput
	focus  int
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)
var _ screen.TextEntry = (*Screen)(nil)

// New creates the form prefilled with prev.
func New(prev session.Identity) *Screen {
	s := &Screen{}
	s.fields[fieldName] = components.NewTextInput("Nombre", "Nombre y apellidos", 120)
	s.fields[fieldEmail] = components.NewTextInput("Email", "tu@correo.es", 254)
	s.fields[fieldSubject] = components.NewTextInput("Asignatura", "Economía Política", 120)
	s.fields[fieldTopic] = components.NewTextInput("Tema", "Tema 1. La Escasez", 160)

	s.fields[fieldName].SetValue(prev.Name)
	s.fields[fieldEmail].SetValue(prev.Email)
	s.fields[fieldSubject].SetValue(prev.Subject)
	s.fields[fieldTopic].SetValue(prev.Topic)
	return s
}

func (s *Screen) Init() tea.Cmd {
	return s.fields[s.focus].Focus()
}

func (s *Screen) Title() string {
	return "Tus datos"
}

func (s *Screen) CapturingText() bool {
	return true
}

func (s *Screen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Tab", Description: "Siguiente campo"},
		{Key: "Enter", Description: "Continuar"},
		{Key: "Ctrl+C", Description: "Salir"},
	}
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyPressMsg); ok {
		switch kmsg.String() {
		case "tab", "down":
			return s, s.move(1)
		case "shift+tab", "up":
			return s, s.move(-1)
		case "enter":
			if s.focus < fieldCount-1 {
				return s, s.move(1)
			}
			return s.submit()
		}
	}

	var cmd tea.Cmd
	s.fields[s.focus], cmd = s.fields[s.focus].Update(msg)
	return s, cmd
}

func (s *Screen) move(delta int) tea.Cmd {
	s.fields[s.focus].Blur()
	s.focus = (s.focus + delta + fieldCount) % fieldCount
	return s.fields[s.focus].Focus()
}

func (s *Screen) submit() (screen.Screen, tea.Cmd) {
	first := -1
	for i := range s.fields {
		s.fields[i].Err = ""
		if s.fields[i].Value() == "" {
			s.fields[i].Err = "Campo obligatorio."
			if first < 0 {
				first = i
			}
		}
	}
	if email := s.fields[fieldEmail].Value(); email != "" {
		if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
			s.fields[fieldEmail].Err = "Email no válido."
			if first < 0 || first > fieldEmail {
				first = fieldEmail
			}
		}
	}
	if first >= 0 {
		return s, s.move(first - s.focus)
	}

	id := session.Identity{
		Name:    s.fields[fieldName].Value(),
		Email:   strings.ToLower(s.fields[fieldEmail].Value()),
		Subject: s.fields[fieldSubject].Value(),
		Topic:   s.fields[fieldTopic].Value(),
	}
	return s, screen.Send(screen.IdentityMsg{Identity: id})
}

func (s *Screen) View(width, height int) string {
	var b strings.Builder
	b.WriteString(theme.Title.Render("Antes de empezar"))
	b.WriteString("\n")
	b.WriteString(theme.Subtitle.Render("Tus resultados se guardan con estos datos."))
	b.WriteString("\n\n")
	for i := range s.fields {
		b.WriteString(s.fields[i].View())
		b.WriteString("\n\n")
	}

	card := theme.Card.Width(min(layout.ContentWidth(width), 70)).Render(strings.TrimRight(b.String(), "\n"))
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, card)
}
