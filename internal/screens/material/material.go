// Package material lets the learner choose the course text to be quizzed
// on: pasted text, a file on disk, or a document from the catalog.
package material

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/cazamitos/cazamitos/internal/materials"
	"github.com/cazamitos/cazamitos/internal/screen"
	"github.com/cazamitos/cazamitos/internal/session"
	"github.com/cazamitos/cazamitos/internal/ui/components"
	"github.com/cazamitos/cazamitos/internal/ui/layout"
	"github.com/cazamitos/cazamitos/internal/ui/theme"
)

type mode int

const (
	modeMenu mode = iota
	modeText
	modeFile
	modeCatalog
)

type modeMsg mode

// Screen offers the material sources.
type Screen struct {
	dir     string
	catalog materials.Catalog

	mode    mode
	menu    components.Menu
	text    components.TextInput
	file    components.TextInput
	refs    []materials.Ref
	listing components.Menu
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)
var _ screen.TextEntry = (*Screen)(nil)

// New creates the screen. catalog may be empty, in which case the
// catalog option is disabled.
func New(dir string, catalog materials.Catalog) *Screen {
	s := &Screen{
		dir:     dir,
		catalog: catalog,
		text:    components.NewTextInput("Material del curso", "Pega el material de tu curso aquí...", 0),
		file:    components.NewTextInput("Ruta del archivo", "apuntes/tema1.pdf", 0),
	}

	for _, subject := range catalog.Subjects() {
		for _, f := range catalog[subject] {
			s.refs = append(s.refs, materials.Ref{Subject: subject, File: f})
		}
	}
	items := make([]components.MenuItem, len(s.refs))
	for i, ref := range s.refs {
		items[i] = components.MenuItem{
			Label: ref.Topic(),
			Hint:  ref.Subject,
			Action: func() tea.Cmd {
				return s.pick(i)
			},
		}
	}
	s.listing = components.NewMenu(items)
	s.listing.Visible = 10

	s.menu = components.NewMenu([]components.MenuItem{
		{Label: "Pegar texto", Action: func() tea.Cmd { return screen.Send(modeMsg(modeText)) }},
		{Label: "Archivo PDF o de texto", Action: func() tea.Cmd { return screen.Send(modeMsg(modeFile)) }},
		{
			Label:    "Material del curso",
			Hint:     catalogHint(len(s.refs)),
			Disabled: len(s.refs) == 0,
			Action:   func() tea.Cmd { return screen.Send(modeMsg(modeCatalog)) },
		},
	})
	return s
}

func catalogHint(n int) string {
	switch n {
	case 0:
		return "no hay documentos"
	case 1:
		return "1 documento"
	}
	return fmt.Sprintf("%d documentos", n)
}

func (s *Screen) Init() tea.Cmd {
	return nil
}

func (s *Screen) Title() string {
	return "Material"
}

func (s *Screen) CapturingText() bool {
	return s.mode == modeText || s.mode == modeFile
}

func (s *Screen) KeyHints() []layout.KeyHint {
	if s.mode == modeMenu {
		return []layout.KeyHint{
			{Key: "↑↓", Description: "Elegir"},
			{Key: "Enter", Description: "Aceptar"},
			{Key: "Ctrl+K", Description: "Cambiar clave"},
			{Key: "Ctrl+C", Description: "Salir"},
		}
	}
	return []layout.KeyHint{
		{Key: "Enter", Description: "Generar cuestionario"},
		{Key: "Esc", Description: "Volver"},
		{Key: "Ctrl+C", Description: "Salir"},
	}
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if m, ok := msg.(modeMsg); ok {
		return s, s.enter(mode(m))
	}

	kmsg, isKey := msg.(tea.KeyPressMsg)
	if isKey && kmsg.String() == "esc" && s.mode != modeMenu {
		s.text.Blur()
		s.file.Blur()
		s.mode = modeMenu
		return s, nil
	}

	var cmd tea.Cmd
	switch s.mode {
	case modeMenu:
		s.menu, cmd = s.menu.Update(msg)
	case modeCatalog:
		s.listing, cmd = s.listing.Update(msg)
	case modeText:
		if isKey && kmsg.String() == "enter" {
			return s.submitText()
		}
		s.text, cmd = s.text.Update(msg)
	case modeFile:
		if isKey && kmsg.String() == "enter" {
			return s.submitFile()
		}
		s.file, cmd = s.file.Update(msg)
	}
	return s, cmd
}

func (s *Screen) enter(m mode) tea.Cmd {
	s.mode = m
	switch m {
	case modeText:
		return s.text.Focus()
	case modeFile:
		return s.file.Focus()
	}
	return nil
}

func (s *Screen) submitText() (screen.Screen, tea.Cmd) {
	text := s.text.Value()
	if text == "" {
		s.text.Err = "El material está vacío."
		return s, nil
	}
	return s, screen.Send(screen.GenerateMsg{Source: session.Source{Text: text}})
}

func (s *Screen) submitFile() (screen.Screen, tea.Cmd) {
	path := s.file.Value()
	if path == "" {
		s.file.Err = "Indica la ruta de un archivo."
		return s, nil
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	return s, screen.Send(screen.GenerateMsg{Source: session.Source{File: path}})
}

func (s *Screen) pick(i int) tea.Cmd {
	path, err := materials.Resolve(s.dir, s.refs[i])
	if err != nil {
		// The catalog is stale; fall back to typing the path.
		s.file.SetValue(filepath.Join(s.dir, s.refs[i].Subject, s.refs[i].File))
		s.file.Err = "No se encontró el documento en el catálogo."
		return screen.Send(modeMsg(modeFile))
	}
	return screen.Send(screen.GenerateMsg{Source: session.Source{File: path}})
}

func (s *Screen) View(width, height int) string {
	w := layout.ContentWidth(width)

	var b strings.Builder
	b.WriteString(theme.Title.Render("¿Sobre qué material quieres el cuestionario?"))
	b.WriteString("\n\n")

	switch s.mode {
	case modeMenu:
		b.WriteString(s.menu.View())
	case modeText:
		b.WriteString(s.text.View())
		b.WriteString("\n\n" + theme.Hint.Width(w).Render("Puedes pegar el texto completo de un tema. Enter para generar."))
	case modeFile:
		b.WriteString(s.file.View())
		b.WriteString("\n\n" + theme.Hint.Width(w).Render("Admite PDF, .txt y .md."))
	case modeCatalog:
		b.WriteString(theme.Label.Render("Material del curso"))
		b.WriteString("\n\n")
		b.WriteString(s.listing.View())
	}

	return lipgloss.NewStyle().Padding(1, 2).Width(width).Render(b.String())
}
