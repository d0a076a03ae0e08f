package material

import (
	"os"
	"path/filepath"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/cazamitos/cazamitos/internal/materials"
	"github.com/cazamitos/cazamitos/internal/screen"
)

func specialKey(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

func typeText(s *Screen, text string) {
	for _, r := range text {
		s.Update(tea.KeyPressMsg{Code: r, Text: string(r)})
	}
}

// run executes cmd. Mode switches are fed back to the screen and yield
// nil; anything else is returned.
func run(t *testing.T, s *Screen, cmd tea.Cmd) tea.Msg {
	t.Helper()
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if m, ok := msg.(modeMsg); ok {
		s.Update(m)
		return nil
	}
	return msg
}

func TestPastedText(t *testing.T) {
	s := New("", nil)

	_, cmd := s.Update(specialKey(tea.KeyEnter))
	run(t, s, cmd)
	if s.mode != modeText || !s.CapturingText() {
		t.Fatalf("mode = %d, want text entry", s.mode)
	}

	typeText(s, "La escasez obliga a elegir.")
	_, cmd = s.Update(specialKey(tea.KeyEnter))
	msg, ok := run(t, s, cmd).(screen.GenerateMsg)
	if !ok {
		t.Fatal("expected GenerateMsg")
	}
	if msg.Source.Text != "La escasez obliga a elegir." || msg.Source.File != "" {
		t.Errorf("source = %+v", msg.Source)
	}
}

func TestEmptyTextRejected(t *testing.T) {
	s := New("", nil)
	s.Update(modeMsg(modeText))

	_, cmd := s.Update(specialKey(tea.KeyEnter))
	if cmd != nil {
		t.Error("empty text should not generate")
	}
	if s.text.Err == "" {
		t.Error("expected inline error")
	}
}

func TestFilePath(t *testing.T) {
	s := New("", nil)
	s.Update(modeMsg(modeFile))
	typeText(s, "apuntes/tema1.pdf")

	_, cmd := s.Update(specialKey(tea.KeyEnter))
	msg, ok := run(t, s, cmd).(screen.GenerateMsg)
	if !ok || msg.Source.File != "apuntes/tema1.pdf" {
		t.Fatalf("got %#v", msg)
	}
}

func TestEscReturnsToMenu(t *testing.T) {
	s := New("", nil)
	s.Update(modeMsg(modeFile))
	s.Update(specialKey(tea.KeyEscape))
	if s.mode != modeMenu || s.CapturingText() {
		t.Errorf("mode = %d, want menu", s.mode)
	}
}

func TestCatalogDisabledWhenEmpty(t *testing.T) {
	s := New("", materials.Catalog{})
	if !s.menu.Items[2].Disabled {
		t.Error("catalog option should be disabled without documents")
	}
}

func TestCatalogPick(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "Economía Política"), 0o755); err != nil {
		t.Fatal(err)
	}
	pdf := filepath.Join(dir, "Economía Política", "Tema 1. La Escasez.pdf")
	if err := os.WriteFile(pdf, []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatal(err)
	}
	catalog := materials.Catalog{"Economía Política": {"Tema 1. La Escasez.pdf"}}

	s := New(dir, catalog)
	s.Update(modeMsg(modeCatalog))
	_, cmd := s.Update(specialKey(tea.KeyEnter))
	msg, ok := run(t, s, cmd).(screen.GenerateMsg)
	if !ok {
		t.Fatal("expected GenerateMsg")
	}
	if msg.Source.File != pdf {
		t.Errorf("file = %q, want %q", msg.Source.File, pdf)
	}
}

func TestCatalogPickMissingFallsBackToPath(t *testing.T) {
	s := New(t.TempDir(), materials.Catalog{"Micro": {"borrado.pdf"}})
	s.Update(modeMsg(modeCatalog))
	_, cmd := s.Update(specialKey(tea.KeyEnter))
	if msg := run(t, s, cmd); msg != nil {
		t.Fatalf("unexpected %T", msg)
	}
	if s.mode != modeFile || s.file.Err == "" {
		t.Errorf("mode=%d err=%q, want file entry with error", s.mode, s.file.Err)
	}
}
