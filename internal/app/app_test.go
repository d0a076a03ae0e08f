package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/cazamitos/cazamitos/internal/quiz"
	"github.com/cazamitos/cazamitos/internal/screen"
	"github.com/cazamitos/cazamitos/internal/screens/apikey"
	"github.com/cazamitos/cazamitos/internal/screens/identity"
	"github.com/cazamitos/cazamitos/internal/screens/loading"
	"github.com/cazamitos/cazamitos/internal/screens/material"
	quizscreen "github.com/cazamitos/cazamitos/internal/screens/quiz"
	"github.com/cazamitos/cazamitos/internal/screens/results"
	"github.com/cazamitos/cazamitos/internal/session"
)

type stubGateway struct {
	genErr error
}

func (g *stubGateway) GenerateQuiz(context.Context, string) ([]quiz.Question, error) {
	if g.genErr != nil {
		return nil, g.genErr
	}
	return []quiz.Question{{
		Question:           "¿Qué es el coste de oportunidad?",
		Options:            []string{"La mejor alternativa a la que se renuncia", "El precio", "Nada", "Un impuesto"},
		CorrectOptionIndex: 0,
		MythExplanation:    "Se confunde coste con precio.",
	}}, nil
}

func (g *stubGateway) Evaluate(_ context.Context, _ string, qs []quiz.Question, as []quiz.StudentAnswer) ([]quiz.Evaluation, error) {
	evals := make([]quiz.Evaluation, len(qs))
	for i := range qs {
		correct := qs[i].Options[qs[i].CorrectOptionIndex]
		evals[i] = quiz.Evaluation{IsCorrect: as[i].SelectedAnswer == correct, CorrectAnswer: correct, StudentAnswer: as[i].SelectedAnswer}
	}
	return evals, nil
}

func (g *stubGateway) GenerateCommentary(context.Context, quiz.CommentaryInput) (string, error) {
	return "Bien.", nil
}

var learner = session.Identity{Name: "Ana", Email: "ana@example.com", Subject: "Economía", Topic: "Tema 1"}

func newTestApp(t *testing.T, gw session.Gateway, hasKey bool) (AppModel, *session.Machine) {
	t.Helper()
	m := session.New(session.Options{Gateway: gw})
	t.Cleanup(m.Close)
	if hasKey {
		m.SetIdentity(learner)
	}
	a := New(Options{
		Machine:     m,
		Provider:    "Gemini",
		HasKey:      hasKey,
		SaveKey:     func(string) error { return nil },
		SkipWelcome: true,
	})
	return a, m
}

func update(a AppModel, msg tea.Msg) (AppModel, tea.Cmd) {
	model, cmd := a.Update(msg)
	return model.(AppModel), cmd
}

// finish runs the batch produced by a session request and returns the
// completion message. Screen init commands are skipped.
func finish(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	msg := cmd()
	batch, ok := msg.(tea.BatchMsg)
	if !ok {
		return msg
	}
	for _, c := range batch {
		if c == nil {
			continue
		}
		// The operation is the last command of the batch.
		msg = c()
	}
	if _, ok := msg.(opDoneMsg); !ok {
		t.Fatalf("expected opDoneMsg, got %T", msg)
	}
	return msg
}

func TestStartsOnKeyScreenWithoutKey(t *testing.T) {
	a, _ := newTestApp(t, nil, false)
	if _, ok := a.router.Active().(*apikey.Screen); !ok {
		t.Fatalf("active = %T, want key screen", a.router.Active())
	}

	a, _ = update(a, screen.KeySavedMsg{})
	if _, ok := a.router.Active().(*identity.Screen); !ok {
		t.Fatalf("after key saved active = %T, want identity form", a.router.Active())
	}

	a, _ = update(a, screen.IdentityMsg{Identity: learner})
	if _, ok := a.router.Active().(*material.Screen); !ok {
		t.Fatalf("after identity active = %T, want material screen", a.router.Active())
	}
	if a.machine.State().Identity != learner {
		t.Error("identity not stored on the session")
	}
}

func TestGenerateAnswerAndEvaluate(t *testing.T) {
	a, m := newTestApp(t, &stubGateway{}, true)

	a, cmd := update(a, screen.GenerateMsg{Source: session.Source{Text: "material"}})
	if _, ok := a.router.Active().(*loading.Screen); !ok {
		t.Fatalf("active = %T, want spinner", a.router.Active())
	}
	a, _ = update(a, finish(t, cmd))
	if _, ok := a.router.Active().(*quizscreen.Screen); !ok {
		t.Fatalf("active = %T, want quiz", a.router.Active())
	}

	if err := m.Select(0, 0); err != nil {
		t.Fatal(err)
	}
	a, cmd = update(a, screen.SubmitMsg{})
	a, _ = update(a, finish(t, cmd))
	if _, ok := a.router.Active().(*results.Screen); !ok {
		t.Fatalf("active = %T, want results", a.router.Active())
	}
	if c, n, pct := m.Score(); c != 1 || n != 1 || pct != 100 {
		t.Errorf("score = %d/%d %d%%", c, n, pct)
	}
}

func TestGenerationFailureShowsBanner(t *testing.T) {
	a, m := newTestApp(t, &stubGateway{genErr: quiz.ErrGenerationFailed}, true)
	a, _ = update(a, tea.WindowSizeMsg{Width: 100, Height: 30})

	a, cmd := update(a, screen.GenerateMsg{Source: session.Source{Text: "material"}})
	a, _ = update(a, finish(t, cmd))

	if _, ok := a.router.Active().(*material.Screen); !ok {
		t.Fatalf("active = %T, want material screen", a.router.Active())
	}
	e := m.Err()
	if e == nil || e.Kind != session.KindGenerationFailed {
		t.Fatalf("session error = %v, want generation failure", e)
	}
	if strings.TrimSpace(e.Message) == "" {
		t.Error("banner message is empty")
	}

	update(a, tea.KeyPressMsg{Code: tea.KeyEscape})
	if m.Err() != nil {
		t.Error("esc should dismiss the banner")
	}
}

func TestStaleCompletionIgnoredAfterStartOver(t *testing.T) {
	a, _ := newTestApp(t, &stubGateway{}, true)

	a, cmd := update(a, screen.GenerateMsg{Source: session.Source{Text: "material"}})
	a, _ = update(a, tea.KeyPressMsg{Code: 'r', Mod: tea.ModCtrl})
	if _, ok := a.router.Active().(*material.Screen); !ok {
		t.Fatalf("active = %T, want material screen", a.router.Active())
	}

	a, _ = update(a, finish(t, cmd))
	if _, ok := a.router.Active().(*material.Screen); !ok {
		t.Errorf("stale completion navigated to %T", a.router.Active())
	}
}

func TestChangeKeyForgetsAndStartsOver(t *testing.T) {
	forgot := 0
	m := session.New(session.Options{Gateway: &stubGateway{}})
	t.Cleanup(m.Close)
	m.SetIdentity(learner)
	a := New(Options{
		Machine:     m,
		HasKey:      true,
		SaveKey:     func(string) error { return nil },
		ForgetKey:   func() error { forgot++; return errors.New("already gone") },
		SkipWelcome: true,
	})

	a, _ = update(a, screen.ChangeKeyMsg{})

	if forgot != 1 {
		t.Errorf("ForgetKey called %d times", forgot)
	}
	if _, ok := a.router.Active().(*apikey.Screen); !ok {
		t.Fatalf("active = %T, want key screen", a.router.Active())
	}
	err := m.Generate(context.Background(), session.Source{Text: "material"})
	var se *session.Error
	if !errors.As(err, &se) || se.Kind != session.KindAPIKeyMissing {
		t.Errorf("gateway should be cleared, got %v", err)
	}
	if m.State().Identity != learner {
		t.Error("identity should survive changing the key")
	}
}

func TestQuitKeys(t *testing.T) {
	a, _ := newTestApp(t, &stubGateway{}, true)

	_, cmd := update(a, tea.KeyPressMsg{Code: 'q', Text: "q"})
	if cmd == nil {
		t.Fatal("q on the material menu should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Errorf("expected QuitMsg, got %T", cmd())
	}

	b, _ := newTestApp(t, nil, false)
	_, cmd = update(b, tea.KeyPressMsg{Code: 'q', Text: "q"})
	if cmd != nil {
		if _, quit := cmd().(tea.QuitMsg); quit {
			t.Error("q while typing the key should not quit")
		}
	}
}
