package results

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/cazamitos/cazamitos/internal/quiz"
	res "github.com/cazamitos/cazamitos/internal/results"
	"github.com/cazamitos/cazamitos/internal/router"
	"github.com/cazamitos/cazamitos/internal/screen"
	"github.com/cazamitos/cazamitos/internal/session"
)

type fakeSession struct {
	state      session.State
	commentary string
	pending    bool
	rated      bool
	ratings    []int
	err        error
}

func (f *fakeSession) State() session.State { return f.state }

func (f *fakeSession) Score() (int, int, int) {
	c := quiz.Score(f.state.Evaluations)
	n := len(f.state.Questions)
	return c, n, quiz.Percentage(c, n)
}

func (f *fakeSession) Commentary() (string, bool) { return f.commentary, f.pending }
func (f *fakeSession) Rated() bool                { return f.rated }

func (f *fakeSession) RateDifficulty(_ context.Context, d int) (res.Receipt, error) {
	f.ratings = append(f.ratings, d)
	if f.err != nil {
		return res.Receipt{}, f.err
	}
	f.rated = true
	return res.Receipt{Success: true, TotalResults: 7}, nil
}

func graded() *fakeSession {
	one := 1
	zero := 0
	return &fakeSession{state: session.State{
		Questions: []quiz.Question{
			{Question: "¿Los precios máximos abaratan la vivienda?", Options: []string{"Sí", "No", "A veces", "Nunca"}, CorrectOptionIndex: 1, MythExplanation: "Mito del control de alquileres."},
			{Question: "¿El comercio es un juego de suma cero?", Options: []string{"Sí", "No", "Depende", "Solo entre países"}, CorrectOptionIndex: 1},
		},
		Answers: []*int{&one, &zero},
		Evaluations: []quiz.Evaluation{
			{IsCorrect: true, CorrectAnswer: "No", StudentAnswer: "No", Explanation: "Reducen la oferta."},
			{IsCorrect: false, CorrectAnswer: "No", StudentAnswer: "Sí", Explanation: "Ambas partes ganan."},
		},
	}}
}

func keyPress(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func TestViewShowsScore(t *testing.T) {
	s := New(graded())
	view := s.View(120, 40)
	for _, want := range []string{"50%", "1 de 2 correctas", "comercio es un juego"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestCommentaryStates(t *testing.T) {
	f := graded()
	s := New(f)

	f.pending = true
	if !strings.Contains(s.View(120, 40), "Preparando un comentario") {
		t.Error("pending commentary not shown")
	}
	if _, cmd := s.Update(pollMsg(time.Now())); cmd == nil {
		t.Error("should keep polling while pending")
	}

	f.pending = false
	f.commentary = "Repasa el comercio internacional."
	if !strings.Contains(s.View(120, 40), "Repasa el comercio") {
		t.Error("commentary text not shown")
	}
	if _, cmd := s.Update(pollMsg(time.Now())); cmd != nil {
		t.Error("should stop polling once settled")
	}
}

func TestRateDifficulty(t *testing.T) {
	f := graded()
	s := New(f)

	_, cmd := s.Update(keyPress('4'))
	if cmd == nil {
		t.Fatal("rating should start saving")
	}
	s.Update(cmd())

	if len(f.ratings) != 1 || f.ratings[0] != 4 {
		t.Errorf("ratings = %v", f.ratings)
	}
	if !strings.Contains(s.status, "7 en total") {
		t.Errorf("status = %q", s.status)
	}

	if _, cmd := s.Update(keyPress('2')); cmd != nil {
		t.Error("second rating should be ignored")
	}
}

func TestRateDifficultyFailure(t *testing.T) {
	f := graded()
	f.err = errors.New("results endpoint returned 500")
	s := New(f)

	_, cmd := s.Update(keyPress('3'))
	s.Update(cmd())

	if !s.failed || !strings.Contains(s.status, "No se pudieron guardar") {
		t.Errorf("status = %q failed=%v", s.status, s.failed)
	}

	f.err = nil
	_, cmd = s.Update(keyPress('3'))
	if cmd == nil {
		t.Fatal("a failed rating should be retryable")
	}
	s.Update(cmd())
	if s.failed || len(f.ratings) != 2 || !f.rated {
		t.Errorf("retry: failed=%v ratings=%v rated=%v", s.failed, f.ratings, f.rated)
	}
}

func TestStartOverAndChangeKey(t *testing.T) {
	s := New(graded())

	_, cmd := s.Update(keyPress('n'))
	if _, ok := cmd().(screen.StartOverMsg); !ok {
		t.Error("n should start over")
	}
	_, cmd = s.Update(keyPress('k'))
	if _, ok := cmd().(screen.ChangeKeyMsg); !ok {
		t.Error("k should ask to change the key")
	}
}

func TestEnterOpensDetail(t *testing.T) {
	s := New(graded())
	s.Update(tea.KeyPressMsg{Code: tea.KeyDown})

	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter should open the detail")
	}
	push, ok := cmd().(router.PushScreenMsg)
	if !ok {
		t.Fatalf("expected PushScreenMsg, got %T", cmd())
	}
	d, ok := push.Screen.(*DetailScreen)
	if !ok || d.index != 1 {
		t.Fatalf("detail = %#v", push.Screen)
	}

	view := d.View(120, 40)
	for _, want := range []string{"Respuesta Correcta", "Ambas partes ganan"} {
		if !strings.Contains(view, want) {
			t.Errorf("detail view missing %q", want)
		}
	}
}

func TestDetailNavigation(t *testing.T) {
	d := NewDetail(graded().state, 0)

	if !strings.Contains(d.View(120, 40), "Mito del control") {
		t.Error("myth explanation missing")
	}
	if _, cmd := d.Update(tea.KeyPressMsg{Code: tea.KeyLeft}); cmd != nil {
		t.Error("no previous question")
	}
	_, cmd := d.Update(tea.KeyPressMsg{Code: tea.KeyRight})
	replace, ok := cmd().(router.ReplaceScreenMsg)
	if !ok || replace.Screen.(*DetailScreen).index != 1 {
		t.Errorf("right should replace with question 2, got %#v", cmd())
	}
	_, cmd = d.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	if _, ok := cmd().(router.PopScreenMsg); !ok {
		t.Error("esc should pop")
	}
}
