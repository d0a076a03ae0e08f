// Package app is the root Bubble Tea model. It routes between screens
// according to the quiz session's phase.
package app

import (
	"context"
	"fmt"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"go.uber.org/zap"

	"github.com/cazamitos/cazamitos/internal/materials"
	"github.com/cazamitos/cazamitos/internal/router"
	"github.com/cazamitos/cazamitos/internal/screen"
	"github.com/cazamitos/cazamitos/internal/screens/apikey"
	"github.com/cazamitos/cazamitos/internal/screens/identity"
	"github.com/cazamitos/cazamitos/internal/screens/loading"
	"github.com/cazamitos/cazamitos/internal/screens/material"
	"github.com/cazamitos/cazamitos/internal/screens/quiz"
	"github.com/cazamitos/cazamitos/internal/screens/results"
	"github.com/cazamitos/cazamitos/internal/screens/welcome"
	"github.com/cazamitos/cazamitos/internal/session"
	"github.com/cazamitos/cazamitos/internal/ui/layout"
)

// Options wires the app to the session and the key store.
type Options struct {
	Machine *session.Machine

	// Provider names the model provider on the key screen.
	Provider string

	// HasKey reports whether a usable API key was found at startup.
	HasKey bool

	// SaveKey stores a key and installs a gateway built from it.
	SaveKey apikey.SaveFunc

	// ForgetKey deletes the stored key.
	ForgetKey func() error

	MaterialsDir string
	Catalog      materials.Catalog

	// SkipWelcome starts directly on the first working screen.
	SkipWelcome bool

	Logger *zap.Logger
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	opts    Options
	machine *session.Machine
	router  *router.Router
	logger  *zap.Logger
	hasKey  bool
	width   int
	height  int

	// op tracks the in-flight generation or evaluation.
	op *operation
}

type operation struct {
	seq    uint64
	cancel context.CancelFunc
}

// opDoneMsg reports that a session operation finished. Its error is
// already recorded on the session.
type opDoneMsg struct {
	seq uint64
	err error
}

// New creates the root model.
func New(opts Options) AppModel {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	m := AppModel{
		opts:    opts,
		machine: opts.Machine,
		logger:  opts.Logger,
		hasKey:  opts.HasKey,
		op:      &operation{},
	}
	if opts.SkipWelcome {
		m.router = router.New(m.firstScreen())
	} else {
		m.router = router.New(welcome.New(m.firstScreen))
	}
	return m
}

// firstScreen is where a learner lands: the key screen until a key is
// configured, then the identity form until it is complete.
func (m AppModel) firstScreen() screen.Screen {
	if !m.hasKey {
		return apikey.New(m.opts.Provider, m.opts.SaveKey)
	}
	id := m.machine.State().Identity
	if id.Name == "" || id.Email == "" || id.Subject == "" || id.Topic == "" {
		return identity.New(id)
	}
	return material.New(m.opts.MaterialsDir, m.opts.Catalog)
}

// phaseScreen is the screen for the session's current phase.
func (m AppModel) phaseScreen() screen.Screen {
	switch m.machine.Phase() {
	case session.PhaseGeneratingQuiz:
		return loading.New(loading.Generating)
	case session.PhaseTakingQuiz:
		return quiz.New(m.machine)
	case session.PhaseEvaluating:
		return loading.New(loading.Evaluating)
	case session.PhaseShowingResults:
		return results.New(m.machine)
	}
	return m.firstScreen()
}

func (m AppModel) Init() tea.Cmd {
	return m.router.Active().Init()
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c":
			m.abort()
			return m, tea.Quit
		case "q":
			if t, ok := m.router.Active().(screen.TextEntry); !ok || !t.CapturingText() {
				m.abort()
				return m, tea.Quit
			}
		case "ctrl+r":
			return m, m.startOver()
		case "ctrl+k":
			m.hasKey = false
			return m, m.changeKey()
		case "esc":
			if m.machine.Err() != nil {
				m.machine.DismissError()
				return m, nil
			}
		}

	case screen.KeySavedMsg:
		m.hasKey = true
		m.logger.Info("api key configured")
		return m, m.router.Reset(m.firstScreen())

	case screen.IdentityMsg:
		m.machine.SetIdentity(msg.Identity)
		return m, m.router.Reset(m.firstScreen())

	case screen.GenerateMsg:
		src := msg.Source
		return m, m.run(loading.Generating, func(ctx context.Context) error {
			return m.machine.Generate(ctx, src)
		})

	case screen.SubmitMsg:
		return m, m.run(loading.Evaluating, m.machine.Submit)

	case opDoneMsg:
		if msg.seq != m.op.seq {
			return m, nil
		}
		m.op.cancel = nil
		if msg.err != nil {
			m.logger.Debug("session operation failed", zap.Error(msg.err))
		}
		return m, m.router.Reset(m.phaseScreen())

	case screen.StartOverMsg:
		return m, m.startOver()

	case screen.ChangeKeyMsg:
		m.hasKey = false
		return m, m.changeKey()
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

// run shows a spinner and performs op off the UI goroutine.
func (m AppModel) run(label string, op func(context.Context) error) tea.Cmd {
	m.abort()
	ctx, cancel := context.WithCancel(context.Background())
	m.op.seq++
	m.op.cancel = cancel
	seq := m.op.seq
	return tea.Batch(
		m.router.Reset(loading.New(label)),
		func() tea.Msg {
			defer cancel()
			return opDoneMsg{seq: seq, err: op(ctx)}
		},
	)
}

// abort cancels the in-flight operation; its completion is ignored.
func (m AppModel) abort() {
	if m.op.cancel != nil {
		m.op.cancel()
		m.op.cancel = nil
	}
	m.op.seq++
}

func (m AppModel) startOver() tea.Cmd {
	m.abort()
	m.machine.StartOver()
	return m.router.Reset(m.firstScreen())
}

// changeKey forgets the stored key and starts over on the key screen.
// The caller clears hasKey.
func (m AppModel) changeKey() tea.Cmd {
	if m.opts.ForgetKey != nil {
		if err := m.opts.ForgetKey(); err != nil {
			m.logger.Warn("failed to remove stored api key", zap.Error(err))
		}
	}
	m.machine.SetGateway(nil)
	m.logger.Info("api key cleared")
	return m.startOver()
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}
	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	id := m.machine.State().Identity
	subtitle := ""
	if id.Subject != "" {
		subtitle = id.Subject
		if id.Topic != "" {
			subtitle += " · " + id.Topic
		}
	}
	header := layout.RenderHeader(active.Title(), subtitle, m.width)

	alert := ""
	if e := m.machine.Err(); e != nil {
		alert = layout.RenderAlert(e.Message, m.width)
	}

	hints := []layout.KeyHint{{Key: "Ctrl+C", Description: "Salir"}}
	if p, ok := active.(screen.KeyHintProvider); ok {
		hints = p.KeyHints()
	}
	footer := layout.RenderFooter(hints, m.width)

	contentHeight := m.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if alert != "" {
		contentHeight -= lipgloss.Height(alert)
	}
	if contentHeight < 0 {
		contentHeight = 0
	}

	content := m.router.View(m.width, contentHeight)
	v.SetContent(layout.RenderFrame(header, alert, content, footer, m.width, m.height))
	return v
}

// Run starts the Bubble Tea program and blocks until it exits.
func Run(opts Options) error {
	defer opts.Machine.Close()

	p := tea.NewProgram(New(opts))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running quiz: %w", err)
	}
	return nil
}
