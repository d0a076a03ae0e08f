// Package screen is the contract between the app and its screens: the
// Screen interface and the requests screens send up to the app.
package screen

import (
	tea "charm.land/bubbletea/v2"

	"github.com/cazamitos/cazamitos/internal/session"
	"github.com/cazamitos/cazamitos/internal/ui/layout"
)

// Screen defines the interface for all application screens.
type Screen interface {
	// Init returns an initial command when the screen is first created.
	Init() tea.Cmd

	// Update handles messages and returns updated screen + command.
	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the screen content (excluding header/footer).
	View(width, height int) string

	// Title returns the screen name for the header.
	Title() string
}

// KeyHintProvider is an optional interface that screens can implement
// to provide custom footer key hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// TextEntry is implemented by screens that currently capture typed
// text, so the app does not treat letters as shortcuts.
type TextEntry interface {
	CapturingText() bool
}

// GenerateMsg asks the app to build a quiz from Source.
type GenerateMsg struct {
	Source session.Source
}

// SubmitMsg asks the app to send the answers for evaluation.
type SubmitMsg struct{}

// KeySavedMsg reports that a new API key is stored and in use.
type KeySavedMsg struct{}

// IdentityMsg reports that the learner filled in who they are.
type IdentityMsg struct {
	Identity session.Identity
}

// StartOverMsg asks the app to abandon the attempt.
type StartOverMsg struct{}

// ChangeKeyMsg asks the app to forget the stored key and start over.
type ChangeKeyMsg struct{}

// Send wraps msg in a command.
func Send(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}
