// Package session drives one learner through a quiz attempt:
// material input, generation, answering, evaluation and results.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cazamitos/cazamitos/internal/extract"
	"github.com/cazamitos/cazamitos/internal/quiz"
	"github.com/cazamitos/cazamitos/internal/results"
	"github.com/cazamitos/cazamitos/internal/tracker"
)

// Phase is the step of the quiz lifecycle the session is in.
type Phase int

const (
	PhaseInput Phase = iota
	PhaseGeneratingQuiz
	PhaseTakingQuiz
	PhaseEvaluating
	PhaseShowingResults
)

func (p Phase) String() string {
	switch p {
	case PhaseInput:
		return "Input"
	case PhaseGeneratingQuiz:
		return "GeneratingQuiz"
	case PhaseTakingQuiz:
		return "TakingQuiz"
	case PhaseEvaluating:
		return "Evaluating"
	case PhaseShowingResults:
		return "ShowingResults"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// Gateway is the AI capability the session depends on.
type Gateway interface {
	GenerateQuiz(ctx context.Context, material string) ([]quiz.Question, error)
	Evaluate(ctx context.Context, material string, questions []quiz.Question, answers []quiz.StudentAnswer) ([]quiz.Evaluation, error)
	GenerateCommentary(ctx context.Context, in quiz.CommentaryInput) (string, error)
}

// Identity is who is taking the quiz and on what. It survives start over.
type Identity struct {
	Name    string
	Email   string
	Subject string
	Topic   string
}

// Source is the material to generate from: pasted text or a file path,
// never both.
type Source struct {
	Text string
	File string
}

// State is the session context of one attempt. StartOver replaces it
// with a fresh value rather than clearing fields.
type State struct {
	// ID keys background work to this attempt.
	ID string

	Identity Identity

	// Material is the resolved course text.
	Material string

	Questions []quiz.Question

	// Answers holds the selected option per question, nil if unanswered.
	Answers []*int

	Evaluations []quiz.Evaluation

	// Behavior is set at evaluation time. Difficulty and comment are
	// added to it later.
	Behavior *results.BehaviorData

	ElapsedSeconds int

	Commentary string
}

func newState(id Identity) *State {
	return &State{ID: uuid.NewString(), Identity: id}
}

// Options configures a Machine.
type Options struct {
	// Gateway may be nil until an API key is configured.
	Gateway Gateway

	// Submitter receives finished records. Nil disables submission.
	Submitter results.Submitter

	// Extract reads material files. Defaults to extract.File.
	Extract func(path string) (string, error)

	Logger *zap.Logger
	Now    func() time.Time
}

// commentaryTask is the detached commentary request of one attempt.
type commentaryTask struct {
	sessionID string
	cancel    context.CancelFunc
	done      bool

	// resubmit asks for the record to be submitted again once a
	// non-empty commentary arrives.
	resubmit bool
}

// Machine is the quiz lifecycle state machine. All methods are safe for
// concurrent use; blocking operations release the lock while they wait
// on the gateway, and their results are dropped if the attempt was
// restarted in the meantime.
type Machine struct {
	mu sync.Mutex

	gateway   Gateway
	submitter results.Submitter
	extract   func(string) (string, error)
	logger    *zap.Logger
	now       func() time.Time

	phase   Phase
	state   *State
	err     *Error
	tracker *tracker.Tracker
	task    *commentaryTask
	rated   bool

	// rating is set while the rating submission is in flight. A commentary
	// resubmission that becomes ready meanwhile is parked in held and sent
	// after it, so the newer record always lands last.
	rating bool
	held   *results.Record

	wg sync.WaitGroup
}

// New creates a Machine in the Input phase.
func New(opts Options) *Machine {
	if opts.Extract == nil {
		opts.Extract = extract.File
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Machine{
		gateway:   opts.Gateway,
		submitter: opts.Submitter,
		extract:   opts.Extract,
		logger:    opts.Logger,
		now:       opts.Now,
		phase:     PhaseInput,
		state:     newState(Identity{}),
	}
}

// SetGateway swaps the AI gateway, e.g. after the API key changes.
func (m *Machine) SetGateway(g Gateway) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gateway = g
}

// SetIdentity records who is taking the quiz.
func (m *Machine) SetIdentity(id Identity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Identity = id
}

// Phase returns the current phase.
func (m *Machine) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// State returns a copy of the session context.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := *m.state
	s.Answers = append([]*int(nil), m.state.Answers...)
	s.Behavior = m.state.Behavior.Clone()
	return s
}

// Err returns the pending error banner, if any.
func (m *Machine) Err() *Error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// DismissError clears the banner without touching anything else.
func (m *Machine) DismissError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = nil
}

// Generate resolves src to text and asks the gateway for a quiz. On
// success the session moves to TakingQuiz; on any failure it returns to
// Input with the error set.
func (m *Machine) Generate(ctx context.Context, src Source) error {
	m.mu.Lock()
	if m.phase != PhaseInput {
		phase := m.phase
		m.mu.Unlock()
		return fmt.Errorf("generate in %s: %w", phase, ErrWrongPhase)
	}
	if m.gateway == nil {
		m.err = newError(KindAPIKeyMissing, nil)
		e := m.err
		m.mu.Unlock()
		return e
	}
	if src.Text != "" && src.File != "" {
		m.err = newError(KindMaterialEmpty, errors.New("both text and file given"))
		m.err.Message = "Usa texto pegado o un archivo, no ambos."
		e := m.err
		m.mu.Unlock()
		return e
	}
	m.err = nil
	m.phase = PhaseGeneratingQuiz
	id := m.state.ID
	gw := m.gateway
	m.mu.Unlock()

	material, questions, err := m.generate(ctx, gw, src)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.ID != id {
		return nil
	}
	if err != nil {
		m.phase = PhaseInput
		m.err = classify(err, KindGenerationFailed)
		m.logger.Warn("quiz generation failed", zap.String("session", id), zap.Error(err))
		return m.err
	}

	m.state.Material = material
	m.state.Questions = questions
	m.state.Answers = make([]*int, len(questions))
	m.tracker = tracker.New(len(questions), m.now())
	m.phase = PhaseTakingQuiz
	m.logger.Info("quiz generated", zap.String("session", id), zap.Int("questions", len(questions)))
	return nil
}

func (m *Machine) generate(ctx context.Context, gw Gateway, src Source) (string, []quiz.Question, error) {
	material := src.Text
	if src.File != "" {
		text, err := m.extract(src.File)
		if err != nil {
			return "", nil, err
		}
		material = text
	}
	if strings.TrimSpace(material) == "" {
		return "", nil, newError(KindMaterialEmpty, nil)
	}

	questions, err := gw.GenerateQuiz(ctx, material)
	if err != nil {
		return "", nil, err
	}
	if len(questions) == 0 {
		return "", nil, fmt.Errorf("%w: empty quiz", quiz.ErrGenerationFailed)
	}
	return material, questions, nil
}

// Select records option as the answer to question.
func (m *Machine) Select(question, option int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase != PhaseTakingQuiz {
		return fmt.Errorf("select in %s: %w", m.phase, ErrWrongPhase)
	}
	if question < 0 || question >= len(m.state.Questions) {
		return fmt.Errorf("question %d out of range", question)
	}
	if option < 0 || option >= len(m.state.Questions[question].Options) {
		return fmt.Errorf("option %d out of range", option)
	}
	m.state.Answers[question] = &option
	m.tracker.RecordSelection(question, option, m.now())
	return nil
}

// CanSubmit reports whether every question has an answer.
func (m *Machine) CanSubmit() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase != PhaseTakingQuiz {
		return false
	}
	for _, a := range m.state.Answers {
		if a == nil {
			return false
		}
	}
	return true
}

// Submit sends the answers for evaluation. On success the session moves
// to ShowingResults and a commentary request starts in the background.
// On failure it returns to TakingQuiz with the answers cleared.
func (m *Machine) Submit(ctx context.Context) error {
	m.mu.Lock()
	if m.phase != PhaseTakingQuiz {
		phase := m.phase
		m.mu.Unlock()
		return fmt.Errorf("submit in %s: %w", phase, ErrWrongPhase)
	}
	if m.gateway == nil {
		m.err = newError(KindAPIKeyMissing, nil)
		e := m.err
		m.mu.Unlock()
		return e
	}
	m.err = nil
	m.phase = PhaseEvaluating
	id := m.state.ID
	gw := m.gateway
	material := m.state.Material
	questions := m.state.Questions
	answers := quiz.MapAnswers(questions, m.state.Answers)
	snap := m.tracker.Snapshot(m.now())
	m.mu.Unlock()

	evals, err := gw.Evaluate(ctx, material, questions, answers)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.ID != id {
		return nil
	}
	if err != nil {
		m.phase = PhaseTakingQuiz
		m.state.Answers = make([]*int, len(questions))
		m.tracker = tracker.New(len(questions), m.now())
		m.err = classify(err, KindEvaluationFailed)
		m.logger.Warn("answer evaluation failed", zap.String("session", id), zap.Error(err))
		return m.err
	}

	m.state.Evaluations = evals
	m.state.ElapsedSeconds = snap.ElapsedSeconds()
	m.state.Behavior = &results.BehaviorData{
		QuizStart:          snap.Start,
		QuizEnd:            snap.End,
		SecondsPerQuestion: snap.PerQuestionSeconds,
		AnswerChanges:      snap.AnswerChanges,
	}
	m.phase = PhaseShowingResults
	m.logger.Info("answers evaluated",
		zap.String("session", id),
		zap.Int("correct", quiz.Score(evals)),
		zap.Int("total", len(questions)))

	m.startCommentaryLocked(gw, false)
	return nil
}

// Score returns correct answers, total questions and the rounded
// percentage of the evaluated attempt.
func (m *Machine) Score() (correct, total, percent int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	correct = quiz.Score(m.state.Evaluations)
	total = len(m.state.Questions)
	return correct, total, quiz.Percentage(correct, total)
}

// Commentary returns the commentary, if any, and whether a request for
// it is still running.
func (m *Machine) Commentary() (text string, pending bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Commentary, m.task != nil && !m.task.done
}

// Rated reports whether a difficulty rating was accepted for this attempt.
func (m *Machine) Rated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rated
}

// RateDifficulty stores the learner's 1-5 difficulty rating and submits
// the record. If the commentary is not available yet, it is requested
// (or awaited) and the record is submitted again once it arrives. The
// rating is only final once its submission succeeds; after a failure
// the learner can rate again.
func (m *Machine) RateDifficulty(ctx context.Context, difficulty int) (results.Receipt, error) {
	m.mu.Lock()
	if m.phase != PhaseShowingResults {
		phase := m.phase
		m.mu.Unlock()
		return results.Receipt{}, fmt.Errorf("rate in %s: %w", phase, ErrWrongPhase)
	}
	if difficulty < 1 || difficulty > 5 {
		m.mu.Unlock()
		return results.Receipt{}, fmt.Errorf("difficulty %d out of range 1-5", difficulty)
	}
	if m.rated {
		m.mu.Unlock()
		return results.Receipt{}, errors.New("difficulty already rated for this attempt")
	}
	if m.rating {
		m.mu.Unlock()
		return results.Receipt{}, errors.New("difficulty rating is already being submitted")
	}
	m.rating = true
	id := m.state.ID
	m.state.Behavior.PerceivedDifficulty = &difficulty
	if m.state.Commentary != "" {
		m.state.Behavior.GlobalComment = m.state.Commentary
	}
	rec := m.recordLocked()

	switch {
	case m.state.Commentary != "":
	case m.task != nil && !m.task.done:
		m.task.resubmit = true
	case m.gateway != nil:
		m.startCommentaryLocked(m.gateway, true)
	}
	m.mu.Unlock()

	receipt, err := m.submit(ctx, rec)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.ID != id {
		return receipt, err
	}
	m.rating = false
	held := m.held
	m.held = nil
	if err != nil {
		if m.task != nil && !m.task.done {
			m.task.resubmit = false
		}
		return results.Receipt{}, err
	}
	m.rated = true
	if held != nil {
		m.resubmitLocked(*held)
	}
	return receipt, nil
}

// StartOver abandons the attempt: the session context is replaced, the
// commentary request is cancelled and the phase returns to Input. The
// learner's identity is kept.
func (m *Machine) StartOver() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.task != nil {
		m.task.cancel()
		m.task = nil
	}
	m.state = newState(m.state.Identity)
	m.phase = PhaseInput
	m.err = nil
	m.tracker = nil
	m.rated = false
	m.rating = false
	m.held = nil
}

// Close cancels background work and waits for it to finish.
func (m *Machine) Close() {
	m.mu.Lock()
	if m.task != nil {
		m.task.cancel()
	}
	m.mu.Unlock()
	m.wg.Wait()
}

// Wait blocks until background commentary and re-submissions finish.
func (m *Machine) Wait() { m.wg.Wait() }

func (m *Machine) startCommentaryLocked(gw Gateway, resubmit bool) {
	ctx, cancel := context.WithCancel(context.Background())
	task := &commentaryTask{sessionID: m.state.ID, cancel: cancel, resubmit: resubmit}
	m.task = task

	s := m.state
	in := quiz.CommentaryInput{
		Material:    s.Material,
		Questions:   s.Questions,
		Evaluations: s.Evaluations,
		StudentName: s.Identity.Name,
	}
	if s.Behavior != nil {
		in.Behavior = quiz.BehaviorSummary{
			TotalSeconds:       s.ElapsedSeconds,
			PerQuestionSeconds: append([]int(nil), s.Behavior.SecondsPerQuestion...),
			AnswerChanges:      append([]int(nil), s.Behavior.AnswerChanges...),
		}
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer cancel()
		text, err := gw.GenerateCommentary(ctx, in)
		m.finishCommentary(task, text, err)
	}()
}

func (m *Machine) finishCommentary(task *commentaryTask, text string, err error) {
	m.mu.Lock()
	if m.task != task || m.state.ID != task.sessionID {
		m.mu.Unlock()
		m.logger.Debug("dropping commentary for a finished session", zap.String("session", task.sessionID))
		return
	}
	task.done = true
	if err != nil {
		m.mu.Unlock()
		m.logger.Warn("commentary unavailable", zap.String("session", task.sessionID), zap.Error(err))
		return
	}

	m.state.Commentary = text
	if m.state.Behavior != nil {
		m.state.Behavior.GlobalComment = text
	}
	if !task.resubmit {
		m.mu.Unlock()
		return
	}
	rec := m.recordLocked()
	if m.rating {
		m.held = &rec
	} else {
		m.resubmitLocked(rec)
	}
	m.mu.Unlock()
}

// resubmitLocked sends rec in the background. Callers hold m.mu.
func (m *Machine) resubmitLocked(rec results.Record) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		_, _ = m.submit(context.Background(), rec)
	}()
}

// recordLocked assembles the result record from the current state.
func (m *Machine) recordLocked() results.Record {
	s := m.state
	return results.Record{
		Name:            s.Identity.Name,
		Email:           s.Identity.Email,
		Subject:         s.Identity.Subject,
		Topic:           s.Identity.Topic,
		Score:           quiz.Score(s.Evaluations),
		TotalQuestions:  len(s.Questions),
		ElapsedSeconds:  s.ElapsedSeconds,
		FailedQuestions: quiz.FailedLabels(s.Evaluations),
		Behavior:        s.Behavior.Clone(),
	}
}

func (m *Machine) submit(ctx context.Context, rec results.Record) (results.Receipt, error) {
	if m.submitter == nil {
		return results.Receipt{}, nil
	}
	receipt, err := m.submitter.Submit(ctx, rec)
	if err != nil {
		m.logger.Warn("failed to submit result", zap.String("email", rec.Email), zap.Error(err))
		return results.Receipt{}, fmt.Errorf("submit result: %w", err)
	}
	m.logger.Info("result submitted",
		zap.String("email", rec.Email),
		zap.String("score", receipt.Score),
		zap.Int("total_results", receipt.TotalResults),
		zap.Bool("with_comment", rec.Behavior != nil && rec.Behavior.GlobalComment != ""))
	return receipt, nil
}
