// Package quiz is the AI gateway for the myth quiz: it generates
// questions from course material, evaluates answers and writes a short
// personal commentary.
package quiz

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cazamitos/cazamitos/internal/llm"
)

// BehaviorSummary is the slice of tracked behavior the commentary uses.
type BehaviorSummary struct {
	TotalSeconds       int
	PerQuestionSeconds []int
	AnswerChanges      []int
}

// CommentaryInput is everything the commentary prompt draws on.
type CommentaryInput struct {
	Material    string
	Questions   []Question
	Evaluations []Evaluation
	Behavior    BehaviorSummary
	StudentName string
}

// Gateway wraps an llm.Provider with the three quiz operations.
type Gateway struct {
	provider llm.Provider
	cfg      Config
	logger   *zap.Logger
}

// NewGateway creates a Gateway. A nil logger discards output.
func NewGateway(provider llm.Provider, cfg Config, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{provider: provider, cfg: cfg, logger: logger}
}

// Config returns the gateway configuration.
func (g *Gateway) Config() Config { return g.cfg }

// GenerateQuiz asks for a quiz over material. Questions that break the
// structural rules are dropped; if none survive the call fails with
// ErrGenerationFailed.
func (g *Gateway) GenerateQuiz(ctx context.Context, material string) ([]Question, error) {
	if strings.TrimSpace(material) == "" {
		return nil, fmt.Errorf("%w: empty material", ErrGenerationFailed)
	}
	ctx = llm.WithPurpose(ctx, llm.PurposeQuizGeneration)
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	userMsg, err := render(generationTemplate, generationData{Config: g.cfg, Material: material})
	if err != nil {
		return nil, fmt.Errorf("%w: build prompt: %w", ErrGenerationFailed, err)
	}

	resp, err := g.provider.Generate(ctx, llm.Request{
		System:      generationSystemPrompt,
		Messages:    llm.UserMessage(userMsg),
		Schema:      questionSchema(g.cfg.OptionCount),
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	var raw struct {
		Quiz []Question `json:"quiz"`
	}
	if err := json.Unmarshal(resp.Content, &raw); err != nil {
		return nil, fmt.Errorf("%w: parse response: %w", ErrGenerationFailed, err)
	}

	questions := make([]Question, 0, len(raw.Quiz))
	for i, q := range raw.Quiz {
		if err := q.Validate(g.cfg.OptionCount); err != nil {
			g.logger.Warn("dropping invalid generated question",
				zap.Int("index", i), zap.Error(err))
			continue
		}
		questions = append(questions, q)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: no valid questions in response", ErrGenerationFailed)
	}
	if len(questions) != g.cfg.QuestionCount {
		g.logger.Info("generated question count differs from requested",
			zap.Int("requested", g.cfg.QuestionCount), zap.Int("got", len(questions)))
	}
	return questions, nil
}

// Evaluate grades answers against questions. The result has exactly one
// evaluation per question, in order, or the call fails with
// ErrEvaluationFailed.
func (g *Gateway) Evaluate(ctx context.Context, material string, questions []Question, answers []StudentAnswer) ([]Evaluation, error) {
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: no questions", ErrEvaluationFailed)
	}
	if len(answers) != len(questions) {
		return nil, fmt.Errorf("%w: %d answers for %d questions", ErrEvaluationFailed, len(answers), len(questions))
	}
	ctx = llm.WithPurpose(ctx, llm.PurposeEvaluation)
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	payload, err := evaluationPayload(questions, answers)
	if err != nil {
		return nil, fmt.Errorf("%w: encode answers: %w", ErrEvaluationFailed, err)
	}
	userMsg, err := render(evaluationTemplate, evaluationData{
		Language: g.cfg.Language,
		Material: material,
		Payload:  payload,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: build prompt: %w", ErrEvaluationFailed, err)
	}

	resp, err := g.provider.Generate(ctx, llm.Request{
		System:      evaluationSystemPrompt,
		Messages:    llm.UserMessage(userMsg),
		Schema:      EvaluationSchema,
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: 0.2,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEvaluationFailed, err)
	}

	var raw struct {
		Evaluations []Evaluation `json:"evaluations"`
	}
	if err := json.Unmarshal(resp.Content, &raw); err != nil {
		return nil, fmt.Errorf("%w: parse response: %w", ErrEvaluationFailed, err)
	}
	if len(raw.Evaluations) != len(questions) {
		return nil, fmt.Errorf("%w: got %d evaluations for %d questions",
			ErrEvaluationFailed, len(raw.Evaluations), len(questions))
	}
	return raw.Evaluations, nil
}

// GenerateCommentary writes a short personal summary of the attempt.
// Callers treat any error as "no commentary".
func (g *Gateway) GenerateCommentary(ctx context.Context, in CommentaryInput) (string, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeCommentary)
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	userMsg, err := render(commentaryTemplate, commentaryData{
		CommentaryInput: in,
		Language:        g.cfg.Language,
		Correct:         Score(in.Evaluations),
		Total:           len(in.Questions),
	})
	if err != nil {
		return "", fmt.Errorf("%w: build prompt: %w", ErrCommentaryFailed, err)
	}

	resp, err := g.provider.Generate(ctx, llm.Request{
		System:      commentarySystemPrompt,
		Messages:    llm.UserMessage(userMsg),
		MaxTokens:   g.cfg.CommentaryMaxTokens,
		Temperature: g.cfg.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrCommentaryFailed, err)
	}
	text, err := resp.Text()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrCommentaryFailed, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: empty commentary", ErrCommentaryFailed)
	}
	return text, nil
}

func (g *Gateway) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.cfg.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, g.cfg.Timeout)
}

