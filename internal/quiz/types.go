package quiz

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	ErrGenerationFailed = errors.New("quiz generation failed")
	ErrEvaluationFailed = errors.New("answer evaluation failed")
	ErrCommentaryFailed = errors.New("commentary generation failed")
)

// Question is one generated multiple-choice item. It is not modified
// after generation.
type Question struct {
	Question           string   `json:"question"`
	Options            []string `json:"options"`
	CorrectOptionIndex int      `json:"correctOptionIndex"`
	MythExplanation    string   `json:"mythExplanation"`
}

// Validate checks the structural rules every generated question must meet.
func (q Question) Validate(optionCount int) error {
	if strings.TrimSpace(q.Question) == "" {
		return errors.New("empty question text")
	}
	if len(q.Options) != optionCount {
		return fmt.Errorf("got %d options, want %d", len(q.Options), optionCount)
	}
	for i, opt := range q.Options {
		if strings.TrimSpace(opt) == "" {
			return fmt.Errorf("option %d is empty", i)
		}
	}
	if q.CorrectOptionIndex < 0 || q.CorrectOptionIndex >= len(q.Options) {
		return fmt.Errorf("correctOptionIndex %d out of range", q.CorrectOptionIndex)
	}
	if strings.TrimSpace(q.MythExplanation) == "" {
		return errors.New("empty myth explanation")
	}
	return nil
}

// StudentAnswer pairs a question with the text of the option chosen.
// An empty SelectedAnswer means the question was left unanswered.
type StudentAnswer struct {
	Question       string `json:"question"`
	SelectedAnswer string `json:"selectedAnswer"`
}

// Evaluation is the feedback for one answer, positionally aligned with
// the question list.
type Evaluation struct {
	IsCorrect     bool   `json:"isCorrect"`
	CorrectAnswer string `json:"correctAnswer"`
	StudentAnswer string `json:"studentAnswer"`
	Explanation   string `json:"explanation"`
}

// MapAnswers turns per-question option indices into StudentAnswers.
// A nil or out-of-range index maps to an empty answer.
func MapAnswers(questions []Question, answers []*int) []StudentAnswer {
	out := make([]StudentAnswer, len(questions))
	for i, q := range questions {
		out[i].Question = q.Question
		if i >= len(answers) || answers[i] == nil {
			continue
		}
		if idx := *answers[i]; idx >= 0 && idx < len(q.Options) {
			out[i].SelectedAnswer = q.Options[idx]
		}
	}
	return out
}

// Score counts correct evaluations.
func Score(evals []Evaluation) int {
	n := 0
	for _, e := range evals {
		if e.IsCorrect {
			n++
		}
	}
	return n
}

// Percentage rounds correct/total to a whole percent. Zero total is 0%.
func Percentage(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(correct) / float64(total) * 100))
}

// FailedLabels lists failed questions as "Pregunta N" (1-based), or
// "Ninguna" when nothing failed.
func FailedLabels(evals []Evaluation) string {
	var labels []string
	for i, e := range evals {
		if !e.IsCorrect {
			labels = append(labels, fmt.Sprintf("Pregunta %d", i+1))
		}
	}
	if len(labels) == 0 {
		return "Ninguna"
	}
	return strings.Join(labels, ", ")
}
