package quiz

import (
	"fmt"

	"github.com/cazamitos/cazamitos/internal/llm"
)

// questionSchema describes the generation response for a given option
// count. The name embeds the count because compiled validators are cached
// by schema name.
func questionSchema(optionCount int) *llm.Schema {
	return &llm.Schema{
		Name:        fmt.Sprintf("quiz-questions-%d", optionCount),
		Description: "A multiple-choice quiz whose wrong options surface common economic myths",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"quiz": map[string]any{
					"type":        "array",
					"description": "The quiz questions.",
					"minItems":    1,
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"question": map[string]any{
								"type":        "string",
								"description": "The question text.",
							},
							"options": map[string]any{
								"type":        "array",
								"description": fmt.Sprintf("Exactly %d possible answers.", optionCount),
								"items":       map[string]any{"type": "string"},
								"minItems":    optionCount,
								"maxItems":    optionCount,
							},
							"correctOptionIndex": map[string]any{
								"type":        "integer",
								"description": "0-based index of the correct option in options.",
							},
							"mythExplanation": map[string]any{
								"type":        "string",
								"description": "Brief explanation of the common economic myth behind one of the wrong options.",
							},
						},
						"required":             []any{"question", "options", "correctOptionIndex", "mythExplanation"},
						"additionalProperties": false,
					},
				},
			},
			"required":             []any{"quiz"},
			"additionalProperties": false,
		},
	}
}

// EvaluationSchema describes the evaluation response.
var EvaluationSchema = &llm.Schema{
	Name:        "answer-evaluations",
	Description: "Per-answer feedback aligned with the question order",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"evaluations": map[string]any{
				"type":        "array",
				"description": "One evaluation per student answer, in question order.",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"isCorrect": map[string]any{
							"type":        "boolean",
							"description": "Whether the student's answer was correct.",
						},
						"correctAnswer": map[string]any{
							"type":        "string",
							"description": "The correct option text.",
						},
						"studentAnswer": map[string]any{
							"type":        "string",
							"description": "The option text the student selected.",
						},
						"explanation": map[string]any{
							"type":        "string",
							"description": "Why the answer is right or wrong. If the student chose a myth, name it as a myth and refute it using the course material.",
						},
					},
					"required":             []any{"isCorrect", "correctAnswer", "studentAnswer", "explanation"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"evaluations"},
		"additionalProperties": false,
	},
}
