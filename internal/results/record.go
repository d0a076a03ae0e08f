// Package results models quiz result records and appends them to the
// persisted collection.
package results

import (
	"fmt"
	"time"
)

// Record is one completed quiz attempt as stored in the collection.
// JSON names follow the collection's established format.
type Record struct {
	// Server-assigned enrichment. Caller values are discarded.
	ID        string    `json:"id,omitempty"`
	Timestamp string    `json:"timestamp,omitempty"`
	Metadata  *Metadata `json:"metadata,omitempty"`

	Name            string `json:"nombre"`
	Email           string `json:"email"`
	Subject         string `json:"asignatura"`
	Topic           string `json:"tema"`
	Score           int    `json:"puntuacion"`
	TotalQuestions  int    `json:"totalPreguntas"`
	ElapsedSeconds  int    `json:"tiempoSegundos"`
	FailedQuestions string `json:"preguntasFalladas"`

	Behavior *BehaviorData `json:"behaviorData,omitempty"`
}

// Metadata describes the request that delivered a record.
type Metadata struct {
	UserAgent string `json:"userAgent"`
	IP        string `json:"ip"`
}

// BehaviorData is the interaction telemetry of one attempt. Difficulty
// and comment are filled in after the results are shown.
type BehaviorData struct {
	QuizStart           time.Time `json:"quizStartTimestamp"`
	QuizEnd             time.Time `json:"quizEndTimestamp"`
	SecondsPerQuestion  []int     `json:"timePerQuestion"`
	AnswerChanges       []int     `json:"answerChanges"`
	PerceivedDifficulty *int      `json:"perceivedDifficulty,omitempty"`
	GlobalComment       string    `json:"globalComment,omitempty"`
}

// Clone returns a deep copy.
func (b *BehaviorData) Clone() *BehaviorData {
	if b == nil {
		return nil
	}
	c := *b
	c.SecondsPerQuestion = append([]int(nil), b.SecondsPerQuestion...)
	c.AnswerChanges = append([]int(nil), b.AnswerChanges...)
	if b.PerceivedDifficulty != nil {
		d := *b.PerceivedDifficulty
		c.PerceivedDifficulty = &d
	}
	return &c
}

// ScoreLabel renders the score as "x/y".
func (r Record) ScoreLabel() string {
	return fmt.Sprintf("%d/%d", r.Score, r.TotalQuestions)
}

// SampleRecord is the fixed record sent by the endpoint smoke test.
func SampleRecord() Record {
	return Record{
		Name:            "Estudiante Test API",
		Email:           "test@vercel.com",
		Subject:         "Economía Política",
		Topic:           "Tema 1. La Escasez",
		Score:           10,
		TotalQuestions:  10,
		ElapsedSeconds:  150,
		FailedQuestions: "Ninguna",
	}
}
