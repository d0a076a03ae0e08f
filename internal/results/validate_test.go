package results

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

const validBody = `{
	"nombre": "Ana García",
	"email": "ana@example.com",
	"asignatura": "Economía Política",
	"tema": "Tema 1. La Escasez",
	"puntuacion": 7,
	"totalPreguntas": 10,
	"tiempoSegundos": 312,
	"preguntasFalladas": "Pregunta 2, Pregunta 5, Pregunta 9",
	"behaviorData": {
		"quizStartTimestamp": "2025-03-10T09:00:00Z",
		"quizEndTimestamp": "2025-03-10T09:05:12Z",
		"timePerQuestion": [30, 12, 41, 8, 20, 33, 19, 27, 50, 18],
		"answerChanges": [0, 1, 0, 0, 2, 0, 0, 0, 1, 0],
		"perceivedDifficulty": 4
	}
}`

func TestParse_Valid(t *testing.T) {
	rec, err := Parse([]byte(validBody))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if rec.Name != "Ana García" || rec.Score != 7 || rec.TotalQuestions != 10 || rec.ElapsedSeconds != 312 {
		t.Errorf("unexpected record: %+v", rec)
	}
	if rec.Behavior == nil || *rec.Behavior.PerceivedDifficulty != 4 || len(rec.Behavior.AnswerChanges) != 10 {
		t.Errorf("behavior not decoded: %+v", rec.Behavior)
	}
	if rec.ScoreLabel() != "7/10" {
		t.Errorf("ScoreLabel = %q", rec.ScoreLabel())
	}
}

func TestParse_IgnoresCallerEnrichment(t *testing.T) {
	body := strings.Replace(validBody, `"nombre"`, `"id": "forged", "timestamp": "1999", "metadata": {"ip": "1.2.3.4"}, "nombre"`, 1)
	rec, err := Parse([]byte(body))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if rec.ID != "" || rec.Timestamp != "" || rec.Metadata != nil {
		t.Errorf("caller enrichment leaked: %+v", rec)
	}
}

func TestParse_Optional(t *testing.T) {
	rec, err := Parse([]byte(`{"nombre":"A","email":"a@b.es","asignatura":"S","tema":"T","puntuacion":0,"totalPreguntas":1,"behaviorData":null}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if rec.Behavior != nil || rec.ElapsedSeconds != 0 || rec.FailedQuestions != "" {
		t.Errorf("unexpected optional values: %+v", rec)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		missing []string
		invalid []string
	}{
		{
			name:    "missing email",
			body:    `{"nombre":"A","asignatura":"S","tema":"T","puntuacion":1,"totalPreguntas":2}`,
			missing: []string{"email"},
		},
		{
			name:    "blank and null count as missing",
			body:    `{"nombre":"  ","email":null,"asignatura":"S","tema":"T","puntuacion":1,"totalPreguntas":2}`,
			missing: []string{"nombre", "email"},
		},
		{
			name:    "everything missing",
			body:    `{}`,
			missing: []string{"nombre", "email", "asignatura", "tema", "puntuacion", "totalPreguntas"},
		},
		{
			name:    "wrong kinds",
			body:    `{"nombre":5,"email":"a@b.es","asignatura":"S","tema":"T","puntuacion":"7","totalPreguntas":10.5,"tiempoSegundos":true}`,
			invalid: []string{"nombre", "puntuacion", "totalPreguntas", "tiempoSegundos"},
		},
		{
			name:    "score above total",
			body:    `{"nombre":"A","email":"a@b.es","asignatura":"S","tema":"T","puntuacion":11,"totalPreguntas":10}`,
			invalid: []string{"puntuacion"},
		},
		{
			name:    "negative score",
			body:    `{"nombre":"A","email":"a@b.es","asignatura":"S","tema":"T","puntuacion":-1,"totalPreguntas":10}`,
			invalid: []string{"puntuacion"},
		},
		{
			name:    "zero total",
			body:    `{"nombre":"A","email":"a@b.es","asignatura":"S","tema":"T","puntuacion":0,"totalPreguntas":0}`,
			invalid: []string{"totalPreguntas"},
		},
		{
			name:    "negative time",
			body:    `{"nombre":"A","email":"a@b.es","asignatura":"S","tema":"T","puntuacion":0,"totalPreguntas":3,"tiempoSegundos":-4}`,
			invalid: []string{"tiempoSegundos"},
		},
		{
			name:    "bad email",
			body:    `{"nombre":"A","email":"not-an-email","asignatura":"S","tema":"T","puntuacion":0,"totalPreguntas":3}`,
			invalid: []string{"email"},
		},
		{
			name:    "difficulty out of range",
			body:    `{"nombre":"A","email":"a@b.es","asignatura":"S","tema":"T","puntuacion":0,"totalPreguntas":3,"behaviorData":{"perceivedDifficulty":6}}`,
			invalid: []string{"behaviorData.perceivedDifficulty"},
		},
		{
			name:    "behavior wrong shape",
			body:    `{"nombre":"A","email":"a@b.es","asignatura":"S","tema":"T","puntuacion":0,"totalPreguntas":3,"behaviorData":[1,2]}`,
			invalid: []string{"behaviorData"},
		},
		{
			name:    "missing and invalid together",
			body:    `{"nombre":"A","asignatura":"S","tema":"T","puntuacion":4,"totalPreguntas":3}`,
			missing: []string{"email"},
			invalid: []string{"puntuacion"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.body))
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if !reflect.DeepEqual(ve.Missing, tt.missing) {
				t.Errorf("missing = %v, want %v", ve.Missing, tt.missing)
			}
			if !reflect.DeepEqual(ve.Invalid, tt.invalid) {
				t.Errorf("invalid = %v, want %v", ve.Invalid, tt.invalid)
			}
		})
	}
}

func TestParse_NotAnObject(t *testing.T) {
	for _, body := range []string{"", "null", "[]", `"x"`, "{broken"} {
		_, err := Parse([]byte(body))
		var ve *ValidationError
		if !errors.As(err, &ve) || ve.Message == "" {
			t.Errorf("Parse(%q) err = %v, want ValidationError with message", body, err)
		}
	}
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Missing: []string{"email", "tema"}, Invalid: []string{"puntuacion"}}
	want := "missing required fields: email, tema; invalid fields: puntuacion"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestValidate_SampleRecord(t *testing.T) {
	if err := Validate(SampleRecord()); err != nil {
		t.Fatalf("sample record is invalid: %v", err)
	}
}
