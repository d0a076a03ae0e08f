package results

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/mail"
	"strings"
)

// ValidationError lists the fields that made a submission unacceptable.
type ValidationError struct {
	Message string
	Missing []string
	Invalid []string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required fields: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid fields: "+strings.Join(e.Invalid, ", "))
	}
	return strings.Join(parts, "; ")
}

// Parse decodes and validates a submission body. Every missing or
// malformed field is reported, not just the first. Enrichment fields in
// the body are ignored.
func Parse(body []byte) (Record, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		return Record{}, &ValidationError{Message: "request body must be a JSON object"}
	}

	var (
		rec Record
		ve  ValidationError
	)
	requiredString := func(name string, dst *string) {
		v, ok := raw[name]
		if !ok || isNull(v) {
			ve.Missing = append(ve.Missing, name)
			return
		}
		if err := json.Unmarshal(v, dst); err != nil {
			ve.Invalid = append(ve.Invalid, name)
			return
		}
		*dst = strings.TrimSpace(*dst)
		if *dst == "" {
			ve.Missing = append(ve.Missing, name)
		}
	}
	integer := func(name string, dst *int, required bool) bool {
		v, ok := raw[name]
		if !ok || isNull(v) {
			if required {
				ve.Missing = append(ve.Missing, name)
			}
			return false
		}
		if err := json.Unmarshal(v, dst); err != nil {
			ve.Invalid = append(ve.Invalid, name)
			return false
		}
		return true
	}

	requiredString("nombre", &rec.Name)
	requiredString("email", &rec.Email)
	requiredString("asignatura", &rec.Subject)
	requiredString("tema", &rec.Topic)
	hasScore := integer("puntuacion", &rec.Score, true)
	hasTotal := integer("totalPreguntas", &rec.TotalQuestions, true)
	if integer("tiempoSegundos", &rec.ElapsedSeconds, false) && rec.ElapsedSeconds < 0 {
		ve.Invalid = append(ve.Invalid, "tiempoSegundos")
	}

	if v, ok := raw["preguntasFalladas"]; ok && !isNull(v) {
		if err := json.Unmarshal(v, &rec.FailedQuestions); err != nil {
			ve.Invalid = append(ve.Invalid, "preguntasFalladas")
		}
	}
	if v, ok := raw["behaviorData"]; ok && !isNull(v) {
		var b BehaviorData
		if err := json.Unmarshal(v, &b); err != nil {
			ve.Invalid = append(ve.Invalid, "behaviorData")
		} else if d := b.PerceivedDifficulty; d != nil && (*d < 1 || *d > 5) {
			ve.Invalid = append(ve.Invalid, "behaviorData.perceivedDifficulty")
		} else {
			rec.Behavior = &b
		}
	}

	if rec.Email != "" {
		if _, err := mail.ParseAddress(rec.Email); err != nil {
			ve.Invalid = append(ve.Invalid, "email")
		}
	}
	if hasTotal && rec.TotalQuestions <= 0 {
		ve.Invalid = append(ve.Invalid, "totalPreguntas")
	}
	if hasScore && (rec.Score < 0 || (hasTotal && rec.Score > rec.TotalQuestions)) {
		ve.Invalid = append(ve.Invalid, "puntuacion")
	}

	if len(ve.Missing) > 0 || len(ve.Invalid) > 0 {
		return Record{}, &ve
	}
	return rec, nil
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

// Validate re-checks a record built in process, for example by the quiz
// client, using the same rules as Parse.
func Validate(rec Record) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	_, err = Parse(b)
	return err
}
