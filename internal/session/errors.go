package session

import (
	"errors"
	"fmt"

	"github.com/cazamitos/cazamitos/internal/extract"
	"github.com/cazamitos/cazamitos/internal/llm"
	"github.com/cazamitos/cazamitos/internal/quiz"
)

// ErrorKind classifies failures shown to the learner.
type ErrorKind string

const (
	KindAPIKeyMissing    ErrorKind = "ApiKeyMissing"
	KindMaterialEmpty    ErrorKind = "MaterialEmpty"
	KindExtractionFailed ErrorKind = "ExtractionFailed"
	KindGenerationFailed ErrorKind = "GenerationFailed"
	KindEvaluationFailed ErrorKind = "EvaluationFailed"
	KindUnknown          ErrorKind = "Unknown"
)

var messages = map[ErrorKind]string{
	KindAPIKeyMissing:    "La clave de API no está configurada.",
	KindMaterialEmpty:    "El material del curso (ya sea del texto o del PDF) está vacío.",
	KindExtractionFailed: "No se pudo extraer el texto del archivo.",
	KindGenerationFailed: "No se pudo generar el cuestionario. Verifica que tu clave de API sea correcta y tenga permisos.",
	KindEvaluationFailed: "No se pudieron evaluar las respuestas. Verifica que tu clave de API sea correcta y tenga permisos.",
	KindUnknown:          "Ocurrió un error desconocido.",
}

// Error is a recoverable failure surfaced as a dismissable banner.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind ErrorKind, err error) *Error {
	return &Error{Kind: kind, Message: messages[kind], Err: err}
}

// classify maps an operation failure onto the taxonomy. fallback is the
// kind for the phase that failed.
func classify(err error, fallback ErrorKind) *Error {
	var se *Error
	if errors.As(err, &se) {
		return se
	}

	kind := fallback
	switch {
	case errors.Is(err, llm.ErrMissingAPIKey):
		kind = KindAPIKeyMissing
	case errors.Is(err, extract.ErrExtractionFailed):
		kind = KindExtractionFailed
	case errors.Is(err, quiz.ErrGenerationFailed):
		kind = KindGenerationFailed
	case errors.Is(err, quiz.ErrEvaluationFailed):
		kind = KindEvaluationFailed
	}
	e := newError(kind, err)

	var unauth *llm.ErrUnauthorized
	switch {
	case errors.Is(err, extract.ErrUnsupported):
		e.Message = "Tipo de archivo no admitido. Usa un PDF, .txt o .md."
	case errors.As(err, &unauth):
		e.Message = "La clave de API fue rechazada. Cámbiala e inténtalo de nuevo."
	}
	return e
}

// ErrWrongPhase is returned when an operation is not valid in the
// current phase. It indicates a caller bug, not a learner error.
var ErrWrongPhase = errors.New("operation not allowed in current phase")
