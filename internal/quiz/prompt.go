package quiz

import (
	"bytes"
	"encoding/json"
	"text/template"
)

const generationSystemPrompt = `Eres un profesor de economía experto en pedagogía y en detectar los errores conceptuales habituales de los estudiantes. No evalúas la memoria del texto: buscas las creencias previas del estudiante, sobre todo los mitos económicos populares.`

var generationTemplate = template.Must(template.New("generation").Parse(`A partir de los conceptos centrales del siguiente material del curso, genera un cuestionario de {{.QuestionCount}} preguntas de opción múltiple, todo en {{.Language}}.
Las preguntas no deben preguntar por detalles del texto. Usa sus conceptos para plantear escenarios reales o verosímiles que pongan a prueba las intuiciones del estudiante.

Cada pregunta tiene exactamente {{.OptionCount}} opciones:
- Una opción claramente correcta según la teoría económica del material.
- Al menos dos opciones que reflejen mitos económicos comunes o razonamientos falaces.
- Una opción incorrecta pero plausible.

Para cada pregunta incluye una explicación breve del mito principal que recoge una de las opciones incorrectas.

Material del curso:
---
{{.Material}}
---
`))

const evaluationSystemPrompt = `Eres el asistente de un profesor de economía. Evalúas las respuestas de un estudiante a un cuestionario usando el material del curso y las preguntas originales.`

var evaluationTemplate = template.Must(template.New("evaluation").Parse(`Responde en {{.Language}}. Devuelve una evaluación por respuesta, en el mismo orden que las preguntas.
Si la respuesta es correcta, confírmalo y explica brevemente el principio económico.
Si es incorrecta, explica por qué y aclara el concepto correcto.
Si el estudiante eligió un mito económico común, identifícalo como mito y refútalo con los principios del material.
Una respuesta vacía significa que la pregunta quedó sin contestar y es incorrecta.

Material del curso:
---
{{.Material}}
---

Preguntas y respuestas del estudiante:
---
{{.Payload}}
---
`))

const commentarySystemPrompt = `Eres un tutor de economía cercano y honesto. Escribes un comentario breve y personal sobre el rendimiento de un estudiante en un cuestionario sobre mitos económicos.`

var commentaryTemplate = template.Must(template.New("commentary").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).Parse(`Escribe en {{.Language}} un comentario de un párrafo{{if .StudentName}} dirigido a {{.StudentName}}{{end}}.
Señala qué conceptos domina, qué mitos sigue creyendo y un consejo concreto para estudiar. No repitas las explicaciones pregunta por pregunta.

Resultado: {{.Correct}} de {{.Total}} correctas.
{{- if .Behavior.TotalSeconds}}
Tiempo total: {{.Behavior.TotalSeconds}} segundos.
{{- end}}

Detalle:
{{range $i, $q := .Questions}}- Pregunta {{inc $i}}: {{$q.Question}}
{{- if lt $i (len $.Evaluations)}}{{with index $.Evaluations $i}}
  Respuesta: {{.StudentAnswer}} ({{if .IsCorrect}}correcta{{else}}incorrecta{{end}})
{{- end}}{{end}}
{{- if and (lt $i (len $.Behavior.PerQuestionSeconds)) (lt $i (len $.Behavior.AnswerChanges))}}
  Tiempo: {{index $.Behavior.PerQuestionSeconds $i}} s, cambios de respuesta: {{index $.Behavior.AnswerChanges $i}}
{{- end}}
{{end}}
Material del curso:
---
{{.Material}}
---
`))

type generationData struct {
	Config
	Material string
}

type evaluationData struct {
	Language string
	Material string
	Payload  string
}

type commentaryData struct {
	CommentaryInput
	Language string
	Correct  int
	Total    int
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func evaluationPayload(questions []Question, answers []StudentAnswer) (string, error) {
	b, err := json.MarshalIndent(struct {
		Questions []Question      `json:"questions"`
		Answers   []StudentAnswer `json:"answers"`
	}{questions, answers}, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}
