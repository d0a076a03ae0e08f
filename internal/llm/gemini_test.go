package llm

import (
	"testing"

	"google.golang.org/genai"
)

func TestResolveModel(t *testing.T) {
	tests := []struct {
		input  string
		models map[string]string
		want   string
	}{
		{"gemini-flash", geminiModels, "gemini-2.5-flash"},
		{"gemini-pro", geminiModels, "gemini-2.5-pro"},
		{"gemini-2.0-flash", geminiModels, "gemini-2.0-flash"},
		{"claude-haiku", anthropicModels, "claude-haiku-4-5-20251001"},
		{"gpt-4o-mini", openaiModels, "gpt-4o-mini"},
	}
	for _, tt := range tests {
		if got := resolveModel(tt.input, tt.models); got != tt.want {
			t.Errorf("resolveModel(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestBuildGeminiSchema(t *testing.T) {
	def := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"quiz": map[string]any{
				"type":     "array",
				"minItems": 1,
				"maxItems": 10,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"question":           map[string]any{"type": "string", "description": "Prompt"},
						"options":            map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
						"correctOptionIndex": map[string]any{"type": "integer"},
					},
					"required": []any{"question", "options", "correctOptionIndex"},
				},
			},
		},
		"required": []any{"quiz"},
	}

	schema := buildGeminiSchema(def)

	if schema.Type != genai.TypeObject {
		t.Fatalf("expected OBJECT, got %s", schema.Type)
	}
	quiz := schema.Properties["quiz"]
	if quiz == nil || quiz.Type != genai.TypeArray {
		t.Fatalf("expected quiz ARRAY, got %+v", quiz)
	}
	if quiz.MinItems == nil || *quiz.MinItems != 1 || quiz.MaxItems == nil || *quiz.MaxItems != 10 {
		t.Fatalf("item bounds not carried: min=%v max=%v", quiz.MinItems, quiz.MaxItems)
	}
	item := quiz.Items
	if item.Properties["correctOptionIndex"].Type != genai.TypeInteger {
		t.Fatalf("expected INTEGER index, got %s", item.Properties["correctOptionIndex"].Type)
	}
	if item.Properties["options"].Items.Type != genai.TypeString {
		t.Fatalf("expected STRING options, got %s", item.Properties["options"].Items.Type)
	}
	if item.Properties["question"].Description != "Prompt" {
		t.Fatalf("description lost")
	}
	if len(item.Required) != 3 {
		t.Fatalf("expected 3 required fields, got %d", len(item.Required))
	}
}

func TestGeminiContents_Roles(t *testing.T) {
	got := geminiContents([]Message{
		{Role: RoleUser, Content: "material"},
		{Role: RoleAssistant, Content: "quiz"},
		{Role: RoleUser, Content: "answers"},
	})
	want := []struct{ role, text string }{
		{genai.RoleUser, "material"},
		{genai.RoleModel, "quiz"},
		{genai.RoleUser, "answers"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d contents, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].Role != w.role {
			t.Errorf("contents[%d].Role = %q, want %q", i, got[i].Role, w.role)
		}
		if len(got[i].Parts) != 1 || got[i].Parts[0].Text != w.text {
			t.Errorf("contents[%d] parts = %+v, want %q", i, got[i].Parts, w.text)
		}
	}
}
