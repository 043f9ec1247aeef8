package gemini

import (
	"strings"
	"testing"

	"github.com/storybooth/storybooth/internal/providers"
)

func TestStripFences(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"bare json", `[{"position":1,"text":"hola"}]`, `[{"position":1,"text":"hola"}]`},
		{"json fence", "```json\n[{\"position\":1}]\n```", `[{"position":1}]`},
		{"plain fence", "```\n[]\n```", `[]`},
		{"surrounding whitespace", "  \n[1,2]\n ", `[1,2]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripFences(tt.input); got != tt.expected {
				t.Errorf("stripFences(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestIllustrationPromptNumbersPagesFromOne(t *testing.T) {
	prompt := illustrationPrompt(providers.IllustrationRequest{
		StoryContext: "a trip to the sea",
		Style:        "watercolor",
		Index:        2,
		Total:        7,
	})
	if !strings.Contains(prompt, "page 3 of 7") {
		t.Errorf("prompt missing one-based page number:\n%s", prompt)
	}
	if !strings.Contains(prompt, "watercolor") || !strings.Contains(prompt, "a trip to the sea") {
		t.Errorf("prompt missing session parameters:\n%s", prompt)
	}
}

func TestTranslationPromptCarriesLanguagesAndLines(t *testing.T) {
	prompt := translationPrompt(providers.TranslationRequest{
		SourceLang: "English",
		TargetLang: "Spanish",
		Lines:      []providers.Line{{Position: 1, Text: "The fox ran home."}},
	})
	for _, want := range []string{"from English to Spanish", `"position":1`, "The fox ran home."} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}
