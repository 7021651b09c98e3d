// File path: internal/roadmap/generator_test.go
package roadmap

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/nextsteplk/pathway/internal/llm"
)

const validPayload = `{
	"program_name": "Diploma in Software Engineering",
	"overview": "A practical software engineering diploma.",
	"total_duration": "18 months",
	"prerequisites": ["O/L Pass"],
	"key_skills": ["Programming", "Databases"],
	"recommended_for": ["School leavers"],
	"steps": [
		{"step_number": 1, "title": "Programming Fundamentals", "description": "Learn to code.", "topics": ["Python basics"], "duration": "3 months", "difficulty": "Beginner"},
		{"step_number": 2, "title": "Databases", "description": "Model and query data.", "topics": ["SQL"], "duration": "3 months", "difficulty": "Intermediate"}
	]
}`

type scriptedProvider struct {
	response string
	err      error
	prompts  []string
}

func (p *scriptedProvider) Chat(ctx context.Context, messages []llm.Message) (string, error) {
	for _, m := range messages {
		p.prompts = append(p.prompts, m.Content)
	}
	return p.response, p.err
}

func (p *scriptedProvider) Name() string { return "scripted" }

func TestGenerateParsesCleanJSON(t *testing.T) {
	provider := &scriptedProvider{response: validPayload}
	gen := NewGenerator(provider)

	rm, err := gen.Generate(context.Background(), "Diploma in Software Engineering", []string{"O/L Pass"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if rm.ProgramName != "Diploma in Software Engineering" {
		t.Errorf("program name = %q", rm.ProgramName)
	}
	if len(rm.Steps) != 2 {
		t.Fatalf("steps = %d, want 2", len(rm.Steps))
	}
	if rm.Steps[1].Difficulty != "Intermediate" {
		t.Errorf("step 2 difficulty = %q", rm.Steps[1].Difficulty)
	}
}

func TestGeneratePrerequisitesFoldedIntoPrompt(t *testing.T) {
	provider := &scriptedProvider{response: validPayload}
	gen := NewGenerator(provider)

	if _, err := gen.Generate(context.Background(), "Diploma in Software Engineering", []string{"O/L Pass", "Aptitude Test"}); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	joined := strings.Join(provider.prompts, "\n")
	if !strings.Contains(joined, "O/L Pass, Aptitude Test") {
		t.Error("prerequisites not present in prompt")
	}
}

func TestGenerateToleratesMarkdownFences(t *testing.T) {
	provider := &scriptedProvider{response: "Here you go:\n```json\n" + validPayload + "\n```\nHope that helps!"}
	gen := NewGenerator(provider)

	rm, err := gen.Generate(context.Background(), "Diploma in Software Engineering", nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(rm.Steps) != 2 {
		t.Fatalf("steps = %d, want 2", len(rm.Steps))
	}
}

func TestGenerateRejectsMalformedOutput(t *testing.T) {
	cases := map[string]string{
		"prose":       "I cannot produce a roadmap for that program.",
		"brokenJSON":  `{"program_name": "X", "steps": [`,
		"noSteps":     `{"program_name": "X", "steps": []}`,
		"untitled":    `{"program_name": "X", "steps": [{"step_number": 1, "title": "  "}]}`,
	}
	for name, response := range cases {
		t.Run(name, func(t *testing.T) {
			gen := NewGenerator(&scriptedProvider{response: response})
			if _, err := gen.Generate(context.Background(), "X", nil); !errors.Is(err, ErrGeneration) {
				t.Fatalf("expected ErrGeneration, got %v", err)
			}
		})
	}
}

func TestGenerateProviderError(t *testing.T) {
	gen := NewGenerator(&scriptedProvider{err: errors.New("rate limited")})
	if _, err := gen.Generate(context.Background(), "X", nil); !errors.Is(err, ErrGeneration) {
		t.Fatalf("expected ErrGeneration, got %v", err)
	}
}

func TestGenerateAssignsMissingStepNumbers(t *testing.T) {
	payload := `{"steps": [{"title": "One"}, {"title": "Two"}]}`
	gen := NewGenerator(&scriptedProvider{response: payload})
	rm, err := gen.Generate(context.Background(), "X", nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if rm.Steps[0].StepNumber != 1 || rm.Steps[1].StepNumber != 2 {
		t.Errorf("step numbers = %d, %d", rm.Steps[0].StepNumber, rm.Steps[1].StepNumber)
	}
}
