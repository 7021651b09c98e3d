// File path: internal/roadmap/generator.go
package roadmap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/nextsteplk/pathway/internal/common"
	"github.com/nextsteplk/pathway/internal/common/telemetry"
	"github.com/nextsteplk/pathway/internal/llm"
)

// ErrGeneration marks failures to produce a valid roadmap from the model.
var ErrGeneration = errors.New("roadmap generation failed")

const systemPrompt = `You are an academic advisor for Sri Lankan higher education. ` +
	`You produce detailed, realistic study roadmaps for degree and certificate programs. ` +
	`Respond with a single JSON object and nothing else. No prose, no markdown fences.`

const userPromptTemplate = `Create a study roadmap for the program %q.
%s
Return JSON with exactly this shape:
{
  "program_name": string,
  "overview": string,
  "total_duration": string,
  "prerequisites": [string],
  "key_skills": [string],
  "recommended_for": [string],
  "steps": [
    {
      "step_number": int,
      "title": string,
      "description": string,
      "topics": [string],
      "duration": string,
      "difficulty": "Beginner" | "Intermediate" | "Advanced"
    }
  ]
}
Use between 4 and 8 steps ordered from fundamentals to completion.`

// Generator turns a program name into a structured roadmap via the configured
// chat provider.
type Generator struct {
	provider llm.Provider
}

// NewGenerator wraps a chat provider.
func NewGenerator(provider llm.Provider) *Generator {
	return &Generator{provider: provider}
}

// Generate produces a roadmap for the program. Known prerequisites, when
// provided, are folded into the prompt as grounding context. Malformed model
// output is an error; callers never receive a partial roadmap.
func (g *Generator) Generate(ctx context.Context, programName string, prerequisites []string) (*Roadmap, error) {
	if g == nil || g.provider == nil {
		return nil, fmt.Errorf("%w: no provider configured", ErrGeneration)
	}
	programName = strings.TrimSpace(programName)
	if programName == "" {
		return nil, fmt.Errorf("%w: empty program name", ErrGeneration)
	}
	spanCtx, finish := telemetry.StartSpan(ctx, "roadmap.generate")
	defer finish("program", programName)

	var contextLine string
	if len(prerequisites) > 0 {
		contextLine = fmt.Sprintf("Known entry requirements: %s.", strings.Join(prerequisites, ", "))
	}
	start := time.Now()
	raw, err := g.provider.Chat(spanCtx, []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: fmt.Sprintf(userPromptTemplate, programName, contextLine)},
	})
	if err != nil {
		telemetry.RecordRoadmapGeneration(time.Since(start), err)
		return nil, fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	parsed, err := parseRoadmap(raw)
	if err != nil {
		telemetry.RecordRoadmapGeneration(time.Since(start), err)
		common.Logger().Error("roadmap: model returned unusable payload", "program", programName, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	parsed.ProgramName = programName
	if len(parsed.Prerequisites) == 0 {
		parsed.Prerequisites = prerequisites
	}
	telemetry.RecordRoadmapGeneration(time.Since(start), nil)
	common.Logger().Info("roadmap: generated", "program", programName, "steps", len(parsed.Steps))
	return parsed, nil
}

var codeBlockRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// extractJSON tolerates models that wrap JSON in markdown fences or leading
// prose. It returns the first JSON object found.
func extractJSON(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if m := codeBlockRe.FindStringSubmatch(raw); len(m) == 2 {
		raw = strings.TrimSpace(m[1])
	}
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return "", fmt.Errorf("no JSON object in response")
	}
	return raw[start : end+1], nil
}

func parseRoadmap(raw string) (*Roadmap, error) {
	payload, err := extractJSON(raw)
	if err != nil {
		return nil, err
	}
	var rm Roadmap
	if err := json.Unmarshal([]byte(payload), &rm); err != nil {
		return nil, fmt.Errorf("decode roadmap: %w", err)
	}
	if err := validateRoadmap(&rm); err != nil {
		return nil, err
	}
	return &rm, nil
}

func validateRoadmap(rm *Roadmap) error {
	if len(rm.Steps) == 0 {
		return fmt.Errorf("roadmap has no steps")
	}
	for i := range rm.Steps {
		step := &rm.Steps[i]
		if strings.TrimSpace(step.Title) == "" {
			return fmt.Errorf("step %d has no title", i+1)
		}
		if step.StepNumber <= 0 {
			step.StepNumber = i + 1
		}
	}
	return nil
}
