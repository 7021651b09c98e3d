// File path: internal/roadmap/types.go
package roadmap

import "github.com/nextsteplk/pathway/internal/videos"

// Roadmap is a structured study plan for a program.
type Roadmap struct {
	ProgramName    string   `json:"program_name"`
	Overview       string   `json:"overview"`
	TotalDuration  string   `json:"total_duration"`
	Prerequisites  []string `json:"prerequisites"`
	KeySkills      []string `json:"key_skills"`
	RecommendedFor []string `json:"recommended_for"`
	Steps          []Step   `json:"steps"`
}

// Step is one ordered stage of a roadmap. Videos are filled in by the
// decoration pass and stay empty for fast lookups.
type Step struct {
	StepNumber  int            `json:"step_number"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Topics      []string       `json:"topics"`
	Duration    string         `json:"duration"`
	Difficulty  string         `json:"difficulty"`
	Videos      []videos.Video `json:"videos"`
}
