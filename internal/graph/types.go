// File path: internal/graph/types.go
package graph

import "context"

// Client defines the operations required of an education knowledge graph
// backend. Read operations are single-hop lookups; all traversal logic lives
// in the pathway resolver.
type Client interface {
	// Available reports whether the backend is reachable and ready for
	// queries.
	Available() bool
	// EnsureSchema guarantees that the node tables and relationship types
	// exist in the backing store.
	EnsureSchema(ctx context.Context) error
	// InsertInstitute upserts an institute node.
	InsertInstitute(ctx context.Context, institute Institute) error
	// InsertDepartment upserts a department node and links it to its
	// institute.
	InsertDepartment(ctx context.Context, department Department) error
	// InsertQualification upserts a qualification node.
	InsertQualification(ctx context.Context, qualification Qualification) error
	// InsertCareer upserts a career node.
	InsertCareer(ctx context.Context, career Career) error
	// InsertProgram upserts a program node with its OFFERS, REQUIRES and
	// LEADS_TO relationships.
	InsertProgram(ctx context.Context, program Program) error
	// LinkPrerequisite upserts an IS_PREREQUISITE_FOR edge from an
	// earlier-tier program to a later-tier program.
	LinkPrerequisite(ctx context.Context, from, to string) error
	// ProgramsRequiring returns the names of programs that directly require
	// the qualification.
	ProgramsRequiring(ctx context.Context, qualification string) ([]string, error)
	// Successors returns the names of programs the given program is a direct
	// prerequisite for.
	Successors(ctx context.Context, program string) ([]string, error)
	// ProgramDetails resolves a program's owning institute/department and its
	// qualification, prerequisite and career sets. A missing program yields
	// (nil, nil).
	ProgramDetails(ctx context.Context, name string) (*ProgramRecord, error)
	// Close releases resources associated with the client.
	Close() error
}

// Institute is an education provider.
type Institute struct {
	Name string
}

// Department is a subdivision of an institute.
type Department struct {
	Name      string
	Institute string
}

// Program is a course of study offered by a department.
type Program struct {
	Name           string
	Department     string
	Qualifications []string
	Careers        []string
}

// Qualification is an entry credential or prerequisite state.
type Qualification struct {
	Name string
}

// Career is a job title outcome a program leads to.
type Career struct {
	Title string
}

// ProgramRecord is the fully resolved view of a program used by the pathway
// resolver when assembling results.
type ProgramRecord struct {
	Name           string   `json:"name"`
	Institute      string   `json:"institute,omitempty"`
	Department     string   `json:"department,omitempty"`
	Qualifications []string `json:"qualifications,omitempty"`
	Prerequisites  []string `json:"prerequisites,omitempty"`
	Careers        []string `json:"careers,omitempty"`
}
