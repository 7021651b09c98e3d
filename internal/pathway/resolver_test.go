// File path: internal/pathway/resolver_test.go
package pathway

import (
	"context"
	"testing"

	"github.com/nextsteplk/pathway/internal/graph"
	"github.com/nextsteplk/pathway/internal/graph/memory"
)

func seedEngineering(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.NewStore()
	ctx := context.Background()

	if err := store.InsertInstitute(ctx, graph.Institute{Name: "Open University"}); err != nil {
		t.Fatalf("insert institute: %v", err)
	}
	for _, dept := range []string{"Engineering", "Business"} {
		if err := store.InsertDepartment(ctx, graph.Department{Name: dept, Institute: "Open University"}); err != nil {
			t.Fatalf("insert department %s: %v", dept, err)
		}
	}

	programs := []graph.Program{
		{Name: "Certificate in Engineering Technology", Department: "Engineering", Qualifications: []string{"O/L Pass"}, Careers: []string{"Technician"}},
		{Name: "Bachelor of Software Engineering", Department: "Engineering", Qualifications: []string{"A/L Pass"}, Careers: []string{"Software Engineer"}},
		{Name: "Bachelor of Civil Engineering", Department: "Engineering", Qualifications: []string{"A/L Pass"}},
		{Name: "Bachelor of Mechanical Engineering", Department: "Engineering", Qualifications: []string{"A/L Pass"}},
		{Name: "Bachelor of Business Administration", Department: "Business", Qualifications: []string{"O/L Pass"}},
	}
	for _, p := range programs {
		if err := store.InsertProgram(ctx, p); err != nil {
			t.Fatalf("insert program %s: %v", p.Name, err)
		}
	}

	// The certificate unlocks the three engineering bachelors.
	for _, to := range []string{"Bachelor of Software Engineering", "Bachelor of Civil Engineering", "Bachelor of Mechanical Engineering"} {
		if err := store.LinkPrerequisite(ctx, "Certificate in Engineering Technology", to); err != nil {
			t.Fatalf("link prerequisite to %s: %v", to, err)
		}
	}
	return store
}

func TestResolvePathwayOrdersByDistanceThenTier(t *testing.T) {
	store := seedEngineering(t)
	resolver := NewResolver(store)

	results, err := resolver.ResolvePathway(context.Background(), "Engineering", "O/L Pass")
	if err != nil {
		t.Fatalf("ResolvePathway: %v", err)
	}
	want := []string{
		"Certificate in Engineering Technology",
		"Bachelor of Civil Engineering",
		"Bachelor of Mechanical Engineering",
		"Bachelor of Software Engineering",
	}
	if len(results) != len(want) {
		t.Fatalf("got %d programs, want %d: %+v", len(results), len(want), results)
	}
	for i, name := range want {
		if results[i].Name != name {
			t.Errorf("position %d: got %q, want %q", i, results[i].Name, name)
		}
	}
	if results[0].PathDistance != 0 {
		t.Errorf("certificate distance = %d, want 0", results[0].PathDistance)
	}
	for _, r := range results[1:] {
		if r.PathDistance != 1 {
			t.Errorf("%s distance = %d, want 1", r.Name, r.PathDistance)
		}
	}
}

func TestResolvePathwayDepartmentFilter(t *testing.T) {
	store := seedEngineering(t)
	resolver := NewResolver(store)

	results, err := resolver.ResolvePathway(context.Background(), "Business", "O/L Pass")
	if err != nil {
		t.Fatalf("ResolvePathway: %v", err)
	}
	if len(results) != 1 || results[0].Name != "Bachelor of Business Administration" {
		t.Fatalf("unexpected results: %+v", results)
	}
}

func TestResolvePathwayUnknownQualification(t *testing.T) {
	store := seedEngineering(t)
	resolver := NewResolver(store)

	results, err := resolver.ResolvePathway(context.Background(), "", "Diploma in Quantum Basket Weaving")
	if err != nil {
		t.Fatalf("ResolvePathway: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected empty result, got %+v", results)
	}
}

func TestResolvePathwayCycleSafe(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	if err := store.InsertDepartment(ctx, graph.Department{Name: "Engineering", Institute: "Open University"}); err != nil {
		t.Fatalf("insert department: %v", err)
	}
	for _, name := range []string{"Program A", "Program B"} {
		quals := []string(nil)
		if name == "Program A" {
			quals = []string{"O/L Pass"}
		}
		if err := store.InsertProgram(ctx, graph.Program{Name: name, Department: "Engineering", Qualifications: quals}); err != nil {
			t.Fatalf("insert program: %v", err)
		}
	}
	if err := store.LinkPrerequisite(ctx, "Program A", "Program B"); err != nil {
		t.Fatalf("link: %v", err)
	}
	if err := store.LinkPrerequisite(ctx, "Program B", "Program A"); err != nil {
		t.Fatalf("link: %v", err)
	}

	results, err := NewResolver(store).ResolvePathway(ctx, "", "O/L Pass")
	if err != nil {
		t.Fatalf("ResolvePathway: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d programs, want 2: %+v", len(results), results)
	}
}

func TestTierRank(t *testing.T) {
	cases := []struct {
		name string
		want int
	}{
		{"NVQ Level 3 Certificate", 0},
		{"NVQ Level 4 Certificate", 1},
		{"Advanced Certificate in ICT", 2},
		{"Certificate in Engineering Technology", 3},
		{"Bachelor of Software Engineering", 4},
		{"BSc in Computer Science", 5},
		{"Diploma in Marketing", 6},
	}
	for _, tc := range cases {
		if got := tierRank(tc.name); got != tc.want {
			t.Errorf("tierRank(%q) = %d, want %d", tc.name, got, tc.want)
		}
	}
}
