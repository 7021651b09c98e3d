// File path: internal/graph/memory/store_test.go
package memory

import (
	"context"
	"reflect"
	"testing"

	"github.com/nextsteplk/pathway/internal/graph"
)

func TestProgramLifecycle(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	if err := store.InsertInstitute(ctx, graph.Institute{Name: "NIBM"}); err != nil {
		t.Fatalf("insert institute: %v", err)
	}
	if err := store.InsertDepartment(ctx, graph.Department{Name: "Computing", Institute: "NIBM"}); err != nil {
		t.Fatalf("insert department: %v", err)
	}
	if err := store.InsertProgram(ctx, graph.Program{
		Name:           "Diploma in Software Engineering",
		Department:     "Computing",
		Qualifications: []string{"O/L Pass"},
		Careers:        []string{"Junior Developer"},
	}); err != nil {
		t.Fatalf("insert program: %v", err)
	}

	record, err := store.ProgramDetails(ctx, "diploma in software engineering")
	if err != nil {
		t.Fatalf("ProgramDetails: %v", err)
	}
	if record == nil {
		t.Fatal("ProgramDetails returned nil for existing program")
	}
	if record.Department != "Computing" || record.Institute != "NIBM" {
		t.Errorf("unexpected record: %+v", record)
	}
	if !reflect.DeepEqual(record.Qualifications, []string{"O/L Pass"}) {
		t.Errorf("qualifications = %v", record.Qualifications)
	}
}

func TestProgramDetailsMissing(t *testing.T) {
	store := NewStore()
	record, err := store.ProgramDetails(context.Background(), "No Such Program")
	if err != nil {
		t.Fatalf("ProgramDetails: %v", err)
	}
	if record != nil {
		t.Fatalf("expected nil record, got %+v", record)
	}
}

func TestProgramsRequiringIsCaseInsensitive(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	if err := store.InsertProgram(ctx, graph.Program{Name: "Foundation Course", Qualifications: []string{"O/L Pass"}}); err != nil {
		t.Fatalf("insert program: %v", err)
	}
	names, err := store.ProgramsRequiring(ctx, "o/l pass")
	if err != nil {
		t.Fatalf("ProgramsRequiring: %v", err)
	}
	if len(names) != 1 || names[0] != "Foundation Course" {
		t.Fatalf("unexpected names: %v", names)
	}
}

func TestSuccessorsAndPrerequisites(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	for _, name := range []string{"Foundation Course", "Advanced Course"} {
		if err := store.InsertProgram(ctx, graph.Program{Name: name}); err != nil {
			t.Fatalf("insert program: %v", err)
		}
	}
	if err := store.LinkPrerequisite(ctx, "Foundation Course", "Advanced Course"); err != nil {
		t.Fatalf("LinkPrerequisite: %v", err)
	}

	successors, err := store.Successors(ctx, "Foundation Course")
	if err != nil {
		t.Fatalf("Successors: %v", err)
	}
	if len(successors) != 1 || successors[0] != "Advanced Course" {
		t.Fatalf("unexpected successors: %v", successors)
	}

	record, err := store.ProgramDetails(ctx, "Advanced Course")
	if err != nil {
		t.Fatalf("ProgramDetails: %v", err)
	}
	if record == nil || len(record.Prerequisites) != 1 || record.Prerequisites[0] != "Foundation Course" {
		t.Fatalf("unexpected record: %+v", record)
	}
}

func TestInsertEmptyNameRejected(t *testing.T) {
	store := NewStore()
	if err := store.InsertProgram(context.Background(), graph.Program{Name: "   "}); err == nil {
		t.Fatal("expected error for empty program name")
	}
}
