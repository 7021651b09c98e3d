// File path: internal/graph/dataset.go
package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Dataset is the on-disk seed format for the education graph. Careers and
// qualifications referenced by programs are created implicitly.
type Dataset struct {
	Institutes []DatasetInstitute `json:"institutes"`
}

type DatasetInstitute struct {
	Name        string              `json:"name"`
	Departments []DatasetDepartment `json:"departments"`
}

type DatasetDepartment struct {
	Name     string           `json:"name"`
	Programs []DatasetProgram `json:"programs"`
}

type DatasetProgram struct {
	Name            string   `json:"name"`
	Requires        []string `json:"requires,omitempty"`
	LeadsTo         []string `json:"leads_to,omitempty"`
	PrerequisiteFor []string `json:"prerequisite_for,omitempty"`
}

// LoadDataset parses a seed dataset from the given JSON file.
func LoadDataset(path string) (*Dataset, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	var ds Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("parse dataset: %w", err)
	}
	return &ds, nil
}

// Seed ensures the schema exists and upserts every node and relationship in
// the dataset. Prerequisite links are applied last so both endpoints exist.
func Seed(ctx context.Context, client Client, ds *Dataset) error {
	if client == nil {
		return fmt.Errorf("graph client required")
	}
	if ds == nil {
		return fmt.Errorf("dataset required")
	}
	if err := client.EnsureSchema(ctx); err != nil {
		return err
	}

	qualifications := make(map[string]struct{})
	careers := make(map[string]struct{})
	for _, institute := range ds.Institutes {
		for _, department := range institute.Departments {
			for _, program := range department.Programs {
				for _, q := range program.Requires {
					if trimmed := strings.TrimSpace(q); trimmed != "" {
						qualifications[trimmed] = struct{}{}
					}
				}
				for _, c := range program.LeadsTo {
					if trimmed := strings.TrimSpace(c); trimmed != "" {
						careers[trimmed] = struct{}{}
					}
				}
			}
		}
	}
	for _, name := range sortedKeys(qualifications) {
		if err := client.InsertQualification(ctx, Qualification{Name: name}); err != nil {
			return fmt.Errorf("seed qualification %q: %w", name, err)
		}
	}
	for _, title := range sortedKeys(careers) {
		if err := client.InsertCareer(ctx, Career{Title: title}); err != nil {
			return fmt.Errorf("seed career %q: %w", title, err)
		}
	}

	type prereqLink struct{ from, to string }
	var links []prereqLink
	for _, institute := range ds.Institutes {
		if strings.TrimSpace(institute.Name) == "" {
			continue
		}
		if err := client.InsertInstitute(ctx, Institute{Name: institute.Name}); err != nil {
			return fmt.Errorf("seed institute %q: %w", institute.Name, err)
		}
		for _, department := range institute.Departments {
			if strings.TrimSpace(department.Name) == "" {
				continue
			}
			if err := client.InsertDepartment(ctx, Department{Name: department.Name, Institute: institute.Name}); err != nil {
				return fmt.Errorf("seed department %q: %w", department.Name, err)
			}
			for _, program := range department.Programs {
				if strings.TrimSpace(program.Name) == "" {
					continue
				}
				node := Program{
					Name:           program.Name,
					Department:     department.Name,
					Qualifications: program.Requires,
					Careers:        program.LeadsTo,
				}
				if err := client.InsertProgram(ctx, node); err != nil {
					return fmt.Errorf("seed program %q: %w", program.Name, err)
				}
				for _, successor := range program.PrerequisiteFor {
					if strings.TrimSpace(successor) == "" {
						continue
					}
					links = append(links, prereqLink{from: program.Name, to: successor})
				}
			}
		}
	}
	for _, link := range links {
		if err := client.LinkPrerequisite(ctx, link.from, link.to); err != nil {
			return fmt.Errorf("seed prerequisite %q -> %q: %w", link.from, link.to, err)
		}
	}
	return nil
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
