// File path: internal/graph/memory/store.go
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/nextsteplk/pathway/internal/graph"
)

// Store is an in-memory implementation of graph.Client. It backs tests and
// deployments where no Kuzu endpoint is configured.
type Store struct {
	mu sync.RWMutex

	institutes     map[string]string
	departments    map[string]departmentInfo
	programs       map[string]*programInfo
	qualifications map[string]string
	careers        map[string]string

	// requiredBy maps a qualification key to the program keys requiring it.
	requiredBy map[string]map[string]struct{}
	// successors maps a program key to the program keys it is a prerequisite
	// for.
	successors map[string]map[string]struct{}
	// predecessors is the reverse of successors.
	predecessors map[string]map[string]struct{}
}

type departmentInfo struct {
	name      string
	institute string
}

type programInfo struct {
	name           string
	department     string
	qualifications []string
	careers        []string
}

// NewStore constructs an empty in-memory graph.
func NewStore() *Store {
	return &Store{
		institutes:     make(map[string]string),
		departments:    make(map[string]departmentInfo),
		programs:       make(map[string]*programInfo),
		qualifications: make(map[string]string),
		careers:        make(map[string]string),
		requiredBy:     make(map[string]map[string]struct{}),
		successors:     make(map[string]map[string]struct{}),
		predecessors:   make(map[string]map[string]struct{}),
	}
}

func (s *Store) Available() bool { return s != nil }

func (s *Store) EnsureSchema(ctx context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) InsertInstitute(ctx context.Context, institute graph.Institute) error {
	name := strings.TrimSpace(institute.Name)
	if name == "" {
		return errEmptyName
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.institutes[normalize(name)] = name
	return nil
}

func (s *Store) InsertDepartment(ctx context.Context, department graph.Department) error {
	name := strings.TrimSpace(department.Name)
	if name == "" {
		return errEmptyName
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.departments[normalize(name)] = departmentInfo{
		name:      name,
		institute: strings.TrimSpace(department.Institute),
	}
	return nil
}

func (s *Store) InsertQualification(ctx context.Context, qualification graph.Qualification) error {
	name := strings.TrimSpace(qualification.Name)
	if name == "" {
		return errEmptyName
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.qualifications[normalize(name)] = name
	return nil
}

func (s *Store) InsertCareer(ctx context.Context, career graph.Career) error {
	title := strings.TrimSpace(career.Title)
	if title == "" {
		return errEmptyName
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.careers[normalize(title)] = title
	return nil
}

func (s *Store) InsertProgram(ctx context.Context, program graph.Program) error {
	name := strings.TrimSpace(program.Name)
	if name == "" {
		return errEmptyName
	}
	key := normalize(name)
	s.mu.Lock()
	defer s.mu.Unlock()
	info, ok := s.programs[key]
	if !ok {
		info = &programInfo{name: name}
		s.programs[key] = info
	}
	if department := strings.TrimSpace(program.Department); department != "" {
		info.department = department
	}
	for _, qualification := range program.Qualifications {
		trimmed := strings.TrimSpace(qualification)
		if trimmed == "" {
			continue
		}
		info.qualifications = appendUnique(info.qualifications, trimmed)
		qKey := normalize(trimmed)
		if s.qualifications[qKey] == "" {
			s.qualifications[qKey] = trimmed
		}
		addEdge(s.requiredBy, qKey, key)
	}
	for _, career := range program.Careers {
		trimmed := strings.TrimSpace(career)
		if trimmed == "" {
			continue
		}
		info.careers = appendUnique(info.careers, trimmed)
		cKey := normalize(trimmed)
		if s.careers[cKey] == "" {
			s.careers[cKey] = trimmed
		}
	}
	return nil
}

func (s *Store) LinkPrerequisite(ctx context.Context, from, to string) error {
	fromKey := normalize(from)
	toKey := normalize(to)
	if fromKey == "" || toKey == "" {
		return errEmptyName
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.programs[fromKey]; !ok {
		s.programs[fromKey] = &programInfo{name: strings.TrimSpace(from)}
	}
	if _, ok := s.programs[toKey]; !ok {
		s.programs[toKey] = &programInfo{name: strings.TrimSpace(to)}
	}
	addEdge(s.successors, fromKey, toKey)
	addEdge(s.predecessors, toKey, fromKey)
	return nil
}

func (s *Store) ProgramsRequiring(ctx context.Context, qualification string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var names []string
	for key := range s.requiredBy[normalize(qualification)] {
		if info, ok := s.programs[key]; ok {
			names = append(names, info.name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) Successors(ctx context.Context, program string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var names []string
	for key := range s.successors[normalize(program)] {
		if info, ok := s.programs[key]; ok {
			names = append(names, info.name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) ProgramDetails(ctx context.Context, name string) (*graph.ProgramRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key := normalize(name)
	info, ok := s.programs[key]
	if !ok {
		return nil, nil
	}
	record := &graph.ProgramRecord{
		Name:           info.name,
		Department:     info.department,
		Qualifications: append([]string(nil), info.qualifications...),
		Careers:        append([]string(nil), info.careers...),
	}
	if dept, ok := s.departments[normalize(info.department)]; ok {
		record.Institute = dept.institute
	}
	for preKey := range s.predecessors[key] {
		if pre, ok := s.programs[preKey]; ok {
			record.Prerequisites = append(record.Prerequisites, pre.name)
		}
	}
	sort.Strings(record.Prerequisites)
	return record, nil
}

var errEmptyName = errString("graph: name required")

type errString string

func (e errString) Error() string { return string(e) }

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func addEdge(edges map[string]map[string]struct{}, from, to string) {
	neighbors := edges[from]
	if neighbors == nil {
		neighbors = make(map[string]struct{})
		edges[from] = neighbors
	}
	neighbors[to] = struct{}{}
}

func appendUnique(values []string, value string) []string {
	for _, existing := range values {
		if strings.EqualFold(existing, value) {
			return values
		}
	}
	return append(values, value)
}
