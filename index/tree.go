package index

import "sim-mahasiswa-server-go/models"

// Tree groups programs in the order they were first loaded.
// Each program owns its year -> cohort mapping.
type Tree struct {
	order    []string
	programs map[string]*models.Program
}

// NewTree creates an empty program tree
func NewTree() *Tree {
	return &Tree{programs: make(map[string]*models.Program)}
}

// AddProgram returns the named program, creating it on first sight
func (t *Tree) AddProgram(name string) *models.Program {
	if p, ok := t.programs[name]; ok {
		return p
	}
	p := models.NewProgram(name)
	t.programs[name] = p
	t.order = append(t.order, name)
	return p
}

// Program looks up a program by name
func (t *Tree) Program(name string) (*models.Program, bool) {
	p, ok := t.programs[name]
	return p, ok
}

// Programs returns all programs in load order
func (t *Tree) Programs() []*models.Program {
	out := make([]*models.Program, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, t.programs[name])
	}
	return out
}

// AddStudent appends s to the (program, year) cohort, creating the cohort
// when needed. It reports false when the program is unknown.
func (t *Tree) AddStudent(program string, year int, s *models.Student) bool {
	p, ok := t.programs[program]
	if !ok {
		return false
	}
	p.AddStudent(year, s)
	return true
}

// Cohort returns the (program, year) cohort, if any
func (t *Tree) Cohort(program string, year int) (*models.Cohort, bool) {
	p, ok := t.programs[program]
	if !ok {
		return nil, false
	}
	return p.Cohort(year)
}
