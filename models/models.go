package models

import "sort"

// Role is the authenticated role attached to a session
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// Student represents a registered student (mahasiswa)
type Student struct {
	ID       string `json:"id"`    // NIM, format AAFFPPPNNN
	Name     string `json:"nama"`  // Full name
	Email    string `json:"email"` // Generated institutional email
	Password string `json:"-"`     // Stored as entered
}

// Cohort groups the students admitted in one year (angkatan)
type Cohort struct {
	Year     int        `json:"year"`
	Students []*Student `json:"students"` // Arrival order
}

// AddStudent appends a student to the cohort
func (c *Cohort) AddStudent(s *Student) {
	c.Students = append(c.Students, s)
}

// Program represents a study program (prodi) and its cohorts
type Program struct {
	Name        string `json:"name"`
	FacultyCode string `json:"facultyCode"` // 2 digits
	ProgramCode string `json:"programCode"` // 3 digits
	cohorts     map[int]*Cohort
}

// NewProgram creates a program with its codes resolved from the program table
func NewProgram(name string) *Program {
	faculty, program := LookupProgramCode(name)
	return &Program{
		Name:        name,
		FacultyCode: faculty,
		ProgramCode: program,
		cohorts:     make(map[int]*Cohort),
	}
}

// Cohort returns the cohort admitted in year, if any
func (p *Program) Cohort(year int) (*Cohort, bool) {
	c, ok := p.cohorts[year]
	return c, ok
}

// EnsureCohort returns the cohort for year, creating an empty one when missing
func (p *Program) EnsureCohort(year int) *Cohort {
	c, ok := p.cohorts[year]
	if !ok {
		c = &Cohort{Year: year}
		p.cohorts[year] = c
	}
	return c
}

// AddStudent places a student into the cohort for year
func (p *Program) AddStudent(year int, s *Student) {
	p.EnsureCohort(year).AddStudent(s)
}

// Years returns the cohort years in ascending order
func (p *Program) Years() []int {
	years := make([]int, 0, len(p.cohorts))
	for y := range p.cohorts {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// AdminCredential holds the single admin login
type AdminCredential struct {
	Password string `json:"-"`
	Email    string `json:"email"`
}

// CookieConfig names the remember-me cookie and the key it is encrypted with
type CookieConfig struct {
	Name string `json:"name"`
	Key  string `json:"-"`
}
