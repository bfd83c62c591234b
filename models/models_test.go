package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookupProgramCode(t *testing.T) {
	faculty, program := LookupProgramCode("Informatika")
	assert.Equal(t, "08", faculty)
	assert.Equal(t, "561", program)

	faculty, program = LookupProgramCode("Astronomi")
	assert.Equal(t, UnknownFacultyCode, faculty)
	assert.Equal(t, UnknownProgramCode, program)
}

func TestProgramCohorts(t *testing.T) {
	p := NewProgram("Kimia")
	assert.Equal(t, "511", p.ProgramCode)

	_, ok := p.Cohort(2024)
	assert.False(t, ok)

	p.AddStudent(2024, &Student{ID: "2408511002"})
	p.AddStudent(2022, &Student{ID: "2208511001"})
	p.AddStudent(2024, &Student{ID: "2408511001"})

	c, ok := p.Cohort(2024)
	assert.True(t, ok)
	assert.Equal(t, []string{"2408511002", "2408511001"}, []string{c.Students[0].ID, c.Students[1].ID})
	assert.Equal(t, []int{2022, 2024}, p.Years())
}
