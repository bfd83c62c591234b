// Package studentid derives NIMs and institutional email addresses.
package studentid

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"sim-mahasiswa-server-go/models"
)

const (
	// EmailDomain is appended to every generated student address
	EmailDomain = "student.unud.ac.id"

	sequenceDigits = 3
	maxSequence    = 999
	maxEmailWords  = 3
)

var (
	ErrMalformedID = errors.New("student id has a non-numeric sequence suffix")
	ErrCohortFull  = errors.New("cohort has no sequence numbers left")
)

// keeps ASCII letters and any Unicode space, so names split on NBSP too
var nonLetters = regexp.MustCompile(`[^a-zA-Z\p{Z}\s]`)

// Sequence parses the trailing 3-digit sequence number of an id
func Sequence(id string) (int, error) {
	if len(id) < sequenceDigits {
		return 0, fmt.Errorf("%w: %q", ErrMalformedID, id)
	}
	suffix := id[len(id)-sequenceDigits:]
	for _, r := range suffix {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("%w: %q", ErrMalformedID, id)
		}
	}
	n, err := strconv.Atoi(suffix)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedID, id)
	}
	return n, nil
}

// Next returns the next id for the (program, year) cohort:
// last two digits of year + faculty code + program code + 3-digit sequence,
// where the sequence is one past the highest already in the cohort.
func Next(p *models.Program, year int) (string, error) {
	last := 0
	if c, ok := p.Cohort(year); ok {
		for _, s := range c.Students {
			n, err := Sequence(s.ID)
			if err != nil {
				return "", fmt.Errorf("cohort %s/%d: %w", p.Name, year, err)
			}
			if n > last {
				last = n
			}
		}
	}
	next := last + 1
	if next > maxSequence {
		return "", fmt.Errorf("cohort %s/%d: %w", p.Name, year, ErrCohortFull)
	}
	return fmt.Sprintf("%02d%s%s%03d", year%100, p.FacultyCode, p.ProgramCode, next), nil
}

// Email builds the institutional address from the last (up to) three words
// of the name, letters only and lowercased, followed by the last three
// characters of id. A name without letters yields an empty prefix.
func Email(fullName, id string) string {
	cleaned := strings.ToLower(nonLetters.ReplaceAllString(fullName, ""))
	words := strings.Fields(cleaned)
	if len(words) > maxEmailWords {
		words = words[len(words)-maxEmailWords:]
	}
	tail := id
	if len(tail) > sequenceDigits {
		tail = tail[len(tail)-sequenceDigits:]
	}
	return strings.Join(words, "") + tail + "@" + EmailDomain
}
