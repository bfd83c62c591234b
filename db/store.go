package db

import (
	"context"
	"errors"

	"sim-mahasiswa-server-go/models"
)

// ErrNotFound is returned when an optional singleton document is absent
var ErrNotFound = errors.New("document not found")

const (
	DefaultRootCollection = "FMIPA"

	adminCollection  = "admin"
	adminDocument    = "admin"
	cookieCollection = "cookies"
	cookieDocument   = "default_cookie"

	fieldName     = "nama"
	fieldEmail    = "email"
	fieldPassword = "password"
	fieldKey      = "key"
	fieldCookie   = "name"
)

// Store is the remote document store behind the student index.
// Programs hold cohort collections keyed by year; cohorts hold one
// document per student keyed by id.
type Store interface {
	Ping(ctx context.Context) error
	ProgramNames(ctx context.Context) ([]string, error)
	CohortYears(ctx context.Context, program string) ([]string, error)
	CohortStudents(ctx context.Context, program, year string) ([]models.Student, error)
	SaveStudent(ctx context.Context, program string, year int, student models.Student) error
	AdminCredential(ctx context.Context) (*models.AdminCredential, error)
	SaveAdminCredential(ctx context.Context, cred models.AdminCredential) error
	CookieConfig(ctx context.Context) (*models.CookieConfig, error)
	Close() error
}

// studentDocument is the stored shape of a student; the id is the document key
type studentDocument struct {
	Name     string `firestore:"nama"`
	Email    string `firestore:"email"`
	Password string `firestore:"password"`
}

type adminDocumentData struct {
	Password string `firestore:"password"`
	Email    string `firestore:"email"`
}

type cookieDocumentData struct {
	Name string `firestore:"name"`
	Key  string `firestore:"key"`
}
