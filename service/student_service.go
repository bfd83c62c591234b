package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"sim-mahasiswa-server-go/db"
	"sim-mahasiswa-server-go/index"
	"sim-mahasiswa-server-go/models"
	"sim-mahasiswa-server-go/studentid"
)

const adminUsername = "admin"

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUnknownProgram     = errors.New("unknown study program")
	ErrInvalidName        = errors.New("name must contain at least one letter")
	ErrInvalidYear        = errors.New("invalid cohort year")
	ErrNotLoaded          = errors.New("student index not loaded")
	ErrDuplicateID        = errors.New("generated id is already taken")
	ErrAdminUnverified    = errors.New("stored admin credential could not be read")
)

// SingletonStatus records how an optional singleton document was resolved
type SingletonStatus int

const (
	SingletonMissing SingletonStatus = iota // absent, defaults in use
	SingletonLoaded
	SingletonFailed // read error, defaults in use
)

func (s SingletonStatus) String() string {
	switch s {
	case SingletonLoaded:
		return "loaded"
	case SingletonFailed:
		return "failed"
	default:
		return "missing"
	}
}

// LoadReport summarizes a bulk load from the store
type LoadReport struct {
	Programs int
	Cohorts  int
	Students int
	Rejected []string // "program/year/id: reason"
	Admin    SingletonStatus
	Cookie   SingletonStatus
}

// Principal is the identity attached to an authenticated session
type Principal struct {
	Role     models.Role
	Username string
	Student  *models.Student // set for students
	Email    string
}

// Registration is the input of a new student sign-up
type Registration struct {
	Name     string
	Program  string
	Year     int
	Password string
}

// StudentService owns the in-memory student index and the singletons loaded
// with it. Reads take the read lock; registration takes the write lock for
// the whole id scan, store write and index update.
type StudentService struct {
	store db.Store

	mu       sync.RWMutex
	loaded   bool
	report   LoadReport
	students *index.HashTable[*models.Student]
	tree     *index.Tree
	admin    *models.AdminCredential
	cookie   models.CookieConfig
}

// NewStudentService creates a service over store; call Load before use
func NewStudentService(store db.Store) *StudentService {
	return &StudentService{
		store:    store,
		students: index.NewHashTable[*models.Student](index.DefaultBuckets),
		tree:     index.NewTree(),
		cookie:   models.DefaultCookieConfig(),
	}
}

// Loaded reports whether Load has completed
func (s *StudentService) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Load imports every program, cohort and student from the store into the
// index, then resolves the admin and cookie singletons. It runs once; later
// calls return the first report. Store errors while walking programs abort
// the load; singleton errors only downgrade their status.
func (s *StudentService) Load(ctx context.Context) (LoadReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return s.report, nil
	}

	students := index.NewHashTable[*models.Student](index.DefaultBuckets)
	tree := index.NewTree()
	report := LoadReport{}

	programs, err := s.store.ProgramNames(ctx)
	if err != nil {
		return report, fmt.Errorf("load programs: %w", err)
	}
	for _, name := range programs {
		program := tree.AddProgram(name)
		report.Programs++

		years, err := s.store.CohortYears(ctx, name)
		if err != nil {
			return report, fmt.Errorf("load cohorts of %s: %w", name, err)
		}
		for _, yearKey := range years {
			year, err := strconv.Atoi(yearKey)
			if err != nil {
				log.Printf("Skipping cohort %s/%s: year is not a number", name, yearKey)
				report.Rejected = append(report.Rejected, fmt.Sprintf("%s/%s: invalid year", name, yearKey))
				continue
			}
			docs, err := s.store.CohortStudents(ctx, name, yearKey)
			if err != nil {
				return report, fmt.Errorf("load students of %s/%d: %w", name, year, err)
			}
			program.EnsureCohort(year)
			report.Cohorts++

			for i := range docs {
				st := docs[i]
				if _, err := studentid.Sequence(st.ID); err != nil {
					log.Printf("Rejecting student %s in %s/%d: %v", st.ID, name, year, err)
					report.Rejected = append(report.Rejected, fmt.Sprintf("%s/%d/%s: malformed id", name, year, st.ID))
					continue
				}
				if _, dup := students.Find(st.ID); dup {
					log.Printf("Rejecting student %s in %s/%d: id already loaded", st.ID, name, year)
					report.Rejected = append(report.Rejected, fmt.Sprintf("%s/%d/%s: duplicate id", name, year, st.ID))
					continue
				}
				students.Insert(st.ID, &st)
				program.AddStudent(year, &st)
				report.Students++
			}
		}
	}

	admin, adminStatus := s.loadAdmin(ctx)
	cookie, cookieStatus := s.loadCookie(ctx)
	report.Admin = adminStatus
	report.Cookie = cookieStatus

	s.students = students
	s.tree = tree
	s.admin = admin
	s.cookie = cookie
	s.report = report
	s.loaded = true

	log.Printf("Loaded %d students in %d cohorts across %d programs (%d rejected, admin %s, cookie config %s)",
		report.Students, report.Cohorts, report.Programs, len(report.Rejected), adminStatus, cookieStatus)
	return report, nil
}

func (s *StudentService) loadAdmin(ctx context.Context) (*models.AdminCredential, SingletonStatus) {
	cred, err := s.store.AdminCredential(ctx)
	switch {
	case errors.Is(err, db.ErrNotFound):
		return nil, SingletonMissing
	case err != nil:
		log.Printf("Warning: could not read admin credential, admin login disabled: %v", err)
		return nil, SingletonFailed
	}
	if cred.Email == "" {
		cred.Email = models.DefaultAdminEmail
	}
	return cred, SingletonLoaded
}

func (s *StudentService) loadCookie(ctx context.Context) (models.CookieConfig, SingletonStatus) {
	conf := models.DefaultCookieConfig()
	stored, err := s.store.CookieConfig(ctx)
	switch {
	case errors.Is(err, db.ErrNotFound):
		return conf, SingletonMissing
	case err != nil:
		log.Printf("Warning: could not read cookie config, using defaults: %v", err)
		return conf, SingletonFailed
	}
	if stored.Name != "" {
		conf.Name = stored.Name
	}
	if stored.Key != "" {
		conf.Key = stored.Key
	}
	return conf, SingletonLoaded
}

// Report returns the summary of the completed load
func (s *StudentService) Report() LoadReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.report
}

// Register assigns the next NIM and email in the (program, year) cohort,
// persists the student, then adds it to the index. The program must already
// be loaded.
func (s *StudentService) Register(ctx context.Context, reg Registration) (models.Student, error) {
	return s.register(ctx, reg, false)
}

// register is Register with an option to open a program that is not loaded
// yet but has a known code. The program joins the tree only once its first
// student is stored.
func (s *StudentService) register(ctx context.Context, reg Registration, openProgram bool) (models.Student, error) {
	if !hasLetter(reg.Name) {
		return models.Student{}, ErrInvalidName
	}
	if reg.Year <= 0 {
		return models.Student{}, ErrInvalidYear
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return models.Student{}, ErrNotLoaded
	}

	program, ok := s.tree.Program(reg.Program)
	if !ok {
		if !openProgram || !models.KnownProgram(reg.Program) {
			return models.Student{}, fmt.Errorf("%w: %q", ErrUnknownProgram, reg.Program)
		}
		program = models.NewProgram(reg.Program)
	}
	id, err := studentid.Next(program, reg.Year)
	if err != nil {
		return models.Student{}, err
	}
	if _, taken := s.students.Find(id); taken {
		return models.Student{}, fmt.Errorf("%w: %s", ErrDuplicateID, id)
	}
	st := &models.Student{
		ID:       id,
		Name:     reg.Name,
		Email:    studentid.Email(reg.Name, id),
		Password: reg.Password,
	}
	if err := s.store.SaveStudent(ctx, program.Name, reg.Year, *st); err != nil {
		return models.Student{}, err
	}
	if !ok {
		program = s.tree.AddProgram(program.Name)
		s.report.Programs++
		log.Printf("Opened program %s", program.Name)
	}
	s.students.Insert(id, st)
	program.AddStudent(reg.Year, st)
	s.report.Students++

	log.Printf("Registered student %s in %s/%d", id, program.Name, reg.Year)
	return *st, nil
}

// SeedAdmin stores an admin credential when the store has none, and refuses
// when the stored one could not be read at load. It reports whether a
// credential was written.
func (s *StudentService) SeedAdmin(ctx context.Context, cred models.AdminCredential) (bool, error) {
	if cred.Password == "" {
		return false, nil
	}
	if cred.Email == "" {
		cred.Email = models.DefaultAdminEmail
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return false, ErrNotLoaded
	}
	switch s.report.Admin {
	case SingletonLoaded:
		return false, nil
	case SingletonFailed:
		return false, ErrAdminUnverified
	}
	if err := s.store.SaveAdminCredential(ctx, cred); err != nil {
		return false, err
	}
	s.admin = &cred
	s.report.Admin = SingletonLoaded
	return true, nil
}

func isAdminName(username string) bool {
	return strings.EqualFold(username, adminUsername)
}

// Authenticate checks a login attempt. Every failure returns
// ErrInvalidCredentials so unknown users and wrong passwords look alike.
func (s *StudentService) Authenticate(username, password string) (Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if isAdminName(username) {
		if s.admin == nil || s.admin.Password == "" || password != s.admin.Password {
			return Principal{}, ErrInvalidCredentials
		}
		return Principal{Role: models.RoleAdmin, Username: username, Email: s.admin.Email}, nil
	}

	st, ok := s.students.Find(username)
	if !ok || st.Password != password {
		return Principal{}, ErrInvalidCredentials
	}
	cp := *st
	return Principal{Role: models.RoleStudent, Username: st.ID, Student: &cp, Email: st.Email}, nil
}

// Restore resolves a remembered username without a password check: a
// student id that is still indexed, or the admin account name.
func (s *StudentService) Restore(username string) (Principal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if st, ok := s.students.Find(username); ok {
		cp := *st
		return Principal{Role: models.RoleStudent, Username: st.ID, Student: &cp, Email: st.Email}, true
	}
	if isAdminName(username) {
		return Principal{Role: models.RoleAdmin, Username: username, Email: s.adminEmail()}, true
	}
	return Principal{}, false
}

func (s *StudentService) adminEmail() string {
	if s.admin != nil && s.admin.Email != "" {
		return s.admin.Email
	}
	return models.DefaultAdminEmail
}

// AdminEmail returns the admin address shown on the dashboard
func (s *StudentService) AdminEmail() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.adminEmail()
}

// FindStudent looks up a student by NIM
func (s *StudentService) FindStudent(id string) (models.Student, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.students.Find(id)
	if !ok {
		return models.Student{}, false
	}
	return *st, true
}

// StudentCount returns the number of indexed students
func (s *StudentService) StudentCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.students.Len()
}

// CookieConfig returns the resolved remember-me cookie settings
func (s *StudentService) CookieConfig() models.CookieConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cookie
}

// ProgramNames lists programs in load order, for the registration form
func (s *StudentService) ProgramNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	programs := s.tree.Programs()
	names := make([]string, 0, len(programs))
	for _, p := range programs {
		names = append(names, p.Name)
	}
	return names
}

// CohortListing is a snapshot of one cohort for rendering
type CohortListing struct {
	Year     int
	Students []models.Student
}

// ProgramListing is a snapshot of one program for rendering
type ProgramListing struct {
	Name    string
	Cohorts []CohortListing
}

// Listing snapshots every program (load order) and cohort (ascending year)
func (s *StudentService) Listing() []ProgramListing {
	s.mu.RLock()
	defer s.mu.RUnlock()

	programs := s.tree.Programs()
	out := make([]ProgramListing, 0, len(programs))
	for _, p := range programs {
		pl := ProgramListing{Name: p.Name}
		for _, year := range p.Years() {
			c, _ := p.Cohort(year)
			cl := CohortListing{Year: year, Students: make([]models.Student, 0, len(c.Students))}
			for _, st := range c.Students {
				cl.Students = append(cl.Students, *st)
			}
			pl.Cohorts = append(pl.Cohorts, cl)
		}
		out = append(out, pl)
	}
	return out
}

func hasLetter(name string) bool {
	for _, r := range name {
		if r < unicode.MaxASCII && unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// Ping checks the backing store
func (s *StudentService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
