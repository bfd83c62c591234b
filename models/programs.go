package models

const (
	DefaultAdminEmail = "admin@unud.ac.id"

	DefaultCookieName = "sim_auth_session"
	DefaultCookieKey  = "default_encryption_key"

	// Codes used for program names missing from the table
	UnknownFacultyCode = "00"
	UnknownProgramCode = "000"
)

type programCode struct {
	faculty string
	program string
}

// FMIPA study programs and their NIM codes
var programCodes = map[string]programCode{
	"Kimia":       {"08", "511"},
	"Fisika":      {"08", "521"},
	"Biologi":     {"08", "531"},
	"Matematika":  {"08", "541"},
	"Farmasi":     {"08", "551"},
	"Informatika": {"08", "561"},
}

// LookupProgramCode returns the faculty and program codes for a program name
func LookupProgramCode(name string) (faculty, program string) {
	code, ok := programCodes[name]
	if !ok {
		return UnknownFacultyCode, UnknownProgramCode
	}
	return code.faculty, code.program
}

// KnownProgram reports whether name is in the code table
func KnownProgram(name string) bool {
	_, ok := programCodes[name]
	return ok
}

// DefaultCookieConfig is used when the store holds no cookie document
func DefaultCookieConfig() CookieConfig {
	return CookieConfig{Name: DefaultCookieName, Key: DefaultCookieKey}
}
