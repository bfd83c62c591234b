package config

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendRedis     = "redis"
	BackendFirestore = "firestore"
)

// MaxRememberFor is the longest remember-me lifetime the cookie codec
// accepts; securecookie rejects values older than 30 days.
const MaxRememberFor = 30 * 24 * time.Hour

type Config struct {
	HTTPAddr string

	StoreBackend   string
	StoreTimeout   time.Duration
	RootCollection string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	FirebaseCredentials string
	FirebaseProjectID   string

	SessionName string
	RememberFor time.Duration
	CohortYears []int

	SeedRosterFile string
	AdminPassword  string
	AdminEmail     string
}

// LoadENV reads .env into the environment when the file exists
func LoadENV() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("Warning: could not read .env: %v", err)
	}
}

func Load() Config {
	cfg := Config{
		HTTPAddr:            getenv("HTTP_ADDR", ":8080"),
		StoreBackend:        strings.ToLower(getenv("STORE_BACKEND", BackendRedis)),
		StoreTimeout:        getenvDuration("STORE_TIMEOUT", 10*time.Second),
		RootCollection:      getenv("ROOT_COLLECTION", "FMIPA"),
		RedisAddr:           getenv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword:       os.Getenv("REDIS_PASSWORD"),
		RedisDB:             getenvInt("REDIS_DB", 8),
		FirebaseCredentials: getenv("FIREBASE_CREDENTIALS", "sim-mahasiswa-if-firebase-adminsdk.json"),
		FirebaseProjectID:   os.Getenv("FIREBASE_PROJECT_ID"),
		SessionName:         getenv("SESSION_NAME", "sim_session"),
		RememberFor:         getenvDuration("REMEMBER_FOR", MaxRememberFor),
		CohortYears:         getenvInts("COHORT_YEARS", []int{2021, 2022, 2023, 2024, 2025}),
		SeedRosterFile:      os.Getenv("SEED_ROSTER_FILE"),
		AdminPassword:       os.Getenv("ADMIN_PASSWORD"),
		AdminEmail:          getenv("ADMIN_EMAIL", "admin@unud.ac.id"),
	}

	if cfg.RememberFor > MaxRememberFor {
		log.Printf("Warning: REMEMBER_FOR %s exceeds %s, using %s", cfg.RememberFor, MaxRememberFor, MaxRememberFor)
		cfg.RememberFor = MaxRememberFor
	} else if cfg.RememberFor <= 0 {
		log.Printf("Warning: REMEMBER_FOR %s is not positive, using %s", cfg.RememberFor, MaxRememberFor)
		cfg.RememberFor = MaxRememberFor
	}
	return cfg
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return fallback
}

// getenvInts parses a comma-separated list; any bad entry falls back entirely
func getenvInts(key string, fallback []int) []int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []int
	for _, part := range strings.Split(val, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return fallback
		}
		out = append(out, n)
	}
	return out
}
