package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sim-mahasiswa-server-go/config"
	"sim-mahasiswa-server-go/db"
	"sim-mahasiswa-server-go/handlers"
	"sim-mahasiswa-server-go/models"
	"sim-mahasiswa-server-go/service"
)

func main() {
	config.LoadENV()
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := openStore(ctx, cfg)
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("store close error: %v", err)
		}
	}()

	svc := service.NewStudentService(store)
	loadCtx, cancel := context.WithTimeout(ctx, cfg.StoreTimeout)
	report, err := svc.Load(loadCtx)
	cancel()
	if err != nil {
		log.Fatalf("Failed to load student data from %s store: %v", cfg.StoreBackend, err)
	}
	for _, rejected := range report.Rejected {
		log.Printf("Rejected record: %s", rejected)
	}

	checkAndSeedData(ctx, cfg, svc)

	router, err := handlers.NewRouter(svc, handlers.RouterConfig{
		SessionName: cfg.SessionName,
		RememberFor: cfg.RememberFor,
		CohortYears: cfg.CohortYears,
	})
	if err != nil {
		log.Fatalf("router init failed: %v", err)
	}
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("Starting server on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to run server: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

// openStore connects to the configured backend or exits with a hint at
// the usual cause.
func openStore(ctx context.Context, cfg config.Config) db.Store {
	connectCtx, cancel := context.WithTimeout(ctx, cfg.StoreTimeout)
	defer cancel()

	switch cfg.StoreBackend {
	case config.BackendRedis:
		client, err := db.InitializeRedisClient(connectCtx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Fatalf("%v (is Redis running and REDIS_ADDR correct?)", err)
		}
		return db.NewRedisService(client, cfg.RootCollection)
	case config.BackendFirestore:
		client, err := db.InitializeFirestoreClient(connectCtx, cfg.FirebaseCredentials, cfg.FirebaseProjectID)
		if err != nil {
			log.Fatalf("%v (check FIREBASE_CREDENTIALS and FIREBASE_PROJECT_ID)", err)
		}
		store := db.NewFirestoreService(client, cfg.RootCollection)
		if err := store.Ping(connectCtx); err != nil {
			log.Fatalf("Firestore is not reachable: %v (check network access and service account permissions)", err)
		}
		return store
	default:
		log.Fatalf("Unknown STORE_BACKEND %q (expected %q or %q)", cfg.StoreBackend, config.BackendRedis, config.BackendFirestore)
	}
	return nil
}

// checkAndSeedData imports the seed roster into an empty store and writes an
// admin credential when none is stored.
func checkAndSeedData(ctx context.Context, cfg config.Config, svc *service.StudentService) {
	if count := svc.StudentCount(); count > 0 {
		log.Printf("Found %d existing students. Skipping roster seed.", count)
	} else if cfg.SeedRosterFile != "" {
		seedRoster(ctx, cfg.SeedRosterFile, svc)
	}

	if cfg.AdminPassword != "" {
		written, err := svc.SeedAdmin(ctx, models.AdminCredential{Password: cfg.AdminPassword, Email: cfg.AdminEmail})
		switch {
		case errors.Is(err, service.ErrAdminUnverified):
			log.Printf("Warning: not seeding admin credential: %v (store read failed at startup; the stored credential is kept)", err)
		case err != nil:
			log.Printf("Warning: could not store admin credential: %v", err)
		case written:
			log.Printf("Stored admin credential for %s", cfg.AdminEmail)
		}
	} else if svc.Report().Admin != service.SingletonLoaded {
		log.Printf("Warning: no admin credential loaded (status %s); admin login is disabled. Set ADMIN_PASSWORD to create one.", svc.Report().Admin)
	}
}

func seedRoster(ctx context.Context, path string, svc *service.StudentService) {
	file, err := os.Open(path)
	if err != nil {
		log.Printf("Warning: cannot open seed roster %s: %v", path, err)
		return
	}
	defer file.Close()

	log.Printf("No students found. Importing seed roster %s...", path)
	count, err := svc.ImportRoster(ctx, file)
	if err != nil {
		log.Printf("Warning: seed roster import failed: %v", err)
		return
	}
	log.Printf("Seed roster imported (%d students).", count)
}
