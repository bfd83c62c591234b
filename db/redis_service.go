package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strconv"

	"github.com/go-redis/redis/v8"

	"sim-mahasiswa-server-go/models"
)

// Key layout, mirroring the document tree:
//
//	{root}                          Set: program names
//	{root}:{program}                Set: cohort years
//	{root}:{program}:{year}         Set: student ids
//	{root}:{program}:{year}:{id}    Hash: nama, email, password
//	admin:admin                     Hash: password, email
//	cookies:default_cookie          Hash: name, key

// RedisService handles student storage in Redis
type RedisService struct {
	Client *redis.Client
	root   string
}

// NewRedisService creates a new RedisService rooted at the given collection
func NewRedisService(client *redis.Client, root string) *RedisService {
	if root == "" {
		root = DefaultRootCollection
	}
	return &RedisService{
		Client: client,
		root:   root,
	}
}

// Helper to generate a program's cohort-year set key
func (s *RedisService) programKey(program string) string {
	return s.root + ":" + program
}

// Helper to generate a cohort's student id set key
func (s *RedisService) cohortKey(program, year string) string {
	return s.programKey(program) + ":" + year
}

// Helper to generate a student hash key
func (s *RedisService) studentKey(program, year, id string) string {
	return s.cohortKey(program, year) + ":" + id
}

func singletonKey(collection, document string) string {
	return collection + ":" + document
}

// Ping checks the connection
func (s *RedisService) Ping(ctx context.Context) error {
	if err := s.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// sortedMembers returns the members of a set in ascending order
func (s *RedisService) sortedMembers(ctx context.Context, key string) ([]string, error) {
	members, err := s.Client.SMembers(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []string{}, nil
		}
		return nil, err
	}
	sort.Strings(members)
	return members, nil
}

// ProgramNames lists every program under the root collection
func (s *RedisService) ProgramNames(ctx context.Context) ([]string, error) {
	names, err := s.sortedMembers(ctx, s.root)
	if err != nil {
		log.Printf("Error getting program names: %v", err)
		return nil, fmt.Errorf("failed to get programs from Redis: %w", err)
	}
	return names, nil
}

// CohortYears lists the cohort year collections of a program
func (s *RedisService) CohortYears(ctx context.Context, program string) ([]string, error) {
	years, err := s.sortedMembers(ctx, s.programKey(program))
	if err != nil {
		log.Printf("Error getting cohort years for program %s: %v", program, err)
		return nil, fmt.Errorf("failed to get cohorts of %s from Redis: %w", program, err)
	}
	return years, nil
}

// CohortStudents retrieves every student document in a cohort
func (s *RedisService) CohortStudents(ctx context.Context, program, year string) ([]models.Student, error) {
	ids, err := s.sortedMembers(ctx, s.cohortKey(program, year))
	if err != nil {
		log.Printf("Error getting student ids for %s/%s: %v", program, year, err)
		return nil, fmt.Errorf("failed to get student ids of %s/%s from Redis: %w", program, year, err)
	}
	if len(ids) == 0 {
		return []models.Student{}, nil
	}

	pipe := s.Client.Pipeline()
	cmds := make([]*redis.StringStringMapCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, s.studentKey(program, year, id))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to get students of %s/%s from Redis: %w", program, year, err)
	}

	students := make([]models.Student, 0, len(ids))
	for i, id := range ids {
		data := cmds[i].Val()
		if len(data) == 0 {
			log.Printf("Student %s listed in %s/%s has no document, skipping", id, program, year)
			continue
		}
		students = append(students, models.Student{
			ID:       id,
			Name:     data[fieldName],
			Email:    data[fieldEmail],
			Password: data[fieldPassword],
		})
	}
	return students, nil
}

// SaveStudent writes a student document and links it into its program and cohort
func (s *RedisService) SaveStudent(ctx context.Context, program string, year int, student models.Student) error {
	if student.ID == "" || program == "" {
		return errors.New("student ID and program cannot be empty")
	}
	yearKey := strconv.Itoa(year)

	pipe := s.Client.TxPipeline()
	pipe.SAdd(ctx, s.root, program)
	pipe.SAdd(ctx, s.programKey(program), yearKey)
	pipe.SAdd(ctx, s.cohortKey(program, yearKey), student.ID)
	pipe.HSet(ctx, s.studentKey(program, yearKey, student.ID), map[string]interface{}{
		fieldName:     student.Name,
		fieldEmail:    student.Email,
		fieldPassword: student.Password,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("Error saving student %s to %s/%d: %v", student.ID, program, year, err)
		return fmt.Errorf("failed to save student to Redis: %w", err)
	}
	return nil
}

// AdminCredential reads the admin document; ErrNotFound when absent
func (s *RedisService) AdminCredential(ctx context.Context) (*models.AdminCredential, error) {
	data, err := s.Client.HGetAll(ctx, singletonKey(adminCollection, adminDocument)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to get admin credential from Redis: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrNotFound
	}
	return &models.AdminCredential{
		Password: data[fieldPassword],
		Email:    data[fieldEmail],
	}, nil
}

// SaveAdminCredential writes the admin document
func (s *RedisService) SaveAdminCredential(ctx context.Context, cred models.AdminCredential) error {
	err := s.Client.HSet(ctx, singletonKey(adminCollection, adminDocument), map[string]interface{}{
		fieldPassword: cred.Password,
		fieldEmail:    cred.Email,
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to save admin credential to Redis: %w", err)
	}
	return nil
}

// CookieConfig reads the cookie document; ErrNotFound when absent
func (s *RedisService) CookieConfig(ctx context.Context) (*models.CookieConfig, error) {
	data, err := s.Client.HGetAll(ctx, singletonKey(cookieCollection, cookieDocument)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to get cookie config from Redis: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrNotFound
	}
	return &models.CookieConfig{
		Name: data[fieldCookie],
		Key:  data[fieldKey],
	}, nil
}

// Close closes the Redis connection
func (s *RedisService) Close() error {
	return s.Client.Close()
}

// --- Utility ---

// InitializeRedisClient creates and tests a Redis client connection
func InitializeRedisClient(ctx context.Context, addr, password string, database int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       database,
	})

	// Ping Redis to check connection
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("could not connect to Redis at %s: %w", addr, err)
	}

	log.Printf("Successfully connected to Redis %s (DB %d)", addr, database)
	return rdb, nil
}
