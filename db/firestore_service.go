package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"sim-mahasiswa-server-go/models"
)

// FirestoreService handles student storage in Cloud Firestore
type FirestoreService struct {
	Client *firestore.Client
	root   string
}

// NewFirestoreService creates a new FirestoreService rooted at the given collection
func NewFirestoreService(client *firestore.Client, root string) *FirestoreService {
	if root == "" {
		root = DefaultRootCollection
	}
	return &FirestoreService{
		Client: client,
		root:   root,
	}
}

// InitializeFirestoreClient opens a Firestore client from a service account
// file. With FIRESTORE_EMULATOR_HOST set the file may be absent.
func InitializeFirestoreClient(ctx context.Context, credentialsFile, projectID string) (*firestore.Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		if _, err := os.Stat(credentialsFile); err == nil {
			opts = append(opts, option.WithCredentialsFile(credentialsFile))
		} else if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
			return nil, fmt.Errorf("firebase credentials file %q not found: %w", credentialsFile, err)
		}
	}

	var conf *firebase.Config
	if projectID != "" {
		conf = &firebase.Config{ProjectID: projectID}
	}
	app, err := firebase.NewApp(ctx, conf, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firestore: %w", err)
	}
	log.Printf("Successfully connected to Firestore")
	return client, nil
}

func (s *FirestoreService) programs() *firestore.CollectionRef {
	return s.Client.Collection(s.root)
}

// Ping reads at most one program document to check the connection
func (s *FirestoreService) Ping(ctx context.Context) error {
	iter := s.programs().Limit(1).Documents(ctx)
	defer iter.Stop()
	if _, err := iter.Next(); err != nil && !errors.Is(err, iterator.Done) {
		return fmt.Errorf("firestore ping failed: %w", err)
	}
	return nil
}

// ProgramNames lists program document ids, including documents that only
// exist as parents of cohort collections
func (s *FirestoreService) ProgramNames(ctx context.Context) ([]string, error) {
	iter := s.programs().DocumentRefs(ctx)
	names := []string{}
	for {
		ref, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list programs from Firestore: %w", err)
		}
		names = append(names, ref.ID)
	}
	return names, nil
}

// CohortYears lists the cohort collections under a program document
func (s *FirestoreService) CohortYears(ctx context.Context, program string) ([]string, error) {
	iter := s.programs().Doc(program).Collections(ctx)
	years := []string{}
	for {
		coll, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list cohorts of %s from Firestore: %w", program, err)
		}
		years = append(years, coll.ID)
	}
	return years, nil
}

// CohortStudents streams every student document of a cohort
func (s *FirestoreService) CohortStudents(ctx context.Context, program, year string) ([]models.Student, error) {
	iter := s.programs().Doc(program).Collection(year).Documents(ctx)
	defer iter.Stop()

	students := []models.Student{}
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get students of %s/%s from Firestore: %w", program, year, err)
		}
		var data studentDocument
		if err := doc.DataTo(&data); err != nil {
			log.Printf("Student document %s in %s/%s is unreadable, skipping: %v", doc.Ref.ID, program, year, err)
			continue
		}
		students = append(students, models.Student{
			ID:       doc.Ref.ID,
			Name:     data.Name,
			Email:    data.Email,
			Password: data.Password,
		})
	}
	return students, nil
}

// SaveStudent writes a student document under its program and cohort
func (s *FirestoreService) SaveStudent(ctx context.Context, program string, year int, student models.Student) error {
	if student.ID == "" || program == "" {
		return errors.New("student ID and program cannot be empty")
	}
	ref := s.programs().Doc(program).Collection(strconv.Itoa(year)).Doc(student.ID)
	_, err := ref.Set(ctx, studentDocument{
		Name:     student.Name,
		Email:    student.Email,
		Password: student.Password,
	})
	if err != nil {
		log.Printf("Error saving student %s to %s/%d: %v", student.ID, program, year, err)
		return fmt.Errorf("failed to save student to Firestore: %w", err)
	}
	return nil
}

func (s *FirestoreService) getSingleton(ctx context.Context, collection, document string, dest interface{}) error {
	snap, err := s.Client.Collection(collection).Doc(document).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get %s/%s from Firestore: %w", collection, document, err)
	}
	if !snap.Exists() {
		return ErrNotFound
	}
	if err := snap.DataTo(dest); err != nil {
		return fmt.Errorf("failed to decode %s/%s: %w", collection, document, err)
	}
	return nil
}

// AdminCredential reads admin/admin; ErrNotFound when absent
func (s *FirestoreService) AdminCredential(ctx context.Context) (*models.AdminCredential, error) {
	var data adminDocumentData
	if err := s.getSingleton(ctx, adminCollection, adminDocument, &data); err != nil {
		return nil, err
	}
	return &models.AdminCredential{Password: data.Password, Email: data.Email}, nil
}

// SaveAdminCredential writes admin/admin
func (s *FirestoreService) SaveAdminCredential(ctx context.Context, cred models.AdminCredential) error {
	_, err := s.Client.Collection(adminCollection).Doc(adminDocument).Set(ctx, adminDocumentData{
		Password: cred.Password,
		Email:    cred.Email,
	})
	if err != nil {
		return fmt.Errorf("failed to save admin credential to Firestore: %w", err)
	}
	return nil
}

// CookieConfig reads cookies/default_cookie; ErrNotFound when absent
func (s *FirestoreService) CookieConfig(ctx context.Context) (*models.CookieConfig, error) {
	var data cookieDocumentData
	if err := s.getSingleton(ctx, cookieCollection, cookieDocument, &data); err != nil {
		return nil, err
	}
	return &models.CookieConfig{Name: data.Name, Key: data.Key}, nil
}

// Close closes the Firestore client
func (s *FirestoreService) Close() error {
	return s.Client.Close()
}
