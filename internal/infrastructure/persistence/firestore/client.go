// Package firestore implements the primary document store for Attendance Hub.
// Data is laid out per user: users/{uid}/profile/info holds the profile
// document and users/{uid}/courses/{cid} holds one course with its
// attendance log in the log subcollection.
package firestore

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/mdi-hub/attendance-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// COLLECTION LAYOUT
// ══════════════════════════════════════════════════════════════════════════════

const (
	collectionUsers   = "users"
	collectionProfile = "profile"
	collectionCourses = "courses"
	collectionLog     = "log"

	// profileDocID is the fixed document ID inside the profile subcollection.
	profileDocID = "info"
)

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Config holds Firestore connection configuration.
type Config struct {
	// ProjectID is the Firebase project ID. Optional when credentials
	// already carry it.
	ProjectID string

	// CredentialsFile is a path to a service account JSON file.
	CredentialsFile string

	// CredentialsJSON is the raw service account JSON. Takes effect only
	// when CredentialsFile is empty.
	CredentialsJSON string
}

// ConfigFromEnv builds a Config from the standard environment variables.
func ConfigFromEnv() Config {
	return Config{
		ProjectID:       os.Getenv("FIREBASE_PROJECT_ID"),
		CredentialsFile: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		CredentialsJSON: os.Getenv("FIREBASE_CONFIG"),
	}
}

// Client wraps the Firestore SDK client. All repository implementations
// in this package share one Client.
type Client struct {
	fs *firestore.Client
}

// NewClient initializes the Firebase app and opens a Firestore client.
// With no explicit credentials the SDK falls back to application
// default credentials.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	var opts []option.ClientOption
	switch {
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	case cfg.CredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	}

	var fbConfig *firebase.Config
	if cfg.ProjectID != "" {
		fbConfig = &firebase.Config{ProjectID: cfg.ProjectID}
	}

	app, err := firebase.NewApp(ctx, fbConfig, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestore: failed to initialize firebase app: %w", err)
	}

	fs, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("firestore: failed to create client: %w", err)
	}

	return &Client{fs: fs}, nil
}

// Raw returns the underlying SDK client for advanced operations.
func (c *Client) Raw() *firestore.Client {
	return c.fs
}

// Close closes the Firestore client.
func (c *Client) Close() error {
	return c.fs.Close()
}

// Ping verifies connectivity with a single-document read. Firestore has
// no dedicated ping RPC.
func (c *Client) Ping(ctx context.Context) error {
	iter := c.fs.Collection(collectionUsers).Limit(1).Documents(ctx)
	defer iter.Stop()

	if _, err := iter.Next(); err != nil && err != iterator.Done {
		return mapStoreError("Ping", err)
	}
	return nil
}

// userDoc returns the document reference for one user.
func (c *Client) userDoc(userID shared.UserID) *firestore.DocumentRef {
	return c.fs.Collection(collectionUsers).Doc(userID.String())
}

// courseDoc returns the document reference for one course.
func (c *Client) courseDoc(userID shared.UserID, courseID string) *firestore.DocumentRef {
	return c.userDoc(userID).Collection(collectionCourses).Doc(courseID)
}

// ══════════════════════════════════════════════════════════════════════════════
// ERROR MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// isNotFound reports whether the error is a Firestore NotFound status.
func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

// isUnavailable reports whether the error indicates the store cannot be
// reached right now.
func isUnavailable(err error) bool {
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted:
		return true
	}
	return false
}

// mapStoreError translates transport-level failures into the shared
// error taxonomy so callers can use shared.IsRetryable.
func mapStoreError(op string, err error) error {
	if isUnavailable(err) {
		return shared.NewDomainError("storage", op, shared.ErrStoreUnavailable, err.Error())
	}
	return fmt.Errorf("firestore: %s: %w", op, err)
}
