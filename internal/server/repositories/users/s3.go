package users

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/dmitrijs2005/authrelay/internal/common"
	"github.com/dmitrijs2005/authrelay/internal/server/models"
)

// ObjectAPI is the part of *s3.Client the document store needs.
type ObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// documentRecord is one element of the JSON array stored in the object.
// "password" holds the bcrypt hash, matching the legacy users.json layout.
type documentRecord struct {
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Password  string     `json:"password"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// S3Repository keeps the whole user collection in a single JSON object.
// Every Create reads the full collection, checks the email, appends and
// writes the full collection back, so cost grows with the number of users.
// Writes in this process are serialised by mu. Writers in other processes
// are detected with conditional puts and surface as storage errors.
type S3Repository struct {
	client ObjectAPI
	bucket string
	key    string
	mu     sync.Mutex
}

func NewS3Repository(client ObjectAPI, bucket, key string) *S3Repository {
	return &S3Repository{client: client, bucket: bucket, key: key}
}

func (r *S3Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	records, _, err := r.load(ctx)
	if err != nil {
		return nil, err
	}

	for _, rec := range records {
		if rec.Email == email {
			return rec.toUser(), nil
		}
	}

	return nil, common.ErrNotFound
}

func (r *S3Repository) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, etag, err := r.load(ctx)
	if err != nil {
		return err
	}

	for _, rec := range records {
		if rec.Email == user.Email {
			return common.ErrAlreadyExists
		}
	}

	createdAt := user.CreatedAt
	records = append(records, documentRecord{
		Name:      user.Name,
		Email:     user.Email,
		Password:  user.PasswordHash,
		CreatedAt: &createdAt,
	})

	body, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encoding users: %w", common.ErrStorage, err)
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(r.key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	}
	if etag != nil {
		input.IfMatch = etag
	} else {
		input.IfNoneMatch = aws.String("*")
	}

	if _, err := r.client.PutObject(ctx, input); err != nil {
		if isAPIErrorCode(err, "PreconditionFailed", "ConditionalRequestConflict") {
			return fmt.Errorf("%w: %s modified concurrently: %w", common.ErrStorage, r.key, err)
		}
		return fmt.Errorf("%w: writing %s: %w", common.ErrStorage, r.key, err)
	}

	return nil
}

// load reads the collection and its ETag. A missing object is an empty
// collection with a nil ETag. A corrupt object is a storage error.
func (r *S3Repository) load(ctx context.Context) ([]documentRecord, *string, error) {
	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(r.key),
	})
	if err != nil {
		if isAPIErrorCode(err, "NoSuchKey", "NotFound") {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("%w: reading %s: %w", common.ErrStorage, r.key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: reading %s: %w", common.ErrStorage, r.key, err)
	}

	var records []documentRecord
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, nil, fmt.Errorf("%w: decoding %s: %w", common.ErrStorage, r.key, err)
		}
	}

	return records, out.ETag, nil
}

func (rec documentRecord) toUser() *models.User {
	u := &models.User{Name: rec.Name, Email: rec.Email, PasswordHash: rec.Password}
	if rec.CreatedAt != nil {
		u.CreatedAt = *rec.CreatedAt
	}
	return u
}

func isAPIErrorCode(err error, codes ...string) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	for _, c := range codes {
		if apiErr.ErrorCode() == c {
			return true
		}
	}
	return false
}
