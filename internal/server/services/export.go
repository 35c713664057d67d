package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/todokeeper/internal/models"
	sc "github.com/dmitrijs2005/todokeeper/internal/server/config"
	"github.com/dmitrijs2005/todokeeper/internal/server/repositories/repomanager"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ErrExportsDisabled is returned when no export bucket is configured.
var ErrExportsDisabled = errors.New("task export is not configured")

const exportLinkValidity = 15 * time.Minute

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// ExportResult locates an uploaded export.
type ExportResult struct {
	Key   string `json:"key"`
	URL   string `json:"url"`
	Count int    `json:"count"`
}

type exportDocument struct {
	ExportedAt time.Time          `json:"exportedAt"`
	User       models.UserSummary `json:"user"`
	Tasks      []*models.Task     `json:"tasks"`
}

// ExportService uploads a user's tasks to object storage and hands back a
// short-lived download link.
type ExportService struct {
	repomanager repomanager.RepositoryManager
	config      *sc.Config
	now         func() time.Time
}

func NewExportService(repomanager repomanager.RepositoryManager, config *sc.Config) *ExportService {
	return &ExportService{repomanager: repomanager, config: config, now: time.Now}
}

// ExportKey builds the object key for an export made by userID at t.
func ExportKey(userID string, t time.Time) string {
	return fmt.Sprintf("exports/%s/%04d/%02d/%02d/%v.json", userID, t.Year(), int(t.Month()), t.Day(), uuid.New())
}

func (s *ExportService) getClient(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	}), nil
}

// Export serialises every task of user and uploads it as one JSON object.
func (s *ExportService) Export(ctx context.Context, user *models.User) (*ExportResult, error) {
	if !s.config.ExportsEnabled() {
		return nil, ErrExportsDisabled
	}

	tasks, err := s.repomanager.Tasks().ListByOwner(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("error listing tasks: %w", err)
	}

	now := s.now().UTC()
	body, err := json.Marshal(exportDocument{ExportedAt: now, User: user.Summary(), Tasks: tasks})
	if err != nil {
		return nil, err
	}

	client, err := s.getClient(ctx)
	if err != nil {
		return nil, err
	}

	bucket := s.config.S3Bucket
	key := ExportKey(user.ID, now)

	if _, err := putObject(client, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	}); err != nil {
		return nil, fmt.Errorf("error uploading export: %w", err)
	}

	req, err := presignGetObject(newS3PresignClient(client), ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(exportLinkValidity))
	if err != nil {
		return nil, fmt.Errorf("error signing export link: %w", err)
	}

	return &ExportResult{Key: key, URL: req.URL, Count: len(tasks)}, nil
}
