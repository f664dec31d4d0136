package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// S3Store implements Store on top of an S3 bucket. Credentials and
// region are resolved through the default AWS configuration chain.
type S3Store struct {
	client     *s3.Client
	uploader   *manager.Uploader
	downloader *manager.Downloader

	bucket  string
	tempDir string
}

var _ Store = (*S3Store)(nil)

func NewS3Store(ctx context.Context, bucket string) (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg)
	return &S3Store{
		client:     client,
		uploader:   manager.NewUploader(client),
		downloader: manager.NewDownloader(client),
		bucket:     bucket,
		tempDir:    os.TempDir(),
	}, nil
}

// Download fetches the object into a temporary file, preserving the key
// extension so downstream type detection can rely on it.
func (s *S3Store) Download(ctx context.Context, key string) (string, error) {
	f, err := os.CreateTemp(s.tempDir, "dip-*"+path.Ext(key))
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer f.Close()

	slog.Debug("downloading object", "bucket", s.bucket, "key", key)
	_, err = s.downloader.Download(ctx, f, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		os.Remove(f.Name())
		return "", s.classify(key, err)
	}

	return f.Name(), nil
}

func (s *S3Store) Upload(ctx context.Context, key string, r io.Reader) error {
	slog.Debug("uploading object", "bucket", s.bucket, "key", key)
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   r,
	})
	if err != nil {
		return s.classify(key, err)
	}
	return nil
}

func (s *S3Store) classify(key string, err error) error {
	var nsk *types.NoSuchKey
	var nf *types.NotFound
	if errors.As(err, &nsk) || errors.As(err, &nf) {
		return NotFoundError{Bucket: s.bucket, Key: key}
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return NotFoundError{Bucket: s.bucket, Key: key}
		case "AccessDenied", "Forbidden":
			return AccessDeniedError{Bucket: s.bucket}
		}
	}

	return fmt.Errorf("request for object '%s' failed: %w", key, err)
}
