// SPDX-License-Identifier: MPL-2.0

package logupload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ErrSchemeMismatch is returned when an uploader is handed a location of a
// scheme it does not serve.
var ErrSchemeMismatch = errors.New("location scheme not served by uploader")

type (
	// Uploader stores size bytes read from r at loc.
	Uploader interface {
		Upload(ctx context.Context, loc Location, r io.ReadSeeker, size int64) error
	}

	// S3Options configures S3Uploader. Empty credentials fall back to the
	// default AWS credential chain.
	S3Options struct {
		Region          string
		Endpoint        string
		AccessKeyID     string
		SecretAccessKey string
	}

	// S3Uploader writes objects with PutObject.
	S3Uploader struct {
		client *s3.Client
	}

	// FileUploader writes to the local filesystem, typically a mounted share.
	FileUploader struct{}
)

// NewS3Uploader builds an S3 client from opts.
func NewS3Uploader(ctx context.Context, opts S3Options) (*S3Uploader, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			// MinIO and other S3-compatible stores need path-style addressing.
			o.UsePathStyle = true
		}
	})
	return &S3Uploader{client: client}, nil
}

// NewS3UploaderFromClient wraps an existing client.
func NewS3UploaderFromClient(client *s3.Client) *S3Uploader {
	return &S3Uploader{client: client}
}

// Upload implements Uploader.
func (u *S3Uploader) Upload(ctx context.Context, loc Location, r io.ReadSeeker, size int64) error {
	if loc.Scheme != SchemeS3 {
		return fmt.Errorf("%w: %s", ErrSchemeMismatch, loc)
	}
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(loc.Bucket),
		Key:           aws.String(loc.Key),
		Body:          r,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String("text/plain; charset=utf-8"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", loc, err)
	}
	return nil
}

// Upload implements Uploader. The file is written next to its destination
// and renamed into place, so readers never observe a partial log.
func (FileUploader) Upload(_ context.Context, loc Location, r io.ReadSeeker, _ int64) (err error) {
	if loc.Scheme != SchemeFile {
		return fmt.Errorf("%w: %s", ErrSchemeMismatch, loc)
	}

	dst := filepath.FromSlash(loc.Key)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temporary log file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", loc, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", loc, err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", loc, err)
	}
	if err = os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("failed to write %s: %w", loc, err)
	}
	return nil
}

// NewUploader returns the uploader serving base's scheme.
func NewUploader(ctx context.Context, base string, opts S3Options) (Uploader, error) {
	loc, err := ParseBase(base)
	if err != nil {
		return nil, err
	}
	if loc.Scheme == SchemeFile {
		return FileUploader{}, nil
	}
	return NewS3Uploader(ctx, opts)
}
