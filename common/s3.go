// Package common holds small shared infrastructure wrappers.
package common

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// S3Config contains minimal configuration for creating the snapshot client.
// Values are optional and will fall back to the standard AWS config/credential chain.
type S3Config struct {
	// Bucket receiving archive snapshots.
	Bucket string
	// Region to use for requests, e.g. "us-east-1". If empty, AWS defaults apply.
	Region string
	// Prefix is prepended to every object key.
	Prefix string
	// UsePathStyle forces path-style addressing (useful for some S3-compatible providers).
	UsePathStyle bool
}

// ArchiveSnapshots uploads the merged knowledge archive to S3 after a
// successful reconciliation cycle.
type ArchiveSnapshots struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewArchiveSnapshots creates the snapshot client using the default AWS
// configuration chain, with optional overrides from S3Config.
func NewArchiveSnapshots(ctx context.Context, cfg S3Config) (*ArchiveSnapshots, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("snapshot bucket is required")
	}

	var loadOpts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}

	c := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
	})
	return &ArchiveSnapshots{client: c, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

// UploadFile pushes a local file to bucket/prefix/key.
func (a *ArchiveSnapshots) UploadFile(ctx context.Context, localPath, key string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer f.Close()

	if a.prefix != "" {
		key = path.Join(a.prefix, key)
	}

	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String("text/csv"),
	})
	return err
}

// DownloadFile fetches bucket/prefix/key into localPath, replacing any
// existing file.
func (a *ArchiveSnapshots) DownloadFile(ctx context.Context, key, localPath string) error {
	if a.prefix != "" {
		key = path.Join(a.prefix, key)
	}

	out, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return err
	}
	defer out.Body.Close()

	f, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", localPath, err)
	}

	if _, err := io.Copy(f, out.Body); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Exists returns true if the object exists (HTTP 200 from HeadObject); false if 404/NotFound.
func (a *ArchiveSnapshots) Exists(ctx context.Context, key string) (bool, error) {
	if a.prefix != "" {
		key = path.Join(a.prefix, key)
	}

	_, err := a.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}

	// Check for HTTP 404 response error
	var respErr *http.ResponseError
	if errors.As(err, &respErr) {
		if respErr.HTTPStatusCode() == 404 {
			return false, nil
		}
	}

	// Check for API error code NotFound
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if apiErr.ErrorCode() == "NotFound" {
			return false, nil
		}
	}

	return false, err
}
