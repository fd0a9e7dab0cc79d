package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// s3Remote stores one backup object per user under backups/<userID>.json in
// an S3-compatible bucket (AWS S3, MinIO, R2, Spaces). Put overwrites any
// prior copy — last writer wins, no versioning.
type s3Remote struct {
	client *s3.Client
	bucket string
}

// NewS3Remote builds the remote backup store from the S3_* environment.
func NewS3Remote(ctx context.Context) (RemoteStore, error) {
	bucket := os.Getenv("S3_BUCKET")
	if bucket == "" {
		return nil, fmt.Errorf("cloud: S3_BUCKET is not configured")
	}
	region := os.Getenv("S3_REGION")
	if region == "" {
		region = "us-east-1"
	}

	opts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(region),
	}
	// Static credentials (required for MinIO / R2 / Spaces).
	if key, secret := os.Getenv("S3_KEY"), os.Getenv("S3_SECRET"); key != "" && secret != "" {
		opts = append(opts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(key, secret, ""),
		))
	}

	cfg, err := awscfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("cloud: load aws config: %w", err)
	}

	clientOpts := []func(*s3.Options){}
	if endpoint := os.Getenv("S3_ENDPOINT"); endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true // required for MinIO
		})
	}

	return &s3Remote{
		client: s3.NewFromConfig(cfg, clientOpts...),
		bucket: bucket,
	}, nil
}

func backupKey(userID string) string { return "backups/" + userID + ".json" }

func (r *s3Remote) Put(ctx context.Context, userID string, data []byte) error {
	_, err := r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(backupKey(userID)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("cloud: put backup for %s: %w", userID, err)
	}
	return nil
}

// Fetch returns (nil, nil) when the user has no backup object yet.
func (r *s3Remote) Fetch(ctx context.Context, userID string) ([]byte, error) {
	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(backupKey(userID)),
	})
	if err != nil {
		var noKey *s3types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, nil
		}
		return nil, fmt.Errorf("cloud: fetch backup for %s: %w", userID, err)
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}
