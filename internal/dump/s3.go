// Package dump provides off-site retention of run-metrics records.
package dump

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"notifier-go/internal/model"
	"notifier-go/internal/notify"
)

// S3Store uploads run-metrics records to an S3 bucket as JSON objects under
// <prefix>/<host_id>/runs/<id>.json.
type S3Store struct {
	uploader *manager.Uploader
	bucket   string
	prefix   string
	hostID   string
	idgen    notify.IDGenerator
}

// NewS3Store creates an S3Store for the given bucket. Credentials come from
// the standard AWS chain; NOTIFIER_S3_ACCESS_KEY_ID and
// NOTIFIER_S3_SECRET_ACCESS_KEY override it with a static pair.
func NewS3Store(ctx context.Context, bucket, prefix, region, hostID string, idgen notify.IDGenerator) (*S3Store, error) {
	if bucket == "" {
		return nil, fmt.Errorf("s3 dump store requires s3_bucket to be set")
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	accessKey := os.Getenv("NOTIFIER_S3_ACCESS_KEY_ID")
	secretKey := os.Getenv("NOTIFIER_S3_SECRET_ACCESS_KEY")
	if accessKey != "" && secretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return &S3Store{
		uploader: manager.NewUploader(s3.NewFromConfig(cfg)),
		bucket:   bucket,
		prefix:   prefix,
		hostID:   hostID,
		idgen:    idgen,
	}, nil
}

// PutRunMetrics uploads one run record as a JSON object.
func (s *S3Store) PutRunMetrics(ctx context.Context, m model.RunMetrics) error {
	body, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding run metrics: %w", err)
	}

	name := fmt.Sprintf("%d.json", m.ID)
	if m.ID == 0 {
		name = s.idgen.New() + ".json"
	}
	key := path.Join(s.prefix, s.hostID, "runs", name)

	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("uploading run metrics to s3://%s/%s: %w", s.bucket, key, err)
	}
	return nil
}

// Compile-time check that S3Store implements notify.DumpStore
var _ notify.DumpStore = (*S3Store)(nil)
