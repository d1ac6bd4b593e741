package storage

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"crguide/crguide/config"
	"crguide/crguide/utils/logging"
	"crguide/crguide/utils/types"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

type MinIOClient struct {
	client *minio.Client
	bucket string
}

func NewMinIOClient(ctx context.Context, cfg config.Config) (*MinIOClient, error) {
	bucket := cfg.MinIOBucket
	client, err := minio.New(
		cfg.MinIOEndpoint,
		&minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIOAccessKey, cfg.MinIOSecretKey, ""),
			Secure: cfg.MinIOSecure,
		},
	)
	if err != nil {
		return nil, err
	}
	// Create bucket if not exists
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, err
		}
		logging.AppLogger.Info("created feedback bucket", zap.String("bucket", bucket))
	}
	return &MinIOClient{client: client, bucket: bucket}, nil
}

// FeedbackKey names one upload, e.g. feedback_20240601_120000_1a2b3c4d.csv.
func FeedbackKey(at time.Time) string {
	return fmt.Sprintf("feedback_%s_%s.csv", at.UTC().Format("20060102_150405"), uuid.NewString()[:8])
}

// EncodeFeedback writes the header row followed by one row per record.
func EncodeFeedback(w io.Writer, records []types.FeedbackRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(types.FeedbackHeader); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write(r.Row()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (m *MinIOClient) UploadFeedback(ctx context.Context, records []types.FeedbackRecord) (string, error) {
	defer logging.LogDuration(ctx, "minio_upload_feedback")()
	var buf bytes.Buffer
	if err := EncodeFeedback(&buf, records); err != nil {
		return "", err
	}
	key := FeedbackKey(time.Now())
	_, err := m.client.PutObject(ctx, m.bucket, key, &buf, int64(buf.Len()), minio.PutObjectOptions{ContentType: "text/csv"})
	if err != nil {
		return "", err
	}
	return key, nil
}

func (m *MinIOClient) GetFeedback(ctx context.Context, key string) (string, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return "", err
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
