package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/internal/hub/core/model"
	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/pkg/log"
	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/pkg/options"
)

// MinIO archives finished session traces to S3-compatible object storage.
// Objects are written under traces/{vehicleId}/{sessionId}.json.
type MinIO struct {
	client     *minio.Client
	bucketName string
}

// trace is the archived object layout.
type trace struct {
	VehicleID string                  `json:"vehicleId"`
	SessionID string                  `json:"sessionId"`
	EndedAt   time.Time               `json:"endedAt"`
	Points    []model.TrajectoryPoint `json:"points"`
}

func NewMinIO(opts *options.S3Options) (*MinIO, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKeyID, opts.SecretAccessKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &MinIO{
		client:     client,
		bucketName: opts.BucketName,
	}, nil
}

// CheckBucket verifies the archive bucket exists, creating it if missing.
func (p *MinIO) CheckBucket(ctx context.Context) error {
	exists, err := p.client.BucketExists(ctx, p.bucketName)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		log.Info("Bucket does not exist, creating...", "bucket", p.bucketName)
		if err := p.client.MakeBucket(ctx, p.bucketName, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}
	return nil
}

// ArchiveTrace uploads one finished session's trajectory.
func (p *MinIO) ArchiveTrace(ctx context.Context, vehicleID, sessionID string, points []model.TrajectoryPoint, endedAt time.Time) error {
	payload, err := json.Marshal(trace{
		VehicleID: vehicleID,
		SessionID: sessionID,
		EndedAt:   endedAt,
		Points:    points,
	})
	if err != nil {
		return fmt.Errorf("failed to encode trace: %w", err)
	}

	objectKey := fmt.Sprintf("traces/%s/%s.json", vehicleID, sessionID)
	_, err = p.client.PutObject(ctx, p.bucketName, objectKey,
		bytes.NewReader(payload), int64(len(payload)),
		minio.PutObjectOptions{ContentType: "application/json"},
	)
	if err != nil {
		return fmt.Errorf("failed to upload trace %s: %w", objectKey, err)
	}

	log.Info("Archived session trace", "object", objectKey, "points", len(points))
	return nil
}
