package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"roster-sync/core/identity"

	"github.com/minio/minio-go/v7"
)

// Archive writes raw roster snapshots to object storage, one object per fetch:
//
//	rosters/{region}/{realm}/{guild}/{unix}.json
type Archive struct {
	client Client
	bucket string
}

// NewArchive creates an archive writing to bucket.
func NewArchive(client Client, bucket string) *Archive {
	return &Archive{client: client, bucket: bucket}
}

// EnsureBucket creates the bucket if it does not exist yet.
func (a *Archive) EnsureBucket(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", a.bucket, err)
	}
	if exists {
		return nil
	}
	if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", a.bucket, err)
	}
	return nil
}

// StoreRoster uploads one roster payload and returns its object key.
func (a *Archive) StoreRoster(ctx context.Context, region, realm, guild string, fetchedAt time.Time, payload []byte) (string, error) {
	key := RosterKey(region, realm, guild, fetchedAt)

	_, err := a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(payload), int64(len(payload)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return "", fmt.Errorf("failed to store roster snapshot %s: %w", key, err)
	}
	return key, nil
}

// RosterKey builds the object key for a roster snapshot.
func RosterKey(region, realm, guild string, fetchedAt time.Time) string {
	return fmt.Sprintf("rosters/%s/%s/%s/%d.json",
		identity.Slug(region), identity.Slug(realm), identity.Slug(guild), fetchedAt.Unix())
}
