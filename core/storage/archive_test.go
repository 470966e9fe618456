package storage_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"roster-sync/core/storage"
	"roster-sync/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	t.Run("ValidConfig", func(t *testing.T) {
		client, err := storage.NewClient(storage.Config{
			Endpoint:  "localhost:9000",
			AccessKey: "testkey",
			SecretKey: "testsecret",
			Bucket:    "test-bucket",
			Region:    "us-east-1",
		})
		assert.NoError(t, err)
		assert.NotNil(t, client)
	})

	t.Run("EndpointWithHTTPS", func(t *testing.T) {
		client, err := storage.NewClient(storage.Config{
			Endpoint:  "https://s3.amazonaws.com",
			AccessKey: "testkey",
			SecretKey: "testsecret",
			UseSSL:    true,
		})
		assert.NoError(t, err)
		assert.NotNil(t, client)
	})
}

func TestRosterKey(t *testing.T) {
	at := time.Unix(1700000000, 0)
	assert.Equal(t, "rosters/us/area-52/the-order/1700000000.json", storage.RosterKey("US", "Area 52", "The Order", at))
}

func TestArchive_EnsureBucket(t *testing.T) {
	t.Run("Creates missing bucket", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", mock.Anything, "snapshots").Return(false, nil)
		client.On("MakeBucket", mock.Anything, "snapshots", minio.MakeBucketOptions{}).Return(nil)

		require.NoError(t, storage.NewArchive(client, "snapshots").EnsureBucket(context.Background()))
		client.AssertExpectations(t)
	})

	t.Run("Existing bucket is left alone", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", mock.Anything, "snapshots").Return(true, nil)

		require.NoError(t, storage.NewArchive(client, "snapshots").EnsureBucket(context.Background()))
		client.AssertNotCalled(t, "MakeBucket", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Check failure", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", mock.Anything, "snapshots").Return(false, errors.New("denied"))

		err := storage.NewArchive(client, "snapshots").EnsureBucket(context.Background())
		assert.ErrorContains(t, err, "denied")
	})
}

func TestArchive_StoreRoster(t *testing.T) {
	client := new(mocks.Client)
	payload := []byte(`{"members":[]}`)
	at := time.Unix(1700000000, 0)

	client.On("PutObject", mock.Anything, "snapshots", "rosters/eu/draenor/hall/1700000000.json",
		mock.Anything, int64(len(payload)), mock.MatchedBy(func(o minio.PutObjectOptions) bool {
			return o.ContentType == "application/json"
		})).Return(minio.UploadInfo{}, nil)

	key, err := storage.NewArchive(client, "snapshots").StoreRoster(context.Background(), "eu", "draenor", "Hall", at, payload)
	require.NoError(t, err)
	assert.Equal(t, "rosters/eu/draenor/hall/1700000000.json", key)
	client.AssertExpectations(t)
}
