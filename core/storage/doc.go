// Package storage provides the object storage archive for raw roster snapshots.
//
// It wraps the MinIO Go client (AWS S3 and self-hosted MinIO) behind a small Client
// interface so archive behaviour can be tested with the mocks in core/storage/mocks.
//
// # Archive
//
// Every successful roster fetch can be written as an immutable JSON object keyed by
// region, realm, guild and fetch time. Archiving is best-effort: a failed upload is
// logged by the caller and never fails a sync cycle.
//
// # Usage
//
//	client, err := storage.NewClient(cfg.Storage)
//	archive := storage.NewArchive(client, cfg.Storage.Bucket)
//	key, err := archive.StoreRoster(ctx, "us", "area-52", "the-order", time.Now(), payload)
package storage
