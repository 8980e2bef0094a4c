// Package archive stores JSON snapshots of occurrence documents in object
// storage before a forced regeneration overwrites them.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/standupdoc/standupdoc/internal/config"
	"github.com/standupdoc/standupdoc/internal/standup"
)

// MinIOArchive is a thin wrapper around the minio client.
type MinIOArchive struct {
	client *minio.Client
	bucket string
}

// NewMinIOArchive creates the archive client and ensures the bucket exists.
func NewMinIOArchive(cfg config.ArchiveConfig) (*MinIOArchive, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("archive config missing")
	}
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio new: %w", err)
	}
	a := &MinIOArchive{client: mc, bucket: cfg.Bucket}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := mc.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
		// ignore "already exists" style errors
		exist, xerr := mc.BucketExists(ctx, a.bucket)
		if xerr != nil || !exist {
			return nil, fmt.Errorf("minio bucket ensure: %w", err)
		}
	}
	return a, nil
}

// Archive uploads the document as JSON. Keys are ordered so snapshots of
// one occurrence list together: <standupId>/<occurrence>/<snapshot time>.json
func (a *MinIOArchive) Archive(ctx context.Context, d *standup.Document) error {
	b, err := json.Marshal(d)
	if err != nil {
		return err
	}
	key := fmt.Sprintf("%s/%s/%s.json",
		d.StandupID,
		d.Date.UTC().Format("2006-01-02T150405Z"),
		time.Now().UTC().Format("20060102T150405"))
	_, err = a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(b), int64(len(b)),
		minio.PutObjectOptions{ContentType: "application/json"})
	return err
}
