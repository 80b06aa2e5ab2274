package backing

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"p9e.in/plotdesk/pkg/inventory"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// GCS keeps the inventory workbook as a single Google Cloud Storage object
type GCS struct {
	client    *storage.Client
	Bucket    string
	Object    string
	SheetName string
}

// NewGCS uses Application Default Credentials, like the rest of the Cloud Run deployment
func NewGCS(ctx context.Context, bucket, object, sheetName string) (*GCS, error) {
	if bucket == "" {
		return nil, errors.New("gcs backend needs a bucket")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("storage client: %w", err)
	}
	return &GCS{client: client, Bucket: bucket, Object: object, SheetName: sheetName}, nil
}

func (b *GCS) Name() string { return "gcs://" + b.Bucket + "/" + b.Object }

// Read returns an empty sheet when the object does not exist yet
func (b *GCS) Read(ctx context.Context) (inventory.Sheet, error) {
	rc, err := b.client.Bucket(b.Bucket).Object(b.Object).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return inventory.Sheet{}, nil
	}
	if err != nil {
		return inventory.Sheet{}, fmt.Errorf("open object: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return inventory.Sheet{}, fmt.Errorf("read object: %w", err)
	}
	return DecodeXLSX(data, b.SheetName)
}

// Write uploads the whole workbook, replacing the previous object
func (b *GCS) Write(ctx context.Context, s inventory.Sheet) error {
	data, err := EncodeXLSX(s, b.SheetName)
	if err != nil {
		return err
	}
	wc := b.client.Bucket(b.Bucket).Object(b.Object).NewWriter(ctx)
	wc.ContentType = xlsxContentType
	wc.CacheControl = "no-cache"

	if _, err := wc.Write(data); err != nil {
		wc.Close()
		return fmt.Errorf("upload object: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("finalize object: %w", err)
	}
	return nil
}

// Close releases the storage client
func (b *GCS) Close() error {
	return b.client.Close()
}
