package backing

import (
	"context"
	"fmt"

	"p9e.in/plotdesk/config"
	"p9e.in/plotdesk/pkg/inventory"
)

// Open builds the backing store selected by cfg.Backend. The returned func
// releases its client or connection pool.
func Open(ctx context.Context, cfg config.Config) (inventory.Backend, func(), error) {
	noop := func() {}
	switch cfg.Backend {
	case config.BackendGCS:
		if cfg.GCSBucket == "" {
			return nil, noop, fmt.Errorf("BACKEND=gcs needs GCS_BUCKET")
		}
		b, err := NewGCS(ctx, cfg.GCSBucket, cfg.GCSObject, cfg.SheetName)
		if err != nil {
			return nil, noop, err
		}
		return b, func() { b.Close() }, nil
	case config.BackendGSheet:
		return NewGoogleSheet(cfg.GSheetCSVURL, cfg.GSheetWriteURL, cfg.HTTPTimeout), noop, nil
	case config.BackendSQL:
		db, err := config.OpenDatabase(cfg.DBDriver, cfg.DBDSN)
		if err != nil {
			return nil, noop, err
		}
		return NewSQL(db), func() {
			if sqlDB, err := db.DB(); err == nil {
				sqlDB.Close()
			}
		}, nil
	case config.BackendFile, "":
		return NewFile(cfg.SheetPath, cfg.SheetName), noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}
