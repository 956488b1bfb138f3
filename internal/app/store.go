package app

import (
	"context"
	"fmt"

	"github.com/garyellow/interview-linebot-go/internal/availability"
	"github.com/garyellow/interview-linebot-go/internal/config"
	"github.com/garyellow/interview-linebot-go/internal/logger"
	"github.com/garyellow/interview-linebot-go/internal/r2client"
	"github.com/garyellow/interview-linebot-go/internal/storage"
)

// openStore builds the configured availability backend wrapped with metrics
// and per-key locking. The returned func releases backend resources and is never nil.
func openStore(ctx context.Context, cfg *config.Config, m availability.MetricsRecorder, log *logger.Logger) (availability.Store, func() error, error) {
	var backend availability.Store
	closeFn := func() error { return nil }

	switch cfg.StoreBackend {
	case config.BackendFile:
		backend = availability.NewFileStore(cfg.FileStoreDir())
		log.WithField("dir", cfg.FileStoreDir()).Info("Using file availability store")

	case config.BackendSQLite:
		db, err := storage.New(ctx, cfg.SQLitePath())
		if err != nil {
			return nil, nil, fmt.Errorf("database: %w", err)
		}
		backend, closeFn = db, db.Close
		log.WithField("path", cfg.SQLitePath()).Info("Using SQLite availability store")

	case config.BackendR2:
		client, err := r2client.New(ctx, r2client.Config{
			Endpoint:    r2client.EndpointForAccount(cfg.R2AccountID),
			AccessKeyID: cfg.R2AccessKeyID,
			SecretKey:   cfg.R2SecretAccessKey,
			BucketName:  cfg.R2BucketName,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("r2: %w", err)
		}
		backend = r2client.NewStore(client, cfg.R2Prefix, cfg.R2LockTTL)
		log.WithField("bucket", cfg.R2BucketName).
			WithField("prefix", cfg.R2Prefix).
			Info("Using R2 availability store")

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}

	instrumented := availability.NewInstrumented(backend, cfg.StoreBackend, m)
	return availability.NewLocked(instrumented), closeFn, nil
}
