package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ansher/agreementtracker/config"
)

// KVStore is the key-value collaborator records are persisted in.
// Get reports a missing key with found=false and a nil error; Delete of a
// missing key succeeds.
type KVStore interface {
	List(ctx context.Context, prefix string) ([]string, error)
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// NewKVStore builds the backend selected by cfg.Driver
func NewKVStore(ctx context.Context, cfg *config.StorageConfig) (KVStore, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "memory":
		return NewMemoryKV(), nil
	case "sqlite", "":
		return NewSQLiteKV(cfg.SQLite.DSN)
	case "minio":
		kv, err := NewMinioKV(&cfg.Minio)
		if err != nil {
			return nil, err
		}
		if err := kv.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		slog.Info("minio storage ready", "location", kv.Location(""))
		return kv, nil
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
	}
}
