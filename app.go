package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/ansher/agreementtracker/config"
	"github.com/ansher/agreementtracker/service"
)

// app is the tracker together with the resources it was built from
type app struct {
	tracker *service.Tracker
	kv      service.KVStore
}

// newApp opens storage, builds the extractor and loads the tracker. When
// requireExtractor is false a missing extractor configuration only disables
// uploads.
func newApp(ctx context.Context, cfg *config.Config, requireExtractor bool) (*app, error) {
	kv, err := service.NewKVStore(ctx, &cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Driver, err)
	}

	extractor, err := service.NewExtractor(ctx, &cfg.Extractor)
	if err != nil {
		if requireExtractor {
			closeKV(kv)
			return nil, fmt.Errorf("failed to initialize extractor: %w", err)
		}
		slog.Warn("document extraction disabled", "provider", cfg.Extractor.Provider, "error", err)
		extractor = service.UnavailableExtractor{Reason: err}
	}

	tracker := service.NewTracker(service.NewAgreementStore(kv, cfg.Storage.LoadConcurrency), extractor)
	if err := tracker.Load(ctx); err != nil {
		closeKV(kv)
		return nil, fmt.Errorf("failed to load agreements: %w", err)
	}

	slog.Info("tracker ready",
		"storage", cfg.Storage.Driver,
		"extractor", cfg.Extractor.Provider,
		"agreements", tracker.Count(),
	)
	return &app{tracker: tracker, kv: kv}, nil
}

func (a *app) Close() {
	closeKV(a.kv)
}

func closeKV(kv service.KVStore) {
	if c, ok := kv.(io.Closer); ok {
		if err := c.Close(); err != nil {
			slog.Warn("failed to close storage", "error", err)
		}
	}
}
