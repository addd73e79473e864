package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/ansher/agreementtracker/model"
	"github.com/ansher/agreementtracker/pkg/logger"
	"golang.org/x/sync/errgroup"
)

const (
	// AgreementKeyPrefix namespaces every agreement key
	AgreementKeyPrefix = "agreement:"
	// SettingsKey holds the reminder settings singleton
	SettingsKey = "email-settings"
)

// AgreementKey returns the storage key of an agreement
func AgreementKey(id string) string {
	return AgreementKeyPrefix + id
}

// AgreementStore persists agreements and settings as JSON text in a KVStore
type AgreementStore struct {
	kv          KVStore
	concurrency int
}

func NewAgreementStore(kv KVStore, concurrency int) *AgreementStore {
	if concurrency <= 0 {
		concurrency = 8
	}
	return &AgreementStore{kv: kv, concurrency: concurrency}
}

// LoadAll reads every stored agreement. Values that vanished between List
// and Get, or that do not decode, are skipped.
func (s *AgreementStore) LoadAll(ctx context.Context) ([]*model.Agreement, error) {
	keys, err := s.kv.List(ctx, AgreementKeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list agreements: %w", err)
	}

	loaded := make([]*model.Agreement, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, key := range keys {
		g.Go(func() error {
			value, found, err := s.kv.Get(gctx, key)
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", key, err)
			}
			if !found {
				return nil
			}
			var a model.Agreement
			if err := json.Unmarshal([]byte(value), &a); err != nil {
				logger.Warn(ctx, "skipping undecodable agreement", "key", key, "error", err)
				return nil
			}
			loaded[i] = &a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	agreements := make([]*model.Agreement, 0, len(loaded))
	for _, a := range loaded {
		if a != nil {
			agreements = append(agreements, a)
		}
	}
	sort.SliceStable(agreements, func(i, j int) bool {
		if agreements[i].UploadDate != agreements[j].UploadDate {
			return agreements[i].UploadDate < agreements[j].UploadDate
		}
		return agreements[i].ID < agreements[j].ID
	})
	return agreements, nil
}

// Get loads one agreement; found is false when the key does not exist
func (s *AgreementStore) Get(ctx context.Context, id string) (*model.Agreement, bool, error) {
	value, found, err := s.kv.Get(ctx, AgreementKey(id))
	if err != nil || !found {
		return nil, false, err
	}
	var a model.Agreement
	if err := json.Unmarshal([]byte(value), &a); err != nil {
		return nil, false, fmt.Errorf("failed to decode %s: %w", AgreementKey(id), err)
	}
	return &a, true, nil
}

// Save upserts a
func (s *AgreementStore) Save(ctx context.Context, a *model.Agreement) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("%w: encode agreement %s: %w", ErrPersistence, a.ID, err)
	}
	if err := s.kv.Set(ctx, AgreementKey(a.ID), string(data)); err != nil {
		return fmt.Errorf("%w: save agreement %s: %w", ErrPersistence, a.ID, err)
	}
	return nil
}

// Delete removes an agreement; deleting a missing one succeeds
func (s *AgreementStore) Delete(ctx context.Context, id string) error {
	if err := s.kv.Delete(ctx, AgreementKey(id)); err != nil {
		return fmt.Errorf("%w: delete agreement %s: %w", ErrPersistence, id, err)
	}
	return nil
}

// LoadSettings returns the stored settings, or the defaults if none were saved
func (s *AgreementStore) LoadSettings(ctx context.Context) (model.Settings, error) {
	value, found, err := s.kv.Get(ctx, SettingsKey)
	if err != nil {
		return model.Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}
	if !found {
		return model.DefaultSettings(), nil
	}
	settings := model.DefaultSettings()
	if err := json.Unmarshal([]byte(value), &settings); err != nil {
		logger.Warn(ctx, "stored settings are unreadable, using defaults", "error", err)
		return model.DefaultSettings(), nil
	}
	return settings, nil
}

func (s *AgreementStore) SaveSettings(ctx context.Context, settings model.Settings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("%w: encode settings: %w", ErrPersistence, err)
	}
	if err := s.kv.Set(ctx, SettingsKey, string(data)); err != nil {
		return fmt.Errorf("%w: save settings: %w", ErrPersistence, err)
	}
	return nil
}
