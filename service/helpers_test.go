package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ansher/agreementtracker/model"
)

var errInjected = errors.New("injected store failure")

// faultyKV wraps a MemoryKV and fails writes to the listed keys
type faultyKV struct {
	*MemoryKV

	mu         sync.Mutex
	failSet    map[string]bool
	failDelete bool
	sets       []string
}

func newFaultyKV() *faultyKV {
	return &faultyKV{MemoryKV: NewMemoryKV(), failSet: map[string]bool{}}
}

func (f *faultyKV) Set(ctx context.Context, key, value string) error {
	f.mu.Lock()
	fail := f.failSet[key] || f.failSet["*"]
	f.sets = append(f.sets, key)
	f.mu.Unlock()
	if fail {
		return errInjected
	}
	return f.MemoryKV.Set(ctx, key, value)
}

func (f *faultyKV) Delete(ctx context.Context, key string) error {
	if f.failDelete {
		return errInjected
	}
	return f.MemoryKV.Delete(ctx, key)
}

// fixedNow is the clock used by service tests
var fixedNow = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

func endDateIn(days int) *string {
	s := fixedNow.AddDate(0, 0, days).Format(model.DateLayout)
	return &s
}

func newAgreement(id string, company model.Company, agreementType string, endInDays *int) *model.Agreement {
	a := &model.Agreement{
		ID:               id,
		FileName:         id + ".pdf",
		UploadDate:       fixedNow.Add(-time.Hour).Format(time.RFC3339),
		Company:          company,
		Parties:          []string{"Ansher", "Counterparty " + id},
		AgreementType:    agreementType,
		CounterpartyName: "Counterparty " + id,
	}
	if endInDays != nil {
		a.EndDate = endDateIn(*endInDays)
	}
	return a
}

func days(n int) *int { return &n }

// stubExtractor returns a canned extraction and counts calls
type stubExtractor struct {
	extraction *model.Extraction
	err        error
	calls      int
}

func (s *stubExtractor) Extract(_ context.Context, pdf []byte) (*model.Extraction, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.extraction, nil
}

// failingNotifier rejects drafts for the listed agreements and records the rest
type failingNotifier struct {
	Outbox
	fail map[string]bool
}

func (f *failingNotifier) Notify(ctx context.Context, d Draft) error {
	if f.fail[d.AgreementID] {
		return errInjected
	}
	return f.Outbox.Notify(ctx, d)
}

func strPtr(s string) *string { return &s }

// newTestTracker builds a tracker over kv with a fixed clock and sequential ids
func newTestTracker(kv KVStore, ext Extractor) *Tracker {
	n := 0
	return NewTracker(NewAgreementStore(kv, 2), ext,
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}),
	)
}
