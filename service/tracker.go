package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/ansher/agreementtracker/model"
	"github.com/ansher/agreementtracker/pkg/logger"
	"github.com/google/uuid"
)

// Tracker owns the in-memory agreement set and the settings singleton.
// Every action holds the tracker lock for its whole duration, store and
// extraction calls included, so actions never interleave.
type Tracker struct {
	mu sync.Mutex

	store     *AgreementStore
	extractor Extractor
	now       func() time.Time
	newID     func() string

	agreements []*model.Agreement
	settings   model.Settings
}

type Option func(*Tracker)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithIDGenerator replaces the UUID generator used for new agreements
func WithIDGenerator(newID func() string) Option {
	return func(t *Tracker) { t.newID = newID }
}

func NewTracker(store *AgreementStore, extractor Extractor, opts ...Option) *Tracker {
	t := &Tracker{
		store:     store,
		extractor: extractor,
		now:       time.Now,
		newID:     func() string { return uuid.New().String() },
		settings:  model.DefaultSettings(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Now returns the tracker's current time
func (t *Tracker) Now() time.Time {
	return t.now()
}

// Load replaces the in-memory state with the stored agreements and settings
func (t *Tracker) Load(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	ctx = logger.WithAction(ctx, "load")

	agreements, err := t.store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	settings, err := t.store.LoadSettings(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	t.agreements = agreements
	t.settings = settings
	logger.Info(ctx, "tracker loaded", "agreements", len(agreements))
	return nil
}

// Agreements returns a copy of every agreement in load order
func (t *Tracker) Agreements() []*model.Agreement {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshot()
}

// Count returns the number of agreements held
func (t *Tracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.agreements)
}

func (t *Tracker) snapshot() []*model.Agreement {
	out := make([]*model.Agreement, len(t.agreements))
	for i, a := range t.agreements {
		out[i] = a.Clone()
	}
	return out
}

// Get returns a copy of one agreement
func (t *Tracker) Get(id string) (*model.Agreement, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	i := t.indexOf(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return t.agreements[i].Clone(), nil
}

func (t *Tracker) indexOf(id string) int {
	for i, a := range t.agreements {
		if a.ID == id {
			return i
		}
	}
	return -1
}

// Settings returns the current reminder settings
func (t *Tracker) Settings() model.Settings {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.settings
}

// List returns the evaluated agreements matching selector
func (t *Tracker) List(selector string) ([]AgreementView, error) {
	if selector != "" && !ValidSelector(selector) {
		return nil, fmt.Errorf("%w: unknown company selector %q", ErrValidation, selector)
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	return viewsOf(FilterByCompany(t.agreements, selector, now), now), nil
}

// Dashboard derives the summary, groups and upcoming expirations for selector
func (t *Tracker) Dashboard(selector string) (Dashboard, error) {
	if selector != "" && !ValidSelector(selector) {
		return Dashboard{}, fmt.Errorf("%w: unknown company selector %q", ErrValidation, selector)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return BuildDashboard(t.agreements, selector, t.now()), nil
}

// UploadRequest is a document submitted for extraction
type UploadRequest struct {
	FileName    string
	ContentType string
	Data        []byte
	// Company is the explicit target company; empty lets the document decide
	Company string
}

func (r UploadRequest) validate() (model.Company, error) {
	mediaType, _, err := mime.ParseMediaType(r.ContentType)
	if err != nil || mediaType != "application/pdf" {
		return "", fmt.Errorf("%w: only PDF files are accepted, got %q", ErrValidation, r.ContentType)
	}
	if len(r.Data) == 0 {
		return "", fmt.Errorf("%w: file is empty", ErrValidation)
	}
	if strings.TrimSpace(r.Company) == "" {
		return "", nil
	}
	company, ok := model.ParseCompany(r.Company)
	if !ok {
		return "", fmt.Errorf("%w: unknown company %q", ErrValidation, r.Company)
	}
	return company, nil
}

// Upload extracts metadata from a PDF and stores the new agreement. If the
// write fails the synthesized record is returned with ErrPersistence and
// the in-memory set is left unchanged.
func (t *Tracker) Upload(ctx context.Context, req UploadRequest) (*model.Agreement, error) {
	target, err := req.validate()
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	ctx = logger.WithAction(ctx, "upload")

	logger.Info(ctx, "extracting agreement", "file", req.FileName, "size", len(req.Data))
	extraction, err := t.extractor.Extract(ctx, req.Data)
	if err != nil {
		logger.Error(ctx, "extraction failed", "file", req.FileName, "error", err)
		return nil, err
	}

	a := &model.Agreement{
		ID:         t.newID(),
		FileName:   req.FileName,
		UploadDate: t.now().UTC().Format(time.RFC3339),
		PDFData:    base64.StdEncoding.EncodeToString(req.Data),
	}
	extraction.Apply(a)
	a.Company = resolveCompany(target, extraction.Company)
	a.Normalize()

	if err := t.store.Save(ctx, a); err != nil {
		logger.Error(ctx, "failed to store extracted agreement", "id", a.ID, "error", err)
		return a, err
	}
	t.agreements = append(t.agreements, a)

	logger.Info(ctx, "agreement uploaded", "id", a.ID, "company", a.Company, "type", a.AgreementType)
	return a.Clone(), nil
}

func resolveCompany(target model.Company, extracted *string) model.Company {
	if target != "" {
		return target
	}
	if extracted != nil {
		if c, ok := model.ParseCompany(*extracted); ok {
			return c
		}
	}
	return model.DefaultCompany
}

// CreateManual stores an agreement entered by hand
func (t *Tracker) CreateManual(ctx context.Context, in *model.Agreement) (*model.Agreement, error) {
	a := in.Clone()
	if err := validateAgreement(a); err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	ctx = logger.WithAction(ctx, "create")

	a.ID = t.newID()
	a.FileName = model.ManualFileName
	a.UploadDate = t.now().UTC().Format(time.RFC3339)
	a.ReminderSent1 = false
	a.ReminderSent2 = false
	a.PDFData = ""
	a.Normalize()

	if err := t.store.Save(ctx, a); err != nil {
		return nil, err
	}
	t.agreements = append(t.agreements, a)

	logger.Info(ctx, "agreement created", "id", a.ID, "company", a.Company)
	return a.Clone(), nil
}

// Update replaces the editable fields of an existing agreement. The id,
// file name, upload date and stored PDF are kept. Unknown fields in the
// request are merged over the stored ones.
func (t *Tracker) Update(ctx context.Context, id string, in *model.Agreement) (*model.Agreement, error) {
	a := in.Clone()
	if err := validateAgreement(a); err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	ctx = logger.WithAction(ctx, "update")

	i := t.indexOf(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	current := t.agreements[i]
	a.ID = current.ID
	a.FileName = current.FileName
	a.UploadDate = current.UploadDate
	a.PDFData = current.PDFData
	if current.Extra != nil {
		kept := current.Clone().Extra
		for k, v := range a.Extra {
			kept[k] = v
		}
		a.Extra = kept
	}
	a.Normalize()

	if err := t.store.Save(ctx, a); err != nil {
		return nil, err
	}
	t.agreements[i] = a

	logger.Info(ctx, "agreement updated", "id", a.ID)
	return a.Clone(), nil
}

func validateAgreement(a *model.Agreement) error {
	if a.Company == "" {
		a.Company = model.DefaultCompany
	}
	company, ok := model.ParseCompany(string(a.Company))
	if !ok {
		return fmt.Errorf("%w: unknown company %q", ErrValidation, a.Company)
	}
	a.Company = company

	for name, date := range map[string]**string{"startDate": &a.StartDate, "endDate": &a.EndDate} {
		if *date == nil || strings.TrimSpace(**date) == "" {
			*date = nil
			continue
		}
		parsed, ok := model.ParseDate(**date)
		if !ok {
			return fmt.Errorf("%w: %s must be YYYY-MM-DD, got %q", ErrValidation, name, **date)
		}
		v := parsed.Format(model.DateLayout)
		*date = &v
	}

	if email := strings.TrimSpace(a.CounterpartyEmail); email != "" {
		addr, err := mail.ParseAddress(email)
		if err != nil {
			return fmt.Errorf("%w: invalid counterparty email %q", ErrValidation, a.CounterpartyEmail)
		}
		a.CounterpartyEmail = addr.Address
	}
	return nil
}

// Delete removes an agreement from the store and memory. Deleting an
// unknown id succeeds.
func (t *Tracker) Delete(ctx context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	ctx = logger.WithAction(ctx, "delete")

	if err := t.store.Delete(ctx, id); err != nil {
		return err
	}
	if i := t.indexOf(id); i >= 0 {
		t.agreements = append(t.agreements[:i], t.agreements[i+1:]...)
		logger.Info(ctx, "agreement deleted", "id", id)
	}
	return nil
}

// PDF returns the stored source document of an agreement
func (t *Tracker) PDF(id string) (fileName string, data []byte, err error) {
	a, err := t.Get(id)
	if err != nil {
		return "", nil, err
	}
	if !a.HasPDF() {
		return "", nil, fmt.Errorf("%w: no PDF stored for %s", ErrNotFound, id)
	}
	data, err = base64.StdEncoding.DecodeString(a.PDFData)
	if err != nil {
		return "", nil, fmt.Errorf("%w: stored PDF for %s is corrupt: %w", ErrPersistence, id, err)
	}
	return a.FileName, data, nil
}

// SaveSettings validates and persists new reminder settings
func (t *Tracker) SaveSettings(ctx context.Context, s model.Settings) (model.Settings, error) {
	s.Email = strings.TrimSpace(s.Email)
	if s.ReminderDays1 < 0 || s.ReminderDays2 < 0 {
		return model.Settings{}, fmt.Errorf("%w: reminder thresholds must not be negative", ErrValidation)
	}
	if s.Email != "" {
		addr, err := mail.ParseAddress(s.Email)
		if err != nil {
			return model.Settings{}, fmt.Errorf("%w: invalid email address %q", ErrValidation, s.Email)
		}
		s.Email = addr.Address
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	ctx = logger.WithAction(ctx, "save-settings")

	if err := t.store.SaveSettings(ctx, s); err != nil {
		return model.Settings{}, err
	}
	t.settings = s
	logger.Info(ctx, "settings saved", "reminder_days_1", s.ReminderDays1, "reminder_days_2", s.ReminderDays2)
	return s, nil
}

// SendReminders runs one reminder sweep. Drafts are handed to notifier and
// every mutated agreement is written back individually; a failed write
// leaves earlier writes and the in-memory copy of that agreement intact.
func (t *Tracker) SendReminders(ctx context.Context, notifier Notifier) (*SweepResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ctx = logger.WithAction(ctx, "sweep")

	now := t.now()
	due, err := PlanReminders(t.agreements, t.settings, now)
	if err != nil {
		return nil, err
	}

	result := &SweepResult{Drafts: []Draft{}, Writes: []WriteResult{}}
	for _, r := range due {
		updated := r.Agreement.Clone()
		changed := false

		for _, step := range []struct {
			due  bool
			n    int
			flag *bool
		}{
			{r.First, 1, &updated.ReminderSent1},
			{r.Second, 2, &updated.ReminderSent2},
		} {
			if !step.due {
				continue
			}
			draft := ComposeReminder(r.Agreement, t.settings.Email, step.n, now)
			if err := notifier.Notify(ctx, draft); err != nil {
				logger.Warn(ctx, "failed to trigger reminder", "id", r.Agreement.ID, "reminder", step.n, "error", err)
				result.NotifyErrors = append(result.NotifyErrors, fmt.Sprintf("%s reminder %d: %v", r.Agreement.ID, step.n, err))
				continue
			}
			*step.flag = true
			changed = true
			result.Sent++
			result.Drafts = append(result.Drafts, draft)
		}

		if !changed {
			continue
		}
		write := WriteResult{AgreementID: updated.ID}
		if err := t.store.Save(ctx, updated); err != nil {
			write.Err = err
			write.Error = err.Error()
			logger.Error(ctx, "failed to persist reminder flags", "id", updated.ID, "error", err)
		} else if i := t.indexOf(updated.ID); i >= 0 {
			t.agreements[i] = updated
		}
		result.Writes = append(result.Writes, write)
	}

	logger.Info(ctx, "reminder sweep finished", "sent", result.Sent, "writes", len(result.Writes))
	return result, nil
}

// ReminderDraft composes an ad hoc reminder for one agreement without
// changing its flags
func (t *Tracker) ReminderDraft(id string) (Draft, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if strings.TrimSpace(t.settings.Email) == "" {
		return Draft{}, fmt.Errorf("%w: set a notification email address first", ErrConfiguration)
	}
	i := t.indexOf(id)
	if i < 0 {
		return Draft{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	a := t.agreements[i]
	if model.RemainingDays(a, t.now()) == nil {
		return Draft{}, fmt.Errorf("%w: agreement %s has no end date", ErrValidation, id)
	}
	return ComposeReminder(a, t.settings.Email, 0, t.now()), nil
}
