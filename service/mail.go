package service

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ansher/agreementtracker/model"
	"github.com/emersion/go-message/mail"
)

// Draft is a composed reminder handed to a Notifier
type Draft struct {
	AgreementID string `json:"agreementId"`
	// Reminder is 1 for the first threshold and 2 for the second
	Reminder int    `json:"reminder"`
	To       string `json:"to"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
	Mailto   string `json:"mailto"`
}

// ComposeReminder builds the reminder draft for a addressed to to
func ComposeReminder(a *model.Agreement, to string, reminder int, now time.Time) Draft {
	subject := "Agreement Expiring: " + firstNonEmpty(a.CounterpartyName, a.AgreementType)

	expires := ""
	if end, ok := endDate(a); ok {
		expires = end.Format(model.DateLayout)
	}
	daysLeft := "n/a"
	if d := model.RemainingDays(a, now); d != nil {
		daysLeft = strconv.Itoa(*d)
	}

	body := strings.Join([]string{
		"Company: " + string(a.Company),
		"Counterparty: " + firstNonEmpty(a.CounterpartyName, "Unknown"),
		"Type: " + a.AgreementType,
		"Expires: " + expires,
		"Days left: " + daysLeft,
	}, "\n")

	return Draft{
		AgreementID: a.ID,
		Reminder:    reminder,
		To:          to,
		Subject:     subject,
		Body:        body,
		Mailto:      mailtoURL(to, subject, body),
	}
}

// WriteMessage renders d as an RFC 5322 message. An empty from uses the recipient.
func (d Draft) WriteMessage(w io.Writer, from string, date time.Time) error {
	to, err := mail.ParseAddress(d.To)
	if err != nil {
		return fmt.Errorf("invalid recipient %q: %w", d.To, err)
	}
	sender := to
	if from != "" {
		if sender, err = mail.ParseAddress(from); err != nil {
			return fmt.Errorf("invalid sender %q: %w", from, err)
		}
	}

	var h mail.Header
	h.SetDate(date)
	h.SetAddressList("From", []*mail.Address{sender})
	h.SetAddressList("To", []*mail.Address{to})
	h.SetSubject(d.Subject)
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	h.Set("Content-Transfer-Encoding", "quoted-printable")
	h.Set("X-Agreement-Id", d.AgreementID)

	body, err := mail.CreateSingleInlineWriter(w, h)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	if _, err := io.WriteString(body, d.Body); err != nil {
		body.Close()
		return fmt.Errorf("failed to write message body: %w", err)
	}
	return body.Close()
}

// mailtoURL percent-encodes subject and body the way browsers expect
// inside a mailto link (spaces as %20, not +).
func mailtoURL(to, subject, body string) string {
	escape := func(s string) string {
		return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
	}
	return "mailto:" + to + "?subject=" + escape(subject) + "&body=" + escape(body)
}

func endDate(a *model.Agreement) (time.Time, bool) {
	if a.ActiveUntilTerminated || a.EndDate == nil {
		return time.Time{}, false
	}
	return model.ParseDate(*a.EndDate)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// Notifier triggers a draft. There is no delivery confirmation.
type Notifier interface {
	Notify(ctx context.Context, d Draft) error
}

// Outbox collects drafts in memory for the caller to open
type Outbox struct {
	mu     sync.Mutex
	drafts []Draft
}

func (o *Outbox) Notify(_ context.Context, d Draft) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.drafts = append(o.drafts, d)
	return nil
}

// Drafts returns the collected drafts in trigger order
func (o *Outbox) Drafts() []Draft {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Draft(nil), o.drafts...)
}

// EMLWriter writes every draft as an .eml file into Dir
type EMLWriter struct {
	Dir  string
	From string
	Now  func() time.Time

	mu      sync.Mutex
	written []string
}

func (e *EMLWriter) Notify(ctx context.Context, d Draft) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	date := now()

	if err := os.MkdirAll(e.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create outbox: %w", err)
	}

	name := fmt.Sprintf("%s-%s-r%d.eml", date.UTC().Format("20060102T150405Z"), d.AgreementID, d.Reminder)
	path := filepath.Join(e.Dir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := d.WriteMessage(f, e.From, date); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	e.mu.Lock()
	e.written = append(e.written, path)
	e.mu.Unlock()
	return nil
}

// Files returns the paths written so far
func (e *EMLWriter) Files() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.written...)
}
