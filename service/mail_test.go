package service

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ansher/agreementtracker/model"
	"github.com/emersion/go-message/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComposeReminder(t *testing.T) {
	a := newAgreement("a1", model.CompanyCapital, "Lease", days(45))
	a.CounterpartyName = "Acme & Sons"

	d := ComposeReminder(a, "me@ansher.test", 1, fixedNow)

	assert.Equal(t, "a1", d.AgreementID)
	assert.Equal(t, 1, d.Reminder)
	assert.Equal(t, "me@ansher.test", d.To)
	assert.Equal(t, "Agreement Expiring: Acme & Sons", d.Subject)
	assert.Equal(t, strings.Join([]string{
		"Company: Ansher Capital LLC",
		"Counterparty: Acme & Sons",
		"Type: Lease",
		"Expires: " + *endDateIn(45),
		"Days left: 45",
	}, "\n"), d.Body)
}

func TestComposeReminderFallbacks(t *testing.T) {
	a := newAgreement("a2", model.CompanyInvestments, "NDA", days(10))
	a.CounterpartyName = ""

	d := ComposeReminder(a, "me@ansher.test", 2, fixedNow)

	assert.Equal(t, "Agreement Expiring: NDA", d.Subject)
	assert.Contains(t, d.Body, "Counterparty: Unknown\n")
}

func TestMailtoURL(t *testing.T) {
	a := newAgreement("a3", model.CompanyInvestments, "Services", days(5))
	a.CounterpartyName = "Acme & Sons"
	d := ComposeReminder(a, "me@ansher.test", 1, fixedNow)

	require.True(t, strings.HasPrefix(d.Mailto, "mailto:me@ansher.test?subject="))
	assert.NotContains(t, d.Mailto, "+")
	assert.Contains(t, d.Mailto, "Agreement%20Expiring%3A%20Acme%20%26%20Sons")

	u, err := url.Parse(d.Mailto)
	require.NoError(t, err)
	assert.Equal(t, d.Subject, u.Query().Get("subject"))
	assert.Equal(t, d.Body, u.Query().Get("body"))
}

func TestDraftWriteMessage(t *testing.T) {
	a := newAgreement("a4", model.CompanyCapital, "Lease", days(30))
	d := ComposeReminder(a, "me@ansher.test", 2, fixedNow)

	var buf bytes.Buffer
	require.NoError(t, d.WriteMessage(&buf, "", fixedNow))

	mr, err := mail.CreateReader(&buf)
	require.NoError(t, err)

	subject, err := mr.Header.Subject()
	require.NoError(t, err)
	assert.Equal(t, d.Subject, subject)

	to, err := mr.Header.AddressList("To")
	require.NoError(t, err)
	require.Len(t, to, 1)
	assert.Equal(t, "me@ansher.test", to[0].Address)

	from, err := mr.Header.AddressList("From")
	require.NoError(t, err)
	require.Len(t, from, 1)
	assert.Equal(t, "me@ansher.test", from[0].Address)
	assert.Equal(t, "a4", mr.Header.Get("X-Agreement-Id"))

	part, err := mr.NextPart()
	require.NoError(t, err)
	body, err := io.ReadAll(part.Body)
	require.NoError(t, err)
	assert.Equal(t, d.Body, strings.ReplaceAll(string(body), "\r\n", "\n"))
}

func TestDraftWriteMessageInvalidRecipient(t *testing.T) {
	d := Draft{To: "not an address", Subject: "s", Body: "b"}
	assert.Error(t, d.WriteMessage(io.Discard, "", fixedNow))
}

func TestOutbox(t *testing.T) {
	var o Outbox
	require.NoError(t, o.Notify(context.Background(), Draft{AgreementID: "x"}))
	require.NoError(t, o.Notify(context.Background(), Draft{AgreementID: "y"}))

	drafts := o.Drafts()
	require.Len(t, drafts, 2)
	assert.Equal(t, "x", drafts[0].AgreementID)
	assert.Equal(t, "y", drafts[1].AgreementID)
}

func TestEMLWriter(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "outbox")
	w := &EMLWriter{Dir: dir, From: "tracker@ansher.test", Now: func() time.Time { return fixedNow }}

	a := newAgreement("a5", model.CompanyInvestments, "NDA", days(20))
	d := ComposeReminder(a, "me@ansher.test", 1, fixedNow)
	require.NoError(t, w.Notify(context.Background(), d))

	files := w.Files()
	require.Len(t, files, 1)
	assert.Equal(t, "20260310T120000Z-a5-r1.eml", filepath.Base(files[0]))

	f, err := os.Open(files[0])
	require.NoError(t, err)
	defer f.Close()

	mr, err := mail.CreateReader(f)
	require.NoError(t, err)
	from, err := mr.Header.AddressList("From")
	require.NoError(t, err)
	assert.Equal(t, "tracker@ansher.test", from[0].Address)
}

func TestEMLWriterCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := &EMLWriter{Dir: t.TempDir()}
	assert.ErrorIs(t, w.Notify(ctx, Draft{To: "me@ansher.test"}), context.Canceled)
	assert.Empty(t, w.Files())
}
