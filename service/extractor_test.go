package service

import (
	"context"
	"testing"

	"github.com/ansher/agreementtracker/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExtractionReply(t *testing.T) {
	reply := "```json\n" + `{
  "parties": ["Ansher Investments LLP", " ", "Acme Corp"],
  "agreementType": " Services Agreement ",
  "startDate": "2025-02-01",
  "endDate": "2027-01-31T00:00:00Z",
  "counterpartyName": "Acme Corp",
  "counterpartyEmail": "Legal Team <legal@acme.test>",
  "keyTerms": null,
  "autoRenewal": true,
  "company": "Ansher Investments LLP",
  "signedBy": "someone"
}` + "\n```"

	e, err := ParseExtractionReply(reply)
	require.NoError(t, err)

	assert.Equal(t, []string{"Ansher Investments LLP", "Acme Corp"}, e.Parties)
	assert.Equal(t, "Services Agreement", *e.AgreementType)
	assert.Equal(t, "2025-02-01", *e.StartDate)
	assert.Equal(t, "2027-01-31", *e.EndDate)
	assert.Equal(t, "legal@acme.test", *e.CounterpartyEmail)
	assert.Nil(t, e.KeyTerms)
	require.NotNil(t, e.AutoRenewal)
	assert.True(t, *e.AutoRenewal)
	assert.Equal(t, "Ansher Investments LLP", *e.Company)
}

func TestParseExtractionReplyNullsInvalidValues(t *testing.T) {
	e, err := ParseExtractionReply(`{"endDate":"sometime next year","counterpartyEmail":"not an email","company":"Acme Holdings"}`)
	require.NoError(t, err)

	assert.Nil(t, e.EndDate)
	assert.Nil(t, e.CounterpartyEmail)
	assert.Nil(t, e.Company)
	assert.Empty(t, e.Parties)
}

func TestParseExtractionReplyFailures(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"empty", "   "},
		{"only fences", "```json\n```"},
		{"prose", "Sorry, I cannot help with that."},
		{"array instead of object", `["NDA"]`},
		{"null", "null"},
		{"fenced null", "```json\nnull\n```"},
		{"wrong field type", `{"parties":"Ansher and Acme"}`},
		{"wrong bool type", `{"autoRenewal":"yes"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseExtractionReply(tt.reply)
			assert.ErrorIs(t, err, ErrExtraction)
		})
	}
}

func TestNewExtractor(t *testing.T) {
	ctx := context.Background()

	_, err := NewExtractor(ctx, &config.ExtractorConfig{Provider: "anthropic"})
	assert.Error(t, err, "missing api key")

	ext, err := NewExtractor(ctx, &config.ExtractorConfig{
		Provider:  "anthropic",
		Anthropic: config.AnthropicConfig{APIKey: "k", APIURL: "http://localhost"},
	})
	require.NoError(t, err)
	assert.IsType(t, &AnthropicExtractor{}, ext)

	_, err = NewExtractor(ctx, &config.ExtractorConfig{Provider: "gemini"})
	assert.Error(t, err, "missing gemini key")

	_, err = NewExtractor(ctx, &config.ExtractorConfig{Provider: "ollama"})
	assert.Error(t, err)
}

func TestUnavailableExtractor(t *testing.T) {
	_, err := UnavailableExtractor{Reason: assert.AnError}.Extract(context.Background(), nil)
	assert.ErrorIs(t, err, ErrExtraction)
	assert.ErrorIs(t, err, assert.AnError)
}
