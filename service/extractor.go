package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/ansher/agreementtracker/config"
	"github.com/ansher/agreementtracker/model"
)

// ExtractionPrompt is sent with every document
const ExtractionPrompt = `Extract agreement info as JSON: {"parties":["p1","p2"],"agreementType":"type","startDate":"YYYY-MM-DD","endDate":"YYYY-MM-DD","counterpartyName":"name","counterpartyEmail":"email","keyTerms":"summary","autoRenewal":true,"company":"Ansher Investments LLP or Ansher Capital LLC"}. Use null for missing fields.`

// Extractor turns a PDF into agreement metadata
type Extractor interface {
	Extract(ctx context.Context, pdf []byte) (*model.Extraction, error)
}

// NewExtractor builds the provider selected by cfg.Provider
func NewExtractor(ctx context.Context, cfg *config.ExtractorConfig) (Extractor, error) {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "anthropic", "":
		if cfg.Anthropic.APIKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is required for the anthropic provider")
		}
		return NewAnthropicExtractor(&cfg.Anthropic, timeout), nil
	case "gemini":
		return NewGeminiExtractor(ctx, &cfg.Gemini, timeout)
	default:
		return nil, fmt.Errorf("unsupported extractor provider: %s", cfg.Provider)
	}
}

// UnavailableExtractor fails every extraction with the reason it could not be built
type UnavailableExtractor struct {
	Reason error
}

func (u UnavailableExtractor) Extract(context.Context, []byte) (*model.Extraction, error) {
	return nil, fmt.Errorf("%w: extractor unavailable: %w", ErrExtraction, u.Reason)
}

var codeFence = regexp.MustCompile("```json|```")

// ParseExtractionReply decodes the endpoint's text reply. Keys outside the
// declared field set are dropped; malformed values are nulled.
func ParseExtractionReply(reply string) (*model.Extraction, error) {
	cleaned := strings.TrimSpace(codeFence.ReplaceAllString(reply, ""))
	if cleaned == "" {
		return nil, fmt.Errorf("%w: empty reply", ErrExtraction)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, fmt.Errorf("%w: reply is not a JSON object: %w", ErrExtraction, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: reply is not a JSON object", ErrExtraction)
	}

	declared := make(map[string]json.RawMessage, len(model.ExtractionFields))
	for _, field := range model.ExtractionFields {
		if v, ok := raw[field]; ok {
			declared[field] = v
		}
	}
	filtered, err := json.Marshal(declared)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtraction, err)
	}

	dec := json.NewDecoder(bytes.NewReader(filtered))
	dec.DisallowUnknownFields()
	var e model.Extraction
	if err := dec.Decode(&e); err != nil {
		return nil, fmt.Errorf("%w: unexpected field type: %w", ErrExtraction, err)
	}

	sanitizeExtraction(&e)
	return &e, nil
}

func sanitizeExtraction(e *model.Extraction) {
	parties := make([]string, 0, len(e.Parties))
	for _, p := range e.Parties {
		if p = strings.TrimSpace(p); p != "" {
			parties = append(parties, p)
		}
	}
	e.Parties = parties

	e.AgreementType = trimmed(e.AgreementType)
	e.CounterpartyName = trimmed(e.CounterpartyName)
	e.KeyTerms = trimmed(e.KeyTerms)
	e.StartDate = normalizedDate(e.StartDate)
	e.EndDate = normalizedDate(e.EndDate)

	if email := trimmed(e.CounterpartyEmail); email != nil {
		if addr, err := mail.ParseAddress(*email); err == nil {
			e.CounterpartyEmail = &addr.Address
		} else {
			e.CounterpartyEmail = nil
		}
	}

	if company := trimmed(e.Company); company != nil {
		if c, ok := model.ParseCompany(*company); ok {
			s := string(c)
			e.Company = &s
		} else {
			e.Company = nil
		}
	}
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func normalizedDate(s *string) *string {
	s = trimmed(s)
	if s == nil {
		return nil
	}
	t, ok := model.ParseDate(*s)
	if !ok {
		return nil
	}
	v := t.Format(model.DateLayout)
	return &v
}
