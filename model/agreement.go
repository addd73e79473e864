package model

import (
	"encoding/json"
	"strings"
)

// Company is the owning legal entity of an agreement
type Company string

const (
	CompanyInvestments Company = "Ansher Investments LLP"
	CompanyCapital     Company = "Ansher Capital LLC"

	// DefaultCompany is used when neither the upload target nor the
	// extracted document names a company.
	DefaultCompany = CompanyInvestments
)

// Companies lists the enumerated companies in display order
var Companies = []Company{CompanyInvestments, CompanyCapital}

// ManualFileName marks records created through manual entry
const ManualFileName = "Manual"

// ParseCompany returns the enumerated company matching s exactly
func ParseCompany(s string) (Company, bool) {
	for _, c := range Companies {
		if string(c) == strings.TrimSpace(s) {
			return c, true
		}
	}
	return "", false
}

// ShortName returns the abbreviation used in compact listings
func (c Company) ShortName() string {
	switch c {
	case CompanyInvestments:
		return "AI LLP"
	case CompanyCapital:
		return "AC LLC"
	default:
		return string(c)
	}
}

// Agreement represents one tracked agreement record
type Agreement struct {
	ID                    string   `json:"id"`
	FileName              string   `json:"fileName"`
	UploadDate            string   `json:"uploadDate"`
	Company               Company  `json:"company"`
	Parties               []string `json:"parties"`
	AgreementType         string   `json:"agreementType"`
	StartDate             *string  `json:"startDate"`
	EndDate               *string  `json:"endDate"`
	ActiveUntilTerminated bool     `json:"activeUntilTerminated"`
	CounterpartyName      string   `json:"counterpartyName"`
	CounterpartyEmail     string   `json:"counterpartyEmail"`
	KeyTerms              string   `json:"keyTerms"`
	AutoRenewal           bool     `json:"autoRenewal"`
	ReminderSent1         bool     `json:"reminderSent1"`
	ReminderSent2         bool     `json:"reminderSent2"`
	PDFData               string   `json:"pdfData,omitempty"`

	// Extra holds fields read from storage that this schema does not know.
	// They are written back untouched.
	Extra map[string]json.RawMessage `json:"-"`
}

// Normalize enforces the record invariants before a write
func (a *Agreement) Normalize() {
	if a.ActiveUntilTerminated {
		a.EndDate = nil
	}
	a.StartDate = nonEmpty(a.StartDate)
	a.EndDate = nonEmpty(a.EndDate)
	if a.Parties == nil {
		a.Parties = []string{}
	}
}

// Clone returns a deep copy
func (a *Agreement) Clone() *Agreement {
	if a == nil {
		return nil
	}
	c := *a
	if a.Parties != nil {
		c.Parties = append([]string(nil), a.Parties...)
	}
	c.StartDate = copyString(a.StartDate)
	c.EndDate = copyString(a.EndDate)
	if a.Extra != nil {
		c.Extra = make(map[string]json.RawMessage, len(a.Extra))
		for k, v := range a.Extra {
			c.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return &c
}

// HasPDF reports whether the source document is embedded in the record
func (a *Agreement) HasPDF() bool {
	return a.PDFData != ""
}

// Extraction is the field set returned by the document-extraction endpoint.
// Absent values are nil.
type Extraction struct {
	Parties           []string `json:"parties"`
	AgreementType     *string  `json:"agreementType"`
	StartDate         *string  `json:"startDate"`
	EndDate           *string  `json:"endDate"`
	CounterpartyName  *string  `json:"counterpartyName"`
	CounterpartyEmail *string  `json:"counterpartyEmail"`
	KeyTerms          *string  `json:"keyTerms"`
	AutoRenewal       *bool    `json:"autoRenewal"`
	Company           *string  `json:"company"`
}

// ExtractionFields is the declared field set of Extraction
var ExtractionFields = []string{
	"parties", "agreementType", "startDate", "endDate",
	"counterpartyName", "counterpartyEmail", "keyTerms", "autoRenewal", "company",
}

// Apply merges the extracted fields into a
func (e *Extraction) Apply(a *Agreement) {
	a.Parties = append([]string{}, e.Parties...)
	a.AgreementType = deref(e.AgreementType)
	a.StartDate = copyString(e.StartDate)
	a.EndDate = copyString(e.EndDate)
	a.CounterpartyName = deref(e.CounterpartyName)
	a.CounterpartyEmail = deref(e.CounterpartyEmail)
	a.KeyTerms = deref(e.KeyTerms)
	if e.AutoRenewal != nil {
		a.AutoRenewal = *e.AutoRenewal
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func nonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
