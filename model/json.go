package model

import "encoding/json"

// agreementFields is the set of JSON keys owned by Agreement
var agreementFields = map[string]struct{}{
	"id": {}, "fileName": {}, "uploadDate": {}, "company": {}, "parties": {},
	"agreementType": {}, "startDate": {}, "endDate": {}, "activeUntilTerminated": {},
	"counterpartyName": {}, "counterpartyEmail": {}, "keyTerms": {}, "autoRenewal": {},
	"reminderSent1": {}, "reminderSent2": {}, "pdfData": {},
}

type agreementJSON Agreement

// MarshalJSON writes the known fields followed by any preserved extras
func (a Agreement) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal((*agreementJSON)(&a))
	if err != nil {
		return nil, err
	}
	if len(a.Extra) == 0 {
		return base, nil
	}

	merged := make(map[string]json.RawMessage, len(agreementFields)+len(a.Extra))
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for k, v := range a.Extra {
		if _, known := agreementFields[k]; known {
			continue
		}
		merged[k] = v
	}
	return json.Marshal(merged)
}

// UnmarshalJSON decodes the known fields and keeps the rest in Extra
func (a *Agreement) UnmarshalJSON(data []byte) error {
	var v agreementJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for k := range raw {
		if _, known := agreementFields[k]; known {
			delete(raw, k)
		}
	}

	*a = Agreement(v)
	a.Extra = nil
	if len(raw) > 0 {
		a.Extra = raw
	}
	return nil
}
