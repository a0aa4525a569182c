package models

import (
	"strings"
	"time"
)

// SettingDateCriterion names the setting that picks the date a period filter
// applies to when a listing does not ask for one.
const SettingDateCriterion = "criterio_data_transacao"

// Values accepted by SettingDateCriterion.
const (
	DateCriterionTransaction = "data_transacao"
	DateCriterionInvoice     = "data_fatura"
)

// Setting is one application preference stored as a key/value pair.
type Setting struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

// NewSetting trims key and checks the values of the settings the
// application interprets. Unknown keys accept any value.
func NewSetting(key, value string) (*Setting, error) {
	s := &Setting{Key: strings.TrimSpace(key), Value: strings.TrimSpace(value)}
	if s.Key == "" {
		return nil, NewValidationError("setting key is required")
	}
	if s.Key == SettingDateCriterion && s.Value != DateCriterionTransaction && s.Value != DateCriterionInvoice {
		return nil, NewValidationError("%s must be %s or %s, got %q", SettingDateCriterion, DateCriterionTransaction, DateCriterionInvoice, value)
	}
	return s, nil
}
