package server

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vitorcapdeville/financas/pkg/models"
	"github.com/vitorcapdeville/financas/pkg/transactions"
)

const dateLayout = "2006-01-02"

// Transaction is the JSON shape of a stored transaction.
type Transaction struct {
	ID             int64   `json:"id"`
	Date           string  `json:"date"`
	Description    string  `json:"description"`
	Amount         string  `json:"amount"`
	OriginalAmount *string `json:"original_amount,omitempty"`
	Direction      string  `json:"direction"`
	Category       string  `json:"category,omitempty"`
	Origin         string  `json:"origin"`
	BankID         string  `json:"bank_id,omitempty"`
	Notes          string  `json:"notes,omitempty"`
	InvoiceDate    *string `json:"invoice_date,omitempty"`
	UserID         int64   `json:"user_id,omitempty"`
	TagIDs         []int64 `json:"tag_ids"`
	SyncID         string  `json:"sync_id"`
}

func toTransaction(tx *models.Transaction) Transaction {
	out := Transaction{
		ID:          tx.ID,
		Date:        tx.Date.Format(dateLayout),
		Description: tx.Description,
		Amount:      tx.Amount.StringFixed(2),
		Direction:   string(tx.Direction),
		Category:    tx.Category,
		Origin:      string(tx.Origin),
		BankID:      tx.BankID,
		Notes:       tx.Notes,
		UserID:      tx.UserID,
		TagIDs:      tx.TagIDs,
		SyncID:      tx.SyncID(),
	}
	if out.TagIDs == nil {
		out.TagIDs = []int64{}
	}
	if tx.OriginalAmount != nil {
		v := tx.OriginalAmount.StringFixed(2)
		out.OriginalAmount = &v
	}
	if tx.InvoiceDate != nil {
		v := tx.InvoiceDate.Format(dateLayout)
		out.InvoiceDate = &v
	}
	return out
}

func toTransactions(txs []*models.Transaction) []Transaction {
	out := make([]Transaction, len(txs))
	for i, tx := range txs {
		out[i] = toTransaction(tx)
	}
	return out
}

// NewTransaction is the body of a manual transaction. Amount accepts a JSON
// number or string and must be non-negative; direction defaults to outflow.
type NewTransaction struct {
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Direction   string          `json:"direction"`
	Category    string          `json:"category"`
	Notes       string          `json:"notes"`
	InvoiceDate string          `json:"invoice_date"`
	UserID      int64           `json:"user_id"`
}

func (b NewTransaction) toInput(defaultUser int64) (transactions.NewTransaction, error) {
	in := transactions.NewTransaction{
		Description: b.Description,
		Amount:      b.Amount,
		Direction:   models.Direction(b.Direction),
		Category:    b.Category,
		Notes:       b.Notes,
		UserID:      b.UserID,
	}
	if in.UserID == 0 {
		in.UserID = defaultUser
	}
	switch in.Direction {
	case "", models.Inflow, models.Outflow:
	default:
		return in, fmt.Errorf("invalid direction %q", b.Direction)
	}
	d, err := time.Parse(dateLayout, b.Date)
	if err != nil {
		return in, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", b.Date)
	}
	in.Date = d
	if b.InvoiceDate != "" {
		inv, err := time.Parse(dateLayout, b.InvoiceDate)
		if err != nil {
			return in, fmt.Errorf("invalid invoice_date %q, expected YYYY-MM-DD", b.InvoiceDate)
		}
		in.InvoiceDate = &inv
	}
	return in, nil
}

type Summary struct {
	Month             int               `json:"month,omitempty"`
	Year              int               `json:"year,omitempty"`
	Count             int               `json:"count"`
	Inflow            string            `json:"inflow"`
	Outflow           string            `json:"outflow"`
	Balance           string            `json:"balance"`
	InflowByCategory  map[string]string `json:"inflow_by_category"`
	OutflowByCategory map[string]string `json:"outflow_by_category"`
}

func toSummary(sum *transactions.Summary) Summary {
	out := Summary{
		Month:             sum.Month,
		Year:              sum.Year,
		Count:             sum.Count,
		Inflow:            sum.Inflow.StringFixed(2),
		Outflow:           sum.Outflow.StringFixed(2),
		Balance:           sum.Balance.StringFixed(2),
		InflowByCategory:  make(map[string]string, len(sum.InflowByCategory)),
		OutflowByCategory: make(map[string]string, len(sum.OutflowByCategory)),
	}
	for k, v := range sum.InflowByCategory {
		out.InflowByCategory[k] = v.StringFixed(2)
	}
	for k, v := range sum.OutflowByCategory {
		out.OutflowByCategory[k] = v.StringFixed(2)
	}
	return out
}

type Setting struct {
	Key       string     `json:"key"`
	Value     string     `json:"value"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

func toSetting(s *models.Setting) Setting {
	out := Setting{Key: s.Key, Value: s.Value}
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		out.UpdatedAt = &t
	}
	return out
}

type Rule struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Action         string    `json:"action"`
	Criterion      string    `json:"criterion"`
	CriterionValue string    `json:"criterion_value"`
	ActionValue    string    `json:"action_value"`
	Priority       int       `json:"priority"`
	Active         bool      `json:"active"`
	TagIDs         []int64   `json:"tag_ids,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toRule(r *models.Rule) Rule {
	return Rule{
		ID:             r.ID,
		Name:           r.Name,
		Action:         string(r.Action),
		Criterion:      string(r.Criterion),
		CriterionValue: r.CriterionValue,
		ActionValue:    r.ActionValue,
		Priority:       r.Priority,
		Active:         r.Active,
		TagIDs:         r.TagIDs,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

type Tag struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Color       string `json:"color,omitempty"`
	Description string `json:"description,omitempty"`
}

func toTag(t *models.Tag) Tag {
	return Tag{ID: t.ID, Name: t.Name, Color: t.Color, Description: t.Description}
}

func toTags(tags []*models.Tag) []Tag {
	out := make([]Tag, len(tags))
	for i, t := range tags {
		out[i] = toTag(t)
	}
	return out
}
