package models

import (
	"crypto/sha256"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Direction of money flow relative to the account holder.
type Direction string

const (
	Inflow  Direction = "inflow"
	Outflow Direction = "outflow"
)

// Transaction is a persisted financial record. Amount is always non-negative,
// Direction carries the sign. OriginalAmount is captured at creation and never
// touched by rules.
type Transaction struct {
	ID             int64
	Date           time.Time
	Description    string
	Amount         decimal.Decimal
	OriginalAmount *decimal.Decimal
	Direction      Direction
	Category       string
	Origin         Origin
	BankID         string
	Notes          string
	InvoiceDate    *time.Time
	UserID         int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
	TagIDs         []int64
}

// AddTag associates tagID with the transaction. Duplicates are ignored and
// insertion order is preserved. Returns true when the tag was added.
func (t *Transaction) AddTag(tagID int64) bool {
	if slices.Contains(t.TagIDs, tagID) {
		return false
	}
	t.TagIDs = append(t.TagIDs, tagID)
	return true
}

// RemoveTag drops tagID. Returns true when the tag was present.
func (t *Transaction) RemoveTag(tagID int64) bool {
	i := slices.Index(t.TagIDs, tagID)
	if i < 0 {
		return false
	}
	t.TagIDs = slices.Delete(t.TagIDs, i, i+1)
	return true
}

// HasTag reports whether tagID is attached.
func (t *Transaction) HasTag(tagID int64) bool {
	return slices.Contains(t.TagIDs, tagID)
}

// RestoreOriginalAmount resets Amount to the value captured at creation.
func (t *Transaction) RestoreOriginalAmount() error {
	if t.OriginalAmount == nil {
		return NewValidationError("transaction %d has no original amount", t.ID)
	}
	t.Amount = *t.OriginalAmount
	return nil
}

// SignedAmount returns Amount with the sign implied by Direction.
func (t *Transaction) SignedAmount() decimal.Decimal {
	if t.Direction == Outflow {
		return t.Amount.Neg()
	}
	return t.Amount
}

// SyncID is a short stable hash identifying the transaction outside this
// system, e.g. in the memo field of a YNAB transaction.
func (t *Transaction) SyncID() string {
	input := fmt.Sprintf("%s-%s-%s",
		t.Date.Format("2006-01-02"),
		strings.ToLower(strings.TrimSpace(t.Description)),
		t.SignedAmount().StringFixed(2))
	hash := sha256.Sum256([]byte(input))
	return fmt.Sprintf("%x", hash)[:8]
}

// Clone returns a deep copy.
func (t *Transaction) Clone() *Transaction {
	c := *t
	if t.OriginalAmount != nil {
		v := *t.OriginalAmount
		c.OriginalAmount = &v
	}
	if t.InvoiceDate != nil {
		v := *t.InvoiceDate
		c.InvoiceDate = &v
	}
	c.TagIDs = slices.Clone(t.TagIDs)
	return &c
}

// TransactionBuilder assembles a Transaction step by step. The first error
// encountered is kept and returned by Build.
type TransactionBuilder struct {
	tx  Transaction
	err error
}

// NewTransaction starts a builder for a transaction with the given description.
func NewTransaction(description string) *TransactionBuilder {
	return &TransactionBuilder{tx: Transaction{Description: strings.TrimSpace(description)}}
}

// FromRow starts a builder pre-populated from a parsed row. Direction is
// derived from the row origin and sign.
func FromRow(row NormalizedRow) *TransactionBuilder {
	b := NewTransaction(row.Description).
		SetDate(row.Date).
		SetCategory(row.Category).
		SetBank(row.BankID).
		SetInvoiceDate(row.InvoiceDate)
	if row.Origin == OriginInvoice {
		return b.AsInvoice(row.Amount)
	}
	return b.AsStatement(row.Amount)
}

func (b *TransactionBuilder) SetDate(d time.Time) *TransactionBuilder {
	b.tx.Date = d
	return b
}

func (b *TransactionBuilder) SetCategory(category string) *TransactionBuilder {
	b.tx.Category = strings.TrimSpace(category)
	return b
}

func (b *TransactionBuilder) SetBank(bankID string) *TransactionBuilder {
	b.tx.BankID = bankID
	return b
}

func (b *TransactionBuilder) SetNotes(notes string) *TransactionBuilder {
	b.tx.Notes = notes
	return b
}

func (b *TransactionBuilder) SetUser(userID int64) *TransactionBuilder {
	b.tx.UserID = userID
	return b
}

func (b *TransactionBuilder) SetInvoiceDate(d *time.Time) *TransactionBuilder {
	if d != nil {
		v := *d
		b.tx.InvoiceDate = &v
	}
	return b
}

// AsInvoice marks the transaction as a card purchase: always an outflow of
// the absolute amount.
func (b *TransactionBuilder) AsInvoice(amount decimal.Decimal) *TransactionBuilder {
	b.tx.Origin = OriginInvoice
	b.tx.Direction = Outflow
	b.tx.Amount = amount.Abs()
	return b
}

// AsStatement marks the transaction as an account movement: positive amounts
// are inflows, zero or negative ones outflows.
func (b *TransactionBuilder) AsStatement(amount decimal.Decimal) *TransactionBuilder {
	b.tx.Origin = OriginStatement
	b.tx.Direction = Outflow
	if amount.IsPositive() {
		b.tx.Direction = Inflow
	}
	b.tx.Amount = amount.Abs()
	return b
}

// SetDirection overrides the direction and stores amount as given. Used for
// manual entries where the caller already knows both.
func (b *TransactionBuilder) SetDirection(d Direction, amount decimal.Decimal) *TransactionBuilder {
	if d != Inflow && d != Outflow {
		b.err = NewValidationError("invalid direction %q", d)
		return b
	}
	if amount.IsNegative() {
		b.err = NewValidationError("amount must be non-negative, got %s", amount)
		return b
	}
	b.tx.Direction = d
	b.tx.Amount = amount
	return b
}

func (b *TransactionBuilder) SetOrigin(o Origin) *TransactionBuilder {
	b.tx.Origin = o
	return b
}

// Build validates the transaction and captures OriginalAmount.
func (b *TransactionBuilder) Build() (*Transaction, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.tx.Description == "" {
		return nil, NewValidationError("description is required")
	}
	if b.tx.Date.IsZero() {
		return nil, NewValidationError("date is required")
	}
	if b.tx.Direction == "" {
		return nil, NewValidationError("direction is required")
	}
	tx := b.tx.Clone()
	original := tx.Amount
	tx.OriginalAmount = &original
	return tx, nil
}
