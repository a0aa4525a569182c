package executors

import (
	"fmt"

	"github.com/brunomvsouza/ynab.go/api"
	"github.com/brunomvsouza/ynab.go/api/transaction"
	"github.com/shopspring/decimal"

	"github.com/vitorcapdeville/financas/pkg/models"
	"github.com/vitorcapdeville/financas/pkg/ynab"
)

// YNAB rejects payee names longer than this.
const maxPayeeLen = 50

// Status indicates the reconciliation result for a local transaction.
type Status int

const (
	Synced Status = iota
	ToAdd
)

// Entry links a local transaction with its remote counterpart (if any).
type Entry struct {
	Local  *models.Transaction
	Remote *ynab.Transaction // nil when Status == ToAdd
	Status Status
}

func (e Entry) RemoteCustomID() string {
	if e.Remote == nil {
		return ""
	}
	return e.Remote.CustomID()
}

type Report struct {
	Items  []Entry
	toSync []*models.Transaction
}

// BuildReport matches local transactions against remote ones, either by the
// sync id stored in the remote memo or by amount, payee and date.
func BuildReport(local []*models.Transaction, remote []*ynab.Transaction, useCustomID bool) *Report {
	key := fallbackKey
	remoteKey := remoteFallbackKey
	if useCustomID {
		key = func(t *models.Transaction) string { return t.SyncID() }
		remoteKey = func(t *ynab.Transaction) string { return t.CustomID() }
	}

	idx := make(map[string]*ynab.Transaction, len(remote))
	for _, rt := range remote {
		k := remoteKey(rt)
		if k == "" {
			continue
		}
		if _, ok := idx[k]; !ok {
			idx[k] = rt
		}
	}

	r := &Report{Items: make([]Entry, 0, len(local))}
	for _, lt := range local {
		found := idx[key(lt)]
		status := ToAdd
		if found != nil {
			status = Synced
		}
		r.Items = append(r.Items, Entry{Local: lt, Remote: found, Status: status})
		if status == ToAdd {
			r.toSync = append(r.toSync, lt)
		}
	}
	return r
}

func fallbackKey(t *models.Transaction) string {
	return fmt.Sprintf("%s|%s|%s", t.SignedAmount().StringFixed(2), payee(t), t.Date.Format("2006-01-02"))
}

func remoteFallbackKey(t *ynab.Transaction) string {
	p := ""
	if t.PayeeName != nil {
		p = *t.PayeeName
	}
	return fmt.Sprintf("%s|%s|%s", decimal.New(t.Amount, -3).StringFixed(2), p, t.Date.Format("2006-01-02"))
}

func payee(t *models.Transaction) string {
	r := []rune(t.Description)
	if len(r) > maxPayeeLen {
		r = r[:maxPayeeLen]
	}
	return string(r)
}

// InSyncCount returns how many local transactions already exist remotely.
func (r *Report) InSyncCount() int {
	return len(r.Items) - len(r.toSync)
}

// MissingCount returns how many local transactions still need to be created.
func (r *Report) MissingCount() int {
	return len(r.toSync)
}

func (r *Report) TransactionsToSync() []*models.Transaction {
	return r.toSync
}

// Payloads converts the transactions that still need syncing into YNAB API
// payloads. Amounts are in milliunits and the memo carries the sync id.
func (r *Report) Payloads(accountID string) ([]transaction.PayloadTransaction, error) {
	out := make([]transaction.PayloadTransaction, 0, len(r.toSync))
	for _, lt := range r.toSync {
		date, err := api.DateFromString(lt.Date.Format("2006-01-02"))
		if err != nil {
			return nil, fmt.Errorf("invalid date for transaction %d: %w", lt.ID, err)
		}
		name := payee(lt)
		memo := ynab.Memo(lt.SyncID(), lt.Category)
		out = append(out, transaction.PayloadTransaction{
			AccountID: accountID,
			Date:      date,
			Amount:    lt.SignedAmount().Shift(3).IntPart(),
			Cleared:   transaction.ClearingStatusCleared,
			Approved:  true,
			PayeeName: &name,
			Memo:      &memo,
		})
	}
	return out, nil
}
