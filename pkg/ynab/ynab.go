package ynab

import (
	"strings"

	"github.com/brunomvsouza/ynab.go"
	"github.com/brunomvsouza/ynab.go/api/account"
	"github.com/brunomvsouza/ynab.go/api/budget"
	"github.com/brunomvsouza/ynab.go/api/transaction"
)

// YNABClient wraps the YNAB client so transactions come back with the sync id
// this application writes into the memo.
type YNABClient struct {
	client ynab.ClientServicer
}

type TransactionService struct {
	original *transaction.Service
}

// Transaction is a remote YNAB transaction plus the CustomID parsed from the
// first comma separated field of its memo.
type Transaction struct {
	*transaction.Transaction
	customID string
}

// NewTransaction wraps tx and extracts its CustomID.
func NewTransaction(tx *transaction.Transaction) *Transaction {
	return &Transaction{Transaction: tx, customID: extractCustomID(tx)}
}

// Memo builds the memo written for a synced transaction: the sync id first,
// then a free text note.
func Memo(customID, note string) string {
	return customID + "," + strings.ReplaceAll(note, ",", " ")
}

func extractCustomID(tx *transaction.Transaction) string {
	if tx == nil || tx.Memo == nil {
		return ""
	}
	memo := strings.Trim(*tx.Memo, "\"")
	if idx := strings.Index(memo, ","); idx > 0 {
		return memo[:idx]
	}
	return ""
}

func New(token string) *YNABClient {
	return &YNABClient{
		client: ynab.NewClient(token),
	}
}

func (c *YNABClient) Transaction() *TransactionService {
	return &TransactionService{original: c.client.Transaction()}
}

func (c *YNABClient) Budget() *budget.Service {
	return c.client.Budget()
}

func (c *YNABClient) Account() *account.Service {
	return c.client.Account()
}

func (ts *TransactionService) GetTransactionsByAccount(budgetID, accountID string, filter *transaction.Filter) ([]*Transaction, error) {
	remote, err := ts.original.GetTransactionsByAccount(budgetID, accountID, filter)
	if err != nil {
		return nil, err
	}
	out := make([]*Transaction, 0, len(remote))
	for _, tx := range remote {
		out = append(out, NewTransaction(tx))
	}
	return out, nil
}

// CreateTransactions creates multiple transactions in one API call.
func (ts *TransactionService) CreateTransactions(budgetID string, payloads []transaction.PayloadTransaction) error {
	if len(payloads) == 0 {
		return nil
	}
	_, err := ts.original.CreateTransactions(budgetID, payloads)
	return err
}

func (t *Transaction) CustomID() string {
	return t.customID
}
