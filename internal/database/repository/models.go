package repository

import (
	"context"
	"database/sql"
	"time"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx, letting the same repository
// code run standalone or inside a unit of work.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Bank transaction types.
const (
	TransactionTypeCredit = "credit"
	TransactionTypeDebit  = "debit"
)

// Bank transaction reconciliation statuses.
const (
	ReconStatusUnmatched = "unmatched"
	ReconStatusMatched   = "matched"
	ReconStatusExcluded  = "excluded"
)

// Book transaction types.
const (
	BookTypeIncome  = "income"
	BookTypeExpense = "expense"
)

// Book transaction statuses.
const (
	BookStatusPending    = "pending"
	BookStatusCleared    = "cleared"
	BookStatusReconciled = "reconciled"
	BookStatusVoid       = "void"
)

// Reconciliation match types.
const (
	MatchTypeExact      = "exact"
	MatchTypePartial    = "partial"
	MatchTypeSplit      = "split"
	MatchTypeAdjustment = "adjustment"
)

// Reconciliation statuses.
const (
	ReconciliationPending   = "pending"
	ReconciliationConfirmed = "confirmed"
	ReconciliationRejected  = "rejected"
)

// BankAccount represents a bank_accounts row. CurrentBalance is maintained by
// the bank ledger, never written directly by callers.
type BankAccount struct {
	ID             string
	OwnerID        string
	AccountName    string
	BankName       string
	SortCode       string
	AccountNumber  string
	Currency       string
	OpeningBalance int64
	CurrentBalance int64
	IsDefault      bool
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// BankTransaction represents a bank_transactions row. Amounts are minor
// currency units, always non-negative; the sign comes from TransactionType.
type BankTransaction struct {
	ID                   string
	BankAccountID        string
	TransactionDate      time.Time
	PostingDate          *time.Time
	Description          string
	Reference            *string
	ImportSource         *string
	FitID                *string
	TransactionType      string
	Amount               int64
	RunningBalance       *int64
	ReconciliationStatus string
	IsReconciled         bool
	ReconciliationNotes  *string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// SignedAmount returns the balance contribution of the row: positive for
// credits, negative for debits.
func (t BankTransaction) SignedAmount() int64 {
	if t.TransactionType == TransactionTypeDebit {
		return -t.Amount
	}
	return t.Amount
}

// Transaction represents a book-side transactions row.
// TotalAmount = Amount + VATAmount is enforced on every write.
type Transaction struct {
	ID              string
	OwnerID         string
	Type            string
	Status          string
	TransactionDate time.Time
	Description     string
	Amount          int64
	VATRate         int
	VATAmount       int64
	TotalAmount     int64
	CategoryID      *string
	Payee           *string
	Reference       *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Reconciliation represents a reconciliations row: a proposed or confirmed
// pairing of a bank transaction with a book transaction.
type Reconciliation struct {
	ID                string
	BankTransactionID string
	TransactionID     string
	MatchAmount       int64
	MatchType         string
	MatchConfidence   int
	Status            string
	ReconciledBy      *string
	ReconciledAt      *time.Time
	Notes             *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// MatchExclusion marks a bank transaction as excluded from matching.
// A nil ExpiresAt means the exclusion never expires on its own.
type MatchExclusion struct {
	BankTransactionID string
	Reason            string
	CreatedAt         time.Time
	ExpiresAt         *time.Time
}

// scanner handles nullable fields for both Row and Rows.
type scanner interface {
	Scan(dest ...any) error
}
