package ledger

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/quillbooks/quillbooks/internal/database"
	"github.com/quillbooks/quillbooks/internal/database/repository"
	"github.com/quillbooks/quillbooks/internal/logger"
)

// BankService owns bank accounts and bank transactions. Every mutation that
// touches an amount applies its balance delta to the owning account in the
// same unit of work, so currentBalance always equals
// openingBalance + sum(credits) - sum(debits).
type BankService struct {
	db  *sql.DB
	log zerolog.Logger
}

func NewBankService(db *sql.DB) *BankService {
	return &BankService{db: db, log: logger.WithComponent("bank")}
}

// CreateBankAccountInput carries a new account. OpeningBalance is immutable
// after creation; currentBalance starts equal to it.
type CreateBankAccountInput struct {
	OwnerID        string
	AccountName    string
	BankName       string
	SortCode       string
	AccountNumber  string
	Currency       string
	OpeningBalance int64
	IsDefault      bool
}

func (s *BankService) CreateBankAccount(ctx context.Context, in CreateBankAccountInput) (*repository.BankAccount, error) {
	const op = "CreateBankAccount"

	fields := FieldErrors{}
	if in.OwnerID == "" {
		fields.add("ownerId", "required")
	}
	if in.AccountName == "" {
		fields.add("accountName", "required")
	}
	if err := fields.err(op); err != nil {
		return nil, err
	}
	if in.Currency == "" {
		in.Currency = "GBP"
	}

	a := repository.BankAccount{
		ID:             uuid.NewString(),
		OwnerID:        in.OwnerID,
		AccountName:    in.AccountName,
		BankName:       in.BankName,
		SortCode:       in.SortCode,
		AccountNumber:  in.AccountNumber,
		Currency:       in.Currency,
		OpeningBalance: in.OpeningBalance,
		CurrentBalance: in.OpeningBalance,
		IsDefault:      in.IsDefault,
		IsActive:       true,
	}
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		repo := repository.NewBankAccountRepo(tx)
		if err := repo.Insert(ctx, a); err != nil {
			return err
		}
		if a.IsDefault {
			return repo.SetDefault(ctx, a.OwnerID, a.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("id", a.ID).Str("owner", a.OwnerID).Int64("opening", a.OpeningBalance).Msg("bank account created")
	return s.FindBankAccount(ctx, a.ID)
}

func (s *BankService) FindBankAccount(ctx context.Context, id string) (*repository.BankAccount, error) {
	a, err := repository.NewBankAccountRepo(s.db).Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, errNotFound("FindBankAccount", "bankAccountId", "bank account not found")
	}
	return a, nil
}

func (s *BankService) ListBankAccounts(ctx context.Context, ownerID string) ([]repository.BankAccount, error) {
	return repository.NewBankAccountRepo(s.db).List(ctx, ownerID)
}

func (s *BankService) DeactivateBankAccount(ctx context.Context, id string) error {
	a, err := s.FindBankAccount(ctx, id)
	if err != nil {
		return err
	}
	return repository.NewBankAccountRepo(s.db).SetActive(ctx, a.ID, false)
}

// OwnerOfBankAccount exposes the bankAccountId → ownerId lookup for the
// external authorization layer.
func (s *BankService) OwnerOfBankAccount(ctx context.Context, id string) (string, error) {
	owner, err := repository.NewBankAccountRepo(s.db).OwnerID(ctx, id)
	if err != nil {
		return "", err
	}
	if owner == "" {
		return "", errNotFound("OwnerOfBankAccount", "bankAccountId", "bank account not found")
	}
	return owner, nil
}

// CreateBankTransactionInput carries a new bank transaction. OwnerID is the
// calling tenant; it must match the owning account. RunningBalance is an
// optional caller-supplied snapshot and is never treated as authoritative.
type CreateBankTransactionInput struct {
	BankAccountID   string
	OwnerID         string
	TransactionDate time.Time
	PostingDate     *time.Time
	Description     string
	Reference       *string
	ImportSource    *string
	FitID           *string
	TransactionType string
	Amount          int64
	RunningBalance  *int64
}

// BankTransactionPatch carries a partial update; nil fields are unchanged.
type BankTransactionPatch struct {
	TransactionDate *time.Time
	PostingDate     *time.Time
	Description     *string
	Reference       *string
	TransactionType *string
	Amount          *int64
	RunningBalance  *int64
}

func (s *BankService) CreateBankTransaction(ctx context.Context, in CreateBankTransactionInput) (*repository.BankTransaction, error) {
	const op = "CreateBankTransaction"

	fields := FieldErrors{}
	if in.BankAccountID == "" {
		fields.add("bankAccountId", "required")
	}
	if in.TransactionType != repository.TransactionTypeCredit && in.TransactionType != repository.TransactionTypeDebit {
		fields.add("transactionType", "must be credit or debit")
	}
	if in.Amount < 0 {
		fields.add("amount", "must not be negative")
	}
	if in.TransactionDate.IsZero() {
		fields.add("transactionDate", "required")
	}
	if err := fields.err(op); err != nil {
		return nil, err
	}

	t := repository.BankTransaction{
		ID:                   uuid.NewString(),
		BankAccountID:        in.BankAccountID,
		TransactionDate:      in.TransactionDate,
		PostingDate:          in.PostingDate,
		Description:          in.Description,
		Reference:            in.Reference,
		ImportSource:         in.ImportSource,
		FitID:                in.FitID,
		TransactionType:      in.TransactionType,
		Amount:               in.Amount,
		RunningBalance:       in.RunningBalance,
		ReconciliationStatus: repository.ReconStatusUnmatched,
	}

	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		accounts := repository.NewBankAccountRepo(tx)
		acct, err := accounts.Get(ctx, in.BankAccountID)
		if err != nil {
			return err
		}
		if acct == nil {
			return errNotFound(op, "bankAccountId", "bank account not found")
		}
		if in.OwnerID != "" && in.OwnerID != acct.OwnerID {
			return errOwnerOnly(op, "bankAccountId")
		}
		if err := repository.NewBankTransactionRepo(tx).Insert(ctx, t); err != nil {
			return err
		}
		return accounts.ApplyBalanceDelta(ctx, acct.ID, t.SignedAmount())
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug().Str("id", t.ID).Str("account", t.BankAccountID).
		Str("type", t.TransactionType).Int64("amount", t.Amount).Msg("bank transaction created")
	return s.FindBankTransaction(ctx, t.ID)
}

// UpdateBankTransaction applies patch and shifts the account balance by the
// signed-amount delta in the same unit of work. Matched rows are immutable.
func (s *BankService) UpdateBankTransaction(ctx context.Context, id string, patch BankTransactionPatch) (*repository.BankTransaction, error) {
	const op = "UpdateBankTransaction"

	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		repo := repository.NewBankTransactionRepo(tx)
		t, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if t == nil {
			return errNotFound(op, "bankTransactionId", "bank transaction not found")
		}
		if t.ReconciliationStatus == repository.ReconStatusMatched {
			return errReconciled(op, "bankTransactionId")
		}

		oldSigned := t.SignedAmount()

		fields := FieldErrors{}
		if patch.TransactionType != nil {
			if *patch.TransactionType != repository.TransactionTypeCredit && *patch.TransactionType != repository.TransactionTypeDebit {
				fields.add("transactionType", "must be credit or debit")
			} else {
				t.TransactionType = *patch.TransactionType
			}
		}
		if patch.Amount != nil {
			if *patch.Amount < 0 {
				fields.add("amount", "must not be negative")
			} else {
				t.Amount = *patch.Amount
			}
		}
		if patch.TransactionDate != nil {
			t.TransactionDate = *patch.TransactionDate
		}
		if patch.PostingDate != nil {
			t.PostingDate = patch.PostingDate
		}
		if patch.Description != nil {
			t.Description = *patch.Description
		}
		if patch.Reference != nil {
			t.Reference = patch.Reference
		}
		if patch.RunningBalance != nil {
			t.RunningBalance = patch.RunningBalance
		}
		if err := fields.err(op); err != nil {
			return err
		}

		if err := repo.Update(ctx, *t); err != nil {
			return err
		}
		if delta := t.SignedAmount() - oldSigned; delta != 0 {
			return repository.NewBankAccountRepo(tx).ApplyBalanceDelta(ctx, t.BankAccountID, delta)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug().Str("id", id).Msg("bank transaction updated")
	return s.FindBankTransaction(ctx, id)
}

// DeleteBankTransaction reverses the row's original balance contribution and
// removes it. Matched rows, and rows any confirmed reconciliation still
// references, cannot be deleted.
func (s *BankService) DeleteBankTransaction(ctx context.Context, id string) error {
	const op = "DeleteBankTransaction"

	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		repo := repository.NewBankTransactionRepo(tx)
		t, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if t == nil {
			return errNotFound(op, "bankTransactionId", "bank transaction not found")
		}
		if t.ReconciliationStatus == repository.ReconStatusMatched {
			return errReconciled(op, "bankTransactionId")
		}
		n, err := repository.NewReconciliationRepo(tx).CountConfirmedByBankTransaction(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return errReconciled(op, "bankTransactionId")
		}
		// Pending suggestions die with the row.
		if _, err := repository.NewReconciliationRepo(tx).DeletePendingByBankTransaction(ctx, id); err != nil {
			return err
		}
		if err := repository.NewExclusionRepo(tx).Delete(ctx, id); err != nil {
			return err
		}
		if err := repo.Delete(ctx, id); err != nil {
			return err
		}
		return repository.NewBankAccountRepo(tx).ApplyBalanceDelta(ctx, t.BankAccountID, -t.SignedAmount())
	})
	if err != nil {
		return err
	}
	s.log.Debug().Str("id", id).Msg("bank transaction deleted")
	return nil
}

func (s *BankService) FindBankTransaction(ctx context.Context, id string) (*repository.BankTransaction, error) {
	t, err := repository.NewBankTransactionRepo(s.db).Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, errNotFound("FindBankTransaction", "bankTransactionId", "bank transaction not found")
	}
	return t, nil
}

func (s *BankService) ListBankTransactions(ctx context.Context, bankAccountID string) ([]repository.BankTransaction, error) {
	return repository.NewBankTransactionRepo(s.db).ListByAccount(ctx, bankAccountID)
}
