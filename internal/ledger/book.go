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

// BookService owns income/expense ledger entries, their lifecycle status and
// amount fields. Balance effects live entirely in the bank ledger.
type BookService struct {
	db  *sql.DB
	log zerolog.Logger
}

func NewBookService(db *sql.DB) *BookService {
	return &BookService{db: db, log: logger.WithComponent("book")}
}

// CreateTransactionInput carries a new book entry. VATRate is basis points
// (0-10000); VAT and total amounts are derived, never caller-supplied.
type CreateTransactionInput struct {
	OwnerID         string
	Type            string
	Status          string // pending or cleared; defaults to pending
	TransactionDate time.Time
	Description     string
	Amount          int64
	VATRate         int
	CategoryID      *string
	Payee           *string
	Reference       *string
}

// TransactionPatch carries a partial update; nil fields are left unchanged.
type TransactionPatch struct {
	Type            *string
	Status          *string
	TransactionDate *time.Time
	Description     *string
	Amount          *int64
	VATRate         *int
	CategoryID      *string
	Payee           *string
	Reference       *string
}

// vatFor computes round(amount * rateBps / 10000), half away from zero.
func vatFor(amount int64, rateBps int) int64 {
	p := amount * int64(rateBps)
	if p >= 0 {
		return (p + 5000) / 10000
	}
	return (p - 5000) / 10000
}

func (s *BookService) CreateTransaction(ctx context.Context, in CreateTransactionInput) (*repository.Transaction, error) {
	const op = "CreateTransaction"

	if in.Status == "" {
		in.Status = repository.BookStatusPending
	}
	fields := FieldErrors{}
	if in.OwnerID == "" {
		fields.add("ownerId", "required")
	}
	if in.Type != repository.BookTypeIncome && in.Type != repository.BookTypeExpense {
		fields.add("type", "must be income or expense")
	}
	if in.Status != repository.BookStatusPending && in.Status != repository.BookStatusCleared {
		fields.add("status", "must be pending or cleared")
	}
	if in.TransactionDate.IsZero() {
		fields.add("transactionDate", "required")
	}
	if in.Amount < 0 {
		fields.add("amount", "must not be negative")
	}
	if in.VATRate < 0 || in.VATRate > 10000 {
		fields.add("vatRate", "must be between 0 and 10000 basis points")
	}
	if err := fields.err(op); err != nil {
		return nil, err
	}

	vat := vatFor(in.Amount, in.VATRate)
	t := repository.Transaction{
		ID:              uuid.NewString(),
		OwnerID:         in.OwnerID,
		Type:            in.Type,
		Status:          in.Status,
		TransactionDate: in.TransactionDate,
		Description:     in.Description,
		Amount:          in.Amount,
		VATRate:         in.VATRate,
		VATAmount:       vat,
		TotalAmount:     in.Amount + vat,
		CategoryID:      in.CategoryID,
		Payee:           in.Payee,
		Reference:       in.Reference,
	}

	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		return repository.NewTransactionRepo(tx).Insert(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug().Str("id", t.ID).Str("type", t.Type).Int64("total", t.TotalAmount).Msg("book transaction created")
	return s.FindByID(ctx, t.ID)
}

// UpdateTransaction applies patch to an existing entry, recomputing VAT and
// total whenever amount or VAT rate changes. Reconciled entries are immutable.
func (s *BookService) UpdateTransaction(ctx context.Context, id string, patch TransactionPatch) (*repository.Transaction, error) {
	const op = "UpdateTransaction"

	var updated *repository.Transaction
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		repo := repository.NewTransactionRepo(tx)
		t, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if t == nil {
			return errNotFound(op, "transactionId", "book transaction not found")
		}
		if t.Status == repository.BookStatusReconciled {
			return errReconciled(op, "transactionId")
		}

		fields := FieldErrors{}
		if patch.Type != nil {
			if *patch.Type != repository.BookTypeIncome && *patch.Type != repository.BookTypeExpense {
				fields.add("type", "must be income or expense")
			} else {
				t.Type = *patch.Type
			}
		}
		if patch.Status != nil {
			switch *patch.Status {
			case repository.BookStatusReconciled:
				// Only the reconciliation engine moves an entry here.
				fields.add("status", "reconciled is set by the reconciliation engine only")
			case repository.BookStatusPending, repository.BookStatusCleared, repository.BookStatusVoid:
				t.Status = *patch.Status
			default:
				fields.add("status", "invalid status")
			}
		}
		if patch.TransactionDate != nil {
			t.TransactionDate = *patch.TransactionDate
		}
		if patch.Description != nil {
			t.Description = *patch.Description
		}
		if patch.Amount != nil {
			if *patch.Amount < 0 {
				fields.add("amount", "must not be negative")
			} else {
				t.Amount = *patch.Amount
			}
		}
		if patch.VATRate != nil {
			if *patch.VATRate < 0 || *patch.VATRate > 10000 {
				fields.add("vatRate", "must be between 0 and 10000 basis points")
			} else {
				t.VATRate = *patch.VATRate
			}
		}
		if patch.CategoryID != nil {
			t.CategoryID = patch.CategoryID
		}
		if patch.Payee != nil {
			t.Payee = patch.Payee
		}
		if patch.Reference != nil {
			t.Reference = patch.Reference
		}
		if err := fields.err(op); err != nil {
			return err
		}

		if patch.Amount != nil || patch.VATRate != nil {
			t.VATAmount = vatFor(t.Amount, t.VATRate)
			t.TotalAmount = t.Amount + t.VATAmount
		}

		if err := repo.Update(ctx, *t); err != nil {
			return err
		}
		updated = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug().Str("id", id).Msg("book transaction updated")
	return s.FindByID(ctx, updated.ID)
}

// DeleteTransaction removes an entry. Entries that are reconciled, or that a
// confirmed reconciliation still references, cannot be deleted.
func (s *BookService) DeleteTransaction(ctx context.Context, id string) error {
	const op = "DeleteTransaction"

	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		repo := repository.NewTransactionRepo(tx)
		t, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if t == nil {
			return errNotFound(op, "transactionId", "book transaction not found")
		}
		if t.Status == repository.BookStatusReconciled {
			return errReconciled(op, "transactionId")
		}
		n, err := repository.NewReconciliationRepo(tx).CountConfirmedByTransaction(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return errReconciled(op, "transactionId")
		}
		return repo.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.log.Debug().Str("id", id).Msg("book transaction deleted")
	return nil
}

func (s *BookService) FindByID(ctx context.Context, id string) (*repository.Transaction, error) {
	t, err := repository.NewTransactionRepo(s.db).Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, errNotFound("FindByID", "transactionId", "book transaction not found")
	}
	return t, nil
}

func (s *BookService) ListTransactions(ctx context.Context, f repository.TransactionFilters) ([]repository.Transaction, error) {
	return repository.NewTransactionRepo(s.db).List(ctx, f)
}

// OwnerOfTransaction exposes the transactionId → ownerId lookup for the
// external authorization layer.
func (s *BookService) OwnerOfTransaction(ctx context.Context, id string) (string, error) {
	owner, err := repository.NewTransactionRepo(s.db).OwnerID(ctx, id)
	if err != nil {
		return "", err
	}
	if owner == "" {
		return "", errNotFound("OwnerOfTransaction", "transactionId", "book transaction not found")
	}
	return owner, nil
}
