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

// ExclusionStore is the injected blacklist of bank transactions that must not
// receive matches. The default implementation is backed by the same sqlite
// store as the ledger, so the exclusion list and persisted state cannot
// diverge. Exclude/Include write the list inside the ledger's own unit of
// work; the injected store serves the maintenance paths. Sweep expires stale
// entries; Clear exists for tests and resets.
type ExclusionStore interface {
	Get(ctx context.Context, bankTransactionID string) (*repository.MatchExclusion, error)
	Set(ctx context.Context, ex repository.MatchExclusion) error
	Delete(ctx context.Context, bankTransactionID string) error
	Sweep(ctx context.Context, now time.Time) ([]string, error)
	Clear(ctx context.Context) error
}

// ReconcileService matches bank transactions against book transactions,
// tracks match state, and cascades confirmed outcomes into both ledgers. It
// never writes account balances; only statuses.
type ReconcileService struct {
	db         *sql.DB
	Exclusions ExclusionStore
	log        zerolog.Logger
}

func NewReconcileService(db *sql.DB) *ReconcileService {
	return &ReconcileService{
		db:         db,
		Exclusions: repository.NewExclusionRepo(db),
		log:        logger.WithComponent("reconcile"),
	}
}

// SuggestMatchInput carries a pending suggestion, typically from an external
// auto-matcher. Confidence is an opaque 0-100 score; the engine stores it but
// never computes or interprets it.
type SuggestMatchInput struct {
	BankTransactionID string
	TransactionID     string
	MatchAmount       int64
	Confidence        int
	MatchType         string // defaults to exact on full coverage, partial otherwise
	Notes             *string
}

// ReconcileInput is the manual fast path: the row is created directly in
// confirmed state with confidence forced to 100.
type ReconcileInput struct {
	BankTransactionID string
	TransactionID     string
	MatchAmount       int64
	ReconciledBy      string
	MatchType         string
	Notes             *string
}

// SuggestMatch records a pending suggestion. No cascade; pending rows are
// mutually exclusive alternatives, not committed facts.
func (s *ReconcileService) SuggestMatch(ctx context.Context, in SuggestMatchInput) (*repository.Reconciliation, error) {
	const op = "SuggestMatch"

	if in.Confidence < 0 || in.Confidence > 100 {
		return nil, errValidation(op, "matchConfidence", "must be between 0 and 100")
	}

	var rec repository.Reconciliation
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		_, matchType, err := s.validateMatch(ctx, tx, op, in.BankTransactionID, in.TransactionID, in.MatchAmount, in.MatchType)
		if err != nil {
			return err
		}
		rec = repository.Reconciliation{
			ID:                uuid.NewString(),
			BankTransactionID: in.BankTransactionID,
			TransactionID:     in.TransactionID,
			MatchAmount:       in.MatchAmount,
			MatchType:         matchType,
			MatchConfidence:   in.Confidence,
			Status:            repository.ReconciliationPending,
			Notes:             in.Notes,
		}
		return repository.NewReconciliationRepo(tx).Insert(ctx, rec)
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug().Str("id", rec.ID).Str("bank_txn", in.BankTransactionID).
		Int("confidence", in.Confidence).Msg("match suggested")
	return s.FindReconciliation(ctx, rec.ID)
}

// Reconcile creates a confirmed match directly and applies the confirm
// cascade in the same unit of work.
func (s *ReconcileService) Reconcile(ctx context.Context, in ReconcileInput) (*repository.Reconciliation, error) {
	const op = "Reconcile"

	if in.ReconciledBy == "" {
		return nil, errValidation(op, "reconciledBy", "required")
	}

	now := database.Now()
	var rec repository.Reconciliation
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		bankTxn, matchType, err := s.validateMatch(ctx, tx, op, in.BankTransactionID, in.TransactionID, in.MatchAmount, in.MatchType)
		if err != nil {
			return err
		}
		recons := repository.NewReconciliationRepo(tx)
		dup, err := recons.HasConfirmedPair(ctx, in.BankTransactionID, in.TransactionID)
		if err != nil {
			return err
		}
		if dup {
			return &Error{Kind: KindAlreadyConfirmed, Op: op, Field: "transactionId",
				Msg: "pair already has a confirmed reconciliation"}
		}

		by := in.ReconciledBy
		rec = repository.Reconciliation{
			ID:                uuid.NewString(),
			BankTransactionID: in.BankTransactionID,
			TransactionID:     in.TransactionID,
			MatchAmount:       in.MatchAmount,
			MatchType:         matchType,
			MatchConfidence:   100, // manual match
			Status:            repository.ReconciliationConfirmed,
			ReconciledBy:      &by,
			ReconciledAt:      &now,
			Notes:             in.Notes,
		}
		if err := recons.Insert(ctx, rec); err != nil {
			return err
		}
		return s.applyConfirmCascade(ctx, tx, *bankTxn)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("id", rec.ID).Str("bank_txn", in.BankTransactionID).
		Str("txn", in.TransactionID).Int64("amount", in.MatchAmount).
		Str("by", in.ReconciledBy).Msg("manual reconciliation confirmed")
	return s.FindReconciliation(ctx, rec.ID)
}

// ConfirmReconciliation moves a pending suggestion to confirmed and applies
// the cascade. Valid only from pending.
func (s *ReconcileService) ConfirmReconciliation(ctx context.Context, id, reconciledBy string, notes *string) (*repository.Reconciliation, error) {
	const op = "ConfirmReconciliation"

	if reconciledBy == "" {
		return nil, errValidation(op, "reconciledBy", "required")
	}

	now := database.Now()
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		recons := repository.NewReconciliationRepo(tx)
		rec, err := recons.Get(ctx, id)
		if err != nil {
			return err
		}
		if rec == nil {
			return errNotFound(op, "reconciliationId", "reconciliation not found")
		}
		switch rec.Status {
		case repository.ReconciliationConfirmed:
			return &Error{Kind: KindAlreadyConfirmed, Op: op, Field: "reconciliationId", Msg: "reconciliation already confirmed"}
		case repository.ReconciliationRejected:
			return &Error{Kind: KindAlreadyRejected, Op: op, Field: "reconciliationId", Msg: "reconciliation already rejected"}
		}

		// Competing suggestions may have been confirmed since this one was
		// created; re-check legality against the current remaining amounts.
		bankTxn, _, err := s.validateMatch(ctx, tx, op, rec.BankTransactionID, rec.TransactionID, rec.MatchAmount, rec.MatchType)
		if err != nil {
			return err
		}
		dup, err := recons.HasConfirmedPair(ctx, rec.BankTransactionID, rec.TransactionID)
		if err != nil {
			return err
		}
		if dup {
			return &Error{Kind: KindAlreadyConfirmed, Op: op, Field: "transactionId",
				Msg: "pair already has a confirmed reconciliation"}
		}
		if err := recons.SetOutcome(ctx, id, repository.ReconciliationConfirmed, reconciledBy, now, notes); err != nil {
			return err
		}
		return s.applyConfirmCascade(ctx, tx, *bankTxn)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("id", id).Str("by", reconciledBy).Msg("reconciliation confirmed")
	return s.FindReconciliation(ctx, id)
}

// RejectReconciliation moves a pending suggestion to rejected. No cascade.
func (s *ReconcileService) RejectReconciliation(ctx context.Context, id, reconciledBy string, notes *string) (*repository.Reconciliation, error) {
	const op = "RejectReconciliation"

	now := database.Now()
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		recons := repository.NewReconciliationRepo(tx)
		rec, err := recons.Get(ctx, id)
		if err != nil {
			return err
		}
		if rec == nil {
			return errNotFound(op, "reconciliationId", "reconciliation not found")
		}
		switch rec.Status {
		case repository.ReconciliationConfirmed:
			return &Error{Kind: KindAlreadyConfirmed, Op: op, Field: "reconciliationId", Msg: "reconciliation already confirmed"}
		case repository.ReconciliationRejected:
			return &Error{Kind: KindAlreadyRejected, Op: op, Field: "reconciliationId", Msg: "reconciliation already rejected"}
		}
		return recons.SetOutcome(ctx, id, repository.ReconciliationRejected, reconciledBy, now, notes)
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug().Str("id", id).Str("by", reconciledBy).Msg("reconciliation rejected")
	return s.FindReconciliation(ctx, id)
}

// Unreconcile is the explicit reversal path for a confirmed reconciliation.
// It deletes the row, recomputes coverage for the bank transaction, and
// reverts statuses on both sides where coverage is no longer full.
func (s *ReconcileService) Unreconcile(ctx context.Context, id string) error {
	const op = "Unreconcile"

	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		recons := repository.NewReconciliationRepo(tx)
		rec, err := recons.Get(ctx, id)
		if err != nil {
			return err
		}
		if rec == nil {
			return errNotFound(op, "reconciliationId", "reconciliation not found")
		}
		if rec.Status != repository.ReconciliationConfirmed {
			return errValidation(op, "reconciliationId", "only confirmed reconciliations can be un-reconciled")
		}
		if err := recons.Delete(ctx, id); err != nil {
			return err
		}

		bankTxns := repository.NewBankTransactionRepo(tx)
		bankTxn, err := bankTxns.Get(ctx, rec.BankTransactionID)
		if err != nil {
			return err
		}
		if bankTxn == nil {
			return errNotFound(op, "bankTransactionId", "bank transaction not found")
		}

		total, err := recons.SumConfirmedByBankTransaction(ctx, bankTxn.ID)
		if err != nil {
			return err
		}
		txns := repository.NewTransactionRepo(tx)
		if total < bankTxn.Amount && bankTxn.ReconciliationStatus == repository.ReconStatusMatched {
			if err := bankTxns.SetReconciliation(ctx, bankTxn.ID, repository.ReconStatusUnmatched, false); err != nil {
				return err
			}
			// Both sides' statuses follow bank coverage, so the still-linked
			// book entries revert with it, except entries that a different,
			// still fully covered bank transaction holds reconciled.
			linked, err := recons.ListConfirmedByBankTransaction(ctx, bankTxn.ID)
			if err != nil {
				return err
			}
			for _, l := range linked {
				held, err := s.heldByFullCoverage(ctx, tx, l.TransactionID)
				if err != nil {
					return err
				}
				if held {
					continue
				}
				if err := txns.SetStatus(ctx, l.TransactionID, repository.BookStatusCleared); err != nil {
					return err
				}
			}
		}

		// The detached book entry reverts unless another confirmed match to a
		// fully covered bank transaction still holds it.
		t, err := txns.Get(ctx, rec.TransactionID)
		if err != nil {
			return err
		}
		if t != nil && t.Status == repository.BookStatusReconciled {
			held, err := s.heldByFullCoverage(ctx, tx, t.ID)
			if err != nil {
				return err
			}
			if !held {
				if err := txns.SetStatus(ctx, t.ID, repository.BookStatusCleared); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Info().Str("id", id).Msg("reconciliation reversed")
	return nil
}

// PendingReconciliations returns the review queue, best candidates first.
// minConfidence 0 disables the threshold.
func (s *ReconcileService) PendingReconciliations(ctx context.Context, minConfidence int) ([]repository.Reconciliation, error) {
	if minConfidence < 0 || minConfidence > 100 {
		return nil, errValidation("PendingReconciliations", "minConfidence", "must be between 0 and 100")
	}
	return repository.NewReconciliationRepo(s.db).ListPending(ctx, minConfidence)
}

// RemainingAmount returns bankTransactionAmount minus the confirmed match
// total, clamped at zero. Callers use it to prevent over-matching before
// calling SuggestMatch or Reconcile.
func (s *ReconcileService) RemainingAmount(ctx context.Context, bankTransactionID string, bankTransactionAmount int64) (int64, error) {
	total, err := repository.NewReconciliationRepo(s.db).SumConfirmedByBankTransaction(ctx, bankTransactionID)
	if err != nil {
		return 0, err
	}
	remaining := bankTransactionAmount - total
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// DeletePendingByBankTransactionID clears stale suggestions for a bank
// transaction, typically before re-running an auto-matcher. Returns the count
// of deleted rows; confirmed rows are untouched.
func (s *ReconcileService) DeletePendingByBankTransactionID(ctx context.Context, bankTransactionID string) (int64, error) {
	var n int64
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		n, err = repository.NewReconciliationRepo(tx).DeletePendingByBankTransaction(ctx, bankTransactionID)
		return err
	})
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Debug().Str("bank_txn", bankTransactionID).Int64("deleted", n).Msg("pending suggestions cleared")
	}
	return n, nil
}

// MatchHistory returns every reconciliation ever recorded against a bank
// transaction, pending and terminal alike, oldest first.
func (s *ReconcileService) MatchHistory(ctx context.Context, bankTransactionID string) ([]repository.Reconciliation, error) {
	t, err := repository.NewBankTransactionRepo(s.db).Get(ctx, bankTransactionID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, errNotFound("MatchHistory", "bankTransactionId", "bank transaction not found")
	}
	return repository.NewReconciliationRepo(s.db).ListByBankTransaction(ctx, bankTransactionID)
}

func (s *ReconcileService) FindReconciliation(ctx context.Context, id string) (*repository.Reconciliation, error) {
	rec, err := repository.NewReconciliationRepo(s.db).Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, errNotFound("FindReconciliation", "reconciliationId", "reconciliation not found")
	}
	return rec, nil
}

// heldByFullCoverage reports whether any confirmed match still ties the book
// transaction to a fully covered bank transaction. A book entry's reconciled
// status follows bank coverage, so it reverts only when no such tie remains.
func (s *ReconcileService) heldByFullCoverage(ctx context.Context, tx *sql.Tx, transactionID string) (bool, error) {
	recons := repository.NewReconciliationRepo(tx)
	linked, err := recons.ListConfirmedByTransaction(ctx, transactionID)
	if err != nil {
		return false, err
	}
	bankTxns := repository.NewBankTransactionRepo(tx)
	for _, l := range linked {
		bankTxn, err := bankTxns.Get(ctx, l.BankTransactionID)
		if err != nil {
			return false, err
		}
		if bankTxn == nil {
			continue
		}
		total, err := recons.SumConfirmedByBankTransaction(ctx, bankTxn.ID)
		if err != nil {
			return false, err
		}
		if total >= bankTxn.Amount {
			return true, nil
		}
	}
	return false, nil
}

// validateMatch checks match legality before any write: both sides must
// exist, belong to the same owner, not be excluded, and the amount must fit
// within both sides' remaining unmatched totals. Returns the bank transaction
// and the effective match type.
func (s *ReconcileService) validateMatch(ctx context.Context, tx *sql.Tx, op, bankTransactionID, transactionID string, matchAmount int64, matchType string) (*repository.BankTransaction, string, error) {
	bankTxn, err := repository.NewBankTransactionRepo(tx).Get(ctx, bankTransactionID)
	if err != nil {
		return nil, "", err
	}
	if bankTxn == nil {
		return nil, "", errNotFound(op, "bankTransactionId", "bank transaction not found")
	}
	txn, err := repository.NewTransactionRepo(tx).Get(ctx, transactionID)
	if err != nil {
		return nil, "", err
	}
	if txn == nil {
		return nil, "", errNotFound(op, "transactionId", "book transaction not found")
	}

	acctOwner, err := repository.NewBankAccountRepo(tx).OwnerID(ctx, bankTxn.BankAccountID)
	if err != nil {
		return nil, "", err
	}
	if acctOwner != txn.OwnerID {
		return nil, "", errOwnerOnly(op, "transactionId")
	}

	if bankTxn.ReconciliationStatus == repository.ReconStatusExcluded {
		return nil, "", errValidation(op, "bankTransactionId", "bank transaction is excluded from matching")
	}
	if txn.Status == repository.BookStatusVoid {
		return nil, "", errValidation(op, "transactionId", "void transactions cannot be matched")
	}

	switch matchType {
	case "":
		// derived below
	case repository.MatchTypeExact, repository.MatchTypePartial, repository.MatchTypeSplit, repository.MatchTypeAdjustment:
	default:
		return nil, "", errValidation(op, "matchType", "invalid match type")
	}

	if matchAmount <= 0 {
		return nil, "", errValidation(op, "matchAmount", "must be positive")
	}
	recons := repository.NewReconciliationRepo(tx)
	bankMatched, err := recons.SumConfirmedByBankTransaction(ctx, bankTransactionID)
	if err != nil {
		return nil, "", err
	}
	if matchAmount > bankTxn.Amount-bankMatched {
		return nil, "", errValidation(op, "matchAmount", "exceeds remaining unmatched bank amount")
	}
	bookMatched, err := recons.SumConfirmedByTransaction(ctx, transactionID)
	if err != nil {
		return nil, "", err
	}
	if matchAmount > txn.TotalAmount-bookMatched {
		return nil, "", errValidation(op, "matchAmount", "exceeds remaining unmatched book amount")
	}

	if matchType == "" {
		if matchAmount == bankTxn.Amount {
			matchType = repository.MatchTypeExact
		} else {
			matchType = repository.MatchTypePartial
		}
	}
	return bankTxn, matchType, nil
}

// applyConfirmCascade recomputes confirmed coverage for the bank transaction
// and, once fully covered, marks it matched and flips every linked book
// transaction to reconciled. Partial coverage flips nothing; both sides'
// statuses follow the bank transaction's full-coverage check.
func (s *ReconcileService) applyConfirmCascade(ctx context.Context, tx *sql.Tx, bankTxn repository.BankTransaction) error {
	recons := repository.NewReconciliationRepo(tx)
	total, err := recons.SumConfirmedByBankTransaction(ctx, bankTxn.ID)
	if err != nil {
		return err
	}
	if total < bankTxn.Amount {
		return nil
	}
	if err := repository.NewBankTransactionRepo(tx).SetReconciliation(ctx, bankTxn.ID, repository.ReconStatusMatched, true); err != nil {
		return err
	}
	linked, err := recons.ListConfirmedByBankTransaction(ctx, bankTxn.ID)
	if err != nil {
		return err
	}
	txns := repository.NewTransactionRepo(tx)
	for _, l := range linked {
		if err := txns.SetStatus(ctx, l.TransactionID, repository.BookStatusReconciled); err != nil {
			return err
		}
	}
	s.log.Info().Str("bank_txn", bankTxn.ID).Int64("matched", total).Msg("bank transaction fully matched")
	return nil
}
