package ledger

import (
	"context"
	"database/sql"
	"time"

	"github.com/quillbooks/quillbooks/internal/database"
	"github.com/quillbooks/quillbooks/internal/database/repository"
)

// ExcludeBankTransaction removes a bank transaction from the matching pool.
// ttl 0 means the exclusion never expires on its own. Matched rows cannot be
// excluded; un-reconcile first.
func (s *ReconcileService) ExcludeBankTransaction(ctx context.Context, bankTransactionID, reason string, ttl time.Duration) error {
	const op = "ExcludeBankTransaction"

	now := database.Now()
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		repo := repository.NewBankTransactionRepo(tx)
		t, err := repo.Get(ctx, bankTransactionID)
		if err != nil {
			return err
		}
		if t == nil {
			return errNotFound(op, "bankTransactionId", "bank transaction not found")
		}
		if t.ReconciliationStatus == repository.ReconStatusMatched {
			return errReconciled(op, "bankTransactionId")
		}

		ex := repository.MatchExclusion{BankTransactionID: bankTransactionID, Reason: reason}
		if ttl > 0 {
			expires := now.Add(ttl)
			ex.ExpiresAt = &expires
		}
		if err := repository.NewExclusionRepo(tx).Set(ctx, ex); err != nil {
			return err
		}
		// Stale suggestions make no sense for an excluded row.
		if _, err := repository.NewReconciliationRepo(tx).DeletePendingByBankTransaction(ctx, bankTransactionID); err != nil {
			return err
		}
		if err := repo.SetReconciliation(ctx, bankTransactionID, repository.ReconStatusExcluded, false); err != nil {
			return err
		}
		// Surface the reason on the row itself, where list views show it.
		return repo.SetReconciliationNotes(ctx, bankTransactionID, &reason)
	})
	if err != nil {
		return err
	}
	s.log.Info().Str("bank_txn", bankTransactionID).Str("reason", reason).Msg("bank transaction excluded from matching")
	return nil
}

// IncludeBankTransaction lifts an exclusion, returning the row to unmatched.
func (s *ReconcileService) IncludeBankTransaction(ctx context.Context, bankTransactionID string) error {
	const op = "IncludeBankTransaction"

	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		repo := repository.NewBankTransactionRepo(tx)
		t, err := repo.Get(ctx, bankTransactionID)
		if err != nil {
			return err
		}
		if t == nil {
			return errNotFound(op, "bankTransactionId", "bank transaction not found")
		}
		if err := repository.NewExclusionRepo(tx).Delete(ctx, bankTransactionID); err != nil {
			return err
		}
		if t.ReconciliationStatus == repository.ReconStatusExcluded {
			if err := repo.SetReconciliation(ctx, bankTransactionID, repository.ReconStatusUnmatched, false); err != nil {
				return err
			}
			return repo.SetReconciliationNotes(ctx, bankTransactionID, nil)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Info().Str("bank_txn", bankTransactionID).Msg("bank transaction returned to matching pool")
	return nil
}

// SweepExclusions expires stale exclusions via the injected store and returns
// the swept rows to the matching pool. Idempotent and safe to retry; intended
// to run from a periodic maintenance task or operator command.
func (s *ReconcileService) SweepExclusions(ctx context.Context, now time.Time) (int, error) {
	swept, err := s.Exclusions.Sweep(ctx, now)
	if err != nil {
		return 0, err
	}
	if len(swept) == 0 {
		return 0, nil
	}
	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		repo := repository.NewBankTransactionRepo(tx)
		for _, id := range swept {
			t, err := repo.Get(ctx, id)
			if err != nil {
				return err
			}
			if t != nil && t.ReconciliationStatus == repository.ReconStatusExcluded {
				if err := repo.SetReconciliation(ctx, id, repository.ReconStatusUnmatched, false); err != nil {
					return err
				}
				if err := repo.SetReconciliationNotes(ctx, id, nil); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.log.Info().Int("count", len(swept)).Msg("expired match exclusions swept")
	return len(swept), nil
}
