package repository

import (
	"context"
	"database/sql"
	"time"
)

// ReconciliationRepo handles match records between bank and book transactions.
type ReconciliationRepo struct {
	db DBTX
}

func NewReconciliationRepo(db DBTX) *ReconciliationRepo { return &ReconciliationRepo{db: db} }

func (r *ReconciliationRepo) Insert(ctx context.Context, rec Reconciliation) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO reconciliations(
	 id, bank_transaction_id, transaction_id, match_amount, match_type,
	 match_confidence, status, reconciled_by, reconciled_at, notes, created_at, updated_at)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP);
	`,
		rec.ID, rec.BankTransactionID, rec.TransactionID, rec.MatchAmount,
		rec.MatchType, rec.MatchConfidence, rec.Status, rec.ReconciledBy,
		rec.ReconciledAt, rec.Notes)
	return err
}

func (r *ReconciliationRepo) Get(ctx context.Context, id string) (*Reconciliation, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+reconciliationCols+` FROM reconciliations WHERE id = ?`, id)
	rec, err := scanReconciliation(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// ListPending returns pending suggestions ordered best-first. minConfidence 0
// returns everything.
func (r *ReconciliationRepo) ListPending(ctx context.Context, minConfidence int) ([]Reconciliation, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT `+reconciliationCols+` FROM reconciliations
	WHERE status = 'pending' AND match_confidence >= ?
	ORDER BY match_confidence DESC, created_at ASC`, minConfidence)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReconciliations(rows)
}

func (r *ReconciliationRepo) ListByBankTransaction(ctx context.Context, bankTransactionID string) ([]Reconciliation, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT `+reconciliationCols+` FROM reconciliations
	WHERE bank_transaction_id = ?
	ORDER BY created_at ASC`, bankTransactionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReconciliations(rows)
}

func (r *ReconciliationRepo) ListConfirmedByBankTransaction(ctx context.Context, bankTransactionID string) ([]Reconciliation, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT `+reconciliationCols+` FROM reconciliations
	WHERE bank_transaction_id = ? AND status = 'confirmed'
	ORDER BY created_at ASC`, bankTransactionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReconciliations(rows)
}

func (r *ReconciliationRepo) ListConfirmedByTransaction(ctx context.Context, transactionID string) ([]Reconciliation, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT `+reconciliationCols+` FROM reconciliations
	WHERE transaction_id = ? AND status = 'confirmed'
	ORDER BY created_at ASC`, transactionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReconciliations(rows)
}

// SetOutcome moves a row to a terminal status, recording who and when.
func (r *ReconciliationRepo) SetOutcome(ctx context.Context, id, status, by string, at time.Time, notes *string) error {
	_, err := r.db.ExecContext(ctx, `
	UPDATE reconciliations SET
	 status = ?, reconciled_by = ?, reconciled_at = ?,
	 notes = COALESCE(?, notes), updated_at = CURRENT_TIMESTAMP
	WHERE id = ?`, status, by, at, notes, id)
	return err
}

// SumConfirmedByBankTransaction returns the total confirmed match amount
// against a bank transaction.
func (r *ReconciliationRepo) SumConfirmedByBankTransaction(ctx context.Context, bankTransactionID string) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx, `
	SELECT COALESCE(SUM(match_amount), 0) FROM reconciliations
	WHERE bank_transaction_id = ? AND status = 'confirmed'`, bankTransactionID).Scan(&total)
	return total, err
}

// SumConfirmedByTransaction returns the total confirmed match amount against a
// book transaction.
func (r *ReconciliationRepo) SumConfirmedByTransaction(ctx context.Context, transactionID string) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx, `
	SELECT COALESCE(SUM(match_amount), 0) FROM reconciliations
	WHERE transaction_id = ? AND status = 'confirmed'`, transactionID).Scan(&total)
	return total, err
}

func (r *ReconciliationRepo) HasConfirmedPair(ctx context.Context, bankTransactionID, transactionID string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
	SELECT COUNT(*) FROM reconciliations
	WHERE bank_transaction_id = ? AND transaction_id = ? AND status = 'confirmed'`,
		bankTransactionID, transactionID).Scan(&n)
	return n > 0, err
}

func (r *ReconciliationRepo) CountConfirmedByBankTransaction(ctx context.Context, bankTransactionID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
	SELECT COUNT(*) FROM reconciliations
	WHERE bank_transaction_id = ? AND status = 'confirmed'`, bankTransactionID).Scan(&n)
	return n, err
}

func (r *ReconciliationRepo) CountConfirmedByTransaction(ctx context.Context, transactionID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
	SELECT COUNT(*) FROM reconciliations
	WHERE transaction_id = ? AND status = 'confirmed'`, transactionID).Scan(&n)
	return n, err
}

// DeletePendingByBankTransaction bulk-deletes pending suggestions for a bank
// transaction and reports how many rows went away. Confirmed and rejected
// rows are untouched.
func (r *ReconciliationRepo) DeletePendingByBankTransaction(ctx context.Context, bankTransactionID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
	DELETE FROM reconciliations
	WHERE bank_transaction_id = ? AND status = 'pending'`, bankTransactionID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *ReconciliationRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM reconciliations WHERE id = ?`, id)
	return err
}

const reconciliationCols = `id, bank_transaction_id, transaction_id, match_amount, match_type,
 match_confidence, status, reconciled_by, reconciled_at, notes, created_at, updated_at`

func scanReconciliation(row scanner) (Reconciliation, error) {
	var rec Reconciliation
	var by, notes sql.NullString
	var at sql.NullTime
	if err := row.Scan(&rec.ID, &rec.BankTransactionID, &rec.TransactionID,
		&rec.MatchAmount, &rec.MatchType, &rec.MatchConfidence, &rec.Status,
		&by, &at, &notes, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return Reconciliation{}, err
	}
	if by.Valid {
		rec.ReconciledBy = &by.String
	}
	if at.Valid {
		rec.ReconciledAt = &at.Time
	}
	if notes.Valid {
		rec.Notes = &notes.String
	}
	return rec, nil
}

func collectReconciliations(rows *sql.Rows) ([]Reconciliation, error) {
	var out []Reconciliation
	for rows.Next() {
		rec, err := scanReconciliation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
