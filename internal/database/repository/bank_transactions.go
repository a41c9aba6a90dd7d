package repository

import (
	"context"
	"database/sql"
)

// BankTransactionRepo handles bank transactions.
type BankTransactionRepo struct {
	db DBTX
}

func NewBankTransactionRepo(db DBTX) *BankTransactionRepo { return &BankTransactionRepo{db: db} }

func (r *BankTransactionRepo) Insert(ctx context.Context, t BankTransaction) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO bank_transactions(
	 id, bank_account_id, transaction_date, posting_date, description, reference,
	 import_source, fit_id, transaction_type, amount, running_balance,
	 reconciliation_status, is_reconciled, reconciliation_notes, created_at, updated_at)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP);
	`,
		t.ID, t.BankAccountID, t.TransactionDate, t.PostingDate, t.Description,
		t.Reference, t.ImportSource, t.FitID, t.TransactionType, t.Amount,
		t.RunningBalance, t.ReconciliationStatus, t.IsReconciled, t.ReconciliationNotes)
	return err
}

func (r *BankTransactionRepo) Get(ctx context.Context, id string) (*BankTransaction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+bankTransactionCols+` FROM bank_transactions WHERE id = ?`, id)
	t, err := scanBankTransaction(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

// Update rewrites the mutable fields of the row. Reconciliation fields go
// through SetReconciliation instead.
func (r *BankTransactionRepo) Update(ctx context.Context, t BankTransaction) error {
	_, err := r.db.ExecContext(ctx, `
	UPDATE bank_transactions SET
	 transaction_date = ?, posting_date = ?, description = ?, reference = ?,
	 import_source = ?, fit_id = ?, transaction_type = ?, amount = ?,
	 running_balance = ?, updated_at = CURRENT_TIMESTAMP
	WHERE id = ?`,
		t.TransactionDate, t.PostingDate, t.Description, t.Reference,
		t.ImportSource, t.FitID, t.TransactionType, t.Amount, t.RunningBalance, t.ID)
	return err
}

// SetReconciliation updates the match-state fields only.
func (r *BankTransactionRepo) SetReconciliation(ctx context.Context, id, status string, isReconciled bool) error {
	_, err := r.db.ExecContext(ctx, `
	UPDATE bank_transactions SET reconciliation_status = ?, is_reconciled = ?, updated_at = CURRENT_TIMESTAMP
	WHERE id = ?`, status, isReconciled, id)
	return err
}

func (r *BankTransactionRepo) SetReconciliationNotes(ctx context.Context, id string, notes *string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE bank_transactions SET reconciliation_notes = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, notes, id)
	return err
}

func (r *BankTransactionRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM bank_transactions WHERE id = ?`, id)
	return err
}

func (r *BankTransactionRepo) ListByAccount(ctx context.Context, bankAccountID string) ([]BankTransaction, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT `+bankTransactionCols+` FROM bank_transactions
	WHERE bank_account_id = ?
	ORDER BY transaction_date DESC, created_at DESC`, bankAccountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []BankTransaction
	for rows.Next() {
		t, err := scanBankTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

const bankTransactionCols = `id, bank_account_id, transaction_date, posting_date, description, reference,
 import_source, fit_id, transaction_type, amount, running_balance,
 reconciliation_status, is_reconciled, reconciliation_notes, created_at, updated_at`

func scanBankTransaction(row scanner) (BankTransaction, error) {
	var t BankTransaction
	var posting sql.NullTime
	var reference, importSource, fitID, notes sql.NullString
	var running sql.NullInt64
	if err := row.Scan(&t.ID, &t.BankAccountID, &t.TransactionDate, &posting,
		&t.Description, &reference, &importSource, &fitID, &t.TransactionType,
		&t.Amount, &running, &t.ReconciliationStatus, &t.IsReconciled, &notes,
		&t.CreatedAt, &t.UpdatedAt); err != nil {
		return BankTransaction{}, err
	}
	if posting.Valid {
		t.PostingDate = &posting.Time
	}
	if reference.Valid {
		t.Reference = &reference.String
	}
	if importSource.Valid {
		t.ImportSource = &importSource.String
	}
	if fitID.Valid {
		t.FitID = &fitID.String
	}
	if running.Valid {
		t.RunningBalance = &running.Int64
	}
	if notes.Valid {
		t.ReconciliationNotes = &notes.String
	}
	return t, nil
}
