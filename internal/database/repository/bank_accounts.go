package repository

import (
	"context"
	"database/sql"
)

// BankAccountRepo handles bank accounts.
type BankAccountRepo struct {
	db DBTX
}

func NewBankAccountRepo(db DBTX) *BankAccountRepo { return &BankAccountRepo{db: db} }

func (r *BankAccountRepo) Insert(ctx context.Context, a BankAccount) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO bank_accounts(
	 id, owner_id, account_name, bank_name, sort_code, account_number, currency,
	 opening_balance, current_balance, is_default, is_active, created_at, updated_at)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP);
	`,
		a.ID, a.OwnerID, a.AccountName, a.BankName, a.SortCode, a.AccountNumber,
		a.Currency, a.OpeningBalance, a.CurrentBalance, a.IsDefault, a.IsActive)
	return err
}

func (r *BankAccountRepo) Get(ctx context.Context, id string) (*BankAccount, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+bankAccountCols+` FROM bank_accounts WHERE id = ?`, id)
	a, err := scanBankAccount(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

// OwnerID returns the owner of the account, or "" when the account does not
// exist. Used by the external authorization layer to reject cross-tenant
// access before invoking mutations.
func (r *BankAccountRepo) OwnerID(ctx context.Context, id string) (string, error) {
	var owner string
	err := r.db.QueryRowContext(ctx, `SELECT owner_id FROM bank_accounts WHERE id = ?`, id).Scan(&owner)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return owner, err
}

func (r *BankAccountRepo) List(ctx context.Context, ownerID string) ([]BankAccount, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+bankAccountCols+` FROM bank_accounts WHERE owner_id = ? ORDER BY account_name`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []BankAccount
	for rows.Next() {
		a, err := scanBankAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ApplyBalanceDelta shifts current_balance by delta. Callers run this in the
// same transaction as the bank-transaction write it accounts for.
func (r *BankAccountRepo) ApplyBalanceDelta(ctx context.Context, id string, delta int64) error {
	_, err := r.db.ExecContext(ctx, `
	UPDATE bank_accounts SET current_balance = current_balance + ?, updated_at = CURRENT_TIMESTAMP
	WHERE id = ?`, delta, id)
	return err
}

func (r *BankAccountRepo) SetActive(ctx context.Context, id string, active bool) error {
	_, err := r.db.ExecContext(ctx, `UPDATE bank_accounts SET is_active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, active, id)
	return err
}

// SetDefault marks one of the owner's accounts as default and clears the flag
// on the rest. Run inside a transaction.
func (r *BankAccountRepo) SetDefault(ctx context.Context, ownerID, id string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE bank_accounts SET is_default = 0 WHERE owner_id = ?`, ownerID); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `UPDATE bank_accounts SET is_default = 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id)
	return err
}

func (r *BankAccountRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM bank_accounts WHERE id = ?`, id)
	return err
}

const bankAccountCols = `id, owner_id, account_name, bank_name, sort_code, account_number, currency,
 opening_balance, current_balance, is_default, is_active, created_at, updated_at`

func scanBankAccount(row scanner) (BankAccount, error) {
	var a BankAccount
	if err := row.Scan(&a.ID, &a.OwnerID, &a.AccountName, &a.BankName, &a.SortCode,
		&a.AccountNumber, &a.Currency, &a.OpeningBalance, &a.CurrentBalance,
		&a.IsDefault, &a.IsActive, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return BankAccount{}, err
	}
	return a, nil
}
