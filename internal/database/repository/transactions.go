package repository

import (
	"context"
	"database/sql"
	"strings"
)

// TransactionFilters defines list filters for book transactions.
type TransactionFilters struct {
	OwnerID string
	Status  string
	Type    string
}

// TransactionRepo handles book-side transactions.
type TransactionRepo struct {
	db DBTX
}

func NewTransactionRepo(db DBTX) *TransactionRepo { return &TransactionRepo{db: db} }

func (r *TransactionRepo) Insert(ctx context.Context, t Transaction) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO transactions(
	 id, owner_id, type, status, transaction_date, description, amount, vat_rate,
	 vat_amount, total_amount, category_id, payee, reference, created_at, updated_at)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP);
	`,
		t.ID, t.OwnerID, t.Type, t.Status, t.TransactionDate, t.Description,
		t.Amount, t.VATRate, t.VATAmount, t.TotalAmount, t.CategoryID, t.Payee, t.Reference)
	return err
}

func (r *TransactionRepo) Get(ctx context.Context, id string) (*Transaction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+transactionCols+` FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

// OwnerID returns the owner of the transaction, or "" when it does not exist.
func (r *TransactionRepo) OwnerID(ctx context.Context, id string) (string, error) {
	var owner string
	err := r.db.QueryRowContext(ctx, `SELECT owner_id FROM transactions WHERE id = ?`, id).Scan(&owner)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return owner, err
}

// Update rewrites the mutable fields of the row, status included. The
// reconciliation cascade uses SetStatus so it never touches amount fields.
func (r *TransactionRepo) Update(ctx context.Context, t Transaction) error {
	_, err := r.db.ExecContext(ctx, `
	UPDATE transactions SET
	 type = ?, status = ?, transaction_date = ?, description = ?, amount = ?,
	 vat_rate = ?, vat_amount = ?, total_amount = ?, category_id = ?, payee = ?,
	 reference = ?, updated_at = CURRENT_TIMESTAMP
	WHERE id = ?`,
		t.Type, t.Status, t.TransactionDate, t.Description, t.Amount,
		t.VATRate, t.VATAmount, t.TotalAmount, t.CategoryID, t.Payee, t.Reference, t.ID)
	return err
}

func (r *TransactionRepo) SetStatus(ctx context.Context, id, status string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE transactions SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, status, id)
	return err
}

func (r *TransactionRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	return err
}

func (r *TransactionRepo) List(ctx context.Context, f TransactionFilters) ([]Transaction, error) {
	var where []string
	var args []any

	if f.OwnerID != "" {
		where = append(where, "owner_id = ?")
		args = append(args, f.OwnerID)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	if f.Type != "" {
		where = append(where, "type = ?")
		args = append(args, f.Type)
	}

	query := `SELECT ` + transactionCols + ` FROM transactions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY transaction_date DESC, created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

const transactionCols = `id, owner_id, type, status, transaction_date, description, amount, vat_rate,
 vat_amount, total_amount, category_id, payee, reference, created_at, updated_at`

func scanTransaction(row scanner) (Transaction, error) {
	var t Transaction
	var category, payee, reference sql.NullString
	if err := row.Scan(&t.ID, &t.OwnerID, &t.Type, &t.Status, &t.TransactionDate,
		&t.Description, &t.Amount, &t.VATRate, &t.VATAmount, &t.TotalAmount,
		&category, &payee, &reference, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return Transaction{}, err
	}
	if category.Valid {
		t.CategoryID = &category.String
	}
	if payee.Valid {
		t.Payee = &payee.String
	}
	if reference.Valid {
		t.Reference = &reference.String
	}
	return t, nil
}
