package repository

import (
	"context"
	"database/sql"
	"time"
)

// ExclusionRepo stores match exclusions in the same transactional store as
// the ledger, so the exclusion list and persisted state cannot diverge.
type ExclusionRepo struct {
	db DBTX
}

func NewExclusionRepo(db DBTX) *ExclusionRepo { return &ExclusionRepo{db: db} }

func (r *ExclusionRepo) Get(ctx context.Context, bankTransactionID string) (*MatchExclusion, error) {
	row := r.db.QueryRowContext(ctx, `
	SELECT bank_transaction_id, reason, created_at, expires_at
	FROM match_exclusions WHERE bank_transaction_id = ?`, bankTransactionID)
	var ex MatchExclusion
	var expires sql.NullTime
	if err := row.Scan(&ex.BankTransactionID, &ex.Reason, &ex.CreatedAt, &expires); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if expires.Valid {
		ex.ExpiresAt = &expires.Time
	}
	return &ex, nil
}

func (r *ExclusionRepo) Set(ctx context.Context, ex MatchExclusion) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO match_exclusions(bank_transaction_id, reason, created_at, expires_at)
	VALUES (?, ?, CURRENT_TIMESTAMP, ?)
	ON CONFLICT(bank_transaction_id) DO UPDATE SET
	 reason = excluded.reason,
	 expires_at = excluded.expires_at;
	`, ex.BankTransactionID, ex.Reason, ex.ExpiresAt)
	return err
}

func (r *ExclusionRepo) Delete(ctx context.Context, bankTransactionID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM match_exclusions WHERE bank_transaction_id = ?`, bankTransactionID)
	return err
}

// Sweep removes exclusions that expired at or before now and returns the bank
// transaction ids that were swept. Safe to call repeatedly.
func (r *ExclusionRepo) Sweep(ctx context.Context, now time.Time) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT bank_transaction_id FROM match_exclusions
	WHERE expires_at IS NOT NULL AND expires_at <= ?`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, id := range ids {
		if _, err := r.db.ExecContext(ctx, `DELETE FROM match_exclusions WHERE bank_transaction_id = ?`, id); err != nil {
			return nil, err
		}
	}
	return ids, nil
}

// Clear wipes the exclusion list. Intended for tests and operator resets.
func (r *ExclusionRepo) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM match_exclusions`)
	return err
}
