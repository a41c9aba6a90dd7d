package ledger

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quillbooks/quillbooks/internal/database"
	"github.com/quillbooks/quillbooks/internal/database/repository"
)

const testOwner = "owner-1"

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	require.NoError(t, database.RunMigrations(dbPath))

	db, err := database.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func newServices(t *testing.T) (*BankService, *BookService, *ReconcileService) {
	t.Helper()
	db := newTestDB(t)
	return NewBankService(db), NewBookService(db), NewReconcileService(db)
}

func makeAccount(t *testing.T, ctx context.Context, bank *BankService, opening int64) *repository.BankAccount {
	t.Helper()
	a, err := bank.CreateBankAccount(ctx, CreateBankAccountInput{
		OwnerID:        testOwner,
		AccountName:    "Current",
		BankName:       "Test Bank",
		Currency:       "GBP",
		OpeningBalance: opening,
	})
	require.NoError(t, err)
	return a
}

func makeBankTxn(t *testing.T, ctx context.Context, bank *BankService, accountID, txnType string, amount int64) *repository.BankTransaction {
	t.Helper()
	txn, err := bank.CreateBankTransaction(ctx, CreateBankTransactionInput{
		BankAccountID:   accountID,
		OwnerID:         testOwner,
		TransactionDate: database.Now(),
		Description:     "test bank txn",
		TransactionType: txnType,
		Amount:          amount,
	})
	require.NoError(t, err)
	return txn
}

func makeBookTxn(t *testing.T, ctx context.Context, book *BookService, txnType string, amount int64, vatRate int) *repository.Transaction {
	t.Helper()
	txn, err := book.CreateTransaction(ctx, CreateTransactionInput{
		OwnerID:         testOwner,
		Type:            txnType,
		Status:          repository.BookStatusCleared,
		TransactionDate: database.Now(),
		Description:     "test book txn",
		Amount:          amount,
		VATRate:         vatRate,
	})
	require.NoError(t, err)
	return txn
}
