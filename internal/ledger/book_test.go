package ledger

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quillbooks/quillbooks/internal/database"
	"github.com/quillbooks/quillbooks/internal/database/repository"
)

func TestVATRounding(t *testing.T) {
	t.Parallel()

	cases := []struct {
		amount  int64
		rateBps int
		vat     int64
	}{
		{10000, 2000, 2000},
		{10000, 0, 0},
		{333, 2000, 67},   // 66.6 rounds up
		{125, 2000, 25},   // exact
		{1, 500, 0},       // 0.05 rounds down
		{1, 5000, 1},      // 0.5 rounds up, away from zero
		{99999, 2000, 20000},
	}
	for _, c := range cases {
		require.Equal(t, c.vat, vatFor(c.amount, c.rateBps), "amount=%d rate=%d", c.amount, c.rateBps)
	}
}

func TestCreateTransactionDerivesVAT(t *testing.T) {
	t.Parallel()
	ctx := testContext(t)
	_, book, _ := newServices(t)

	txn := makeBookTxn(t, ctx, book, repository.BookTypeExpense, 10250, 2000)
	require.Equal(t, int64(2050), txn.VATAmount)
	require.Equal(t, int64(12300), txn.TotalAmount)
	require.Equal(t, repository.BookStatusCleared, txn.Status)
}

func TestCreateTransactionDefaultsToPending(t *testing.T) {
	t.Parallel()
	ctx := testContext(t)
	_, book, _ := newServices(t)

	txn, err := book.CreateTransaction(ctx, CreateTransactionInput{
		OwnerID:         testOwner,
		Type:            repository.BookTypeIncome,
		TransactionDate: database.Now(),
		Description:     "invoice",
		Amount:          5000,
	})
	require.NoError(t, err)
	require.Equal(t, repository.BookStatusPending, txn.Status)
}

func TestCreateTransactionValidation(t *testing.T) {
	t.Parallel()
	ctx := testContext(t)
	_, book, _ := newServices(t)

	_, err := book.CreateTransaction(ctx, CreateTransactionInput{
		Type:    "transfer",
		Amount:  -1,
		VATRate: 10001,
	})
	require.True(t, IsValidation(err))
	var le *Error
	require.ErrorAs(t, err, &le)
	require.Contains(t, le.Fields, "ownerId")
	require.Contains(t, le.Fields, "type")
	require.Contains(t, le.Fields, "amount")
	require.Contains(t, le.Fields, "vatRate")
	require.Contains(t, le.Fields, "transactionDate")
}

func TestUpdateTransactionRecomputesVAT(t *testing.T) {
	t.Parallel()
	ctx := testContext(t)
	_, book, _ := newServices(t)

	txn := makeBookTxn(t, ctx, book, repository.BookTypeExpense, 10000, 2000)
	require.Equal(t, int64(12000), txn.TotalAmount)

	newAmount := int64(20000)
	updated, err := book.UpdateTransaction(ctx, txn.ID, TransactionPatch{Amount: &newAmount})
	require.NoError(t, err)
	require.Equal(t, int64(4000), updated.VATAmount)
	require.Equal(t, int64(24000), updated.TotalAmount)

	newRate := 500
	updated, err = book.UpdateTransaction(ctx, txn.ID, TransactionPatch{VATRate: &newRate})
	require.NoError(t, err)
	require.Equal(t, int64(1000), updated.VATAmount)
	require.Equal(t, int64(21000), updated.TotalAmount)
}

func TestUpdateTransactionRejectsReconciledStatus(t *testing.T) {
	t.Parallel()
	ctx := testContext(t)
	_, book, _ := newServices(t)

	txn := makeBookTxn(t, ctx, book, repository.BookTypeIncome, 100, 0)

	reconciled := repository.BookStatusReconciled
	_, err := book.UpdateTransaction(ctx, txn.ID, TransactionPatch{Status: &reconciled})
	require.True(t, IsValidation(err))
}

func TestReconciledTransactionIsImmutable(t *testing.T) {
	t.Parallel()
	ctx := testContext(t)
	bank, book, recon := newServices(t)

	acct := makeAccount(t, ctx, bank, 0)
	bankTxn := makeBankTxn(t, ctx, bank, acct.ID, repository.TransactionTypeCredit, 6000)
	bookTxn := makeBookTxn(t, ctx, book, repository.BookTypeIncome, 5000, 2000)

	_, err := recon.Reconcile(ctx, ReconcileInput{
		BankTransactionID: bankTxn.ID,
		TransactionID:     bookTxn.ID,
		MatchAmount:       6000,
		ReconciledBy:      testOwner,
	})
	require.NoError(t, err)

	bookTxn, err = book.FindByID(ctx, bookTxn.ID)
	require.NoError(t, err)
	require.Equal(t, repository.BookStatusReconciled, bookTxn.Status)

	desc := "renamed"
	_, err = book.UpdateTransaction(ctx, bookTxn.ID, TransactionPatch{Description: &desc})
	require.True(t, IsReconciled(err))

	err = book.DeleteTransaction(ctx, bookTxn.ID)
	require.True(t, IsReconciled(err))
}

func TestDeleteTransactionBlockedByConfirmedMatch(t *testing.T) {
	t.Parallel()
	ctx := testContext(t)
	bank, book, recon := newServices(t)

	acct := makeAccount(t, ctx, bank, 0)
	bankTxn := makeBankTxn(t, ctx, bank, acct.ID, repository.TransactionTypeCredit, 10000)
	bookTxn := makeBookTxn(t, ctx, book, repository.BookTypeIncome, 4000, 0)

	// Partial coverage: book entry stays cleared but is referenced by a
	// confirmed reconciliation, which still blocks deletion.
	_, err := recon.Reconcile(ctx, ReconcileInput{
		BankTransactionID: bankTxn.ID,
		TransactionID:     bookTxn.ID,
		MatchAmount:       4000,
		ReconciledBy:      testOwner,
	})
	require.NoError(t, err)

	bookTxn, err = book.FindByID(ctx, bookTxn.ID)
	require.NoError(t, err)
	require.Equal(t, repository.BookStatusCleared, bookTxn.Status)

	err = book.DeleteTransaction(ctx, bookTxn.ID)
	require.True(t, IsReconciled(err))
}

func TestListTransactionsFilters(t *testing.T) {
	t.Parallel()
	ctx := testContext(t)
	_, book, _ := newServices(t)

	makeBookTxn(t, ctx, book, repository.BookTypeIncome, 100, 0)
	makeBookTxn(t, ctx, book, repository.BookTypeExpense, 200, 0)
	makeBookTxn(t, ctx, book, repository.BookTypeExpense, 300, 0)

	all, err := book.ListTransactions(ctx, repository.TransactionFilters{OwnerID: testOwner})
	require.NoError(t, err)
	require.Len(t, all, 3)

	expenses, err := book.ListTransactions(ctx, repository.TransactionFilters{
		OwnerID: testOwner, Type: repository.BookTypeExpense,
	})
	require.NoError(t, err)
	require.Len(t, expenses, 2)

	none, err := book.ListTransactions(ctx, repository.TransactionFilters{OwnerID: "other"})
	require.NoError(t, err)
	require.Empty(t, none)
}
