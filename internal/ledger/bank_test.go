package ledger

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quillbooks/quillbooks/internal/database"
	"github.com/quillbooks/quillbooks/internal/database/repository"
)

func TestBalanceFollowsBankActivity(t *testing.T) {
	t.Parallel()
	ctx := testContext(t)
	bank, _, _ := newServices(t)

	acct := makeAccount(t, ctx, bank, 100000)
	require.Equal(t, int64(100000), acct.CurrentBalance)

	credit := makeBankTxn(t, ctx, bank, acct.ID, repository.TransactionTypeCredit, 50000)
	acct, err := bank.FindBankAccount(ctx, acct.ID)
	require.NoError(t, err)
	require.Equal(t, int64(150000), acct.CurrentBalance)

	makeBankTxn(t, ctx, bank, acct.ID, repository.TransactionTypeDebit, 30000)
	acct, err = bank.FindBankAccount(ctx, acct.ID)
	require.NoError(t, err)
	require.Equal(t, int64(120000), acct.CurrentBalance)

	require.NoError(t, bank.DeleteBankTransaction(ctx, credit.ID))
	acct, err = bank.FindBankAccount(ctx, acct.ID)
	require.NoError(t, err)
	require.Equal(t, int64(70000), acct.CurrentBalance)
	require.Equal(t, acct.OpeningBalance-30000, acct.CurrentBalance)
}

func TestUpdateBankTransactionShiftsBalanceByDelta(t *testing.T) {
	t.Parallel()
	ctx := testContext(t)
	bank, _, _ := newServices(t)

	acct := makeAccount(t, ctx, bank, 0)
	txn := makeBankTxn(t, ctx, bank, acct.ID, repository.TransactionTypeCredit, 10000)

	newAmount := int64(2500)
	_, err := bank.UpdateBankTransaction(ctx, txn.ID, BankTransactionPatch{Amount: &newAmount})
	require.NoError(t, err)

	acct, err = bank.FindBankAccount(ctx, acct.ID)
	require.NoError(t, err)
	require.Equal(t, int64(2500), acct.CurrentBalance)

	// Flipping credit to debit swings the balance by twice the amount.
	debit := repository.TransactionTypeDebit
	_, err = bank.UpdateBankTransaction(ctx, txn.ID, BankTransactionPatch{TransactionType: &debit})
	require.NoError(t, err)

	acct, err = bank.FindBankAccount(ctx, acct.ID)
	require.NoError(t, err)
	require.Equal(t, int64(-2500), acct.CurrentBalance)
}

func TestCreateBankTransactionValidation(t *testing.T) {
	t.Parallel()
	ctx := testContext(t)
	bank, _, _ := newServices(t)
	acct := makeAccount(t, ctx, bank, 0)

	_, err := bank.CreateBankTransaction(ctx, CreateBankTransactionInput{
		BankAccountID:   acct.ID,
		OwnerID:         testOwner,
		TransactionDate: acct.CreatedAt,
		Description:     "bad",
		TransactionType: "transfer",
		Amount:          -5,
	})
	require.Error(t, err)
	require.True(t, IsValidation(err))
	var le *Error
	require.ErrorAs(t, err, &le)
	require.Contains(t, le.Fields, "transactionType")
	require.Contains(t, le.Fields, "amount")
}

func TestCreateBankTransactionUnknownAccount(t *testing.T) {
	t.Parallel()
	ctx := testContext(t)
	bank, _, _ := newServices(t)

	_, err := bank.CreateBankTransaction(ctx, CreateBankTransactionInput{
		BankAccountID:   "nope",
		TransactionDate: database.Now(),
		Description:     "orphan",
		TransactionType: repository.TransactionTypeCredit,
		Amount:          100,
	})
	require.True(t, IsNotFound(err))
}

func TestCreateBankTransactionWrongOwner(t *testing.T) {
	t.Parallel()
	ctx := testContext(t)
	bank, _, _ := newServices(t)
	acct := makeAccount(t, ctx, bank, 0)

	_, err := bank.CreateBankTransaction(ctx, CreateBankTransactionInput{
		BankAccountID:   acct.ID,
		OwnerID:         "someone-else",
		TransactionDate: database.Now(),
		Description:     "not yours",
		TransactionType: repository.TransactionTypeCredit,
		Amount:          100,
	})
	require.True(t, IsOwnerOnly(err))
}

func TestMatchedBankTransactionIsImmutable(t *testing.T) {
	t.Parallel()
	ctx := testContext(t)
	bank, book, recon := newServices(t)

	acct := makeAccount(t, ctx, bank, 0)
	bankTxn := makeBankTxn(t, ctx, bank, acct.ID, repository.TransactionTypeCredit, 10000)
	bookTxn := makeBookTxn(t, ctx, book, repository.BookTypeIncome, 10000, 0)

	_, err := recon.Reconcile(ctx, ReconcileInput{
		BankTransactionID: bankTxn.ID,
		TransactionID:     bookTxn.ID,
		MatchAmount:       10000,
		ReconciledBy:      testOwner,
	})
	require.NoError(t, err)

	newAmount := int64(9999)
	_, err = bank.UpdateBankTransaction(ctx, bankTxn.ID, BankTransactionPatch{Amount: &newAmount})
	require.True(t, IsReconciled(err))

	err = bank.DeleteBankTransaction(ctx, bankTxn.ID)
	require.True(t, IsReconciled(err))

	// Balance untouched by the failed mutations.
	acct, err = bank.FindBankAccount(ctx, acct.ID)
	require.NoError(t, err)
	require.Equal(t, int64(10000), acct.CurrentBalance)
}

func TestDeleteBankTransactionClearsPendingSuggestions(t *testing.T) {
	t.Parallel()
	ctx := testContext(t)
	bank, book, recon := newServices(t)

	acct := makeAccount(t, ctx, bank, 0)
	bankTxn := makeBankTxn(t, ctx, bank, acct.ID, repository.TransactionTypeDebit, 4000)
	bookTxn := makeBookTxn(t, ctx, book, repository.BookTypeExpense, 4000, 0)

	_, err := recon.SuggestMatch(ctx, SuggestMatchInput{
		BankTransactionID: bankTxn.ID,
		TransactionID:     bookTxn.ID,
		MatchAmount:       4000,
		Confidence:        85,
	})
	require.NoError(t, err)

	require.NoError(t, bank.DeleteBankTransaction(ctx, bankTxn.ID))

	pending, err := recon.PendingReconciliations(ctx, 0)
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestDeactivateBankAccount(t *testing.T) {
	t.Parallel()
	ctx := testContext(t)
	bank, _, _ := newServices(t)

	acct := makeAccount(t, ctx, bank, 0)
	require.True(t, acct.IsActive)

	require.NoError(t, bank.DeactivateBankAccount(ctx, acct.ID))
	acct, err := bank.FindBankAccount(ctx, acct.ID)
	require.NoError(t, err)
	require.False(t, acct.IsActive)
}

func TestDefaultAccountIsExclusivePerOwner(t *testing.T) {
	t.Parallel()
	ctx := testContext(t)
	bank, _, _ := newServices(t)

	first, err := bank.CreateBankAccount(ctx, CreateBankAccountInput{
		OwnerID: testOwner, AccountName: "First", IsDefault: true,
	})
	require.NoError(t, err)
	require.True(t, first.IsDefault)

	second, err := bank.CreateBankAccount(ctx, CreateBankAccountInput{
		OwnerID: testOwner, AccountName: "Second", IsDefault: true,
	})
	require.NoError(t, err)
	require.True(t, second.IsDefault)

	first, err = bank.FindBankAccount(ctx, first.ID)
	require.NoError(t, err)
	require.False(t, first.IsDefault)
}

func TestOwnerLookups(t *testing.T) {
	t.Parallel()
	ctx := testContext(t)
	bank, book, _ := newServices(t)

	acct := makeAccount(t, ctx, bank, 0)
	owner, err := bank.OwnerOfBankAccount(ctx, acct.ID)
	require.NoError(t, err)
	require.Equal(t, testOwner, owner)

	_, err = bank.OwnerOfBankAccount(ctx, "missing")
	require.True(t, IsNotFound(err))

	txn := makeBookTxn(t, ctx, book, repository.BookTypeIncome, 100, 0)
	owner, err = book.OwnerOfTransaction(ctx, txn.ID)
	require.NoError(t, err)
	require.Equal(t, testOwner, owner)
}
