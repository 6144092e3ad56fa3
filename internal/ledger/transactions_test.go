package ledger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pViewApp/pview3-sub000/internal/ledger"
	apptesting "github.com/pViewApp/pview3-sub000/internal/testing"
)

func TestAddBuyTransaction(t *testing.T) {
	l, cleanup := apptesting.NewTestLedger(t)
	defer cleanup()

	accountID := apptesting.SeedAccount(t, l, "Broker")
	securityID := apptesting.SeedSecurity(t, l, "ACME", "Acme Corp")

	var added []ledger.TransactionAdded
	var changed int
	subAdded := l.Bus().TransactionAdded.Subscribe(func(e ledger.TransactionAdded) { added = append(added, e) })
	defer subAdded.Close()
	subChanged := l.Bus().Changed.Subscribe(func(ledger.Changed) { changed++ })
	defer subChanged.Close()

	require.Equal(t, ledger.ResultOK, l.AddBuyTransaction(accountID, 5, securityID, 10, 1000, 50))

	require.Len(t, added, 1)
	assert.Equal(t, accountID, added[0].AccountID)
	assert.Equal(t, ledger.ActionBuy, added[0].Action)
	assert.Equal(t, 1, changed)

	txs, err := l.TransactionsForAccount(accountID)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, added[0].ID, txs[0].ID)
	assert.Equal(t, ledger.BuyDetail{
		SecurityID: securityID,
		Shares:     10,
		SharePrice: 1000,
		Commission: 50,
	}, txs[0].Detail)
}

func TestAddTransactionRollsBackOnBadSecurity(t *testing.T) {
	l, cleanup := apptesting.NewTestLedger(t)
	defer cleanup()

	accountID := apptesting.SeedAccount(t, l, "Broker")

	var added, changed, rolledBack int
	subAdded := l.Bus().TransactionAdded.Subscribe(func(ledger.TransactionAdded) { added++ })
	defer subAdded.Close()
	subChanged := l.Bus().Changed.Subscribe(func(ledger.Changed) { changed++ })
	defer subChanged.Close()
	subRolled := l.Bus().RolledBack.Subscribe(func(ledger.RolledBack) { rolledBack++ })
	defer subRolled.Close()

	// The master insert succeeds; the detail insert hits the foreign key.
	// The whole pair must vanish.
	code := l.AddBuyTransaction(accountID, 5, 9999, 10, 1000, 50)
	assert.Equal(t, ledger.ResultConstraintViolation, code)

	assert.Equal(t, 0, added)
	assert.Equal(t, 0, changed)
	assert.Equal(t, 0, rolledBack, "internal savepoint rollbacks are silent")

	count, err := l.TransactionCountForAccount(accountID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count, "no orphaned master row")

	// A later add still works and gets a fresh id.
	securityID := apptesting.SeedSecurity(t, l, "ACME", "Acme Corp")
	require.Equal(t, ledger.ResultOK, l.AddBuyTransaction(accountID, 5, securityID, 10, 1000, 50))
	assert.Equal(t, 1, added)
}

func TestAddTransactionRejectsNegativeAmounts(t *testing.T) {
	l, cleanup := apptesting.NewTestLedger(t)
	defer cleanup()

	accountID := apptesting.SeedAccount(t, l, "Broker")
	securityID := apptesting.SeedSecurity(t, l, "ACME", "Acme Corp")

	assert.Equal(t, ledger.ResultConstraintViolation, l.AddBuyTransaction(accountID, 5, securityID, -10, 1000, 50))
	assert.Equal(t, ledger.ResultConstraintViolation, l.AddDepositTransaction(accountID, 5, 0, -100))

	count, err := l.TransactionCountForAccount(accountID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestCashTransactionsWithOptionalSecurity(t *testing.T) {
	l, cleanup := apptesting.NewTestLedger(t)
	defer cleanup()

	accountID := apptesting.SeedAccount(t, l, "Broker")
	securityID := apptesting.SeedSecurity(t, l, "ACME", "Acme Corp")

	require.Equal(t, ledger.ResultOK, l.AddDepositTransaction(accountID, 1, 0, 10000))
	require.Equal(t, ledger.ResultOK, l.AddWithdrawTransaction(accountID, 2, securityID, 2500))

	txs, err := l.TransactionsForAccount(accountID)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, ledger.DepositDetail{SecurityID: 0, Value: 10000}, txs[0].Detail)
	assert.Equal(t, ledger.WithdrawDetail{SecurityID: securityID, Value: 2500}, txs[1].Detail)
}

func TestRemoveTransaction(t *testing.T) {
	l, cleanup := apptesting.NewTestLedger(t)
	defer cleanup()

	accountID := apptesting.SeedAccount(t, l, "Broker")
	securityID := apptesting.SeedSecurity(t, l, "ACME", "Acme Corp")
	txID := apptesting.SeedBuy(t, l, accountID, 1, securityID, 10, 1000, 50)

	var removed []ledger.TransactionRemoved
	sub := l.Bus().TransactionRemoved.Subscribe(func(e ledger.TransactionRemoved) { removed = append(removed, e) })
	defer sub.Close()

	require.Equal(t, ledger.ResultOK, l.RemoveTransaction(txID))
	require.Len(t, removed, 1)
	assert.Equal(t, txID, removed[0].ID)

	txs, err := l.TransactionsForAccount(accountID)
	require.NoError(t, err)
	assert.Empty(t, txs)

	assert.Equal(t, ledger.ResultRecordNotFound, l.RemoveTransaction(txID))
	assert.Len(t, removed, 1)
}

func TestSetTransactionDateAndAccount(t *testing.T) {
	l, cleanup := apptesting.NewTestLedger(t)
	defer cleanup()

	first := apptesting.SeedAccount(t, l, "Broker")
	second := apptesting.SeedAccount(t, l, "Retirement")
	securityID := apptesting.SeedSecurity(t, l, "ACME", "Acme Corp")
	txID := apptesting.SeedBuy(t, l, first, 1, securityID, 10, 1000, 50)

	require.Equal(t, ledger.ResultOK, l.SetTransactionDate(txID, 9))
	require.Equal(t, ledger.ResultOK, l.SetTransactionAccount(txID, second))

	txs, err := l.TransactionsForAccount(second)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, int64(9), txs[0].Date)
	assert.Equal(t, second, txs[0].AccountID)

	txs, err = l.TransactionsForAccount(first)
	require.NoError(t, err)
	assert.Empty(t, txs)

	assert.Equal(t, ledger.ResultConstraintViolation, l.SetTransactionAccount(txID, 9999))
}

func TestDetailSetters(t *testing.T) {
	l, cleanup := apptesting.NewTestLedger(t)
	defer cleanup()

	accountID := apptesting.SeedAccount(t, l, "Broker")
	acme := apptesting.SeedSecurity(t, l, "ACME", "Acme Corp")
	vex := apptesting.SeedSecurity(t, l, "VEX", "Vex Industries")
	buyID := apptesting.SeedBuy(t, l, accountID, 1, acme, 10, 1000, 50)

	var updates []ledger.TransactionUpdated
	sub := l.Bus().TransactionUpdated.Subscribe(func(e ledger.TransactionUpdated) { updates = append(updates, e) })
	defer sub.Close()

	require.Equal(t, ledger.ResultOK, l.SetBuySecurity(buyID, vex))
	require.Equal(t, ledger.ResultOK, l.SetBuyShares(buyID, 20))
	require.Equal(t, ledger.ResultOK, l.SetBuySharePrice(buyID, 900))
	require.Equal(t, ledger.ResultOK, l.SetBuyCommission(buyID, 75))
	assert.Len(t, updates, 4)
	for _, u := range updates {
		assert.Equal(t, buyID, u.ID)
	}

	txs, err := l.TransactionsForAccount(accountID)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, ledger.BuyDetail{
		SecurityID: vex,
		Shares:     20,
		SharePrice: 900,
		Commission: 75,
	}, txs[0].Detail)

	// A setter aimed at a transaction of another kind misses its detail
	// table row.
	assert.Equal(t, ledger.ResultRecordNotFound, l.SetSellShares(buyID, 5))
	assert.Len(t, updates, 4)
}

func TestSetDepositSecurityClearsWithZero(t *testing.T) {
	l, cleanup := apptesting.NewTestLedger(t)
	defer cleanup()

	accountID := apptesting.SeedAccount(t, l, "Broker")
	securityID := apptesting.SeedSecurity(t, l, "ACME", "Acme Corp")
	require.Equal(t, ledger.ResultOK, l.AddDepositTransaction(accountID, 1, securityID, 10000))
	txID := l.LastInsertedID()

	require.Equal(t, ledger.ResultOK, l.SetDepositSecurity(txID, 0))

	txs, err := l.TransactionsForAccount(accountID)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, ledger.DepositDetail{SecurityID: 0, Value: 10000}, txs[0].Detail)
}

func TestRemoveSecurityDetachesCashTransactions(t *testing.T) {
	l, cleanup := apptesting.NewTestLedger(t)
	defer cleanup()

	accountID := apptesting.SeedAccount(t, l, "Broker")
	securityID := apptesting.SeedSecurity(t, l, "ACME", "Acme Corp")
	require.Equal(t, ledger.ResultOK, l.AddDepositTransaction(accountID, 1, securityID, 10000))
	apptesting.SeedBuy(t, l, accountID, 2, securityID, 10, 1000, 50)

	require.Equal(t, ledger.ResultOK, l.RemoveSecurity(securityID))

	// The buy cascades away with its security; the deposit survives with
	// its security reference cleared.
	txs, err := l.TransactionsForAccount(accountID)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, ledger.ActionDeposit, txs[0].Action)
	assert.Equal(t, ledger.DepositDetail{SecurityID: 0, Value: 10000}, txs[0].Detail)
}

func TestTransactionsOrderedByDate(t *testing.T) {
	l, cleanup := apptesting.NewTestLedger(t)
	defer cleanup()

	accountID := apptesting.SeedAccount(t, l, "Broker")
	require.Equal(t, ledger.ResultOK, l.AddDepositTransaction(accountID, 30, 0, 100))
	require.Equal(t, ledger.ResultOK, l.AddDepositTransaction(accountID, 10, 0, 200))
	require.Equal(t, ledger.ResultOK, l.AddDepositTransaction(accountID, 20, 0, 300))

	txs, err := l.Transactions()
	require.NoError(t, err)
	require.Len(t, txs, 3)
	assert.Equal(t, int64(10), txs[0].Date)
	assert.Equal(t, int64(20), txs[1].Date)
	assert.Equal(t, int64(30), txs[2].Date)
}
