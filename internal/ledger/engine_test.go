package ledger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pViewApp/pview3-sub000/internal/ledger"
	apptesting "github.com/pViewApp/pview3-sub000/internal/testing"
)

func TestAddAccount(t *testing.T) {
	l, cleanup := apptesting.NewTestLedger(t)
	defer cleanup()

	var added []ledger.AccountAdded
	sub := l.Bus().AccountAdded.Subscribe(func(e ledger.AccountAdded) {
		added = append(added, e)
	})
	defer sub.Close()

	require.Equal(t, ledger.ResultOK, l.AddAccount("Broker"))
	id := l.LastInsertedID()
	assert.Greater(t, id, int64(0))

	require.Len(t, added, 1)
	assert.Equal(t, id, added[0].ID)
	assert.Equal(t, "Broker", added[0].Name)

	accounts, err := l.Accounts()
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "Broker", accounts[0].Name)
}

func TestSetAccountName(t *testing.T) {
	l, cleanup := apptesting.NewTestLedger(t)
	defer cleanup()

	id := apptesting.SeedAccount(t, l, "Broker")

	var updated int
	sub := l.Bus().AccountUpdated.Subscribe(func(ledger.AccountUpdated) { updated++ })
	defer sub.Close()

	require.Equal(t, ledger.ResultOK, l.SetAccountName(id, "Retirement"))
	assert.Equal(t, 1, updated)

	accounts, err := l.Accounts()
	require.NoError(t, err)
	assert.Equal(t, "Retirement", accounts[0].Name)

	// Renaming a nonexistent account is distinguished from storage errors.
	assert.Equal(t, ledger.ResultRecordNotFound, l.SetAccountName(9999, "Nobody"))
	assert.Equal(t, 1, updated, "no notification for a missed update")
}

func TestRemoveAccountCascades(t *testing.T) {
	l, cleanup := apptesting.NewTestLedger(t)
	defer cleanup()

	accountID := apptesting.SeedAccount(t, l, "Broker")
	securityID := apptesting.SeedSecurity(t, l, "ACME", "Acme Corp")
	apptesting.SeedBuy(t, l, accountID, 1, securityID, 10, 1000, 50)
	require.Equal(t, ledger.ResultOK, l.AddDepositTransaction(accountID, 2, 0, 5000))

	count, err := l.TransactionCountForAccount(accountID)
	require.NoError(t, err)
	require.Equal(t, int64(2), count)

	var removed []ledger.AccountRemoved
	sub := l.Bus().AccountRemoved.Subscribe(func(e ledger.AccountRemoved) { removed = append(removed, e) })
	defer sub.Close()

	require.Equal(t, ledger.ResultOK, l.RemoveAccount(accountID))
	require.Len(t, removed, 1)
	assert.Equal(t, accountID, removed[0].ID)

	count, err = l.TransactionCountForAccount(accountID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	// Detail rows are gone too, not just the master rows.
	row, err := l.QueryRow(`SELECT COUNT(*) FROM BuyTransactions`)
	require.NoError(t, err)
	var details int64
	require.NoError(t, row.Scan(&details))
	assert.Equal(t, int64(0), details)

	// Removing again reports the missing record and stays silent.
	assert.Equal(t, ledger.ResultRecordNotFound, l.RemoveAccount(accountID))
	assert.Len(t, removed, 1)
}

func TestAddSecurityUniqueSymbol(t *testing.T) {
	l, cleanup := apptesting.NewTestLedger(t)
	defer cleanup()

	require.Equal(t, ledger.ResultOK, l.AddSecurity("ACME", "Acme Corp", "Equity", "Technology"))
	assert.Equal(t, ledger.ResultConstraintViolation, l.AddSecurity("ACME", "Acme Clone", "Equity", "Technology"))
	assert.NotEmpty(t, l.ErrorMessage())
}

func TestSetSecurityFields(t *testing.T) {
	l, cleanup := apptesting.NewTestLedger(t)
	defer cleanup()

	id := apptesting.SeedSecurity(t, l, "ACME", "Acme Corp")

	var updated int
	sub := l.Bus().SecurityUpdated.Subscribe(func(ledger.SecurityUpdated) { updated++ })
	defer sub.Close()

	require.Equal(t, ledger.ResultOK, l.SetSecurityName(id, "Acme Corporation"))
	require.Equal(t, ledger.ResultOK, l.SetSecurityAssetClass(id, "Bond"))
	require.Equal(t, ledger.ResultOK, l.SetSecuritySector(id, "Industrials"))
	assert.Equal(t, 3, updated)

	securities, err := l.Securities()
	require.NoError(t, err)
	require.Len(t, securities, 1)
	assert.Equal(t, "Acme Corporation", securities[0].Name)
	assert.Equal(t, "Bond", securities[0].AssetClass)
	assert.Equal(t, "Industrials", securities[0].Sector)

	assert.Equal(t, ledger.ResultRecordNotFound, l.SetSecurityName(9999, "Ghost"))
}

func TestRemoveSecurityCascadesPrices(t *testing.T) {
	l, cleanup := apptesting.NewTestLedger(t)
	defer cleanup()

	id := apptesting.SeedSecurity(t, l, "ACME", "Acme Corp")
	require.Equal(t, ledger.ResultOK, l.SetSecurityPrice(id, 1, 1000))
	require.Equal(t, ledger.ResultOK, l.SetSecurityPrice(id, 2, 1100))

	require.Equal(t, ledger.ResultOK, l.RemoveSecurity(id))

	prices, err := l.PricesForSecurity(id)
	require.NoError(t, err)
	assert.Empty(t, prices)
}

func TestSetSecurityPriceUpsert(t *testing.T) {
	l, cleanup := apptesting.NewTestLedger(t)
	defer cleanup()

	id := apptesting.SeedSecurity(t, l, "ACME", "Acme Corp")

	var sets []ledger.PriceSet
	sub := l.Bus().PriceSet.Subscribe(func(e ledger.PriceSet) { sets = append(sets, e) })
	defer sub.Close()

	require.Equal(t, ledger.ResultOK, l.SetSecurityPrice(id, 5, 1000))
	require.Equal(t, ledger.ResultOK, l.SetSecurityPrice(id, 5, 1200))
	assert.Len(t, sets, 2)

	// Exactly one row per (security, date), holding the last written price.
	prices, err := l.PricesForSecurity(id)
	require.NoError(t, err)
	require.Len(t, prices, 1)
	assert.Equal(t, int64(5), prices[0].Date)
	assert.Equal(t, int64(1200), prices[0].Price)
}

func TestRemoveSecurityPrice(t *testing.T) {
	l, cleanup := apptesting.NewTestLedger(t)
	defer cleanup()

	id := apptesting.SeedSecurity(t, l, "ACME", "Acme Corp")
	require.Equal(t, ledger.ResultOK, l.SetSecurityPrice(id, 5, 1000))

	var removed int
	sub := l.Bus().PriceRemoved.Subscribe(func(ledger.PriceRemoved) { removed++ })
	defer sub.Close()

	require.Equal(t, ledger.ResultOK, l.RemoveSecurityPrice(id, 5))
	assert.Equal(t, 1, removed)

	assert.Equal(t, ledger.ResultRecordNotFound, l.RemoveSecurityPrice(id, 5))
	assert.Equal(t, 1, removed)
}

func TestReadPathRejectsMutations(t *testing.T) {
	l, cleanup := apptesting.NewTestLedger(t)
	defer cleanup()

	_, err := l.Query(`INSERT INTO Accounts (Name) VALUES ('Sneaky')`)
	require.Error(t, err)
	assert.Equal(t, ledger.ResultModificationProhibited, ledger.ResultFromError(err))

	accounts, listErr := l.Accounts()
	require.NoError(t, listErr)
	assert.Empty(t, accounts)
}

func TestUserTransaction(t *testing.T) {
	l, cleanup := apptesting.NewTestLedger(t)
	defer cleanup()

	var rollbacks int
	sub := l.Bus().RolledBack.Subscribe(func(ledger.RolledBack) { rollbacks++ })
	defer sub.Close()

	require.Equal(t, ledger.ResultOK, l.BeginTransaction())

	// The top-level transaction is not nestable.
	assert.Equal(t, ledger.ResultStorageError, l.BeginTransaction())
	assert.Contains(t, l.ErrorMessage(), "already in progress")

	require.Equal(t, ledger.ResultOK, l.AddAccount("Broker"))
	require.Equal(t, ledger.ResultOK, l.CommitTransaction())
	assert.Equal(t, 0, rollbacks)

	accounts, err := l.Accounts()
	require.NoError(t, err)
	require.Len(t, accounts, 1)

	// A user-initiated rollback undoes the work and fires the signal.
	require.Equal(t, ledger.ResultOK, l.BeginTransaction())
	require.Equal(t, ledger.ResultOK, l.AddAccount("Scratch"))
	require.Equal(t, ledger.ResultOK, l.RollbackTransaction())
	assert.Equal(t, 1, rollbacks)

	accounts, err = l.Accounts()
	require.NoError(t, err)
	assert.Len(t, accounts, 1)

	// Commit and rollback without an open transaction are rejected.
	assert.Equal(t, ledger.ResultStorageError, l.CommitTransaction())
	assert.Equal(t, ledger.ResultStorageError, l.RollbackTransaction())
	assert.Equal(t, 1, rollbacks)
}

func TestReopenRoundTrip(t *testing.T) {
	path, cleanupFile := apptesting.CreateTempDBFile(t, "ledger")
	defer cleanupFile()

	l := apptesting.OpenTestLedger(t, path)
	accountID := apptesting.SeedAccount(t, l, "Broker")
	securityID := apptesting.SeedSecurity(t, l, "ACME", "Acme Corp")
	txID := apptesting.SeedBuy(t, l, accountID, 7, securityID, 10, 1000, 50)
	require.Equal(t, ledger.ResultOK, l.SetSecurityPrice(securityID, 8, 1100))
	assert.Equal(t, path, l.FilePath())
	require.NoError(t, l.Close())

	reopened := apptesting.OpenTestLedger(t, path)
	defer reopened.Close()

	accounts, err := reopened.Accounts()
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, ledger.Account{ID: accountID, Name: "Broker"}, accounts[0])

	securities, err := reopened.Securities()
	require.NoError(t, err)
	require.Len(t, securities, 1)
	assert.Equal(t, "ACME", securities[0].Symbol)

	txs, err := reopened.TransactionsForAccount(accountID)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, txID, txs[0].ID)
	assert.Equal(t, int64(7), txs[0].Date)
	assert.Equal(t, ledger.ActionBuy, txs[0].Action)
	assert.Equal(t, ledger.BuyDetail{
		SecurityID: securityID,
		Shares:     10,
		SharePrice: 1000,
		Commission: 50,
	}, txs[0].Detail)

	prices, err := reopened.PricesForSecurity(securityID)
	require.NoError(t, err)
	require.Len(t, prices, 1)
	assert.Equal(t, ledger.SecurityPrice{SecurityID: securityID, Date: 8, Price: 1100}, prices[0])
}

func TestCopyTo(t *testing.T) {
	l, cleanup := apptesting.NewTestLedger(t)
	defer cleanup()

	accountID := apptesting.SeedAccount(t, l, "Broker")
	securityID := apptesting.SeedSecurity(t, l, "ACME", "Acme Corp")
	apptesting.SeedBuy(t, l, accountID, 1, securityID, 10, 1000, 50)

	backupPath, cleanupBackup := apptesting.CreateTempDBFile(t, "backup")
	defer cleanupBackup()

	require.Equal(t, ledger.ResultOK, l.CopyTo(backupPath))

	restored := apptesting.OpenTestLedger(t, backupPath)
	defer restored.Close()

	count, err := restored.TransactionCountForAccount(accountID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
