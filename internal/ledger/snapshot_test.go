package ledger_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/pViewApp/pview3-sub000/internal/ledger"
	apptesting "github.com/pViewApp/pview3-sub000/internal/testing"
)

func TestSnapshotRoundTrip(t *testing.T) {
	src, cleanupSrc := apptesting.NewTestLedger(t)
	defer cleanupSrc()

	accountID := apptesting.SeedAccount(t, src, "Broker")
	securityID := apptesting.SeedSecurity(t, src, "ACME", "Acme Corp")
	require.Equal(t, ledger.ResultOK, src.SetSecurityPrice(securityID, 2, 1100))
	apptesting.SeedBuy(t, src, accountID, 1, securityID, 10, 1000, 50)
	apptesting.SeedSell(t, src, accountID, 3, securityID, 4, 1200, 25)
	require.Equal(t, ledger.ResultOK, src.AddDepositTransaction(accountID, 1, 0, 20000))
	require.Equal(t, ledger.ResultOK, src.AddDividendTransaction(accountID, 4, securityID, 300))
	require.Equal(t, ledger.ResultOK, src.AddInterestTransaction(accountID, 5, securityID, 120))

	var buf bytes.Buffer
	require.NoError(t, src.ExportSnapshot(&buf))

	dst, cleanupDst := apptesting.NewTestLedger(t)
	defer cleanupDst()

	// The destination has contents of its own; import replaces them.
	apptesting.SeedAccount(t, dst, "Stale")

	var changed int
	sub := dst.Bus().Changed.Subscribe(func(ledger.Changed) { changed++ })
	defer sub.Close()

	require.NoError(t, dst.ImportSnapshot(&buf))
	assert.Equal(t, 1, changed, "import fires the generic signal once")

	wantAccounts, err := src.Accounts()
	require.NoError(t, err)
	gotAccounts, err := dst.Accounts()
	require.NoError(t, err)
	assert.Equal(t, wantAccounts, gotAccounts)

	wantSecurities, err := src.Securities()
	require.NoError(t, err)
	gotSecurities, err := dst.Securities()
	require.NoError(t, err)
	assert.Equal(t, wantSecurities, gotSecurities)

	wantPrices, err := src.PricesForSecurity(securityID)
	require.NoError(t, err)
	gotPrices, err := dst.PricesForSecurity(securityID)
	require.NoError(t, err)
	assert.Equal(t, wantPrices, gotPrices)

	wantTxs, err := src.Transactions()
	require.NoError(t, err)
	gotTxs, err := dst.Transactions()
	require.NoError(t, err)
	assert.Equal(t, wantTxs, gotTxs)
}

func TestImportSnapshotRejectsGarbage(t *testing.T) {
	l, cleanup := apptesting.NewTestLedger(t)
	defer cleanup()

	apptesting.SeedAccount(t, l, "Broker")

	err := l.ImportSnapshot(bytes.NewReader([]byte("not msgpack at all")))
	require.Error(t, err)

	// The existing contents survive a failed import.
	accounts, listErr := l.Accounts()
	require.NoError(t, listErr)
	assert.Len(t, accounts, 1)
}

func TestImportSnapshotRollsBackOnBadRow(t *testing.T) {
	l, cleanup := apptesting.NewTestLedger(t)
	defer cleanup()

	apptesting.SeedAccount(t, l, "Broker")
	apptesting.SeedSecurity(t, l, "ACME", "Acme Corp")

	// A snapshot whose dividend references a security it does not carry.
	var bad bytes.Buffer
	require.NoError(t, msgpack.NewEncoder(&bad).Encode(map[string]any{
		"accounts": []map[string]any{
			{"id": int64(1), "name": "Imported"},
		},
		"transactions": []map[string]any{
			{
				"id":          int64(1),
				"account_id":  int64(1),
				"date":        int64(2),
				"action":      int64(ledger.ActionDividend),
				"security_id": int64(999),
				"amount":      int64(300),
			},
		},
	}))

	require.Error(t, l.ImportSnapshot(&bad))

	// The savepoint unwound the whole import, including the table clears.
	accounts, err := l.Accounts()
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "Broker", accounts[0].Name)

	securities, err := l.Securities()
	require.NoError(t, err)
	require.Len(t, securities, 1)
	assert.Equal(t, "ACME", securities[0].Symbol)
}

func TestImportSnapshotRejectsUnknownAction(t *testing.T) {
	l, cleanup := apptesting.NewTestLedger(t)
	defer cleanup()

	accountID := apptesting.SeedAccount(t, l, "Broker")
	require.Equal(t, ledger.ResultOK, l.AddDepositTransaction(accountID, 1, 0, 5000))

	// An action value outside the closed enumeration must fail the whole
	// import, not be coerced onto some detail table.
	var bad bytes.Buffer
	require.NoError(t, msgpack.NewEncoder(&bad).Encode(map[string]any{
		"accounts": []map[string]any{
			{"id": int64(1), "name": "Imported"},
		},
		"transactions": []map[string]any{
			{
				"id":         int64(1),
				"account_id": int64(1),
				"date":       int64(2),
				"action":     int64(99),
				"amount":     int64(300),
			},
		},
	}))

	err := l.ImportSnapshot(&bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown action")

	// The previous contents are untouched and still readable.
	txs, err := l.Transactions()
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, ledger.DepositDetail{SecurityID: 0, Value: 5000}, txs[0].Detail)
}
