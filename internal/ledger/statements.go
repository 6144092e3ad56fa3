package ledger

import (
	"context"
	"database/sql"
	"fmt"
)

// Operation identifiers for the mutation statement cache. Each identifier
// maps to one precompiled statement bound to the engine's writer connection.
const (
	opInsertAccount     = "insertAccount"
	opUpdateAccountName = "updateAccountName"
	opDeleteAccount     = "deleteAccount"

	opInsertSecurity           = "insertSecurity"
	opUpdateSecurityName       = "updateSecurityName"
	opUpdateSecurityAssetClass = "updateSecurityAssetClass"
	opUpdateSecuritySector     = "updateSecuritySector"
	opDeleteSecurity           = "deleteSecurity"
	opDeleteSecurityTrades     = "deleteSecurityTrades"

	opUpsertPrice = "upsertPrice"
	opDeletePrice = "deletePrice"

	opInsertTransaction        = "insertTransaction"
	opUpdateTransactionDate    = "updateTransactionDate"
	opUpdateTransactionAccount = "updateTransactionAccount"
	opDeleteTransaction        = "deleteTransaction"

	opInsertBuy      = "insertBuy"
	opInsertSell     = "insertSell"
	opInsertDeposit  = "insertDeposit"
	opInsertWithdraw = "insertWithdraw"
	opInsertDividend = "insertDividend"
	opInsertInterest = "insertInterest"

	opSetBuySecurity   = "setBuySecurity"
	opSetBuyShares     = "setBuyShares"
	opSetBuySharePrice = "setBuySharePrice"
	opSetBuyCommission = "setBuyCommission"

	opSetSellSecurity   = "setSellSecurity"
	opSetSellShares     = "setSellShares"
	opSetSellSharePrice = "setSellSharePrice"
	opSetSellCommission = "setSellCommission"

	opSetDepositSecurity = "setDepositSecurity"
	opSetDepositAmount   = "setDepositAmount"

	opSetWithdrawSecurity = "setWithdrawSecurity"
	opSetWithdrawAmount   = "setWithdrawAmount"

	opSetDividendSecurity = "setDividendSecurity"
	opSetDividendAmount   = "setDividendAmount"

	opSetInterestSecurity = "setInterestSecurity"
	opSetInterestAmount   = "setInterestAmount"
)

// mutationSQL is the fixed set of mutation statements. Prices use
// insert-or-replace so at most one row exists per (security, date).
var mutationSQL = map[string]string{
	opInsertAccount:     `INSERT INTO Accounts (Name) VALUES (?)`,
	opUpdateAccountName: `UPDATE Accounts SET Name = ? WHERE Id = ?`,
	opDeleteAccount:     `DELETE FROM Accounts WHERE Id = ?`,

	opInsertSecurity:           `INSERT INTO Securities (Symbol, Name, AssetClass, Sector) VALUES (?, ?, ?, ?)`,
	opUpdateSecurityName:       `UPDATE Securities SET Name = ? WHERE Id = ?`,
	opUpdateSecurityAssetClass: `UPDATE Securities SET AssetClass = ? WHERE Id = ?`,
	opUpdateSecuritySector:     `UPDATE Securities SET Sector = ? WHERE Id = ?`,
	opDeleteSecurity:           `DELETE FROM Securities WHERE Id = ?`,
	opDeleteSecurityTrades: `DELETE FROM Transactions WHERE Id IN (
		SELECT TransactionId FROM BuyTransactions WHERE SecurityId = ?1
		UNION SELECT TransactionId FROM SellTransactions WHERE SecurityId = ?1
		UNION SELECT TransactionId FROM DividendTransactions WHERE SecurityId = ?1
		UNION SELECT TransactionId FROM InterestTransactions WHERE SecurityId = ?1
	)`,

	opUpsertPrice: `INSERT OR REPLACE INTO SecurityPrices (SecurityId, Date, Price) VALUES (?, ?, ?)`,
	opDeletePrice: `DELETE FROM SecurityPrices WHERE SecurityId = ? AND Date = ?`,

	opInsertTransaction:        `INSERT INTO Transactions (AccountId, Date, Action) VALUES (?, ?, ?)`,
	opUpdateTransactionDate:    `UPDATE Transactions SET Date = ? WHERE Id = ?`,
	opUpdateTransactionAccount: `UPDATE Transactions SET AccountId = ? WHERE Id = ?`,
	opDeleteTransaction:        `DELETE FROM Transactions WHERE Id = ?`,

	opInsertBuy:      `INSERT INTO BuyTransactions (TransactionId, SecurityId, Shares, SharePrice, Commission) VALUES (?, ?, ?, ?, ?)`,
	opInsertSell:     `INSERT INTO SellTransactions (TransactionId, SecurityId, Shares, SharePrice, Commission) VALUES (?, ?, ?, ?, ?)`,
	opInsertDeposit:  `INSERT INTO DepositTransactions (TransactionId, SecurityId, Amount) VALUES (?, ?, ?)`,
	opInsertWithdraw: `INSERT INTO WithdrawTransactions (TransactionId, SecurityId, Amount) VALUES (?, ?, ?)`,
	opInsertDividend: `INSERT INTO DividendTransactions (TransactionId, SecurityId, Amount) VALUES (?, ?, ?)`,
	opInsertInterest: `INSERT INTO InterestTransactions (TransactionId, SecurityId, Amount) VALUES (?, ?, ?)`,

	opSetBuySecurity:   `UPDATE BuyTransactions SET SecurityId = ? WHERE TransactionId = ?`,
	opSetBuyShares:     `UPDATE BuyTransactions SET Shares = ? WHERE TransactionId = ?`,
	opSetBuySharePrice: `UPDATE BuyTransactions SET SharePrice = ? WHERE TransactionId = ?`,
	opSetBuyCommission: `UPDATE BuyTransactions SET Commission = ? WHERE TransactionId = ?`,

	opSetSellSecurity:   `UPDATE SellTransactions SET SecurityId = ? WHERE TransactionId = ?`,
	opSetSellShares:     `UPDATE SellTransactions SET Shares = ? WHERE TransactionId = ?`,
	opSetSellSharePrice: `UPDATE SellTransactions SET SharePrice = ? WHERE TransactionId = ?`,
	opSetSellCommission: `UPDATE SellTransactions SET Commission = ? WHERE TransactionId = ?`,

	opSetDepositSecurity: `UPDATE DepositTransactions SET SecurityId = ? WHERE TransactionId = ?`,
	opSetDepositAmount:   `UPDATE DepositTransactions SET Amount = ? WHERE TransactionId = ?`,

	opSetWithdrawSecurity: `UPDATE WithdrawTransactions SET SecurityId = ? WHERE TransactionId = ?`,
	opSetWithdrawAmount:   `UPDATE WithdrawTransactions SET Amount = ? WHERE TransactionId = ?`,

	opSetDividendSecurity: `UPDATE DividendTransactions SET SecurityId = ? WHERE TransactionId = ?`,
	opSetDividendAmount:   `UPDATE DividendTransactions SET Amount = ? WHERE TransactionId = ?`,

	opSetInterestSecurity: `UPDATE InterestTransactions SET SecurityId = ? WHERE TransactionId = ?`,
	opSetInterestAmount:   `UPDATE InterestTransactions SET Amount = ? WHERE TransactionId = ?`,
}

// stmtCache owns the precompiled mutation statements of one open ledger.
// All statements are bound to the engine's writer connection at open time
// and closed together at Close. There is no global cache across instances.
type stmtCache struct {
	conn  *sql.Conn
	stmts map[string]*sql.Stmt
}

func newStmtCache(ctx context.Context, conn *sql.Conn) (*stmtCache, error) {
	c := &stmtCache{
		conn:  conn,
		stmts: make(map[string]*sql.Stmt, len(mutationSQL)),
	}
	for op, query := range mutationSQL {
		stmt, err := conn.PrepareContext(ctx, query)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to prepare %s: %w", op, err)
		}
		c.stmts[op] = stmt
	}
	return c, nil
}

// get returns the precompiled statement for op. Unknown operation
// identifiers are programming errors and panic.
func (c *stmtCache) get(op string) *sql.Stmt {
	stmt, ok := c.stmts[op]
	if !ok {
		panic(fmt.Sprintf("ledger: no prepared statement for operation %q", op))
	}
	return stmt
}

// Close closes every cached statement.
func (c *stmtCache) Close() {
	for _, stmt := range c.stmts {
		_ = stmt.Close()
	}
	c.stmts = nil
}

// readCache lazily prepares and reuses read statements on the query_only
// reader connection, keyed by SQL text. A statement that would mutate data
// fails on that connection with SQLITE_READONLY, which the result taxonomy
// surfaces as ResultModificationProhibited.
type readCache struct {
	conn  *sql.Conn
	stmts map[string]*sql.Stmt
}

func newReadCache(conn *sql.Conn) *readCache {
	return &readCache{
		conn:  conn,
		stmts: make(map[string]*sql.Stmt),
	}
}

func (c *readCache) stmt(ctx context.Context, query string) (*sql.Stmt, error) {
	if stmt, ok := c.stmts[query]; ok {
		return stmt, nil
	}
	stmt, err := c.conn.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}
	c.stmts[query] = stmt
	return stmt, nil
}

// Close closes every cached statement.
func (c *readCache) Close() {
	for _, stmt := range c.stmts {
		_ = stmt.Close()
	}
	c.stmts = nil
}
