package ledger

import (
	"database/sql"
	"fmt"
)

// Row wrapper types. These are lightweight copies of persisted rows, valid
// snapshots of the ledger at read time; they hold no reference back into the
// engine.

// Account is one account row.
type Account struct {
	ID   int64
	Name string
}

// Security is one security row.
type Security struct {
	ID         int64
	Symbol     string
	Name       string
	AssetClass string
	Sector     string
}

// SecurityPrice is one recorded price row.
type SecurityPrice struct {
	SecurityID int64
	Date       int64
	Price      int64
}

// Transaction is one master row joined with its detail variant.
type Transaction struct {
	ID        int64
	AccountID int64
	Date      int64
	Action    Action
	Detail    Detail
}

// Query runs a read statement through the query_only reader connection,
// reusing a prepared statement per query text. Statements that would mutate
// data are rejected by the reader; ResultFromError reports such failures as
// ResultModificationProhibited.
func (l *Ledger) Query(query string, args ...any) (*sql.Rows, error) {
	stmt, err := l.reads.stmt(l.ctx, query)
	if err != nil {
		l.lastErr = err.Error()
		return nil, err
	}
	rows, err := stmt.QueryContext(l.ctx, args...)
	if err != nil {
		l.lastErr = err.Error()
		return nil, err
	}
	return rows, nil
}

// QueryRow runs a single-row read statement through the reader connection.
func (l *Ledger) QueryRow(query string, args ...any) (*sql.Row, error) {
	stmt, err := l.reads.stmt(l.ctx, query)
	if err != nil {
		l.lastErr = err.Error()
		return nil, err
	}
	return stmt.QueryRowContext(l.ctx, args...), nil
}

// Accounts returns every account ordered by id.
func (l *Ledger) Accounts() ([]Account, error) {
	rows, err := l.Query(`SELECT Id, Name FROM Accounts ORDER BY Id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.Name); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// Securities returns every security ordered by symbol.
func (l *Ledger) Securities() ([]Security, error) {
	rows, err := l.Query(`SELECT Id, Symbol, Name, AssetClass, Sector FROM Securities ORDER BY Symbol`)
	if err != nil {
		return nil, fmt.Errorf("failed to list securities: %w", err)
	}
	defer rows.Close()

	var securities []Security
	for rows.Next() {
		var s Security
		if err := rows.Scan(&s.ID, &s.Symbol, &s.Name, &s.AssetClass, &s.Sector); err != nil {
			return nil, fmt.Errorf("failed to scan security: %w", err)
		}
		securities = append(securities, s)
	}
	return securities, rows.Err()
}

// PricesForSecurity returns the recorded price history of a security
// ordered by date.
func (l *Ledger) PricesForSecurity(securityID int64) ([]SecurityPrice, error) {
	rows, err := l.Query(`SELECT SecurityId, Date, Price FROM SecurityPrices WHERE SecurityId = ? ORDER BY Date`, securityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list prices: %w", err)
	}
	defer rows.Close()

	var prices []SecurityPrice
	for rows.Next() {
		var p SecurityPrice
		if err := rows.Scan(&p.SecurityID, &p.Date, &p.Price); err != nil {
			return nil, fmt.Errorf("failed to scan price: %w", err)
		}
		prices = append(prices, p)
	}
	return prices, rows.Err()
}

// TransactionCountForAccount returns the number of transactions owned by an
// account.
func (l *Ledger) TransactionCountForAccount(accountID int64) (int64, error) {
	row, err := l.QueryRow(`SELECT COUNT(*) FROM Transactions WHERE AccountId = ?`, accountID)
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	var count int64
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}

// TransactionsForAccount returns the account's transactions with their
// detail rows, ordered by date then id.
func (l *Ledger) TransactionsForAccount(accountID int64) ([]Transaction, error) {
	return l.queryTransactions(`SELECT Id, AccountId, Date, Action FROM Transactions WHERE AccountId = ? ORDER BY Date, Id`, accountID)
}

// Transactions returns every transaction in the ledger with its detail row,
// ordered by date then id.
func (l *Ledger) Transactions() ([]Transaction, error) {
	return l.queryTransactions(`SELECT Id, AccountId, Date, Action FROM Transactions ORDER BY Date, Id`)
}

func (l *Ledger) queryTransactions(query string, args ...any) ([]Transaction, error) {
	rows, err := l.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	// Collect master rows first; detail lookups reuse the same reader
	// connection and must not run while the cursor is open.
	var txs []Transaction
	for rows.Next() {
		var t Transaction
		var action int64
		if err := rows.Scan(&t.ID, &t.AccountID, &t.Date, &action); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		t.Action = Action(action)
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range txs {
		detail, err := l.readDetail(txs[i].ID, txs[i].Action)
		if err != nil {
			return nil, err
		}
		txs[i].Detail = detail
	}
	return txs, nil
}

func (l *Ledger) readDetail(txID int64, action Action) (Detail, error) {
	switch action {
	case ActionBuy:
		row, err := l.QueryRow(`SELECT SecurityId, Shares, SharePrice, Commission FROM BuyTransactions WHERE TransactionId = ?`, txID)
		if err != nil {
			return nil, err
		}
		var d BuyDetail
		if err := row.Scan(&d.SecurityID, &d.Shares, &d.SharePrice, &d.Commission); err != nil {
			return nil, fmt.Errorf("failed to read buy detail for transaction %d: %w", txID, err)
		}
		return d, nil

	case ActionSell:
		row, err := l.QueryRow(`SELECT SecurityId, Shares, SharePrice, Commission FROM SellTransactions WHERE TransactionId = ?`, txID)
		if err != nil {
			return nil, err
		}
		var d SellDetail
		if err := row.Scan(&d.SecurityID, &d.Shares, &d.SharePrice, &d.Commission); err != nil {
			return nil, fmt.Errorf("failed to read sell detail for transaction %d: %w", txID, err)
		}
		return d, nil

	case ActionDeposit:
		security, value, err := l.readCashDetail(`SELECT SecurityId, Amount FROM DepositTransactions WHERE TransactionId = ?`, txID)
		if err != nil {
			return nil, fmt.Errorf("failed to read deposit detail for transaction %d: %w", txID, err)
		}
		return DepositDetail{SecurityID: security, Value: value}, nil

	case ActionWithdraw:
		security, value, err := l.readCashDetail(`SELECT SecurityId, Amount FROM WithdrawTransactions WHERE TransactionId = ?`, txID)
		if err != nil {
			return nil, fmt.Errorf("failed to read withdraw detail for transaction %d: %w", txID, err)
		}
		return WithdrawDetail{SecurityID: security, Value: value}, nil

	case ActionDividend:
		row, err := l.QueryRow(`SELECT SecurityId, Amount FROM DividendTransactions WHERE TransactionId = ?`, txID)
		if err != nil {
			return nil, err
		}
		var d DividendDetail
		if err := row.Scan(&d.SecurityID, &d.Value); err != nil {
			return nil, fmt.Errorf("failed to read dividend detail for transaction %d: %w", txID, err)
		}
		return d, nil

	case ActionInterest:
		row, err := l.QueryRow(`SELECT SecurityId, Amount FROM InterestTransactions WHERE TransactionId = ?`, txID)
		if err != nil {
			return nil, err
		}
		var d InterestDetail
		if err := row.Scan(&d.SecurityID, &d.Value); err != nil {
			return nil, fmt.Errorf("failed to read interest detail for transaction %d: %w", txID, err)
		}
		return d, nil
	}

	return nil, fmt.Errorf("unknown action %d for transaction %d", action, txID)
}

func (l *Ledger) readCashDetail(query string, txID int64) (securityID int64, value int64, err error) {
	row, err := l.QueryRow(query, txID)
	if err != nil {
		return 0, 0, err
	}
	var security sql.NullInt64
	if err := row.Scan(&security, &value); err != nil {
		return 0, 0, err
	}
	if security.Valid {
		securityID = security.Int64
	}
	return securityID, value, nil
}
