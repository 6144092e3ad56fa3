package ledger

import (
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// Snapshot is a portable copy of every row in the ledger, for off-device
// backup of an open ledger. The file-level CopyTo covers whole-file backup;
// snapshots cover export into another open engine.
type Snapshot struct {
	Accounts     []snapshotAccount     `msgpack:"accounts"`
	Securities   []snapshotSecurity    `msgpack:"securities"`
	Prices       []snapshotPrice       `msgpack:"prices"`
	Transactions []snapshotTransaction `msgpack:"transactions"`
}

type snapshotAccount struct {
	ID   int64  `msgpack:"id"`
	Name string `msgpack:"name"`
}

type snapshotSecurity struct {
	ID         int64  `msgpack:"id"`
	Symbol     string `msgpack:"symbol"`
	Name       string `msgpack:"name"`
	AssetClass string `msgpack:"asset_class"`
	Sector     string `msgpack:"sector"`
}

type snapshotPrice struct {
	SecurityID int64 `msgpack:"security_id"`
	Date       int64 `msgpack:"date"`
	Price      int64 `msgpack:"price"`
}

type snapshotTransaction struct {
	ID         int64 `msgpack:"id"`
	AccountID  int64 `msgpack:"account_id"`
	Date       int64 `msgpack:"date"`
	Action     int64 `msgpack:"action"`
	SecurityID int64 `msgpack:"security_id"` // zero when absent
	Shares     int64 `msgpack:"shares"`
	SharePrice int64 `msgpack:"share_price"`
	Commission int64 `msgpack:"commission"`
	Amount     int64 `msgpack:"amount"`
}

// ExportSnapshot writes a msgpack snapshot of the whole ledger to w.
func (l *Ledger) ExportSnapshot(w io.Writer) error {
	snap := Snapshot{}

	accounts, err := l.Accounts()
	if err != nil {
		return err
	}
	for _, a := range accounts {
		snap.Accounts = append(snap.Accounts, snapshotAccount{ID: a.ID, Name: a.Name})
	}

	securities, err := l.Securities()
	if err != nil {
		return err
	}
	for _, s := range securities {
		snap.Securities = append(snap.Securities, snapshotSecurity{
			ID:         s.ID,
			Symbol:     s.Symbol,
			Name:       s.Name,
			AssetClass: s.AssetClass,
			Sector:     s.Sector,
		})
		prices, err := l.PricesForSecurity(s.ID)
		if err != nil {
			return err
		}
		for _, p := range prices {
			snap.Prices = append(snap.Prices, snapshotPrice(p))
		}
	}

	txs, err := l.Transactions()
	if err != nil {
		return err
	}
	for _, t := range txs {
		st := snapshotTransaction{
			ID:        t.ID,
			AccountID: t.AccountID,
			Date:      t.Date,
			Action:    int64(t.Action),
		}
		switch d := t.Detail.(type) {
		case BuyDetail:
			st.SecurityID, st.Shares, st.SharePrice, st.Commission = d.SecurityID, d.Shares, d.SharePrice, d.Commission
		case SellDetail:
			st.SecurityID, st.Shares, st.SharePrice, st.Commission = d.SecurityID, d.Shares, d.SharePrice, d.Commission
		case DepositDetail:
			st.SecurityID, st.Amount = d.SecurityID, d.Value
		case WithdrawDetail:
			st.SecurityID, st.Amount = d.SecurityID, d.Value
		case DividendDetail:
			st.SecurityID, st.Amount = d.SecurityID, d.Value
		case InterestDetail:
			st.SecurityID, st.Amount = d.SecurityID, d.Value
		}
		snap.Transactions = append(snap.Transactions, st)
	}

	if err := msgpack.NewEncoder(w).Encode(&snap); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return nil
}

// ImportSnapshot replaces the ledger's contents with the snapshot read from
// r. The import runs inside one savepoint: on failure the ledger is left
// untouched. On success only the generic Changed signal fires, once.
func (l *Ledger) ImportSnapshot(r io.Reader) error {
	var snap Snapshot
	if err := msgpack.NewDecoder(r).Decode(&snap); err != nil {
		return fmt.Errorf("failed to decode snapshot: %w", err)
	}

	sp, err := l.sp.begin(l.ctx)
	if err != nil {
		return err
	}

	if err := l.importRows(&snap); err != nil {
		if rbErr := l.sp.rollback(l.ctx, sp); rbErr != nil {
			l.log.Error().Err(rbErr).Str("savepoint", sp).Msg("Savepoint rollback failed")
		}
		l.lastErr = err.Error()
		return err
	}

	if err := l.sp.release(l.ctx, sp); err != nil {
		return err
	}

	l.log.Info().
		Int("accounts", len(snap.Accounts)).
		Int("securities", len(snap.Securities)).
		Int("transactions", len(snap.Transactions)).
		Msg("Snapshot imported")
	l.bus.Changed.emit(Changed{})
	return nil
}

func (l *Ledger) importRows(snap *Snapshot) error {
	conn := l.db.WriterConn()

	// Bulk one-shot statements; these are not part of the recurring
	// operation set, so they bypass the statement cache.
	for _, stmt := range []string{
		`DELETE FROM Transactions`,
		`DELETE FROM SecurityPrices`,
		`DELETE FROM Securities`,
		`DELETE FROM Accounts`,
	} {
		if _, err := conn.ExecContext(l.ctx, stmt); err != nil {
			return fmt.Errorf("failed to clear ledger: %w", err)
		}
	}

	for _, a := range snap.Accounts {
		if _, err := conn.ExecContext(l.ctx, `INSERT INTO Accounts (Id, Name) VALUES (?, ?)`, a.ID, a.Name); err != nil {
			return fmt.Errorf("failed to import account %d: %w", a.ID, err)
		}
	}
	for _, s := range snap.Securities {
		if _, err := conn.ExecContext(l.ctx,
			`INSERT INTO Securities (Id, Symbol, Name, AssetClass, Sector) VALUES (?, ?, ?, ?, ?)`,
			s.ID, s.Symbol, s.Name, s.AssetClass, s.Sector); err != nil {
			return fmt.Errorf("failed to import security %s: %w", s.Symbol, err)
		}
	}
	for _, p := range snap.Prices {
		if _, err := conn.ExecContext(l.ctx,
			`INSERT INTO SecurityPrices (SecurityId, Date, Price) VALUES (?, ?, ?)`,
			p.SecurityID, p.Date, p.Price); err != nil {
			return fmt.Errorf("failed to import price for security %d: %w", p.SecurityID, err)
		}
	}
	for _, t := range snap.Transactions {
		d, err := detailFromSnapshot(t)
		if err != nil {
			return err
		}
		if _, err := conn.ExecContext(l.ctx,
			`INSERT INTO Transactions (Id, AccountId, Date, Action) VALUES (?, ?, ?, ?)`,
			t.ID, t.AccountID, t.Date, t.Action); err != nil {
			return fmt.Errorf("failed to import transaction %d: %w", t.ID, err)
		}
		if code := l.insertDetail(t.ID, d); code != ResultOK {
			return fmt.Errorf("failed to import detail for transaction %d: %s", t.ID, code)
		}
	}
	return nil
}

func detailFromSnapshot(t snapshotTransaction) (Detail, error) {
	switch Action(t.Action) {
	case ActionBuy:
		return BuyDetail{SecurityID: t.SecurityID, Shares: t.Shares, SharePrice: t.SharePrice, Commission: t.Commission}, nil
	case ActionSell:
		return SellDetail{SecurityID: t.SecurityID, Shares: t.Shares, SharePrice: t.SharePrice, Commission: t.Commission}, nil
	case ActionDeposit:
		return DepositDetail{SecurityID: t.SecurityID, Value: t.Amount}, nil
	case ActionWithdraw:
		return WithdrawDetail{SecurityID: t.SecurityID, Value: t.Amount}, nil
	case ActionDividend:
		return DividendDetail{SecurityID: t.SecurityID, Value: t.Amount}, nil
	case ActionInterest:
		return InterestDetail{SecurityID: t.SecurityID, Value: t.Amount}, nil
	}
	return nil, fmt.Errorf("unknown action %d for transaction %d in snapshot", t.Action, t.ID)
}
