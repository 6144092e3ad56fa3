package ledger

// Add-transaction operations are compound: a master row plus a kind-specific
// detail row, written inside one savepoint. On any failure the savepoint is
// rolled back and the failing code returned; no notification fires and no
// partial pair is ever visible to readers. On success the savepoint is
// released and TransactionAdded fires exactly once.

// AddBuyTransaction records a purchase of shares.
func (l *Ledger) AddBuyTransaction(accountID, date, securityID, shares, sharePrice, commission int64) ResultCode {
	return l.addTransaction(accountID, date, BuyDetail{
		SecurityID: securityID,
		Shares:     shares,
		SharePrice: sharePrice,
		Commission: commission,
	})
}

// AddSellTransaction records a sale of shares.
func (l *Ledger) AddSellTransaction(accountID, date, securityID, shares, sharePrice, commission int64) ResultCode {
	return l.addTransaction(accountID, date, SellDetail{
		SecurityID: securityID,
		Shares:     shares,
		SharePrice: sharePrice,
		Commission: commission,
	})
}

// AddDepositTransaction records a cash deposit. securityID is optional;
// pass zero for a deposit not tied to a security.
func (l *Ledger) AddDepositTransaction(accountID, date, securityID, amount int64) ResultCode {
	return l.addTransaction(accountID, date, DepositDetail{SecurityID: securityID, Value: amount})
}

// AddWithdrawTransaction records a cash withdrawal. securityID is optional;
// pass zero for a withdrawal not tied to a security.
func (l *Ledger) AddWithdrawTransaction(accountID, date, securityID, amount int64) ResultCode {
	return l.addTransaction(accountID, date, WithdrawDetail{SecurityID: securityID, Value: amount})
}

// AddDividendTransaction records a dividend payment from a security.
func (l *Ledger) AddDividendTransaction(accountID, date, securityID, amount int64) ResultCode {
	return l.addTransaction(accountID, date, DividendDetail{SecurityID: securityID, Value: amount})
}

// AddInterestTransaction records an interest payment from a security.
func (l *Ledger) AddInterestTransaction(accountID, date, securityID, amount int64) ResultCode {
	return l.addTransaction(accountID, date, InterestDetail{SecurityID: securityID, Value: amount})
}

func (l *Ledger) addTransaction(accountID, date int64, d Detail) ResultCode {
	sp, err := l.sp.begin(l.ctx)
	if err != nil {
		return l.fail("beginSavepoint", err)
	}

	id, code := l.insertTransactionRows(accountID, date, d)
	if code != ResultOK {
		if rbErr := l.sp.rollback(l.ctx, sp); rbErr != nil {
			l.log.Error().Err(rbErr).Str("savepoint", sp).Msg("Savepoint rollback failed")
		}
		return code
	}

	if err := l.sp.release(l.ctx, sp); err != nil {
		return l.fail("releaseSavepoint", err)
	}

	l.log.Info().
		Int64("transaction_id", id).
		Int64("account_id", accountID).
		Str("action", d.Action().String()).
		Int64("amount", d.Amount()).
		Msg("Transaction added")
	l.bus.TransactionAdded.emit(TransactionAdded{ID: id, AccountID: accountID, Action: d.Action()})
	l.bus.Changed.emit(Changed{})
	return ResultOK
}

func (l *Ledger) insertTransactionRows(accountID, date int64, d Detail) (int64, ResultCode) {
	res, err := l.writes.get(opInsertTransaction).ExecContext(l.ctx, accountID, date, int64(d.Action()))
	if err != nil {
		return 0, l.fail(opInsertTransaction, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, l.fail(opInsertTransaction, err)
	}
	if code := l.insertDetail(id, d); code != ResultOK {
		return 0, code
	}
	return id, ResultOK
}

func (l *Ledger) insertDetail(txID int64, d Detail) ResultCode {
	var err error
	switch v := d.(type) {
	case BuyDetail:
		_, err = l.writes.get(opInsertBuy).ExecContext(l.ctx, txID, v.SecurityID, v.Shares, v.SharePrice, v.Commission)
	case SellDetail:
		_, err = l.writes.get(opInsertSell).ExecContext(l.ctx, txID, v.SecurityID, v.Shares, v.SharePrice, v.Commission)
	case DepositDetail:
		_, err = l.writes.get(opInsertDeposit).ExecContext(l.ctx, txID, nullableID(v.SecurityID), v.Value)
	case WithdrawDetail:
		_, err = l.writes.get(opInsertWithdraw).ExecContext(l.ctx, txID, nullableID(v.SecurityID), v.Value)
	case DividendDetail:
		_, err = l.writes.get(opInsertDividend).ExecContext(l.ctx, txID, v.SecurityID, v.Value)
	case InterestDetail:
		_, err = l.writes.get(opInsertInterest).ExecContext(l.ctx, txID, v.SecurityID, v.Value)
	}
	if err != nil {
		return l.fail("insertDetail", err)
	}
	return ResultOK
}

// RemoveTransaction deletes a transaction; its detail row is removed by
// cascade.
func (l *Ledger) RemoveTransaction(id int64) ResultCode {
	return l.mutateOne(opDeleteTransaction, func() {
		l.bus.TransactionRemoved.emit(TransactionRemoved{ID: id})
	}, id)
}

// SetTransactionDate moves a transaction to another date.
func (l *Ledger) SetTransactionDate(txID, date int64) ResultCode {
	return l.setTransactionField(opUpdateTransactionDate, date, txID)
}

// SetTransactionAccount moves a transaction to another account.
func (l *Ledger) SetTransactionAccount(txID, accountID int64) ResultCode {
	return l.setTransactionField(opUpdateTransactionAccount, accountID, txID)
}

// Detail-row setters update one field of a kind-specific detail row.
// Targeting a transaction that does not exist or is of another kind yields
// ResultRecordNotFound; a genuine single-row change fires
// TransactionUpdated.

// SetBuySecurity updates the security of a buy transaction.
func (l *Ledger) SetBuySecurity(txID, securityID int64) ResultCode {
	return l.setTransactionField(opSetBuySecurity, securityID, txID)
}

// SetBuyShares updates the share count of a buy transaction.
func (l *Ledger) SetBuyShares(txID, shares int64) ResultCode {
	return l.setTransactionField(opSetBuyShares, shares, txID)
}

// SetBuySharePrice updates the share price of a buy transaction.
func (l *Ledger) SetBuySharePrice(txID, sharePrice int64) ResultCode {
	return l.setTransactionField(opSetBuySharePrice, sharePrice, txID)
}

// SetBuyCommission updates the commission of a buy transaction.
func (l *Ledger) SetBuyCommission(txID, commission int64) ResultCode {
	return l.setTransactionField(opSetBuyCommission, commission, txID)
}

// SetSellSecurity updates the security of a sell transaction.
func (l *Ledger) SetSellSecurity(txID, securityID int64) ResultCode {
	return l.setTransactionField(opSetSellSecurity, securityID, txID)
}

// SetSellShares updates the share count of a sell transaction.
func (l *Ledger) SetSellShares(txID, shares int64) ResultCode {
	return l.setTransactionField(opSetSellShares, shares, txID)
}

// SetSellSharePrice updates the share price of a sell transaction.
func (l *Ledger) SetSellSharePrice(txID, sharePrice int64) ResultCode {
	return l.setTransactionField(opSetSellSharePrice, sharePrice, txID)
}

// SetSellCommission updates the commission of a sell transaction.
func (l *Ledger) SetSellCommission(txID, commission int64) ResultCode {
	return l.setTransactionField(opSetSellCommission, commission, txID)
}

// SetDepositSecurity updates the optional security of a deposit; pass zero
// to clear it.
func (l *Ledger) SetDepositSecurity(txID, securityID int64) ResultCode {
	return l.setTransactionField(opSetDepositSecurity, nullableID(securityID), txID)
}

// SetDepositAmount updates the amount of a deposit.
func (l *Ledger) SetDepositAmount(txID, amount int64) ResultCode {
	return l.setTransactionField(opSetDepositAmount, amount, txID)
}

// SetWithdrawSecurity updates the optional security of a withdrawal; pass
// zero to clear it.
func (l *Ledger) SetWithdrawSecurity(txID, securityID int64) ResultCode {
	return l.setTransactionField(opSetWithdrawSecurity, nullableID(securityID), txID)
}

// SetWithdrawAmount updates the amount of a withdrawal.
func (l *Ledger) SetWithdrawAmount(txID, amount int64) ResultCode {
	return l.setTransactionField(opSetWithdrawAmount, amount, txID)
}

// SetDividendSecurity updates the security of a dividend.
func (l *Ledger) SetDividendSecurity(txID, securityID int64) ResultCode {
	return l.setTransactionField(opSetDividendSecurity, securityID, txID)
}

// SetDividendAmount updates the amount of a dividend.
func (l *Ledger) SetDividendAmount(txID, amount int64) ResultCode {
	return l.setTransactionField(opSetDividendAmount, amount, txID)
}

// SetInterestSecurity updates the security of an interest payment.
func (l *Ledger) SetInterestSecurity(txID, securityID int64) ResultCode {
	return l.setTransactionField(opSetInterestSecurity, securityID, txID)
}

// SetInterestAmount updates the amount of an interest payment.
func (l *Ledger) SetInterestAmount(txID, amount int64) ResultCode {
	return l.setTransactionField(opSetInterestAmount, amount, txID)
}

func (l *Ledger) setTransactionField(op string, value any, txID int64) ResultCode {
	return l.mutateOne(op, func() {
		l.bus.TransactionUpdated.emit(TransactionUpdated{ID: txID})
	}, value, txID)
}
