package ledger

// AddAccount creates a new account. The assigned id is retrievable via
// LastInsertedID.
func (l *Ledger) AddAccount(name string) ResultCode {
	res, err := l.writes.get(opInsertAccount).ExecContext(l.ctx, name)
	if err != nil {
		return l.fail(opInsertAccount, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return l.fail(opInsertAccount, err)
	}

	l.log.Info().Int64("account_id", id).Str("name", name).Msg("Account added")
	l.bus.AccountAdded.emit(AccountAdded{ID: id, Name: name})
	l.bus.Changed.emit(Changed{})
	return ResultOK
}

// SetAccountName renames an account.
func (l *Ledger) SetAccountName(id int64, name string) ResultCode {
	return l.mutateOne(opUpdateAccountName, func() {
		l.bus.AccountUpdated.emit(AccountUpdated{ID: id})
	}, name, id)
}

// RemoveAccount deletes an account. All of its transactions and their detail
// rows are removed by cascade.
func (l *Ledger) RemoveAccount(id int64) ResultCode {
	return l.mutateOne(opDeleteAccount, func() {
		l.log.Info().Int64("account_id", id).Msg("Account removed")
		l.bus.AccountRemoved.emit(AccountRemoved{ID: id})
	}, id)
}
