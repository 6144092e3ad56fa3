package ledger

// AddSecurity creates a new security. Symbols are unique and immutable
// after creation; a duplicate symbol surfaces as ResultConstraintViolation.
func (l *Ledger) AddSecurity(symbol, name, assetClass, sector string) ResultCode {
	res, err := l.writes.get(opInsertSecurity).ExecContext(l.ctx, symbol, name, assetClass, sector)
	if err != nil {
		return l.fail(opInsertSecurity, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return l.fail(opInsertSecurity, err)
	}

	l.log.Info().Int64("security_id", id).Str("symbol", symbol).Msg("Security added")
	l.bus.SecurityAdded.emit(SecurityAdded{ID: id, Symbol: symbol})
	l.bus.Changed.emit(Changed{})
	return ResultOK
}

// SetSecurityName updates a security's display name.
func (l *Ledger) SetSecurityName(id int64, name string) ResultCode {
	return l.setSecurityField(opUpdateSecurityName, id, name)
}

// SetSecurityAssetClass updates a security's asset class.
func (l *Ledger) SetSecurityAssetClass(id int64, assetClass string) ResultCode {
	return l.setSecurityField(opUpdateSecurityAssetClass, id, assetClass)
}

// SetSecuritySector updates a security's sector.
func (l *Ledger) SetSecuritySector(id int64, sector string) ResultCode {
	return l.setSecurityField(opUpdateSecuritySector, id, sector)
}

func (l *Ledger) setSecurityField(op string, id int64, value string) ResultCode {
	return l.mutateOne(op, func() {
		l.bus.SecurityUpdated.emit(SecurityUpdated{ID: id})
	}, value, id)
}

// RemoveSecurity deletes a security together with its price history and
// every buy, sell, dividend and interest transaction that requires it;
// deposit and withdraw references are merely nulled. The transaction purge
// and the security delete run inside one savepoint so readers never see a
// half-removed security.
func (l *Ledger) RemoveSecurity(id int64) ResultCode {
	sp, err := l.sp.begin(l.ctx)
	if err != nil {
		return l.fail("beginSavepoint", err)
	}

	code := l.removeSecurityRows(id)
	if code != ResultOK {
		if rbErr := l.sp.rollback(l.ctx, sp); rbErr != nil {
			l.log.Error().Err(rbErr).Str("savepoint", sp).Msg("Savepoint rollback failed")
		}
		return code
	}

	if err := l.sp.release(l.ctx, sp); err != nil {
		return l.fail("releaseSavepoint", err)
	}

	l.log.Info().Int64("security_id", id).Msg("Security removed")
	l.bus.SecurityRemoved.emit(SecurityRemoved{ID: id})
	l.bus.Changed.emit(Changed{})
	return ResultOK
}

func (l *Ledger) removeSecurityRows(id int64) ResultCode {
	if _, err := l.writes.get(opDeleteSecurityTrades).ExecContext(l.ctx, id); err != nil {
		return l.fail(opDeleteSecurityTrades, err)
	}
	res, err := l.writes.get(opDeleteSecurity).ExecContext(l.ctx, id)
	if err != nil {
		return l.fail(opDeleteSecurity, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return l.fail(opDeleteSecurity, err)
	}
	if n == 0 {
		return ResultRecordNotFound
	}
	return ResultOK
}
