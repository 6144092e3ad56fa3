package ledger

// SetSecurityPrice records the price of a security on a date, in minor
// currency units. At most one price exists per (security, date): setting a
// price for an existing date replaces it.
func (l *Ledger) SetSecurityPrice(securityID, date, price int64) ResultCode {
	if _, err := l.writes.get(opUpsertPrice).ExecContext(l.ctx, securityID, date, price); err != nil {
		return l.fail(opUpsertPrice, err)
	}

	l.log.Debug().Int64("security_id", securityID).Int64("date", date).Int64("price", price).Msg("Price set")
	l.bus.PriceSet.emit(PriceSet{SecurityID: securityID, Date: date, Price: price})
	l.bus.Changed.emit(Changed{})
	return ResultOK
}

// RemoveSecurityPrice deletes the price of a security on a date.
func (l *Ledger) RemoveSecurityPrice(securityID, date int64) ResultCode {
	return l.mutateOne(opDeletePrice, func() {
		l.bus.PriceRemoved.emit(PriceRemoved{SecurityID: securityID, Date: date})
	}, securityID, date)
}
