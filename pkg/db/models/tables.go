package models

// All lists every model owned by this service, in dependency order.
func All() []any {
	return []any{
		&Marketplace{},
		&Organizer{},
		&Event{},
		&Order{},
		&RefundRequest{},
		&GiftCard{},
		&ServiceOrder{},
		&Payout{},
		&TaxRule{},
		&LedgerEvent{},
		&OutboxEvent{},
	}
}
