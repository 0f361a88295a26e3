package enum

// EventKind describes the meaning of a protocol event payload.
type EventKind uint8

const (
	_event_kind_beg EventKind = iota
	EventCollateralDeposited
	EventDebtMinted
	EventCollateralRedeemed
	EventDebtBurned
	EventLiquidation
	_event_kind_end
)

func (k EventKind) IsAvailable() bool {
	return k > _event_kind_beg && k < _event_kind_end
}

func (k EventKind) String() string {
	switch k {
	case EventCollateralDeposited:
		return "collateral_deposited"
	case EventDebtMinted:
		return "debt_minted"
	case EventCollateralRedeemed:
		return "collateral_redeemed"
	case EventDebtBurned:
		return "debt_burned"
	case EventLiquidation:
		return "liquidation"
	default:
		return "unknown"
	}
}
