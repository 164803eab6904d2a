package rpc

import "freshkeep"

type UnitMsg struct {
	ID           string  `msgpack:"id,omitempty"`
	Abbreviation string  `msgpack:"abbreviation,omitempty"`
	Name         string  `msgpack:"name,omitempty"`
	Factor       float64 `msgpack:"factor,omitempty"`
	Family       string  `msgpack:"family,omitempty"`
}

func NewUnitMsg(u freshkeep.Unit) UnitMsg {
	return UnitMsg{
		ID:           u.ID,
		Abbreviation: u.Abbreviation,
		Name:         u.Name,
		Factor:       u.Factor,
		Family:       string(u.Family),
	}
}

func (m UnitMsg) ToUnit() freshkeep.Unit {
	return freshkeep.Unit{
		ID:           m.ID,
		Abbreviation: m.Abbreviation,
		Name:         m.Name,
		Factor:       m.Factor,
		Family:       freshkeep.Family(m.Family),
	}
}

type ConvertRequest struct {
	From     string  `msgpack:"from"`
	To       string  `msgpack:"to"`
	Quantity float64 `msgpack:"quantity"`
}

type ConvertResponse struct {
	Quantity float64 `msgpack:"quantity"`
}

type UnitsResponse struct {
	Units []UnitMsg `msgpack:"units,omitempty"`
}

type BalanceRequest struct {
	InventoryID string `msgpack:"inventory_id"`
	ItemID      string `msgpack:"item_id"`
	UnitID      string `msgpack:"unit_id,omitempty"`
	// Total includes nested storage areas.
	Total bool `msgpack:"total,omitempty"`
}

type BalanceResponse struct {
	Quantity float64 `msgpack:"quantity"`
	UnitID   string  `msgpack:"unit_id"`
}

// MoveRequest records one stock movement; Remove selects the direction.
type MoveRequest struct {
	InventoryID string  `msgpack:"inventory_id"`
	ItemID      string  `msgpack:"item_id"`
	Quantity    float64 `msgpack:"quantity"`
	UnitID      string  `msgpack:"unit_id,omitempty"`
	Remove      bool    `msgpack:"remove,omitempty"`
	Note        string  `msgpack:"note,omitempty"`
	TimestampMs int64   `msgpack:"date,omitempty"`
}

type MoveResponse struct {
	TransactionID string `msgpack:"transaction_id"`
	// Balance is the fixed-point balance in the item's unit, e.g. "1814.3680".
	Balance string `msgpack:"balance"`
}
