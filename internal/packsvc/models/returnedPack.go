package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// ReturnedPackRecord is the snapshot taken at the moment a pack is marked
// RETURNED. It carries its own copy of the pack fields so the record stays
// intact even if the pack row is later purged or mutated. Never re-enters
// active circulation under the same pack id.
type ReturnedPackRecord struct {
	ID                  int64           `json:"id"`
	PackID              int64           `json:"pack_id"`
	StoreID             int64           `json:"store_id"`
	GameCode            string          `json:"game_code"`
	GameName            string          `json:"game_name"`
	PackNumber          string          `json:"pack_number"`
	BinNo               sql.NullInt64   `json:"bin_no"`
	ActivatedAt         sql.NullTime    `json:"activated_at"`
	ReturnedAt          time.Time       `json:"returned_at"`
	ReturnReason        string          `json:"return_reason"`
	ReturnNotes         sql.NullString  `json:"return_notes"`
	LastSoldSerial      sql.NullInt64   `json:"last_sold_serial"`
	TicketsSoldOnReturn int             `json:"tickets_sold_on_return"`
	ReturnSalesAmount   decimal.Decimal `json:"return_sales_amount"`
}
