package models

import (
	"database/sql"
	"time"
)

// Bin is a physical display slot. It holds at most one ACTIVE pack at a
// time; PackID is a lookup reference only, the pack row owns its own state.
type Bin struct {
	ID        int64         `json:"id"`
	StoreID   int64         `json:"store_id"`
	BinNo     int           `json:"bin_no"` // position on the display
	PackID    sql.NullInt64 `json:"pack_id"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}
