package models

import (
	"database/sql"
	"time"
)

// PackStatus is the closed set of lifecycle states for a ticket pack.
// Transitions are validated against the table below; anything not listed
// is illegal.
type PackStatus string

const (
	PackReceived PackStatus = "RECEIVED"
	PackActive   PackStatus = "ACTIVE"
	PackDepleted PackStatus = "DEPLETED"
	PackReturned PackStatus = "RETURNED"
)

// packTransitions lists every legal transition. DEPLETED and RETURNED are
// terminal; RETURNED is reachable from RECEIVED or ACTIVE only.
var packTransitions = map[PackStatus][]PackStatus{
	PackReceived: {PackActive, PackReturned},
	PackActive:   {PackDepleted, PackReturned},
	PackDepleted: {},
	PackReturned: {},
}

func (s PackStatus) Valid() bool {
	_, ok := packTransitions[s]
	return ok
}

func (s PackStatus) Terminal() bool {
	return len(packTransitions[s]) == 0 && s.Valid()
}

// CanTransition reports whether moving from s to the target state is legal.
func (s PackStatus) CanTransition(to PackStatus) bool {
	for _, t := range packTransitions[s] {
		if t == to {
			return true
		}
	}
	return false
}

type Pack struct {
	ID             int64         `json:"id"` // Primary key
	StoreID        int64         `json:"store_id"`
	GameCode       string        `json:"game_code"`
	PackNumber     string        `json:"pack_number"` // zero-padded to 7 digits when encoded
	SerialStart    int           `json:"serial_start"`
	SerialEnd      int           `json:"serial_end"`
	TicketCount    int           `json:"ticket_count"`
	Status         PackStatus    `json:"status"`
	BinID          sql.NullInt64 `json:"bin_id"` // set while ACTIVE
	LastSoldSerial sql.NullInt64 `json:"last_sold_serial"`
	ReceivedAt     time.Time     `json:"received_at"`
	ActivatedAt    sql.NullTime  `json:"activated_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}
