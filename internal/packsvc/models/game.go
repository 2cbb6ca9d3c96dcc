package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Game struct {
	ID             int64           `json:"id"`        // Primary key
	GameCode       string          `json:"game_code"` // 4-digit code printed on the pack
	Name           string          `json:"name"`
	TicketPrice    decimal.Decimal `json:"ticket_price"`
	TicketsPerPack int             `json:"tickets_per_pack"`
	Status         string          `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}
