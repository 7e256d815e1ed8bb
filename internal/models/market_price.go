package models

import "time"

// MarketPrice is a commodity price quote shown on the market screen.
type MarketPrice struct {
	ID        string    `json:"id"`
	Commodity string    `json:"commodity"`
	Unit      string    `json:"unit"`
	Price     float64   `json:"price"`
	Region    string    `json:"region"`
	QuotedAt  time.Time `json:"quoted_at"`
}
