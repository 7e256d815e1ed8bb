package models

import (
	"errors"
	"strings"
	"time"
)

// FinanceRecord is a single dated monetary transaction. Amount is always
// positive; IsIncome decides the direction.
type FinanceRecord struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Title       string    `json:"title"`
	Amount      float64   `json:"amount"`
	IsIncome    bool      `json:"is_income"`
	Category    string    `json:"category"`
	Description string    `json:"description,omitempty"`
	Date        time.Time `json:"date"`
}

func (r *FinanceRecord) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return errors.New("title required")
	}
	if r.Amount <= 0 {
		return errors.New("amount must be > 0")
	}
	if strings.TrimSpace(r.Category) == "" {
		return errors.New("category required")
	}
	if r.Date.IsZero() {
		r.Date = time.Now()
	}
	return nil
}
