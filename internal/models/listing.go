package models

import (
	"errors"
	"strings"
	"time"
)

type MachineType string

const (
	MachineTractor   MachineType = "tractor"
	MachineHarvester MachineType = "harvester"
	MachineSeeder    MachineType = "seeder"
	MachineSprayer   MachineType = "sprayer"
	MachineTrailer   MachineType = "trailer"
	MachineOther     MachineType = "other"
)

type Listing struct {
	ID          string      `json:"id"`
	OwnerID     string      `json:"owner_id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Price       float64     `json:"price"`
	City        string      `json:"city"`
	ImageURLs   []string    `json:"image_urls"`
	MachineType MachineType `json:"machine_type"`
	Active      bool        `json:"active"`
	CreatedAt   time.Time   `json:"created_at"`
	// CachedAt is owned by the local cache layer and refreshed on every
	// local write. It never comes from the remote store.
	CachedAt time.Time `json:"cached_at,omitempty"`
}

func (l *Listing) Validate() error {
	if len(strings.TrimSpace(l.Title)) < 3 {
		return errors.New("title too short")
	}
	if l.Price <= 0 {
		return errors.New("price must be > 0")
	}
	if strings.TrimSpace(l.City) == "" {
		return errors.New("city required")
	}
	if l.MachineType == "" {
		l.MachineType = MachineOther
	}
	return nil
}

// ListingFilter carries the search predicates. City and MachineType are
// matched exactly; Query is a case-insensitive substring match on title
// and description.
type ListingFilter struct {
	Query       string
	City        string
	MachineType MachineType
}

func (f ListingFilter) MatchesQuery(l Listing) bool {
	if f.Query == "" {
		return true
	}
	q := strings.ToLower(f.Query)
	return strings.Contains(strings.ToLower(l.Title), q) ||
		strings.Contains(strings.ToLower(l.Description), q)
}
