package repository

import (
	"errors"
	"time"

	"github.com/agrifleet/agrifleet-backend/internal/models"
)

var ErrNotFound = errors.New("not found")

type Users interface {
	Create(name, email, passwordHash, city string) (models.User, error)
	GetByID(id string) (models.User, error)
	GetByEmail(email string) (models.User, error)
}

type Listings interface {
	Create(l models.Listing) (models.Listing, error)
	GetByID(id string) (models.Listing, error)
	// ListNewest returns the newest active listings, bounded by limit.
	ListNewest(limit int) ([]models.Listing, error)
	// Search filters server-side on city and machine type only; free-text
	// matching happens in the service layer.
	Search(city string, machineType models.MachineType) ([]models.Listing, error)
	ListByOwner(ownerID string) ([]models.Listing, error)
	Update(l models.Listing) error
	Deactivate(id string) error
	Delete(id string) error
}

type FinanceRecords interface {
	Create(r models.FinanceRecord) (models.FinanceRecord, error)
	GetByID(id string) (models.FinanceRecord, error)
	// ListByOwnerBetween returns the owner's records with start <= date <= end.
	ListByOwnerBetween(ownerID string, start, end time.Time) ([]models.FinanceRecord, error)
	ListByOwner(ownerID string) ([]models.FinanceRecord, error)
	Update(r models.FinanceRecord) error
	Delete(id string) error
}

type MarketPrices interface {
	// Latest returns the most recent quote per commodity.
	Latest() ([]models.MarketPrice, error)
	Upsert(p models.MarketPrice) (models.MarketPrice, error)
}
