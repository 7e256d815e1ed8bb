package postgres

import (
	repo "github.com/agrifleet/agrifleet-backend/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repositories struct {
	Users          repo.Users
	Listings       repo.Listings
	FinanceRecords repo.FinanceRecords
	MarketPrices   repo.MarketPrices
}

func NewRepositories(pool *pgxpool.Pool) Repositories {
	return Repositories{
		Users:          &usersRepo{pool},
		Listings:       &listingsRepo{pool},
		FinanceRecords: &financeRecordsRepo{pool},
		MarketPrices:   &marketPricesRepo{pool},
	}
}
