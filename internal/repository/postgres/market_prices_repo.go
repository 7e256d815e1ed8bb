package postgres

import (
	"context"

	"github.com/agrifleet/agrifleet-backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type marketPricesRepo struct{ pool *pgxpool.Pool }

func (r *marketPricesRepo) Latest() ([]models.MarketPrice, error) {
	rows, err := r.pool.Query(context.Background(),
		`SELECT DISTINCT ON (commodity, region)
		        id, commodity, unit, price, region, quoted_at
		   FROM market_prices
		  ORDER BY commodity, region, quoted_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.MarketPrice
	for rows.Next() {
		var p models.MarketPrice
		if err := rows.Scan(&p.ID, &p.Commodity, &p.Unit, &p.Price, &p.Region, &p.QuotedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *marketPricesRepo) Upsert(p models.MarketPrice) (models.MarketPrice, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	err := r.pool.QueryRow(context.Background(),
		`INSERT INTO market_prices(id, commodity, unit, price, region, quoted_at)
		 VALUES($1,$2,$3,$4,$5,$6)
		 ON CONFLICT (commodity, region, quoted_at) DO UPDATE SET price=EXCLUDED.price, unit=EXCLUDED.unit
		 RETURNING id, commodity, unit, price, region, quoted_at`,
		p.ID, p.Commodity, p.Unit, p.Price, p.Region, p.QuotedAt).
		Scan(&p.ID, &p.Commodity, &p.Unit, &p.Price, &p.Region, &p.QuotedAt)
	return p, err
}
