package postgres

import (
	"context"
	"errors"

	"github.com/agrifleet/agrifleet-backend/internal/models"
	repo "github.com/agrifleet/agrifleet-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type listingsRepo struct{ pool *pgxpool.Pool }

const listingCols = `id, owner_id, title, description, price, city, image_urls, machine_type, active, created_at`

func scanListing(row pgx.Row) (models.Listing, error) {
	var l models.Listing
	err := row.Scan(&l.ID, &l.OwnerID, &l.Title, &l.Description, &l.Price,
		&l.City, &l.ImageURLs, &l.MachineType, &l.Active, &l.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Listing{}, repo.ErrNotFound
	}
	return l, err
}

func (r *listingsRepo) Create(l models.Listing) (models.Listing, error) {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	row := r.pool.QueryRow(context.Background(),
		`INSERT INTO listings(`+listingCols+`)
		 VALUES($1,$2,$3,$4,$5,$6,$7,$8,true,now())
		 RETURNING `+listingCols,
		l.ID, l.OwnerID, l.Title, l.Description, l.Price, l.City, l.ImageURLs, l.MachineType)
	return scanListing(row)
}

func (r *listingsRepo) GetByID(id string) (models.Listing, error) {
	row := r.pool.QueryRow(context.Background(),
		`SELECT `+listingCols+` FROM listings WHERE id=$1`, id)
	return scanListing(row)
}

func (r *listingsRepo) ListNewest(limit int) ([]models.Listing, error) {
	rows, err := r.pool.Query(context.Background(),
		`SELECT `+listingCols+` FROM listings
		  WHERE active
		  ORDER BY created_at DESC
		  LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	return collectListings(rows)
}

func (r *listingsRepo) Search(city string, machineType models.MachineType) ([]models.Listing, error) {
	rows, err := r.pool.Query(context.Background(),
		`SELECT `+listingCols+` FROM listings
		  WHERE active
		    AND ($1 = '' OR city = $1)
		    AND ($2 = '' OR machine_type = $2)
		  ORDER BY created_at DESC`,
		city, string(machineType))
	if err != nil {
		return nil, err
	}
	return collectListings(rows)
}

func (r *listingsRepo) ListByOwner(ownerID string) ([]models.Listing, error) {
	rows, err := r.pool.Query(context.Background(),
		`SELECT `+listingCols+` FROM listings WHERE owner_id=$1 ORDER BY created_at DESC`,
		ownerID)
	if err != nil {
		return nil, err
	}
	return collectListings(rows)
}

func (r *listingsRepo) Update(l models.Listing) error {
	tag, err := r.pool.Exec(context.Background(),
		`UPDATE listings
		    SET title=$2, description=$3, price=$4, city=$5, image_urls=$6, machine_type=$7, active=$8
		  WHERE id=$1`,
		l.ID, l.Title, l.Description, l.Price, l.City, l.ImageURLs, l.MachineType, l.Active)
	if err == nil && tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return err
}

func (r *listingsRepo) Deactivate(id string) error {
	tag, err := r.pool.Exec(context.Background(),
		`UPDATE listings SET active=false WHERE id=$1`, id)
	if err == nil && tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return err
}

func (r *listingsRepo) Delete(id string) error {
	_, err := r.pool.Exec(context.Background(), `DELETE FROM listings WHERE id=$1`, id)
	return err
}

func collectListings(rows pgx.Rows) ([]models.Listing, error) {
	defer rows.Close()
	var out []models.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
