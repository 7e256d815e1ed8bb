package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/agrifleet/agrifleet-backend/internal/models"
	repo "github.com/agrifleet/agrifleet-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type financeRecordsRepo struct{ pool *pgxpool.Pool }

const recordCols = `id, owner_id, title, amount, is_income, category, description, date`

func scanRecord(row pgx.Row) (models.FinanceRecord, error) {
	var rec models.FinanceRecord
	err := row.Scan(&rec.ID, &rec.OwnerID, &rec.Title, &rec.Amount,
		&rec.IsIncome, &rec.Category, &rec.Description, &rec.Date)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.FinanceRecord{}, repo.ErrNotFound
	}
	return rec, err
}

func (r *financeRecordsRepo) Create(rec models.FinanceRecord) (models.FinanceRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	row := r.pool.QueryRow(context.Background(),
		`INSERT INTO finance_records(`+recordCols+`)
		 VALUES($1,$2,$3,$4,$5,$6,$7,$8)
		 RETURNING `+recordCols,
		rec.ID, rec.OwnerID, rec.Title, rec.Amount, rec.IsIncome, rec.Category, rec.Description, rec.Date)
	return scanRecord(row)
}

func (r *financeRecordsRepo) GetByID(id string) (models.FinanceRecord, error) {
	row := r.pool.QueryRow(context.Background(),
		`SELECT `+recordCols+` FROM finance_records WHERE id=$1`, id)
	return scanRecord(row)
}

func (r *financeRecordsRepo) ListByOwnerBetween(ownerID string, start, end time.Time) ([]models.FinanceRecord, error) {
	rows, err := r.pool.Query(context.Background(),
		`SELECT `+recordCols+` FROM finance_records
		  WHERE owner_id=$1 AND date BETWEEN $2 AND $3
		  ORDER BY date`,
		ownerID, start, end)
	if err != nil {
		return nil, err
	}
	return collectRecords(rows)
}

func (r *financeRecordsRepo) ListByOwner(ownerID string) ([]models.FinanceRecord, error) {
	rows, err := r.pool.Query(context.Background(),
		`SELECT `+recordCols+` FROM finance_records WHERE owner_id=$1 ORDER BY date DESC`,
		ownerID)
	if err != nil {
		return nil, err
	}
	return collectRecords(rows)
}

func (r *financeRecordsRepo) Update(rec models.FinanceRecord) error {
	tag, err := r.pool.Exec(context.Background(),
		`UPDATE finance_records
		    SET title=$2, amount=$3, is_income=$4, category=$5, description=$6, date=$7
		  WHERE id=$1`,
		rec.ID, rec.Title, rec.Amount, rec.IsIncome, rec.Category, rec.Description, rec.Date)
	if err == nil && tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return err
}

func (r *financeRecordsRepo) Delete(id string) error {
	_, err := r.pool.Exec(context.Background(), `DELETE FROM finance_records WHERE id=$1`, id)
	return err
}

func collectRecords(rows pgx.Rows) ([]models.FinanceRecord, error) {
	defer rows.Close()
	var out []models.FinanceRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
