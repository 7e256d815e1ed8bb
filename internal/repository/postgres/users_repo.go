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

type usersRepo struct{ pool *pgxpool.Pool }

func (r *usersRepo) Create(name, email, hash, city string) (models.User, error) {
	id := uuid.NewString()
	_, err := r.pool.Exec(context.Background(),
		`INSERT INTO users(id, name, email, password_hash, city) VALUES($1,$2,$3,$4,$5)`,
		id, name, email, hash, city)
	if err != nil {
		return models.User{}, err
	}
	return r.GetByID(id)
}

func (r *usersRepo) GetByID(id string) (models.User, error) {
	return r.get(`SELECT id, name, email, password_hash, city, created_at, updated_at FROM users WHERE id=$1`, id)
}

func (r *usersRepo) GetByEmail(email string) (models.User, error) {
	return r.get(`SELECT id, name, email, password_hash, city, created_at, updated_at FROM users WHERE email=$1`, email)
}

func (r *usersRepo) get(q, arg string) (models.User, error) {
	var u models.User
	err := r.pool.QueryRow(context.Background(), q, arg).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.City, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.User{}, repo.ErrNotFound
	}
	return u, err
}
