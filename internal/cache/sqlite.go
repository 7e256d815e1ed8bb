package cache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/agrifleet/agrifleet-backend/internal/models"

	// sqlite driver
	_ "modernc.org/sqlite"
)

// ErrMiss is returned when a listing is not in the local cache.
var ErrMiss = errors.New("cache miss")

// Store is the on-device listing cache backed by sqlite. It is
// best-effort: callers log and swallow its errors, falling back to the
// remote store.
type Store struct {
	conn *sql.DB
	now  func() time.Time
}

// NewStore opens (or creates) the cache database at path and runs its
// migration. Use ":memory:" in tests.
func NewStore(path string) (*Store, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// sqlite allows a single writer; one connection also keeps
	// ":memory:" databases from splitting per connection.
	conn.SetMaxOpenConns(1)
	if err := conn.Ping(); err != nil {
		return nil, err
	}

	s := &Store{conn: conn, now: time.Now}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.conn.Exec(`CREATE TABLE IF NOT EXISTS listings (
		id           TEXT PRIMARY KEY,
		owner_id     TEXT NOT NULL,
		title        TEXT NOT NULL,
		description  TEXT NOT NULL,
		price        REAL NOT NULL,
		city         TEXT NOT NULL,
		image_urls   TEXT NOT NULL DEFAULT '[]',
		machine_type TEXT NOT NULL,
		active       INTEGER NOT NULL,
		created_at   DATETIME NOT NULL,
		cached_at    DATETIME NOT NULL
	)`)
	return err
}

// Put inserts or overwrites the given listings, stamping cached_at with
// the current time. cached_at is owned here, never by the remote store.
func (s *Store) Put(listings ...models.Listing) error {
	now := s.now()
	for _, l := range listings {
		urls, err := json.Marshal(l.ImageURLs)
		if err != nil {
			return err
		}
		_, err = s.conn.Exec(`INSERT INTO listings
			(id, owner_id, title, description, price, city, image_urls, machine_type, active, created_at, cached_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
			 owner_id=excluded.owner_id, title=excluded.title, description=excluded.description,
			 price=excluded.price, city=excluded.city, image_urls=excluded.image_urls,
			 machine_type=excluded.machine_type, active=excluded.active,
			 created_at=excluded.created_at, cached_at=excluded.cached_at`,
			l.ID, l.OwnerID, l.Title, l.Description, l.Price, l.City,
			string(urls), string(l.MachineType), l.Active, l.CreatedAt, now)
		if err != nil {
			return err
		}
	}
	return nil
}

// Get retrieves a single cached listing, ErrMiss when absent.
func (s *Store) Get(id string) (models.Listing, error) {
	row := s.conn.QueryRow(
		`SELECT id, owner_id, title, description, price, city, image_urls, machine_type, active, created_at, cached_at
		   FROM listings WHERE id = ?`, id)
	l, err := scanRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Listing{}, ErrMiss
	}
	return l, err
}

// All returns every cached listing, newest first.
func (s *Store) All() ([]models.Listing, error) {
	return s.query(
		`SELECT id, owner_id, title, description, price, city, image_urls, machine_type, active, created_at, cached_at
		   FROM listings ORDER BY created_at DESC`)
}

// Search evaluates the same predicates the remote search uses against
// the cached rows: exact city/type, case-insensitive substring on title
// and description.
func (s *Store) Search(f models.ListingFilter) ([]models.Listing, error) {
	q := `SELECT id, owner_id, title, description, price, city, image_urls, machine_type, active, created_at, cached_at
	        FROM listings WHERE active = 1`
	var args []any
	if f.City != "" {
		q += ` AND city = ?`
		args = append(args, f.City)
	}
	if f.MachineType != "" {
		q += ` AND machine_type = ?`
		args = append(args, string(f.MachineType))
	}
	if f.Query != "" {
		q += ` AND (lower(title) LIKE ? OR lower(description) LIKE ?)`
		like := "%" + strings.ToLower(f.Query) + "%"
		args = append(args, like, like)
	}
	q += ` ORDER BY created_at DESC`
	return s.query(q, args...)
}

func (s *Store) Delete(id string) error {
	_, err := s.conn.Exec(`DELETE FROM listings WHERE id = ?`, id)
	return err
}

// Deactivate mirrors a remote deactivation, refreshing cached_at.
func (s *Store) Deactivate(id string) error {
	_, err := s.conn.Exec(`UPDATE listings SET active = 0, cached_at = ? WHERE id = ?`, s.now(), id)
	return err
}

// Clear drops every cached row.
func (s *Store) Clear() error {
	_, err := s.conn.Exec(`DELETE FROM listings`)
	return err
}

// DeleteOlderThan removes rows cached before cutoff and reports how many
// went. It is the TTL expiry sweep.
func (s *Store) DeleteOlderThan(cutoff time.Time) (int64, error) {
	res, err := s.conn.Exec(`DELETE FROM listings WHERE cached_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) Close() error {
	return s.conn.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRow(row rowScanner) (models.Listing, error) {
	var l models.Listing
	var urls, machineType string
	err := row.Scan(&l.ID, &l.OwnerID, &l.Title, &l.Description, &l.Price,
		&l.City, &urls, &machineType, &l.Active, &l.CreatedAt, &l.CachedAt)
	if err != nil {
		return models.Listing{}, err
	}
	l.MachineType = models.MachineType(machineType)
	if err := json.Unmarshal([]byte(urls), &l.ImageURLs); err != nil {
		return models.Listing{}, err
	}
	return l, nil
}

func (s *Store) query(q string, args ...any) ([]models.Listing, error) {
	rows, err := s.conn.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Listing
	for rows.Next() {
		l, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
