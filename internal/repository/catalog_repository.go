package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/cinebook/cinema-booking/internal/model"
)

// CatalogRepo provides CRUD access to the catalog tables: movies,
// categories, cinemas, halls and showings.  It satisfies
// service.CatalogStore.  All timestamps are stored in UTC.
type CatalogRepo struct{ db *sql.DB }

// NewCatalogRepo returns a CatalogRepo bound to the given database.
func NewCatalogRepo(db *sql.DB) *CatalogRepo { return &CatalogRepo{db: db} }

// CreateMovie inserts a movie and populates its generated ID.
func (r *CatalogRepo) CreateMovie(ctx context.Context, m *model.Movie) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO movies (title, duration_min) VALUES (?,?)", m.Title, m.DurationMin)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	return nil
}

// MovieByID fetches a movie by id.
func (r *CatalogRepo) MovieByID(ctx context.Context, id uint64) (model.Movie, error) {
	var m model.Movie
	err := r.db.QueryRowContext(ctx,
		"SELECT id, title, duration_min, created_at, updated_at FROM movies WHERE id=? LIMIT 1", id).
		Scan(&m.ID, &m.Title, &m.DurationMin, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Movie{}, fmt.Errorf("movie %d: %w", id, ErrNotFound)
	}
	return m, err
}

// DeleteMovies removes the movies with the given IDs and returns the
// number of rows deleted.
func (r *CatalogRepo) DeleteMovies(ctx context.Context, ids []uint64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM movies WHERE id IN ("+strings.Join(placeholders, ",")+")", args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// CreateCategory inserts a category and populates its generated ID.
func (r *CatalogRepo) CreateCategory(ctx context.Context, c *model.Category) error {
	res, err := r.db.ExecContext(ctx, "INSERT INTO categories (name) VALUES (?)", c.Name)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return fmt.Errorf("category %q: %w", c.Name, ErrConflict)
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return nil
}

// Categories lists all categories ordered by name.
func (r *CatalogRepo) Categories(ctx context.Context) ([]model.Category, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name FROM categories ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Category, 0)
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CreateCinema inserts a cinema and populates its generated ID.
func (r *CatalogRepo) CreateCinema(ctx context.Context, c *model.Cinema) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO cinemas (name, address) VALUES (?,?)", c.Name, c.Address)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return nil
}

// CinemaByID fetches a cinema by id.
func (r *CatalogRepo) CinemaByID(ctx context.Context, id uint64) (model.Cinema, error) {
	var c model.Cinema
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, address, created_at, updated_at FROM cinemas WHERE id=? LIMIT 1", id).
		Scan(&c.ID, &c.Name, &c.Address, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Cinema{}, fmt.Errorf("cinema %d: %w", id, ErrNotFound)
	}
	return c, err
}

// CreateHall inserts a hall and populates its generated ID.
func (r *CatalogRepo) CreateHall(ctx context.Context, h *model.Hall) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO halls (cinema_id, name, seat_rows, seat_cols, is_active) VALUES (?,?,?,?,?)",
		h.CinemaID, h.Name, h.SeatRows, h.SeatCols, h.IsActive)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	h.ID = uint64(id)
	return nil
}

// HallByID fetches a hall by id.
func (r *CatalogRepo) HallByID(ctx context.Context, id uint64) (model.Hall, error) {
	var h model.Hall
	err := r.db.QueryRowContext(ctx,
		"SELECT id, cinema_id, name, seat_rows, seat_cols, is_active, created_at, updated_at FROM halls WHERE id=? LIMIT 1", id).
		Scan(&h.ID, &h.CinemaID, &h.Name, &h.SeatRows, &h.SeatCols, &h.IsActive, &h.CreatedAt, &h.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Hall{}, fmt.Errorf("hall %d: %w", id, ErrNotFound)
	}
	return h, err
}

// CreateShowing inserts a showing and populates its generated ID.
func (r *CatalogRepo) CreateShowing(ctx context.Context, s *model.Showing) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO showings (movie_id, hall_id, starts_at, ends_at, price_cents) VALUES (?,?,?,?,?)",
		s.MovieID, s.HallID,
		s.StartsAt.UTC().Format("2006-01-02 15:04:05"),
		s.EndsAt.UTC().Format("2006-01-02 15:04:05"),
		s.PriceCents)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// ShowingByID fetches a showing by id.
func (r *CatalogRepo) ShowingByID(ctx context.Context, id uint64) (model.Showing, error) {
	var s model.Showing
	err := r.db.QueryRowContext(ctx,
		"SELECT id, movie_id, hall_id, starts_at, ends_at, price_cents, created_at FROM showings WHERE id=? LIMIT 1", id).
		Scan(&s.ID, &s.MovieID, &s.HallID, &s.StartsAt, &s.EndsAt, &s.PriceCents, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Showing{}, fmt.Errorf("showing %d: %w", id, ErrNotFound)
	}
	return s, err
}
