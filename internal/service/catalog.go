package service

import (
	"context"
	"fmt"

	"github.com/cinebook/cinema-booking/internal/inventory"
	"github.com/cinebook/cinema-booking/internal/model"
)

// CatalogStore is the persistence boundary for the catalog entities:
// movies, categories, cinemas, halls and showings.
type CatalogStore interface {
	CreateMovie(ctx context.Context, m *model.Movie) error
	MovieByID(ctx context.Context, id uint64) (model.Movie, error)
	DeleteMovies(ctx context.Context, ids []uint64) (int, error)

	CreateCategory(ctx context.Context, c *model.Category) error
	Categories(ctx context.Context) ([]model.Category, error)

	CreateCinema(ctx context.Context, c *model.Cinema) error
	CinemaByID(ctx context.Context, id uint64) (model.Cinema, error)

	CreateHall(ctx context.Context, h *model.Hall) error
	HallByID(ctx context.Context, id uint64) (model.Hall, error)

	CreateShowing(ctx context.Context, s *model.Showing) error
	ShowingByID(ctx context.Context, id uint64) (model.Showing, error)
}

// CatalogService is the catalog collaborator: thin field validation in
// front of the persistence layer, plus the seat-label universe the
// reservation engine consults.  It satisfies booking.SeatCatalog.
type CatalogService struct {
	store CatalogStore
	inv   inventory.Store
}

// NewCatalogService constructs a CatalogService.  The inventory store
// is used to seed seats when a showing is scheduled.
func NewCatalogService(store CatalogStore, inv inventory.Store) *CatalogService {
	if store == nil || inv == nil {
		panic("nil dependency passed to NewCatalogService")
	}
	return &CatalogService{store: store, inv: inv}
}

// AddMovie validates and persists a movie.
func (s *CatalogService) AddMovie(ctx context.Context, m *model.Movie) error {
	if m.Title == "" {
		return fmt.Errorf("movie title is required")
	}
	return s.store.CreateMovie(ctx, m)
}

// RemoveMovies deletes the movies with the given IDs and returns how
// many rows were removed.  A nil or empty ID list removes nothing.
func (s *CatalogService) RemoveMovies(ctx context.Context, ids []uint64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return s.store.DeleteMovies(ctx, ids)
}

// AddCategory validates and persists a category.
func (s *CatalogService) AddCategory(ctx context.Context, c *model.Category) error {
	if c.Name == "" {
		return fmt.Errorf("category name is required")
	}
	return s.store.CreateCategory(ctx, c)
}

// Categories lists all categories.
func (s *CatalogService) Categories(ctx context.Context) ([]model.Category, error) {
	return s.store.Categories(ctx)
}

// AddCinema validates and persists a cinema.
func (s *CatalogService) AddCinema(ctx context.Context, c *model.Cinema) error {
	if c.Name == "" {
		return fmt.Errorf("cinema name is required")
	}
	return s.store.CreateCinema(ctx, c)
}

// AddHall validates and persists a hall.  The seating grid must be
// non-empty because it defines the seat universe of every showing
// scheduled in the hall.
func (s *CatalogService) AddHall(ctx context.Context, h *model.Hall) error {
	if h.Name == "" {
		return fmt.Errorf("hall name is required")
	}
	if h.SeatRows == 0 || h.SeatCols == 0 {
		return fmt.Errorf("hall %q needs a non-empty seat grid", h.Name)
	}
	if _, err := s.store.CinemaByID(ctx, h.CinemaID); err != nil {
		return fmt.Errorf("cinema %d: %w", h.CinemaID, err)
	}
	return s.store.CreateHall(ctx, h)
}

// ScheduleShowing persists a showing and seeds its seat inventory from
// the hall layout, so the reservation engine can book it immediately.
func (s *CatalogService) ScheduleShowing(ctx context.Context, sh *model.Showing) error {
	if !sh.EndsAt.After(sh.StartsAt) {
		return fmt.Errorf("showing must end after it starts")
	}
	hall, err := s.store.HallByID(ctx, sh.HallID)
	if err != nil {
		return fmt.Errorf("hall %d: %w", sh.HallID, err)
	}
	if _, err := s.store.MovieByID(ctx, sh.MovieID); err != nil {
		return fmt.Errorf("movie %d: %w", sh.MovieID, err)
	}
	if err := s.store.CreateShowing(ctx, sh); err != nil {
		return err
	}
	return s.inv.RegisterShowing(ctx, sh.ID, hall.SeatLabels())
}

// SeatLabels returns the valid seat-label universe for a showing,
// derived from its hall's seating grid.
func (s *CatalogService) SeatLabels(ctx context.Context, showingID uint64) ([]string, error) {
	sh, err := s.store.ShowingByID(ctx, showingID)
	if err != nil {
		return nil, err
	}
	hall, err := s.store.HallByID(ctx, sh.HallID)
	if err != nil {
		return nil, err
	}
	return hall.SeatLabels(), nil
}
