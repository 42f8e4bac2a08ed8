package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinebook/cinema-booking/internal/inventory"
	"github.com/cinebook/cinema-booking/internal/model"
)

// fakeCatalogStore keeps catalog entities in maps and assigns IDs on
// create, mimicking the SQL repository.
type fakeCatalogStore struct {
	nextID   uint64
	movies   map[uint64]model.Movie
	cinemas  map[uint64]model.Cinema
	halls    map[uint64]model.Hall
	showings map[uint64]model.Showing
	cats     []model.Category
}

func newFakeCatalogStore() *fakeCatalogStore {
	return &fakeCatalogStore{
		movies:   make(map[uint64]model.Movie),
		cinemas:  make(map[uint64]model.Cinema),
		halls:    make(map[uint64]model.Hall),
		showings: make(map[uint64]model.Showing),
	}
}

func (f *fakeCatalogStore) id() uint64 { f.nextID++; return f.nextID }

func (f *fakeCatalogStore) CreateMovie(_ context.Context, m *model.Movie) error {
	m.ID = f.id()
	f.movies[m.ID] = *m
	return nil
}

func (f *fakeCatalogStore) MovieByID(_ context.Context, id uint64) (model.Movie, error) {
	m, ok := f.movies[id]
	if !ok {
		return model.Movie{}, fmt.Errorf("movie %d not found", id)
	}
	return m, nil
}

func (f *fakeCatalogStore) DeleteMovies(_ context.Context, ids []uint64) (int, error) {
	n := 0
	for _, id := range ids {
		if _, ok := f.movies[id]; ok {
			delete(f.movies, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeCatalogStore) CreateCategory(_ context.Context, c *model.Category) error {
	c.ID = f.id()
	f.cats = append(f.cats, *c)
	return nil
}

func (f *fakeCatalogStore) Categories(context.Context) ([]model.Category, error) {
	return f.cats, nil
}

func (f *fakeCatalogStore) CreateCinema(_ context.Context, c *model.Cinema) error {
	c.ID = f.id()
	f.cinemas[c.ID] = *c
	return nil
}

func (f *fakeCatalogStore) CinemaByID(_ context.Context, id uint64) (model.Cinema, error) {
	c, ok := f.cinemas[id]
	if !ok {
		return model.Cinema{}, fmt.Errorf("cinema %d not found", id)
	}
	return c, nil
}

func (f *fakeCatalogStore) CreateHall(_ context.Context, h *model.Hall) error {
	h.ID = f.id()
	f.halls[h.ID] = *h
	return nil
}

func (f *fakeCatalogStore) HallByID(_ context.Context, id uint64) (model.Hall, error) {
	h, ok := f.halls[id]
	if !ok {
		return model.Hall{}, fmt.Errorf("hall %d not found", id)
	}
	return h, nil
}

func (f *fakeCatalogStore) CreateShowing(_ context.Context, s *model.Showing) error {
	s.ID = f.id()
	f.showings[s.ID] = *s
	return nil
}

func (f *fakeCatalogStore) ShowingByID(_ context.Context, id uint64) (model.Showing, error) {
	s, ok := f.showings[id]
	if !ok {
		return model.Showing{}, fmt.Errorf("showing %d not found", id)
	}
	return s, nil
}

// seedHall creates a cinema and a hall with the given grid, returning
// the hall ID.
func seedHall(t *testing.T, svc *CatalogService, rows, cols uint32) uint64 {
	t.Helper()
	ctx := context.Background()
	cinema := model.Cinema{Name: "Central", Address: "1 Main St"}
	require.NoError(t, svc.AddCinema(ctx, &cinema))
	hall := model.Hall{CinemaID: cinema.ID, Name: "Hall 1", SeatRows: rows, SeatCols: cols, IsActive: true}
	require.NoError(t, svc.AddHall(ctx, &hall))
	return hall.ID
}

func TestScheduleShowingSeedsSeatInventory(t *testing.T) {
	store := newFakeCatalogStore()
	inv := inventory.NewMemoryStore()
	svc := NewCatalogService(store, inv)
	ctx := context.Background()

	hallID := seedHall(t, svc, 2, 3)
	movie := model.Movie{Title: "Arrival", DurationMin: 116}
	require.NoError(t, svc.AddMovie(ctx, &movie))

	start := time.Date(2026, 4, 1, 20, 0, 0, 0, time.UTC)
	sh := model.Showing{MovieID: movie.ID, HallID: hallID, StartsAt: start, EndsAt: start.Add(2 * time.Hour), PriceCents: 1500}
	require.NoError(t, svc.ScheduleShowing(ctx, &sh))
	require.NotZero(t, sh.ID)

	snap, err := inv.Snapshot(ctx, sh.ID)
	require.NoError(t, err)
	assert.Len(t, snap, 6)
	assert.Equal(t, inventory.Free, snap["1A"].State)
	assert.Equal(t, inventory.Free, snap["2C"].State)
}

func TestScheduleShowingValidation(t *testing.T) {
	store := newFakeCatalogStore()
	svc := NewCatalogService(store, inventory.NewMemoryStore())
	ctx := context.Background()

	hallID := seedHall(t, svc, 1, 1)
	movie := model.Movie{Title: "Heat"}
	require.NoError(t, svc.AddMovie(ctx, &movie))

	start := time.Date(2026, 4, 1, 20, 0, 0, 0, time.UTC)

	// Ends before it starts.
	bad := model.Showing{MovieID: movie.ID, HallID: hallID, StartsAt: start, EndsAt: start.Add(-time.Hour)}
	assert.Error(t, svc.ScheduleShowing(ctx, &bad))

	// Unknown hall and unknown movie.
	bad = model.Showing{MovieID: movie.ID, HallID: 999, StartsAt: start, EndsAt: start.Add(time.Hour)}
	assert.Error(t, svc.ScheduleShowing(ctx, &bad))
	bad = model.Showing{MovieID: 999, HallID: hallID, StartsAt: start, EndsAt: start.Add(time.Hour)}
	assert.Error(t, svc.ScheduleShowing(ctx, &bad))
}

func TestSeatLabelsFollowHallGrid(t *testing.T) {
	store := newFakeCatalogStore()
	inv := inventory.NewMemoryStore()
	svc := NewCatalogService(store, inv)
	ctx := context.Background()

	hallID := seedHall(t, svc, 2, 2)
	movie := model.Movie{Title: "Ran"}
	require.NoError(t, svc.AddMovie(ctx, &movie))

	start := time.Date(2026, 4, 2, 18, 0, 0, 0, time.UTC)
	sh := model.Showing{MovieID: movie.ID, HallID: hallID, StartsAt: start, EndsAt: start.Add(3 * time.Hour)}
	require.NoError(t, svc.ScheduleShowing(ctx, &sh))

	labels, err := svc.SeatLabels(ctx, sh.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"1A", "1B", "2A", "2B"}, labels)

	_, err = svc.SeatLabels(ctx, 999)
	assert.Error(t, err)
}

func TestAddHallRequiresGridAndCinema(t *testing.T) {
	store := newFakeCatalogStore()
	svc := NewCatalogService(store, inventory.NewMemoryStore())
	ctx := context.Background()

	cinema := model.Cinema{Name: "Rio", Address: "2 West Rd"}
	require.NoError(t, svc.AddCinema(ctx, &cinema))

	h := model.Hall{CinemaID: cinema.ID, Name: "Hall 2", SeatRows: 0, SeatCols: 4}
	assert.Error(t, svc.AddHall(ctx, &h))

	h = model.Hall{CinemaID: 999, Name: "Hall 3", SeatRows: 2, SeatCols: 2}
	assert.Error(t, svc.AddHall(ctx, &h))
}

func TestRemoveMovies(t *testing.T) {
	store := newFakeCatalogStore()
	svc := NewCatalogService(store, inventory.NewMemoryStore())
	ctx := context.Background()

	a := model.Movie{Title: "Alien"}
	b := model.Movie{Title: "Brazil"}
	require.NoError(t, svc.AddMovie(ctx, &a))
	require.NoError(t, svc.AddMovie(ctx, &b))

	n, err := svc.RemoveMovies(ctx, []uint64{a.ID, 999})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = svc.RemoveMovies(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}
