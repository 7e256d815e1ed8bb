package services

import (
	"errors"
	"testing"
	"time"

	"github.com/agrifleet/agrifleet-backend/internal/models"
	repo "github.com/agrifleet/agrifleet-backend/internal/repository"
	"github.com/agrifleet/agrifleet-backend/internal/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errDown = errors.New("remote unavailable")

// fakeRemote is an in-memory stand-in for the remote document store.
type fakeRemote struct {
	listings   map[string]models.Listing
	failing    bool
	getCalls   int
	listCalls  int
	lastLimit  int
}

func newFakeRemote(listings ...models.Listing) *fakeRemote {
	m := map[string]models.Listing{}
	for _, l := range listings {
		m[l.ID] = l
	}
	return &fakeRemote{listings: m}
}

func (f *fakeRemote) Create(l models.Listing) (models.Listing, error) {
	if f.failing {
		return models.Listing{}, errDown
	}
	if l.ID == "" {
		l.ID = "srv-" + l.Title
	}
	l.Active = true
	l.CreatedAt = time.Now()
	f.listings[l.ID] = l
	return l, nil
}

func (f *fakeRemote) GetByID(id string) (models.Listing, error) {
	f.getCalls++
	if f.failing {
		return models.Listing{}, errDown
	}
	l, ok := f.listings[id]
	if !ok {
		return models.Listing{}, repo.ErrNotFound
	}
	return l, nil
}

func (f *fakeRemote) ListNewest(limit int) ([]models.Listing, error) {
	f.listCalls++
	f.lastLimit = limit
	if f.failing {
		return nil, errDown
	}
	var out []models.Listing
	for _, l := range f.listings {
		if l.Active {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeRemote) Search(city string, machineType models.MachineType) ([]models.Listing, error) {
	if f.failing {
		return nil, errDown
	}
	var out []models.Listing
	for _, l := range f.listings {
		if !l.Active {
			continue
		}
		if city != "" && l.City != city {
			continue
		}
		if machineType != "" && l.MachineType != machineType {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func (f *fakeRemote) ListByOwner(ownerID string) ([]models.Listing, error) {
	if f.failing {
		return nil, errDown
	}
	var out []models.Listing
	for _, l := range f.listings {
		if l.OwnerID == ownerID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeRemote) Update(l models.Listing) error {
	if f.failing {
		return errDown
	}
	f.listings[l.ID] = l
	return nil
}

func (f *fakeRemote) Deactivate(id string) error {
	if f.failing {
		return errDown
	}
	l := f.listings[id]
	l.Active = false
	f.listings[id] = l
	return nil
}

func (f *fakeRemote) Delete(id string) error {
	if f.failing {
		return errDown
	}
	delete(f.listings, id)
	return nil
}

// fakeCache mirrors the sqlite store's contract, stamping cached_at on
// every write.
type fakeCache struct {
	rows map[string]models.Listing
	now  func() time.Time
}

func newFakeCache(now func() time.Time) *fakeCache {
	return &fakeCache{rows: map[string]models.Listing{}, now: now}
}

func (c *fakeCache) Put(listings ...models.Listing) error {
	for _, l := range listings {
		l.CachedAt = c.now()
		c.rows[l.ID] = l
	}
	return nil
}

func (c *fakeCache) Get(id string) (models.Listing, error) {
	l, ok := c.rows[id]
	if !ok {
		return models.Listing{}, errors.New("cache miss")
	}
	return l, nil
}

func (c *fakeCache) All() ([]models.Listing, error) {
	var out []models.Listing
	for _, l := range c.rows {
		out = append(out, l)
	}
	return out, nil
}

func (c *fakeCache) Search(f models.ListingFilter) ([]models.Listing, error) {
	var out []models.Listing
	for _, l := range c.rows {
		if !l.Active {
			continue
		}
		if f.City != "" && l.City != f.City {
			continue
		}
		if f.MachineType != "" && l.MachineType != f.MachineType {
			continue
		}
		if !f.MatchesQuery(l) {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func (c *fakeCache) Delete(id string) error { delete(c.rows, id); return nil }

func (c *fakeCache) Deactivate(id string) error {
	l, ok := c.rows[id]
	if ok {
		l.Active = false
		l.CachedAt = c.now()
		c.rows[id] = l
	}
	return nil
}

func (c *fakeCache) Clear() error { c.rows = map[string]models.Listing{}; return nil }

func (c *fakeCache) DeleteOlderThan(cutoff time.Time) (int64, error) {
	var n int64
	for id, l := range c.rows {
		if l.CachedAt.Before(cutoff) {
			delete(c.rows, id)
			n++
		}
	}
	return n, nil
}

func listing(id, title string) models.Listing {
	return models.Listing{
		ID: id, OwnerID: "owner-1", Title: title, Description: "well maintained",
		Price: 150, City: "Konya", MachineType: models.MachineTractor, Active: true,
		CreatedAt: time.Now().Add(-24 * time.Hour),
	}
}

func newTestService(remote *fakeRemote, local *fakeCache) (*ListingService, *worker.Pool) {
	wp := worker.NewPool(1)
	svc := NewListingService(remote, local, wp)
	return svc, wp
}

func TestGetByIDFreshCacheSkipsRemote(t *testing.T) {
	now := time.Now()
	local := newFakeCache(func() time.Time { return now })

	cached := listing("l1", "Red Tractor")
	cached.CachedAt = now.Add(-time.Hour) // age 1h < TTL 2h
	local.rows["l1"] = cached

	remoteCopy := listing("l1", "Renamed Remotely")
	remote := newFakeRemote(remoteCopy)

	svc, wp := newTestService(remote, local)
	defer wp.Stop()
	svc.now = func() time.Time { return now }

	got, err := svc.GetByID("l1")
	require.NoError(t, err)
	assert.Equal(t, "Red Tractor", got.Title, "fresh cache entry must be returned verbatim")
	assert.Zero(t, remote.getCalls, "remote must not be consulted for a fresh entry")
}

func TestGetByIDStaleCacheRefreshesFromRemote(t *testing.T) {
	now := time.Now()
	local := newFakeCache(func() time.Time { return now })

	stale := listing("l1", "Old Title")
	stale.CachedAt = now.Add(-3 * time.Hour)
	local.rows["l1"] = stale

	fresh := listing("l1", "New Title")
	remote := newFakeRemote(fresh)

	svc, wp := newTestService(remote, local)
	defer wp.Stop()
	svc.now = func() time.Time { return now }

	got, err := svc.GetByID("l1")
	require.NoError(t, err)
	assert.Equal(t, "New Title", got.Title)
	assert.Equal(t, 1, remote.getCalls)

	inCache, err := local.Get("l1")
	require.NoError(t, err)
	assert.Equal(t, "New Title", inCache.Title, "cache must be overwritten with the remote copy")
	assert.Equal(t, now, inCache.CachedAt)
}

func TestGetByIDRemoteFailureServesStale(t *testing.T) {
	now := time.Now()
	local := newFakeCache(func() time.Time { return now })

	stale := listing("l1", "Stale But Present")
	stale.CachedAt = now.Add(-5 * time.Hour)
	local.rows["l1"] = stale

	remote := newFakeRemote()
	remote.failing = true

	svc, wp := newTestService(remote, local)
	defer wp.Stop()
	svc.now = func() time.Time { return now }

	got, err := svc.GetByID("l1")
	require.NoError(t, err)
	assert.Equal(t, "Stale But Present", got.Title)
}

func TestGetByIDTotalFailure(t *testing.T) {
	local := newFakeCache(time.Now)
	remote := newFakeRemote()
	remote.failing = true

	svc, wp := newTestService(remote, local)
	defer wp.Stop()

	_, err := svc.GetByID("missing")
	assert.Error(t, err, "no cache and no remote is the only propagated failure")
}

func TestGetAllEmitsCachedThenFresh(t *testing.T) {
	now := time.Now()
	local := newFakeCache(func() time.Time { return now })
	old := listing("l1", "Cached Tractor")
	old.CachedAt = now.Add(-time.Hour)
	local.rows["l1"] = old

	remote := newFakeRemote(listing("l1", "Fresh Tractor"), listing("l2", "Fresh Harvester"))

	svc, wp := newTestService(remote, local)

	var updates []ListingsUpdate
	for u := range svc.GetAll() {
		updates = append(updates, u)
	}

	require.Len(t, updates, 2)
	assert.Equal(t, SourceCache, updates[0].Source)
	require.Len(t, updates[0].Listings, 1)
	assert.Equal(t, "Cached Tractor", updates[0].Listings[0].Title)

	assert.Equal(t, SourceRemote, updates[1].Source)
	assert.Len(t, updates[1].Listings, 2)
	assert.Equal(t, 50, remote.lastLimit)

	// the mirror write is detached; drain the pool before checking
	wp.Stop()
	inCache, err := local.Get("l2")
	require.NoError(t, err)
	assert.Equal(t, "Fresh Harvester", inCache.Title)
}

func TestGetAllEmptyCacheFailingRemote(t *testing.T) {
	local := newFakeCache(time.Now)
	remote := newFakeRemote()
	remote.failing = true

	svc, wp := newTestService(remote, local)
	defer wp.Stop()

	var updates []ListingsUpdate
	for u := range svc.GetAll() {
		updates = append(updates, u)
	}

	require.Len(t, updates, 1, "failed refresh must close silently after the cached emission")
	assert.Equal(t, SourceCache, updates[0].Source)
	assert.Empty(t, updates[0].Listings)
}

func TestSearchFallsBackToCache(t *testing.T) {
	now := time.Now()
	local := newFakeCache(func() time.Time { return now })
	require.NoError(t, local.Put(listing("l1", "Red Tractor"), listing("l2", "Blue Harvester")))

	remote := newFakeRemote()
	remote.failing = true

	svc, wp := newTestService(remote, local)
	defer wp.Stop()

	out, err := svc.Search(models.ListingFilter{Query: "tractor"})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Red Tractor", out[0].Title)
}

func TestSearchRemoteAppliesTextFilter(t *testing.T) {
	remote := newFakeRemote(listing("l1", "Red Tractor"), listing("l2", "Blue Harvester"))
	local := newFakeCache(time.Now)

	svc, wp := newTestService(remote, local)
	defer wp.Stop()

	out, err := svc.Search(models.ListingFilter{Query: "TRACTOR"})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Red Tractor", out[0].Title)
}

func TestCreateThenGetByID(t *testing.T) {
	now := time.Now()
	local := newFakeCache(func() time.Time { return now })
	remote := newFakeRemote()

	svc, wp := newTestService(remote, local)
	defer wp.Stop()
	svc.now = func() time.Time { return now }

	in := models.Listing{
		OwnerID: "owner-1", Title: "John Deere 6120", Description: "low hours",
		Price: 220, City: "Bursa", MachineType: models.MachineTractor,
	}
	created, err := svc.Create(in)
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	got, err := svc.GetByID(created.ID)
	require.NoError(t, err)
	assert.Equal(t, in.Title, got.Title)
	assert.Equal(t, in.Price, got.Price)
	assert.Equal(t, in.City, got.City)
	assert.Zero(t, remote.getCalls, "freshly mirrored row must be served from cache")
}

func TestFailedWriteNeverTouchesCache(t *testing.T) {
	local := newFakeCache(time.Now)
	remote := newFakeRemote()
	remote.failing = true

	svc, wp := newTestService(remote, local)
	defer wp.Stop()

	_, err := svc.Create(listing("", "Claas Lexion"))
	assert.Error(t, err)
	assert.Empty(t, local.rows)

	assert.Error(t, svc.Delete("l9"))
	assert.Error(t, svc.Deactivate("l9"))
}

func TestDeactivateMirrorsFlag(t *testing.T) {
	now := time.Now()
	local := newFakeCache(func() time.Time { return now })
	l := listing("l1", "Sprayer")
	require.NoError(t, local.Put(l))
	remote := newFakeRemote(l)

	svc, wp := newTestService(remote, local)
	defer wp.Stop()

	require.NoError(t, svc.Deactivate("l1"))
	inCache, err := local.Get("l1")
	require.NoError(t, err)
	assert.False(t, inCache.Active)
}

func TestSweepExpired(t *testing.T) {
	now := time.Now()
	local := newFakeCache(func() time.Time { return now })

	old := listing("l1", "Old")
	old.CachedAt = now.Add(-3 * time.Hour)
	local.rows["l1"] = old
	fresh := listing("l2", "Fresh")
	fresh.CachedAt = now.Add(-time.Hour)
	local.rows["l2"] = fresh

	svc, wp := newTestService(newFakeRemote(), local)
	defer wp.Stop()
	svc.now = func() time.Time { return now }

	n, err := svc.SweepExpired()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	_, err = local.Get("l1")
	assert.Error(t, err)
	_, err = local.Get("l2")
	assert.NoError(t, err)
}
