package services

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/agrifleet/agrifleet-backend/internal/cache"
	"github.com/agrifleet/agrifleet-backend/internal/metrics"
	"github.com/agrifleet/agrifleet-backend/internal/models"
	repo "github.com/agrifleet/agrifleet-backend/internal/repository"
	"github.com/agrifleet/agrifleet-backend/internal/worker"
)

// remoteFetchLimit bounds the get-all refresh to the newest listings the
// browsing screen can show.
const remoteFetchLimit = 50

// ListingSource tells a consumer which phase of the stale-while-revalidate
// read an update came from.
type ListingSource string

const (
	SourceCache  ListingSource = "cache"
	SourceRemote ListingSource = "remote"
)

// ListingsUpdate is one emission of the two-phase get-all read.
type ListingsUpdate struct {
	Listings []models.Listing
	Source   ListingSource
}

// LocalCache is the slice of the sqlite store the synchronizer needs.
// *cache.Store satisfies it; tests use an in-memory fake.
type LocalCache interface {
	Put(listings ...models.Listing) error
	Get(id string) (models.Listing, error)
	All() ([]models.Listing, error)
	Search(f models.ListingFilter) ([]models.Listing, error)
	Delete(id string) error
	Deactivate(id string) error
	Clear() error
	DeleteOlderThan(cutoff time.Time) (int64, error)
}

// ListingService mediates between the remote store and the local cache:
// reads favor availability (serve the cache, refresh in the background),
// writes are remote-first and mirrored into the cache on success.
type ListingService struct {
	remote repo.Listings
	local  LocalCache
	wp     *worker.Pool
	ttl    time.Duration
	now    func() time.Time
}

func NewListingService(remote repo.Listings, local LocalCache, wp *worker.Pool) *ListingService {
	return &ListingService{
		remote: remote,
		local:  local,
		wp:     wp,
		ttl:    cache.TTLListing,
		now:    time.Now,
	}
}

// GetAll emits the current cache contents immediately, then attempts a
// remote refresh. On success the fresh set is emitted as a second update
// and the cache rows are overwritten in the background; on failure the
// cached emission stands and the channel just closes. Consumers must
// expect one or two emissions.
func (s *ListingService) GetAll() <-chan ListingsUpdate {
	ch := make(chan ListingsUpdate, 2)

	cached, err := s.local.All()
	if err != nil {
		slog.Warn("listing cache read failed", "err", err)
		cached = nil
	}
	ch <- ListingsUpdate{Listings: cached, Source: SourceCache}

	go func() {
		defer close(ch)
		fresh, err := s.remote.ListNewest(remoteFetchLimit)
		if err != nil {
			metrics.ListingRemoteFailures.Inc()
			slog.Warn("listing refresh failed, cached set stands", "err", err)
			return
		}
		metrics.ListingCacheRefreshes.Inc()
		ch <- ListingsUpdate{Listings: fresh, Source: SourceRemote}
		// Detached write: the caller never waits on the cache landing.
		s.wp.Submit(func() {
			if err := s.local.Put(fresh...); err != nil {
				slog.Warn("listing cache write failed", "err", err)
			}
		})
	}()
	return ch
}

// GetByID serves a fresh cached copy without touching the remote store.
// A stale or missing copy triggers a remote fetch that overwrites the
// cache; if that fetch fails, any cached copy (even stale) is returned,
// and an error surfaces only when both sides come up empty.
func (s *ListingService) GetByID(id string) (models.Listing, error) {
	cached, cacheErr := s.local.Get(id)
	if cacheErr == nil && !cache.Expired(cached.CachedAt, s.ttl, s.now()) {
		metrics.ListingCacheHits.Inc()
		return cached, nil
	}
	metrics.ListingCacheMisses.Inc()

	fresh, err := s.remote.GetByID(id)
	if err != nil {
		if cacheErr == nil {
			slog.Warn("remote fetch failed, serving stale listing", "id", id, "err", err)
			return cached, nil
		}
		metrics.ListingRemoteFailures.Inc()
		return models.Listing{}, fmt.Errorf("listing %s: %w", id, err)
	}
	if err := s.local.Put(fresh); err != nil {
		slog.Warn("listing cache write failed", "id", id, "err", err)
	}
	return s.withCacheStamp(fresh), nil
}

// Search runs the remote query first (city and machine type filtered
// server-side, free text matched here), falling back to the cache with
// the same predicates when the remote store is unreachable.
func (s *ListingService) Search(f models.ListingFilter) ([]models.Listing, error) {
	remote, err := s.remote.Search(f.City, f.MachineType)
	if err == nil {
		var out []models.Listing
		for _, l := range remote {
			if f.MatchesQuery(l) {
				out = append(out, l)
			}
		}
		return out, nil
	}

	metrics.ListingRemoteFailures.Inc()
	slog.Warn("remote search failed, falling back to cache", "err", err)
	local, lerr := s.local.Search(f)
	if lerr != nil {
		slog.Warn("listing cache search failed", "err", lerr)
		return nil, err
	}
	return local, nil
}

// Create writes remote-first; only a successful remote write is mirrored
// into the cache, synchronously, before returning.
func (s *ListingService) Create(l models.Listing) (models.Listing, error) {
	if err := l.Validate(); err != nil {
		return models.Listing{}, err
	}
	created, err := s.remote.Create(l)
	if err != nil {
		return models.Listing{}, err
	}
	metrics.ListingsCreated.Inc()
	if err := s.local.Put(created); err != nil {
		slog.Warn("listing cache write failed", "id", created.ID, "err", err)
	}
	return created, nil
}

func (s *ListingService) Update(l models.Listing) error {
	if err := l.Validate(); err != nil {
		return err
	}
	if err := s.remote.Update(l); err != nil {
		return err
	}
	if err := s.local.Put(l); err != nil {
		slog.Warn("listing cache write failed", "id", l.ID, "err", err)
	}
	return nil
}

func (s *ListingService) Delete(id string) error {
	if err := s.remote.Delete(id); err != nil {
		return err
	}
	if err := s.local.Delete(id); err != nil {
		slog.Warn("listing cache delete failed", "id", id, "err", err)
	}
	return nil
}

func (s *ListingService) Deactivate(id string) error {
	if err := s.remote.Deactivate(id); err != nil {
		return err
	}
	if err := s.local.Deactivate(id); err != nil {
		slog.Warn("listing cache deactivate failed", "id", id, "err", err)
	}
	return nil
}

func (s *ListingService) ListByOwner(ownerID string) ([]models.Listing, error) {
	return s.remote.ListByOwner(ownerID)
}

// ClearCache drops every cached listing.
func (s *ListingService) ClearCache() error {
	return s.local.Clear()
}

// SweepExpired deletes cache rows older than the TTL. Meant to run on a
// schedule.
func (s *ListingService) SweepExpired() (int64, error) {
	n, err := s.local.DeleteOlderThan(s.now().Add(-s.ttl))
	if err != nil {
		return 0, err
	}
	metrics.ListingCacheSwept.Add(float64(n))
	if n > 0 {
		slog.Info("listing cache sweep", "deleted", n)
	}
	return n, nil
}

// withCacheStamp re-reads the stamped row so the caller sees the
// cached_at the cache just assigned; on any cache hiccup the remote copy
// is returned as-is.
func (s *ListingService) withCacheStamp(l models.Listing) models.Listing {
	stamped, err := s.local.Get(l.ID)
	if err != nil {
		return l
	}
	return stamped
}
