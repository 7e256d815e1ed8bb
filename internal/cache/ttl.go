package cache

import "time"

// TTLs are added to the cached_at stamp to decide staleness. Listings
// change slowly (owners edit a handful of offers per season), so two
// hours keeps browsing snappy without showing week-old prices.
const (
	TTLListing = 2 * time.Hour
)

// Expired reports whether a row cached at cachedAt is past its TTL.
func Expired(cachedAt time.Time, ttl time.Duration, now time.Time) bool {
	return now.Sub(cachedAt) > ttl
}
