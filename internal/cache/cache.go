// Package cache stores network lookups on disk: the IP geolocation result and
// Al Adhan reference timings. Computed schedules are never cached.
package cache

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/smokyabdulrahman/daystage/internal/api"
	"github.com/smokyabdulrahman/daystage/internal/geo"
)

const (
	referenceCacheFile = "reference_%s.json" // keyed by hash
	geoCacheFile       = "geolocation.json"
	geoTTL             = 24 * time.Hour
)

// Cache provides file-based caching for reference timings and geolocation data.
type Cache struct {
	dir string
}

// ReferenceEntry stores one day's reference timings along with metadata for validation.
type ReferenceEntry struct {
	Date    string        `json:"date"` // YYYY-MM-DD
	Method  int           `json:"method"`
	School  int           `json:"school"`
	Timings api.Timings   `json:"timings"`
	Hijri   api.HijriDate `json:"hijri"`
	Meta    api.Meta      `json:"meta"`
}

// GeoCacheEntry stores a cached geolocation result with a timestamp.
type GeoCacheEntry struct {
	Location geo.Location `json:"location"`
	CachedAt time.Time    `json:"cached_at"`
}

// DefaultDir returns ~/.cache/daystage.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".cache", "daystage"), nil
}

// New creates a Cache rooted at the given directory.
// If dir is empty, it defaults to DefaultDir.
func New(dir string) (*Cache, error) {
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create cache directory %s: %w", dir, err)
	}

	return &Cache{dir: dir}, nil
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	return c.dir
}

// cacheKey builds a deterministic hash from the parameters that affect timings.
// This ensures different locations/methods/schools get separate cache files.
func cacheKey(date string, lat, lon float64, method, school int) string {
	raw := fmt.Sprintf("%s|%.6f|%.6f|%d|%d", date, lat, lon, method, school)
	h := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%x", h[:8]) // 16 hex chars is plenty for uniqueness
}

func (c *Cache) referencePath(dateStr string, lat, lon float64, method, school int) string {
	key := cacheKey(dateStr, lat, lon, method, school)
	return filepath.Join(c.dir, fmt.Sprintf(referenceCacheFile, key))
}

// LoadReference attempts to read cached reference timings for the given parameters.
// Returns nil if the cache is missing, unreadable or for another date.
func (c *Cache) LoadReference(date time.Time, lat, lon float64, method, school int) *ReferenceEntry {
	dateStr := date.Format("2006-01-02")

	data, err := os.ReadFile(c.referencePath(dateStr, lat, lon, method, school))
	if err != nil {
		return nil
	}

	var entry ReferenceEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil
	}

	if entry.Date != dateStr || entry.Method != method || entry.School != school {
		return nil
	}

	return &entry
}

// SaveReference writes an API response to the cache.
func (c *Cache) SaveReference(date time.Time, lat, lon float64, method, school int, resp *api.Response) error {
	dateStr := date.Format("2006-01-02")

	entry := ReferenceEntry{
		Date:    dateStr,
		Method:  method,
		School:  school,
		Timings: resp.Data.Timings,
		Hijri:   resp.Data.Date.Hijri,
		Meta:    resp.Data.Meta,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	if err := os.WriteFile(c.referencePath(dateStr, lat, lon, method, school), data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	return nil
}

// LoadGeo attempts to read a cached geolocation result.
// Returns nil if the cache is missing or older than the TTL (24 hours).
func (c *Cache) LoadGeo() *geo.Location {
	path := filepath.Join(c.dir, geoCacheFile)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var entry GeoCacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil
	}

	if time.Since(entry.CachedAt) > geoTTL {
		return nil
	}

	return &entry.Location
}

// SaveGeo writes a geolocation result to the cache.
func (c *Cache) SaveGeo(loc *geo.Location) error {
	path := filepath.Join(c.dir, geoCacheFile)

	entry := GeoCacheEntry{
		Location: *loc,
		CachedAt: time.Now(),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal geo cache: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write geo cache: %w", err)
	}

	return nil
}
