package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/daystage/internal/cache"
	"github.com/smokyabdulrahman/daystage/internal/config"
	"github.com/smokyabdulrahman/daystage/internal/geo"
	"github.com/smokyabdulrahman/daystage/internal/prayer"
	"github.com/smokyabdulrahman/daystage/internal/watch"
)

// resolvedLocation holds the result of location resolution.
type resolvedLocation struct {
	Coordinates prayer.Coordinates
	City        string
	Timezone    string // optional hint from geo-detection
	Source      string // "config", "geo" or "default"
}

// label builds "City (lat, lon)" or just the coordinates.
func (l resolvedLocation) label() string {
	coords := fmt.Sprintf("%.4f, %.4f", l.Coordinates.Latitude, l.Coordinates.Longitude)
	if l.City == "" {
		return coords
	}
	return fmt.Sprintf("%s (%s)", l.City, coords)
}

// session is everything a command needs to compute schedules: the merged
// config, where, in which zone, with which method, and for which day.
type session struct {
	cfg    *config.Config
	loc    resolvedLocation
	req    watch.Request
	layout string
	now    time.Time // in the request's zone
	day    time.Time // local midnight of the selected day
}

func newSession(cmd *cobra.Command) (*session, error) {
	cfg, err := effectiveConfig(cmd)
	if err != nil {
		return nil, err
	}

	var c *cache.Cache
	if FlagAutoLocate {
		c = openCache(cfg)
	}
	loc, err := resolveLocation(cmd.Context(), cfg, FlagAutoLocate, c)
	if err != nil {
		return nil, err
	}

	tz, err := resolveZone(cfg.Timezone, loc.Timezone)
	if err != nil {
		return nil, err
	}

	m, ok := cfg.MethodOrDefault()
	if !ok {
		log.Warn().Str("method", cfg.Method).Msgf("unknown calculation method, using %s", m)
	}

	s := &session{
		cfg: cfg,
		loc: loc,
		req: watch.Request{
			Coordinates: loc.Coordinates,
			Location:    tz,
			Method:      m,
			School:      cfg.SchoolOrDefault(),
		},
		layout: goTimeLayout(cfg.TimeFormat),
		now:    now().In(tz),
	}

	s.day, err = parseDay(FlagDate, s.now)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("source", loc.Source).
		Float64("latitude", loc.Coordinates.Latitude).
		Float64("longitude", loc.Coordinates.Longitude).
		Str("timezone", tz.String()).
		Str("method", m.String()).
		Str("school", s.req.School.String()).
		Msg("resolved location")

	return s, nil
}

// isToday reports whether the selected day is the current local day.
func (s *session) isToday() bool {
	return s.day.Format(dateLayout) == s.now.Format(dateLayout)
}

// schedule computes the schedule for day, naming the failing stages on a
// domain error.
func (s *session) schedule(day time.Time) (prayer.Schedule, error) {
	sched, err := s.req.Schedule(day)
	if err != nil {
		return prayer.Schedule{}, scheduleError(day, err)
	}
	return sched, nil
}

const dateLayout = "2006-01-02"

// parseDay returns local midnight of raw (YYYY-MM-DD) in now's zone, or of
// now itself when raw is empty.
func parseDay(raw string, now time.Time) (time.Time, error) {
	if raw == "" {
		return dayOf(now), nil
	}
	day, err := time.ParseInLocation(dateLayout, raw, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q: expected YYYY-MM-DD", raw)
	}
	return day, nil
}

// dayOf is the calendar day of t at local midnight.
func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// resolveZone picks the configured zone, then the detected one, then the
// system zone.
func resolveZone(configured, detected string) (*time.Location, error) {
	if configured != "" {
		tz, err := time.LoadLocation(configured)
		if err != nil {
			return nil, fmt.Errorf("invalid timezone %q: %w", configured, err)
		}
		return tz, nil
	}
	if detected != "" {
		if tz, err := time.LoadLocation(detected); err == nil {
			return tz, nil
		}
		log.Warn().Str("timezone", detected).Msg("detected timezone unknown, using system zone")
	}
	return time.Local, nil
}

// openCache opens the configured cache directory. A failure is logged and
// leaves caching off.
func openCache(cfg *config.Config) *cache.Cache {
	c, err := cache.New(cfg.CacheDir)
	if err != nil {
		log.Warn().Err(err).Msg("cache disabled")
		return nil
	}
	return c
}

// detectLocation is swapped out in tests.
var detectLocation = geo.DetectLocation

// resolveLocation determines the effective location.
// Priority: flags/env/config > cached geolocation > IP auto-detect > Makkah.
// Geolocation is only consulted when autoLocate is set.
func resolveLocation(ctx context.Context, cfg *config.Config, autoLocate bool, c *cache.Cache) (resolvedLocation, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if lat, lon, ok := cfg.Coordinates(); ok {
		return resolvedLocation{
			Coordinates: prayer.Coordinates{Latitude: lat, Longitude: lon},
			City:        cfg.City,
			Source:      "config",
		}, nil
	}
	if cfg.Latitude != nil || cfg.Longitude != nil {
		return resolvedLocation{}, errors.New("latitude and longitude must be set together")
	}

	if autoLocate {
		// Try cached geolocation first.
		if c != nil {
			if cached := c.LoadGeo(); cached != nil {
				return fromGeo(cfg, cached), nil
			}
		}

		detected, err := detectLocation(ctx)
		if err == nil {
			if c != nil {
				if err := c.SaveGeo(detected); err != nil {
					log.Warn().Err(err).Msg("failed to cache geolocation")
				}
			}
			return fromGeo(cfg, detected), nil
		}
		log.Warn().Err(err).Msgf("auto-detection failed, using %s", config.DefaultCity)
	}

	if cfg.City != "" {
		log.Warn().Str("city", cfg.City).Msg("city has no coordinates, set latitude and longitude")
	}
	return resolvedLocation{
		Coordinates: prayer.Coordinates{Latitude: config.DefaultLatitude, Longitude: config.DefaultLongitude},
		City:        config.DefaultCity,
		Source:      "default",
	}, nil
}

func fromGeo(cfg *config.Config, g *geo.Location) resolvedLocation {
	city := cfg.City
	if city == "" {
		city = strings.Trim(g.City+", "+g.Country, ", ")
	}
	return resolvedLocation{
		Coordinates: g.Coordinates(),
		City:        city,
		Timezone:    g.Timezone,
		Source:      "geo",
	}
}

// scheduleError names the stages that do not occur on day.
func scheduleError(day time.Time, err error) error {
	stages := prayer.FailedStages(err)
	if len(stages) == 0 {
		return err
	}
	names := make([]string, len(stages))
	for i, st := range stages {
		names[i] = st.String()
	}
	return fmt.Errorf("no schedule for %s, %s cannot be computed at this latitude: %w",
		day.Format(dateLayout), strings.Join(names, ", "), err)
}
