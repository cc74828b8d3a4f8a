package watch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/smokyabdulrahman/daystage/internal/prayer"
)

// DefaultInterval is the tick period when none is given.
const DefaultInterval = time.Second

const rolloverSpec = "0 0 0 * * *"

// Watcher recomputes a Status on every tick and hands it to a callback.
// Schedules are memoised per calendar day and dropped at local midnight.
type Watcher struct {
	req      Request
	interval time.Duration
	now      func() time.Time
	onTick   func(Status)
	onError  func(error)
	logger   zerolog.Logger

	mu     sync.Mutex
	memo   map[string]prayer.Schedule
	window prayer.Window // last reported stage span

	cron *cron.Cron
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithInterval sets the tick period. It must be a whole number of seconds
// below one minute.
func WithInterval(d time.Duration) Option {
	return func(w *Watcher) { w.interval = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(w *Watcher) { w.now = now }
}

// WithLogger sets the logger. Defaults to the global zerolog logger.
func WithLogger(l zerolog.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// OnError is called when a tick cannot produce a Status.
func OnError(fn func(error)) Option {
	return func(w *Watcher) { w.onError = fn }
}

// New validates req and builds a Watcher. Nothing runs until Run.
func New(req Request, onTick func(Status), opts ...Option) (*Watcher, error) {
	if onTick == nil {
		return nil, errors.New("watch: nil tick callback")
	}
	if err := req.Coordinates.Validate(); err != nil {
		return nil, err
	}
	w := &Watcher{
		req:      req,
		interval: DefaultInterval,
		now:      time.Now,
		onTick:   onTick,
		logger:   log.Logger,
		memo:     make(map[string]prayer.Schedule),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.interval < time.Second || w.interval >= time.Minute || w.interval%time.Second != 0 {
		return nil, fmt.Errorf("watch: interval %v must be whole seconds between 1s and 59s", w.interval)
	}

	w.cron = cron.New(
		cron.WithSeconds(),
		cron.WithLocation(req.location()),
		cron.WithLogger(cronLogger{w.logger}),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger{w.logger})),
	)
	if _, err := w.cron.AddFunc(fmt.Sprintf("@every %s", w.interval), w.Tick); err != nil {
		return nil, fmt.Errorf("watch: schedule tick: %w", err)
	}
	if _, err := w.cron.AddFunc(rolloverSpec, w.Rollover); err != nil {
		return nil, fmt.Errorf("watch: schedule rollover: %w", err)
	}
	return w, nil
}

// Run emits one tick immediately, then ticks on schedule until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Debug().
		Float64("latitude", w.req.Coordinates.Latitude).
		Float64("longitude", w.req.Coordinates.Longitude).
		Str("method", w.req.Method.String()).
		Dur("interval", w.interval).
		Msg("watch started")

	w.Tick()
	w.cron.Start()
	<-ctx.Done()
	<-w.cron.Stop().Done()

	w.logger.Debug().Msg("watch stopped")
	return ctx.Err()
}

// Tick computes the current Status and delivers it.
func (w *Watcher) Tick() {
	st, err := snapshot(w.now(), w.req.location(), w.schedule)
	if err != nil {
		w.logger.Error().Err(err).Msg("watch tick failed")
		if w.onError != nil {
			w.onError(err)
		}
		return
	}

	w.mu.Lock()
	entered := !w.window.Contains(st.Now)
	if entered {
		w.window = st.Window
	}
	w.mu.Unlock()
	if entered {
		w.logger.Debug().
			Stringer("stage", st.Current).
			Time("until", st.Window.End).
			Msg("stage entered")
	}

	w.onTick(st)
}

// currentWindow returns the stage span of the last tick.
func (w *Watcher) currentWindow() prayer.Window {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.window
}

// Rollover drops memoised schedules so the new day is computed fresh.
func (w *Watcher) Rollover() {
	w.mu.Lock()
	n := len(w.memo)
	w.memo = make(map[string]prayer.Schedule)
	w.mu.Unlock()
	w.logger.Debug().Int("dropped", n).Msg("day rollover")
}

func (w *Watcher) schedule(day time.Time) (prayer.Schedule, error) {
	key := day.Format("2006-01-02")

	w.mu.Lock()
	s, ok := w.memo[key]
	w.mu.Unlock()
	if ok {
		return s, nil
	}

	s, err := w.req.Schedule(day)
	if err != nil {
		return prayer.Schedule{}, err
	}

	w.mu.Lock()
	w.memo[key] = s
	w.mu.Unlock()
	w.logger.Debug().Str("day", key).Msg("schedule computed")
	return s, nil
}

// memoised reports how many days are currently cached.
func (w *Watcher) memoised() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.memo)
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	l zerolog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Trace().Fields(keysAndValues).Msg("cron: " + msg)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
