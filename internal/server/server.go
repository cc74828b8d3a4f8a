// Package server exposes schedules and the live status over a small local
// JSON API, for widgets and status bars that cannot shell out.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/smokyabdulrahman/daystage/internal/hijri"
	"github.com/smokyabdulrahman/daystage/internal/method"
	"github.com/smokyabdulrahman/daystage/internal/prayer"
	"github.com/smokyabdulrahman/daystage/internal/watch"
)

const dateLayout = "2006-01-02"

// Server serves the JSON API. Query parameters override the defaults per
// request; nothing is stored between requests.
type Server struct {
	defaults watch.Request
	now      func() time.Time
	logger   zerolog.Logger
	engine   *gin.Engine
}

// Option configures a Server.
type Option func(*Server)

// WithClock replaces time.Now for /v1/status and default dates.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithLogger sets the request logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New builds a Server answering for defaults unless a request overrides them.
func New(defaults watch.Request, opts ...Option) *Server {
	s := &Server{
		defaults: defaults,
		now:      time.Now,
		logger:   log.Logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.logger))
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "HEAD", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Accept"},
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	v1 := r.Group("/v1")
	v1.GET("/schedule", resolve(s.getSchedule))
	v1.GET("/status", resolve(s.getStatus))
	v1.GET("/hijri", resolve(s.getHijri))

	s.engine = r
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// apiError is a failed request; Stages lists boundaries that do not occur.
type apiError struct {
	Code    int
	Message string
	Stages  []prayer.Stage
}

type handlerFunc func(c *gin.Context) (any, *apiError)

func resolve(h handlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, e := h(c)
		if e != nil {
			body := gin.H{"error": e.Message}
			if len(e.Stages) > 0 {
				body["stages"] = e.Stages
			}
			c.JSON(e.Code, body)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func requestLogger(l zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		l.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}

// errorFor maps engine errors onto HTTP status codes.
func errorFor(err error) *apiError {
	switch {
	case errors.Is(err, prayer.ErrInvalidInput):
		return &apiError{Code: http.StatusBadRequest, Message: err.Error()}
	case errors.Is(err, prayer.ErrUndefinedTime):
		return &apiError{
			Code:    http.StatusUnprocessableEntity,
			Message: "some prayer times do not occur at this latitude on this date",
			Stages:  prayer.FailedStages(err),
		}
	default:
		return &apiError{Code: http.StatusInternalServerError, Message: err.Error()}
	}
}

func badRequest(msg string) *apiError {
	return &apiError{Code: http.StatusBadRequest, Message: msg}
}

// requestFrom applies query overrides to the defaults. An unknown method
// falls back to method.Default, and fallback reports that it did.
func (s *Server) requestFrom(c *gin.Context) (req watch.Request, fallback bool, e *apiError) {
	req = s.defaults

	for _, p := range []struct {
		key string
		dst *float64
	}{
		{"latitude", &req.Coordinates.Latitude},
		{"longitude", &req.Coordinates.Longitude},
	} {
		raw, ok := c.GetQuery(p.key)
		if !ok {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return req, false, badRequest("invalid " + p.key + ": " + raw)
		}
		*p.dst = v
	}
	if err := req.Coordinates.Validate(); err != nil {
		return req, false, errorFor(err)
	}

	if raw, ok := c.GetQuery("method"); ok {
		m, known := method.Lookup(raw)
		if !known {
			s.logger.Warn().Str("method", raw).Msgf("unknown calculation method, using %s", m)
			fallback = true
		}
		req.Method = m
	}
	if raw, ok := c.GetQuery("school"); ok {
		sc, err := method.ParseSchool(raw)
		if err != nil {
			return req, false, badRequest(err.Error())
		}
		req.School = sc
	}
	if raw, ok := c.GetQuery("timezone"); ok {
		loc, err := time.LoadLocation(raw)
		if err != nil {
			return req, false, badRequest("invalid timezone: " + raw)
		}
		req.Location = loc
	}
	return req, fallback, nil
}

// dateFrom reads ?date=YYYY-MM-DD in loc, defaulting to today.
func (s *Server) dateFrom(c *gin.Context, loc *time.Location) (time.Time, *apiError) {
	if loc == nil {
		loc = time.UTC
	}
	raw := c.Query("date")
	if raw == "" {
		return s.now().In(loc), nil
	}
	d, err := time.ParseInLocation(dateLayout, raw, loc)
	if err != nil {
		return time.Time{}, badRequest("invalid date, use YYYY-MM-DD: " + raw)
	}
	return d, nil
}

type scheduleResponse struct {
	Date        string             `json:"date"`
	Hijri       string             `json:"hijri"`
	Method      string             `json:"method"`
	School      string             `json:"school"`
	Coordinates prayer.Coordinates `json:"coordinates"`
	Boundaries  []prayer.Boundary  `json:"boundaries"`
	// MethodFallback is set when the requested method was unknown.
	MethodFallback bool `json:"method_fallback,omitempty"`
}

func (s *Server) getSchedule(c *gin.Context) (any, *apiError) {
	req, fallback, e := s.requestFrom(c)
	if e != nil {
		return nil, e
	}
	day, e := s.dateFrom(c, req.Location)
	if e != nil {
		return nil, e
	}

	sched, err := req.Schedule(day)
	if err != nil {
		return nil, errorFor(err)
	}
	return scheduleResponse{
		Date:           sched.Date.Format(dateLayout),
		Hijri:          hijri.FromGregorian(sched.Date).Format(),
		Method:         sched.Method.String(),
		School:         sched.School.String(),
		Coordinates:    req.Coordinates,
		Boundaries:     sched.Boundaries[:],
		MethodFallback: fallback,
	}, nil
}

type statusResponse struct {
	watch.Status
	MethodFallback bool `json:"method_fallback,omitempty"`
}

func (s *Server) getStatus(c *gin.Context) (any, *apiError) {
	req, fallback, e := s.requestFrom(c)
	if e != nil {
		return nil, e
	}
	st, err := watch.Snapshot(req, s.now())
	if err != nil {
		return nil, errorFor(err)
	}
	return statusResponse{Status: st, MethodFallback: fallback}, nil
}

type hijriResponse struct {
	Gregorian string     `json:"gregorian"`
	Hijri     hijri.Date `json:"hijri"`
	Formatted string     `json:"formatted"`
}

// getHijri reads the zone like the other endpoints so "today" agrees.
func (s *Server) getHijri(c *gin.Context) (any, *apiError) {
	req, _, e := s.requestFrom(c)
	if e != nil {
		return nil, e
	}
	day, e := s.dateFrom(c, req.Location)
	if e != nil {
		return nil, e
	}
	h := hijri.FromGregorian(day)
	return hijriResponse{
		Gregorian: day.Format(dateLayout),
		Hijri:     h,
		Formatted: h.Format(),
	}, nil
}
