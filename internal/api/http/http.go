package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/shopspring/decimal"

	"github.com/jekabolt/grbpwr-analytics/internal/entity"
	clientid "github.com/jekabolt/grbpwr-analytics/internal/middleware"
	"github.com/jekabolt/grbpwr-analytics/internal/ratelimit"
)

// Config is the configuration for the http server
type Config struct {
	Port           string        `mapstructure:"port"`
	Address        string        `mapstructure:"address"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	// ReloadsPerMinute limits snapshot reloads per client, zero disables the limit.
	ReloadsPerMinute int `mapstructure:"reloads_per_minute"`
	// TrustedProxies lists proxy addresses or CIDR prefixes whose forwarding headers are honored.
	TrustedProxies []string `mapstructure:"trusted_proxies"`
}

// Proxies parses the trusted proxy list.
func (c *Config) Proxies() ([]netip.Prefix, error) {
	return clientid.ParseProxies(c.TrustedProxies)
}

const defaultRequestTimeout = 30 * time.Second

// Dashboard is the controller the handlers delegate to.
type Dashboard interface {
	Reload(ctx context.Context) (*entity.Snapshot, error)
	Snapshot() (*entity.Snapshot, error)
	Runs(ctx context.Context, limit int) ([]entity.CleanRun, error)
	Options() (entity.FilterOptions, error)
	Compute(ctx context.Context, spec entity.FilterSpec, g entity.MetricsGranularity) (*entity.Dashboard, error)
	DrillDown(ctx context.Context, spec entity.FilterSpec, zone string) (entity.ZoneDrillDown, error)
	WhatIf(ctx context.Context, spec entity.FilterSpec, target decimal.Decimal) (entity.Projection, error)
	Sweep(ctx context.Context, spec entity.FilterSpec) ([]entity.SweepRow, error)
	Scenario(ctx context.Context, spec entity.FilterSpec, levers entity.ScenarioLevers) (entity.ScenarioResult, error)
}

// Server is the http server
type Server struct {
	hs      *http.Server
	c       *Config
	svc     Dashboard
	reloads *ratelimit.Limiter
	proxies []netip.Prefix
	latency *Latency
	done    chan struct{}
}

// New creates a new server
func New(config *Config, svc Dashboard) *Server {
	proxies, err := config.Proxies()
	if err != nil {
		slog.Default().Error("ignoring trusted proxies", slog.String("err", err.Error()))
		proxies = nil
	}
	return &Server{
		c:       config,
		svc:     svc,
		reloads: ratelimit.NewLimiter(time.Minute, config.ReloadsPerMinute),
		proxies: proxies,
		latency: NewLatency(),
		done:    make(chan struct{}),
	}
}

// Done returns a channel that is closed when the http server exits
func (s *Server) Done() <-chan struct{} {
	return s.done
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	timeout := s.c.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowOriginFunc: func(_ *http.Request, origin string) bool {
			return isOriginAllowed(origin, s.c.AllowedOrigins)
		},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Content-Length", "Accept-Encoding"},
	}))
	r.Use(middleware.RequestID)
	r.Use(clientid.ClientIdentifier(s.proxies))
	r.Use(s.latency.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.health)
		r.Get("/stats/latency", s.latencyStats)

		r.Route("/snapshot", func(r chi.Router) {
			r.Get("/", s.snapshot)
			r.Post("/reload", s.reload)
			r.Get("/runs", s.runs)
		})

		r.Route("/dashboard", func(r chi.Router) {
			r.Get("/", s.dashboard)
			r.Get("/options", s.options)
			r.Get("/zones/{zone}", s.zone)
			r.Get("/whatif", s.whatIf)
			r.Get("/whatif/sweep", s.sweep)
			r.Get("/scenario", s.scenario)
		})
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		render.Render(w, r, ErrNotFound)
	})
	return r
}

// Start starts listening in the background.
func (s *Server) Start(ctx context.Context) error {
	listenerAddr := fmt.Sprintf("%s:%s", s.c.Address, s.c.Port)
	s.hs = &http.Server{
		Addr:              listenerAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.reloads.Run(ctx, time.Minute)
	go func() {
		defer close(s.done)
		slog.Default().InfoContext(ctx, "grbpwr-analytics new listener", slog.String("addr", "http://"+listenerAddr))
		err := s.hs.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			slog.Default().InfoContext(ctx, "http server returned")
			return
		}
		slog.Default().ErrorContext(ctx, "http server exited with an error", slog.String("err", err.Error()))
	}()
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.hs == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.hs.Shutdown(ctx)
}

func isOriginAllowed(origin string, allowedOrigins []string) bool {
	if strings.HasPrefix(origin, "http://localhost:") || strings.HasPrefix(origin, "https://localhost:") {
		return true
	}
	for _, allowed := range allowedOrigins {
		if allowed == "*" || origin == allowed {
			return true
		}
	}
	return false
}
