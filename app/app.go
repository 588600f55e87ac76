package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jekabolt/grbpwr-analytics/config"
	httpapi "github.com/jekabolt/grbpwr-analytics/internal/api/http"
	"github.com/jekabolt/grbpwr-analytics/internal/dashboard"
	"github.com/jekabolt/grbpwr-analytics/internal/store"
)

// App is the main application
type App struct {
	hs     *httpapi.Server
	db     *store.SQLStore
	svc    *dashboard.Service
	c      *config.Config
	cancel context.CancelFunc
	once   sync.Once
	done   chan struct{}
}

// New returns a new instance of App
func New(c *config.Config) *App {
	return &App{
		c:    c,
		done: make(chan struct{}),
	}
}

// Start loads the first snapshot and starts the API server.
func (a *App) Start(ctx context.Context) error {
	slog.Default().InfoContext(ctx, "starting analytics", slog.String("source", a.c.Source.Kind))

	ctx, a.cancel = context.WithCancel(ctx)

	src, db, err := OpenSource(ctx, a.c)
	if err != nil {
		slog.Default().ErrorContext(ctx, "couldn't open raw source", slog.String("err", err.Error()))
		return err
	}
	a.db = db

	a.svc, err = NewService(a.c, src, db)
	if err != nil {
		a.close()
		return err
	}
	snap, err := a.svc.Reload(ctx)
	if err != nil {
		slog.Default().ErrorContext(ctx, "initial snapshot failed", slog.String("err", err.Error()))
		a.close()
		return err
	}
	slog.Default().InfoContext(ctx, "snapshot ready",
		slog.String("snapshot_id", snap.ID.String()),
		slog.Any("counts", snap.Counts),
	)

	if a.c.Source.ReloadInterval > 0 {
		go a.reloadLoop(ctx, a.c.Source.ReloadInterval)
	}

	a.hs = httpapi.New(&a.c.HTTP, a.svc)
	if err = a.hs.Start(ctx); err != nil {
		slog.Default().ErrorContext(ctx, "cannot start http server", slog.String("err", err.Error()))
		a.close()
		return err
	}
	go func() {
		<-a.hs.Done()
		a.close()
	}()
	return nil
}

// reloadLoop refreshes the snapshot until ctx is done. Unchanged input is
// served from the snapshot cache.
func (a *App) reloadLoop(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := a.svc.Reload(ctx); err != nil {
				slog.Default().ErrorContext(ctx, "periodic reload failed", slog.String("err", err.Error()))
			}
		}
	}
}

// Stop stops the application and waits for all services to exit
func (a *App) Stop(ctx context.Context) {
	if a.hs != nil {
		if err := a.hs.Stop(ctx); err != nil {
			slog.Default().ErrorContext(ctx, "http shutdown failed", slog.String("err", err.Error()))
		}
		<-a.hs.Done()
	}
	a.close()
}

func (a *App) close() {
	a.once.Do(func() {
		if a.cancel != nil {
			a.cancel()
		}
		if a.db != nil {
			a.db.Close()
		}
		close(a.done)
	})
}

// Done returns a channel that is closed after the application has exited
func (a *App) Done() chan struct{} {
	return a.done
}

// Service exposes the dashboard controller once started.
func (a *App) Service() (*dashboard.Service, error) {
	if a.svc == nil {
		return nil, fmt.Errorf("application is not started")
	}
	return a.svc, nil
}
