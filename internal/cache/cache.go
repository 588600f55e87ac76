// Package cache memoizes cleaning runs keyed by the fingerprint of their raw input.
package cache

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/jekabolt/grbpwr-analytics/internal/clean"
	"github.com/jekabolt/grbpwr-analytics/internal/entity"
	gerr "github.com/jekabolt/grbpwr-analytics/internal/errors"
)

const defaultLimit = 4

type Cache struct {
	policy clean.Policy
	limit  int
	group  singleflight.Group

	mu      sync.RWMutex
	byPrint map[uint64]*entity.Snapshot
	order   []uint64
	latest  *entity.Snapshot
}

// New creates a snapshot cache holding at most limit snapshots.
func New(p clean.Policy, limit int) *Cache {
	if limit <= 0 {
		limit = defaultLimit
	}
	return &Cache{
		policy:  p,
		limit:   limit,
		byPrint: make(map[uint64]*entity.Snapshot, limit),
	}
}

// Fingerprint hashes the raw tables in a fixed table order. Tables with equal
// names, headers and records hash equally no matter which source loaded them.
func Fingerprint(raw *entity.RawTables) uint64 {
	d := xxhash.New()
	for _, name := range entity.TableNames {
		_, _ = d.WriteString(name)
		_, _ = d.WriteString("\x1d")
		t := raw.Table(name)
		if t == nil {
			_, _ = d.WriteString("\x00")
			continue
		}
		writeRecord(d, t.Header)
		for _, rec := range t.Records {
			writeRecord(d, rec)
		}
	}
	return d.Sum64()
}

func writeRecord(d *xxhash.Digest, rec []string) {
	for _, v := range rec {
		_, _ = d.WriteString(v)
		_, _ = d.WriteString("\x1f")
	}
	_, _ = d.WriteString("\x1e")
}

// Get returns the snapshot of raw, cleaning it only when its fingerprint is
// not cached yet. Concurrent calls for the same input share one run.
func (c *Cache) Get(ctx context.Context, source string, raw *entity.RawTables) (*entity.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fp := Fingerprint(raw)

	if s, ok := c.lookup(fp); ok {
		c.setLatest(s)
		slog.Default().DebugContext(ctx, "snapshot cache hit",
			slog.String("snapshot_id", s.ID.String()),
			slog.String("source", source),
		)
		return s, nil
	}

	v, err, shared := c.group.Do(strconv.FormatUint(fp, 16), func() (any, error) {
		if s, ok := c.lookup(fp); ok {
			return s, nil
		}
		t, report, err := clean.Clean(raw, c.policy)
		if err != nil {
			return nil, err
		}
		s := &entity.Snapshot{
			ID:          uuid.New(),
			Fingerprint: fp,
			Source:      source,
			CleanedAt:   time.Now().UTC(),
			Counts:      t.Counts(),
			Tables:      t,
			Report:      report,
		}
		c.store(s)
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	s := v.(*entity.Snapshot)
	c.setLatest(s)
	slog.Default().InfoContext(ctx, "snapshot ready",
		slog.String("snapshot_id", s.ID.String()),
		slog.String("source", source),
		slog.Bool("shared", shared),
	)
	return s, nil
}

// Latest returns the snapshot of the most recent Get.
func (c *Cache) Latest() (*entity.Snapshot, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.latest == nil {
		return nil, gerr.ErrNoSnapshot
	}
	return c.latest, nil
}

// Len returns the number of cached snapshots.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byPrint)
}

func (c *Cache) lookup(fp uint64) (*entity.Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.byPrint[fp]
	return s, ok
}

func (c *Cache) setLatest(s *entity.Snapshot) {
	c.mu.Lock()
	c.latest = s
	c.mu.Unlock()
}

func (c *Cache) store(s *entity.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.byPrint[s.Fingerprint]; ok {
		return
	}
	c.byPrint[s.Fingerprint] = s
	c.order = append(c.order, s.Fingerprint)
	for len(c.order) > c.limit {
		delete(c.byPrint, c.order[0])
		c.order = c.order[1:]
	}
}
