package app

import (
	"context"
	"fmt"
	"path"

	"github.com/jekabolt/grbpwr-analytics/config"
	"github.com/jekabolt/grbpwr-analytics/internal/bucket"
	"github.com/jekabolt/grbpwr-analytics/internal/cache"
	"github.com/jekabolt/grbpwr-analytics/internal/csvsource"
	"github.com/jekabolt/grbpwr-analytics/internal/dashboard"
	"github.com/jekabolt/grbpwr-analytics/internal/dependency"
	"github.com/jekabolt/grbpwr-analytics/internal/store"
	"github.com/jekabolt/grbpwr-analytics/internal/whatif"
)

// OpenSource opens the configured raw source. For sql sources the store is
// returned as well and must be closed by the caller.
func OpenSource(ctx context.Context, c *config.Config) (dependency.Source, *store.SQLStore, error) {
	switch c.Source.Kind {
	case config.SourceMySQL, config.SourcePostgres:
		db, err := OpenStore(ctx, c)
		if err != nil {
			return nil, nil, err
		}
		return db, db, nil
	case config.SourceCSV:
		return csvsource.New(c.CSV), nil, nil
	case config.SourceBucket:
		b, err := c.Bucket.New()
		if err != nil {
			return nil, nil, err
		}
		return bucket.NewSource(b, c.Bucket.S3BucketName, path.Clean(c.Bucket.BaseFolder)), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown source kind %q", c.Source.Kind)
	}
}

// OpenStore connects to the sql store. The driver follows the source kind
// when the source is a sql database.
func OpenStore(ctx context.Context, c *config.Config) (*store.SQLStore, error) {
	dbc := c.DB
	if c.Source.Kind == config.SourceMySQL || c.Source.Kind == config.SourcePostgres {
		dbc.Driver = c.Source.Kind
	}
	db, err := store.New(ctx, dbc)
	if err != nil {
		return nil, fmt.Errorf("couldn't connect to %s: %w", dbc.Driver, err)
	}
	return db, nil
}

// NewService builds the dashboard controller over src. Clean runs are
// recorded when db is set and recording is enabled.
func NewService(c *config.Config, src dependency.Source, db *store.SQLStore) (*dashboard.Service, error) {
	policy, err := c.Clean.Policy()
	if err != nil {
		return nil, err
	}
	model, err := whatif.Load(c.WhatIf.CoefficientsFile)
	if err != nil {
		return nil, err
	}
	var runs dependency.CleanRunRecorder
	if db != nil && c.Source.RecordRuns {
		runs = db
	}
	return dashboard.New(src, cache.New(policy, 0), runs, model, c.WhatIf), nil
}
