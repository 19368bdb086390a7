package cache

import (
	"context"
	"time"

	"github.com/go-ports/stencil/internal/logging"
)

// Source is the uncached registry being fronted.
type Source interface {
	Versions(ctx context.Context, pkg string) ([]string, error)
}

// Registry serves version lists from the cache while they are younger than
// TTL and refreshes them from Source otherwise. Source errors are returned
// unchanged; cache read and write failures only fall back to Source.
type Registry struct {
	Source Source
	DB     *DB
	TTL    time.Duration
	Now    func() time.Time
	Log    *logging.Logger
}

// NewRegistry returns a Registry fronting src with db. Cache failures are
// logged to log at verbose level.
func NewRegistry(src Source, db *DB, ttl time.Duration, log *logging.Logger) *Registry {
	return &Registry{Source: src, DB: db, TTL: ttl, Now: time.Now, Log: log}
}

// Versions implements Source.
func (r *Registry) Versions(ctx context.Context, pkg string) ([]string, error) {
	now := r.Now()
	if entry, ok, err := r.DB.Get(pkg); err != nil {
		r.Log.Verbose("cache read failed", "pkg", pkg, "err", err)
	} else if ok && now.Sub(entry.FetchedAt) < r.TTL {
		return entry.Versions, nil
	}

	versions, err := r.Source.Versions(ctx, pkg)
	if err != nil {
		return nil, err
	}
	if err := r.DB.Put(pkg, versions, now); err != nil {
		r.Log.Verbose("cache write failed", "pkg", pkg, "err", err)
	}
	return versions, nil
}

// Close closes the underlying database.
func (r *Registry) Close() error {
	return r.DB.Close()
}
