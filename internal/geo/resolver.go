// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package geo

import (
	"context"
	"errors"
	"net/netip"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/telekom/tracemap/internal/helper"
	"github.com/telekom/tracemap/internal/logger"
)

const rateLimiterBurst = 1

// Resolver resolves addresses to [Record]s through a [Lookuper].
//
// Every answer is cached for the lifetime of the Resolver, failures
// included. Concurrent first lookups of the same address share one call
// to the Lookuper, which runs until the last caller waiting for it is
// gone. Calls to the Lookuper are rate limited.
type Resolver struct {
	lookuper Lookuper
	cache    *cache.Cache
	group    singleflight.Group
	limiter  *rate.Limiter
	retry    helper.RetryConfig
	metrics  metrics

	mu      sync.Mutex
	flights map[string]*flight
}

// flight is the shared lookup of one address.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

// NewResolver creates a Resolver in front of l.
func NewResolver(l Lookuper, cfg Config) *Resolver {
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.RateLimit))
	}
	return &Resolver{
		lookuper: l,
		cache:    cache.New(cache.NoExpiration, 0),
		limiter:  rate.NewLimiter(limit, rateLimiterBurst),
		retry:    cfg.Retry,
		metrics:  newMetrics(),
		flights:  map[string]*flight{},
	}
}

// Resolve returns the geolocation of address. It never fails: addresses
// that cannot be located yield a Record with Resolved set to false.
func (r *Resolver) Resolve(ctx context.Context, address string) Record {
	if rec, ok := r.cached(address); ok {
		r.metrics.observe(outcomeHit)
		return rec
	}

	addr, err := netip.ParseAddr(address)
	if err != nil {
		logger.FromContext(ctx).WarnContext(ctx, "Cannot geolocate malformed address", "address", address, "error", err)
		r.store(ctx, Record{Address: address})
		r.metrics.observe(outcomeFailed)
		return Record{Address: address}
	}
	if IsReserved(addr) {
		r.store(ctx, Record{Address: address})
		r.metrics.observe(outcomePrivate)
		return Record{Address: address}
	}

	if ctx.Err() != nil {
		return Record{Address: address}
	}

	f := r.join(ctx, address)
	defer r.leave(address, f)
	ch := r.group.DoChan(address, func() (any, error) {
		// A lookup that finished between the first cache check and
		// entering the group has already stored its record.
		if rec, ok := r.cached(address); ok {
			r.metrics.observe(outcomeHit)
			return rec, nil
		}
		rec := r.lookup(f.ctx, address, addr)
		r.store(f.ctx, rec)
		return rec, nil
	})

	select {
	case res := <-ch:
		return res.Val.(Record)
	case <-ctx.Done():
		return Record{Address: address}
	}
}

// join registers the caller as waiting for the lookup of address. The
// lookup context keeps the values of the first caller's ctx but not its
// cancellation.
func (r *Resolver) join(ctx context.Context, address string) *flight {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.flights[address]
	if !ok {
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		f = &flight{ctx: fctx, cancel: cancel}
		r.flights[address] = f
	}
	f.waiters++
	return f
}

// leave unregisters a caller. The last one cancels the lookup and makes
// the next caller start a new one.
func (r *Resolver) leave(address string, f *flight) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f.waiters--
	if f.waiters > 0 {
		return
	}
	f.cancel()
	if r.flights[address] == f {
		delete(r.flights, address)
		r.group.Forget(address)
	}
}

// GetCollectors returns the metric collectors of the resolver.
func (r *Resolver) GetCollectors() []prometheus.Collector {
	return r.metrics.GetCollectors()
}

func (r *Resolver) lookup(ctx context.Context, address string, addr netip.Addr) Record {
	log := logger.FromContext(ctx).With("address", address)

	loc, err := helper.RetryValue(func(ctx context.Context) (Location, error) {
		if err := r.limiter.Wait(ctx); err != nil {
			return Location{}, helper.Permanent(err)
		}
		return r.lookuper.Lookup(ctx, addr)
	}, r.retry)(ctx)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.DebugContext(ctx, "No geolocation available", "error", err)
		} else {
			log.WarnContext(ctx, "Geolocation lookup failed", "error", err)
		}
		r.metrics.observe(outcomeFailed)
		return Record{Address: address}
	}

	r.metrics.observe(outcomeResolved)
	log.DebugContext(ctx, "Geolocation resolved", "country", loc.Country, "city", loc.City)
	return newRecord(address, loc)
}

func (r *Resolver) cached(address string) (Record, bool) {
	v, ok := r.cache.Get(address)
	if !ok {
		return Record{}, false
	}
	return v.(Record), true
}

// store caches rec unless ctx was canceled, as a canceled lookup says
// nothing about the address.
func (r *Resolver) store(ctx context.Context, rec Record) {
	if ctx.Err() != nil {
		return
	}
	r.cache.Set(rec.Address, rec, cache.NoExpiration)
}
