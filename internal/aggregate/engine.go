// Package aggregate loads whole collections for the admin views, caches
// them per entity type and filters them on demand.
package aggregate

import (
	"context"
	"fmt"
	"sync"

	"github.com/boddenberg/banksim-client-go/internal/domain"
	"github.com/boddenberg/banksim-client-go/internal/infra/observability"
	"github.com/boddenberg/banksim-client-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var tracer = otel.Tracer("aggregate")

// ListFunc loads one full collection.
type ListFunc func(ctx context.Context) ([]domain.Record, error)

// Sources maps each entity type to the call that lists it.
type Sources map[domain.EntityType]ListFunc

// RepositorySources wires the four collections to their repositories.
func RepositorySources(c port.CustomerRepository, a port.AccountRepository, t port.TransactionRepository, q port.QueryRepository) Sources {
	return Sources{
		domain.EntityCustomers:    c.List,
		domain.EntityAccounts:     a.List,
		domain.EntityTransactions: t.List,
		domain.EntityQueries:      q.List,
	}
}

// Engine caches collections per type. A loaded type is reused until
// Refresh (or the cache TTL, when one is configured).
type Engine struct {
	sources Sources
	cache   port.Cache[[]domain.Record]
	group   singleflight.Group
	metrics *observability.Metrics
	logger  *zap.Logger

	// gens counts refreshes per type. A load started before the latest
	// refresh must not overwrite the refreshed collection.
	mu   sync.Mutex
	gens map[domain.EntityType]uint64
}

// NewEngine creates an Engine.
func NewEngine(sources Sources, cache port.Cache[[]domain.Record], metrics *observability.Metrics, logger *zap.Logger) *Engine {
	return &Engine{
		sources: sources,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
		gens:    make(map[domain.EntityType]uint64),
	}
}

// LoadCollection returns the cached collection for t, loading it on first
// use. Concurrent first loads of the same type share one call.
func (e *Engine) LoadCollection(ctx context.Context, t domain.EntityType) ([]domain.Record, error) {
	ctx, span := tracer.Start(ctx, "Engine.LoadCollection")
	defer span.End()
	span.SetAttributes(attribute.String("collection", string(t)))

	if recs, ok := e.cache.Get(string(t)); ok {
		e.metrics.IncrCacheHit(string(t))
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return recs, nil
	}
	e.metrics.IncrCacheMiss(string(t))
	span.SetAttributes(attribute.Bool("cache.hit", false))
	return e.load(ctx, t)
}

// Refresh drops the cached collection for t and loads it again.
func (e *Engine) Refresh(ctx context.Context, t domain.EntityType) ([]domain.Record, error) {
	ctx, span := tracer.Start(ctx, "Engine.Refresh")
	defer span.End()
	span.SetAttributes(attribute.String("collection", string(t)))

	e.mu.Lock()
	e.gens[t]++
	e.cache.Delete(string(t))
	e.mu.Unlock()
	e.group.Forget(string(t))
	return e.load(ctx, t)
}

// Invalidate forgets every cached collection.
func (e *Engine) Invalidate() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for t := range e.sources {
		e.gens[t]++
	}
	e.cache.Clear()
}

func (e *Engine) load(ctx context.Context, t domain.EntityType) ([]domain.Record, error) {
	list, ok := e.sources[t]
	if !ok {
		return nil, &domain.ErrValidation{Field: "type", Message: fmt.Sprintf("unknown collection %q", t)}
	}

	// The shared call outlives any single caller; each caller stops
	// waiting on its own context.
	detached := context.WithoutCancel(ctx)
	ch := e.group.DoChan(string(t), func() (any, error) {
		gen := e.generation(t)
		recs, err := list(detached)
		if err != nil {
			return nil, err
		}
		e.storeIfCurrent(t, gen, recs)
		return recs, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	v, err, shared := res.Val, res.Err, res.Shared
	if err != nil {
		e.logger.Warn("collection load failed", zap.String("collection", string(t)), zap.Error(err))
		return nil, err
	}

	recs := v.([]domain.Record)
	e.logger.Debug("collection loaded",
		zap.String("collection", string(t)),
		zap.Int("records", len(recs)),
		zap.Bool("shared", shared),
	)
	return recs, nil
}

func (e *Engine) generation(t domain.EntityType) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gens[t]
}

func (e *Engine) storeIfCurrent(t domain.EntityType, gen uint64, recs []domain.Record) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gens[t] != gen {
		return
	}
	e.cache.Set(string(t), recs)
}
