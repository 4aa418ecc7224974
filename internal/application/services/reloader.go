package services

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	apperrors "github.com/reglet-dev/hotload/internal/application/errors"
	"github.com/reglet-dev/hotload/internal/application/ports"
	"github.com/reglet-dev/hotload/internal/domain/entities"
	"golang.org/x/sync/errgroup"
)

// Ensure interface compliance
var _ ports.ModuleResolver = (*Reloader)(nil)

// LoaderFactory builds a fresh loader generation.
type LoaderFactory func(ctx context.Context) (*ReloadLoader, error)

// ReloaderOption configures a Reloader.
type ReloaderOption func(*Reloader)

// WithPreload lists modules resolved (and linked) in every new generation
// before it becomes current.
func WithPreload(names ...string) ReloaderOption {
	return func(r *Reloader) {
		r.preload = append(r.preload, names...)
	}
}

// WithPreloadConcurrency bounds how many preload modules are resolved at
// once. Values below 1 mean one per CPU.
func WithPreloadConcurrency(n int) ReloaderOption {
	return func(r *Reloader) {
		r.preloadWorkers = n
	}
}

// WithReloadObserver installs an observer for generation switches.
func WithReloadObserver(observer ports.Observer) ReloaderOption {
	return func(r *Reloader) {
		if observer != nil {
			r.observer = observer
		}
	}
}

// Reloader keeps the active loader generation and replaces it on demand.
//
// Semantics of Reload:
// 1. build the next generation from the factory
// 2. resolve preload modules in it; on failure keep the current generation
// 3. atomically swap current
// 4. close the old generation's modules
type Reloader struct {
	factory  LoaderFactory
	observer ports.Observer
	preload  []string

	preloadWorkers int

	mu          sync.Mutex // serializes Reload and Close
	current     atomic.Pointer[ReloadLoader]
	generations atomic.Uint64
}

// NewReloader builds the first generation.
func NewReloader(ctx context.Context, factory LoaderFactory, opts ...ReloaderOption) (*Reloader, error) {
	if factory == nil {
		return nil, apperrors.NewInvalidArgumentError("factory", "loader factory is required")
	}
	r := &Reloader{
		factory:  factory,
		observer: ports.NopObserver{},
	}
	for _, opt := range opts {
		opt(r)
	}
	if _, err := r.Reload(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

// Current returns the active generation, nil after Close.
func (r *Reloader) Current() *ReloadLoader {
	return r.current.Load()
}

// Generations returns how many generations have been made current.
func (r *Reloader) Generations() uint64 {
	return r.generations.Load()
}

// Reload switches to a new generation and returns it.
func (r *Reloader) Reload(ctx context.Context) (*ReloadLoader, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next, err := r.factory(ctx)
	if err != nil {
		return nil, fmt.Errorf("build next loader generation: %w", err)
	}

	if err := r.prewarm(ctx, next); err != nil {
		_ = next.Close(context.Background())
		return nil, err
	}

	old := r.current.Swap(next)
	r.generations.Add(1)
	r.observer.Observe(ports.Event{Kind: ports.EventReloaded, LoaderID: next.ID()})

	if old != nil {
		if err := old.Close(ctx); err != nil {
			return next, fmt.Errorf("switch success but close old generation failed: %w", err)
		}
	}
	return next, nil
}

// prewarm resolves and links every preload module in gen. The first failure
// cancels the rest.
func (r *Reloader) prewarm(ctx context.Context, gen *ReloadLoader) error {
	if len(r.preload) == 0 {
		return nil
	}

	workers := r.preloadWorkers
	if workers < 1 {
		workers = runtime.NumCPU()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, name := range r.preload {
		g.Go(func() error {
			if _, err := gen.ResolveModule(gctx, name, true); err != nil {
				return fmt.Errorf("prewarm %s: %w", name, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// ResolveModule resolves name through the active generation. A call that
// races a reload and hits the generation being closed is retried on the
// generation that replaced it.
func (r *Reloader) ResolveModule(ctx context.Context, name string, link bool) (*entities.Module, error) {
	for {
		current := r.current.Load()
		if current == nil {
			return nil, apperrors.NewIllegalStateError(name, "reloader is closed", apperrors.ErrLoaderClosed)
		}
		m, err := current.ResolveModule(ctx, name, link)
		if err != nil && errors.Is(err, apperrors.ErrLoaderClosed) && r.current.Load() != current {
			continue
		}
		return m, err
	}
}

// Close closes the active generation. Later resolutions fail.
func (r *Reloader) Close(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	old := r.current.Swap(nil)
	if old == nil {
		return nil
	}
	return old.Close(ctx)
}
