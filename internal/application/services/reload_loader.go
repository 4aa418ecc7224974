package services

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"sync"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/reglet-dev/hotload/internal/application/errors"
	"github.com/reglet-dev/hotload/internal/application/ports"
	"github.com/reglet-dev/hotload/internal/domain/entities"
	"github.com/reglet-dev/hotload/internal/domain/values"
	"golang.org/x/sync/singleflight"
)

// Ensure interface compliance
var _ ports.ModuleResolver = (*ReloadLoader)(nil)

// LoaderDeps holds the collaborators of a ReloadLoader.
type LoaderDeps struct {
	Source   ports.ByteSource
	Definer  ports.ModuleDefiner
	Modules  ports.ModuleTable
	Packages ports.PackageTable
}

// LoaderOption configures a ReloadLoader.
type LoaderOption func(*ReloadLoader)

// WithSuffix sets the suffix appended to resource paths (default ".wasm").
func WithSuffix(suffix string) LoaderOption {
	return func(l *ReloadLoader) {
		if suffix != "" {
			l.suffix = suffix
		}
	}
}

// WithObserver installs an observer for loader events.
func WithObserver(observer ports.Observer) LoaderOption {
	return func(l *ReloadLoader) {
		if observer != nil {
			l.observer = observer
		}
	}
}

// WithLenientPackages ignores every package registration failure instead of
// only duplicate registrations.
func WithLenientPackages() LoaderOption {
	return func(l *ReloadLoader) {
		l.lenientPackages = true
	}
}

// WithClock overrides the time source used for definition timestamps.
func WithClock(now func() time.Time) LoaderOption {
	return func(l *ReloadLoader) {
		if now != nil {
			l.now = now
		}
	}
}

// ReloadLoader resolves modules child-first for names inside its scope.
//
// For a target name the loader consults its own module table, then its byte
// source, and only then its parent. Names outside the scope go straight to
// the parent without touching the byte source. A ReloadLoader is built once
// per reload cycle and discarded as a whole when the next cycle starts.
type ReloadLoader struct {
	parent   ports.ModuleResolver
	source   ports.ByteSource
	definer  ports.ModuleDefiner
	modules  ports.ModuleTable
	packages ports.PackageTable
	observer ports.Observer
	now      func() time.Time

	id              string
	suffix          string
	scope           values.Scope
	lenientPackages bool

	flights singleflight.Group

	mu     sync.Mutex // guards closed and inserts into modules
	closed bool
}

// NewReloadLoader creates a loader for scope on top of parent.
// A nil parent ends the chain: delegated names are reported as not found.
func NewReloadLoader(parent ports.ModuleResolver, scope values.Scope, deps LoaderDeps, opts ...LoaderOption) (*ReloadLoader, error) {
	if !scope.IsSet() {
		return nil, apperrors.NewInvalidArgumentError("rootPackage", "root package name is not set")
	}
	switch {
	case deps.Source == nil:
		return nil, apperrors.NewInvalidArgumentError("source", "byte source is required")
	case deps.Definer == nil:
		return nil, apperrors.NewInvalidArgumentError("definer", "module definer is required")
	case deps.Modules == nil:
		return nil, apperrors.NewInvalidArgumentError("modules", "module table is required")
	case deps.Packages == nil:
		return nil, apperrors.NewInvalidArgumentError("packages", "package table is required")
	}

	l := &ReloadLoader{
		parent:   parent,
		source:   deps.Source,
		definer:  deps.Definer,
		modules:  deps.Modules,
		packages: deps.Packages,
		observer: ports.NopObserver{},
		now:      time.Now,
		id:       uuid.NewString(),
		suffix:   values.DefaultSuffix,
		scope:    scope,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// ID returns the generation ID of the loader.
func (l *ReloadLoader) ID() string { return l.id }

// Scope returns the root package the loader is authoritative for.
func (l *ReloadLoader) Scope() values.Scope { return l.scope }

// Parent returns the resolver delegated to, nil at the end of a chain.
func (l *ReloadLoader) Parent() ports.ModuleResolver { return l.parent }

// IsTarget reports whether the loader itself is authoritative for name.
func (l *ReloadLoader) IsTarget(name string) bool {
	return l.scope.Contains(name)
}

// ResolveModule implements ports.ModuleResolver.
// A closed loader fails every call with an error wrapping
// apperrors.ErrLoaderClosed.
func (l *ReloadLoader) ResolveModule(ctx context.Context, name string, link bool) (*entities.Module, error) {
	if l.isClosed() {
		return nil, apperrors.NewIllegalStateError(name, "loader "+l.id+" is closed", apperrors.ErrLoaderClosed)
	}
	target := l.IsTarget(name)
	l.emit(ports.Event{Kind: ports.EventLookup, Module: name, Target: target})

	if target {
		if m, ok := l.modules.Lookup(name); ok {
			l.emit(ports.Event{Kind: ports.EventCacheHit, Module: name, Target: true})
			return m, nil
		}

		m, err := l.loadTarget(ctx, name, link)
		if err != nil {
			return nil, err
		}
		if m != nil {
			return m, nil
		}
	}

	return l.delegate(ctx, name, link)
}

// Modules returns the modules defined by this loader.
func (l *ReloadLoader) Modules() []*entities.Module {
	return l.modules.List()
}

// Packages returns the packages registered by this loader.
func (l *ReloadLoader) Packages() []*entities.Package {
	return l.packages.List()
}

// Close releases every module this loader defined. Modules resolved through
// the parent are left alone. Loads still in flight when Close runs release
// what they define and fail.
func (l *ReloadLoader) Close(ctx context.Context) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	modules := l.modules.List()
	l.mu.Unlock()

	var errs []error
	for _, m := range modules {
		if err := m.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	err := errors.Join(errs...)
	l.emit(ports.Event{Kind: ports.EventClosed, Err: err})
	return err
}

func (l *ReloadLoader) isClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

// loadTarget defines name from the byte source. A nil module with a nil
// error means the source does not have it.
//
// The flight runs without the caller's cancellation. Each caller stops
// waiting when its own ctx ends.
func (l *ReloadLoader) loadTarget(ctx context.Context, name string, link bool) (*entities.Module, error) {
	flightCtx := context.WithoutCancel(ctx)
	ch := l.flights.DoChan(name, func() (any, error) {
		// Another flight may have finished between the caller's lookup and now.
		if m, ok := l.modules.Lookup(name); ok {
			return m, nil
		}
		if err := l.registerPackage(name); err != nil {
			return nil, err
		}
		return l.define(flightCtx, name)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if res.Err != nil {
		return nil, res.Err
	}

	m, _ := res.Val.(*entities.Module)
	if m == nil {
		return nil, nil
	}
	if link {
		if err := l.link(ctx, m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (l *ReloadLoader) registerPackage(name string) error {
	pkg, ok := values.PackageOf(name)
	if !ok {
		return nil
	}
	if _, exists := l.packages.Lookup(pkg); exists {
		return nil
	}

	err := l.packages.Register(entities.NewPackage(pkg, l.now()))
	switch {
	case err == nil:
		l.emit(ports.Event{Kind: ports.EventPackageRegistered, Module: name, Package: pkg, Target: true})
	case errors.Is(err, apperrors.ErrPackageExists), l.lenientPackages:
		l.emit(ports.Event{Kind: ports.EventPackageIgnored, Module: name, Package: pkg, Target: true, Err: err})
	default:
		return apperrors.NewIllegalStateError(name, "failed to register package "+pkg, err)
	}
	return nil
}

func (l *ReloadLoader) define(ctx context.Context, name string) (*entities.Module, error) {
	path := values.ResourcePath(name, l.suffix)

	data, found, err := l.readBytes(ctx, path)
	if err != nil {
		return nil, apperrors.NewIllegalStateError(name, "failed to read module bytes from "+path, err)
	}
	if !found {
		l.emit(ports.Event{Kind: ports.EventSourceMiss, Module: name, Path: path, Target: true})
		return nil, nil
	}

	m, err := l.definer.Define(ctx, l.id, name, data)
	if err != nil {
		return nil, apperrors.NewDefinitionError(name, err)
	}
	if err := l.insert(m); err != nil {
		_ = m.Close(ctx)
		if errors.Is(err, apperrors.ErrLoaderClosed) {
			return nil, apperrors.NewIllegalStateError(name, "loader "+l.id+" closed while loading", err)
		}
		return nil, apperrors.NewDefinitionError(name, err)
	}

	l.emit(ports.Event{Kind: ports.EventDefined, Module: name, Package: m.Package(), Path: path, Target: true})
	return m, nil
}

// insert adds m to the module table unless Close has already run.
func (l *ReloadLoader) insert(m *entities.Module) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return apperrors.ErrLoaderClosed
	}
	return l.modules.Insert(m)
}

// readBytes reads path fully. found is false when the source does not have
// the resource; the reader is closed on every path out.
func (l *ReloadLoader) readBytes(ctx context.Context, path string) (data []byte, found bool, err error) {
	rc, err := l.source.Open(ctx, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if rc == nil {
		return nil, false, nil
	}
	defer func() {
		if cerr := rc.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	data, err = io.ReadAll(rc)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (l *ReloadLoader) link(ctx context.Context, m *entities.Module) error {
	if m.Linked() {
		return nil
	}
	if err := l.definer.Link(ctx, m); err != nil {
		return apperrors.NewDefinitionError(m.Name().String(), err)
	}
	l.emit(ports.Event{Kind: ports.EventLinked, Module: m.Name().String(), Target: true})
	return nil
}

func (l *ReloadLoader) delegate(ctx context.Context, name string, link bool) (*entities.Module, error) {
	if l.parent == nil {
		return nil, apperrors.NewModuleNotFoundError(name)
	}
	l.emit(ports.Event{Kind: ports.EventDelegated, Module: name})
	return l.parent.ResolveModule(ctx, name, link)
}

func (l *ReloadLoader) emit(e ports.Event) {
	e.LoaderID = l.id
	l.observer.Observe(e)
}
