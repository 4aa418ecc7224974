// Package container provides dependency injection for the application.
package container

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/reglet-dev/hotload/internal/application/ports"
	"github.com/reglet-dev/hotload/internal/application/services"
	"github.com/reglet-dev/hotload/internal/domain/values"
	"github.com/reglet-dev/hotload/internal/infrastructure/observer"
	"github.com/reglet-dev/hotload/internal/infrastructure/persistence/memory"
	"github.com/reglet-dev/hotload/internal/infrastructure/sources"
	"github.com/reglet-dev/hotload/internal/infrastructure/sources/filesystem"
	"github.com/reglet-dev/hotload/internal/infrastructure/sources/gcs"
	"github.com/reglet-dev/hotload/internal/infrastructure/sources/oci"
	"github.com/reglet-dev/hotload/internal/infrastructure/sources/rediskv"
	"github.com/reglet-dev/hotload/internal/infrastructure/system"
	"github.com/reglet-dev/hotload/internal/infrastructure/wasm"
	"github.com/reglet-dev/hotload/internal/infrastructure/watch"
)

// bootstrapLoaderID marks modules defined at startup rather than by a
// loader generation.
const bootstrapLoaderID = "bootstrap"

// Container holds all application dependencies.
//
// The resolver chain it builds is:
//
//	Reloader → ReloadLoader(root package, sources)
//	         → library ReloadLoader("", parent.sources)   (optional, long-lived)
//	         → StaticResolver(bootstrap)
type Container struct {
	config   *system.Config
	logger   *slog.Logger
	observer ports.Observer
	runtime  *wasm.Runtime
	static   *services.StaticResolver
	library  *services.ReloadLoader
	sources  *sources.Chain
	reloader *services.Reloader
	closers  []func() error
}

// Options configure the container.
type Options struct {
	Logger *slog.Logger
	// Config is used as is when set; otherwise ConfigPath is loaded.
	Config     *system.Config
	ConfigPath string
	Verbose    bool
}

// New creates a new dependency injection container and builds the first
// loader generation.
func New(ctx context.Context, opts Options) (_ *Container, err error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	cfg := opts.Config
	if cfg == nil {
		path := opts.ConfigPath
		if path == "" {
			path = system.DefaultConfigFile
		}
		cfg, err = system.NewConfigLoader().Load(path)
		if err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	scope, err := cfg.Scope()
	if err != nil {
		return nil, err
	}

	c := &Container{
		config: cfg,
		logger: opts.Logger,
	}
	defer func() {
		if err != nil {
			_ = c.Close(context.Background())
		}
	}()

	if err := c.initObserver(opts.Verbose); err != nil {
		return nil, err
	}

	c.runtime, err = wasm.NewRuntimeWithMemoryLimit(ctx, cfg.Wasm.MemoryLimitMB)
	if err != nil {
		return nil, err
	}
	c.closers = append(c.closers, func() error { return c.runtime.Close(context.Background()) })

	c.static = services.NewStaticResolver(c.runtime)
	if err := c.defineBootstrap(ctx); err != nil {
		return nil, err
	}

	var parent ports.ModuleResolver = c.static
	if len(cfg.Parent.Sources) > 0 {
		librarySource, err := c.buildChain(ctx, cfg.Parent.Sources)
		if err != nil {
			return nil, fmt.Errorf("parent sources: %w", err)
		}
		c.library, err = services.NewReloadLoader(parent, values.NewScope(""), c.loaderDeps(librarySource), c.loaderOptions()...)
		if err != nil {
			return nil, err
		}
		parent = c.library
	}

	c.sources, err = c.buildChain(ctx, cfg.Sources)
	if err != nil {
		return nil, fmt.Errorf("sources: %w", err)
	}

	factory := func(context.Context) (*services.ReloadLoader, error) {
		return services.NewReloadLoader(parent, scope, c.loaderDeps(c.sources), c.loaderOptions()...)
	}
	c.reloader, err = services.NewReloader(ctx, factory,
		services.WithPreload(cfg.Loader.Preload...),
		services.WithReloadObserver(c.observer),
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Config returns the effective configuration.
func (c *Container) Config() *system.Config { return c.config }

// Logger returns the application logger.
func (c *Container) Logger() *slog.Logger { return c.logger }

// Reloader returns the generation manager.
func (c *Container) Reloader() *services.Reloader { return c.reloader }

// Runtime returns the wasm runtime shared by every loader.
func (c *Container) Runtime() *wasm.Runtime { return c.runtime }

// Library returns the long-lived parent loader, nil when no parent sources
// are configured.
func (c *Container) Library() *services.ReloadLoader { return c.library }

// Bootstrap returns the terminal resolver holding bootstrap modules.
func (c *Container) Bootstrap() *services.StaticResolver { return c.static }

// WatchRoots returns the directories backing the reloadable sources.
func (c *Container) WatchRoots() []string { return c.sources.Roots() }

// Trigger runs until ctx is done and calls a reload function on change.
type Trigger interface {
	Run(ctx context.Context) error
}

// Triggers returns the reload triggers the configuration asks for: a file
// watcher over the directory sources and, when configured, a Redis channel.
func (c *Container) Triggers(reload watch.ReloadFunc) ([]Trigger, error) {
	var triggers []Trigger

	if roots := c.WatchRoots(); len(roots) > 0 {
		debounce, err := c.config.DebounceDuration()
		if err != nil {
			return nil, err
		}
		w, err := watch.New(roots, reload,
			watch.WithDebounce(debounce),
			watch.WithSuffix(c.config.Loader.Suffix),
			watch.WithLogger(c.logger),
		)
		if err != nil {
			return nil, err
		}
		triggers = append(triggers, w)
	}

	if channel := c.config.Watch.RedisChannel; channel != "" {
		client := redis.NewClient(&redis.Options{Addr: c.config.Watch.RedisAddr})
		c.closers = append(c.closers, client.Close)
		t, err := watch.NewRedisTrigger(client, channel, reload, c.logger)
		if err != nil {
			return nil, err
		}
		triggers = append(triggers, t)
	}

	if len(triggers) == 0 {
		return nil, errors.New("nothing to watch: configure an fs source or watch.redis_channel")
	}
	return triggers, nil
}

// Close shuts down the reloader, the parent loaders, the runtime and every
// backend client, in that order.
func (c *Container) Close(ctx context.Context) error {
	var errs []error
	if c.reloader != nil {
		errs = append(errs, c.reloader.Close(ctx))
	}
	if c.library != nil {
		errs = append(errs, c.library.Close(ctx))
	}
	if c.static != nil {
		errs = append(errs, c.static.Close(ctx))
	}
	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = append(errs, c.closers[i]())
	}
	c.closers = nil
	return errors.Join(errs...)
}

func (c *Container) initObserver(verbose bool) error {
	if c.config.Log.Backend != "zap" {
		c.observer = observer.NewSlog(c.logger)
		return nil
	}
	zl, err := observer.NewZapLogger(verbose)
	if err != nil {
		return fmt.Errorf("failed to create zap logger: %w", err)
	}
	c.closers = append(c.closers, func() error {
		_ = zl.Sync()
		return nil
	})
	c.observer = observer.NewZap(zl)
	return nil
}

func (c *Container) loaderDeps(src ports.ByteSource) services.LoaderDeps {
	return services.LoaderDeps{
		Source:   src,
		Definer:  c.runtime,
		Modules:  memory.NewModuleTable(),
		Packages: memory.NewPackageTable(),
	}
}

func (c *Container) loaderOptions() []services.LoaderOption {
	opts := []services.LoaderOption{
		services.WithSuffix(c.config.Loader.Suffix),
		services.WithObserver(c.observer),
	}
	if c.config.Loader.LenientPackages {
		opts = append(opts, services.WithLenientPackages())
	}
	return opts
}

func (c *Container) defineBootstrap(ctx context.Context) error {
	names := make([]string, 0, len(c.config.Bootstrap))
	for name := range c.config.Bootstrap {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		file := filepath.Clean(c.config.Bootstrap[name])
		//nolint:gosec // G304: bootstrap files are listed in the user's config
		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read bootstrap module %s: %w", name, err)
		}
		m, err := c.runtime.Define(ctx, bootstrapLoaderID, name, data)
		if err != nil {
			return fmt.Errorf("failed to define bootstrap module %s: %w", name, err)
		}
		if err := c.static.Register(m); err != nil {
			_ = m.Close(ctx)
			return err
		}
		c.logger.Debug("bootstrap module defined", "module", name, "digest", m.Digest().Short())
	}
	return nil
}

func (c *Container) buildChain(ctx context.Context, configs []system.SourceConfig) (*sources.Chain, error) {
	srcs := make([]ports.ByteSource, 0, len(configs))
	for i, cfg := range configs {
		src, err := c.buildSource(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("[%d] %s: %w", i, cfg.Kind, err)
		}
		srcs = append(srcs, src)
	}
	return sources.NewChain(srcs...), nil
}

func (c *Container) buildSource(ctx context.Context, cfg system.SourceConfig) (ports.ByteSource, error) {
	src, err := c.buildBackend(ctx, cfg)
	if err != nil || cfg.Retries == 0 || cfg.Kind == system.SourceKindFS {
		return src, err
	}
	delay, err := cfg.RetryDelayDuration()
	if err != nil {
		return nil, err
	}
	return sources.NewRetrying(src, sources.RetryPolicy{
		Strategy:     sources.BackoffExponential,
		Attempts:     cfg.Retries,
		InitialDelay: delay,
		MaxDelay:     5 * time.Second,
	}), nil
}

func (c *Container) buildBackend(ctx context.Context, cfg system.SourceConfig) (ports.ByteSource, error) {
	switch cfg.Kind {
	case system.SourceKindFS:
		return filesystem.NewDirSource(cfg.Path)

	case system.SourceKindRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
		c.closers = append(c.closers, client.Close)
		return rediskv.NewSource(client, cfg.Prefix), nil

	case system.SourceKindGCS:
		client, err := gcs.NewClient(ctx, gcs.ClientConfig{
			EmulatorHost:    cfg.EmulatorHost,
			CredentialsFile: cfg.CredentialsFile,
		})
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, client.Close)
		return gcs.NewSource(gcs.NewBucketReader(client.Bucket(cfg.Bucket)), cfg.Prefix), nil

	case system.SourceKindOCI:
		return oci.NewRemoteSource(cfg.Reference, cfg.PlainHTTP)

	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.Kind)
	}
}
