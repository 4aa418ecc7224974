package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	apperrors "github.com/reglet-dev/hotload/internal/application/errors"
	"github.com/reglet-dev/hotload/internal/application/ports"
	"github.com/reglet-dev/hotload/internal/domain/entities"
	"github.com/reglet-dev/hotload/internal/domain/values"
)

// fakeArtifact stands in for a compiled module.
type fakeArtifact struct {
	closed atomic.Int32
}

func (a *fakeArtifact) Imports() []string { return []string{"env"} }
func (a *fakeArtifact) Exports() []string { return []string{"run"} }
func (a *fakeArtifact) Close(context.Context) error {
	a.closed.Add(1)
	return nil
}

// fakeDefiner defines modules without a runtime and counts calls.
type fakeDefiner struct {
	defines atomic.Int32
	links   atomic.Int32
	delay   time.Duration
	err     error
	linkErr error

	mu        sync.Mutex
	artifacts []*fakeArtifact
}

func (d *fakeDefiner) Define(_ context.Context, loaderID, name string, data []byte) (*entities.Module, error) {
	d.defines.Add(1)
	if d.delay > 0 {
		time.Sleep(d.delay)
	}
	if d.err != nil {
		return nil, d.err
	}
	mn, err := values.NewModuleName(name)
	if err != nil {
		return nil, err
	}
	artifact := &fakeArtifact{}
	d.mu.Lock()
	d.artifacts = append(d.artifacts, artifact)
	d.mu.Unlock()
	return entities.NewModule(mn, data, artifact, loaderID, time.Now())
}

func (d *fakeDefiner) defined() []*fakeArtifact {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*fakeArtifact(nil), d.artifacts...)
}

func (d *fakeDefiner) Link(_ context.Context, m *entities.Module) error {
	d.links.Add(1)
	if d.linkErr != nil {
		return d.linkErr
	}
	m.MarkLinked(m.Artifact().Imports(), m.Artifact().Exports())
	return nil
}

// mapSource serves bytes from a map and records every opened path.
type mapSource struct {
	mu     sync.Mutex
	files  map[string][]byte
	opened []string
	closed int
}

func newMapSource(files map[string][]byte) *mapSource {
	return &mapSource{files: files}
}

func (s *mapSource) Open(_ context.Context, path string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opened = append(s.opened, path)
	data, ok := s.files[path]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", path, fs.ErrNotExist)
	}
	return &trackingReader{Reader: bytes.NewReader(data), onClose: s.onClose}, nil
}

func (s *mapSource) onClose() {
	s.mu.Lock()
	s.closed++
	s.mu.Unlock()
}

func (s *mapSource) openedPaths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.opened...)
}

func (s *mapSource) closeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type trackingReader struct {
	io.Reader
	onClose func()
}

func (r *trackingReader) Close() error {
	r.onClose()
	return nil
}

// brokenReader exists but fails on read.
type brokenReader struct {
	closed bool
}

func (r *brokenReader) Read([]byte) (int, error) { return 0, io.ErrUnexpectedEOF }
func (r *brokenReader) Close() error {
	r.closed = true
	return nil
}

// recordingParent records delegated names and answers from a fixed set.
type recordingParent struct {
	mu      sync.Mutex
	modules map[string]*entities.Module
	calls   []string
	links   []bool
}

func (p *recordingParent) ResolveModule(_ context.Context, name string, link bool) (*entities.Module, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, name)
	p.links = append(p.links, link)
	if m, ok := p.modules[name]; ok {
		return m, nil
	}
	return nil, apperrors.NewModuleNotFoundError(name)
}

// failingPackages rejects every registration with err.
type failingPackages struct {
	err error
}

func (f failingPackages) Lookup(string) (*entities.Package, bool) { return nil, false }
func (f failingPackages) Register(*entities.Package) error       { return f.err }
func (f failingPackages) List() []*entities.Package              { return nil }

// eventLog collects observer events.
type eventLog struct {
	mu     sync.Mutex
	events []ports.Event
}

func (l *eventLog) Observe(e ports.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) kinds() []ports.EventKind {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]ports.EventKind, 0, len(l.events))
	for _, e := range l.events {
		out = append(out, e.Kind)
	}
	return out
}

func (l *eventLog) count(kind ports.EventKind) int {
	n := 0
	for _, k := range l.kinds() {
		if k == kind {
			n++
		}
	}
	return n
}

// simpleModuleTable and simplePackageTable keep the service tests free of
// infrastructure packages.
type simpleModuleTable struct {
	mu      sync.RWMutex
	modules map[string]*entities.Module
}

func newSimpleModuleTable() *simpleModuleTable {
	return &simpleModuleTable{modules: make(map[string]*entities.Module)}
}

func (t *simpleModuleTable) Lookup(name string) (*entities.Module, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	m, ok := t.modules[name]
	return m, ok
}

func (t *simpleModuleTable) Insert(m *entities.Module) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.modules[m.Name().String()]; ok {
		return apperrors.ErrDuplicateDefinition
	}
	t.modules[m.Name().String()] = m
	return nil
}

func (t *simpleModuleTable) List() []*entities.Module {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*entities.Module, 0, len(t.modules))
	for _, m := range t.modules {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name().String() < out[j].Name().String() })
	return out
}

type simplePackageTable struct {
	mu        sync.Mutex
	packages  map[string]*entities.Package
	registers int
}

func newSimplePackageTable() *simplePackageTable {
	return &simplePackageTable{packages: make(map[string]*entities.Package)}
}

func (t *simplePackageTable) Lookup(name string) (*entities.Package, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.packages[name]
	return p, ok
}

func (t *simplePackageTable) Register(p *entities.Package) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.registers++
	if _, ok := t.packages[p.Name]; ok {
		return apperrors.ErrPackageExists
	}
	t.packages[p.Name] = p
	return nil
}

func (t *simplePackageTable) List() []*entities.Package {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*entities.Package, 0, len(t.packages))
	for _, p := range t.packages {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// racyPackageTable reports the package as absent on lookup but already
// registered on Register, as happens when a sibling load wins the race.
type racyPackageTable struct {
	simplePackageTable
}

func (t *racyPackageTable) Lookup(string) (*entities.Package, bool) { return nil, false }

// gatedSource blocks every Open until release is closed. started receives
// one value per Open.
type gatedSource struct {
	files   map[string][]byte
	started chan string
	release chan struct{}
}

func newGatedSource(files map[string][]byte) *gatedSource {
	return &gatedSource{
		files:   files,
		started: make(chan string, 16),
		release: make(chan struct{}),
	}
}

func (s *gatedSource) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	s.started <- path
	select {
	case <-s.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	data, ok := s.files[path]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", path, fs.ErrNotExist)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

var errBoom = errors.New("boom")
