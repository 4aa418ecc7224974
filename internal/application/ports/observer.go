package ports

// EventKind identifies what a loader did.
type EventKind string

const (
	EventLookup            EventKind = "lookup"
	EventCacheHit          EventKind = "cache_hit"
	EventPackageRegistered EventKind = "package_registered"
	EventPackageIgnored    EventKind = "package_ignored"
	EventSourceMiss        EventKind = "source_miss"
	EventDefined           EventKind = "defined"
	EventLinked            EventKind = "linked"
	EventDelegated         EventKind = "delegated"
	EventReloaded          EventKind = "reloaded"
	EventClosed            EventKind = "closed"
)

// Event describes one step of module resolution.
type Event struct {
	Err      error
	Kind     EventKind
	LoaderID string
	Module   string
	Package  string
	Path     string
	Target   bool
}

// Observer receives loader events. Implementations must not block and must
// not influence resolution.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// Observe calls f.
func (f ObserverFunc) Observe(e Event) { f(e) }

// NopObserver discards every event.
type NopObserver struct{}

// Observe does nothing.
func (NopObserver) Observe(Event) {}
