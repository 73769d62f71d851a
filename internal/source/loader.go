package source

import (
	"fmt"
	"log/slog"
	"sort"
)

// Factory builds a connector from a descriptor's settings map. Factories
// must fail fast on missing required settings (API key, directory path)
// rather than deferring the failure to the first search.
type Factory func(settings map[string]string) (Source, error)

// BlockingFactory builds a blocking connector; the loader wraps its
// product in the sync adapter when the descriptor is marked Sync.
type BlockingFactory func(settings map[string]string) (BlockingSource, error)

// Factories maps stable kind keys to connector constructors. Populating
// the map up front (rather than resolving implementations reflectively at
// load time) means an unknown kind is the only "missing implementation"
// failure mode left.
type Factories struct {
	async    map[string]Factory
	blocking map[string]BlockingFactory
}

// NewFactories returns an empty factory registry.
func NewFactories() *Factories {
	return &Factories{
		async:    make(map[string]Factory),
		blocking: make(map[string]BlockingFactory),
	}
}

// Register adds a context-aware connector factory under kind. Registering
// the same kind twice is a programming error and panics.
func (f *Factories) Register(kind string, factory Factory) {
	if _, dup := f.async[kind]; dup {
		panic(fmt.Sprintf("source factory %q registered twice", kind))
	}
	if _, dup := f.blocking[kind]; dup {
		panic(fmt.Sprintf("source factory %q registered twice", kind))
	}
	f.async[kind] = factory
}

// RegisterBlocking adds a blocking connector factory under kind.
func (f *Factories) RegisterBlocking(kind string, factory BlockingFactory) {
	if _, dup := f.async[kind]; dup {
		panic(fmt.Sprintf("source factory %q registered twice", kind))
	}
	if _, dup := f.blocking[kind]; dup {
		panic(fmt.Sprintf("source factory %q registered twice", kind))
	}
	f.blocking[kind] = factory
}

// Kinds returns the registered kind keys in sorted order.
func (f *Factories) Kinds() []string {
	kinds := make([]string, 0, len(f.async)+len(f.blocking))
	for k := range f.async {
		kinds = append(kinds, k)
	}
	for k := range f.blocking {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Build instantiates one connector from a descriptor, applying the sync
// adapter when the descriptor asks for it.
func (f *Factories) Build(desc Descriptor) (Source, error) {
	if factory, ok := f.blocking[desc.Kind]; ok {
		bs, err := factory(desc.Settings)
		if err != nil {
			return nil, err
		}
		return WrapBlocking(bs), nil
	}

	factory, ok := f.async[desc.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown source kind %q", desc.Kind)
	}
	src, err := factory(desc.Settings)
	if err != nil {
		return nil, err
	}
	if desc.Sync {
		// The descriptor claims the connector is blocking but the factory
		// produced a context-aware one; the flag is a no-op in that case.
		slog.Debug("Sync flag set for context-aware source, ignoring", "source", desc.Name, "kind", desc.Kind)
	}
	return src, nil
}

// Load builds a registry from an ordered descriptor list. A descriptor
// that fails to load (unknown kind, constructor error) is logged and
// skipped; one bad source never prevents the rest from loading. Zero
// loadable descriptors yields an empty registry, which callers treat as
// "no sources available", not as an error.
func Load(descriptors []Descriptor, factories *Factories) *Registry {
	registry := NewRegistry()

	for _, desc := range descriptors {
		if desc.Kind == "" {
			slog.Warn("Source descriptor has no kind, skipping", "source", desc.Name)
			continue
		}

		src, err := factories.Build(desc)
		if err != nil {
			slog.Warn("Failed to load source", "source", desc.Name, "kind", desc.Kind, "error", err)
			continue
		}

		registry.Register(src, desc)
		slog.Debug("Loaded source", "source", desc.Name, "kind", desc.Kind,
			"priority", desc.Priority, "enabled", desc.Enabled)
	}

	return registry
}
