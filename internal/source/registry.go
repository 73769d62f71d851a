package source

import "sort"

// entry pairs an instantiated connector with the descriptor it was
// built from.
type entry struct {
	src  Source
	desc Descriptor
}

// Registry holds instantiated connectors in registration order. It is
// populated single-threaded at startup and read-only afterwards, so
// concurrent reads need no locking.
type Registry struct {
	entries []entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends a connector with its descriptor. Duplicate names are
// not rejected; GetByName resolves collisions by first match.
func (r *Registry) Register(src Source, desc Descriptor) {
	r.entries = append(r.entries, entry{src: src, desc: desc})
}

// Registered pairs a connector with the descriptor it was built from,
// for callers that need both.
type Registered struct {
	Source     Source
	Descriptor Descriptor
}

// EnabledByPriority returns the enabled connectors sorted ascending by
// priority, ties broken by registration order. The registry itself is
// not mutated.
func (r *Registry) EnabledByPriority() []Source {
	entries := r.EnabledEntriesByPriority()
	sources := make([]Source, len(entries))
	for i, e := range entries {
		sources[i] = e.Source
	}
	return sources
}

// EnabledEntriesByPriority is EnabledByPriority with each connector's
// descriptor alongside it.
func (r *Registry) EnabledEntriesByPriority() []Registered {
	enabled := make([]entry, 0, len(r.entries))
	for _, e := range r.entries {
		if e.desc.Enabled {
			enabled = append(enabled, e)
		}
	}

	sort.SliceStable(enabled, func(i, j int) bool {
		return enabled[i].desc.Priority < enabled[j].desc.Priority
	})

	entries := make([]Registered, len(enabled))
	for i, e := range enabled {
		entries[i] = Registered{Source: e.src, Descriptor: e.desc}
	}
	return entries
}

// All returns every registered connector in registration order,
// enabled or not.
func (r *Registry) All() []Source {
	sources := make([]Source, len(r.entries))
	for i, e := range r.entries {
		sources[i] = e.src
	}
	return sources
}

// Descriptors returns the descriptor for every registered connector in
// registration order.
func (r *Registry) Descriptors() []Descriptor {
	descs := make([]Descriptor, len(r.entries))
	for i, e := range r.entries {
		descs[i] = e.desc
	}
	return descs
}

// GetByName returns the first connector whose own name or descriptor
// name equals name, or nil. With duplicate names the first registration
// wins.
func (r *Registry) GetByName(name string) Source {
	for _, e := range r.entries {
		if e.src.Name() == name || e.desc.Name == name {
			return e.src
		}
	}
	return nil
}

// DescriptorFor returns the descriptor of the first connector matching
// name. The second return value is false when the name is unknown.
func (r *Registry) DescriptorFor(name string) (Descriptor, bool) {
	for _, e := range r.entries {
		if e.src.Name() == name || e.desc.Name == name {
			return e.desc, true
		}
	}
	return Descriptor{}, false
}

// Len returns the number of registered connectors.
func (r *Registry) Len() int {
	return len(r.entries)
}
