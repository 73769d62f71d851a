// Package sources wires the built-in connectors into a factory registry.
package sources

import (
	"bookhunt/internal/source"
	"bookhunt/internal/sources/aladin"
	"bookhunt/internal/sources/ebookportal"
	"bookhunt/internal/sources/librarynet"
	"bookhunt/internal/sources/localshelf"
	"bookhunt/internal/sources/ridibooks"
)

// RegisterBuiltins registers every built-in connector kind.
func RegisterBuiltins(factories *source.Factories) {
	factories.Register(aladin.Kind, aladin.New)
	factories.Register(librarynet.Kind, librarynet.New)
	factories.Register(ebookportal.Kind, ebookportal.New)
	factories.Register(ridibooks.Kind, ridibooks.New)
	factories.RegisterBlocking(localshelf.Kind, localshelf.New)
}

// Builtins returns a factory registry with every built-in connector
// registered.
func Builtins() *source.Factories {
	factories := source.NewFactories()
	RegisterBuiltins(factories)
	return factories
}
