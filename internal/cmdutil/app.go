// Package cmdutil assembles the search stack (registry, resolver,
// orchestrator) from configuration. Both the CLI commands and the HTTP
// server wire themselves through it.
package cmdutil

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"

	"bookhunt/internal/config"
	"bookhunt/internal/orchestrator"
	"bookhunt/internal/source"
	"bookhunt/internal/sources"
	"bookhunt/internal/sources/aladin"
)

// BuildRegistry loads the configured source descriptors, expands
// environment references in their settings, and instantiates every
// loadable connector.
func BuildRegistry() *source.Registry {
	return buildRegistry("")
}

// BuildRegistryFor builds a registry restricted to the named descriptor.
// An empty name means no restriction.
func BuildRegistryFor(only string) *source.Registry {
	return buildRegistry(only)
}

func buildRegistry(only string) *source.Registry {
	descriptors := config.SourceDescriptors()

	kept := descriptors[:0]
	for _, desc := range descriptors {
		if only != "" && desc.Name != only {
			continue
		}
		desc.Settings = ExpandSettings(desc.Settings)
		kept = append(kept, desc)
	}

	return source.Load(kept, sources.Builtins())
}

// ExpandSettings resolves $VAR / ${VAR} references in setting values, so
// credentials can live in the environment (or a .env file) instead of
// the config file.
func ExpandSettings(settings map[string]string) map[string]string {
	if settings == nil {
		return nil
	}
	expanded := make(map[string]string, len(settings))
	for k, v := range settings {
		expanded[k] = os.ExpandEnv(v)
	}
	return expanded
}

// BuildResolver constructs the identity resolver. An explicit
// `resolver:` config section wins; otherwise the first aladin source
// descriptor doubles as the resolver, since it carries the same API key.
func BuildResolver() (orchestrator.Resolver, error) {
	if settings := viper.GetStringMapString("resolver"); len(settings) > 0 {
		return aladin.NewResolver(ExpandSettings(settings))
	}

	for _, desc := range config.SourceDescriptors() {
		if desc.Kind == aladin.Kind {
			return aladin.NewResolver(ExpandSettings(desc.Settings))
		}
	}

	return nil, errors.New("no resolver configured: add a resolver section or an aladin source")
}

// BuildOrchestrator wires the full search stack with the given candidate
// selector (nil means "always take the first candidate").
func BuildOrchestrator(selector orchestrator.SelectFunc) (*orchestrator.Orchestrator, *source.Registry, error) {
	return BuildOrchestratorFor(selector, "")
}

// BuildOrchestratorFor restricts the fan-out to one named source. The
// identity resolver is built from config either way.
func BuildOrchestratorFor(selector orchestrator.SelectFunc, only string) (*orchestrator.Orchestrator, *source.Registry, error) {
	resolver, err := BuildResolver()
	if err != nil {
		return nil, nil, err
	}

	registry := buildRegistry(only)
	if only != "" && registry.Len() == 0 {
		return nil, nil, fmt.Errorf("unknown or unloadable source %q", only)
	}

	var opts []orchestrator.Option
	if timeout := viper.GetString("search.source_timeout"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			opts = append(opts, orchestrator.WithSourceTimeout(d))
		}
	}
	if n := viper.GetInt("search.max_results"); n > 0 {
		opts = append(opts, orchestrator.WithMaxResults(n))
	}
	if n := viper.GetInt("search.max_candidates"); n > 0 {
		opts = append(opts, orchestrator.WithMaxCandidates(n))
	}
	opts = append(opts, orchestrator.WithConfirmSingle(config.ConfirmSingle))

	return orchestrator.New(registry, resolver, selector, opts...), registry, nil
}
