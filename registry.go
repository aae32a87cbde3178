package storekit

import (
	"fmt"
	"sort"
	"strings"
)

// maxSchemeLen bounds the scheme prefix considered during dispatch. A URI
// whose first colon sits beyond this bound is rejected rather than
// dispatched on a truncated scheme.
const maxSchemeLen = 256

// Built-in schemes.
const (
	SchemeFile   = "file"
	SchemeRoots  = "roots"
	SchemeSQLite = "sqlite"
)

// Registry maps URI schemes to loaders. Scheme matching is case-sensitive.
// Registration is expected to happen during program initialization; the
// façade only ever reads a registry during dispatch and never mutates it.
type Registry struct {
	loaders map[string]Loader
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{loaders: make(map[string]Loader)}
}

// Register binds a loader to a scheme. Registering an empty scheme, a nil
// loader, or a scheme that is already taken is an error.
func (r *Registry) Register(scheme string, loader Loader) error {
	if scheme == "" {
		return fmt.Errorf("registering loader: empty scheme")
	}
	if loader == nil {
		return fmt.Errorf("registering loader for %q: nil loader", scheme)
	}
	if _, taken := r.loaders[scheme]; taken {
		return fmt.Errorf("registering loader for %q: scheme already registered", scheme)
	}
	r.loaders[scheme] = loader
	return nil
}

// Lookup returns the loader bound to a scheme.
func (r *Registry) Lookup(scheme string) (Loader, bool) {
	loader, ok := r.loaders[scheme]
	return loader, ok
}

// Schemes returns the registered schemes in sorted order.
func (r *Registry) Schemes() []string {
	schemes := make([]string, 0, len(r.loaders))
	for scheme := range r.loaders {
		schemes = append(schemes, scheme)
	}
	sort.Strings(schemes)
	return schemes
}

// defaultRegistry carries the built-in loaders. Open and Attach fall back
// to it when no registry is supplied.
var defaultRegistry = func() *Registry {
	r := NewRegistry()
	for scheme, loader := range map[string]Loader{
		SchemeFile:   &fileLoader{},
		SchemeRoots:  &rootsLoader{},
		SchemeSQLite: &sqliteLoader{},
	} {
		if err := r.Register(scheme, loader); err != nil {
			panic(err)
		}
	}
	return r
}()

// DefaultRegistry returns the registry holding the built-in loaders.
// Additional loaders may be registered on it before any store is opened.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// splitScheme extracts the dispatch scheme from a URI: the text before the
// first colon, defaulting to "file" when there is no colon at all. Schemes
// longer than maxSchemeLen are rejected.
func splitScheme(uri string) (string, error) {
	colon := strings.IndexByte(uri, ':')
	if colon < 0 {
		return SchemeFile, nil
	}
	if colon > maxSchemeLen {
		return "", fmt.Errorf("%w: scheme longer than %d bytes", ErrUnsupportedScheme, maxSchemeLen)
	}
	return uri[:colon], nil
}
