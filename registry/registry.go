// Package registry resolves an adapter identifier string to an
// instantiable adapter, per spec.md §4.8 and the "Dynamic dispatch of
// adapters" design note: a compiled-in registration table populated at
// startup replaces the source's runtime module-path resolution, with a
// Go-plugin fallback for the on-disk `path:Symbol` form.
package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"plugin"
	"strings"

	"github.com/google/uuid"

	"github.com/Icing-Project/DryBox"
	"github.com/Icing-Project/DryBox/adapter"
)

// Source distinguishes where an AdapterInfo was resolved from.
type Source string

const (
	SourceFile       Source = "file"
	SourceEntrypoint Source = "entrypoint"
)

// AdapterInfo is the discovery record of spec.md §4.8. InstanceID
// distinguishes two resolutions of the same spec within one process (e.g.
// the same adapter file used on both sides of a scenario).
type AdapterInfo struct {
	Identifier  string
	DisplayName string
	Spec        string
	Source      Source
	InstanceID  string
	Metadata    map[string]string
}

// Factory constructs a fresh adapter instance. Entrypoints register one of
// these at compiled-in startup time.
type Factory func() adapter.Adapter

var entrypoints = map[string]Factory{}

// Register adds a compiled-in adapter kind under name, for resolution via
// the "entrypoint:<name>" spec form. Intended to be called from package
// init() functions of adapter implementations linked into the binary.
func Register(name string, f Factory) {
	entrypoints[name] = f
}

// Registered lists every compiled-in entrypoint name, for discovery UIs.
func Registered() []string {
	names := make([]string, 0, len(entrypoints))
	for name := range entrypoints {
		names = append(names, name)
	}
	return names
}

// PluginSymbol is the exported symbol name every on-disk adapter plugin
// must expose: a package-level var of type adapter.Adapter.
const PluginSymbol = "Adapter"

// Resolve parses spec and instantiates the adapter it names, per spec.md
// §4.8's three accepted forms: "path/to/module:ClassName", a bare filename
// searched under adaptersDir, or "entrypoint:<name>".
func Resolve(spec string, adaptersDir string) (adapter.Adapter, AdapterInfo, error) {
	switch {
	case strings.HasPrefix(spec, "entrypoint:"):
		name := strings.TrimPrefix(spec, "entrypoint:")
		f, ok := entrypoints[name]
		if !ok {
			return nil, AdapterInfo{}, &drybox.AdapterLoadError{Spec: spec, Err: fmt.Errorf("no registered entrypoint %q", name)}
		}
		return f(), AdapterInfo{
			Identifier:  spec,
			DisplayName: name,
			Spec:        spec,
			Source:      SourceEntrypoint,
			InstanceID:  uuid.NewString(),
		}, nil

	case strings.Contains(spec, ":"):
		idx := strings.LastIndex(spec, ":")
		path, symbol := spec[:idx], spec[idx+1:]
		if symbol == "" {
			return nil, AdapterInfo{}, &drybox.AdapterLoadError{Spec: spec, Err: fmt.Errorf("missing class/symbol name after ':'")}
		}
		a, err := loadFilePlugin(path, symbol)
		if err != nil {
			return nil, AdapterInfo{}, &drybox.AdapterLoadError{Spec: spec, Err: err}
		}
		return a, AdapterInfo{
			Identifier:  spec,
			DisplayName: symbol,
			Spec:        spec,
			Source:      SourceFile,
			InstanceID:  uuid.NewString(),
		}, nil

	default:
		candidate := filepath.Join(adaptersDir, spec)
		if _, err := os.Stat(candidate); err != nil {
			return nil, AdapterInfo{}, &drybox.AdapterLoadError{Spec: spec, Err: fmt.Errorf("adapter file %q not found under %q: %w", spec, adaptersDir, err)}
		}
		a, err := loadFilePlugin(candidate, PluginSymbol)
		if err != nil {
			return nil, AdapterInfo{}, &drybox.AdapterLoadError{Spec: spec, Err: err}
		}
		return a, AdapterInfo{
			Identifier:  spec,
			DisplayName: spec,
			Spec:        candidate,
			Source:      SourceFile,
			InstanceID:  uuid.NewString(),
		}, nil
	}
}

func loadFilePlugin(path, symbol string) (adapter.Adapter, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open plugin %q: %w", path, err)
	}
	sym, err := p.Lookup(symbol)
	if err != nil {
		return nil, fmt.Errorf("lookup symbol %q in %q: %w", symbol, path, err)
	}
	a, ok := sym.(adapter.Adapter)
	if ok {
		return a, nil
	}
	if ptr, ok := sym.(*adapter.Adapter); ok {
		return *ptr, nil
	}
	return nil, fmt.Errorf("symbol %q in %q does not implement adapter.Adapter", symbol, path)
}
