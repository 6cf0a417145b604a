// Package plugin manages GLSL function libraries loaded at runtime. The
// registry owns every loaded library: it verifies the ABI contract on load,
// indexes the exposed function metadata, and tears libraries down through
// their own close path on unload.
package plugin

import (
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"github.com/fragworks/fragforge/internal/builtin"
	"github.com/fragworks/fragforge/internal/logger"
	forgeerrors "github.com/fragworks/fragforge/pkg/errors"
	"github.com/fragworks/fragforge/pkg/glslplugin"
)

// RegistryConfig carries registry construction options.
type RegistryConfig struct {
	// ExpectedABIVersion overrides the compiled-in contract version. Zero
	// means glslplugin.ABIVersion.
	ExpectedABIVersion int

	// Loader opens library files. Nil means the runtime loader.
	Loader Loader
}

// DefaultConfig returns the production registry configuration.
func DefaultConfig() *RegistryConfig {
	return &RegistryConfig{}
}

// registration pairs a library handle with the function-table instance it
// produced. The two are torn down together, instance first, on every path
// that discards the registration.
type registration struct {
	alias       string
	lib         Library
	table       glslplugin.FunctionLibrary
	info        string
	path        string
	resourceDir string
	functions   map[string]glslplugin.Function
}

func (r *registration) teardown() error {
	closeErr := r.table.Close()
	if err := r.lib.Close(); err != nil && closeErr == nil {
		closeErr = err
	}
	return closeErr
}

// Registry is the plugin table. All methods are safe for concurrent use,
// though the surrounding pipeline is single-threaded by design.
type Registry struct {
	mu          sync.RWMutex
	plugins     map[string]*registration
	expectedABI int
	loader      Loader
	log         *logger.Logger
}

// NewRegistry creates an empty plugin registry.
func NewRegistry(config *RegistryConfig, log *logger.Logger) *Registry {
	if config == nil {
		config = DefaultConfig()
	}
	expected := config.ExpectedABIVersion
	if expected == 0 {
		expected = glslplugin.ABIVersion
	}
	loader := config.Loader
	if loader == nil {
		loader = NewRuntimeLoader()
	}
	return &Registry{
		plugins:     make(map[string]*registration),
		expectedABI: expected,
		loader:      loader,
		log:         log,
	}
}

// Load opens the library at path and registers it under alias. An empty
// alias uses the library's self-reported name. On any failure nothing is
// registered and whatever was constructed is destroyed before returning.
func (r *Registry) Load(path, alias string) error {
	lib, err := r.loader.Open(path)
	if err != nil {
		return forgeerrors.NewPluginLoadError(path, "cannot open library", err)
	}

	if err := r.checkABIVersion(lib, path); err != nil {
		_ = lib.Close()
		return err
	}

	factory, info, err := requiredSymbols(lib, path)
	if err != nil {
		_ = lib.Close()
		return err
	}

	table := factory()
	if table == nil {
		_ = lib.Close()
		return forgeerrors.NewPluginLoadError(path, "factory returned nil function table", nil)
	}

	reg := &registration{
		lib:   lib,
		table: table,
		info:  info(),
		path:  path,
	}

	reg.resourceDir = filepath.Dir(path)
	table.SetResourceDir(reg.resourceDir)

	reg.alias = alias
	if reg.alias == "" {
		reg.alias = table.Name()
	}

	reg.functions = make(map[string]glslplugin.Function)
	for _, fn := range table.Functions() {
		reg.functions[fn.Name] = fn
	}

	r.mu.Lock()
	if _, exists := r.plugins[reg.alias]; exists {
		r.mu.Unlock()
		teardownErr := reg.teardown()
		if teardownErr != nil {
			r.logWarn(fmt.Sprintf("teardown after duplicate alias '%s' failed: %v", reg.alias, teardownErr))
		}
		return forgeerrors.NewPluginLoadError(path, fmt.Sprintf("alias '%s' already loaded", reg.alias), nil)
	}
	r.plugins[reg.alias] = reg
	r.mu.Unlock()

	if r.log != nil {
		r.log.WithFields(map[string]any{
			"alias":     reg.alias,
			"name":      table.Name(),
			"version":   table.Version(),
			"author":    table.Author(),
			"functions": len(reg.functions),
		}).Info("plugin loaded")
	}

	r.warnBuiltinConflicts(reg)
	return nil
}

// Unload removes the registration for alias, closing the function table and
// the library handle together.
func (r *Registry) Unload(alias string) error {
	r.mu.Lock()
	reg, ok := r.plugins[alias]
	if ok {
		delete(r.plugins, alias)
	}
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("plugin '%s' is not loaded", alias)
	}
	if err := reg.teardown(); err != nil {
		return fmt.Errorf("unload plugin '%s': %w", alias, err)
	}
	return nil
}

// UnloadAll tears down every registration.
func (r *Registry) UnloadAll() {
	r.mu.Lock()
	regs := make([]*registration, 0, len(r.plugins))
	for _, reg := range r.plugins {
		regs = append(regs, reg)
	}
	r.plugins = make(map[string]*registration)
	r.mu.Unlock()

	for _, reg := range regs {
		if err := reg.teardown(); err != nil {
			r.logWarn(fmt.Sprintf("teardown of plugin '%s' failed: %v", reg.alias, err))
		}
	}
}

// IsLoaded reports whether alias has a live registration.
func (r *Registry) IsLoaded(alias string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.plugins[alias]
	return ok
}

// FindFunction searches every loaded plugin for a function by name. Plugins
// are scanned in sorted alias order so lookups stay deterministic when two
// plugins expose the same name.
func (r *Registry) FindFunction(name string) (glslplugin.Function, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, alias := range r.sortedAliasesLocked() {
		if fn, ok := r.plugins[alias].functions[name]; ok {
			return fn, true
		}
	}
	return glslplugin.Function{}, false
}

// FindFunctionIn looks a function up inside one specific plugin.
func (r *Registry) FindFunctionIn(alias, name string) (glslplugin.Function, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, ok := r.plugins[alias]
	if !ok {
		return glslplugin.Function{}, false
	}
	fn, ok := reg.functions[name]
	return fn, ok
}

// FunctionsByPlugin returns every function name grouped by plugin alias.
func (r *Registry) FunctionsByPlugin() map[string][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string][]string, len(r.plugins))
	for alias, reg := range r.plugins {
		names := make([]string, 0, len(reg.functions))
		for name := range reg.functions {
			names = append(names, name)
		}
		sort.Strings(names)
		result[alias] = names
	}
	return result
}

// FunctionsByCategory returns all functions with the given category tag
// across every plugin.
func (r *Registry) FunctionsByCategory(category string) []glslplugin.Function {
	return r.collect(func(fn glslplugin.Function) bool {
		return fn.Category == category
	})
}

// FunctionsByReturnType returns all functions offering at least one overload
// with the given return type.
func (r *Registry) FunctionsByReturnType(returnType string) []glslplugin.Function {
	return r.collect(func(fn glslplugin.Function) bool {
		for _, overload := range fn.Overloads {
			if overload.ReturnType == returnType {
				return true
			}
		}
		return false
	})
}

// Statistics returns the function count per plugin alias.
func (r *Registry) Statistics() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := make(map[string]int, len(r.plugins))
	for alias, reg := range r.plugins {
		stats[alias] = len(reg.functions)
	}
	return stats
}

// ResourcePaths returns each plugin's resource directory by alias.
func (r *Registry) ResourcePaths() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	paths := make(map[string]string, len(r.plugins))
	for alias, reg := range r.plugins {
		paths[alias] = reg.resourceDir
	}
	return paths
}

// LoadedPlugins returns a sorted human-readable summary line per plugin.
func (r *Registry) LoadedPlugins() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lines := make([]string, 0, len(r.plugins))
	for _, alias := range r.sortedAliasesLocked() {
		reg := r.plugins[alias]
		lines = append(lines, fmt.Sprintf("%s (%s v%s)", alias, reg.table.Name(), reg.table.Version()))
	}
	return lines
}

// Describe returns the info string a plugin exported, if loaded.
func (r *Registry) Describe(alias string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, ok := r.plugins[alias]
	if !ok {
		return "", false
	}
	return reg.info, true
}

// HasBuiltinConflict reports whether a plugin function name shadows a GLSL
// builtin. Calling such a function has undetermined behavior.
func (r *Registry) HasBuiltinConflict(name string) bool {
	return builtin.IsFunction(name)
}

// BuiltinConflicts returns, per plugin alias, the sorted function names that
// collide with GLSL builtins. Aliases without conflicts are absent.
func (r *Registry) BuiltinConflicts() map[string][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conflicts := make(map[string][]string)
	for alias, reg := range r.plugins {
		var names []string
		for name := range reg.functions {
			if builtin.IsFunction(name) {
				names = append(names, name)
			}
		}
		if len(names) > 0 {
			sort.Strings(names)
			conflicts[alias] = names
		}
	}
	return conflicts
}

func (r *Registry) collect(match func(glslplugin.Function) bool) []glslplugin.Function {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []glslplugin.Function
	for _, alias := range r.sortedAliasesLocked() {
		reg := r.plugins[alias]
		names := make([]string, 0, len(reg.functions))
		for name := range reg.functions {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if fn := reg.functions[name]; match(fn) {
				result = append(result, fn)
			}
		}
	}
	return result
}

func (r *Registry) sortedAliasesLocked() []string {
	aliases := make([]string, 0, len(r.plugins))
	for alias := range r.plugins {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	return aliases
}

func (r *Registry) checkABIVersion(lib Library, path string) error {
	sym, err := lib.Lookup(glslplugin.SymbolABIVersion)
	if err != nil {
		// The version symbol is optional; libraries without it are trusted.
		return nil
	}
	versionFn, ok := sym.(func() int)
	if !ok {
		return forgeerrors.NewPluginLoadError(path, fmt.Sprintf("symbol %s has wrong type %T", glslplugin.SymbolABIVersion, sym), nil)
	}
	if got := versionFn(); got != r.expectedABI {
		return &forgeerrors.ABIMismatchError{Path: path, Expected: r.expectedABI, Got: got}
	}
	return nil
}

func requiredSymbols(lib Library, path string) (func() glslplugin.FunctionLibrary, func() string, error) {
	factorySym, err := lib.Lookup(glslplugin.SymbolFactory)
	if err != nil {
		return nil, nil, forgeerrors.NewPluginLoadError(path, fmt.Sprintf("missing required symbol %s", glslplugin.SymbolFactory), err)
	}
	factory, ok := factorySym.(func() glslplugin.FunctionLibrary)
	if !ok {
		return nil, nil, forgeerrors.NewPluginLoadError(path, fmt.Sprintf("symbol %s has wrong type %T", glslplugin.SymbolFactory, factorySym), nil)
	}

	infoSym, err := lib.Lookup(glslplugin.SymbolInfo)
	if err != nil {
		return nil, nil, forgeerrors.NewPluginLoadError(path, fmt.Sprintf("missing required symbol %s", glslplugin.SymbolInfo), err)
	}
	info, ok := infoSym.(func() string)
	if !ok {
		return nil, nil, forgeerrors.NewPluginLoadError(path, fmt.Sprintf("symbol %s has wrong type %T", glslplugin.SymbolInfo, infoSym), nil)
	}

	return factory, info, nil
}

func (r *Registry) warnBuiltinConflicts(reg *registration) {
	var conflicts []string
	for name := range reg.functions {
		if builtin.IsFunction(name) {
			conflicts = append(conflicts, name)
		}
	}
	if len(conflicts) == 0 {
		return
	}
	sort.Strings(conflicts)
	for _, name := range conflicts {
		r.logWarn(fmt.Sprintf("plugin '%s' function '%s' conflicts with a GLSL built-in, behavior is undetermined", reg.alias, name))
	}
}

func (r *Registry) logWarn(msg string) {
	if r.log == nil {
		return
	}
	r.log.Warn(msg)
}
