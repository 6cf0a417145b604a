package shader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fragworks/fragforge/internal/analyzer"
	"github.com/fragworks/fragforge/internal/builtin"
	"github.com/fragworks/fragforge/internal/codegen"
	"github.com/fragworks/fragforge/internal/expression"
	"github.com/fragworks/fragforge/internal/logger"
	forgeerrors "github.com/fragworks/fragforge/pkg/errors"
	"github.com/fragworks/fragforge/pkg/glslplugin"
)

// PluginSource is the registry surface the manager consumes.
type PluginSource interface {
	FindFunction(name string) (glslplugin.Function, bool)
	FunctionsByPlugin() map[string][]string
	ResourcePaths() map[string]string
}

// Manager builds, caches and tracks shader artifacts. CreateShader never
// returns nil: every failure comes back as an Error-state artifact carrying
// its message. The manager is single-owner state; a concurrent host must add
// its own synchronization.
type Manager struct {
	builtins  *builtin.Registry
	plugins   PluginSource
	analyzer  *analyzer.Analyzer
	parser    *expression.Parser
	generator *codegen.Generator
	compiler  Compiler
	log       *logger.Logger

	cache     map[string]*Artifact
	byID      map[string]*Artifact
	currentID string
	nextID    int
}

// NewManager creates a Manager wired to the given registries and compiler.
func NewManager(builtins *builtin.Registry, plugins PluginSource, compiler Compiler, log *logger.Logger) *Manager {
	return &Manager{
		builtins:  builtins,
		plugins:   plugins,
		analyzer:  analyzer.New(plugins, log),
		parser:    expression.NewParser(builtins, log),
		generator: codegen.NewGenerator(builtins, nil, log),
		compiler:  compiler,
		log:       log,
		cache:     make(map[string]*Artifact),
		byID:      make(map[string]*Artifact),
	}
}

// CreateShader builds the shader for one function call, reusing the cache
// when the same call was compiled before.
func (m *Manager) CreateShader(name, rawArguments string) *Artifact {
	return m.create("", name, rawArguments)
}

// CreateShaderWithID is CreateShader with a caller-chosen artifact id. A
// cache hit keeps the cached artifact's original id.
func (m *Manager) CreateShaderWithID(id, name, rawArguments string) *Artifact {
	return m.create(id, name, rawArguments)
}

func (m *Manager) create(id, name, rawArguments string) *Artifact {
	args := analyzer.SplitArguments(rawArguments)

	for _, arg := range args {
		if err := m.builtins.ValidateSwizzle(arg); err != nil {
			return m.errorArtifact(name, args, err)
		}
	}

	if id != "" {
		if _, exists := m.byID[id]; exists {
			return m.errorArtifact(name, args, fmt.Errorf("artifact id '%s' already in use", id))
		}
	}

	key := cacheKey(name, args)
	if cached, ok := m.cache[key]; ok && cached.Ready() {
		return cached
	}

	artifact := m.build(name, rawArguments, args)
	if artifact.Failed() {
		return artifact
	}

	if id == "" {
		id = m.allocateID()
	}
	artifact.ID = id
	m.byID[artifact.ID] = artifact
	m.cache[key] = artifact

	if m.log != nil {
		m.log.WithFields(map[string]any{
			"id":       artifact.ID,
			"function": name,
			"args":     args,
		}).Info("shader compiled")
	}
	return artifact
}

func (m *Manager) build(name, rawArguments string, args []string) *Artifact {
	analysis, err := m.analyzer.Analyze(name, rawArguments)
	if err != nil {
		return m.errorArtifact(name, args, err)
	}

	fn, ok := m.plugins.FindFunction(name)
	if !ok {
		return m.errorArtifact(name, args, fmt.Errorf("function '%s' is not provided by a plugin", name))
	}

	sources, includeDir, err := m.loadSources(analysis)
	if err != nil {
		return m.errorArtifact(name, args, err)
	}

	parsed := make([]expression.Info, len(args))
	for i, arg := range args {
		// Parse failures fall back to passing the text through as a float.
		info, _ := m.parser.Parse(arg)
		parsed[i] = info
	}

	src, err := m.generator.Generate(fn, sources, parsed)
	if err != nil {
		return m.errorArtifact(name, args, err)
	}

	artifact := &Artifact{
		Name:      name,
		Arguments: args,
		State:     StateCompiling,
		Source:    src,
	}

	program, err := m.compiler.Compile(src.Vertex, src.Fragment, includeDir)
	if err != nil {
		return m.errorArtifact(name, args, forgeerrors.NewCompileError(err.Error(), err))
	}

	artifact.Program = program
	artifact.State = StateIdle
	m.applyAutoUpdate(artifact, parsed)
	for _, uniform := range src.Uniforms {
		if uniform == "resolution" {
			artifact.SetVec2(uniform, 0, 0)
		} else {
			artifact.SetFloat(uniform, 0)
		}
	}
	return artifact
}

// loadSources reads the GLSL source of every required plugin function, the
// main function last, and returns the concatenated text plus the main
// function's resource directory for include resolution.
func (m *Manager) loadSources(analysis *analyzer.Result) (string, string, error) {
	paths := m.plugins.ResourcePaths()

	ordered := make([]string, 0, len(analysis.PluginFunctions))
	for name := range analysis.PluginFunctions {
		if name != analysis.MainFunction {
			ordered = append(ordered, name)
		}
	}
	sort.Strings(ordered)
	ordered = append(ordered, analysis.MainFunction)

	var b strings.Builder
	includeDir := ""
	for _, name := range ordered {
		fn, ok := m.plugins.FindFunction(name)
		if !ok {
			return "", "", forgeerrors.NewFunctionNotFoundError(name)
		}
		dir := paths[analysis.PluginFunctions[name]]
		data, err := os.ReadFile(filepath.Join(dir, fn.SourceFile))
		if err != nil {
			return "", "", fmt.Errorf("load source for function '%s': %w", name, err)
		}
		b.Write(data)
		if len(data) > 0 && data[len(data)-1] != '\n' {
			b.WriteByte('\n')
		}
		if name == analysis.MainFunction {
			includeDir = dir
		}
	}
	return b.String(), includeDir, nil
}

// applyAutoUpdate flips the per-tick uniform flags when any argument,
// including nested expression dependencies, touches the host-supplied
// builtins.
func (m *Manager) applyAutoUpdate(artifact *Artifact, parsed []expression.Info) {
	for _, info := range parsed {
		for _, dep := range info.Dependencies {
			switch builtin.ExtractBase(dep) {
			case "time":
				artifact.AutoUpdateTime = true
			case "st", "resolution":
				artifact.AutoUpdateResolution = true
			}
		}
	}
}

// ArtifactByID looks an artifact up by its assigned id.
func (m *Manager) ArtifactByID(id string) (*Artifact, bool) {
	artifact, ok := m.byID[id]
	return artifact, ok
}

// Connect routes an artifact to the current output. The previously connected
// artifact, if any, drops back to idle.
func (m *Manager) Connect(id string) error {
	artifact, ok := m.byID[id]
	if !ok {
		return &forgeerrors.NodeNotFoundError{NodeID: id}
	}
	if !artifact.Ready() {
		return fmt.Errorf("artifact '%s' is not ready: %s", id, artifact.State)
	}
	if current, ok := m.byID[m.currentID]; ok && current.State == StateConnected {
		current.State = StateIdle
	}
	artifact.State = StateConnected
	m.currentID = id
	return nil
}

// Disconnect detaches the current output without releasing anything.
func (m *Manager) Disconnect() {
	if current, ok := m.byID[m.currentID]; ok && current.State == StateConnected {
		current.State = StateIdle
	}
	m.currentID = ""
}

// Current returns the artifact feeding the output, or nil.
func (m *Manager) Current() *Artifact {
	if artifact, ok := m.byID[m.currentID]; ok {
		return artifact
	}
	return nil
}

// RemoveByID drops an artifact from the id table. The compiled program stays
// alive as long as its cache entry does.
func (m *Manager) RemoveByID(id string) error {
	if _, ok := m.byID[id]; !ok {
		return &forgeerrors.NodeNotFoundError{NodeID: id}
	}
	if m.currentID == id {
		m.Disconnect()
	}
	delete(m.byID, id)
	return nil
}

// ActiveIDs returns the assigned artifact ids in sorted order.
func (m *Manager) ActiveIDs() []string {
	ids := make([]string, 0, len(m.byID))
	for id := range m.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ClearCache evicts every cached artifact and releases its program. This is
// the only path that frees compiled GPU resources.
func (m *Manager) ClearCache() {
	for _, artifact := range m.cache {
		artifact.release()
	}
	m.cache = make(map[string]*Artifact)
	m.byID = make(map[string]*Artifact)
	m.currentID = ""
}

// CacheSize returns the number of cached artifacts.
func (m *Manager) CacheSize() int {
	return len(m.cache)
}

// Tick refreshes auto-updated uniforms on every tracked artifact.
func (m *Manager) Tick(time, width, height float64) {
	for _, artifact := range m.byID {
		artifact.Tick(time, width, height)
	}
}

func (m *Manager) allocateID() string {
	m.nextID++
	return fmt.Sprintf("shader_%d", m.nextID)
}

func (m *Manager) errorArtifact(name string, args []string, err error) *Artifact {
	if m.log != nil {
		m.log.Error(err, fmt.Sprintf("shader creation failed for '%s'", name))
	}
	return &Artifact{
		Name:      name,
		Arguments: args,
		State:     StateError,
		Message:   err.Error(),
	}
}

func cacheKey(name string, args []string) string {
	if len(args) == 0 {
		return name
	}
	return name + "_" + strings.Join(args, "_")
}
