// Package compose chains shader nodes into a single program. Nodes are
// registered without compiling; compiling a graph resolves $shader_<id>
// back-references into edges, orders the reachable nodes topologically, and
// generates one unified shader where each node's result feeds its dependents.
package compose

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/fragworks/fragforge/internal/analyzer"
	"github.com/fragworks/fragforge/internal/builtin"
	"github.com/fragworks/fragforge/internal/codegen"
	"github.com/fragworks/fragforge/internal/expression"
	"github.com/fragworks/fragforge/internal/logger"
	"github.com/fragworks/fragforge/internal/shader"
	forgeerrors "github.com/fragworks/fragforge/pkg/errors"
	"github.com/fragworks/fragforge/pkg/glslplugin"
)

var refPattern = regexp.MustCompile(`\$(shader_\d+)`)

// Node is one registered composition node.
type Node struct {
	ID        string
	Function  string
	Arguments []string

	resolved []string
	deps     []string
}

// Engine holds the pending node table and the graph artifact cache.
type Engine struct {
	builtins  *builtin.Registry
	plugins   shader.PluginSource
	analyzer  *analyzer.Analyzer
	parser    *expression.Parser
	generator *codegen.Generator
	compiler  shader.Compiler
	log       *logger.Logger

	nodes  map[string]*Node
	cache  map[string]*shader.Artifact
	nextID int
}

// NewEngine creates a composition engine wired to the given registries and
// compiler.
func NewEngine(builtins *builtin.Registry, plugins shader.PluginSource, compiler shader.Compiler, log *logger.Logger) *Engine {
	return &Engine{
		builtins:  builtins,
		plugins:   plugins,
		analyzer:  analyzer.New(plugins, log),
		parser:    expression.NewParser(builtins, log),
		generator: codegen.NewGenerator(builtins, nil, log),
		compiler:  compiler,
		log:       log,
		nodes:     make(map[string]*Node),
		cache:     make(map[string]*shader.Artifact),
	}
}

// RegisterNode stores a node for later compilation and returns its assigned
// id. The function must be a GLSL builtin or provided by a loaded plugin;
// nothing compiles yet.
func (e *Engine) RegisterNode(function, rawArguments string) (string, error) {
	if !builtin.IsBuiltinName(function) {
		if _, ok := e.plugins.FindFunction(function); !ok {
			return "", forgeerrors.NewFunctionNotFoundError(function)
		}
	}

	e.nextID++
	id := fmt.Sprintf("shader_%d", e.nextID)
	e.nodes[id] = &Node{
		ID:        id,
		Function:  function,
		Arguments: analyzer.SplitArguments(rawArguments),
	}

	if e.log != nil {
		e.log.WithFields(map[string]any{"id": id, "function": function}).Debug("node registered")
	}
	return id, nil
}

// RemoveNode drops a node from the pending table. Dependents are not
// cascaded; recompiling anything that referenced the node is the caller's
// responsibility.
func (e *Engine) RemoveNode(id string) error {
	if _, ok := e.nodes[id]; !ok {
		return &forgeerrors.NodeNotFoundError{NodeID: id}
	}
	delete(e.nodes, id)
	return nil
}

// Node returns a registered node by id.
func (e *Engine) Node(id string) (*Node, bool) {
	node, ok := e.nodes[id]
	return node, ok
}

// NodeIDs returns every registered node id in sorted order.
func (e *Engine) NodeIDs() []string {
	ids := make([]string, 0, len(e.nodes))
	for id := range e.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// AnalyzeDependencies resolves back-references and returns the node ids
// reachable from outputID in dependency order, outputID last.
func (e *Engine) AnalyzeDependencies(outputID string) ([]string, error) {
	if err := e.resolveReferences(); err != nil {
		return nil, err
	}
	order, err := e.sortFrom(outputID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(order))
	for i, node := range order {
		ids[i] = node.ID
	}
	return ids, nil
}

// CompileGraph builds the unified shader for the graph reachable from
// outputID. Graph-shape failures return no artifact; a compiler failure
// returns the artifact in its error state alongside the error. Successful
// builds are cached by the ordered call chain.
func (e *Engine) CompileGraph(outputID string) (*shader.Artifact, error) {
	if err := e.resolveReferences(); err != nil {
		return nil, err
	}
	order, err := e.sortFrom(outputID)
	if err != nil {
		return nil, err
	}

	key := graphKey(order)
	if cached, ok := e.cache[key]; ok && cached.Ready() {
		return cached, nil
	}

	functions, includeDir, cnodes, parsed, err := e.plan(order)
	if err != nil {
		return nil, err
	}

	src, err := e.generator.GenerateGraph(functions, cnodes)
	if err != nil {
		return nil, err
	}

	output := order[len(order)-1]
	artifact := &shader.Artifact{
		ID:        output.ID,
		Name:      output.Function,
		Arguments: output.resolved,
		State:     shader.StateCompiling,
		Source:    src,
	}

	program, compileErr := e.compiler.Compile(src.Vertex, src.Fragment, includeDir)
	if compileErr != nil {
		artifact.State = shader.StateError
		artifact.Message = compileErr.Error()
		if e.log != nil {
			e.log.Error(compileErr, fmt.Sprintf("graph compile failed for '%s'", outputID))
		}
		return artifact, forgeerrors.NewCompileError(compileErr.Error(), compileErr)
	}

	artifact.Program = program
	artifact.State = shader.StateIdle
	applyAutoUpdate(artifact, parsed)
	for _, uniform := range src.Uniforms {
		if uniform == "resolution" {
			artifact.SetVec2(uniform, 0, 0)
		} else {
			artifact.SetFloat(uniform, 0)
		}
	}

	e.cache[key] = artifact
	if e.log != nil {
		e.log.WithFields(map[string]any{"output": outputID, "nodes": len(order)}).Info("graph compiled")
	}
	return artifact, nil
}

// ClearCache evicts every cached graph artifact, releasing compiled
// programs.
func (e *Engine) ClearCache() {
	for _, artifact := range e.cache {
		if artifact.Program != nil {
			artifact.Program.Release()
			artifact.Program = nil
		}
	}
	e.cache = make(map[string]*shader.Artifact)
}

// CacheSize returns the number of cached graph artifacts.
func (e *Engine) CacheSize() int {
	return len(e.cache)
}

// resolveReferences rewrites every node's $shader_<id> back-references into
// result-variable names and records the implied edges. A reference to an
// unregistered node is a hard failure.
func (e *Engine) resolveReferences() error {
	for _, node := range e.nodes {
		node.resolved = make([]string, len(node.Arguments))
		node.deps = node.deps[:0]
		seen := make(map[string]struct{})

		for i, arg := range node.Arguments {
			var refErr error
			node.resolved[i] = refPattern.ReplaceAllStringFunc(arg, func(match string) string {
				id := match[1:]
				if _, ok := e.nodes[id]; !ok {
					refErr = &forgeerrors.NodeNotFoundError{NodeID: id}
					return match
				}
				if _, dup := seen[id]; !dup {
					seen[id] = struct{}{}
					node.deps = append(node.deps, id)
				}
				return id + "_result"
			})
			if refErr != nil {
				return refErr
			}
		}
	}
	return nil
}

// sortFrom runs a depth-first topological sort over the nodes reachable from
// outputID. Three-state marks make cycle detection deterministic.
func (e *Engine) sortFrom(outputID string) ([]*Node, error) {
	const (
		unvisited = iota
		inProgress
		done
	)
	marks := make(map[string]int)
	var order []*Node

	var visit func(id string) error
	visit = func(id string) error {
		node, ok := e.nodes[id]
		if !ok {
			return &forgeerrors.NodeNotFoundError{NodeID: id}
		}
		marks[id] = inProgress
		for _, dep := range node.deps {
			switch marks[dep] {
			case inProgress:
				return &forgeerrors.CircularDependencyError{From: id, To: dep}
			case unvisited:
				if err := visit(dep); err != nil {
					return err
				}
			}
		}
		marks[id] = done
		order = append(order, node)
		return nil
	}

	if err := visit(outputID); err != nil {
		return nil, err
	}
	return order, nil
}

// plan assembles the codegen inputs for an ordered node chain: the combined
// function-source block (each function read once), the include directory of
// the output node, and the per-node call descriptions.
func (e *Engine) plan(order []*Node) (string, string, []codegen.Node, []expression.Info, error) {
	var sources strings.Builder
	emitted := make(map[string]struct{})
	paths := e.plugins.ResourcePaths()

	var cnodes []codegen.Node
	var allParsed []expression.Info
	includeDir := ""

	for _, node := range order {
		rawArgs := strings.Join(node.resolved, ", ")
		analysis, err := e.analyzer.Analyze(node.Function, rawArgs)
		if err != nil {
			return "", "", nil, nil, err
		}

		required := make([]string, 0, len(analysis.PluginFunctions))
		for name := range analysis.PluginFunctions {
			if name != node.Function {
				required = append(required, name)
			}
		}
		sort.Strings(required)
		if _, ok := analysis.PluginFunctions[node.Function]; ok {
			required = append(required, node.Function)
		}

		nodeDir := ""
		for _, name := range required {
			dir := paths[analysis.PluginFunctions[name]]
			if name == node.Function {
				nodeDir = dir
			}
			if _, ok := emitted[name]; ok {
				continue
			}
			emitted[name] = struct{}{}

			fn, ok := e.plugins.FindFunction(name)
			if !ok {
				return "", "", nil, nil, forgeerrors.NewFunctionNotFoundError(name)
			}
			data, err := os.ReadFile(filepath.Join(dir, fn.SourceFile))
			if err != nil {
				return "", "", nil, nil, fmt.Errorf("load source for function '%s': %w", name, err)
			}
			sources.Write(data)
			if len(data) > 0 && data[len(data)-1] != '\n' {
				sources.WriteByte('\n')
			}
		}
		includeDir = nodeDir

		parsed := make([]expression.Info, len(node.resolved))
		for i, arg := range node.resolved {
			info, _ := e.parser.Parse(arg)
			parsed[i] = info
		}
		allParsed = append(allParsed, parsed...)

		cnodes = append(cnodes, codegen.Node{
			ID:       node.ID,
			Function: e.functionMeta(node.Function, parsed),
			Args:     parsed,
		})
	}

	return sources.String(), includeDir, cnodes, allParsed, nil
}

// functionMeta returns the overload metadata for a node's function. Builtin
// functions carry no plugin metadata, so they get a single float-returning
// overload matching the call shape, which yields a direct untransformed
// call.
func (e *Engine) functionMeta(name string, args []expression.Info) glslplugin.Function {
	if fn, ok := e.plugins.FindFunction(name); ok {
		return fn
	}
	paramTypes := make([]string, len(args))
	for i, arg := range args {
		paramTypes[i] = arg.Type
	}
	return glslplugin.Function{
		Name:      name,
		Overloads: []glslplugin.Overload{{ReturnType: "float", ParamTypes: paramTypes}},
	}
}

func applyAutoUpdate(artifact *shader.Artifact, parsed []expression.Info) {
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

func graphKey(order []*Node) string {
	parts := make([]string, 0, len(order)+1)
	parts = append(parts, "graph")
	for _, node := range order {
		parts = append(parts, fmt.Sprintf("%s(%s)", node.Function, strings.Join(node.resolved, ",")))
	}
	return strings.Join(parts, "_")
}
