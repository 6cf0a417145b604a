// Package codegen assembles complete GLSL programs around plugin function
// calls. It fills a three-slot fragment template (uniforms, functions, main
// body), resolves which overload each call targets, and synthesizes wrapper
// functions when the caller's argument shape differs from the chosen
// overload.
package codegen

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fragworks/fragforge/internal/builtin"
	"github.com/fragworks/fragforge/internal/expression"
	"github.com/fragworks/fragforge/internal/logger"
	"github.com/fragworks/fragforge/pkg/glslplugin"
)

// vertexSource is the fixed passthrough vertex stage paired with every
// generated fragment shader.
const vertexSource = `void main() {
    gl_Position = gl_ModelViewProjectionMatrix * gl_Vertex;
    gl_TexCoord[0] = gl_MultiTexCoord0;
}
`

// Source is a complete generated shader program.
type Source struct {
	Vertex   string
	Fragment string

	// Uniforms lists the uniform names declared in the fragment stage, in
	// declaration order.
	Uniforms []string
}

// Node is one function call to include in a generated program. In graph mode
// a node's arguments may name earlier nodes' results.
type Node struct {
	ID       string
	Function glslplugin.Function
	Args     []expression.Info
}

// Generator produces shader programs. Construct with NewGenerator.
type Generator struct {
	builtins *builtin.Registry
	strategy OverloadStrategy
	log      *logger.Logger
}

// NewGenerator creates a Generator. A nil strategy uses component-fit
// overload selection.
func NewGenerator(builtins *builtin.Registry, strategy OverloadStrategy, log *logger.Logger) *Generator {
	if strategy == nil {
		strategy = NewComponentFitStrategy()
	}
	return &Generator{builtins: builtins, strategy: strategy, log: log}
}

// Generate builds the program for a single function call. The functions
// block carries the GLSL source of every function the call needs, already
// deduplicated by the caller.
func (g *Generator) Generate(fn glslplugin.Function, functions string, args []expression.Info) (Source, error) {
	return g.generate(functions, []Node{{Function: fn, Args: args}})
}

// GenerateGraph builds one unified program covering every node, which must
// arrive in dependency order. Each node's result is bound to a per-node
// temporary and the last node feeds the output color.
func (g *Generator) GenerateGraph(functions string, nodes []Node) (Source, error) {
	return g.generate(functions, nodes)
}

type generation struct {
	functions    string
	uniforms     map[string]string // name -> GLSL type
	declarations map[string]builtin.Variable
	wrapperOrder []string
	wrapperCode  map[string]string // wrapper name -> source
	wrapperNames map[string]string // call-shape key -> wrapper name
	statements   []string
	resultTypes  map[string]string // result variable -> GLSL type
	tempCount    int
}

func (g *Generator) generate(functions string, nodes []Node) (Source, error) {
	if len(nodes) == 0 {
		return Source{}, fmt.Errorf("no nodes to generate")
	}

	gen := &generation{
		functions:    functions,
		uniforms:     make(map[string]string),
		declarations: make(map[string]builtin.Variable),
		wrapperCode:  make(map[string]string),
		wrapperNames: make(map[string]string),
		resultTypes:  make(map[string]string),
	}

	lastResult := ""
	lastType := ""
	for _, node := range nodes {
		resultName, resultType, err := g.emitNode(gen, node)
		if err != nil {
			return Source{}, err
		}
		lastResult = resultName
		lastType = resultType
	}

	gen.statements = append(gen.statements,
		fmt.Sprintf("gl_FragColor = %s;", convertResult(lastType, lastResult)))

	return g.assemble(gen), nil
}

// emitNode plans one call: argument uniforms and temporaries, overload
// selection, wrapper synthesis, and the result assignment.
func (g *Generator) emitNode(gen *generation, node Node) (string, string, error) {
	argTypes := make([]string, len(node.Args))
	callArgs := make([]string, len(node.Args))

	for i, arg := range node.Args {
		argTypes[i] = g.argumentType(gen, arg)
		g.collectUniforms(gen, arg)

		switch {
		case arg.IsConstant:
			callArgs[i] = arg.FormatConstant()
		case arg.IsSimpleVar:
			callArgs[i] = arg.GLSL
		default:
			name := fmt.Sprintf("_expr%d", gen.tempCount)
			gen.tempCount++
			gen.statements = append(gen.statements,
				fmt.Sprintf("%s %s = %s;", argTypes[i], name, arg.GLSL))
			callArgs[i] = name
		}
	}

	overload, ok := g.strategy.Select(node.Function, argTypes)
	if !ok {
		return "", "", fmt.Errorf("function '%s' has no usable overload", node.Function.Name)
	}

	callName := node.Function.Name
	if !typesEqual(overload.ParamTypes, argTypes) {
		callName = g.wrapperName(gen, node.Function.Name, overload, argTypes)
	}

	resultName := "result"
	if node.ID != "" {
		resultName = node.ID + "_result"
	}
	gen.resultTypes[resultName] = overload.ReturnType
	gen.statements = append(gen.statements,
		fmt.Sprintf("%s %s = %s(%s);",
			overload.ReturnType, resultName, callName, strings.Join(callArgs, ", ")))

	return resultName, overload.ReturnType, nil
}

// argumentType resolves an argument's GLSL type, preferring the recorded type
// of an earlier node's result over the parser's float default.
func (g *Generator) argumentType(gen *generation, arg expression.Info) string {
	if t, ok := gen.resultTypes[arg.GLSL]; ok && arg.IsSimpleVar {
		return t
	}
	return arg.Type
}

// collectUniforms records the uniforms and local declarations an argument's
// dependencies require. A builtin needing a local declaration draws on the
// resolution uniform; any unknown name becomes a user float uniform. Earlier
// node results are locals, never uniforms.
func (g *Generator) collectUniforms(gen *generation, arg expression.Info) {
	for _, dep := range arg.Dependencies {
		base := builtin.ExtractBase(dep)
		if _, ok := gen.resultTypes[base]; ok {
			continue
		}
		v, ok := g.builtins.Variable(base)
		if !ok {
			gen.uniforms[base] = "float"
			continue
		}
		if v.NeedsDeclaration {
			gen.declarations[v.Name] = v
			if res, ok := g.builtins.Variable("resolution"); ok {
				gen.uniforms[res.Name] = res.GLSLType
			}
			continue
		}
		if v.NeedsUniform {
			gen.uniforms[v.Name] = v.GLSLType
		}
	}
}

// wrapperName returns the wrapper for a call shape, synthesizing it on first
// use. Distinct shapes of the same function get numbered wrapper names.
func (g *Generator) wrapperName(gen *generation, function string, overload glslplugin.Overload, argTypes []string) string {
	key := function + "(" + strings.Join(argTypes, ",") + ")"
	if name, ok := gen.wrapperNames[key]; ok {
		return name
	}

	name := function + "_wrapper"
	for i := 2; ; i++ {
		if _, taken := gen.wrapperCode[name]; !taken {
			break
		}
		name = fmt.Sprintf("%s_wrapper%d", function, i)
	}

	gen.wrapperNames[key] = name
	gen.wrapperCode[name] = synthesizeWrapper(name, function, overload, argTypes)
	gen.wrapperOrder = append(gen.wrapperOrder, name)
	return name
}

func (g *Generator) assemble(gen *generation) Source {
	var b strings.Builder

	uniforms := orderedUniforms(gen.uniforms)
	for _, name := range uniforms {
		fmt.Fprintf(&b, "uniform %s %s;\n", gen.uniforms[name], name)
	}
	if len(uniforms) > 0 {
		b.WriteString("\n")
	}

	if gen.functions != "" {
		b.WriteString(strings.TrimRight(gen.functions, "\n"))
		b.WriteString("\n\n")
	}
	for _, name := range gen.wrapperOrder {
		b.WriteString(gen.wrapperCode[name])
		b.WriteString("\n")
	}

	b.WriteString("void main() {\n")
	declNames := make([]string, 0, len(gen.declarations))
	for name := range gen.declarations {
		declNames = append(declNames, name)
	}
	sort.Strings(declNames)
	for _, name := range declNames {
		fmt.Fprintf(&b, "    %s\n", gen.declarations[name].DeclarationCode)
	}
	for _, stmt := range gen.statements {
		fmt.Fprintf(&b, "    %s\n", stmt)
	}
	b.WriteString("}\n")

	return Source{Vertex: vertexSource, Fragment: b.String(), Uniforms: uniforms}
}

// orderedUniforms emits the host-supplied builtins first in a fixed order,
// then user uniforms sorted by name.
func orderedUniforms(uniforms map[string]string) []string {
	ordered := make([]string, 0, len(uniforms))
	for _, name := range []string{"resolution", "time"} {
		if _, ok := uniforms[name]; ok {
			ordered = append(ordered, name)
		}
	}
	var rest []string
	for name := range uniforms {
		if name == "resolution" || name == "time" {
			continue
		}
		rest = append(rest, name)
	}
	sort.Strings(rest)
	return append(ordered, rest...)
}

// convertResult maps a call result to the final output color. Unrecognized
// return types use the float rule.
func convertResult(returnType, result string) string {
	switch returnType {
	case "vec4":
		return result
	case "vec3":
		return fmt.Sprintf("vec4(%s, 1.0)", result)
	case "vec2":
		return fmt.Sprintf("vec4(%s.xy, 0.0, 1.0)", result)
	default:
		return fmt.Sprintf("vec4(vec3(%s), 1.0)", result)
	}
}
