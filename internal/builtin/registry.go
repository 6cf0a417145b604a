// Package builtin is the static catalogue of everything available to a
// shader without loading a plugin: typed builtin variables (st, time,
// resolution, gl_FragCoord), the GLSL builtin function and type names, and
// swizzle validation on top of the variable table.
package builtin

import "sort"

// Variable describes one builtin shader variable and the code generation
// metadata attached to it.
type Variable struct {
	Name             string
	GLSLType         string
	ComponentCount   int
	NeedsUniform     bool
	NeedsDeclaration bool
	DeclarationCode  string
}

// Registry holds the builtin variable table. Construct one at startup with
// NewRegistry and inject it into every component that needs it; the table is
// immutable afterwards.
type Registry struct {
	vars map[string]Variable
}

// NewRegistry returns the process-wide builtin variable catalogue.
func NewRegistry() *Registry {
	vars := map[string]Variable{
		// Normalized screen coordinates in [0,1].
		"st": {
			Name:             "st",
			GLSLType:         "vec2",
			ComponentCount:   2,
			NeedsUniform:     true,
			NeedsDeclaration: true,
			DeclarationCode:  "vec2 st = gl_FragCoord.xy / resolution;",
		},
		// Elapsed time in seconds, supplied by the host each frame.
		"time": {
			Name:           "time",
			GLSLType:       "float",
			ComponentCount: 1,
			NeedsUniform:   true,
		},
		// Viewport dimensions in pixels.
		"resolution": {
			Name:           "resolution",
			GLSLType:       "vec2",
			ComponentCount: 2,
			NeedsUniform:   true,
		},
		// Standard GLSL fragment coordinate, no host involvement.
		"gl_FragCoord": {
			Name:           "gl_FragCoord",
			GLSLType:       "vec4",
			ComponentCount: 4,
		},
	}
	return &Registry{vars: vars}
}

// Variable looks up a builtin variable by name.
func (r *Registry) Variable(name string) (Variable, bool) {
	v, ok := r.vars[name]
	return v, ok
}

// IsVariable reports whether name is a builtin variable.
func (r *Registry) IsVariable(name string) bool {
	_, ok := r.vars[name]
	return ok
}

// VariableNames returns all builtin variable names in sorted order.
func (r *Registry) VariableNames() []string {
	names := make([]string, 0, len(r.vars))
	for name := range r.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ComponentCount maps a GLSL type name to its component count. Unknown types
// count as a single float.
func ComponentCount(glslType string) int {
	switch glslType {
	case "vec2":
		return 2
	case "vec3":
		return 3
	case "vec4":
		return 4
	default:
		return 1
	}
}

// TypeForComponents maps a component count back to a GLSL type name. Counts
// outside 1..4 fall back to float.
func TypeForComponents(n int) string {
	switch n {
	case 2:
		return "vec2"
	case 3:
		return "vec3"
	case 4:
		return "vec4"
	default:
		return "float"
	}
}
