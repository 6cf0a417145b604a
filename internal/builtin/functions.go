package builtin

import "sort"

// Builtin function names grouped by GLSL specification category. These sets
// only distinguish "available without a plugin" from "must come from a
// plugin"; no signature information is kept.
var (
	angleTrigonometryFunctions = []string{
		"radians", "degrees",
		"sin", "cos", "tan",
		"asin", "acos", "atan",
	}

	exponentialFunctions = []string{
		"pow", "exp", "log", "exp2", "log2", "sqrt", "inversesqrt",
	}

	commonFunctions = []string{
		"abs", "sign", "floor", "trunc", "round", "roundEven", "ceil", "fract",
		"mod", "modf", "min", "max", "clamp", "mix", "step", "smoothstep",
	}

	geometricFunctions = []string{
		"length", "distance", "dot", "cross", "normalize",
		"faceforward", "reflect", "refract",
	}

	matrixFunctions = []string{
		"matrixCompMult",
	}

	vectorRelationalFunctions = []string{
		"lessThan", "lessThanEqual", "greaterThan", "greaterThanEqual",
		"equal", "notEqual", "any", "all", "not",
	}
)

// Builtin data type names grouped by category.
var (
	booleanTypes  = []string{"bool", "bvec2", "bvec3", "bvec4"}
	integerTypes  = []string{"int", "ivec2", "ivec3", "ivec4"}
	unsignedTypes = []string{"uint", "uvec2", "uvec3", "uvec4"}
	floatTypes    = []string{"float", "vec2", "vec3", "vec4"}
	doubleTypes   = []string{"double", "dvec2", "dvec3", "dvec4"}
	matrixTypes   = []string{
		"mat2", "mat3", "mat4",
		"mat2x2", "mat2x3", "mat2x4",
		"mat3x2", "mat3x3", "mat3x4",
		"mat4x2", "mat4x3", "mat4x4",
	}
	doubleMatrixTypes = []string{
		"dmat2", "dmat3", "dmat4",
		"dmat2x2", "dmat2x3", "dmat2x4",
		"dmat3x2", "dmat3x3", "dmat3x4",
		"dmat4x2", "dmat4x3", "dmat4x4",
	}
)

var (
	builtinFunctions = makeSet(
		angleTrigonometryFunctions,
		exponentialFunctions,
		commonFunctions,
		geometricFunctions,
		matrixFunctions,
		vectorRelationalFunctions,
	)

	builtinTypes = makeSet(
		booleanTypes,
		integerTypes,
		unsignedTypes,
		floatTypes,
		doubleTypes,
		matrixTypes,
		doubleMatrixTypes,
	)
)

func makeSet(groups ...[]string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, group := range groups {
		for _, name := range group {
			set[name] = struct{}{}
		}
	}
	return set
}

// IsFunction reports whether name is a GLSL builtin function.
func IsFunction(name string) bool {
	_, ok := builtinFunctions[name]
	return ok
}

// IsType reports whether name is a GLSL builtin data type.
func IsType(name string) bool {
	_, ok := builtinTypes[name]
	return ok
}

// IsBuiltinName reports whether name is either a builtin function or type.
func IsBuiltinName(name string) bool {
	return IsFunction(name) || IsType(name)
}

// FunctionNames returns every builtin function name in sorted order.
func FunctionNames() []string {
	names := make([]string, 0, len(builtinFunctions))
	for name := range builtinFunctions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
