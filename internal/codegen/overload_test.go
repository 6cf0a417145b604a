package codegen

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fragworks/fragforge/pkg/glslplugin"
)

func overloads(sigs ...glslplugin.Overload) glslplugin.Function {
	return glslplugin.Function{Name: "fn", Overloads: sigs}
}

func TestSelectExactComponentMatch(t *testing.T) {
	fn := overloads(
		glslplugin.Overload{ReturnType: "float", ParamTypes: []string{"vec2"}},
		glslplugin.Overload{ReturnType: "float", ParamTypes: []string{"vec3"}},
	)

	s := NewComponentFitStrategy()

	chosen, ok := s.Select(fn, []string{"vec2"})
	require.True(t, ok)
	require.Equal(t, []string{"vec2"}, chosen.ParamTypes)

	// vec2 + float combine to three components.
	chosen, ok = s.Select(fn, []string{"vec2", "float"})
	require.True(t, ok)
	require.Equal(t, []string{"vec3"}, chosen.ParamTypes)
}

func TestSelectArityMatch(t *testing.T) {
	fn := overloads(
		glslplugin.Overload{ReturnType: "float", ParamTypes: []string{"vec4"}},
		glslplugin.Overload{ReturnType: "float", ParamTypes: []string{"vec2", "float"}},
	)

	chosen, ok := NewComponentFitStrategy().Select(fn, []string{"vec2", "float"})
	require.True(t, ok)
	require.Equal(t, []string{"vec2", "float"}, chosen.ParamTypes)
}

func TestSelectNearestSingleVector(t *testing.T) {
	fn := overloads(
		glslplugin.Overload{ReturnType: "float", ParamTypes: []string{"vec2"}},
		glslplugin.Overload{ReturnType: "float", ParamTypes: []string{"vec4"}},
	)

	// Three components fit vec2 and vec4 equally; the first listed wins.
	chosen, ok := NewComponentFitStrategy().Select(fn, []string{"vec3"})
	require.True(t, ok)
	require.Equal(t, []string{"vec2"}, chosen.ParamTypes)

	chosen, ok = NewComponentFitStrategy().Select(fn, []string{"vec4", "float"})
	require.True(t, ok)
	require.Equal(t, []string{"vec4"}, chosen.ParamTypes)
}

func TestSelectNoOverloads(t *testing.T) {
	_, ok := NewComponentFitStrategy().Select(glslplugin.Function{Name: "fn"}, []string{"float"})
	require.False(t, ok)
}

func TestSynthesizeWrapperSingleVector(t *testing.T) {
	overload := glslplugin.Overload{ReturnType: "float", ParamTypes: []string{"vec3"}}
	code := synthesizeWrapper("fn_wrapper", "fn", overload, []string{"vec2", "float"})

	require.Contains(t, code, "float fn_wrapper(vec2 a0, float a1) {")
	require.Contains(t, code, "return fn(vec3(a0, a1));")
}

func TestSynthesizeWrapperZeroPadsConstructor(t *testing.T) {
	overload := glslplugin.Overload{ReturnType: "float", ParamTypes: []string{"vec3"}}
	code := synthesizeWrapper("fn_wrapper", "fn", overload, []string{"vec2"})

	require.Contains(t, code, "return fn(vec3(a0, 0.0));")
}

func TestSynthesizeWrapperSwizzlesDownExcessComponents(t *testing.T) {
	overload := glslplugin.Overload{ReturnType: "float", ParamTypes: []string{"vec2"}}
	code := synthesizeWrapper("fn_wrapper", "fn", overload, []string{"vec2", "float"})

	require.Contains(t, code, "vec3 packed = vec3(a0, a1);")
	require.Contains(t, code, "return fn(packed.xy);")
}

func TestSynthesizeWrapperSlotMapping(t *testing.T) {
	overload := glslplugin.Overload{ReturnType: "float", ParamTypes: []string{"vec2", "float", "float"}}
	code := synthesizeWrapper("fn_wrapper", "fn", overload, []string{"float", "float"})

	// The first slot widens the float, the last unfilled slot zero-pads.
	require.Contains(t, code, "return fn(vec2(a0), a1, 0.0);")
}

func TestConvertExpr(t *testing.T) {
	require.Equal(t, "a", convertExpr("a", "vec2", "vec2"))
	require.Equal(t, "vec3(a)", convertExpr("a", "float", "vec3"))
	require.Equal(t, "a.x", convertExpr("a", "vec3", "float"))
	require.Equal(t, "a.xy", convertExpr("a", "vec4", "vec2"))
	require.Equal(t, "vec4(a, 0.0, 0.0)", convertExpr("a", "vec2", "vec4"))
}
