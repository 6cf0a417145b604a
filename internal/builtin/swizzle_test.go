package builtin

import (
	"testing"

	"github.com/stretchr/testify/require"

	forgeerrors "github.com/fragworks/fragforge/pkg/errors"
)

func TestExtractBaseAndSwizzle(t *testing.T) {
	require.Equal(t, "st", ExtractBase("st.xy"))
	require.Equal(t, "st", ExtractBase("st"))
	require.Equal(t, "xy", ExtractSwizzle("st.xy"))
	require.Equal(t, "", ExtractSwizzle("st"))
	require.True(t, HasSwizzle("st.x"))
	require.False(t, HasSwizzle("time"))
}

func TestIsFloatLiteral(t *testing.T) {
	for _, input := range []string{"1", "10.5", "-3.2", ".5"} {
		require.True(t, IsFloatLiteral(input), "input %q", input)
	}
	for _, input := range []string{"1.2.3", "abc", "1a", "-", ""} {
		require.False(t, IsFloatLiteral(input), "input %q", input)
	}
}

func TestValidateSwizzleAcceptsLiteralsAndPlainNames(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.ValidateSwizzle("1.0"))
	require.NoError(t, reg.ValidateSwizzle("time"))
	require.NoError(t, reg.ValidateSwizzle("anything_without_swizzle"))
	require.NoError(t, reg.ValidateSwizzle("st.xy"))
	require.NoError(t, reg.ValidateSwizzle("gl_FragCoord.xyzw"))
}

func TestValidateSwizzleRejectsOutOfRangeComponent(t *testing.T) {
	reg := NewRegistry()

	err := reg.ValidateSwizzle("st.q")
	require.Error(t, err)
	var swizzleErr *forgeerrors.InvalidSwizzleError
	require.ErrorAs(t, err, &swizzleErr)
	require.Equal(t, "st", swizzleErr.Base)
	require.Equal(t, []string{"x", "y"}, swizzleErr.Supported)
	require.Contains(t, err.Error(), "x, y")

	// z is out of range for a vec2.
	require.Error(t, reg.ValidateSwizzle("st.xyz"))
}

func TestValidateSwizzleRejectsUnknownBase(t *testing.T) {
	reg := NewRegistry()
	err := reg.ValidateSwizzle("foo.x")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown variable 'foo'")
}

func TestArgumentType(t *testing.T) {
	reg := NewRegistry()
	require.Equal(t, "float", reg.ArgumentType("2.5"))
	require.Equal(t, "vec2", reg.ArgumentType("st"))
	require.Equal(t, "float", reg.ArgumentType("st.x"))
	require.Equal(t, "vec3", reg.ArgumentType("gl_FragCoord.xyz"))
	require.Equal(t, "float", reg.ArgumentType("my_uniform"))
}

func TestRegistryVariables(t *testing.T) {
	reg := NewRegistry()

	st, ok := reg.Variable("st")
	require.True(t, ok)
	require.True(t, st.NeedsUniform)
	require.True(t, st.NeedsDeclaration)
	require.Equal(t, "vec2 st = gl_FragCoord.xy / resolution;", st.DeclarationCode)

	timeVar, ok := reg.Variable("time")
	require.True(t, ok)
	require.False(t, timeVar.NeedsDeclaration)

	require.False(t, reg.IsVariable("velocity"))
	require.Equal(t, []string{"gl_FragCoord", "resolution", "st", "time"}, reg.VariableNames())
}

func TestBuiltinFunctionSets(t *testing.T) {
	require.True(t, IsFunction("sin"))
	require.True(t, IsFunction("smoothstep"))
	require.False(t, IsFunction("snoise"))
	require.True(t, IsType("vec3"))
	require.True(t, IsType("dmat4x3"))
	require.False(t, IsType("vec5"))
	require.True(t, IsBuiltinName("mix"))
}

func TestComponentHelpers(t *testing.T) {
	require.Equal(t, 2, ComponentCount("vec2"))
	require.Equal(t, 1, ComponentCount("sampler2D"))
	require.Equal(t, "vec4", TypeForComponents(4))
	require.Equal(t, "float", TypeForComponents(7))
}
