package expression

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fragworks/fragforge/internal/builtin"
)

func newParser(t *testing.T) *Parser {
	t.Helper()
	return NewParser(builtin.NewRegistry(), nil)
}

func TestParseSimpleVariable(t *testing.T) {
	p := newParser(t)

	info, err := p.Parse("st")
	require.NoError(t, err)
	require.True(t, info.IsSimpleVar)
	require.False(t, info.IsConstant)
	require.Equal(t, "st", info.GLSL)
	require.Equal(t, "vec2", info.Type)
	require.Equal(t, []string{"st"}, info.Dependencies)
}

func TestParseSwizzleOverridesComponentCount(t *testing.T) {
	p := newParser(t)

	info, err := p.Parse("st.x")
	require.NoError(t, err)
	require.True(t, info.IsSimpleVar)
	require.Equal(t, "float", info.Type)

	info, err = p.Parse("gl_FragCoord.xyz")
	require.NoError(t, err)
	require.Equal(t, "vec3", info.Type)
}

func TestParseUnknownSimpleVariableDefaultsToFloat(t *testing.T) {
	p := newParser(t)

	info, err := p.Parse("speed")
	require.NoError(t, err)
	require.True(t, info.IsSimpleVar)
	require.Equal(t, "float", info.Type)
}

func TestParseNumericLiteralIsConstant(t *testing.T) {
	p := newParser(t)

	info, err := p.Parse("10.5")
	require.NoError(t, err)
	require.False(t, info.IsSimpleVar)
	require.True(t, info.IsConstant)
	require.InDelta(t, 10.5, info.ConstantValue, 1e-9)
	require.Empty(t, info.Dependencies)
}

func TestParseConstantArithmetic(t *testing.T) {
	p := newParser(t)

	info, err := p.Parse("3.0 * 2.0 + 1.5")
	require.NoError(t, err)
	require.True(t, info.IsConstant)
	require.InDelta(t, 7.5, info.ConstantValue, 1e-9)
	require.Equal(t, "3.0 * 2.0 + 1.5", info.GLSL)
}

func TestParseExpressionWithDependencies(t *testing.T) {
	p := newParser(t)

	info, err := p.Parse("sin(time*10.0)+cos(time*5.0)")
	require.NoError(t, err)
	require.False(t, info.IsConstant)
	require.Equal(t, []string{"time"}, info.Dependencies)
	require.Equal(t, "sin(time*10.0)+cos(time*5.0)", info.GLSL)
	require.Equal(t, "float", info.Type)
}

func TestParsePureArithmeticDependencies(t *testing.T) {
	p := newParser(t)

	// No '.' anywhere, so the evaluator's own AST supplies the variables.
	info, err := p.Parse("time*speed+offset")
	require.NoError(t, err)
	require.Equal(t, []string{"offset", "speed", "time"}, info.Dependencies)
	require.False(t, info.IsConstant)
}

func TestParseSwizzledExpressionDependencies(t *testing.T) {
	p := newParser(t)

	info, err := p.Parse("st.x * 2.0")
	require.NoError(t, err)
	require.Equal(t, []string{"st.x"}, info.Dependencies)
	require.Equal(t, "float", info.Type)
}

func TestParseVectorDependencyKeepsVectorType(t *testing.T) {
	p := newParser(t)

	// A bare vector name inside a '.'-bearing expression stays a vector.
	info, err := p.Parse("st + vec2(0.1, 0.2)")
	require.NoError(t, err)
	require.Contains(t, info.Dependencies, "st")
	require.Equal(t, "vec2", info.Type)
}

func TestParseFailureReturnsFallback(t *testing.T) {
	p := newParser(t)

	info, err := p.Parse("time +* 2")
	require.Error(t, err)
	require.Equal(t, "float", info.Type)
	require.Equal(t, "time +* 2", info.GLSL)
	require.Empty(t, info.Dependencies)
	require.False(t, info.IsConstant)
}

func TestFormatConstant(t *testing.T) {
	info := Info{IsConstant: true, ConstantValue: 2.5}
	require.Equal(t, "2.500000", info.FormatConstant())
}

func TestIsSimpleVariable(t *testing.T) {
	require.True(t, IsSimpleVariable("st"))
	require.True(t, IsSimpleVariable("st.xy"))
	require.True(t, IsSimpleVariable("_tmp2"))
	require.False(t, IsSimpleVariable("st.x*2"))
	require.False(t, IsSimpleVariable("2.0"))
	require.False(t, IsSimpleVariable("sin(time)"))
}
