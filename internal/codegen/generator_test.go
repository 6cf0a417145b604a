package codegen

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fragworks/fragforge/internal/builtin"
	"github.com/fragworks/fragforge/internal/expression"
	"github.com/fragworks/fragforge/pkg/glslplugin"
)

const snoiseSource = `float snoise(vec2 v) { return 0.0; }
float snoise(vec3 v) { return 0.0; }
`

func snoiseFunction() glslplugin.Function {
	return glslplugin.Function{
		Name:       "snoise",
		SourceFile: "snoise.glsl",
		Overloads: []glslplugin.Overload{
			{ReturnType: "float", ParamTypes: []string{"vec2"}},
			{ReturnType: "float", ParamTypes: []string{"vec3"}},
		},
	}
}

func parseArgs(t *testing.T, texts ...string) []expression.Info {
	t.Helper()
	parser := expression.NewParser(builtin.NewRegistry(), nil)
	args := make([]expression.Info, len(texts))
	for i, text := range texts {
		info, err := parser.Parse(text)
		require.NoError(t, err)
		args[i] = info
	}
	return args
}

func newGenerator() *Generator {
	return NewGenerator(builtin.NewRegistry(), nil, nil)
}

func TestGenerateDirectCall(t *testing.T) {
	src, err := newGenerator().Generate(snoiseFunction(), snoiseSource, parseArgs(t, "st"))
	require.NoError(t, err)

	require.Contains(t, src.Fragment, "uniform vec2 resolution;")
	require.Contains(t, src.Fragment, "vec2 st = gl_FragCoord.xy / resolution;")
	require.Contains(t, src.Fragment, "float result = snoise(st);")
	require.Contains(t, src.Fragment, "gl_FragColor = vec4(vec3(result), 1.0);")
	require.NotContains(t, src.Fragment, "wrapper")
	require.Equal(t, []string{"resolution"}, src.Uniforms)
	require.Contains(t, src.Vertex, "gl_Position")
}

func TestGenerateWrapperForCombinedArguments(t *testing.T) {
	// st(vec2) + time(float) total three components, matching the vec3
	// overload through a synthesized wrapper.
	src, err := newGenerator().Generate(snoiseFunction(), snoiseSource, parseArgs(t, "st", "time"))
	require.NoError(t, err)

	require.Contains(t, src.Fragment, "uniform vec2 resolution;")
	require.Contains(t, src.Fragment, "uniform float time;")
	require.Contains(t, src.Fragment, "float snoise_wrapper(vec2 a0, float a1) {")
	require.Contains(t, src.Fragment, "return snoise(vec3(a0, a1));")
	require.Contains(t, src.Fragment, "float result = snoise_wrapper(st, time);")
	require.Equal(t, []string{"resolution", "time"}, src.Uniforms)
}

func TestGenerateConstantArgument(t *testing.T) {
	src, err := newGenerator().Generate(snoiseFunction(), snoiseSource, parseArgs(t, "st", "2.5"))
	require.NoError(t, err)
	require.Contains(t, src.Fragment, "snoise_wrapper(st, 2.500000)")
}

func TestGenerateExpressionTemporary(t *testing.T) {
	src, err := newGenerator().Generate(snoiseFunction(), snoiseSource,
		parseArgs(t, "st", "sin(time*10.0)"))
	require.NoError(t, err)

	require.Contains(t, src.Fragment, "float _expr0 = sin(time*10.0);")
	require.Contains(t, src.Fragment, "snoise_wrapper(st, _expr0)")
	require.Contains(t, src.Fragment, "uniform float time;")
}

func TestGenerateUserUniform(t *testing.T) {
	src, err := newGenerator().Generate(snoiseFunction(), snoiseSource, parseArgs(t, "st", "speed"))
	require.NoError(t, err)
	require.Contains(t, src.Fragment, "uniform float speed;")
	require.Equal(t, []string{"resolution", "speed"}, src.Uniforms)
}

func TestGenerateResultConversions(t *testing.T) {
	cases := map[string]string{
		"float": "gl_FragColor = vec4(vec3(result), 1.0);",
		"vec2":  "gl_FragColor = vec4(result.xy, 0.0, 1.0);",
		"vec3":  "gl_FragColor = vec4(result, 1.0);",
		"vec4":  "gl_FragColor = result;",
	}
	for returnType, expected := range cases {
		fn := glslplugin.Function{
			Name: "paint",
			Overloads: []glslplugin.Overload{
				{ReturnType: returnType, ParamTypes: []string{"vec2"}},
			},
		}
		src, err := newGenerator().Generate(fn, "", parseArgs(t, "st"))
		require.NoError(t, err)
		require.Contains(t, src.Fragment, expected, "return type %s", returnType)
	}
}

func TestGenerateGraphUnifiedShader(t *testing.T) {
	fn := snoiseFunction()
	nodes := []Node{
		{ID: "shader_1", Function: fn, Args: parseArgs(t, "st")},
		{ID: "shader_2", Function: fn, Args: parseArgs(t, "shader_1_result", "time")},
	}

	src, err := newGenerator().GenerateGraph(snoiseSource, nodes)
	require.NoError(t, err)

	// The shared function source appears once.
	require.Equal(t, 1, countOccurrences(src.Fragment, "float snoise(vec2 v)"))
	require.Contains(t, src.Fragment, "float shader_1_result = snoise(st);")
	require.Contains(t, src.Fragment, "float shader_2_result = snoise_wrapper(shader_1_result, time);")
	require.Contains(t, src.Fragment, "gl_FragColor = vec4(vec3(shader_2_result), 1.0);")

	// A node result is a local, never a uniform.
	require.NotContains(t, src.Fragment, "uniform float shader_1_result;")
	require.Equal(t, []string{"resolution", "time"}, src.Uniforms)
}

func TestGenerateEmptyGraphFails(t *testing.T) {
	_, err := newGenerator().GenerateGraph("", nil)
	require.Error(t, err)
}

func countOccurrences(s, sub string) int {
	count := 0
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			count++
		}
	}
	return count
}
