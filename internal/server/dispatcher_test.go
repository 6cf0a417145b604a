package server

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/fragworks/fragforge/internal/builtin"
	"github.com/fragworks/fragforge/internal/shader"
	"github.com/fragworks/fragforge/pkg/glslplugin"
)

type fakeProgram struct{}

func (fakeProgram) Release() {}

type fakeCompiler struct{}

func (fakeCompiler) Compile(vertexSource, fragmentSource, includeDir string) (shader.Program, error) {
	return fakeProgram{}, nil
}

type fakePlugins struct {
	dir string
}

func (f *fakePlugins) FindFunction(name string) (glslplugin.Function, bool) {
	if name != "snoise" {
		return glslplugin.Function{}, false
	}
	return glslplugin.Function{
		Name:       "snoise",
		SourceFile: "snoise.glsl",
		Overloads: []glslplugin.Overload{
			{ReturnType: "float", ParamTypes: []string{"vec2"}},
			{ReturnType: "float", ParamTypes: []string{"vec3"}},
		},
	}, true
}

func (f *fakePlugins) FunctionsByPlugin() map[string][]string {
	return map[string][]string{"noise": {"snoise"}}
}

func (f *fakePlugins) ResourcePaths() map[string]string {
	return map[string]string{"noise": f.dir}
}

func testDispatcher(t *testing.T) *Dispatcher {
	t.Helper()

	dir := t.TempDir()
	source := "float snoise(vec2 v) { return 0.0; }\nfloat snoise(vec3 v) { return 0.0; }\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "snoise.glsl"), []byte(source), 0o644))

	manager := shader.NewManager(builtin.NewRegistry(), &fakePlugins{dir: dir}, fakeCompiler{}, nil)
	return NewDispatcher(manager, nil)
}

func TestDispatchCreate(t *testing.T) {
	d := testDispatcher(t)

	resp := d.Dispatch(Request{ID: "r1", Op: OpCreate, Args: []string{"snoise", "st, time"}})
	require.True(t, resp.OK)
	require.Equal(t, "r1", resp.ID)
	require.Equal(t, "shader_1", resp.Result)
}

func TestDispatchCreateFailure(t *testing.T) {
	d := testDispatcher(t)

	resp := d.Dispatch(Request{Op: OpCreate, Args: []string{"snoise", "st.q"}})
	require.False(t, resp.OK)
	require.Contains(t, resp.Error, "x, y")
	require.NotEmpty(t, resp.ID)
}

func TestDispatchCreateArity(t *testing.T) {
	d := testDispatcher(t)

	resp := d.Dispatch(Request{Op: OpCreate, Args: []string{"snoise"}})
	require.False(t, resp.OK)
	require.Contains(t, resp.Error, "expects 2 arguments")
}

func TestDispatchConnectAndFree(t *testing.T) {
	d := testDispatcher(t)

	created := d.Dispatch(Request{Op: OpCreate, Args: []string{"snoise", "st"}})
	require.True(t, created.OK)

	resp := d.Dispatch(Request{Op: OpConnect, Args: []string{created.Result}})
	require.True(t, resp.OK)

	resp = d.Dispatch(Request{Op: OpFree, Args: []string{created.Result}})
	require.True(t, resp.OK)

	resp = d.Dispatch(Request{Op: OpConnect, Args: []string{created.Result}})
	require.False(t, resp.OK)
}

func TestDispatchUnknownOperation(t *testing.T) {
	d := testDispatcher(t)

	resp := d.Dispatch(Request{Op: "explode"})
	require.False(t, resp.OK)
	require.Contains(t, resp.Error, "explode")
}

func TestServerRoundTrip(t *testing.T) {
	srv := NewServer(":0", testDispatcher(t), nil)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(Request{ID: "r1", Op: OpCreate, Args: []string{"snoise", "st"}}))

	var resp Response
	require.NoError(t, conn.ReadJSON(&resp))
	require.True(t, resp.OK)
	require.Equal(t, "shader_1", resp.Result)
}
