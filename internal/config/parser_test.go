package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	forgeerrors "github.com/fragworks/fragforge/pkg/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fragforge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestParseConfigValid(t *testing.T) {
	path := writeConfig(t, `
version: "1.0"
log:
  level: debug
server:
  listen: ":7000"
plugins:
  abi_version: 1
  libraries:
    - path: ./plugins/noise.so
      alias: noise
    - path: ./plugins/shapes.so
`)

	cfg, err := ParseConfig(path)
	require.NoError(t, err)
	require.Equal(t, "1.0", cfg.Version)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, ":7000", cfg.ListenAddr())
	require.Len(t, cfg.Plugins.Libraries, 2)
	require.Equal(t, "noise", cfg.Plugins.Libraries[0].Alias)
}

func TestParseConfigDefaultListen(t *testing.T) {
	path := writeConfig(t, `
version: "1.0"
plugins:
  libraries:
    - path: ./plugins/noise.so
`)

	cfg, err := ParseConfig(path)
	require.NoError(t, err)
	require.Equal(t, DefaultListen, cfg.ListenAddr())
}

func TestParseConfigMissingFile(t *testing.T) {
	_, err := ParseConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	var parseErr *forgeerrors.ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestParseConfigMalformedYAML(t *testing.T) {
	path := writeConfig(t, "version: [broken\n")

	_, err := ParseConfig(path)
	require.Error(t, err)
	var parseErr *forgeerrors.ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestParseConfigRequiresLibraries(t *testing.T) {
	path := writeConfig(t, `
version: "1.0"
plugins:
  libraries: []
`)

	_, err := ParseConfig(path)
	require.Error(t, err)
	var validationErr *forgeerrors.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestParseConfigRejectsBadVersion(t *testing.T) {
	path := writeConfig(t, `
version: banana
plugins:
  libraries:
    - path: ./plugins/noise.so
`)

	_, err := ParseConfig(path)
	require.Error(t, err)
}

func TestParseConfigRejectsBadAlias(t *testing.T) {
	path := writeConfig(t, `
version: "1.0"
plugins:
  libraries:
    - path: ./plugins/noise.so
      alias: "No Spaces Allowed"
`)

	_, err := ParseConfig(path)
	require.Error(t, err)
}

func TestValidateConfigDuplicateAlias(t *testing.T) {
	cfg := &Config{
		Version: "1.0",
		Plugins: PluginSettings{Libraries: []Library{
			{Path: "a.so", Alias: "noise"},
			{Path: "b.so", Alias: "noise"},
		}},
	}

	err := ValidateConfig(cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "noise")
}
