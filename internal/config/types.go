package config

// Config represents the full fragforge configuration document.
type Config struct {
	Version string         `yaml:"version" validate:"required,semver"`
	Log     LogSettings    `yaml:"log,omitempty"`
	Server  ServerSettings `yaml:"server,omitempty"`
	Plugins PluginSettings `yaml:"plugins" validate:"required"`
}

// LogSettings configures the process logger.
type LogSettings struct {
	Level         string `yaml:"level,omitempty" validate:"omitempty,oneof=trace debug info warn error"`
	HumanReadable bool   `yaml:"human_readable,omitempty"`
}

// ServerSettings configures the command transport listener.
type ServerSettings struct {
	Listen string `yaml:"listen,omitempty"`
}

// PluginSettings configures the plugin registry.
type PluginSettings struct {
	// ABIVersion overrides the compiled-in plugin contract version. Zero
	// keeps the default.
	ABIVersion int       `yaml:"abi_version,omitempty" validate:"omitempty,min=1"`
	Libraries  []Library `yaml:"libraries" validate:"required,min=1,dive"`
}

// Library names one loadable function library.
type Library struct {
	Path  string `yaml:"path" validate:"required"`
	Alias string `yaml:"alias,omitempty" validate:"omitempty,plugin_alias"`
}

// DefaultListen is the transport address used when the document omits one.
const DefaultListen = ":9000"

// ListenAddr returns the configured listen address or the default.
func (c *Config) ListenAddr() string {
	if c.Server.Listen != "" {
		return c.Server.Listen
	}
	return DefaultListen
}
