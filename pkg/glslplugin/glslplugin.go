// Package glslplugin defines the contract between the fragforge host and
// loadable GLSL function libraries. A library is built with -buildmode=plugin
// and must export three symbols:
//
//	func PluginABIVersion() int
//	func NewFunctionLibrary() glslplugin.FunctionLibrary
//	func PluginInfo() string
//
// The host refuses to register a library whose ABI version differs from
// ABIVersion. NewFunctionLibrary is the factory for the function table and
// PluginInfo returns a human-readable description used in listings.
package glslplugin

// ABIVersion is the contract version the host expects from every library it
// loads. Bump it whenever the FunctionLibrary interface or the metadata
// types change shape.
const ABIVersion = 1

// Symbol names the host resolves in a loaded library.
const (
	SymbolABIVersion = "PluginABIVersion"
	SymbolFactory    = "NewFunctionLibrary"
	SymbolInfo       = "PluginInfo"
)

// Overload is one callable signature of a GLSL function.
type Overload struct {
	ReturnType string
	ParamTypes []string
}

// Function describes one GLSL function exposed by a library. SourceFile is
// relative to the library's resource directory and points at the file holding
// the function's GLSL source text.
type Function struct {
	Name       string
	SourceFile string
	Category   string
	Overloads  []Overload
}

// FunctionLibrary is the function table a plugin's factory returns. The host
// owns the instance: it calls SetResourceDir right after creation and Close
// exactly once before the library is discarded.
type FunctionLibrary interface {
	// Name returns the library's self-reported name, used as the default
	// registration alias.
	Name() string

	// Version returns the library's own version string (not the ABI version).
	Version() string

	// Author returns the library author for listings.
	Author() string

	// SetResourceDir tells the library where its shader sources live. The
	// host passes the directory containing the loaded library file.
	SetResourceDir(dir string)

	// ResourceDir returns the directory set by SetResourceDir.
	ResourceDir() string

	// Functions returns the complete function table. The slice and its
	// entries must not change for the lifetime of the instance.
	Functions() []Function

	// Close releases anything the library instance holds. The host calls it
	// before dropping the library handle, never after.
	Close() error
}
