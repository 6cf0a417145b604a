package shader

// Compiler is the external GPU compiler collaborator. The include directory
// is the plugin's resource directory, for any #include-style resolution the
// compiler performs internally.
type Compiler interface {
	Compile(vertexSource, fragmentSource, includeDir string) (Program, error)
}
