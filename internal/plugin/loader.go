package plugin

import goplugin "plugin"

// Library is an opened dynamic library handle.
type Library interface {
	// Lookup resolves an exported symbol by name.
	Lookup(symbol string) (any, error)

	// Close releases the handle. It is called exactly once, after the
	// library's function-table instance has been closed.
	Close() error
}

// Loader opens dynamic libraries. The registry takes it as an interface so
// tests can register libraries without building shared objects.
type Loader interface {
	Open(path string) (Library, error)
}

// NewRuntimeLoader returns the Loader backed by the Go runtime's plugin
// facility.
func NewRuntimeLoader() Loader {
	return runtimeLoader{}
}

type runtimeLoader struct{}

func (runtimeLoader) Open(path string) (Library, error) {
	p, err := goplugin.Open(path)
	if err != nil {
		return nil, err
	}
	return runtimeLibrary{p: p}, nil
}

type runtimeLibrary struct {
	p *goplugin.Plugin
}

func (l runtimeLibrary) Lookup(symbol string) (any, error) {
	return l.p.Lookup(symbol)
}

// Close is a no-op: the Go runtime keeps a loaded plugin mapped for the
// process lifetime. Unloading a registration still closes the function-table
// instance and drops the handle.
func (runtimeLibrary) Close() error {
	return nil
}
