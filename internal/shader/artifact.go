// Package shader owns compiled shader artifacts: their lifecycle states,
// uniform bookkeeping, and the manager that builds and caches them.
package shader

import (
	"github.com/fragworks/fragforge/internal/codegen"
)

// State is an artifact's lifecycle position.
type State int

const (
	// StateCreated is a registered artifact that has not compiled yet.
	StateCreated State = iota
	// StateCompiling is set while the external compiler runs.
	StateCompiling
	// StateIdle is compiled and ready but not feeding the output.
	StateIdle
	// StateConnected is compiled and feeding the current output.
	StateConnected
	// StateError is a failed artifact; Message carries the reason.
	StateError
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateCompiling:
		return "compiling"
	case StateIdle:
		return "idle"
	case StateConnected:
		return "connected"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Program is a compiled GPU program handle owned by the cache entry that
// created it.
type Program interface {
	Release()
}

// Artifact is one shader build result. Error-state artifacts carry a message
// and no program; they are returned to callers but never cached.
type Artifact struct {
	ID        string
	Name      string
	Arguments []string
	State     State
	Message   string
	Source    codegen.Source
	Program   Program

	// AutoUpdateTime and AutoUpdateResolution mark artifacts whose time and
	// resolution uniforms the host refreshes every tick.
	AutoUpdateTime       bool
	AutoUpdateResolution bool

	floatUniforms map[string]float64
	vec2Uniforms  map[string][2]float64
}

// Ready reports whether the artifact compiled successfully.
func (a *Artifact) Ready() bool {
	return a != nil && (a.State == StateIdle || a.State == StateConnected)
}

// Failed reports whether the artifact is in its error state.
func (a *Artifact) Failed() bool {
	return a != nil && a.State == StateError
}

// SetFloat records a float uniform value for the next draw.
func (a *Artifact) SetFloat(name string, value float64) {
	if a.floatUniforms == nil {
		a.floatUniforms = make(map[string]float64)
	}
	a.floatUniforms[name] = value
}

// Float returns a recorded float uniform value.
func (a *Artifact) Float(name string) (float64, bool) {
	v, ok := a.floatUniforms[name]
	return v, ok
}

// SetVec2 records a two-component uniform value for the next draw.
func (a *Artifact) SetVec2(name string, x, y float64) {
	if a.vec2Uniforms == nil {
		a.vec2Uniforms = make(map[string][2]float64)
	}
	a.vec2Uniforms[name] = [2]float64{x, y}
}

// Vec2 returns a recorded two-component uniform value.
func (a *Artifact) Vec2(name string) ([2]float64, bool) {
	v, ok := a.vec2Uniforms[name]
	return v, ok
}

// Tick refreshes the auto-updated uniforms from the host clock and viewport.
func (a *Artifact) Tick(time float64, width, height float64) {
	if a == nil || !a.Ready() {
		return
	}
	if a.AutoUpdateTime {
		a.SetFloat("time", time)
	}
	if a.AutoUpdateResolution {
		a.SetVec2("resolution", width, height)
	}
}

// release frees the GPU program, if any, and drops the recorded uniform
// values. Only cache eviction calls it.
func (a *Artifact) release() {
	if a.Program != nil {
		a.Program.Release()
		a.Program = nil
	}
	a.floatUniforms = nil
	a.vec2Uniforms = nil
}
