// Package errors holds the typed failure values shared across the fragforge
// components. Every failure crossing a component boundary is one of these
// values; nothing in the core panics across package lines.
package errors

import (
	"fmt"
	"strings"
)

// PluginLoadError reports a failed library load: open failure, missing
// symbol, ABI mismatch or duplicate alias. Nothing is registered when it is
// returned.
type PluginLoadError struct {
	Path    string
	Message string
	Err     error
}

// NewPluginLoadError constructs a PluginLoadError.
func NewPluginLoadError(path, message string, err error) error {
	return &PluginLoadError{Path: path, Message: message, Err: err}
}

func (e *PluginLoadError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("plugin load error: %s: %s", e.Path, e.Message)
}

// Unwrap exposes the underlying error.
func (e *PluginLoadError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ABIMismatchError is returned when a library reports an ABI version other
// than the one the host was built against.
type ABIMismatchError struct {
	Path     string
	Expected int
	Got      int
}

func (e *ABIMismatchError) Error() string {
	return fmt.Sprintf("plugin ABI version mismatch for %s: expected %d, got %d", e.Path, e.Expected, e.Got)
}

// FunctionNotFoundError reports a function name that resolved to neither a
// GLSL builtin nor any loaded plugin.
type FunctionNotFoundError struct {
	Function string
}

// NewFunctionNotFoundError constructs a FunctionNotFoundError.
func NewFunctionNotFoundError(function string) error {
	return &FunctionNotFoundError{Function: function}
}

func (e *FunctionNotFoundError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("function '%s' not found in GLSL built-ins or plugins", e.Function)
}

// InvalidSwizzleError reports a component access that the base variable does
// not support. Supported lists the component names valid for the base.
type InvalidSwizzleError struct {
	Argument  string
	Base      string
	Supported []string
}

func (e *InvalidSwizzleError) Error() string {
	if e == nil {
		return ""
	}
	if len(e.Supported) == 0 {
		return fmt.Sprintf("unknown variable '%s'", e.Base)
	}
	return fmt.Sprintf("invalid swizzle '%s': base variable '%s' supports components [%s]",
		e.Argument, e.Base, strings.Join(e.Supported, ", "))
}

// CircularDependencyError is returned when the composition graph reachable
// from the requested output contains a cycle. The offending edge is reported
// as From -> To for diagnosis.
type CircularDependencyError struct {
	From string
	To   string
}

func (e *CircularDependencyError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("circular dependency detected: %s -> %s", e.From, e.To)
}

// UnmatchedParenthesesError reports a nested call whose parentheses never
// close. The surrounding analysis skips the call instead of failing, which
// can under-report dependencies.
type UnmatchedParenthesesError struct {
	Function   string
	Expression string
}

func (e *UnmatchedParenthesesError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("unmatched parentheses for function '%s' in '%s'", e.Function, e.Expression)
}

// NodeNotFoundError reports a composition-node id with no entry in the
// pending table, either requested directly or referenced via $shader_<id>.
type NodeNotFoundError struct {
	NodeID string
}

func (e *NodeNotFoundError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("composition node '%s' not found", e.NodeID)
}

// CompileError carries a GPU compiler failure verbatim. The artifact that
// triggered it stays in its error state and is never cached.
type CompileError struct {
	Message string
	Err     error
}

// NewCompileError constructs a CompileError.
func NewCompileError(message string, err error) error {
	return &CompileError{Message: message, Err: err}
}

func (e *CompileError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("shader compile error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *CompileError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ParseError reports a malformed configuration file.
type ParseError struct {
	Path string
	Line int
	Err  error
}

// NewParseError constructs a ParseError.
func NewParseError(path string, line int, err error) error {
	return &ParseError{Path: path, Line: line, Err: err}
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}
	if e.Line > 0 {
		return fmt.Sprintf("parse error in %s at line %d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("parse error in %s: %v", e.Path, e.Err)
}

// Unwrap exposes the underlying error.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ValidationError reports an invalid configuration value.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError constructs a ValidationError.
func NewValidationError(field, message string, err error) error {
	return &ValidationError{Field: field, Message: message, Err: err}
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("validation error on %s: %s", e.Field, e.Message)
}

// Unwrap exposes the underlying error.
func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ExpressionError reports a failure inside the embedded arithmetic
// evaluator. The expression parser converts it into a fallback record; it
// never propagates past that boundary.
type ExpressionError struct {
	Expression string
	Position   int
	Err        error
}

func (e *ExpressionError) Error() string {
	if e == nil {
		return ""
	}
	if e.Position > 0 {
		return fmt.Sprintf("expression error in '%s' at position %d: %v", e.Expression, e.Position, e.Err)
	}
	return fmt.Sprintf("expression error in '%s': %v", e.Expression, e.Err)
}

// Unwrap exposes the underlying evaluator error.
func (e *ExpressionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
