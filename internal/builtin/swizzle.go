package builtin

import (
	"strings"

	forgeerrors "github.com/fragworks/fragforge/pkg/errors"
)

var componentNames = []string{"x", "y", "z", "w"}

// ExtractBase returns the part of variable before the first '.', or the
// whole string when there is no swizzle.
func ExtractBase(variable string) string {
	if idx := strings.IndexByte(variable, '.'); idx >= 0 {
		return variable[:idx]
	}
	return variable
}

// HasSwizzle reports whether variable carries a component suffix.
func HasSwizzle(variable string) bool {
	return strings.IndexByte(variable, '.') >= 0
}

// ExtractSwizzle returns the component suffix after the first '.', or ""
// when there is none.
func ExtractSwizzle(variable string) string {
	idx := strings.IndexByte(variable, '.')
	if idx >= 0 && idx+1 < len(variable) {
		return variable[idx+1:]
	}
	return ""
}

// IsFloatLiteral reports whether s is a plain numeric literal: an optional
// leading minus, digits, and at most one decimal point.
func IsFloatLiteral(s string) bool {
	if s == "" {
		return false
	}
	hasDot := false
	hasDigit := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '-' && i == 0:
		case c == '.':
			if hasDot {
				return false
			}
			hasDot = true
		case c >= '0' && c <= '9':
			hasDigit = true
		default:
			return false
		}
	}
	return hasDigit
}

// ValidateSwizzle checks a single argument's component access against the
// builtin variable table. Numeric literals and non-swizzled names pass
// unconditionally; otherwise every swizzle character must be within the base
// variable's component range. The returned error names the base variable and
// its supported components.
func (r *Registry) ValidateSwizzle(argument string) error {
	if IsFloatLiteral(argument) {
		return nil
	}
	if !HasSwizzle(argument) {
		return nil
	}

	base := ExtractBase(argument)
	swizzle := ExtractSwizzle(argument)

	info, ok := r.Variable(base)
	if !ok {
		return &forgeerrors.InvalidSwizzleError{Argument: argument, Base: base}
	}

	supported := supportedComponents(info.ComponentCount)
	for i := 0; i < len(swizzle); i++ {
		if !strings.ContainsRune(supported, rune(swizzle[i])) {
			return &forgeerrors.InvalidSwizzleError{
				Argument:  argument,
				Base:      base,
				Supported: componentNames[:info.ComponentCount],
			}
		}
	}
	return nil
}

// ArgumentType resolves the GLSL type of a raw argument string: literals are
// floats, swizzles are sized by their suffix length, builtin names use their
// declared type, and anything else is assumed to be a user float uniform.
func (r *Registry) ArgumentType(argument string) string {
	if IsFloatLiteral(argument) {
		return "float"
	}
	if HasSwizzle(argument) {
		return TypeForComponents(len(ExtractSwizzle(argument)))
	}
	if info, ok := r.Variable(argument); ok {
		return info.GLSLType
	}
	return "float"
}

// ArgumentComponents returns the component count an argument contributes to
// an overload match.
func (r *Registry) ArgumentComponents(argument string) int {
	return ComponentCount(r.ArgumentType(argument))
}

func supportedComponents(count int) string {
	if count < 1 {
		return ""
	}
	if count > 4 {
		count = 4
	}
	return "xyzw"[:count]
}
