package codegen

import (
	"github.com/fragworks/fragforge/internal/builtin"
	"github.com/fragworks/fragforge/pkg/glslplugin"
)

// OverloadStrategy picks which overload of a plugin function a call with the
// given argument types should target. Returning false means no overload is
// usable.
type OverloadStrategy interface {
	Select(fn glslplugin.Function, argTypes []string) (glslplugin.Overload, bool)
}

// ComponentFitStrategy matches calls to overloads by GLSL component count.
// Selection runs in three priority passes:
//
//  1. a single-parameter overload whose component count exactly equals the
//     call's total component count,
//  2. a multi-parameter overload with the same parameter arity, preferring an
//     exact elementwise type match,
//  3. the single-parameter overload with the smallest component-count
//     difference.
type ComponentFitStrategy struct{}

// NewComponentFitStrategy returns the default overload strategy.
func NewComponentFitStrategy() *ComponentFitStrategy {
	return &ComponentFitStrategy{}
}

// Select implements OverloadStrategy.
func (s *ComponentFitStrategy) Select(fn glslplugin.Function, argTypes []string) (glslplugin.Overload, bool) {
	if len(fn.Overloads) == 0 {
		return glslplugin.Overload{}, false
	}

	total := 0
	for _, t := range argTypes {
		total += builtin.ComponentCount(t)
	}

	for _, overload := range fn.Overloads {
		if len(overload.ParamTypes) == 1 && builtin.ComponentCount(overload.ParamTypes[0]) == total {
			return overload, true
		}
	}

	arityMatch := -1
	for i, overload := range fn.Overloads {
		if len(overload.ParamTypes) != len(argTypes) || len(overload.ParamTypes) < 2 {
			continue
		}
		if typesEqual(overload.ParamTypes, argTypes) {
			return overload, true
		}
		if arityMatch < 0 {
			arityMatch = i
		}
	}
	if arityMatch >= 0 {
		return fn.Overloads[arityMatch], true
	}

	best := -1
	bestDiff := 0
	for i, overload := range fn.Overloads {
		if len(overload.ParamTypes) != 1 {
			continue
		}
		diff := builtin.ComponentCount(overload.ParamTypes[0]) - total
		if diff < 0 {
			diff = -diff
		}
		if best < 0 || diff < bestDiff {
			best = i
			bestDiff = diff
		}
	}
	if best >= 0 {
		return fn.Overloads[best], true
	}

	return fn.Overloads[0], true
}

func typesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
