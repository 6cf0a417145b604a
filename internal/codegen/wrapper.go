package codegen

import (
	"fmt"
	"strings"

	"github.com/fragworks/fragforge/internal/builtin"
	"github.com/fragworks/fragforge/pkg/glslplugin"
)

// synthesizeWrapper builds a GLSL function that accepts the caller's raw
// argument types and repacks them into the target overload's parameter list.
// Single-parameter targets get a vector constructor; multi-parameter targets
// get explicit slot-by-slot mapping with zero padding for missing slots.
func synthesizeWrapper(name string, function string, overload glslplugin.Overload, argTypes []string) string {
	params := make([]string, len(argTypes))
	names := make([]string, len(argTypes))
	for i, t := range argTypes {
		names[i] = fmt.Sprintf("a%d", i)
		params[i] = fmt.Sprintf("%s a%d", t, i)
	}

	var body string
	if len(overload.ParamTypes) == 1 {
		body = packSingle(function, overload.ParamTypes[0], names, argTypes)
	} else {
		body = packSlots(function, overload.ParamTypes, names, argTypes)
	}

	return fmt.Sprintf("%s %s(%s) {\n%s}\n",
		overload.ReturnType, name, strings.Join(params, ", "), body)
}

// packSingle combines every caller argument into the target's one parameter.
func packSingle(function, targetType string, names, argTypes []string) string {
	need := builtin.ComponentCount(targetType)
	total := 0
	for _, t := range argTypes {
		total += builtin.ComponentCount(t)
	}

	switch {
	case total == need:
		return fmt.Sprintf("    return %s(%s(%s));\n",
			function, targetType, strings.Join(names, ", "))
	case total < need:
		padded := append([]string{}, names...)
		for i := total; i < need; i++ {
			padded = append(padded, "0.0")
		}
		return fmt.Sprintf("    return %s(%s(%s));\n",
			function, targetType, strings.Join(padded, ", "))
	default:
		// More components than the target takes: pack everything into one
		// vector and swizzle down to size.
		packedType := builtin.TypeForComponents(total)
		if total > 4 {
			return fmt.Sprintf("    return %s(%s);\n",
				function, convertExpr(names[0], argTypes[0], targetType))
		}
		return fmt.Sprintf("    %s packed = %s(%s);\n    return %s(packed.%s);\n",
			packedType, packedType, strings.Join(names, ", "), function, "xyzw"[:need])
	}
}

// packSlots maps caller arguments onto the target parameter list in order,
// converting each to its slot's type and zero-filling slots with no caller
// argument.
func packSlots(function string, paramTypes []string, names, argTypes []string) string {
	slots := make([]string, len(paramTypes))
	for i, paramType := range paramTypes {
		if i < len(names) {
			slots[i] = convertExpr(names[i], argTypes[i], paramType)
		} else {
			slots[i] = zeroValue(paramType)
		}
	}
	return fmt.Sprintf("    return %s(%s);\n", function, strings.Join(slots, ", "))
}

// convertExpr renders expr (of GLSL type from) as type to.
func convertExpr(expr, from, to string) string {
	if from == to {
		return expr
	}
	fromN := builtin.ComponentCount(from)
	toN := builtin.ComponentCount(to)
	switch {
	case toN == 1:
		if fromN == 1 {
			return expr
		}
		return expr + ".x"
	case fromN == 1:
		return fmt.Sprintf("%s(%s)", to, expr)
	case fromN > toN:
		return fmt.Sprintf("%s.%s", expr, "xyzw"[:toN])
	default:
		zeros := strings.TrimSuffix(strings.Repeat("0.0, ", toN-fromN), ", ")
		return fmt.Sprintf("%s(%s, %s)", to, expr, zeros)
	}
}

func zeroValue(glslType string) string {
	if builtin.ComponentCount(glslType) == 1 {
		return "0.0"
	}
	return fmt.Sprintf("%s(0.0)", glslType)
}
