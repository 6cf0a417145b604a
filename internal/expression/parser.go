// Package expression turns one raw shader argument string into the
// information code generation needs: the GLSL text to emit, the inferred
// type, the free variables it depends on, and whether it folds to a
// constant. The arithmetic itself is handled by the expr evaluator; its
// failures are converted to explicit results at this boundary and never
// propagate further.
package expression

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	exprlang "github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/file"
	"github.com/expr-lang/expr/parser"

	"github.com/fragworks/fragforge/internal/builtin"
	"github.com/fragworks/fragforge/internal/logger"
	forgeerrors "github.com/fragworks/fragforge/pkg/errors"
)

// Info is the parsed form of one argument string.
type Info struct {
	Original      string
	GLSL          string
	Type          string
	Dependencies  []string
	IsSimpleVar   bool
	IsConstant    bool
	ConstantValue float64
}

// FormatConstant renders the folded value as a GLSL float literal.
func (i Info) FormatConstant() string {
	return strconv.FormatFloat(i.ConstantValue, 'f', 6, 64)
}

var (
	simpleVarPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*(\.[xyzwrgba]+)?$`)
	identPattern     = regexp.MustCompile(`\b[a-zA-Z_][a-zA-Z0-9_]*(?:\.[a-zA-Z0-9_]+)?\b`)
)

// Functions available to constant folding. Where expr ships a builtin of
// the same name the builtin wins; these only fill the gaps.
var evalEnv = map[string]any{
	"sin":     math.Sin,
	"cos":     math.Cos,
	"tan":     math.Tan,
	"asin":    math.Asin,
	"acos":    math.Acos,
	"atan":    math.Atan,
	"sqrt":    math.Sqrt,
	"pow":     math.Pow,
	"exp":     math.Exp,
	"log":     math.Log,
	"exp2":    math.Exp2,
	"log2":    math.Log2,
	"mod":     math.Mod,
	"min":     math.Min,
	"max":     math.Max,
	"floor":   math.Floor,
	"ceil":    math.Ceil,
	"fract":   func(x float64) float64 { return x - math.Floor(x) },
	"radians": func(deg float64) float64 { return deg * math.Pi / 180 },
	"degrees": func(rad float64) float64 { return rad * 180 / math.Pi },
	"pi":      math.Pi,
}

// Parser resolves simple-variable types against the builtin registry and
// delegates everything else to the embedded evaluator.
type Parser struct {
	builtins *builtin.Registry
	log      *logger.Logger
}

// NewParser creates a Parser bound to the given builtin registry.
func NewParser(builtins *builtin.Registry, log *logger.Logger) *Parser {
	return &Parser{builtins: builtins, log: log}
}

// Parse analyzes one argument string. It always returns a usable Info: on an
// evaluator failure the returned error describes it and Info is the fallback
// record (float type, no dependencies, text passed through as GLSL).
func (p *Parser) Parse(text string) (Info, error) {
	info := Info{Original: text}

	if IsSimpleVariable(text) {
		info.GLSL = text
		info.Dependencies = []string{text}
		info.IsSimpleVar = true
		info.Type = p.simpleVariableType(text)
		return info, nil
	}

	deps, err := p.extractDependencies(text)
	if err != nil {
		p.logFailure(text, err)
		return fallback(text), err
	}

	info.GLSL = text
	info.Dependencies = deps
	info.Type = p.inferType(deps)

	if len(deps) == 0 {
		value, evalErr := evaluate(text)
		if evalErr != nil {
			p.logFailure(text, evalErr)
			return fallback(text), evalErr
		}
		info.IsConstant = true
		info.ConstantValue = value
	}

	return info, nil
}

// IsSimpleVariable reports whether text matches the "identifier with an
// optional single swizzle suffix" grammar.
func IsSimpleVariable(text string) bool {
	return simpleVarPattern.MatchString(text)
}

func (p *Parser) simpleVariableType(text string) string {
	base := builtin.ExtractBase(text)
	info, ok := p.builtins.Variable(base)
	if !ok {
		// User-defined uniforms are floats.
		return "float"
	}
	if builtin.HasSwizzle(text) {
		return builtin.TypeForComponents(len(builtin.ExtractSwizzle(text)))
	}
	return info.GLSLType
}

// extractDependencies returns the sorted set of free variable names in text.
// Pure arithmetic goes through the evaluator's AST; text containing '.'
// (GLSL member syntax or float literals the evaluator may mangle) is scanned
// token-by-token instead.
func (p *Parser) extractDependencies(text string) ([]string, error) {
	if strings.ContainsRune(text, '.') {
		return scanIdentifiers(text), nil
	}

	tree, err := parser.Parse(text)
	if err != nil {
		return nil, wrapEvalError(text, err)
	}

	set := make(map[string]struct{})
	collectIdentifiers(tree.Node, set)
	return sortedKeys(set), nil
}

// collectIdentifiers walks the evaluator AST gathering identifier names.
// Call callees are function names, not variables, so only their arguments
// are descended into.
func collectIdentifiers(node ast.Node, out map[string]struct{}) {
	switch n := node.(type) {
	case *ast.IdentifierNode:
		out[n.Value] = struct{}{}
	case *ast.UnaryNode:
		collectIdentifiers(n.Node, out)
	case *ast.BinaryNode:
		collectIdentifiers(n.Left, out)
		collectIdentifiers(n.Right, out)
	case *ast.ConditionalNode:
		collectIdentifiers(n.Cond, out)
		collectIdentifiers(n.Exp1, out)
		collectIdentifiers(n.Exp2, out)
	case *ast.CallNode:
		for _, arg := range n.Arguments {
			collectIdentifiers(arg, out)
		}
	case *ast.BuiltinNode:
		for _, arg := range n.Arguments {
			collectIdentifiers(arg, out)
		}
	case *ast.MemberNode:
		collectIdentifiers(n.Node, out)
	}
}

// scanIdentifiers finds identifier-like tokens, skipping numeric literals
// and any identifier immediately followed by '(' (a call, not a variable).
func scanIdentifiers(text string) []string {
	set := make(map[string]struct{})
	for _, loc := range identPattern.FindAllStringIndex(text, -1) {
		token := text[loc[0]:loc[1]]
		if token[0] >= '0' && token[0] <= '9' {
			continue
		}
		if isCallSite(text, loc[1]) {
			continue
		}
		set[token] = struct{}{}
	}
	return sortedKeys(set)
}

func isCallSite(text string, end int) bool {
	for i := end; i < len(text); i++ {
		switch text[i] {
		case ' ', '\t':
			continue
		case '(':
			return true
		default:
			return false
		}
	}
	return false
}

func (p *Parser) inferType(deps []string) string {
	for _, dep := range deps {
		base := builtin.ExtractBase(dep)
		info, ok := p.builtins.Variable(base)
		if !ok || info.GLSLType == "float" {
			continue
		}
		// A bare vector dependency keeps its vector type; any arithmetic on
		// components collapses to float.
		if dep == base {
			return info.GLSLType
		}
	}
	return "float"
}

func evaluate(text string) (float64, error) {
	program, err := exprlang.Compile(text)
	if err != nil {
		return 0, wrapEvalError(text, err)
	}
	result, err := exprlang.Run(program, evalEnv)
	if err != nil {
		return 0, wrapEvalError(text, err)
	}
	value, ok := toFloat(result)
	if !ok {
		return 0, wrapEvalError(text, fmt.Errorf("non-numeric result %T", result))
	}
	return value, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	default:
		return 0, false
	}
}

func wrapEvalError(text string, err error) error {
	position := 0
	var fileErr *file.Error
	if errors.As(err, &fileErr) {
		position = fileErr.Column
	}
	return &forgeerrors.ExpressionError{Expression: text, Position: position, Err: err}
}

func fallback(text string) Info {
	return Info{Original: text, GLSL: text, Type: "float"}
}

func (p *Parser) logFailure(text string, err error) {
	if p.log == nil {
		return
	}
	p.log.WithFields(map[string]any{"expression": text}).Error(err, "expression parse failed, using fallback")
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
