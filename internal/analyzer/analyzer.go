// Package analyzer discovers every function a shader request depends on. It
// walks the raw argument text recursively, extracting nested calls and
// classifying each discovered name as a GLSL builtin or a plugin function. An
// unknown name anywhere in the chain aborts the whole analysis.
package analyzer

import (
	"sort"
	"strings"

	"github.com/fragworks/fragforge/internal/builtin"
	"github.com/fragworks/fragforge/internal/logger"
	forgeerrors "github.com/fragworks/fragforge/pkg/errors"
	"github.com/fragworks/fragforge/pkg/glslplugin"
)

// FunctionSource is the plugin-registry surface the analyzer consumes.
type FunctionSource interface {
	FindFunction(name string) (glslplugin.Function, bool)
	FunctionsByPlugin() map[string][]string
}

// Call records one discovered call site in the argument text.
type Call struct {
	Name      string
	Arguments []string
	Raw       string
	Start     int
	End       int
}

// Result is the full dependency picture for one request.
type Result struct {
	MainFunction string

	// Arguments is the top-level argument list, split at depth-zero commas.
	Arguments []string

	// PluginFunctions maps every plugin function the request needs to the
	// alias of the plugin that owns it. The main function is included when it
	// is plugin-provided.
	PluginFunctions map[string]string

	// BuiltinFunctions lists the referenced GLSL builtin names, sorted.
	BuiltinFunctions []string

	// Calls maps each discovered function name to its first call site.
	Calls map[string]Call
}

// Analyzer classifies function names against the builtin tables and a plugin
// registry.
type Analyzer struct {
	plugins FunctionSource
	log     *logger.Logger

	builtinSet map[string]struct{}
}

// New creates an Analyzer backed by the given plugin source.
func New(plugins FunctionSource, log *logger.Logger) *Analyzer {
	return &Analyzer{
		plugins:    plugins,
		log:        log,
		builtinSet: make(map[string]struct{}),
	}
}

// Analyze resolves the main function and every function referenced in the
// raw argument text. It returns a FunctionNotFoundError naming the first
// function that is neither a builtin nor provided by a loaded plugin.
func (a *Analyzer) Analyze(mainFunction, rawArguments string) (*Result, error) {
	result := &Result{
		MainFunction:    mainFunction,
		Arguments:       SplitArguments(rawArguments),
		PluginFunctions: make(map[string]string),
		Calls:           make(map[string]Call),
	}
	seenBuiltins := make(map[string]struct{})

	if err := a.classify(mainFunction, result, seenBuiltins); err != nil {
		return nil, err
	}
	for _, arg := range result.Arguments {
		if err := a.walk(arg, result, seenBuiltins); err != nil {
			return nil, err
		}
	}

	result.BuiltinFunctions = make([]string, 0, len(seenBuiltins))
	for name := range seenBuiltins {
		result.BuiltinFunctions = append(result.BuiltinFunctions, name)
	}
	sort.Strings(result.BuiltinFunctions)
	return result, nil
}

func (a *Analyzer) walk(text string, result *Result, seenBuiltins map[string]struct{}) error {
	for _, call := range a.extractCalls(text) {
		if err := a.classify(call.Name, result, seenBuiltins); err != nil {
			return err
		}
		if _, seen := result.Calls[call.Name]; !seen {
			result.Calls[call.Name] = call
		}
		for _, arg := range call.Arguments {
			if err := a.walk(arg, result, seenBuiltins); err != nil {
				return err
			}
		}
	}
	return nil
}

func (a *Analyzer) classify(name string, result *Result, seenBuiltins map[string]struct{}) error {
	if builtin.IsBuiltinName(name) {
		seenBuiltins[name] = struct{}{}
		return nil
	}
	if _, ok := result.PluginFunctions[name]; ok {
		return nil
	}
	if a.plugins != nil {
		if _, ok := a.plugins.FindFunction(name); ok {
			result.PluginFunctions[name] = a.owningPlugin(name)
			return nil
		}
	}
	return forgeerrors.NewFunctionNotFoundError(name)
}

// owningPlugin reverse-scans the per-plugin function listing for the alias
// providing name. Aliases are visited in sorted order so the answer is stable
// when two plugins export the same name.
func (a *Analyzer) owningPlugin(name string) string {
	byPlugin := a.plugins.FunctionsByPlugin()
	aliases := make([]string, 0, len(byPlugin))
	for alias := range byPlugin {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	for _, alias := range aliases {
		for _, fn := range byPlugin[alias] {
			if fn == name {
				return alias
			}
		}
	}
	return ""
}

// extractCalls scans text for identifier( patterns and returns each call
// with its matching-parenthesis span. A call whose parentheses never close is
// skipped with a warning; its arguments go unreported.
func (a *Analyzer) extractCalls(text string) []Call {
	var calls []Call
	i := 0
	for i < len(text) {
		if !isIdentStart(text[i]) {
			i++
			continue
		}
		start := i
		for i < len(text) && isIdentPart(text[i]) {
			i++
		}
		if i >= len(text) || text[i] != '(' {
			continue
		}
		name := text[start:i]
		closing := matchingParen(text, i)
		if closing < 0 {
			a.warnUnmatched(name, text)
			i++
			continue
		}
		raw := text[i+1 : closing]
		calls = append(calls, Call{
			Name:      name,
			Arguments: SplitArguments(raw),
			Raw:       raw,
			Start:     start,
			End:       closing + 1,
		})
		// Continue inside the call body so nested calls at this level are
		// still discovered by the caller's recursion over Arguments.
		i = closing + 1
	}
	return calls
}

// SplitArguments splits comma-separated argument text at depth-zero commas
// only, trimming surrounding whitespace from each piece.
func SplitArguments(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var args []string
	depth := 0
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				args = append(args, strings.TrimSpace(text[start:i]))
				start = i + 1
			}
		}
	}
	args = append(args, strings.TrimSpace(text[start:]))
	return args
}

func matchingParen(text string, open int) int {
	depth := 0
	for i := open; i < len(text); i++ {
		switch text[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func (a *Analyzer) warnUnmatched(function, expression string) {
	if a.log == nil {
		return
	}
	err := &forgeerrors.UnmatchedParenthesesError{Function: function, Expression: expression}
	a.log.Warn(err.Error())
}
