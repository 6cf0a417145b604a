package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/fragworks/fragforge/pkg/glslplugin"
)

var (
	pluginHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("99"))

	functionNameStyle = lipgloss.NewStyle().
				PaddingLeft(2)

	signatureStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))
)

type functionsOptions struct {
	category   string
	returnType string
}

func newFunctionsCmd(rootFlags *rootFlags) *cobra.Command {
	opts := &functionsOptions{}

	cmd := &cobra.Command{
		Use:   "functions",
		Short: "List the functions exposed by the configured plugins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFunctions(cmd, rootFlags, opts)
		},
	}

	cmd.Flags().StringVar(&opts.category, "category", "", "Only show functions in this category")
	cmd.Flags().StringVar(&opts.returnType, "return-type", "", "Only show functions with an overload returning this type")

	return cmd
}

func runFunctions(cmd *cobra.Command, rootFlags *rootFlags, opts *functionsOptions) error {
	app, err := loadApp(rootFlags)
	if err != nil {
		return err
	}
	defer app.close()

	byPlugin := app.registry.FunctionsByPlugin()
	aliases := make([]string, 0, len(byPlugin))
	for alias := range byPlugin {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)

	out := cmd.OutOrStdout()
	for _, alias := range aliases {
		shown := 0
		var lines []string
		for _, name := range byPlugin[alias] {
			fn, ok := app.registry.FindFunctionIn(alias, name)
			if !ok || !matches(fn, opts) {
				continue
			}
			shown++
			lines = append(lines, functionNameStyle.Render(name)+" "+signatureStyle.Render(signatures(fn)))
		}
		if shown == 0 {
			continue
		}
		fmt.Fprintln(out, pluginHeaderStyle.Render(alias))
		for _, line := range lines {
			fmt.Fprintln(out, line)
		}
	}
	return nil
}

func matches(fn glslplugin.Function, opts *functionsOptions) bool {
	if opts.category != "" && fn.Category != opts.category {
		return false
	}
	if opts.returnType == "" {
		return true
	}
	for _, overload := range fn.Overloads {
		if overload.ReturnType == opts.returnType {
			return true
		}
	}
	return false
}

func signatures(fn glslplugin.Function) string {
	parts := make([]string, len(fn.Overloads))
	for i, overload := range fn.Overloads {
		parts[i] = fmt.Sprintf("%s(%s)", overload.ReturnType, strings.Join(overload.ParamTypes, ", "))
	}
	return strings.Join(parts, " | ")
}
