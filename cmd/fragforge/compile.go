package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fragworks/fragforge/internal/builtin"
	"github.com/fragworks/fragforge/internal/shader"
)

// previewCompiler stands in for the host's GPU compiler: it accepts every
// program so the pipeline can be exercised without a GL context.
type previewCompiler struct{}

type previewProgram struct{}

func (previewProgram) Release() {}

func (previewCompiler) Compile(vertexSource, fragmentSource, includeDir string) (shader.Program, error) {
	return previewProgram{}, nil
}

type compileOptions struct {
	outDir string
}

func newCompileCmd(rootFlags *rootFlags) *cobra.Command {
	opts := &compileOptions{}

	cmd := &cobra.Command{
		Use:   "compile FUNCTION [ARGUMENTS]",
		Short: "Generate the shader for a function call and print it",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd, rootFlags, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.outDir, "out", "o", "", "Write vertex and fragment sources into this directory")

	return cmd
}

func runCompile(cmd *cobra.Command, rootFlags *rootFlags, opts *compileOptions, args []string) error {
	app, err := loadApp(rootFlags)
	if err != nil {
		return err
	}
	defer app.close()

	rawArguments := ""
	if len(args) == 2 {
		rawArguments = args[1]
	}

	manager := shader.NewManager(builtin.NewRegistry(), app.registry, previewCompiler{}, app.log)
	artifact := manager.CreateShader(args[0], rawArguments)
	if artifact.Failed() {
		return errors.New(artifact.Message)
	}

	if opts.outDir != "" {
		if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(opts.outDir, "shader.vert"), []byte(artifact.Source.Vertex), 0o644); err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(opts.outDir, "shader.frag"), []byte(artifact.Source.Fragment), 0o644); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s and %s\n",
			filepath.Join(opts.outDir, "shader.vert"), filepath.Join(opts.outDir, "shader.frag"))
		return nil
	}

	fmt.Fprint(cmd.OutOrStdout(), artifact.Source.Fragment)
	return nil
}
