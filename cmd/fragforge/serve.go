package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fragworks/fragforge/internal/builtin"
	"github.com/fragworks/fragforge/internal/server"
	"github.com/fragworks/fragforge/internal/shader"
)

func newServeCmd(rootFlags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the command transport over websockets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, rootFlags)
		},
	}

	return cmd
}

func runServe(cmd *cobra.Command, rootFlags *rootFlags) error {
	app, err := loadApp(rootFlags)
	if err != nil {
		return err
	}
	defer app.close()

	manager := shader.NewManager(builtin.NewRegistry(), app.registry, previewCompiler{}, app.log)
	dispatcher := server.NewDispatcher(manager, app.log)
	srv := server.NewServer(app.cfg.ListenAddr(), dispatcher, app.log)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
