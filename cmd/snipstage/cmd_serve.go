package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/youruser/snipstage/internal/logging"
	"github.com/youruser/snipstage/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Speak the editor protocol on stdin and stdout",
		Long: `Reads one JSON request per line from stdin and writes one JSON response
per line to stdout. The project root is attached when --root is given
explicitly; otherwise the editor sends it with an "init" request.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			srv := server.New(cmd.OutOrStdout(), a.cfg, versionString())
			if cmd.Flags().Changed("root") {
				ws, err := a.workspace()
				if err != nil {
					return err
				}
				srv.SetWorkspace(ws)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			logging.Get().Info("serve: started")
			err := srv.Serve(ctx, cmd.InOrStdin())
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}
