package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/youruser/snipstage/internal/conflict"
	"github.com/youruser/snipstage/internal/watch"
)

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Report conflict changes as files under the root are edited",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := a.workspace()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			reg := conflict.NewRegistry()
			for _, name := range ws.Candidates() {
				b, err := ws.Buffer(name)
				if err != nil {
					continue
				}
				if n := len(reg.Watch(b)); n > 0 {
					fmt.Fprintf(out, "%s: %d conflict%s\n", name, n, plural(n))
				}
			}
			reg.OnStateChange(func(name string, has bool) {
				if has {
					fmt.Fprintf(out, "%s: %d conflict%s\n", name, reg.Count(name), plural(reg.Count(name)))
				} else {
					fmt.Fprintf(out, "%s: resolved\n", name)
				}
			})

			w, err := watch.New(ws.Root(), reg, ws)
			if err != nil {
				return err
			}
			w.SetDebounce(a.cfg.DebounceInterval())

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			if err := w.Start(ctx); err != nil {
				return err
			}
			<-ctx.Done()
			w.Stop()
			return nil
		},
	}
}
