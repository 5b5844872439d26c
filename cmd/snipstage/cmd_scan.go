package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/youruser/snipstage/internal/conflict"
	"github.com/youruser/snipstage/internal/workspace"
)

func newScanCmd(a *app) *cobra.Command {
	var (
		asJSON bool
		check  bool
	)
	cmd := &cobra.Command{
		Use:   "scan [path...]",
		Short: "List conflict blocks in quickfix format",
		Long: `Scans the given files, or every file under the project root, and prints
one "path:line: marker" entry per conflict block.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := a.workspace()
			if err != nil {
				return err
			}
			entries, err := scanFiles(ws, args)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				if entries == nil {
					entries = []conflict.QuickfixEntry{}
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(entries); err != nil {
					return err
				}
			} else {
				for _, e := range entries {
					fmt.Fprintf(out, "%s:%d: %s\n", e.Filepath, e.Line, e.Text)
				}
			}
			if check && len(entries) > 0 {
				return fmt.Errorf("%d unresolved conflict%s", len(entries), plural(len(entries)))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print entries as JSON")
	cmd.Flags().BoolVar(&check, "check", false, "exit non-zero when any conflict is found")
	return cmd
}

func scanFiles(ws *workspace.Workspace, paths []string) ([]conflict.QuickfixEntry, error) {
	if len(paths) == 0 {
		paths = ws.Candidates()
	}
	reg := conflict.NewRegistry()
	for _, p := range paths {
		b, err := ws.Buffer(p)
		if err != nil {
			return nil, err
		}
		reg.Watch(b)
	}
	return reg.Quickfix(), nil
}
