package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/youruser/snipstage/internal/conflict"
	"github.com/youruser/snipstage/internal/workspace"
)

type resolveFlags struct {
	side      string
	line      int
	lineRange string
}

func newResolveCmd(a *app) *cobra.Command {
	f := &resolveFlags{}
	cmd := &cobra.Command{
		Use:   "resolve <path>",
		Short: "Resolve conflict blocks in a file",
		Long: `Resolves conflict blocks in path with the chosen side: ours, theirs,
both, none or base. With --line only the block holding that line is
resolved, with --range every block inside the range; otherwise all blocks.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			side, ok := conflict.ParseSide(f.side)
			if !ok || side == conflict.SideCursor {
				return fmt.Errorf("unknown side %q", f.side)
			}
			ws, err := a.workspace()
			if err != nil {
				return err
			}
			return a.locked(ws, func() error {
				n, remaining, err := runResolve(ws, args[0], side, f)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "resolved %d block%s, %d remaining\n", n, plural(n), remaining)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&f.side, "side", "s", "theirs", "side to keep")
	cmd.Flags().IntVarP(&f.line, "line", "l", 0, "1-indexed line inside the block to resolve")
	cmd.Flags().StringVarP(&f.lineRange, "range", "r", "", "1-indexed inclusive line range, e.g. 10-40")
	cmd.MarkFlagsMutuallyExclusive("line", "range")
	return cmd
}

func runResolve(ws *workspace.Workspace, path string, side conflict.Side, f *resolveFlags) (resolved, remaining int, err error) {
	buf, err := ws.Buffer(path)
	if err != nil {
		return 0, 0, err
	}
	reg := conflict.NewRegistry()
	res := conflict.NewResolver(reg)
	reg.Watch(buf)

	switch {
	case f.line > 0:
		changed, err := res.ChooseAtCursor(buf, f.line-1, side)
		if err != nil {
			return 0, 0, fmt.Errorf("%s:%d: %w", buf.Name(), f.line, err)
		}
		if changed {
			resolved = 1
		}
	case f.lineRange != "":
		start, end, err := parseLineRange(f.lineRange)
		if err != nil {
			return 0, 0, err
		}
		resolved = res.ChooseRange(buf, start-1, end-1, side)
	default:
		resolved = res.ChooseAll(buf, side)
	}

	if resolved > 0 {
		if err := ws.Save(buf.Name()); err != nil {
			return 0, 0, err
		}
	}
	return resolved, reg.Count(buf.Name()), nil
}

func parseLineRange(s string) (int, int, error) {
	from, to, ok := strings.Cut(s, "-")
	if !ok {
		return 0, 0, fmt.Errorf("invalid range %q: want START-END", s)
	}
	start, err1 := strconv.Atoi(strings.TrimSpace(from))
	end, err2 := strconv.Atoi(strings.TrimSpace(to))
	if err1 != nil || err2 != nil || start < 1 || end < start {
		return 0, 0, fmt.Errorf("invalid range %q: want START-END", s)
	}
	return start, end, nil
}
