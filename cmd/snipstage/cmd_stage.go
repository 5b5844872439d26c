package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/youruser/snipstage/internal/diff"
	"github.com/youruser/snipstage/internal/stage"
	"github.com/youruser/snipstage/internal/workspace"
)

type stageFlags struct {
	dryRun      bool
	noMinimize  bool
	defaultFile string
	candidates  []string
}

func newStageCmd(a *app) *cobra.Command {
	f := &stageFlags{}
	cmd := &cobra.Command{
		Use:   "stage [response-file]",
		Short: "Stage the edits in a response as conflict blocks",
		Long: `Reads an assistant response from the given file, or stdin when the
argument is missing or "-", and writes each proposed edit into its target
file as a conflict block between the current and proposed text.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readResponse(cmd, args)
			if err != nil {
				return err
			}
			ws, err := a.workspace()
			if err != nil {
				return err
			}
			if len(f.candidates) > 0 {
				ws.SetCandidates(f.candidates)
			}
			opts := stage.PipelineOptions{
				Options: stage.Options{
					HeadLabel:    a.cfg.HeadLabel,
					SnippetLabel: a.cfg.SnippetLabel,
				},
				Minimize:        *a.cfg.Minimize && !f.noMinimize,
				DefaultFilepath: f.defaultFile,
			}

			run := func() error { return runStage(cmd.OutOrStdout(), cmd.ErrOrStderr(), ws, text, opts, f.dryRun) }
			if f.dryRun {
				return run()
			}
			return a.locked(ws, run)
		},
	}
	cmd.Flags().BoolVarP(&f.dryRun, "dry-run", "n", false, "print the changes without writing files")
	cmd.Flags().BoolVar(&f.noMinimize, "no-minimize", false, "stage snippets as proposed, unchanged lines included")
	cmd.Flags().StringVar(&f.defaultFile, "file", "", "target for edits that name no file")
	cmd.Flags().StringSliceVar(&f.candidates, "candidates", nil, "files tried for search blocks without a file path")
	return cmd
}

func readResponse(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		return string(data), err
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func runStage(out, errOut io.Writer, ws *workspace.Workspace, text string, opts stage.PipelineOptions, dryRun bool) error {
	rep := stage.Apply(text, ws, opts)

	for _, fr := range rep.Files {
		status := "staged"
		if fr.Created {
			status = "created"
		}
		fmt.Fprintf(out, "%s %s (%d block%s)\n", status, fr.Path, len(fr.Blocks), plural(len(fr.Blocks)))
		if dryRun {
			printHunks(out, ws, fr.Path)
		}
	}
	for _, w := range rep.Extraction.Warnings {
		fmt.Fprintf(errOut, "warning: %s\n", w)
	}

	if !dryRun {
		for _, fr := range rep.Files {
			if err := ws.Save(fr.Path); err != nil {
				return err
			}
		}
	}

	if len(rep.Errors) == 0 {
		if len(rep.Files) == 0 {
			fmt.Fprintln(out, "no changes")
		}
		return nil
	}
	paths := make([]string, 0, len(rep.Errors))
	for path := range rep.Errors {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		fmt.Fprintf(errOut, "error: %v\n", rep.Errors[path])
	}
	return fmt.Errorf("%d file%s not staged", len(paths), plural(len(paths)))
}

// printHunks shows the staged buffer against the file on disk.
func printHunks(out io.Writer, ws *workspace.Workspace, name string) {
	b, err := ws.Buffer(name)
	if err != nil {
		return
	}
	var before []string
	if data, err := os.ReadFile(filepath.Join(ws.Root(), filepath.FromSlash(name))); err == nil {
		before = diff.SplitLines(string(data))
	}
	after := b.Lines()
	for _, h := range diff.LineHunks(before, after) {
		fmt.Fprintf(out, "@@ -%d,%d +%d,%d @@\n", h.OldStart, h.OldCount, h.NewStart, h.NewCount)
		for _, line := range diff.Slice(after, h.NewStart-1, h.NewStart-1+h.NewCount) {
			fmt.Fprintf(out, "+%s\n", line)
		}
	}
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
