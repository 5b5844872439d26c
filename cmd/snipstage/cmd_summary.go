package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/youruser/snipstage/internal/conflict"
	"github.com/youruser/snipstage/internal/diff"
	"github.com/youruser/snipstage/internal/workspace"
)

// fileSummary counts the conflict blocks in one file. Lines are 1-indexed.
type fileSummary struct {
	Path      string `json:"path" yaml:"path"`
	Conflicts int    `json:"conflicts" yaml:"conflicts"`
	Lines     []int  `json:"lines" yaml:"lines"`
}

type summaryReport struct {
	Root      string        `json:"root" yaml:"root"`
	Files     []fileSummary `json:"files" yaml:"files"`
	Conflicts int           `json:"conflicts" yaml:"conflicts"`
}

func newSummaryCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "summary [path...]",
		Short: "Report conflict counts per file as JSON or YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			if format == "" {
				format = a.cfg.SummaryFormat
			}
			if format != "json" && format != "yaml" {
				return fmt.Errorf("unknown format %q", format)
			}
			ws, err := a.workspace()
			if err != nil {
				return err
			}
			rep, err := summarize(cmd.Context(), ws, args)
			if err != nil {
				return err
			}
			return writeSummary(cmd.OutOrStdout(), rep, format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "json or yaml (default from config)")
	return cmd
}

// summarize scans paths, or every candidate file when none are given,
// concurrently. Files without conflicts are left out of the report.
func summarize(ctx context.Context, ws *workspace.Workspace, args []string) (*summaryReport, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	var paths []string
	for _, a := range args {
		name, err := ws.Name(a)
		if err != nil {
			return nil, err
		}
		paths = append(paths, name)
	}
	if len(args) == 0 {
		paths = ws.Candidates()
	}
	results := make([]fileSummary, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, name := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(filepath.Join(ws.Root(), filepath.FromSlash(name)))
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			positions := conflict.Scan(diff.SplitLines(string(data)))
			fs := fileSummary{Path: name, Conflicts: len(positions)}
			for _, p := range positions {
				fs.Lines = append(fs.Lines, p.Start()+1)
			}
			results[i] = fs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rep := &summaryReport{Root: ws.Root(), Files: []fileSummary{}}
	for _, fs := range results {
		if fs.Conflicts == 0 {
			continue
		}
		rep.Files = append(rep.Files, fs)
		rep.Conflicts += fs.Conflicts
	}
	return rep, nil
}

func writeSummary(w io.Writer, rep *summaryReport, format string) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rep); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}
