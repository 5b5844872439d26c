// Command snipstage stages code edits proposed in assistant responses as
// conflict blocks and resolves them, either from the command line or as a
// line-delimited JSON server for an editor plugin.
package main

import (
	"fmt"
	"os"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/youruser/snipstage/internal/config"
	"github.com/youruser/snipstage/internal/logging"
	"github.com/youruser/snipstage/internal/workspace"
)

// version is overridden with -ldflags "-X main.version=...".
var version = "dev"

// buildCommit is set via -ldflags or falls back to VCS info from debug.ReadBuildInfo.
var buildCommit string

func getBuildCommit() string {
	if buildCommit != "" {
		return buildCommit
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, setting := range info.Settings {
		if setting.Key == "vcs.revision" && len(setting.Value) >= 7 {
			return setting.Value[:7]
		}
	}
	return ""
}

func versionString() string {
	v := strings.TrimSpace(version)
	if commit := getBuildCommit(); commit != "" {
		return v + " (" + commit + ")"
	}
	return v
}

// app carries the global flags and the loaded config into subcommands.
type app struct {
	configPath string
	root       string
	verbose    bool

	cfg *config.Config
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if a.verbose {
		logging.SetDefault(logging.New(cmd.ErrOrStderr(), zapcore.DebugLevel))
	}
	var err error
	if a.configPath != "" {
		a.cfg, err = config.LoadFrom(a.configPath)
	} else {
		a.cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	logging.Get().Debug("snipstage %s, root %s", versionString(), a.root)
	return nil
}

func (a *app) workspace() (*workspace.Workspace, error) {
	return workspace.New(a.root)
}

// locked runs fn while holding the project lock.
func (a *app) locked(ws *workspace.Workspace, fn func() error) error {
	if err := workspace.AcquireLock(ws.Root()); err != nil {
		return err
	}
	defer func() {
		if err := workspace.ReleaseLock(ws.Root()); err != nil {
			logging.Get().Error("release lock: %v", err)
		}
	}()
	return fn()
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "snipstage",
		Short:         "Stage assistant code edits as conflict blocks",
		Long:          "snipstage extracts file edits from assistant responses, stages them as git-style conflict blocks and resolves them.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       versionString(),

		PersistentPreRunE: a.setup,
	}
	root.SetVersionTemplate("snipstage {{.Version}}\n")

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default ~/.config/snipstage/config.toml)")
	flags.StringVarP(&a.root, "root", "C", ".", "project root")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(
		newServeCmd(a),
		newStageCmd(a),
		newScanCmd(a),
		newResolveCmd(a),
		newSummaryCmd(a),
		newWatchCmd(a),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "snipstage %s\n", versionString())
		},
	}
}

func main() {
	err := newRootCmd().Execute()
	logging.Get().Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "snipstage: %v\n", err)
		os.Exit(1)
	}
}
