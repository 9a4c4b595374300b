package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/iVampireSP/typefinder"
	"github.com/iVampireSP/typefinder/internal/config"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"

	verbose bool
	cfgFile string
	dir     string

	// cfg and logger are populated before any subcommand runs.
	cfg    *config.Config
	logger *log.Logger

	rootCmd = &cobra.Command{
		Use:   "typefinder",
		Short: "Discover implementations of an interface across a Go module",
		Long: TitleStyle.Render("typefinder") + SubtitleStyle.Render(" - discover implementations without hand-written registration") + `

typefinder loads the packages of a Go module and every package they import,
filters them by name, and reports the declared types that implement an
interface or embed a base struct.

` + SubtitleStyle.Render("Examples:") + `
  typefinder find example.com/app/svc.Service      List concrete implementations
  typefinder modules                               List the packages that are scanned
  typefinder generate example.com/app/svc.Service  Write a registry file`,
		SilenceUsage:      true,
		PersistentPreRunE: initRootConfig,
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is <dir>/typefinder.cue)")
	rootCmd.PersistentFlags().StringVarP(&dir, "dir", "C", "", "host module directory (default .)")

	rootCmd.AddCommand(findCmd)
	rootCmd.AddCommand(modulesCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(configCmd)
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(Version),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}

// initRootConfig loads configuration and sets up the logger.
func initRootConfig(cmd *cobra.Command, _ []string) error {
	loaded, path, err := config.Load(cmd.Context(), config.LoadOptions{
		ConfigFilePath: cfgFile,
		Dir:            dir,
	})
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if dir != "" {
		loaded.Dir = dir
	}
	if verbose {
		loaded.Verbose = true
	}
	cfg = loaded

	level := log.InfoLevel
	if cfg.Verbose {
		level = log.DebugLevel
	}
	logger = log.NewWithOptions(os.Stderr, log.Options{
		Prefix: "typefinder",
		Level:  level,
	})
	if path != "" {
		logger.Debug("loaded config", "path", path)
	}
	return nil
}

// newEngine builds an engine over the configured host module. extraModules
// are appended to the configured module names.
func newEngine(extraModules []string) (*typefinder.Engine, error) {
	ws := typefinder.NewWorkspace(typefinder.WorkspaceConfig{
		Dir:      cfg.Dir,
		Patterns: cfg.Patterns,
		Logger:   logger.WithPrefix("workspace"),
	})

	opts := cfg.Options()
	opts.Logger = logger
	engine, err := typefinder.New(ws, ws, opts)
	if err != nil {
		return nil, err
	}
	if len(extraModules) > 0 {
		engine.AddModuleNames(extraModules...)
	}
	return engine, nil
}
