package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Inspect typefinder configuration",
	}

	configShowCmd = &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, TitleStyle.Render("Effective configuration"))
			row := func(key string, value any) {
				fmt.Fprintf(out, "  %s %v\n", SubtitleStyle.Render(key+":"), value)
			}
			row("dir", cfg.Dir)
			row("patterns", strings.Join(cfg.Patterns, ", "))
			row("modules", strings.Join(cfg.Modules, ", "))
			row("skip_pattern", cfg.SkipPattern)
			row("restrict_pattern", cfg.RestrictPattern)
			row("load_from_host", cfg.LoadFromHost)
			row("report_declaring_type", cfg.ReportDeclaringType)
			row("cache_size", cfg.CacheSize)
			row("verbose", cfg.Verbose)
			return nil
		},
	}
)

func init() {
	configCmd.AddCommand(configShowCmd)
}
