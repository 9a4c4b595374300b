package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	modulesExtra []string

	modulesCmd = &cobra.Command{
		Use:   "modules",
		Short: "List the packages that would be scanned",
		Args:  cobra.NoArgs,
		RunE:  runModules,
	}
)

func init() {
	modulesCmd.Flags().StringArrayVarP(&modulesExtra, "module", "m", nil, "additional package to scan (repeatable)")
}

func runModules(cmd *cobra.Command, _ []string) error {
	engine, err := newEngine(modulesExtra)
	if err != nil {
		return err
	}
	modules, err := engine.Modules(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, m := range modules {
		fmt.Fprintf(out, "%s %s\n", TypeStyle.Render(m.Path), SubtitleStyle.Render(m.Dir))
	}
	fmt.Fprintln(out, SuccessStyle.Render(fmt.Sprintf("%d module(s)", len(modules))))
	return nil
}
