package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iVampireSP/typefinder"
)

var (
	findIncludeAbstract bool
	findSelf            bool
	findModules         []string

	findCmd = &cobra.Command{
		Use:   "find <import/path.Type>",
		Short: "List the types assignable to an interface or base struct",
		Args:  cobra.ExactArgs(1),
		RunE:  runFind,
	}
)

func init() {
	findCmd.Flags().BoolVar(&findIncludeAbstract, "include-abstract", false, "also list abstract and non-struct types")
	findCmd.Flags().BoolVar(&findSelf, "no-declaring", false, "report method-local matches themselves instead of their receiver type")
	findCmd.Flags().StringArrayVarP(&findModules, "module", "m", nil, "additional package to scan (repeatable)")
}

func runFind(cmd *cobra.Command, args []string) error {
	if findSelf {
		cfg.ReportDeclaringType = false
	}
	engine, err := newEngine(findModules)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	target, err := engine.ResolveType(ctx, args[0])
	if err != nil {
		return err
	}

	var opts []typefinder.FindOption
	if findIncludeAbstract {
		opts = append(opts, typefinder.IncludeAbstract())
	}
	matches, err := engine.FindClassesOfType(ctx, target, opts...)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(matches) == 0 {
		fmt.Fprintln(out, WarningStyle.Render("no types match ")+TypeStyle.Render(args[0]))
		return nil
	}
	for _, m := range matches {
		fmt.Fprintf(out, "%s %s\n", TypeStyle.Render(m.Name), SubtitleStyle.Render(m.Position.String()))
	}
	fmt.Fprintln(out, SuccessStyle.Render(fmt.Sprintf("%d match(es)", len(matches))))
	return nil
}
