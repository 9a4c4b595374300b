package main

import (
	"fmt"
	"go/types"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/iVampireSP/typefinder"
)

var (
	genOutput  string
	genPackage string
	genDryRun  bool
	genModules []string

	generateCmd = &cobra.Command{
		Use:   "generate <import/path.Interface>",
		Short: "Write a file registering every concrete implementation",
		Args:  cobra.ExactArgs(1),
		RunE:  runGenerate,
	}
)

func init() {
	generateCmd.Flags().StringVarP(&genOutput, "output", "o", "zz_typefinder_registry.go", "output file")
	generateCmd.Flags().StringVarP(&genPackage, "package", "p", "main", "package clause of the generated file")
	generateCmd.Flags().BoolVar(&genDryRun, "dry-run", false, "print generated code without writing")
	generateCmd.Flags().StringArrayVarP(&genModules, "module", "m", nil, "additional package to scan (repeatable)")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	engine, err := newEngine(genModules)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	target, err := engine.ResolveType(ctx, args[0])
	if err != nil {
		return err
	}
	named, ok := target.(*types.Named)
	if !ok {
		return fmt.Errorf("%s is not a named type", args[0])
	}
	matches, err := engine.FindClassesOfType(ctx, target)
	if err != nil {
		return err
	}

	output := genOutput
	if !filepath.IsAbs(output) {
		output = filepath.Join(cfg.Dir, output)
	}
	importPath, err := outputImportPath(filepath.Dir(output))
	if err != nil {
		logger.Warn("cannot determine import path of output package", "err", err)
	}

	src, err := typefinder.Generate(typefinder.GenerateRequest{
		Package:    genPackage,
		ImportPath: importPath,
		Capability: named.Obj(),
		Matches:    matches,
	})
	if err != nil {
		return err
	}

	if genDryRun {
		fmt.Fprintf(cmd.OutOrStdout(), "// === %s ===\n%s\n", output, src)
		return nil
	}
	logger.Debug("writing registry", "path", output, "matches", len(matches))
	if err := os.WriteFile(output, src, 0644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("wrote ")+TypeStyle.Render(output))
	return nil
}

// outputImportPath derives the import path of the package in dir from the
// enclosing go.mod.
func outputImportPath(dir string) (string, error) {
	root, err := typefinder.FindModuleRoot(dir)
	if err != nil {
		return "", err
	}
	modPath, err := typefinder.ModulePath(root)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return "", err
	}
	if rel == "." {
		return modPath, nil
	}
	return modPath + "/" + filepath.ToSlash(rel), nil
}
