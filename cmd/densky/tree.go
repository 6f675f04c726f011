package main

import (
	"context"
	stderrors "errors"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/densky-dev/densky/internal/config"
	"github.com/densky-dev/densky/pkg/router"
)

func treeCmd(flags *globalFlags, out io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tree <project>",
		Short: "Print the route tree without generating",
		Long: `Discover the project's routes and print the resulting tree.

Nothing is written.

  ★/☆ root with/without a route   ▲ route   △ container
  ■ middleware   ...fallback`,
		Args: projectArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadProject(args[0])
			if err != nil {
				return err
			}
			return runTree(cmd.Context(), cfg, flags, out)
		},
	}
	return cmd
}

func runTree(ctx context.Context, cfg *config.Config, flags *globalFlags, out io.Writer) error {
	tree, entries, err := router.Discover(ctx, router.ScanOptions{
		RoutesDir: cfg.RoutesPath(),
		OutputDir: cfg.HTTPOutputPath(),
		Extension: cfg.Routes.Extension,
		Pattern:   cfg.Routes.Pattern,
	}, newLogger(cfg.Log, flags, os.Stderr))
	if err != nil {
		return err
	}

	var multi *router.MultiValidationError
	if stderrors.As(router.NewValidator(entries).Validate(), &multi) {
		for _, ve := range multi.Errors {
			warn(out, "%s", strings.TrimSpace(strings.TrimPrefix(router.FormatValidationError(ve), "ERROR: ")))
		}
	}
	if err := tree.Display(out); err != nil {
		return err
	}
	_, err = io.WriteString(out, "\n")
	return err
}
