package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/densky-dev/densky/internal/build"
	"github.com/densky-dev/densky/internal/config"
	"github.com/densky-dev/densky/internal/output"
)

type buildFlags struct {
	output  string
	routes  string
	runtime string
	clean   bool
	dryRun  bool
	quiet   bool
}

func buildCmd(flags *globalFlags, out io.Writer) *cobra.Command {
	var bf buildFlags

	cmd := &cobra.Command{
		Use:   "build <project>",
		Short: "Generate the dispatcher tree",
		Long: `Discover the project's routes, validate them and write one
dispatcher per tree node plus a manifest.json.

Output goes to output.dir, or to S3 when output.s3 is configured.

Examples:
  densky build ./my-app
  densky build ./my-app --clean
  densky build ./my-app --dry-run`,
		Args: projectArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadProject(args[0])
			if err != nil {
				return err
			}
			_, err = runBuild(cmd.Context(), cfg, bf, flags, out)
			return err
		},
	}

	cmd.Flags().StringVarP(&bf.output, "output", "o", "", "Output directory (default from densky.json)")
	cmd.Flags().StringVarP(&bf.routes, "routes", "r", "", "Routes directory (default from densky.json)")
	cmd.Flags().StringVar(&bf.runtime, "runtime", "", "Runtime module imported by dispatchers")
	cmd.Flags().BoolVar(&bf.clean, "clean", false, "Remove previous dispatchers before writing")
	cmd.Flags().BoolVar(&bf.dryRun, "dry-run", false, "Generate without writing anything")
	cmd.Flags().BoolVarP(&bf.quiet, "quiet", "q", false, "Only print warnings and errors")

	return cmd
}

// applyOverrides applies command-line overrides and revalidates.
func (bf buildFlags) applyOverrides(cfg *config.Config) error {
	if bf.output != "" {
		cfg.Output.Dir = bf.output
		cfg.Output.S3 = nil
	}
	if bf.routes != "" {
		cfg.Routes.Dir = bf.routes
	}
	if bf.runtime != "" {
		cfg.Runtime = bf.runtime
	}
	return cfg.Validate()
}

func runBuild(ctx context.Context, cfg *config.Config, bf buildFlags, flags *globalFlags, out io.Writer) (*build.Result, error) {
	if err := bf.applyOverrides(cfg); err != nil {
		return nil, err
	}

	var sink output.Sink
	if bf.dryRun {
		sink = output.NewMemorySink()
	}

	builder := build.New(cfg, build.Options{
		Sink:   sink,
		Clean:  bf.clean,
		Logger: newLogger(cfg.Log, flags, os.Stderr),
		OnProgress: func(step string) {
			if !bf.quiet {
				info(out, step)
			}
		},
	})

	result, err := builder.Build(ctx)
	if err != nil {
		return result, err
	}

	for _, w := range result.Warnings {
		warn(out, "%s", w.FormatCompact())
	}
	for _, e := range result.Errors {
		errorMsg(out, "%s", e.FormatCompact())
	}

	if bf.quiet {
		return result, nil
	}

	fmt.Fprintln(out)
	if len(result.Errors) > 0 {
		warn(out, "Built %d of %d nodes in %s", len(result.Artifacts), len(result.Tree.Nodes()), result.Duration.Round(time.Millisecond))
	} else {
		success(out, "Built %d nodes in %s", len(result.Artifacts), result.Duration.Round(time.Millisecond))
	}
	if bf.dryRun {
		info(out, "Dry run: nothing was written")
	} else {
		info(out, "Entry: %s", result.Written[result.Manifest.Entry])
	}
	info(out, "Cache hash: %s", result.CacheHash)

	return result, nil
}
