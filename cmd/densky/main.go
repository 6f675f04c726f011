package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/densky-dev/densky/internal/config"
	"github.com/densky-dev/densky/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// globalFlags are shared by every command.
type globalFlags struct {
	verbose bool
	json    bool
	noColor bool
}

func main() {
	flags := &globalFlags{}
	rootCmd := newRootCmd(flags, os.Stdout)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	cancel()
	if err != nil {
		printError(os.Stderr, err, flags.json)
		os.Exit(1)
	}
}

func newRootCmd(flags *globalFlags, out io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "densky <project>",
		Short: "Compile a file-based route tree into dispatchers",
		Long: `Densky compiles a directory of route files into a tree of
dispatcher modules, one per node, that resolve a request path to its
handler without a runtime router.

Running densky with only a project path builds the project and prints
its route tree.

Examples:
  densky ./my-app
  densky build ./my-app --dry-run
  densky dev ./my-app`,
		Args: projectArg,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flags.noColor {
				errors.DisableColors()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadProject(args[0])
			if err != nil {
				return err
			}
			result, err := runBuild(cmd.Context(), cfg, buildFlags{}, flags, out)
			if err != nil {
				return err
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, result.Tree.String())
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&flags.json, "json", false, "Print errors as JSON")
	rootCmd.PersistentFlags().BoolVar(&flags.noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(
		buildCmd(flags, out),
		treeCmd(flags, out),
		devCmd(flags, out),
		versionCmd(out),
	)

	return rootCmd
}

// projectArg requires exactly one non-empty project path.
func projectArg(cmd *cobra.Command, args []string) error {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return errors.New("E150").
			WithSuggestion("Run: " + cmd.CommandPath() + " <project>")
	}
	return cobra.ExactArgs(1)(cmd, args)
}

// loadProject loads the config of the project at path, falling back to
// defaults when it has no config file.
func loadProject(path string) (*config.Config, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("E150")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, errors.New("E102").
			WithDetail("Project path " + path + " does not exist").
			Wrap(err)
	}
	return config.LoadOrDefault(path)
}

// newLogger builds the process logger from the project's log config.
func newLogger(cfg config.LogConfig, flags *globalFlags, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if flags != nil && flags.verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func printError(w io.Writer, err error, asJSON bool) {
	if asJSON {
		fmt.Fprintln(w, errors.Classify(err).FormatJSON())
		return
	}
	errors.Print(w, errors.Classify(err))
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}

// errorMsg prints an error message.
func errorMsg(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[31m✗\033[0m %s\n", fmt.Sprintf(format, args...))
}
