package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/densky-dev/densky/internal/build"
	"github.com/densky-dev/densky/internal/dev"
)

func devCmd(flags *globalFlags, out io.Writer) *cobra.Command {
	var (
		port int
		host string
	)

	cmd := &cobra.Command{
		Use:   "dev <project>",
		Short: "Rebuild on change and serve the inspection API",
		Long: `Build the project, then rebuild with a fresh cache hash whenever a
route file or the config changes.

The dev server exposes /status, /tree, /routes, /match?path=,
/rebuild, /metrics and a /reload WebSocket that announces each build.

Examples:
  densky dev ./my-app
  densky dev ./my-app --port=8080`,
		Args: projectArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadProject(args[0])
			if err != nil {
				return err
			}

			// Apply command-line overrides
			if port > 0 {
				cfg.Dev.Port = port
			}
			if host != "" {
				cfg.Dev.Host = host
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			fmt.Fprintln(out, "  densky dev")
			fmt.Fprintln(out)

			server := dev.NewServer(dev.ServerOptions{
				Config: cfg,
				Logger: newLogger(cfg.Log, flags, os.Stderr),
				OnBuildComplete: func(result *build.Result, err error) {
					switch {
					case err != nil:
						errorMsg(out, "Build failed: %v", err)
					case len(result.Errors) > 0:
						warn(out, "Built with %d failing nodes in %s", len(result.Errors), result.Duration.Round(time.Millisecond))
					default:
						success(out, "Built in %s (%s)", result.Duration.Round(time.Millisecond), result.CacheHash)
					}
				},
			})

			info(out, "Inspection API at http://%s", cfg.DevAddress())
			return server.Start(cmd.Context())
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to run on (default from densky.json)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from densky.json)")

	return cmd
}
