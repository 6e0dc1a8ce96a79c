package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/conneroisu/htmlc/internal/server"
)

var (
	servePort int
	serveHost string
	serveOpen bool
)

var serveCmd = &cobra.Command{
	Use:   "serve [dir...]",
	Short: "Preview templates with live reload",
	Long: `Compile the templates under the given directories (default:
templates.paths) and serve them. Pages reload in the browser when a
template changes, and build errors appear as an overlay.

  /                  index of templates
  /preview/NAME      render NAME with live reload
  /render/NAME       render NAME only
  /templates         template list as JSON

Examples:
  htmlc serve
  htmlc serve views --port 3000 --open`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to listen on (default server.port)")
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to (default server.host)")
	serveCmd.Flags().BoolVar(&serveOpen, "open", false, "Open the template index in the browser")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = servePort
	}
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = serveHost
	}
	if len(args) > 0 {
		cfg.Templates.Paths = args
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	url := fmt.Sprintf("http://%s:%d", cfg.Server.Host, cfg.Server.Port)
	fmt.Fprintf(cmd.OutOrStdout(), "Serving templates at %s\n", successStyle.Render(url))
	if serveOpen {
		if err := server.OpenBrowser(url); err != nil {
			logger.Warn(ctx, err, "failed to open browser")
		}
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(ctx)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}
