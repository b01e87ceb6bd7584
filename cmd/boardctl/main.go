// Command boardctl is a terminal client for taskboard.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"taskboard/internal/client"
	"taskboard/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(cfg, log.New()).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// app carries the state shared by all subcommands.
type app struct {
	cfg     *config.Config
	logger  *log.Logger
	url     string
	token   string
	verbose bool
}

func newRootCmd(cfg *config.Config, logger *log.Logger) *cobra.Command {
	a := &app{cfg: cfg, logger: logger}

	root := &cobra.Command{
		Use:          "boardctl",
		Short:        "Work with taskboard boards from the terminal",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.setupLogger(cmd.ErrOrStderr())
		},
	}
	root.PersistentFlags().StringVar(&a.url, "url", cfg.Client.URL, "taskboard server URL (BOARDCTL_URL)")
	root.PersistentFlags().StringVar(&a.token, "token", cfg.Client.Token, "bearer token (BOARDCTL_TOKEN)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", cfg.Debug, "enable debug logging")

	root.AddCommand(
		a.boardsCmd(),
		a.showCmd(),
		a.moveCmd(),
		a.watchCmd(),
		a.importCmd(),
		a.tokenCmd(),
	)
	return root
}

func (a *app) setupLogger(w io.Writer) {
	a.logger.SetOutput(w)
	a.logger.SetLevel(log.WarnLevel)
	if a.verbose {
		a.logger.SetLevel(log.DebugLevel)
	}
	if strings.EqualFold(a.cfg.LogFormat, "json") {
		a.logger.SetFormatter(&log.JSONFormatter{})
	}
}

func (a *app) client() *client.Client {
	return client.New(a.url, a.token)
}
