package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"taskboard/internal/board"
	"taskboard/internal/config"
	"taskboard/internal/tui"
	"taskboard/internal/watch"
)

func (a *app) watchCmd() *cobra.Command {
	var (
		mode    string
		logFile string
	)
	cmd := &cobra.Command{
		Use:   "watch <board-id>",
		Short: "Open a board in the interactive terminal view",
		Long: `Open a board and keep it in sync with the server. Cards are moved with
the keyboard: space picks a card up, the arrow keys choose where it goes,
enter drops it and esc cancels.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			boardID := args[0]
			if mode != config.SyncPoll && mode != config.SyncStream {
				return fmt.Errorf("invalid sync mode %q", mode)
			}

			// The terminal belongs to the board view; logs go to a file or nowhere.
			var out io.Writer = io.Discard
			if logFile != "" {
				f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
				if err != nil {
					return fmt.Errorf("failed to open log file: %w", err)
				}
				defer f.Close()
				out = f
			}
			a.logger.SetOutput(out)
			logger := a.logger.WithField("board_id", boardID)

			c := a.client()
			b, err := c.GetBoard(cmd.Context(), boardID)
			if err != nil {
				return err
			}

			var feed func(board.Snapshot)
			opts := watch.Options{
				Logger:   logger,
				OnChange: func(s board.Snapshot) { feed(s) },
			}
			var watcher watch.Watcher
			if mode == config.SyncStream {
				watcher = watch.NewStreamWatcher(c, boardID, opts)
			} else {
				opts.Interval = a.cfg.Sync.PollInterval
				watcher = watch.NewPoller(c, boardID, opts)
			}
			logger.WithField("mode", mode).Info("watching board")

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			g, gctx := errgroup.WithContext(ctx)

			model := tui.New(tui.Options{Title: b.Title, Mover: c, Watcher: watcher, Logger: logger})
			p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(gctx))
			feed = tui.Feed(p)

			g.Go(func() error {
				return watcher.Run(gctx)
			})
			g.Go(func() error {
				defer cancel()
				_, err := p.Run()
				if errors.Is(err, tea.ErrProgramKilled) {
					return nil
				}
				return err
			})
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&mode, "mode", a.cfg.Sync.Mode, "sync mode: poll or stream (SYNC_MODE)")
	cmd.Flags().StringVar(&logFile, "log-file", "", "write logs to this file")
	return cmd
}
