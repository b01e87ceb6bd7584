package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"taskboard/internal/auth"
	"taskboard/internal/board"
	"taskboard/internal/importer"
	"taskboard/internal/reorder"
	"taskboard/internal/tui"
)

func (a *app) boardsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "boards",
		Short: "List your boards",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			boards, err := a.client().ListBoards(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTITLE\tVISIBILITY")
			for _, b := range boards {
				visibility := "public"
				if b.Private {
					visibility = "private"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", b.ID, b.Title, visibility)
			}
			return tw.Flush()
		},
	}
}

func (a *app) showCmd() *cobra.Command {
	var width int
	cmd := &cobra.Command{
		Use:   "show <board-id>",
		Short: "Print a board's lists and cards",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lists, err := a.client().BoardLists(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			snap := board.NewSnapshot(lists)
			fmt.Fprintln(cmd.OutOrStdout(), tui.RenderBoard(snap, width))
			fmt.Fprintln(cmd.OutOrStdout(), tui.Summary(snap))
			return nil
		},
	}
	cmd.Flags().IntVar(&width, "width", 120, "output width in columns")
	return cmd
}

// printNotifier writes engine notifications to the command output.
type printNotifier struct {
	w io.Writer
}

func (n printNotifier) Success(msg string) { fmt.Fprintln(n.w, msg) }
func (n printNotifier) Error(msg string)   { fmt.Fprintln(n.w, "error:", msg) }

func (a *app) moveCmd() *cobra.Command {
	var boardID string
	cmd := &cobra.Command{
		Use:   "move <card-id> <target-id>",
		Short: "Move a card onto another card or to the end of a list",
		Long: `Move a card the way a drag and drop does. The target is either a card,
which the moved card takes the place of, or a list, which the card is
appended to.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := a.client()
			lists, err := c.BoardLists(cmd.Context(), boardID)
			if err != nil {
				return err
			}

			engine := reorder.NewEngine(board.NewSnapshot(lists), c, printNotifier{cmd.OutOrStdout()}, a.logger)
			res := engine.EndDrag(cmd.Context(), args[0], args[1])
			switch res.Outcome {
			case reorder.OutcomeNoop:
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to do")
				return nil
			case reorder.OutcomeStale:
				return fmt.Errorf("card or target not on board %s: %w", boardID, res.Err)
			case reorder.OutcomeRolledBack, reorder.OutcomeBusy:
				return res.Err
			}
			if !res.CrossList {
				fmt.Fprintf(cmd.OutOrStdout(), "Card reordered to position %d\n", res.Request.Position)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&boardID, "board", "b", "", "board the card belongs to")
	cmd.MarkFlagRequired("board")
	return cmd
}

func (a *app) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import-trello <trello-board-id>",
		Short: "Copy a Trello board into a new private board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Trello.APIKey == "" || a.cfg.Trello.Token == "" {
				return errors.New("TRELLO_API_KEY and TRELLO_TOKEN must be set")
			}
			src := importer.NewTrelloSource(a.cfg.Trello.APIKey, a.cfg.Trello.Token)
			sum, err := importer.New(src, a.client(), a.logger).Import(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported board %s: %d lists, %d cards, %d labels\n",
				sum.BoardID, sum.Lists, sum.Cards, sum.Labels)
			return nil
		},
	}
}

func (a *app) tokenCmd() *cobra.Command {
	var (
		id  auth.Identity
		ttl time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development token signed with JWT_SECRET",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Auth.JWTSecret == "" {
				return errors.New("JWT_SECRET must be set")
			}
			signer, err := auth.New(nil, []byte(a.cfg.Auth.JWTSecret), a.cfg.Auth.Audience, a.cfg.Auth.Issuer)
			if err != nil {
				return err
			}
			token, err := signer.Sign(id, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&id.UserID, "user", "", "user id (token subject)")
	cmd.Flags().StringVar(&id.Email, "email", "", "user email")
	cmd.Flags().StringVar(&id.Name, "name", "", "display name")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	cmd.MarkFlagRequired("user")
	return cmd
}
