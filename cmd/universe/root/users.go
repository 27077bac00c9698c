package root

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/MRamiBalles/UniverseRPG/server/internal/infra/storage"
	"github.com/MRamiBalles/UniverseRPG/server/internal/ui"
)

func newUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage local player accounts",
	}
	cmd.AddCommand(newUsersListCmd(), newUsersCreateCmd(), newUsersDeleteCmd(), newUsersRecapCmd())
	return cmd
}

func newUsersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every account with its progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			b, cleanup, err := openBackend(cfg, cliLogger(cmd))
			if err != nil {
				return err
			}
			defer cleanup()

			users, err := b.accounts.AllUsers(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.Heading(ui.IconUser, fmt.Sprintf("Accounts (%d)", len(users))))
			if len(users) == 0 {
				fmt.Fprintln(out, ui.Muted.Render("no accounts yet"))
				return nil
			}
			for _, u := range users {
				line := "- " + ui.Key.Render(u.Username)
				summary, err := b.summaries.Get(ctx, u.Username)
				if err != nil {
					return err
				}
				if summary != nil {
					line += fmt.Sprintf(" lvl %d, %s XP, %s %s Numins, %s taps @ %s",
						summary.Level, humanize.Comma(summary.XP), ui.IconNumins,
						humanize.Comma(summary.Currency), humanize.Comma(int64(summary.TotalTaps)), summary.LocationID)
				}
				line += " " + ui.Muted.Render(fmt.Sprintf("(created %s, last login %s)", ago(u.CreatedAt), ago(u.LastLogin)))
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
}

func newUsersCreateCmd() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "create <username>",
		Short: "Register an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				return errors.New("--password is required")
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			b, cleanup, err := openBackend(cfg, cliLogger(cmd))
			if err != nil {
				return err
			}
			defer cleanup()

			if err := b.accounts.CreateUser(context.Background(), args[0], password); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Good.Render(ui.IconDone+" created "+args[0]))
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	return cmd
}

func newUsersDeleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <username>",
		Short: "Delete an account with its save, backups and history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to delete without --yes")
			}
			ctx := context.Background()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			b, cleanup, err := openBackend(cfg, cliLogger(cmd))
			if err != nil {
				return err
			}
			defer cleanup()

			exists, err := b.accounts.Exists(ctx, args[0])
			if err != nil {
				return err
			}
			if !exists {
				return fmt.Errorf("no account named %q", args[0])
			}
			if err := b.accounts.DeleteUser(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Warn.Render(ui.IconWarn+" deleted "+args[0]))
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion")
	return cmd
}

func newUsersRecapCmd() *cobra.Command {
	var since time.Duration
	cmd := &cobra.Command{
		Use:   "recap <username>",
		Short: "Summarize what an account did recently, from its event history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			b, cleanup, err := openBackend(cfg, cliLogger(cmd))
			if err != nil {
				return err
			}
			defer cleanup()

			from := time.Now().Add(-since)
			rec := storage.NewReconstructor(b.history)
			totals, err := rec.RebuildTotals(ctx, args[0], from)
			if err != nil {
				return err
			}
			recap, err := rec.Recap(ctx, args[0], from)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.Heading(ui.IconInfo, fmt.Sprintf("%s since %s", args[0], humanize.Time(from))))
			if totals.Events == 0 {
				fmt.Fprintln(out, ui.Muted.Render("nothing recorded"))
				return nil
			}
			fmt.Fprintln(out, ui.LabelValue("Taps", humanize.Comma(int64(totals.Taps))))
			fmt.Fprintln(out, ui.LabelValue("Idle finds", humanize.Comma(int64(totals.IdleCollections))))
			fmt.Fprintln(out, ui.LabelValue("Numins", humanize.Comma(totals.NuminsCollected)))
			fmt.Fprintln(out, ui.LabelValue("XP", humanize.Comma(totals.XPGained)))
			fmt.Fprintln(out, ui.LabelValue("Level-ups", fmt.Sprint(totals.LevelUps)))
			fmt.Fprintln(out, ui.LabelValue("Builds", fmt.Sprint(totals.ConstructionsCollected)))
			for _, e := range recap {
				style := ui.Muted
				switch e.Impact {
				case "POSITIVE":
					style = ui.Good
				case "NEGATIVE":
					style = ui.Bad
				}
				fmt.Fprintln(out, "- "+style.Render(e.Summary))
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&since, "since", 24*time.Hour, "how far back to look")
	return cmd
}

func ago(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.Time(t)
}
