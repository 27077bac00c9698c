package root

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/MRamiBalles/UniverseRPG/server/internal/save"
	"github.com/MRamiBalles/UniverseRPG/server/internal/ui"
)

func newSaveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Export, import, inspect and restore player saves",
	}
	cmd.AddCommand(
		newSaveExportCmd(),
		newSaveImportCmd(),
		newSaveInspectCmd(),
		newSaveBackupsCmd(),
		newSaveRestoreCmd(),
	)
	return cmd
}

func newSaveExportCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export <username>",
		Short: "Write a user's game as a save blob",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := cliLogger(cmd)
			b, cleanup, err := openBackend(cfg, log)
			if err != nil {
				return err
			}
			defer cleanup()

			_, saves, _, err := b.openGame(ctx, cfg, args[0], log)
			if err != nil {
				return err
			}
			data, err := saves.Export(ctx)
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(append(data, '\n'))
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), ui.Good.Render(fmt.Sprintf("%s exported %s to %s", ui.IconSave, humanize.Bytes(uint64(len(data))), output)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout when omitted)")
	return cmd
}

func newSaveImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <username> <file>",
		Short: "Replace a user's game with a save blob (legacy formats are migrated)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			data, err := readInput(cmd, args[1])
			if err != nil {
				return err
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := cliLogger(cmd)
			b, cleanup, err := openBackend(cfg, log)
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
			_, saves, _, err := b.openGame(ctx, cfg, args[0], log)
			if err != nil {
				return err
			}
			outcome, err := saves.Import(ctx, data)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.LabelValue("Imported", ui.OutcomeText(string(outcome))))
			return nil
		},
	}
}

func newSaveInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file>",
		Short: "Classify a save blob and summarize what would load from it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			res, merr := save.NewMigrator(save.DefaultSteps...).Migrate(data)
			fmt.Fprintln(out, ui.Heading(ui.IconSave, "Save inspection"))
			fmt.Fprintln(out, ui.LabelValue("Size", humanize.Bytes(uint64(len(data)))))
			fmt.Fprintln(out, ui.LabelValue("Outcome", ui.OutcomeText(string(res.Outcome))))
			if merr != nil {
				fmt.Fprintln(out, ui.LabelValue("Reason", ui.Bad.Render(merr.Error())))
				return nil
			}
			if res.Envelope == nil {
				return nil
			}
			if res.FromVersion != "" {
				fmt.Fprintln(out, ui.LabelValue("From version", res.FromVersion))
			}

			st, skipped := res.Envelope.ToState(cfg.Balance.BaseStorageCapacity)
			fmt.Fprintln(out, ui.LabelValue("Player", st.PlayerName))
			fmt.Fprintln(out, ui.LabelValue("Level", fmt.Sprintf("%d (%s XP)", st.Level, humanize.Comma(st.XP))))
			fmt.Fprintln(out, ui.LabelValue("Numins", humanize.Comma(st.Currency)))
			fmt.Fprintln(out, ui.LabelValue("Location", st.CurrentLocationID))
			fmt.Fprintln(out, ui.LabelValue("Resources", len(st.Resources)))
			fmt.Fprintln(out, ui.LabelValue("Cards", len(st.Cards)))
			fmt.Fprintln(out, ui.LabelValue("Taps", humanize.Comma(int64(st.Stats.TotalTaps))))
			if !st.LastSaved.IsZero() {
				fmt.Fprintln(out, ui.LabelValue("Last saved", humanize.Time(st.LastSaved)))
			}
			for _, s := range skipped {
				fmt.Fprintln(out, ui.Warn.Render(ui.IconWarn+" would skip unknown "+s))
			}
			return nil
		},
	}
}

func newSaveBackupsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backups <username>",
		Short: "List a user's backups, newest first",
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

			keys, err := save.ListBackups(ctx, b.blobs, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.Heading(ui.IconSave, fmt.Sprintf("Backups of %s (%d)", args[0], len(keys))))
			for i := len(keys) - 1; i >= 0; i-- {
				line := "- " + keys[i]
				if t, ok := save.BackupTime(keys[i]); ok {
					line += " " + ui.Muted.Render("("+humanize.Time(t)+")")
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
}

func newSaveRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <username> <backup-key>",
		Short: "Make a backup the user's primary save",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := cliLogger(cmd)
			b, cleanup, err := openBackend(cfg, log)
			if err != nil {
				return err
			}
			defer cleanup()

			_, saves, _, err := b.openGame(ctx, cfg, args[0], log)
			if err != nil {
				return err
			}
			outcome, err := saves.Restore(ctx, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.LabelValue("Restored", ui.OutcomeText(string(outcome))))
			return nil
		},
	}
}

// readInput reads a file, or stdin for "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}
