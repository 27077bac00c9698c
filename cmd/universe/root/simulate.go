package root

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/MRamiBalles/UniverseRPG/server/internal/domain/location"
	"github.com/MRamiBalles/UniverseRPG/server/internal/domain/resource"
	"github.com/MRamiBalles/UniverseRPG/server/internal/engine"
	"github.com/MRamiBalles/UniverseRPG/server/internal/events"
	"github.com/MRamiBalles/UniverseRPG/server/internal/ui"
)

func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run the game rules offline to check balance",
	}
	cmd.AddCommand(newSimulateDropsCmd(), newSimulateIdleCmd())
	return cmd
}

func seededRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

func newSimulateDropsCmd() *cobra.Command {
	var (
		locID string
		taps  int
		seed  int64
	)
	cmd := &cobra.Command{
		Use:   "drops",
		Short: "Roll a location's drop table and compare with the expected odds",
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, ok := location.Get(locID)
			if !ok {
				return fmt.Errorf("unknown location %q", locID)
			}
			table := location.DropTable(locID)
			if len(table) == 0 {
				return fmt.Errorf("location %q has no drop table", locID)
			}
			if taps <= 0 {
				return fmt.Errorf("--taps must be positive")
			}

			rng := seededRand(seed)
			counts := make(map[resource.Type]int, len(table))
			for i := 0; i < taps; i++ {
				if t, ok := engine.SelectFromTable(table, rng); ok {
					counts[t]++
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.Heading(ui.IconDice, fmt.Sprintf("%s: %s taps", loc.Name, humanize.Comma(int64(taps)))))
			for _, d := range table {
				got := float64(counts[d.Resource]) / float64(taps) * 100
				fmt.Fprintf(out, "%-18s %s %5.1f%% %s\n",
					d.Resource, ui.Bar(got/table[0].Percent, 24), got, ui.Muted.Render(fmt.Sprintf("(expected %.0f%%)", d.Percent)))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&locID, "location", "l", location.StartingID, "location id")
	cmd.Flags().IntVarP(&taps, "taps", "n", 100000, "number of taps")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 picks one)")
	return cmd
}

func newSimulateIdleCmd() *cobra.Command {
	var (
		ticks int
		seed  int64
	)
	cmd := &cobra.Command{
		Use:   "idle",
		Short: "Let a fresh game idle and report what it collected",
		RunE: func(cmd *cobra.Command, args []string) error {
			if ticks <= 0 {
				return fmt.Errorf("--ticks must be positive")
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			eng := engine.NewEngine(cfg, events.NewEventLog(nil, 1), cliLogger(cmd), engine.WithRand(seededRand(seed)))
			full := 0
			for i := 0; i < ticks; i++ {
				if eng.Tick().StorageFull {
					full++
				}
			}

			st := eng.Snapshot()
			storage := eng.Storage()
			out := cmd.OutOrStdout()
			elapsed := time.Duration(ticks) * cfg.Balance.TickInterval
			fmt.Fprintln(out, ui.Heading(ui.IconPlanet, fmt.Sprintf("%s ticks idle at %s (%s of play)",
				humanize.Comma(int64(ticks)), st.CurrentLocationID, elapsed)))
			fmt.Fprintln(out, ui.LabelValue("Idle collections", humanize.Comma(int64(st.Stats.TotalIdleCollections))))
			fmt.Fprintln(out, ui.LabelValue("Numins", humanize.Comma(st.Currency)))
			fmt.Fprintln(out, ui.LabelValue("Level", fmt.Sprintf("%d (%s XP gained)", st.Level, humanize.Comma(st.Stats.TotalXPGained))))
			fmt.Fprintln(out, ui.LabelValue("Storage", fmt.Sprintf("%s %d/%d",
				ui.Bar(float64(storage.Used)/float64(storage.Capacity), 24), storage.Used, storage.Capacity)))
			if full > 0 {
				fmt.Fprintln(out, ui.Warn.Render(fmt.Sprintf("%s storage was full on %s ticks", ui.IconWarn, humanize.Comma(int64(full)))))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&ticks, "ticks", "n", 3600, "number of one-second ticks")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 picks one)")
	return cmd
}
