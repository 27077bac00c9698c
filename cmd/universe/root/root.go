package root

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/MRamiBalles/UniverseRPG/server/internal/config"
	"github.com/MRamiBalles/UniverseRPG/server/internal/platform/logger"
	"github.com/MRamiBalles/UniverseRPG/server/internal/ui"
)

const Version = "0.3.0"

var (
	configPath string
	dbPath     string
	devMode    bool
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:           "universe",
	Short:         "UniverseRPG server and admin tools",
	Long:          "universe runs the authoritative UniverseRPG game server and inspects its accounts and saves.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (defaults apply when omitted)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&devMode, "dev", false, "start from the development profile")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log info and warnings to stderr")

	rootCmd.AddCommand(
		newServeCmd(),
		newUsersCmd(),
		newSaveCmd(),
		newSimulateCmd(),
		newConfigCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.Bad.Render(ui.IconError+" "+err.Error()))
		os.Exit(1)
	}
}

// loadConfig resolves the effective configuration: profile, then file, then environment,
// then flags.
func loadConfig() (config.Config, error) {
	cfg := config.Default()
	if devMode {
		cfg = config.Dev()
	}
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	cfg = config.FromEnv(cfg)
	if dbPath != "" {
		cfg.Server.DBPath = dbPath
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// cliLogger keeps admin commands quiet unless --verbose is set. Errors always reach stderr.
func cliLogger(cmd *cobra.Command) *logger.Logger {
	if verbose {
		return logger.New(cmd.ErrOrStderr(), cmd.ErrOrStderr())
	}
	return logger.New(io.Discard, cmd.ErrOrStderr())
}
