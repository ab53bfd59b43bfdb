package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"pdharvest/pkg/config"
	"pdharvest/pkg/logger"
	"pdharvest/pkg/ui"
)

var (
	// Version information
	version   = "0.1.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile    string
	logLevel      string
	notifications bool
	quiet         bool
	verbose       bool

	// cfg is loaded once before any subcommand runs
	cfg *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pdharvest",
	Short: "Download every document from a MyPeopleDoc vault",
	Long: `pdharvest signs in to MyPeopleDoc and saves every document of the vault
to a local directory.

Features:
  - CAPTCHA solving through anti-captcha.com or a manual prompt
  - Two-factor codes from the terminal or a watched file
  - Session reuse between runs, stored encrypted or in the system keychain
  - Idempotent downloads keyed by document id
  - A JSON manifest of every run`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}
		// config subcommands load and report on the file themselves
		if cmd.HasParent() && cmd.Parent().Name() == "config" {
			return nil
		}

		loaded, err := config.Load(configFile, collectFlags(cmd))
		if err != nil {
			return err
		}
		cfg = loaded

		if quiet {
			cfg.Logging.Level = "error"
		}
		if err := logger.Initialize(&cfg.Logging); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		if cmd.Name() == "harvest" || !cmd.HasParent() {
			if !quiet {
				ui.PrintLogo()
			}
		}
		return nil
	},
	RunE: runHarvest,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.PrintError("Error", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./.pdharvest.yaml or ~/.config/pdharvest/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&notifications, "notifications", false, "enable desktop notifications")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print one line per document")

	registerHarvestFlags(rootCmd)

	rootCmd.SetVersionTemplate(`pdharvest {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "pdharvest %s (commit: %s, built: %s, %s %s/%s)\n",
			version, gitCommit, buildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}

// collectFlags gathers explicitly set flags into the map config.Load merges
func collectFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	if logLevel != "" {
		flags["log-level"] = logLevel
	}

	fs := cmd.Flags()
	for _, name := range []string{"output", "mode", "captcha-provider", "session-store"} {
		if f := fs.Lookup(name); f != nil && f.Changed {
			flags[name] = f.Value.String()
		}
	}
	if f := fs.Lookup("max-attempts"); f != nil && f.Changed {
		if v, err := fs.GetInt("max-attempts"); err == nil {
			flags["max-attempts"] = v
		}
	}
	return flags
}
