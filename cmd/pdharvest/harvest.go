package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"pdharvest/internal/downloader"
	"pdharvest/pkg/auth"
	"pdharvest/pkg/captcha"
	"pdharvest/pkg/config"
	"pdharvest/pkg/harvester"
	"pdharvest/pkg/logger"
	"pdharvest/pkg/peopledoc"
	"pdharvest/pkg/ratelimit"
	"pdharvest/pkg/session"
	"pdharvest/pkg/storage"
	"pdharvest/pkg/twofactor"
	"pdharvest/pkg/ui"
	"pdharvest/pkg/ui/tui"
)

var (
	accountName string
	useTUI      bool
)

var harvestCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Download every document of the vault",
	Long: `Sign in to MyPeopleDoc (reusing a stored session when it is still valid),
list every document page by page and save the files under the output directory.

Documents already saved by a previous run are skipped.`,
	Example: `  pdharvest harvest
  pdharvest harvest --account jane@example.com --output ~/payslips
  pdharvest harvest --mode interactive --captcha-provider manual
  pdharvest harvest --tui`,
	RunE: runHarvest,
}

func init() {
	registerHarvestFlags(harvestCmd)
	rootCmd.AddCommand(harvestCmd)
}

func registerHarvestFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", "", "output directory")
	cmd.Flags().StringVarP(&accountName, "account", "a", "", "stored account to use (default: first stored account)")
	cmd.Flags().String("mode", "", "two-factor mode (production, interactive)")
	cmd.Flags().String("captcha-provider", "", "captcha provider (anticaptcha, manual)")
	cmd.Flags().String("session-store", "", "session store (file, keyring)")
	cmd.Flags().Int("max-attempts", 0, "download attempts per document")
	cmd.Flags().BoolVar(&useTUI, "tui", false, "show a full-screen dashboard")
}

func runHarvest(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logger.GetLogger()

	account, err := resolveAccount(accountName)
	if err != nil {
		return err
	}

	notifier := ui.NewNotifier(notifications)

	dashboard := useTUI && canUseDashboard(cfg)
	if useTUI && !dashboard {
		ui.PrintWarning("Dashboard disabled: the manual captcha and interactive two-factor prompts need the terminal")
	}

	var progress harvester.Progress
	var dash *tui.TUI
	switch {
	case dashboard:
		dash = tui.NewTUI(account.Username, os.Stdout)
		progress = dash
	case quiet:
		progress = nil
	default:
		progress = ui.NewProgressDisplay(os.Stdout, account.Username, verbose)
	}

	h, cleanup, err := buildHarvester(cfg, notifier, progress, log)
	if err != nil {
		return err
	}
	defer cleanup()

	var report *harvester.Report
	if dash != nil {
		report, err = runWithDashboard(ctx, dash, h, *account)
	} else {
		report, err = h.Run(ctx, *account)
	}

	if err != nil {
		notifier.SendError("PeopleDoc", err.Error())
		if report == nil {
			return err
		}
		ui.PrintWarning("Harvest incomplete", err)
	}

	// A reused session never reaches the authenticator's notification hook
	if notifier.AutoSuccessfulLogin() {
		notifier.NotifySuccessfulLogin()
	}

	if report != nil && report.Failed > 0 {
		notifier.SendError("PeopleDoc", fmt.Sprintf("%d documents failed", report.Failed))
		return fmt.Errorf("%d of %d documents failed", report.Failed, report.Documents)
	}
	if report != nil {
		notifier.SendSuccess("PeopleDoc", fmt.Sprintf("%d documents saved", report.Saved))
	}
	return nil
}

// runWithDashboard drives the bubbletea program on this goroutine while the
// harvest runs alongside it. Quitting the dashboard cancels the harvest.
func runWithDashboard(ctx context.Context, dash *tui.TUI, h *harvester.Harvester, account auth.Account) (*harvester.Report, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type outcome struct {
		report *harvester.Report
		err    error
	}
	done := make(chan outcome, 1)

	go func() {
		report, err := h.Run(ctx, account)
		if err != nil {
			dash.Log("error", "%v", err)
			dash.Stop()
		}
		done <- outcome{report: report, err: err}
	}()

	if err := dash.Start(); err != nil {
		cancel()
		<-done
		return nil, fmt.Errorf("dashboard failed: %w", err)
	}
	cancel()

	out := <-done
	return out.report, out.err
}

// canUseDashboard reports whether nothing in the login flow needs to prompt
// on the terminal
func canUseDashboard(c *config.Config) bool {
	if c.Captcha.Provider == "manual" {
		return false
	}
	mode, err := twofactor.ParseMode(c.TwoFactor.Mode)
	return err == nil && mode != twofactor.Interactive
}

func resolveAccount(name string) (*auth.Account, error) {
	manager, err := auth.NewManager()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	if name != "" {
		account, err := manager.Retrieve(name)
		if err != nil {
			return nil, fmt.Errorf("no stored credentials for %s (run 'pdharvest auth login'): %w", name, err)
		}
		return account, nil
	}

	account, err := manager.RetrieveDefault()
	if err != nil {
		return nil, fmt.Errorf("no stored credentials (run 'pdharvest auth login' or set PDHARVEST_USERNAME/PDHARVEST_PASSWORD): %w", err)
	}
	return account, nil
}

// buildHarvester wires every component of a run from configuration. The
// returned cleanup closes the document index.
func buildHarvester(c *config.Config, notifier peopledoc.LoginNotifier, progress harvester.Progress, log logger.Logger) (*harvester.Harvester, func(), error) {
	client, err := newClient(c, log)
	if err != nil {
		return nil, nil, err
	}

	solver, err := captcha.New(c.Captcha, log)
	if err != nil {
		return nil, nil, fmt.Errorf("captcha: %w", err)
	}

	codes, err := newCodeChannel(c, log)
	if err != nil {
		return nil, nil, err
	}

	sessions, err := session.NewStore(c.Session)
	if err != nil {
		return nil, nil, fmt.Errorf("session store: %w", err)
	}

	store, err := storage.NewManager(c.Output.BaseDirectory, c.Output.IndexPath)
	if err != nil {
		return nil, nil, err
	}

	authenticator := peopledoc.NewAuthenticator(client, solver, codes, sessions, notifier, log).
		WithSiteKey(c.PeopleDoc.SiteKey)
	paginator := peopledoc.NewPaginator(client, c.PeopleDoc.PageSize, log)
	saver := downloader.New(client, store, downloader.Options{
		MaxAttempts: c.Download.MaxAttempts,
		Timeout:     c.Download.Timeout,
	}, log)

	opts := harvester.Options{
		BaseURL:  client.BaseURL(),
		Progress: progress,
	}
	if c.Output.WriteManifest {
		opts.ManifestDir = c.Output.BaseDirectory
	}

	cleanup := func() {
		if err := store.Close(); err != nil {
			log.WithError(err).Warn("failed to close document index")
		}
	}
	return harvester.New(authenticator, paginator, saver, opts, log), cleanup, nil
}

func newClient(c *config.Config, log logger.Logger) (*peopledoc.Client, error) {
	limiter := ratelimit.New(c.RateLimit.RequestsPerSecond, c.RateLimit.Burst)
	client, err := peopledoc.NewClient(c.PeopleDoc, limiter, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return client, nil
}

// newCodeChannel builds the two-factor channel. Production mode watches
// ~/.config/pdharvest/2fa-code unless a code file is configured.
func newCodeChannel(c *config.Config, log logger.Logger) (twofactor.Channel, error) {
	mode, err := twofactor.ParseMode(c.TwoFactor.Mode)
	if err != nil {
		return nil, err
	}

	codeFile := c.TwoFactor.CodeFile
	if mode != twofactor.Interactive && codeFile == "" {
		dir, err := auth.ConfigDir()
		if err != nil {
			return nil, err
		}
		codeFile = filepath.Join(dir, "2fa-code")
	}
	return twofactor.New(mode, codeFile, os.Stdin, os.Stderr, log)
}
