package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"pdharvest/pkg/logger"
	"pdharvest/pkg/session"
	"pdharvest/pkg/ui"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect or clear the saved login session",
}

var sessionCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check whether the saved session is still accepted",
	Long: `Restore the saved session for the account and ask MyPeopleDoc whether it
is still authenticated. No login is attempted.`,
	Args: cobra.NoArgs,
	RunE: runSessionCheck,
}

var sessionClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget the saved session so the next harvest logs in again",
	Args:  cobra.NoArgs,
	RunE:  runSessionClear,
}

func init() {
	for _, c := range []*cobra.Command{sessionCheckCmd, sessionClearCmd} {
		c.Flags().StringVarP(&accountName, "account", "a", "", "stored account (default: first stored account)")
		c.Flags().String("session-store", "", "session store (file, keyring)")
	}
	sessionCmd.AddCommand(sessionCheckCmd)
	sessionCmd.AddCommand(sessionClearCmd)
	rootCmd.AddCommand(sessionCmd)
}

func runSessionCheck(cmd *cobra.Command, args []string) error {
	account, err := resolveAccount(accountName)
	if err != nil {
		return err
	}

	store, err := session.NewStore(cfg.Session)
	if err != nil {
		return fmt.Errorf("session store: %w", err)
	}

	saved, err := store.Load(account.Username)
	if errors.Is(err, session.ErrNoSession) {
		ui.PrintWarning(fmt.Sprintf("No saved session for %s", account.Username))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}

	client, err := newClient(cfg, logger.GetLogger())
	if err != nil {
		return err
	}
	if err := client.Restore(saved); err != nil {
		return fmt.Errorf("failed to restore session: %w", err)
	}

	ui.PrintInfo("Account", account.Username)
	ui.PrintInfo("Saved", saved.SavedAt.Format("2006-01-02 15:04:05"))
	if client.IsSessionValid(cmd.Context()) {
		ui.PrintSuccess("Session is valid")
	} else {
		ui.PrintWarning("Session expired; the next harvest will log in again")
	}
	return nil
}

func runSessionClear(cmd *cobra.Command, args []string) error {
	account, err := resolveAccount(accountName)
	if err != nil {
		return err
	}

	store, err := session.NewStore(cfg.Session)
	if err != nil {
		return fmt.Errorf("session store: %w", err)
	}
	if err := store.Clear(account.Username); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	ui.PrintSuccess(fmt.Sprintf("Cleared saved session for %s", account.Username))
	return nil
}
