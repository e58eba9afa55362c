package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/reelshare/backend/internal/cli/api"
	"github.com/reelshare/backend/internal/cli/config"
	"github.com/spf13/cobra"
)

var (
	flagJSON      bool
	flagServerURL string

	cfg       *config.Config
	apiClient *api.Client
)

var rootCmd = &cobra.Command{
	Use:   "reelshare",
	Short: "ReelShare CLI: manage shared watchlists from the terminal",
	Long: `ReelShare CLI lets you build movie and TV watchlists, share them
with friends and search the title catalog without leaving the terminal.

Get started:
  reelshare login                    Sign in with email and password
  reelshare create "Weekend"         Create a list
  reelshare search "fight club"      Find a title
  reelshare add Weekend movie 550    Add it to the list`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg.ApplyEnv()
		if flagServerURL != "" {
			cfg.ServerURL = flagServerURL
		}
		if cfg.NeedsRefresh(time.Now()) {
			if err := refreshSession(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: session refresh failed (%v), run \"reelshare login\" if requests are rejected\n", err)
			}
		}
		api.UserAgent = "reelshare-cli/" + Version
		apiClient = api.NewClient(cfg.ServerURL, cfg.Token)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().StringVar(&flagServerURL, "server", "", "Override server URL (default: from config or http://localhost:8080)")
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

// refreshSession renews an expired access token and persists the new pair.
func refreshSession() error {
	client := api.NewClient(cfg.ServerURL, "")
	var resp api.Response[api.Session]
	if err := client.Post("/auth/refresh", map[string]string{"refresh_token": cfg.RefreshToken}, &resp); err != nil {
		return err
	}
	storeSession(resp.Data)
	return config.Save(cfg)
}

func storeSession(s api.Session) {
	cfg.Token = s.AccessToken
	if s.RefreshToken != "" {
		cfg.RefreshToken = s.RefreshToken
	}
	cfg.ExpiresAt = s.ExpiresAt
	cfg.Email = s.User.Email
}

func requireAuth() error {
	if cfg == nil || !cfg.HasToken() {
		return fmt.Errorf("not authenticated, run \"reelshare login\" first")
	}
	return nil
}
