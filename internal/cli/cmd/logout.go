package cmd

import (
	"fmt"

	"github.com/reelshare/backend/internal/cli/config"
	"github.com/spf13/cobra"
)

var flagPurge bool

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget stored credentials",
	Long: `Sign out of the server and drop the stored tokens. The server URL
is kept unless --purge is given, which deletes the config file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.HasToken() {
			// Best effort: an expired session is already gone server side.
			_ = apiClient.Post("/auth/signout", nil, nil)
		}

		if flagPurge {
			if err := config.Clear(); err != nil {
				return fmt.Errorf("removing config: %w", err)
			}
		} else {
			email := cfg.Email
			*cfg = config.Config{ServerURL: cfg.ServerURL}
			if err := config.Save(cfg); err != nil {
				return fmt.Errorf("saving config: %w", err)
			}
			if email != "" {
				fmt.Printf("Logged out %s.\n", email)
				return nil
			}
		}
		fmt.Println("Logged out.")
		return nil
	},
}

func init() {
	logoutCmd.Flags().BoolVar(&flagPurge, "purge", false, "Delete the config file, including the server URL")
	rootCmd.AddCommand(logoutCmd)
}
