package cmd

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/reelshare/backend/internal/cli/api"
	"github.com/reelshare/backend/internal/cli/output"
	"github.com/spf13/cobra"
)

var (
	flagPermission string
	flagLimit      int
)

var shareCmd = &cobra.Command{
	Use:   "share <list> <user-email>",
	Short: "Share a list with another user",
	Long: `Share a list you own with another ReelShare user by email. Sharing
again with the same user changes their permission.

  reelshare share Weekend alice@example.com
  reelshare share Weekend alice@example.com --permission read`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}

		list, err := resolveList(apiClient, args[0])
		if err != nil {
			return err
		}

		body := map[string]string{"email": args[1], "permission": flagPermission}
		var resp api.Response[api.Share]
		if err := apiClient.Post("/lists/"+list.ID+"/shares", body, &resp); err != nil {
			return fmt.Errorf("sharing: %w", err)
		}

		if flagJSON {
			output.JSON(resp.Data)
			return nil
		}
		fmt.Printf("Shared %s with %s (%s permission)\n", list.Name, args[1], resp.Data.Permission)
		return nil
	},
}

var unshareCmd = &cobra.Command{
	Use:   "unshare <list> <user-email>",
	Short: "Stop sharing a list with a user",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}

		list, err := resolveList(apiClient, args[0])
		if err != nil {
			return err
		}
		if !list.IsOwner {
			return fmt.Errorf("only the owner can change sharing on %q", list.Name)
		}

		var target string
		for _, s := range list.Shares {
			if s.User != nil && strings.EqualFold(s.User.Email, args[1]) {
				target = s.SharedWithUserID
				break
			}
		}
		if target == "" {
			return fmt.Errorf("%s is not shared with %s", list.Name, args[1])
		}

		if err := apiClient.Delete("/lists/"+list.ID+"/shares/"+target, nil); err != nil {
			return fmt.Errorf("revoking share: %w", err)
		}

		fmt.Printf("Stopped sharing %s with %s\n", list.Name, args[1])
		return nil
	},
}

var usersCmd = &cobra.Command{
	Use:   "users <email-fragment>",
	Short: "Find users to share with",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}

		params := url.Values{"q": {args[0]}}
		if flagLimit > 0 {
			params.Set("limit", fmt.Sprint(flagLimit))
		}
		var resp api.Response[[]api.User]
		if err := apiClient.Get("/users/search", params, &resp); err != nil {
			return fmt.Errorf("searching users: %w", err)
		}

		if flagJSON {
			output.JSON(resp.Data)
			return nil
		}
		output.UserTable(resp.Data)
		return nil
	},
}

func init() {
	shareCmd.Flags().StringVar(&flagPermission, "permission", "write", "Permission level: read, write")
	usersCmd.Flags().IntVar(&flagLimit, "limit", 0, "Maximum results (server default 10, max 50)")
	rootCmd.AddCommand(shareCmd, unshareCmd, usersCmd)
}
