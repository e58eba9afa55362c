package cmd

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/reelshare/backend/internal/cli/api"
	"github.com/reelshare/backend/internal/cli/output"
	"github.com/spf13/cobra"
)

var (
	flagUnread   bool
	flagMarkRead bool
	flagPage     int
)

var activityCmd = &cobra.Command{
	Use:     "activity",
	Aliases: []string{"feed"},
	Short:   "Show what happened on your lists",
	Long: `Show the activity feed: lists shared with you and changes others
made to lists you can see. Unread entries are marked with *.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}

		params := url.Values{}
		params.Set("page", strconv.Itoa(flagPage))
		if flagUnread {
			params.Set("unread", "true")
		}

		var resp api.Response[[]api.Activity]
		if err := apiClient.Get("/activities", params, &resp); err != nil {
			return fmt.Errorf("loading activity: %w", err)
		}

		if flagMarkRead {
			if err := apiClient.Put("/activities/read-all", nil, nil); err != nil {
				return fmt.Errorf("marking activity as read: %w", err)
			}
		}

		if flagJSON {
			output.JSON(resp.Data)
			return nil
		}

		output.ActivityTable(resp.Data)
		if p := resp.Pagination; p != nil && p.TotalPages > p.Page {
			fmt.Fprintf(output.Writer, "\nPage %d of %d, use --page %d for more.\n", p.Page, p.TotalPages, p.Page+1)
		}
		return nil
	},
}

func init() {
	activityCmd.Flags().BoolVar(&flagUnread, "unread", false, "Only show unread entries")
	activityCmd.Flags().BoolVar(&flagMarkRead, "mark-read", false, "Mark everything as read after listing")
	activityCmd.Flags().IntVar(&flagPage, "page", 1, "Page to show")
	rootCmd.AddCommand(activityCmd)
}
