package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/reelshare/backend/internal/cli/api"
	"github.com/reelshare/backend/internal/cli/output"
	"github.com/spf13/cobra"
)

var (
	flagSharedOnly  bool
	flagOwnedOnly   bool
	flagDescription string
	flagCategory    string
	flagName        string
	flagForce       bool
)

var listsCmd = &cobra.Command{
	Use:     "lists",
	Aliases: []string{"ls"},
	Short:   "List your watchlists and the ones shared with you",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}

		var resp api.Response[[]api.List]
		if err := apiClient.Get("/lists", nil, &resp); err != nil {
			return fmt.Errorf("listing lists: %w", err)
		}

		lists := resp.Data[:0:0]
		for _, l := range resp.Data {
			if (flagSharedOnly && l.IsOwner) || (flagOwnedOnly && !l.IsOwner) {
				continue
			}
			lists = append(lists, l)
		}

		if flagJSON {
			output.JSON(lists)
			return nil
		}
		output.ListTable(lists)
		return nil
	},
}

var createCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a watchlist",
	Long: `Create a new watchlist you own.

  reelshare create "Weekend"
  reelshare create "Shows to binge" --category tv --description "for the holidays"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}

		body := map[string]interface{}{"name": args[0]}
		if cmd.Flags().Changed("description") {
			body["description"] = flagDescription
		}
		if flagCategory != "" {
			body["category"] = flagCategory
		}

		var resp api.Response[api.List]
		if err := apiClient.Post("/lists", body, &resp); err != nil {
			return fmt.Errorf("creating list: %w", err)
		}

		if flagJSON {
			output.JSON(resp.Data)
			return nil
		}
		fmt.Printf("Created %q (%s)\n", resp.Data.Name, resp.Data.ID)
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <list>",
	Short: "Show a list and its titles",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}

		list, err := resolveList(apiClient, args[0])
		if err != nil {
			return err
		}

		var resp api.Response[api.List]
		if err := apiClient.Get("/lists/"+list.ID, nil, &resp); err != nil {
			return fmt.Errorf("fetching list: %w", err)
		}

		if flagJSON {
			output.JSON(resp.Data)
			return nil
		}
		output.ListDetail(resp.Data)
		return nil
	},
}

var updateCmd = &cobra.Command{
	Use:   "update <list>",
	Short: "Rename a list or change its description or category",
	Long: `Change list fields. Only the flags you pass are sent.

  reelshare update Weekend --name "Long weekend"
  reelshare update Weekend --description ""      Clear the description`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}

		body := map[string]interface{}{}
		if cmd.Flags().Changed("name") {
			body["name"] = flagName
		}
		if cmd.Flags().Changed("description") {
			body["description"] = flagDescription
		}
		if cmd.Flags().Changed("category") {
			body["category"] = flagCategory
		}
		if len(body) == 0 {
			return fmt.Errorf("nothing to update, pass --name, --description or --category")
		}

		list, err := resolveList(apiClient, args[0])
		if err != nil {
			return err
		}

		var resp api.Response[api.List]
		if err := apiClient.Put("/lists/"+list.ID, body, &resp); err != nil {
			return fmt.Errorf("updating list: %w", err)
		}

		if flagJSON {
			output.JSON(resp.Data)
			return nil
		}
		fmt.Printf("Updated %q\n", resp.Data.Name)
		return nil
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm <list>",
	Short: "Delete a list you own",
	Long: `Delete a list together with its titles and shares.

  reelshare rm Weekend
  reelshare rm Weekend --force       Skip confirmation

This cannot be undone.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}

		list, err := resolveList(apiClient, args[0])
		if err != nil {
			return err
		}
		if !list.IsOwner {
			return fmt.Errorf("only the owner can delete %q", list.Name)
		}

		if !flagForce {
			fmt.Printf("Delete %q with %d title(s)? This cannot be undone. [y/N] ", list.Name, len(list.Items))
			answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
			answer = strings.TrimSpace(strings.ToLower(answer))
			if answer != "y" && answer != "yes" {
				fmt.Println("Cancelled.")
				return nil
			}
		}

		if err := apiClient.Delete("/lists/"+list.ID, nil); err != nil {
			return fmt.Errorf("deleting: %w", err)
		}

		fmt.Printf("Deleted: %s\n", list.Name)
		return nil
	},
}

func init() {
	listsCmd.Flags().BoolVar(&flagSharedOnly, "shared", false, "Only lists shared with you")
	listsCmd.Flags().BoolVar(&flagOwnedOnly, "mine", false, "Only lists you own")
	listsCmd.MarkFlagsMutuallyExclusive("shared", "mine")

	createCmd.Flags().StringVar(&flagDescription, "description", "", "List description")
	createCmd.Flags().StringVar(&flagCategory, "category", "", "Category: movies, tv, both (default both)")

	updateCmd.Flags().StringVar(&flagName, "name", "", "New name")
	updateCmd.Flags().StringVar(&flagDescription, "description", "", "New description, empty to clear")
	updateCmd.Flags().StringVar(&flagCategory, "category", "", "Category: movies, tv, both")

	rmCmd.Flags().BoolVarP(&flagForce, "force", "f", false, "Skip confirmation prompt")

	rootCmd.AddCommand(listsCmd, createCmd, showCmd, updateCmd, rmCmd)
}
