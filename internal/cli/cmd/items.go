package cmd

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/reelshare/backend/internal/cli/api"
	"github.com/reelshare/backend/internal/cli/output"
	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add <list> <movie|tv> <tmdb-id>",
	Short: "Add a title to a list",
	Long: `Add a movie or show to a list by its catalog id. Title, poster, rating
and genres are looked up first. Adding a title that is already on the list
refreshes its details.

  reelshare search "fight club"
  reelshare add Weekend movie 550`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}

		mediaType := args[1]
		if mediaType != "movie" && mediaType != "tv" {
			return fmt.Errorf("type must be movie or tv, got %q", mediaType)
		}
		tmdbID, err := strconv.ParseInt(args[2], 10, 64)
		if err != nil || tmdbID <= 0 {
			return fmt.Errorf("invalid tmdb id %q", args[2])
		}

		list, err := resolveList(apiClient, args[0])
		if err != nil {
			return err
		}

		item, err := lookupTitle(apiClient, mediaType, tmdbID)
		if err != nil {
			return err
		}

		var resp api.Response[api.Item]
		if err := apiClient.Post("/lists/"+list.ID+"/items", item, &resp); err != nil {
			return fmt.Errorf("adding title: %w", err)
		}

		if flagJSON {
			output.JSON(resp.Data)
			return nil
		}
		fmt.Printf("Added %q to %s\n", resp.Data.Title, list.Name)
		return nil
	},
}

var removeItemCmd = &cobra.Command{
	Use:   "remove-item <list> <tmdb-id>",
	Short: "Remove a title from a list",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}

		tmdbID, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil || tmdbID <= 0 {
			return fmt.Errorf("invalid tmdb id %q", args[1])
		}

		list, err := resolveList(apiClient, args[0])
		if err != nil {
			return err
		}

		path := fmt.Sprintf("/lists/%s/items/%d", list.ID, tmdbID)
		if err := apiClient.Delete(path, nil); err != nil {
			return fmt.Errorf("removing title: %w", err)
		}

		fmt.Printf("Removed %d from %s\n", tmdbID, list.Name)
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the movie and TV catalog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp api.SearchResponse
		if err := apiClient.Get("/search", url.Values{"q": {args[0]}}, &resp); err != nil {
			return fmt.Errorf("searching: %w", err)
		}

		if flagJSON {
			output.JSON(resp.Results)
			return nil
		}
		output.SearchTable(resp.Results)
		return nil
	},
}

// lookupTitle builds the item payload from the catalog. A catalog outage
// still lets the add go through with the id as the title.
func lookupTitle(client *api.Client, mediaType string, tmdbID int64) (api.Item, error) {
	item := api.Item{TMDBID: tmdbID, Type: mediaType}

	var resp api.Response[api.TitleDetails]
	err := client.Get(fmt.Sprintf("/titles/%s/%d", mediaType, tmdbID), nil, &resp)
	if err != nil {
		if api.StatusOf(err) == http.StatusNotFound {
			return item, fmt.Errorf("no %s with id %d in the catalog", mediaType, tmdbID)
		}
		item.Title = fmt.Sprintf("%s %d", mediaType, tmdbID)
		return item, nil
	}

	d := resp.Data
	item.Title = d.DisplayTitle
	item.PosterPath = d.Title.PosterPath
	item.BackdropPath = d.Title.BackdropPath
	item.Rating = d.Title.VoteAverage
	item.Genre = d.Genres
	date := d.Title.ReleaseDate
	if date == "" {
		date = d.Title.FirstAirDate
	}
	if date != "" {
		item.ReleaseDate = &date
	}
	return item, nil
}

func init() {
	rootCmd.AddCommand(addCmd, removeItemCmd, searchCmd)
}
