package cmd

import (
	"github.com/reelshare/backend/internal/cli/api"
	"github.com/reelshare/backend/internal/cli/output"
	"github.com/spf13/cobra"
)

// Version is the CLI version, injected at build time:
//
//	go build -ldflags "-X github.com/reelshare/backend/internal/cli/cmd.Version=1.2.3"
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show CLI and server version",
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp api.Response[api.VersionInfo]
		var server *api.VersionInfo
		serverErr := apiClient.Get("/version", nil, &resp)
		if serverErr == nil {
			server = &resp.Data
		}

		if !flagJSON {
			output.VersionInfo(Version, server)
			return nil
		}

		out := struct {
			CLIVersion string           `json:"cliVersion"`
			ServerURL  string           `json:"serverUrl"`
			Server     *api.VersionInfo `json:"server,omitempty"`
			Error      string           `json:"serverError,omitempty"`
		}{CLIVersion: Version, ServerURL: cfg.ServerURL, Server: server}
		if serverErr != nil {
			out.Error = serverErr.Error()
		}
		output.JSON(out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
