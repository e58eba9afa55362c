package cmd

import (
	"bufio"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/reelshare/backend/internal/cli/api"
	"github.com/reelshare/backend/internal/cli/config"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	flagToken    string
	flagEmail    string
	flagPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate with your ReelShare server",
	Long: `Sign in with email and password, or store an access token obtained
from the web app.

  reelshare login
  reelshare login --email ana@example.com
  reelshare login --token eyJhbGciOi...

Servers backed by a hosted auth provider only accept --token.`,
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().StringVar(&flagToken, "token", "", "Access token for direct authentication")
	loginCmd.Flags().StringVar(&flagEmail, "email", "", "Account email")
	loginCmd.Flags().StringVar(&flagPassword, "password", "", "Account password (prompted when omitted)")
	rootCmd.AddCommand(loginCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	if flagToken != "" {
		return loginWithToken(flagToken)
	}
	return loginWithPassword()
}

func loginWithToken(token string) error {
	client := api.NewClient(cfg.ServerURL, token)
	var resp api.Response[api.User]
	if err := client.Get("/auth/me", nil, &resp); err != nil {
		if api.StatusOf(err) == http.StatusUnauthorized {
			return fmt.Errorf("invalid token, server returned 401")
		}
		return fmt.Errorf("validating token: %w", err)
	}

	cfg.Token = token
	cfg.RefreshToken = ""
	cfg.ExpiresAt = time.Time{}
	cfg.Email = resp.Data.Email
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("Logged in as %s\n", resp.Data.Email)
	return nil
}

func loginWithPassword() error {
	reader := bufio.NewReader(os.Stdin)

	email := flagEmail
	if email == "" {
		fmt.Print("Email: ")
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("reading email: %w", err)
		}
		email = strings.TrimSpace(line)
	}

	password := flagPassword
	if password == "" {
		var err error
		password, err = readPassword(reader)
		if err != nil {
			return fmt.Errorf("reading password: %w", err)
		}
	}

	client := api.NewClient(cfg.ServerURL, "")
	var resp api.Response[api.Session]
	err := client.Post("/auth/signin", map[string]string{"email": email, "password": password}, &resp)
	if err != nil {
		switch api.StatusOf(err) {
		case http.StatusUnauthorized:
			return fmt.Errorf("invalid email or password")
		case http.StatusForbidden:
			return fmt.Errorf("email not confirmed, follow the link in your inbox first")
		case http.StatusNotImplemented:
			return fmt.Errorf("this server does not accept passwords, use --token")
		}
		return fmt.Errorf("signing in: %w", err)
	}

	storeSession(resp.Data)
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("Logged in as %s\n", resp.Data.User.Email)
	return nil
}

func readPassword(reader *bufio.Reader) (string, error) {
	fmt.Print("Password: ")
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Println()
		return string(b), err
	}
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
