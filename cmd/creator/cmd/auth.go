package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/jrsteele09/creator-relay/session"
	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in through the browser authorization page",
	Long: "Prints the authorization URL. After approving, paste the full URL the " +
		"browser was redirected to.",
	RunE: func(cmd *cobra.Command, args []string) error {
		authURL, err := client.GetAuthURL()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Open this URL in a browser:\n\n  %s\n\nRedirected URL: ", authURL)

		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && strings.TrimSpace(line) == "" {
			return fmt.Errorf("read redirect: %w", err)
		}
		redirected, err := url.Parse(strings.TrimSpace(line))
		if err != nil {
			return fmt.Errorf("parse redirect: %w", err)
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		if _, err := client.HandleRedirect(ctx, redirected.Query()); err != nil {
			return err
		}
		fmt.Fprintln(out, "Logged in.")
		return nil
	},
}

var qrLoginCmd = &cobra.Command{
	Use:   "qr-login",
	Short: "Log in by scanning a QR code with the mobile app",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		out := cmd.OutOrStdout()
		login, err := client.StartQRLogin(ctx, func(s session.QRState) {
			fmt.Fprintf(cmd.ErrOrStderr(), "QR login: %s\n", s)
		})
		if err != nil {
			return err
		}
		defer login.Stop()
		fmt.Fprintf(out, "Scan this URL as a QR code:\n\n  %s\n\n", login.Session.ScanURL)

		res, err := login.Wait(ctx)
		if err != nil {
			return err
		}
		if res.State != session.QRStateDone {
			return fmt.Errorf("qr login ended in state %s", res.State)
		}
		fmt.Fprintln(out, "Logged in.")
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored tokens",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := client.Logout(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether a token is stored",
	RunE: func(cmd *cobra.Command, args []string) error {
		if client.IsAuthenticated() {
			fmt.Fprintln(cmd.OutOrStdout(), "authenticated")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), "not authenticated")
		return nil
	},
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Exchange the stored refresh token for a new pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		if _, err := client.RefreshAccessToken(ctx); err != nil {
			var apiErr *session.APIError
			if errors.As(err, &apiErr) && apiErr.Status != 0 {
				return fmt.Errorf("refresh rejected (HTTP %d): %w", apiErr.Status, err)
			}
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Token refreshed.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd, qrLoginCmd, logoutCmd, statusCmd, refreshCmd)
}
