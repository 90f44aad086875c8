package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login <user-id> <username>",
	Short: "authenticate against the backend and persist the session",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newConsole()
		if err != nil {
			return err
		}
		defer c.flush()

		userID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("user-id must be numeric: %v", err)
		}

		user, err := c.session.Login(cmd.Context(), userID, args[1])
		if err != nil {
			c.center.Error("Login failed", c.session.Err())
			return err
		}
		c.center.Success("Logged in", fmt.Sprintf("welcome back, %s", user.Username))
		return printJSON(user)
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "end the session and clear stored credentials",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newConsole()
		if err != nil {
			return err
		}
		defer c.flush()

		c.session.Logout(cmd.Context())
		c.center.Info("Logged out", "session cleared, preferences kept")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "show the authenticated user from the stored session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newConsole()
		if err != nil {
			return err
		}
		defer c.flush()

		c.session.CheckAuth(cmd.Context())
		if !c.session.IsAuthenticated() {
			if msg := c.session.Err(); msg != "" {
				return fmt.Errorf("%s", msg)
			}
			return fmt.Errorf("not logged in")
		}
		return printJSON(c.session.User())
	},
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "exchange the current token for a fresh one",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newConsole()
		if err != nil {
			return err
		}
		defer c.flush()

		if err := c.session.Refresh(cmd.Context()); err != nil {
			return err
		}
		c.center.Success("Token refreshed", "")
		return printJSON(c.session.User())
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "log out and wipe all stored state, preferences included",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newConsole()
		if err != nil {
			return err
		}
		defer c.flush()

		c.session.FullReset(cmd.Context())
		c.center.Warning("State wiped", "all stored keys removed")
		return nil
	},
}
