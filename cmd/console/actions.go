package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"modpanel.org/internal/api"
	"modpanel.org/internal/session"
)

var (
	actGroupID  int64
	actReason   string
	actDuration int64
	actTitle    string
	batchFile   string
)

var actCmd = &cobra.Command{
	Use:   "act",
	Short: "issue moderation actions",
}

// actionCommands builds one subcommand per moderation verb. They share the
// flag set and differ only in which adapter call they make.
func actionCommands() []*cobra.Command {
	type verb struct {
		use   string
		short string
		run   func(c *console, cmd *cobra.Command, user string) (*api.ActionResult, error)
	}
	verbs := []verb{
		{"ban <user>", "permanently ban a user from a group", func(c *console, cmd *cobra.Command, user string) (*api.ActionResult, error) {
			return c.client.Actions.Ban(cmd.Context(), actGroupID, user, actReason)
		}},
		{"kick <user>", "remove a user from a group", func(c *console, cmd *cobra.Command, user string) (*api.ActionResult, error) {
			return c.client.Actions.Kick(cmd.Context(), actGroupID, user, actReason)
		}},
		{"mute <user>", "mute a user, optionally for a limited time", func(c *console, cmd *cobra.Command, user string) (*api.ActionResult, error) {
			return c.client.Actions.Mute(cmd.Context(), actGroupID, user, actDuration, actReason)
		}},
		{"unmute <user>", "lift a mute", func(c *console, cmd *cobra.Command, user string) (*api.ActionResult, error) {
			return c.client.Actions.Unmute(cmd.Context(), actGroupID, user)
		}},
		{"restrict <user>", "restrict a user's permissions", func(c *console, cmd *cobra.Command, user string) (*api.ActionResult, error) {
			return c.client.Actions.Restrict(cmd.Context(), actGroupID, user, actDuration, actReason)
		}},
		{"unrestrict <user>", "lift a restriction", func(c *console, cmd *cobra.Command, user string) (*api.ActionResult, error) {
			return c.client.Actions.Unrestrict(cmd.Context(), actGroupID, user)
		}},
		{"warn <user>", "issue a warning", func(c *console, cmd *cobra.Command, user string) (*api.ActionResult, error) {
			return c.client.Actions.Warn(cmd.Context(), actGroupID, user, actReason)
		}},
		{"promote <user>", "promote a user to group admin", func(c *console, cmd *cobra.Command, user string) (*api.ActionResult, error) {
			return c.client.Actions.Promote(cmd.Context(), actGroupID, user, actTitle)
		}},
		{"demote <user>", "demote a group admin", func(c *console, cmd *cobra.Command, user string) (*api.ActionResult, error) {
			return c.client.Actions.Demote(cmd.Context(), actGroupID, user)
		}},
		{"unban <user>", "lift a ban", func(c *console, cmd *cobra.Command, user string) (*api.ActionResult, error) {
			return c.client.Actions.Unban(cmd.Context(), actGroupID, user)
		}},
	}

	cmds := make([]*cobra.Command, 0, len(verbs))
	for _, v := range verbs {
		run := v.run
		cmd := &cobra.Command{
			Use:   v.use,
			Short: v.short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := newConsole()
				if err != nil {
					return err
				}
				defer c.flush()

				if err := checkModerateAccess(c); err != nil {
					return err
				}
				result, err := run(c, cmd, args[0])
				if err != nil {
					c.center.Error("Action failed", err.Error())
					return err
				}
				c.center.Success("Action completed", result.Message)
				return printJSON(result)
			},
		}
		cmd.Flags().Int64VarP(&actGroupID, "group", "g", 0, "target group id")
		cmd.Flags().StringVarP(&actReason, "reason", "r", "", "reason recorded with the action")
		cmd.Flags().Int64VarP(&actDuration, "duration", "d", 0, "duration in seconds, 0 means indefinite")
		cmd.Flags().StringVar(&actTitle, "title", "", "custom admin title for promotions")
		_ = cmd.MarkFlagRequired("group")
		cmds = append(cmds, cmd)
	}
	return cmds
}

// checkModerateAccess rejects an action locally when the stored session is
// present and visibly lacks the permission. An absent session is left to the
// backend so its error message stays authoritative.
func checkModerateAccess(c *console) error {
	c.session.CheckAuth(context.Background())
	user := c.session.User()
	if user == nil {
		return nil
	}
	if !user.HasPermission("moderate", session.ScopeAny) && !user.HasRole(session.RoleSuperadmin) {
		return fmt.Errorf("permission denied")
	}
	if actGroupID != 0 && !user.CanManageGroup(actGroupID) {
		return fmt.Errorf("you do not manage group %d", actGroupID)
	}
	return nil
}

var batchCmd = &cobra.Command{
	Use:   "batch <file.json>",
	Short: "run several actions from a JSON file",
	Long:  "The file holds an array of objects with group_id, user_input, action_type and optional reason and duration fields.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newConsole()
		if err != nil {
			return err
		}
		defer c.flush()

		raw, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		var items []api.BatchItem
		if err := json.Unmarshal(raw, &items); err != nil {
			return fmt.Errorf("parse %s: %v", args[0], err)
		}
		result, err := c.client.Actions.Batch(cmd.Context(), items)
		if err != nil {
			c.center.Error("Batch failed", err.Error())
			return err
		}
		if result.Failed > 0 {
			c.center.Warning("Batch finished with failures",
				fmt.Sprintf("%d of %d actions failed", result.Failed, result.Total))
		} else {
			c.center.Success("Batch completed", fmt.Sprintf("%d actions", result.Total))
		}
		return printJSON(result)
	},
}

var actionStatusCmd = &cobra.Command{
	Use:   "status <action-id>",
	Short: "look up one action by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newConsole()
		if err != nil {
			return err
		}
		defer c.flush()

		action, err := c.client.Actions.Status(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(action)
	},
}

var userHistoryCmd = &cobra.Command{
	Use:   "user-history <user-id>",
	Short: "list actions taken against a user across groups",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newConsole()
		if err != nil {
			return err
		}
		defer c.flush()

		userID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("user id must be numeric: %v", err)
		}
		history, err := c.client.Actions.UserHistory(cmd.Context(), userID, historyLimit, nil)
		if err != nil {
			return err
		}
		return printJSON(history)
	},
}

func init() {
	userHistoryCmd.Flags().IntVar(&historyLimit, "limit", 50, "maximum history entries")
}
