package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"modpanel.org/internal/api"
)

var (
	groupsPage     int
	groupsPageSize int
	statsPeriod    string
	historyLimit   int
)

var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "inspect managed groups and their members",
}

func init() {
	groupsListCmd.Flags().IntVar(&groupsPage, "page", 1, "page number")
	groupsListCmd.Flags().IntVar(&groupsPageSize, "page-size", 20, "entries per page")
	groupsMembersCmd.Flags().IntVar(&groupsPage, "page", 1, "page number")
	groupsMembersCmd.Flags().IntVar(&groupsPageSize, "page-size", 50, "entries per page")
	groupsStatsCmd.Flags().StringVar(&statsPeriod, "period", "week", "aggregation window: day, week or month")
	groupsHistoryCmd.Flags().IntVar(&historyLimit, "limit", 50, "maximum history entries")
}

func parseGroupID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("group id must be a positive number, got %q", arg)
	}
	return id, nil
}

var groupsListCmd = &cobra.Command{
	Use:   "list",
	Short: "list groups visible to the current user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newConsole()
		if err != nil {
			return err
		}
		defer c.flush()

		list, err := c.client.Groups.List(cmd.Context(), groupsPage, groupsPageSize, nil)
		if err != nil {
			return err
		}
		return printJSON(list)
	},
}

var groupsGetCmd = &cobra.Command{
	Use:   "get <group-id>",
	Short: "show one group",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newConsole()
		if err != nil {
			return err
		}
		defer c.flush()

		groupID, err := parseGroupID(args[0])
		if err != nil {
			return err
		}
		group, err := c.client.Groups.Get(cmd.Context(), groupID)
		if err != nil {
			return err
		}
		return printJSON(group)
	},
}

var groupsStatsCmd = &cobra.Command{
	Use:   "stats <group-id>",
	Short: "show moderation statistics for a group",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newConsole()
		if err != nil {
			return err
		}
		defer c.flush()

		groupID, err := parseGroupID(args[0])
		if err != nil {
			return err
		}
		stats, err := c.client.Groups.Stats(cmd.Context(), groupID, api.Period(statsPeriod))
		if err != nil {
			return err
		}
		return printJSON(stats)
	},
}

var groupsMembersCmd = &cobra.Command{
	Use:   "members <group-id>",
	Short: "list group members",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newConsole()
		if err != nil {
			return err
		}
		defer c.flush()

		groupID, err := parseGroupID(args[0])
		if err != nil {
			return err
		}
		members, err := c.client.Groups.Members(cmd.Context(), groupID, groupsPage, groupsPageSize)
		if err != nil {
			return err
		}
		return printJSON(members)
	},
}

var groupsSearchCmd = &cobra.Command{
	Use:   "search <group-id> <query>",
	Short: "search members by name or id",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newConsole()
		if err != nil {
			return err
		}
		defer c.flush()

		groupID, err := parseGroupID(args[0])
		if err != nil {
			return err
		}
		members, err := c.client.Groups.SearchMembers(cmd.Context(), groupID, args[1])
		if err != nil {
			return err
		}
		return printJSON(members)
	},
}

var groupsHistoryCmd = &cobra.Command{
	Use:   "history <group-id> <user-id>",
	Short: "show the moderation history of a member",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newConsole()
		if err != nil {
			return err
		}
		defer c.flush()

		groupID, err := parseGroupID(args[0])
		if err != nil {
			return err
		}
		userID, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("user id must be numeric: %v", err)
		}
		history, err := c.client.Groups.MemberHistory(cmd.Context(), groupID, userID, historyLimit)
		if err != nil {
			return err
		}
		return printJSON(history)
	},
}
