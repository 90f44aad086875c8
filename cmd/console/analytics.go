package main

import (
	"os"

	"github.com/spf13/cobra"

	"modpanel.org/internal/api"
)

var (
	trendDays    int
	trendGroupID int64
	topLimit     int
	topSortBy    string
	exportFormat string
	exportType   string
	exportOut    string
)

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "system and group analytics",
}

func init() {
	analyticsSystemCmd.Flags().StringVar(&statsPeriod, "period", "week", "aggregation window: day, week or month")
	analyticsGroupCmd.Flags().StringVar(&statsPeriod, "period", "week", "aggregation window: day, week or month")
	analyticsTrendsCmd.Flags().IntVar(&trendDays, "days", 30, "number of days to chart")
	analyticsTrendsCmd.Flags().Int64Var(&trendGroupID, "group", 0, "restrict to one group, 0 for all")
	analyticsTopCmd.Flags().IntVar(&topLimit, "limit", 10, "number of users to return")
	analyticsTopCmd.Flags().StringVar(&topSortBy, "sort-by", "actions", "ranking key: actions, warnings or bans")

	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "export format: csv, json or pdf")
	exportCmd.Flags().StringVar(&exportType, "type", "actions", "data set: actions, members or groups")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file, stdout when empty")
}

var analyticsSystemCmd = &cobra.Command{
	Use:   "system",
	Short: "system-wide dashboard aggregate",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newConsole()
		if err != nil {
			return err
		}
		defer c.flush()

		analytics, err := c.client.Analytics.System(cmd.Context(), api.Period(statsPeriod))
		if err != nil {
			return err
		}
		return printJSON(analytics)
	},
}

var analyticsGroupCmd = &cobra.Command{
	Use:   "group <group-id>",
	Short: "analytics for a single group",
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
		stats, err := c.client.Analytics.Group(cmd.Context(), groupID, api.Period(statsPeriod))
		if err != nil {
			return err
		}
		return printJSON(stats)
	},
}

var analyticsTrendsCmd = &cobra.Command{
	Use:   "trends",
	Short: "daily action counts over time",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newConsole()
		if err != nil {
			return err
		}
		defer c.flush()

		points, err := c.client.Analytics.Trends(cmd.Context(), trendDays, trendGroupID)
		if err != nil {
			return err
		}
		return printJSON(points)
	},
}

var analyticsTopCmd = &cobra.Command{
	Use:   "top-users",
	Short: "most-moderated users",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newConsole()
		if err != nil {
			return err
		}
		defer c.flush()

		top, err := c.client.Analytics.TopUsers(cmd.Context(), topLimit, topSortBy)
		if err != nil {
			return err
		}
		return printJSON(top)
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "download a data export",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newConsole()
		if err != nil {
			return err
		}
		defer c.flush()

		data, err := c.client.Util.Export(cmd.Context(), exportFormat, exportType, nil)
		if err != nil {
			c.center.Error("Export failed", err.Error())
			return err
		}
		if exportOut == "" {
			_, err = os.Stdout.Write(data)
			return err
		}
		if err := os.WriteFile(exportOut, data, 0o644); err != nil {
			return err
		}
		c.center.Success("Export written", exportOut)
		return nil
	},
}
