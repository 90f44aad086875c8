package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"modpanel.org/internal/api"
	"modpanel.org/internal/settings"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "view and change console preferences",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "print the current preferences and dashboard layout",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newConsole()
		if err != nil {
			return err
		}
		defer c.flush()

		return printJSON(struct {
			Settings      settings.Settings      `json:"settings"`
			Customization settings.Customization `json:"customization"`
		}{c.settings.Settings(), c.settings.Customization()})
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "change one preference field",
	Long: `Recognized keys: theme, notifications, email_notifications,
session_timeout, language, timezone, confirmations, auto_refresh,
refresh_interval.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newConsole()
		if err != nil {
			return err
		}
		defer c.flush()

		upd, err := settingsPatch(args[0], args[1])
		if err != nil {
			return err
		}
		updated, err := c.settings.Update(upd)
		if err != nil {
			return err
		}
		c.center.Success("Settings saved", args[0])
		return printJSON(updated)
	},
}

func settingsPatch(key, value string) (settings.SettingsUpdate, error) {
	var upd settings.SettingsUpdate
	boolVal := func() (*bool, error) {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("%s expects true or false, got %q", key, value)
		}
		return &b, nil
	}
	intVal := func() (*int, error) {
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("%s expects a positive number, got %q", key, value)
		}
		return &n, nil
	}

	var err error
	switch key {
	case "theme":
		if value != "light" && value != "dark" {
			return upd, fmt.Errorf("theme must be light or dark")
		}
		upd.Theme = &value
	case "notifications":
		upd.NotificationsEnabled, err = boolVal()
	case "email_notifications":
		upd.EmailNotifications, err = boolVal()
	case "session_timeout":
		upd.SessionTimeout, err = intVal()
	case "language":
		upd.Language = &value
	case "timezone":
		upd.Timezone = &value
	case "confirmations":
		upd.ShowConfirmations, err = boolVal()
	case "auto_refresh":
		upd.AutoRefreshDashboard, err = boolVal()
	case "refresh_interval":
		upd.RefreshInterval, err = intVal()
	default:
		return upd, fmt.Errorf("unknown settings key %q", key)
	}
	return upd, err
}

var settingsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "restore default preferences and layout",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newConsole()
		if err != nil {
			return err
		}
		defer c.flush()

		if err := c.settings.Reset(); err != nil {
			return err
		}
		c.center.Info("Settings reset", "defaults restored")
		return printJSON(c.settings.Settings())
	},
}

var (
	filterAction string
	filterStatus string
	filterGroup  int64
)

var filtersCmd = &cobra.Command{
	Use:   "filters",
	Short: "manage saved listing filters",
}

func init() {
	filtersAddCmd.Flags().StringVar(&filterAction, "action-type", "", "filter by action type")
	filtersAddCmd.Flags().StringVar(&filterStatus, "status", "", "filter by action status")
	filtersAddCmd.Flags().Int64Var(&filterGroup, "group", 0, "filter by group id")
}

var filtersAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "save the given filter flags under a name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newConsole()
		if err != nil {
			return err
		}
		defer c.flush()

		saved, err := c.settings.AddSavedFilter(args[0], api.FilterOptions{
			ActionType: api.ActionType(filterAction),
			Status:     filterStatus,
			GroupID:    filterGroup,
		})
		if err != nil {
			return err
		}
		c.center.Success("Filter saved", saved.Name)
		return printJSON(saved)
	},
}

var filtersListCmd = &cobra.Command{
	Use:   "list",
	Short: "list saved filters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newConsole()
		if err != nil {
			return err
		}
		defer c.flush()

		return printJSON(c.settings.Customization().SavedFilters)
	},
}

var filtersRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "delete a saved filter by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newConsole()
		if err != nil {
			return err
		}
		defer c.flush()

		if err := c.settings.RemoveSavedFilter(args[0]); err != nil {
			return err
		}
		c.center.Info("Filter removed", args[0])
		return nil
	},
}
