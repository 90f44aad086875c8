package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"modpanel.org/internal/api"
	"modpanel.org/internal/notifications"
	"modpanel.org/internal/notify"
	"modpanel.org/internal/obs"
	"modpanel.org/internal/session"
	"modpanel.org/internal/settings"
	"modpanel.org/internal/store"
)

var (
	apiURL   string
	dataDir  string
	logLevel string
	logFile  string

	rootCmd = &cobra.Command{
		Use:          "modpanel",
		Short:        "moderation console for the bot backend",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setFlagsFromEnvVars(cmd.Root())
		},
	}
)

// setFlagsFromEnvVars lets every persistent flag be set through a
// MODPANEL_-prefixed environment variable, e.g. MODPANEL_DATA_DIR.
// Explicit flags win over the environment.
func setFlagsFromEnvVars(cmd *cobra.Command) {
	cmd.PersistentFlags().VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			return
		}
		envVar := "MODPANEL_" + strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
		if value, present := os.LookupEnv(envVar); present {
			if err := cmd.PersistentFlags().Set(f.Name, value); err != nil {
				log.Debugf("set flag %s from %s: %v", f.Name, envVar, err)
			}
		}
	})
}

func init() {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	defaultDataDir := filepath.Join(home, ".modpanel")

	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "http://localhost:8090/api/web", "backend base URL")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", defaultDataDir, "directory for session and preference state")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "warn", "sets the console log level")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "log file path, stderr when empty")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(groupsCmd)
	rootCmd.AddCommand(actCmd)
	rootCmd.AddCommand(analyticsCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(watchCmd)

	groupsCmd.AddCommand(groupsListCmd, groupsGetCmd, groupsStatsCmd, groupsMembersCmd, groupsSearchCmd, groupsHistoryCmd)
	actCmd.AddCommand(actionCommands()...)
	actCmd.AddCommand(batchCmd, actionStatusCmd, userHistoryCmd)
	analyticsCmd.AddCommand(analyticsSystemCmd, analyticsGroupCmd, analyticsTrendsCmd, analyticsTopCmd)
	settingsCmd.AddCommand(settingsShowCmd, settingsSetCmd, settingsResetCmd, filtersCmd)
	filtersCmd.AddCommand(filtersAddCmd, filtersListCmd, filtersRemoveCmd)
}

// console bundles the state a command needs: the persistent store, the
// change notifier on top of it, the API client, the session manager and the
// preference manager.
type console struct {
	store    *store.Store
	notifier *notify.Notifier
	client   *api.Client
	session  *session.Manager
	settings *settings.Manager
	center   *notifications.Center
}

func newConsole() (*console, error) {
	if err := obs.InitLog(logLevel, logFile); err != nil {
		return nil, fmt.Errorf("init log: %w", err)
	}

	st, err := store.Open(dataDir)
	if err != nil {
		return nil, fmt.Errorf("open state dir %s: %w", dataDir, err)
	}

	notifier := notify.New(st)
	center := notifications.NewCenter()

	client := api.New(apiURL, st,
		api.WithRateLimit(10, 20),
		api.WithOnUnauthorized(func() {
			center.Error("Session expired", "unauthorized, please log in again")
		}),
	)

	mgr := session.NewManager(st, notifier, client.Auth)

	return &console{
		store:    st,
		notifier: notifier,
		client:   client,
		session:  mgr,
		settings: settings.Open(st),
		center:   center,
	}, nil
}

// flush prints accumulated notices to stderr so they never mix with the
// command's JSON output on stdout.
func (c *console) flush() {
	for _, n := range c.center.List() {
		fmt.Fprintf(os.Stderr, "[%s] %s: %s\n", n.Type, n.Title, n.Message)
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Debugf("command failed: %v", err)
		os.Exit(1)
	}
}
