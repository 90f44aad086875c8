package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// watch follows the shared store and reports session transitions made by any
// console process of the same profile, until interrupted.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "follow session changes made by other console processes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newConsole()
		if err != nil {
			return err
		}
		defer c.flush()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		go c.session.Run(ctx)
		errCh := make(chan error, 1)
		go func() { errCh <- c.notifier.Run(ctx) }()

		sub := c.notifier.Subscribe(ctx)
		fmt.Fprintln(os.Stderr, "watching session state, ctrl-c to stop")

		c.session.CheckAuth(ctx)
		last := describeSession(c)
		fmt.Println(last)
		for {
			select {
			case <-ctx.Done():
				return nil
			case err := <-errCh:
				return err
			case _, ok := <-sub:
				if !ok {
					return nil
				}
				c.session.CheckAuth(ctx)
				if state := describeSession(c); state != last {
					last = state
					fmt.Println(state)
				}
			}
		}
	},
}

func describeSession(c *console) string {
	user := c.session.User()
	if user == nil {
		return "logged out"
	}
	return fmt.Sprintf("logged in as %s (id %d, role %s)", user.Username, user.ID, user.Role)
}
