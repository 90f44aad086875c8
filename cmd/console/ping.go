package main

import (
	"time"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var pingWait bool

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "check backend health",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newConsole()
		if err != nil {
			return err
		}
		defer c.flush()

		if !pingWait {
			health, err := c.client.Util.Health(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(health)
		}

		// --wait retries with exponential backoff until the backend answers
		// or the retry window closes.
		policy := backoff.WithContext(&backoff.ExponentialBackOff{
			InitialInterval:     time.Second,
			RandomizationFactor: backoff.DefaultRandomizationFactor,
			Multiplier:          backoff.DefaultMultiplier,
			MaxInterval:         10 * time.Second,
			MaxElapsedTime:      2 * time.Minute,
			Stop:                backoff.Stop,
			Clock:               backoff.SystemClock,
		}, cmd.Context())

		return backoff.RetryNotify(func() error {
			health, err := c.client.Util.Health(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(health)
		}, policy, func(err error, wait time.Duration) {
			log.Infof("backend not ready, retrying in %s: %v", wait.Round(time.Second), err)
		})
	},
}

func init() {
	pingCmd.Flags().BoolVar(&pingWait, "wait", false, "keep retrying until the backend is reachable")
}
