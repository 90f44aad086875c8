package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"modpanel.org/internal/devapi"
	"modpanel.org/internal/obs"
)

var (
	version = "0.3.0"
	commit  = "dev"
)

func main() {
	obs.Init(version, commit)

	if err := obs.InitLog(envOr("MODPANEL_LOG_LEVEL", "info"), os.Getenv("MODPANEL_LOG_FILE")); err != nil {
		log.Fatalf("init log: %v", err)
	}

	secret := os.Getenv("MODPANEL_AUTH_SECRET")
	if secret == "" {
		// Fixture backend only; never reuse this value outside local development.
		secret = "modpanel-dev-secret"
		log.Warn("MODPANEL_AUTH_SECRET not set, using the development default")
	}

	api := devapi.New(secret, version)

	srv := &http.Server{
		Addr:              envOr("MODPANEL_LISTEN", ":8090"),
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Infof("starting modpanel-devapi %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	log.Info("stopped")
}

func envOr(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}
