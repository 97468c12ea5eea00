package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"practicestats/pkg/api"
	"practicestats/pkg/auth"
	"practicestats/pkg/config"
	"practicestats/pkg/stats"

	log "github.com/sirupsen/logrus"
)

func main() {
	verbose := flag.Bool("v", false, "Verbose logging")
	jsonLogs := flag.Bool("json", false, "Log as JSON")
	configFile := flag.String("config", "practicestats.toml", "Optional TOML configuration file")

	flag.Parse()
	if *verbose {
		// Set the log level to debug
		log.SetLevel(log.DebugLevel)
	}
	if *jsonLogs {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		// Set the log format to include a leading timestamp in ISO8601 format
		log.SetFormatter(&log.TextFormatter{
			FullTimestamp: true,
		})
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	key, err := cfg.SessionKeyBytes()
	if err != nil {
		log.Fatalf("Failed to set up sessions: %v", err)
	}

	// A broken store configuration does not stop the server; every API call
	// reports it instead.
	store, err := stats.OpenStore(context.Background(), cfg)
	if err != nil {
		log.WithError(err).Error("Store unavailable")
	}
	tracker := stats.NewService(cfg, store)

	server := api.NewServer(tracker, auth.NewSessions(key, cfg.Production), auth.Password{
		Plain: cfg.AdminPassword,
		Hash:  cfg.AdminPasswordHash,
	})
	go startServer(cfg.ListenAddress, api.GetRouter(server))

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)

mainloop:
	// In all cases, just exit and let the container restart from scratch.
	// There's less to get wrong doing it this way.
	for {
		select {
		case <-signalChan:
			log.Info("Signalled, breaking main loop")
			break mainloop
		}
	}
}

func startServer(addr string, router http.Handler) {
	server := http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 2 * time.Second,
	}
	log.Infof("listening for HTTP on: %s", server.Addr)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal("ListenAndServeError", err)
	}
}
