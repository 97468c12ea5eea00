package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"practicestats/pkg/auth"
	"practicestats/pkg/config"
	"practicestats/pkg/stats"

	log "github.com/sirupsen/logrus"
	"golang.org/x/term"
)

func main() {
	verbose := flag.Bool("v", false, "Verbose logging")
	configFile := flag.String("config", "practicestats.toml", "Optional TOML configuration file")
	check := flag.Bool("check", false, "Validate the configuration and read the ledger")
	bootstrap := flag.Bool("bootstrap", false, "Create missing ledger, roster and template sheets")
	hashPassword := flag.Bool("hash-password", false, "Prompt for the admin password and print its hash")
	writeConfig := flag.String("write-config", "", "Write the effective configuration (without secrets) to this file")

	flag.Parse()
	if *verbose {
		log.SetLevel(log.DebugLevel)
	}
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})

	if !*check && !*bootstrap && !*hashPassword && *writeConfig == "" {
		log.Error("Nothing to do, pass -check, -bootstrap, -hash-password or -write-config")
		flag.Usage()
		os.Exit(1)
	}

	if *hashPassword {
		if err := runHashPassword(); err != nil {
			log.Fatalf("Failed to hash password: %v", err)
		}
		return
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if *writeConfig != "" {
		if err := cfg.Save(*writeConfig); err != nil {
			log.Fatalf("Failed to write %s: %v", *writeConfig, err)
		}
		log.Infof("Wrote configuration to %s", *writeConfig)
	}

	if !*check && !*bootstrap {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := stats.OpenStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Configuration check failed: %v", err)
	}
	svc := stats.NewService(cfg, store)

	if *bootstrap {
		created, err := svc.Bootstrap(ctx)
		if err != nil {
			log.Fatalf("Failed to create sheets: %v", err)
		}
		if len(created) == 0 {
			log.Info("All sheets already exist")
		}
	}

	if *check {
		runCheck(ctx, cfg, svc)
	}
}

func runCheck(ctx context.Context, cfg *config.Config, svc *stats.Service) {
	log.WithFields(log.Fields{
		"store":       cfg.Store,
		"spreadsheet": cfg.SpreadsheetID,
		"workbook":    cfg.WorkbookPath,
		"time_zone":   cfg.TimeZone,
	}).Info("Configuration loaded")

	if cfg.AdminPassword == "" && cfg.AdminPasswordHash == "" {
		log.Warn("No admin password set, logins will fail. Set ADMIN_PASSWORD_HASH or ADMIN_PASSWORD")
	}
	if _, err := cfg.SessionKeyBytes(); err != nil {
		log.Warnf("Session key: %v", err)
	}

	rows, err := svc.TestConnection(ctx)
	if err != nil {
		log.Fatalf("Could not read the ledger: %v", err)
	}
	log.Infof("Connected, read %d ledger rows from %q", len(rows), cfg.Layout.LedgerSheet)

	sheets, err := svc.ListSheets(ctx)
	if err != nil {
		log.Fatalf("Could not list sheets: %v", err)
	}
	for _, sh := range sheets {
		log.Debugf("Found sheet %q (%d)", sh.Title, sh.ID)
	}
	log.Infof("%d date and utility sheets found", len(sheets))
}

func runHashPassword() error {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return fmt.Errorf("stdin is not a terminal")
	}
	fmt.Fprint(os.Stderr, "Enter password:   ")
	password, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return err
	}
	fmt.Fprint(os.Stderr, "Confirm password: ")
	confirm, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return err
	}
	if len(password) == 0 {
		return fmt.Errorf("password cannot be empty")
	}
	if string(password) != string(confirm) {
		return fmt.Errorf("passwords do not match")
	}

	hash, err := auth.HashPassword(string(password))
	if err != nil {
		return err
	}
	fmt.Println(hash)
	fmt.Fprintln(os.Stderr, "Set ADMIN_PASSWORD_HASH to the line above.")
	return nil
}
