package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/pelletier/go-toml/v2"
	log "github.com/sirupsen/logrus"
)

// Store backends
const (
	StoreGoogle   = "google"
	StoreWorkbook = "xlsx"
)

// ErrIncomplete is wrapped by Check when a required value is missing.
var ErrIncomplete = errors.New("configuration incomplete")

// Layout names the sheets and cells inside the workbook.
// Do not rename these on a live workbook or new sheets will be created.
type Layout struct {
	LedgerSheet     string `toml:"ledger_sheet"`
	RosterSheet     string `toml:"roster_sheet"`
	AttendanceSheet string `toml:"attendance_sheet"`
	TemplateSheet   string `toml:"template_sheet"`
	MarkerCell      string `toml:"marker_cell"`
}

type Config struct {
	Store         string `toml:"store"`
	SpreadsheetID string `toml:"spreadsheet_id"`
	WorkbookPath  string `toml:"workbook_path"`

	CredentialsFile string `toml:"credentials_file"`
	CredentialsJSON string `toml:"-"`

	AdminPassword     string `toml:"-"`
	AdminPasswordHash string `toml:"admin_password_hash"`
	SessionKey        string `toml:"-"`

	ListenAddress string `toml:"listen_address"`
	TimeZone      string `toml:"time_zone"`
	Production    bool   `toml:"production"`

	Layout Layout `toml:"layout"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		Store:         StoreGoogle,
		ListenAddress: ":8080",
		TimeZone:      "America/New_York",
		Layout: Layout{
			LedgerSheet:     "RAW STAT ENTRIES",
			RosterSheet:     "Roster",
			AttendanceSheet: "Attendance",
			TemplateSheet:   "9/27/2025",
			MarkerCell:      "F22",
		},
	}
}

// Load reads filename when it exists and then applies environment overrides.
// An empty filename skips the file.
func Load(filename string) (*Config, error) {
	c := Default()
	if filename != "" {
		b, err := os.ReadFile(filename)
		switch {
		case err == nil:
			if err := toml.Unmarshal(b, c); err != nil {
				return nil, fmt.Errorf("parse %s: %w", filename, err)
			}
			log.Debugf("Loaded configuration from %s", filename)
		case os.IsNotExist(err):
			log.Debugf("No configuration file at %s, using environment", filename)
		default:
			return nil, err
		}
	}
	c.applyEnv()
	return c, nil
}

// Save writes the file-backed part of the configuration out as TOML.
func (c *Config) Save(filename string) error {
	b, err := toml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, b, 0644)
}

func (c *Config) applyEnv() {
	c.Store = getEnv("STATS_STORE", c.Store)
	c.SpreadsheetID = getEnv("SPREADSHEET_ID", c.SpreadsheetID)
	c.WorkbookPath = getEnv("STATS_WORKBOOK", c.WorkbookPath)
	c.CredentialsFile = getEnv("GOOGLE_APPLICATION_CREDENTIALS", c.CredentialsFile)
	c.CredentialsJSON = getEnv("GOOGLE_SERVICE_ACCOUNT_CREDENTIALS", c.CredentialsJSON)
	c.AdminPassword = getEnv("ADMIN_PASSWORD", c.AdminPassword)
	c.AdminPasswordHash = getEnv("ADMIN_PASSWORD_HASH", c.AdminPasswordHash)
	c.SessionKey = getEnv("SESSION_KEY", c.SessionKey)
	c.ListenAddress = getEnv("LISTEN_ADDRESS", c.ListenAddress)
	c.TimeZone = getEnv("TZ_NAME", c.TimeZone)
	if env := os.Getenv("APP_ENV"); env != "" {
		c.Production = env == "production"
	}
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// Check reports the first missing value needed to reach the store.
func (c *Config) Check() error {
	switch c.Store {
	case StoreGoogle:
		if c.SpreadsheetID == "" {
			return fmt.Errorf("%w: spreadsheet ID not configured, set SPREADSHEET_ID", ErrIncomplete)
		}
		if c.CredentialsFile == "" && c.CredentialsJSON == "" {
			return fmt.Errorf("%w: Google credentials not configured, set GOOGLE_SERVICE_ACCOUNT_CREDENTIALS or GOOGLE_APPLICATION_CREDENTIALS", ErrIncomplete)
		}
		if c.CredentialsJSON != "" && !strings.HasPrefix(strings.TrimSpace(c.CredentialsJSON), "{") {
			return fmt.Errorf("%w: invalid credentials format in GOOGLE_SERVICE_ACCOUNT_CREDENTIALS", ErrIncomplete)
		}
	case StoreWorkbook:
	default:
		return fmt.Errorf("%w: unknown store %q", ErrIncomplete, c.Store)
	}
	if c.Layout.LedgerSheet == "" || c.Layout.TemplateSheet == "" {
		return fmt.Errorf("%w: ledger and template sheet names are required", ErrIncomplete)
	}
	return nil
}

// Location resolves the time zone practice dates are written in.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("%w: time zone %q: %v", ErrIncomplete, c.TimeZone, err)
	}
	return loc, nil
}

// SessionKeyBytes decodes SESSION_KEY (64 hex characters). Outside
// production a random key is generated when it is unset.
func (c *Config) SessionKeyBytes() ([]byte, error) {
	if c.SessionKey != "" {
		key, err := hex.DecodeString(c.SessionKey)
		if err != nil || len(key) != 32 {
			return nil, fmt.Errorf("%w: SESSION_KEY must be 64 hex characters (32 bytes)", ErrIncomplete)
		}
		return key, nil
	}
	if c.Production {
		return nil, fmt.Errorf("%w: SESSION_KEY is required in production", ErrIncomplete)
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate session key: %w", err)
	}
	log.Warn("Using a random session key, logins won't survive a restart. Set SESSION_KEY for production.")
	return key, nil
}
