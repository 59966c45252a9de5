// Copyright 2025 Certen Protocol

// Package config loads the oracle host's runtime configuration: where it
// listens, where it stores state, and which notaries it should trust before
// an operator has a chance to add them through AddNotary transactions.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the oracle host service.
type Config struct {
	// CometBFT Network Configuration
	ChainID string // CometBFT chain ID for the oracle network (e.g., "tls-oracle-1")
	P2PPort int
	RPCPort int

	// Server Configuration
	ListenAddr  string
	MetricsAddr string

	// Storage Configuration
	DataDir  string // base directory for the LevelDB-backed oracle store
	DBName   string // LevelDB database name under DataDir

	// Optional Postgres mirror (pkg/reporting). Empty DSN disables the mirror.
	ReportingDSN         string
	ReportingMaxOpenConn int
	ReportingMaxIdleConn int
	ReportingConnLifetime time.Duration

	// Optional Firestore audit mirror (pkg/audit). FirestoreEnabled=false
	// disables it; when enabled, FirebaseProjectID is required.
	FirestoreEnabled        bool
	FirebaseProjectID       string
	FirebaseCredentialsFile string

	// Optional Accumulate anchoring (pkg/anchor). Empty URL disables anchoring.
	AccumulateURL      string
	AccumulateCometBVN string
	AnchorCadence      time.Duration

	// NotaryBootstrapFile, if set, points at a YAML file listing notaries to
	// register at host startup, before the CometBFT node is started.
	NotaryBootstrapFile string

	LogLevel string
}

// Load reads configuration from environment variables. Every value has a
// safe local-development default; Validate tightens this for production.
func Load() (*Config, error) {
	cfg := &Config{
		ChainID: getEnv("ORACLE_CHAIN_ID", "tls-oracle-devnet"),
		P2PPort: getEnvInt("ORACLE_P2P_PORT", 26656),
		RPCPort: getEnvInt("ORACLE_RPC_PORT", 26657),

		ListenAddr:  getEnv("ORACLE_LISTEN_ADDR", "0.0.0.0:8080"),
		MetricsAddr: getEnv("ORACLE_METRICS_ADDR", "0.0.0.0:9090"),

		DataDir: getEnv("ORACLE_DATA_DIR", "./data"),
		DBName:  getEnv("ORACLE_DB_NAME", "oracle"),

		ReportingDSN:          getEnv("ORACLE_REPORTING_DSN", ""),
		ReportingMaxOpenConn:  getEnvInt("ORACLE_REPORTING_MAX_OPEN_CONNS", 10),
		ReportingMaxIdleConn:  getEnvInt("ORACLE_REPORTING_MAX_IDLE_CONNS", 2),
		ReportingConnLifetime: getEnvDuration("ORACLE_REPORTING_CONN_LIFETIME", time.Hour),

		FirestoreEnabled:        getEnvBool("ORACLE_FIRESTORE_ENABLED", false),
		FirebaseProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
		FirebaseCredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),

		AccumulateURL:      getEnv("ACCUMULATE_URL", ""),
		AccumulateCometBVN: getEnv("ACCUMULATE_COMET_BVN", ""),
		AnchorCadence:      getEnvDuration("ORACLE_ANCHOR_CADENCE", 10*time.Minute),

		NotaryBootstrapFile: getEnv("ORACLE_NOTARY_BOOTSTRAP_FILE", ""),

		LogLevel: getEnv("ORACLE_LOG_LEVEL", "info"),
	}
	return cfg, nil
}

// Validate checks that configuration required to run a production host is
// present. Called explicitly by main, mirroring the validator's
// own Load/Validate split.
func (c *Config) Validate() error {
	var errs []string
	if c.ChainID == "" {
		errs = append(errs, "ORACLE_CHAIN_ID is required but not set")
	}
	if c.DataDir == "" {
		errs = append(errs, "ORACLE_DATA_DIR is required but not set")
	}
	if c.FirestoreEnabled && c.FirebaseProjectID == "" {
		errs = append(errs, "FIREBASE_PROJECT_ID is required when ORACLE_FIRESTORE_ENABLED=true")
	}
	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// NotaryBootstrap is one entry of a YAML notary bootstrap list, e.g.:
//
//	notaries:
//	  - pubkeyHash: "a3f1..."
//	    name: "notary-east-1"
//	    url: "https://notary-east-1.example.com"
//	    rawPubkey: "04bf...c2"
type NotaryBootstrap struct {
	PubkeyHash string `yaml:"pubkeyHash"`
	Name       string `yaml:"name"`
	URL        string `yaml:"url"`
	RawPubkey  string `yaml:"rawPubkey"`
}

type notaryBootstrapFile struct {
	Notaries []NotaryBootstrap `yaml:"notaries"`
}

// LoadNotaryBootstrap reads and parses c.NotaryBootstrapFile. It returns an
// empty slice, not an error, when no file is configured.
func (c *Config) LoadNotaryBootstrap() ([]NotaryBootstrap, error) {
	if c.NotaryBootstrapFile == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(c.NotaryBootstrapFile)
	if err != nil {
		return nil, fmt.Errorf("config: reading notary bootstrap file: %w", err)
	}
	var doc notaryBootstrapFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("config: parsing notary bootstrap file: %w", err)
	}
	return doc.Notaries, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
