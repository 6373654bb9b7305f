package main

import (
	"flag"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couragelab/standtall/internal/api"
	"github.com/couragelab/standtall/internal/game"
	"github.com/couragelab/standtall/internal/oracle"
	"github.com/couragelab/standtall/internal/store"
	"github.com/couragelab/standtall/internal/util"
	"github.com/joho/godotenv"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for StandTall state data
	DefaultStateDir = "/var/lib/standtall"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "standtall.db"
)

func main() {
	// Initialize structured logger
	initializeLogger()

	// Load environment configuration
	config := loadEnvironmentConfig()

	// Parse command line flags
	flags := parseCommandLineFlags(config)

	// Build module options
	storeOpts := buildStoreOptions(flags)
	oracleOpts := buildOracleOptions(flags)
	apiOpts := buildAPIOptions(flags)

	st, err := openStore(storeOpts)
	if err != nil {
		slog.Error("Failed to open session store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	client, err := oracle.NewClient(oracleOpts...)
	if err != nil {
		slog.Error("Failed to create scoring oracle client", "error", err)
		os.Exit(1)
	}

	// Start the service
	slog.Info("Bootstrapping StandTall with configured modules")
	slog.Debug("Final configuration", "dsn_set", *flags.dbDSN != "", "provider", *flags.oracleProvider, "api_addr", *flags.apiAddr)
	server := api.NewServer(game.NewEngine(st, client), st, apiOpts...)
	if err := server.Run(); err != nil {
		slog.Error("StandTall failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("StandTall exited successfully")
}

// Config holds environment configuration
type Config struct {
	DatabaseURL    string
	StateDir       string
	OracleProvider string
	OracleModel    string
	OpenAIKey      string
	GeminiKey      string
	APIAddr        string
}

// Flags holds command line flag values
type Flags struct {
	stateDir       *string
	dbDSN          *string
	oracleProvider *string
	oracleModel    *string
	openaiKey      *string
	geminiKey      *string
	apiAddr        *string
}

// initializeLogger sets up structured logging; debug level via $STANDTALL_DEBUG
func initializeLogger() {
	level := slog.LevelInfo
	if util.ParseBoolEnv("STANDTALL_DEBUG", false) {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		StateDir:       os.Getenv("STANDTALL_STATE_DIR"),
		OracleProvider: os.Getenv("ORACLE_PROVIDER"),
		OracleModel:    os.Getenv("ORACLE_MODEL"),
		OpenAIKey:      os.Getenv("OPENAI_API_KEY"),
		GeminiKey:      os.Getenv("GEMINI_API_KEY"),
		APIAddr:        os.Getenv("API_ADDR"),
	}

	// Set default state directory if not specified
	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No STANDTALL_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	} else {
		slog.Debug("STANDTALL_STATE_DIR found in environment", "state_dir", config.StateDir)
	}

	// If no database URL is provided, default to SQLite in the state directory
	if config.DatabaseURL == "" {
		config.DatabaseURL = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No database DSN provided, defaulting to SQLite", "sqlite_path", config.DatabaseURL)
	}

	slog.Debug("environment variables loaded",
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"STANDTALL_STATE_DIR", config.StateDir,
		"ORACLE_PROVIDER", config.OracleProvider,
		"ORACLE_MODEL", config.OracleModel,
		"OPENAI_API_KEY_SET", config.OpenAIKey != "",
		"GEMINI_API_KEY_SET", config.GeminiKey != "",
		"API_ADDR", config.APIAddr)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		stateDir:       flag.String("state-dir", config.StateDir, "state directory for StandTall data (overrides $STANDTALL_STATE_DIR)"),
		dbDSN:          flag.String("db-dsn", config.DatabaseURL, "database DSN for the session store (overrides $DATABASE_URL)"),
		oracleProvider: flag.String("oracle-provider", config.OracleProvider, "scoring oracle provider: openai or gemini (overrides $ORACLE_PROVIDER)"),
		oracleModel:    flag.String("oracle-model", config.OracleModel, "scoring oracle model override (overrides $ORACLE_MODEL)"),
		openaiKey:      flag.String("openai-api-key", config.OpenAIKey, "OpenAI API key (overrides $OPENAI_API_KEY)"),
		geminiKey:      flag.String("gemini-api-key", config.GeminiKey, "Gemini API key (overrides $GEMINI_API_KEY)"),
		apiAddr:        flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
	}

	flag.Parse()

	slog.Debug("flags parsed",
		"stateDir", *flags.stateDir,
		"dbDSN_set", *flags.dbDSN != "",
		"oracleProvider", *flags.oracleProvider,
		"oracleModel", *flags.oracleModel,
		"openaiKeySet", *flags.openaiKey != "",
		"geminiKeySet", *flags.geminiKey != "",
		"apiAddr", *flags.apiAddr)

	// Update database DSN if not explicitly set but state directory is provided
	if *flags.dbDSN == config.DatabaseURL && config.DatabaseURL == filepath.Join(config.StateDir, DefaultDBFileName) && *flags.stateDir != config.StateDir {
		*flags.dbDSN = filepath.Join(*flags.stateDir, DefaultDBFileName)
		slog.Debug("Updated dbDSN based on state directory", "dsn_updated", true, "old_state_dir", config.StateDir, "new_state_dir", *flags.stateDir)
	}

	return flags
}

// buildStoreOptions constructs store configuration options
func buildStoreOptions(flags Flags) []store.Option {
	var storeOpts []store.Option
	if *flags.dbDSN != "" {
		// Check if it's a PostgreSQL DSN using the shared detection function
		if store.DetectDSNType(*flags.dbDSN) == "postgres" {
			slog.Debug("Detected PostgreSQL DSN, configuring PostgreSQL store", "dsn_type", "postgresql", "dsn_set", true)
			storeOpts = append(storeOpts, store.WithPostgresDSN(*flags.dbDSN))
		} else {
			// Assume SQLite for file paths
			slog.Debug("Detected SQLite DSN, configuring SQLite store", "dsn_type", "sqlite", "db_path", *flags.dbDSN)
			storeOpts = append(storeOpts, store.WithSQLiteDSN(*flags.dbDSN))
		}
	} else {
		slog.Debug("No database DSN provided, will use in-memory store")
	}
	return storeOpts
}

// openStore creates the session store matching the configured options
func openStore(storeOpts []store.Option) (store.Store, error) {
	var cfg store.Opts
	for _, opt := range storeOpts {
		opt(&cfg)
	}
	if cfg.DSN == "" {
		slog.Info("Using in-memory session store; sessions will not survive restarts")
		return store.NewInMemoryStore(), nil
	}
	if store.DetectDSNType(cfg.DSN) == "postgres" {
		return store.NewPostgresStore(storeOpts...)
	}
	return store.NewSQLiteStore(storeOpts...)
}

// buildOracleOptions constructs scoring oracle configuration options
func buildOracleOptions(flags Flags) []oracle.Option {
	var oracleOpts []oracle.Option
	if *flags.oracleProvider != "" {
		oracleOpts = append(oracleOpts, oracle.WithProvider(*flags.oracleProvider))
	}
	if *flags.oracleModel != "" {
		oracleOpts = append(oracleOpts, oracle.WithModel(*flags.oracleModel))
	}
	// The provider-specific key wins; each client falls back to its own
	// environment variable when no key is configured here.
	switch *flags.oracleProvider {
	case oracle.ProviderGemini:
		if *flags.geminiKey != "" {
			oracleOpts = append(oracleOpts, oracle.WithAPIKey(*flags.geminiKey))
		}
	default:
		if *flags.openaiKey != "" {
			oracleOpts = append(oracleOpts, oracle.WithAPIKey(*flags.openaiKey))
		}
	}
	return oracleOpts
}

// buildAPIOptions constructs API server configuration options
func buildAPIOptions(flags Flags) []api.Option {
	var apiOpts []api.Option
	if *flags.apiAddr != "" {
		apiOpts = append(apiOpts, api.WithAddr(*flags.apiAddr))
	}
	return apiOpts
}
