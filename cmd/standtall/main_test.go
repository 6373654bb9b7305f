package main

import (
	"path/filepath"
	"testing"

	"github.com/couragelab/standtall/internal/oracle"
	"github.com/couragelab/standtall/internal/store"
)

func strPtr(s string) *string { return &s }

func testFlags() Flags {
	return Flags{
		stateDir:       strPtr(""),
		dbDSN:          strPtr(""),
		oracleProvider: strPtr(""),
		oracleModel:    strPtr(""),
		openaiKey:      strPtr(""),
		geminiKey:      strPtr(""),
		apiAddr:        strPtr(""),
	}
}

func TestLoadEnvironmentConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("STANDTALL_STATE_DIR", "")
	t.Setenv("ORACLE_PROVIDER", "")

	config := loadEnvironmentConfig()

	if config.StateDir != DefaultStateDir {
		t.Errorf("expected default state dir %q, got %q", DefaultStateDir, config.StateDir)
	}
	want := filepath.Join(DefaultStateDir, DefaultDBFileName)
	if config.DatabaseURL != want {
		t.Errorf("expected SQLite default %q, got %q", want, config.DatabaseURL)
	}
}

func TestLoadEnvironmentConfigFromEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/standtall")
	t.Setenv("STANDTALL_STATE_DIR", "/tmp/standtall-test")
	t.Setenv("ORACLE_PROVIDER", "gemini")

	config := loadEnvironmentConfig()

	if config.DatabaseURL != "postgres://u:p@localhost/standtall" {
		t.Errorf("DATABASE_URL not picked up: %q", config.DatabaseURL)
	}
	if config.StateDir != "/tmp/standtall-test" {
		t.Errorf("STANDTALL_STATE_DIR not picked up: %q", config.StateDir)
	}
	if config.OracleProvider != "gemini" {
		t.Errorf("ORACLE_PROVIDER not picked up: %q", config.OracleProvider)
	}
}

func TestBuildStoreOptions(t *testing.T) {
	tests := []struct {
		name     string
		dsn      string
		wantOpts int
		wantType string
	}{
		{"postgres URL", "postgres://u:p@localhost/db", 1, "postgres"},
		{"sqlite path", "/tmp/standtall.db", 1, "sqlite"},
		{"empty DSN means in-memory", "", 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags := testFlags()
			flags.dbDSN = strPtr(tt.dsn)

			opts := buildStoreOptions(flags)
			if len(opts) != tt.wantOpts {
				t.Fatalf("expected %d options, got %d", tt.wantOpts, len(opts))
			}
			if tt.wantOpts == 0 {
				return
			}
			var cfg store.Opts
			for _, opt := range opts {
				opt(&cfg)
			}
			if cfg.DSN != tt.dsn {
				t.Errorf("expected DSN %q, got %q", tt.dsn, cfg.DSN)
			}
			if got := store.DetectDSNType(cfg.DSN); got != tt.wantType {
				t.Errorf("expected DSN type %q, got %q", tt.wantType, got)
			}
		})
	}
}

func TestOpenStoreInMemory(t *testing.T) {
	st, err := openStore(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer st.Close()
	if _, ok := st.(*store.InMemoryStore); !ok {
		t.Errorf("expected in-memory store for empty options, got %T", st)
	}
}

func TestOpenStoreSQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "standtall.db")
	st, err := openStore([]store.Option{store.WithSQLiteDSN(dbPath)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer st.Close()
	if _, ok := st.(*store.SQLiteStore); !ok {
		t.Errorf("expected SQLite store, got %T", st)
	}
}

func TestBuildOracleOptionsProviderKeys(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		wantKey  string
	}{
		{"openai key for default provider", "", "sk-openai"},
		{"openai key for openai provider", oracle.ProviderOpenAI, "sk-openai"},
		{"gemini key for gemini provider", oracle.ProviderGemini, "gm-gemini"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags := testFlags()
			flags.oracleProvider = strPtr(tt.provider)
			flags.openaiKey = strPtr("sk-openai")
			flags.geminiKey = strPtr("gm-gemini")

			var cfg oracle.Opts
			for _, opt := range buildOracleOptions(flags) {
				opt(&cfg)
			}
			if cfg.APIKey != tt.wantKey {
				t.Errorf("expected key %q, got %q", tt.wantKey, cfg.APIKey)
			}
			if cfg.Provider != tt.provider {
				t.Errorf("expected provider %q, got %q", tt.provider, cfg.Provider)
			}
		})
	}
}
