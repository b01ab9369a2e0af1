package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Environment variables that override file values.
const (
	EnvStoreDriver = "SANSU_STORE_DRIVER"
	EnvStoreDSN    = "SANSU_STORE_DSN"
	EnvLogLevel    = "SANSU_LOG_LEVEL"
	EnvServerAddr  = "SANSU_SERVER_ADDR"
)

// LoadDotEnv loads variables from a .env file without overriding ones that
// are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides file values with non-empty environment variables.
func ApplyEnv(cfg *FileConfig, lookup func(string) (string, bool)) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	set := func(dst **string, key string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = &v
		}
	}
	set(&cfg.Store.Driver, EnvStoreDriver)
	set(&cfg.Store.DSN, EnvStoreDSN)
	set(&cfg.Log.Level, EnvLogLevel)
	set(&cfg.Server.Addr, EnvServerAddr)
}
