package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/sansu/internal/config"
	"github.com/verte-zerg/sansu/internal/server"
	"github.com/verte-zerg/sansu/internal/session"
)

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func defaultConfigTemplate() string {
	def := server.DefaultConfig()
	return fmt.Sprintf(`# sansu configuration
# Uncomment a value to enable it. CLI flags override config values.
# SANSU_STORE_DRIVER, SANSU_STORE_DSN, SANSU_LOG_LEVEL and SANSU_SERVER_ADDR
# override the file; they may also be set in a .env file.

[study]
# class = "3A"            # Class code
# no = "12"               # Student number
# grade = "unknown"       # Grade
# mode = %q           # flash or test
# speed = %.1f            # Seconds per card (%.1f-%.1f)
# deck = ""               # Deck file or name in %s
# sound = false           # Ring the terminal bell on answers

[store]
# driver = %q        # sqlite, postgres, mysql or remote
# dsn = ""                # Database path, DSN or server URL

[log]
# level = "info"
# file = %q

[server]
# addr = %q
# write-rate = %.1f
# write-burst = %d
# allow-origins = []

[dashboard]
# class = "3A"
# export-dir = %q
`,
		defaultMode,
		session.DefaultSecondsPerCard,
		session.MinSecondsPerCard,
		session.MaxSecondsPerCard,
		config.DefaultDeckDir(),
		defaultDriver,
		config.DefaultLogPath(),
		def.Addr,
		def.WriteRate,
		def.WriteBurst,
		defaultExportDir,
	)
}
