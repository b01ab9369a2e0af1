// Package main provides the CLI entrypoint for sansu.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/verte-zerg/sansu/internal/attemptlog"
	"github.com/verte-zerg/sansu/internal/config"
	"github.com/verte-zerg/sansu/internal/deck"
	"github.com/verte-zerg/sansu/internal/logger"
	"github.com/verte-zerg/sansu/internal/model"
	"github.com/verte-zerg/sansu/internal/session"
	"github.com/verte-zerg/sansu/internal/store"
	"github.com/verte-zerg/sansu/internal/tui"
)

const (
	defaultMode   = "flash"
	defaultDriver = "sqlite"
)

var (
	configPath  string
	envPath     string
	storeDriver string
	storeDSN    string
	logLevel    string

	studyClass string
	studyNo    string
	studyGrade string
	studyMode  string
	studySpeed float64
	studyDeck  string
	studySound bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "sansu",
		Short:         "TUI arithmetic vocabulary trainer",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runStudyCmd,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/sansu/config.toml)")
	pf.StringVar(&envPath, "env-file", ".env", "dotenv file loaded before reading the environment")
	pf.StringVar(&storeDriver, "store", defaultDriver, "attempt store: sqlite, postgres, mysql or remote")
	pf.StringVar(&storeDSN, "dsn", "", "store DSN, database path or server URL")
	pf.StringVar(&logLevel, "log-level", "info", "log level")

	rootCmd.Flags().StringVar(&studyClass, "class", "", "class code")
	rootCmd.Flags().StringVar(&studyNo, "no", "", "student number")
	rootCmd.Flags().StringVar(&studyGrade, "grade", model.UnknownGrade, "grade")
	rootCmd.Flags().StringVar(&studyMode, "mode", defaultMode, "study mode: flash or test")
	rootCmd.Flags().Float64Var(&studySpeed, "speed", session.DefaultSecondsPerCard, "seconds per card in flash mode (0.8-6.0)")
	rootCmd.Flags().StringVar(&studyDeck, "deck", "", "deck TOML file or name in the deck directory (default: built-in deck)")
	rootCmd.Flags().BoolVar(&studySound, "sound", false, "ring the terminal bell on answers")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newDashboardCmd())
	rootCmd.AddCommand(newReportCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newDeckCmd())

	return rootCmd
}

func runStudyCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig(cmd)
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "class", &studyClass, fileCfg.Study.Class)
	applyStringConfig(cmd, "no", &studyNo, fileCfg.Study.No)
	applyStringConfig(cmd, "grade", &studyGrade, fileCfg.Study.Grade)
	applyStringConfig(cmd, "mode", &studyMode, fileCfg.Study.Mode)
	applyFloatConfig(cmd, "speed", &studySpeed, fileCfg.Study.Speed)
	applyStringConfig(cmd, "deck", &studyDeck, fileCfg.Study.Deck)
	applyBoolConfig(cmd, "sound", &studySound, fileCfg.Study.Sound)

	cfg := model.StudyConfig{
		Student: model.Student{
			ClassCode: strings.TrimSpace(studyClass),
			StudentNo: strings.TrimSpace(studyNo),
			Grade:     model.NormalizeGrade(studyGrade),
			SessionID: uuid.New().String(),
		},
		Mode:           model.ParseMode(studyMode),
		SecondsPerCard: session.ClampSeconds(studySpeed),
		SoundOn:        studySound,
		DeckPath:       resolveDeckPath(studyDeck),
	}
	if err := validateStudyConfig(cfg); err != nil {
		return err
	}

	items, err := deck.Load(cfg.DeckPath)
	if err != nil {
		return fmt.Errorf("failed to load deck: %w", err)
	}

	log, err := newLogger(fileCfg, true)
	if err != nil {
		return err
	}
	defer syncLogger(log)

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	machine, err := session.New(items, session.Options{
		Mode:           cfg.Mode,
		SecondsPerCard: cfg.SecondsPerCard,
		SoundOn:        cfg.SoundOn,
	})
	if err != nil {
		return err
	}

	log.Info("study session started",
		zap.String("session", cfg.Student.SessionID),
		zap.String("class", cfg.Student.ClassCode),
		zap.String("student", cfg.Student.StudentNo),
		zap.String("mode", cfg.Mode.String()),
		zap.Int("cards", len(items)),
	)
	recorder := attemptlog.NewRecorder(st, log)
	m := tui.NewModel(machine, recorder, cfg.Student, tui.WithBell(os.Stderr), tui.WithLogger(log))
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	log.Info("study session ended", zap.String("session", cfg.Student.SessionID))
	return nil
}

func validateStudyConfig(cfg model.StudyConfig) error {
	if cfg.Student.ClassCode == "" {
		return fmt.Errorf("--class is required")
	}
	if cfg.Student.StudentNo == "" {
		return fmt.Errorf("--no is required")
	}
	return nil
}

// resolveDeckPath maps a bare deck name to a file in the deck directory.
func resolveDeckPath(name string) string {
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsRune(name, os.PathSeparator) || strings.HasSuffix(name, ".toml") {
		return name
	}
	candidate := filepath.Join(config.DefaultDeckDir(), name+".toml")
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return name
}

// loadFileConfig reads .env, the config file and environment overrides, in
// that order.
func loadFileConfig(cmd *cobra.Command) (config.FileConfig, error) {
	if err := config.LoadDotEnv(envPath); err != nil {
		logErrf("ignoring env file: %v\n", err)
	}
	path := configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	fileCfg, err := config.LoadConfig(path)
	if err != nil {
		return config.FileConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	config.ApplyEnv(&fileCfg, nil)
	applyStringConfig(cmd, "store", &storeDriver, fileCfg.Store.Driver)
	applyStringConfig(cmd, "dsn", &storeDSN, fileCfg.Store.DSN)
	applyStringConfig(cmd, "log-level", &logLevel, fileCfg.Log.Level)
	return fileCfg, nil
}

func openStore() (store.AttemptStore, error) {
	driver := strings.ToLower(strings.TrimSpace(storeDriver))
	dsn := strings.TrimSpace(storeDSN)
	if (driver == "" || driver == "sqlite" || driver == "sqlite3") && dsn == "" {
		dsn = config.DefaultDBPath()
	}
	st, err := store.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return st, nil
}

func closeStore(st store.AttemptStore) {
	if cerr := st.Close(); cerr != nil {
		logErrf("failed to close store: %v\n", cerr)
	}
}

// newLogger builds the command logger. TUI commands always log to a file.
func newLogger(fileCfg config.FileConfig, tuiOwnsTerminal bool) (*zap.Logger, error) {
	file := ""
	if fileCfg.Log.File != nil {
		file = *fileCfg.Log.File
	} else if tuiOwnsTerminal {
		file = config.DefaultLogPath()
	}
	log, err := logger.New(logger.Config{Level: logLevel, File: file})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return log, nil
}

func syncLogger(log *zap.Logger) {
	if err := log.Sync(); err != nil {
		// Best-effort flush; stderr sync fails on some terminals.
		_ = err
	}
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
