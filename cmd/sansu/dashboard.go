package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/sansu/internal/dashboard"
	"github.com/verte-zerg/sansu/internal/stats"
)

const defaultExportDir = "."

var (
	dashClass     string
	dashFrom      string
	dashTo        string
	dashGrade     string
	dashExportDir string

	reportOut string
)

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&dashClass, "class", "", "class code")
	cmd.Flags().StringVar(&dashFrom, "from", "", "first day to include (YYYY-MM-DD)")
	cmd.Flags().StringVar(&dashTo, "to", "", "last day to include (YYYY-MM-DD)")
	cmd.Flags().StringVar(&dashGrade, "grade", stats.GradeAll, "grade filter, or 'all'")
}

func newDashboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show class results",
		Args:  cobra.NoArgs,
		RunE:  runDashboardCmd,
	}
	addFilterFlags(cmd)
	cmd.Flags().StringVar(&dashExportDir, "export-dir", defaultExportDir, "directory for CSV exports")
	return cmd
}

func runDashboardCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig(cmd)
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "class", &dashClass, fileCfg.Dashboard.Class)
	applyStringConfig(cmd, "export-dir", &dashExportDir, fileCfg.Dashboard.ExportDir)
	if _, err := stats.ParseFilter(dashFrom, dashTo, dashGrade, time.Local); err != nil {
		return err
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

	m := dashboard.NewModel(st, dashboard.Config{
		ClassCode: strings.TrimSpace(dashClass),
		From:      dashFrom,
		To:        dashTo,
		Grade:     dashGrade,
		ExportDir: dashExportDir,
	}, log)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run dashboard: %w", err)
	}
	return nil
}

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print class results and optionally write CSV files",
		Args:  cobra.NoArgs,
		RunE:  runReportCmd,
	}
	addFilterFlags(cmd)
	cmd.Flags().StringVar(&reportOut, "out", "", "write CSV exports into this directory")
	return cmd
}

func runReportCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig(cmd)
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "class", &dashClass, fileCfg.Dashboard.Class)
	class := strings.TrimSpace(dashClass)
	if class == "" {
		return fmt.Errorf("--class is required")
	}
	filter, err := stats.ParseFilter(dashFrom, dashTo, dashGrade, time.Local)
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	attempts, err := stats.LoadAttempts(context.Background(), st, class)
	if err != nil {
		return err
	}
	report := stats.BuildReport(class, attempts, filter)

	var buf bytes.Buffer
	if err := renderReport(&buf, report); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	if err := writeClipped(cmd.OutOrStdout(), buf.String(), outputWidth(cmd.OutOrStdout())); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if reportOut == "" {
		return nil
	}
	paths, err := stats.ExportAll(reportOut, report, time.Now())
	if err != nil {
		return fmt.Errorf("failed to export: %w", err)
	}
	for _, p := range paths {
		logErrf("Wrote %s\n", p)
	}
	return nil
}

func renderReport(w io.Writer, r stats.Report) error {
	if err := stats.RenderSummary(w, r); err != nil {
		return err
	}
	if len(r.Filtered) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	if err := stats.RenderAccuracyTable(w, r.Accuracy); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	return stats.RenderWrongPatterns(w, r.Wrong)
}

// outputWidth returns the terminal width of w, or 0 when w is not a terminal.
func outputWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return 0
	}
	return width
}

// writeClipped writes text, cutting lines wider than width cells.
func writeClipped(w io.Writer, text string, width int) error {
	for _, line := range strings.SplitAfter(text, "\n") {
		if line == "" {
			continue
		}
		if width > 0 {
			body := strings.TrimSuffix(line, "\n")
			if runewidth.StringWidth(body) > width {
				line = runewidth.Truncate(body, width, "") + "\n"
			}
		}
		if _, err := io.WriteString(w, line); err != nil {
			return err
		}
	}
	return nil
}
