package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/sansu/internal/config"
	"github.com/verte-zerg/sansu/internal/model"
	"github.com/verte-zerg/sansu/internal/stats"
)

func TestDefaultConfigTemplateDecodes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Study.Class != nil || cfg.Store.Driver != nil {
		t.Fatalf("expected commented template to set nothing: %+v", cfg)
	}
}

func TestApplyStringConfigKeepsChangedFlag(t *testing.T) {
	var target string
	cmd := &cobra.Command{Use: "x", RunE: func(*cobra.Command, []string) error { return nil }}
	cmd.Flags().StringVar(&target, "class", "", "")
	if err := cmd.ParseFlags([]string{"--class", "3A"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	fromFile := "4B"
	applyStringConfig(cmd, "class", &target, &fromFile)
	if target != "3A" {
		t.Fatalf("flag must win, got %q", target)
	}

	var other string
	cmd.Flags().StringVar(&other, "no", "", "")
	no := "12"
	applyStringConfig(cmd, "no", &other, &no)
	if other != "12" {
		t.Fatalf("config must fill unset flag, got %q", other)
	}
}

func TestValidateStudyConfig(t *testing.T) {
	if err := validateStudyConfig(model.StudyConfig{}); err == nil || !strings.Contains(err.Error(), "--class") {
		t.Fatalf("expected class error, got %v", err)
	}
	cfg := model.StudyConfig{Student: model.Student{ClassCode: "3A"}}
	if err := validateStudyConfig(cfg); err == nil || !strings.Contains(err.Error(), "--no") {
		t.Fatalf("expected number error, got %v", err)
	}
	cfg.Student.StudentNo = "1"
	if err := validateStudyConfig(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestResolveDeckPathFindsNamedDeck(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)
	dir := config.DefaultDeckDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	want := filepath.Join(dir, "ratio.toml")
	if err := os.WriteFile(want, []byte(""), 0o644); err != nil {
		t.Fatalf("write deck: %v", err)
	}
	if got := resolveDeckPath("ratio"); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
	if got := resolveDeckPath("missing"); got != "missing" {
		t.Fatalf("expected name unchanged, got %q", got)
	}
	if got := resolveDeckPath(""); got != "" {
		t.Fatalf("expected empty path, got %q", got)
	}
}

func TestRenderReport(t *testing.T) {
	ts := time.Date(2026, 3, 2, 10, 0, 0, 0, time.Local)
	attempts := []model.AttemptRecord{
		{ClassCode: "3A", Word: "割合", Selected: "比", Timestamp: ts},
		{ClassCode: "3A", Word: "割合", Selected: "割合", Correct: true, Timestamp: ts},
	}
	r := stats.BuildReport("3A", attempts, stats.Filter{})
	var buf bytes.Buffer
	if err := renderReport(&buf, r); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Class: 3A", "Accuracy: 50.00% (1/2)", "Accuracy by Word", "Wrong Answer Patterns", "比"} {
		if !strings.Contains(out, want) {
			t.Fatalf("report missing %q:\n%s", want, out)
		}
	}
}

func TestWriteClipped(t *testing.T) {
	var buf bytes.Buffer
	if err := writeClipped(&buf, "abcdef\n単位量\nok\n", 4); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := buf.String(); got != "abcd\n単位\nok\n" {
		t.Fatalf("unexpected output %q", got)
	}
}
