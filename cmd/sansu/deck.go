package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/sansu/internal/config"
	"github.com/verte-zerg/sansu/internal/deck"
)

var deckList bool

func newDeckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deck [file|name]",
		Short: "Validate and print a deck (built-in deck by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runDeckCmd,
	}
	cmd.Flags().BoolVar(&deckList, "list", false, "list decks in the deck directory")
	return cmd
}

func runDeckCmd(cmd *cobra.Command, args []string) error {
	if deckList {
		return listDecks(cmd)
	}
	path := ""
	if len(args) == 1 {
		path = resolveDeckPath(args[0])
	}
	items, err := deck.Load(path)
	if err != nil {
		return fmt.Errorf("invalid deck: %w", err)
	}
	name := path
	if name == "" {
		name = "built-in deck"
	}
	out := cmd.OutOrStdout()
	if _, err := fmt.Fprintf(out, "%s: %d cards\n", name, len(items)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	rows := make([][]string, 0, len(items))
	for i, item := range items {
		rows = append(rows, []string{strconv.Itoa(i + 1), item.Word, item.Answer, strings.Join(item.Choices, " / ")})
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "Word", "Answer", "Choices").
		Rows(rows...)
	if _, err := fmt.Fprintln(out, t.Render()); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func listDecks(cmd *cobra.Command) error {
	dir := config.DefaultDeckDir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			logErrf("No decks found. Put TOML decks in %s\n", dir)
			return fmt.Errorf("deck directory does not exist")
		}
		return fmt.Errorf("failed to read deck directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".toml") {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".toml"))
	}
	if len(names) == 0 {
		logErrf("No decks found. Put TOML decks in %s\n", dir)
		return fmt.Errorf("no decks found")
	}
	sort.Strings(names)
	for _, name := range names {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), name); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}
