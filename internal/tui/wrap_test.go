package tui

import "testing"

func TestWrapTextAtSpaces(t *testing.T) {
	lines := wrapText("the quick brown fox", 10)
	want := []string{"the quick", "brown fox"}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %q", len(want), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("line %d: expected %q, got %q", i, want[i], lines[i])
		}
	}
}

func TestWrapTextWideRunes(t *testing.T) {
	lines := wrapText("もとに対する大きさ", 8)
	want := []string{"もとに対", "する大き", "さ"}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %q", len(want), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("line %d: expected %q, got %q", i, want[i], lines[i])
		}
	}
}

func TestWrapTextKeepsNewlines(t *testing.T) {
	lines := wrapText("a\nb", 10)
	if len(lines) != 2 || lines[0] != "a" || lines[1] != "b" {
		t.Fatalf("unexpected lines: %q", lines)
	}
}

func TestWrapTextNoWidth(t *testing.T) {
	lines := wrapText("abc def", 0)
	if len(lines) != 1 || lines[0] != "abc def" {
		t.Fatalf("unexpected lines: %q", lines)
	}
}
