package msgcat

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEmbeddedDefaults(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got, err := c.Render("round.win", map[string]string{"Player": "Rock", "System": "Scissors"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got != "You win! Rock vs Scissors" {
		t.Fatalf("unexpected text %q", got)
	}
	help, err := c.Render("help", map[string]string{"Prefix": "!"})
	if err != nil {
		t.Fatalf("Render help: %v", err)
	}
	if !strings.Contains(help, "!rps start") || strings.HasSuffix(help, "\n") {
		t.Fatalf("unexpected help %q", help)
	}
}

func TestRenderMissingKeyAndField(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := c.Render("nope.key", nil); err == nil {
		t.Fatalf("expected error for unknown key")
	}
	if _, err := c.Render("round.win", map[string]string{"Player": "Rock"}); err == nil {
		t.Fatalf("expected error for missing template field")
	}
	if got := c.Text("nope.key", nil); got != "nope.key" {
		t.Fatalf("Text fallback=%q", got)
	}
}

func TestOverrideDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("game:\n  start: \"Go!\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := c.Text("game.start", nil); got != "Go!" {
		t.Fatalf("override not applied: %q", got)
	}
	if got := c.Text("game.cancel", nil); got != "Exit game" {
		t.Fatalf("default lost: %q", got)
	}
}

func TestOverrideDuplicateKeys(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.yaml", "b.yml"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("game:\n  reset: \"x\"\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := New(dir); err == nil {
		t.Fatalf("expected duplicate key error")
	}
}

func TestOverrideRejectsNonStringLeaf(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("game:\n  start: 42\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(dir); err == nil {
		t.Fatalf("expected error for non-string value")
	}
}
