package core

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOutputSkipsDuplicateWrites(t *testing.T) {
	dir := t.TempDir()

	out, err := NewOutput(dir, "urls.txt")
	if err != nil {
		t.Fatalf("failed to open output: %v", err)
	}
	t.Cleanup(out.Close)

	out.WriteToFile("https://example.com/a")
	out.WriteToFile("https://example.com/a")
	out.WriteToFile("https://example.com/A")
	out.WriteToFile("   ")
	out.Close()
	out.WriteToFile("https://example.com/after-close")

	data, err := os.ReadFile(filepath.Join(dir, "urls.txt"))
	if err != nil {
		t.Fatalf("failed to read output file: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	want := []string{"https://example.com/a", "https://example.com/A"}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d: %v", len(want), len(lines), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("line %d mismatch: want %q, got %q", i, want[i], lines[i])
		}
	}
}

func TestOutputLoadsExistingEntries(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "existing.txt")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(path, []byte("gamma\n"), 0o600); err != nil {
		t.Fatalf("failed to seed file: %v", err)
	}

	out, err := NewOutputPath(path)
	if err != nil {
		t.Fatalf("failed to open output: %v", err)
	}
	t.Cleanup(out.Close)

	out.WriteToFile("gamma")
	out.WriteToFile("delta")
	out.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read output file: %v", err)
	}

	got := strings.Split(strings.TrimSpace(string(data)), "\n")
	want := []string{"gamma", "delta"}
	if len(got) != len(want) {
		t.Fatalf("expected %d lines, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("line %d mismatch: want %q, got %q", i, want[i], got[i])
		}
	}
}
