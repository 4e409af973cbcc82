package main

import (
	"os"
	"path/filepath"
	"testing"
)

// TestReadSizes tests box-size file parsing.
func TestReadSizes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sizes.txt")
	content := "# boxes from the training split\n10 13\n\n16.5 30\n33 23\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	sizes, err := readSizes(path)
	if err != nil {
		t.Fatalf("readSizes failed: %v", err)
	}
	want := [][2]float64{{10, 13}, {16.5, 30}, {33, 23}}
	if len(sizes) != len(want) {
		t.Fatalf("Expected %d sizes, got %d", len(want), len(sizes))
	}
	for i, s := range want {
		if sizes[i] != s {
			t.Errorf("Size %d: expected %v, got %v", i, s, sizes[i])
		}
	}
}

// TestReadSizes_Malformed tests line-level error reporting.
func TestReadSizes_Malformed(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"missing column", "10 13\n16\n"},
		{"extra column", "10 13 5\n"},
		{"non-numeric", "10 x\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "sizes.txt")
			if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := readSizes(path); err == nil {
				t.Error("Expected a parse error, got nil")
			}
		})
	}

	if _, err := readSizes(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("Expected an error for a missing file, got nil")
	}
}

// TestFitAnchors tests the subcommand end to end.
func TestFitAnchors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sizes.txt")
	content := ""
	for i := 0; i < 20; i++ {
		content += "10 12\n60 45\n120 90\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := fitAnchors([]string{"-scales", "3", "-per-scale", "1", path}); err != nil {
		t.Fatalf("fitAnchors failed: %v", err)
	}

	// Too few samples for the requested cluster count.
	if err := fitAnchors([]string{"-scales", "100", path}); err == nil {
		t.Error("Expected a clustering error, got nil")
	}
}
