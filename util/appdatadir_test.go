package util

import "testing"

func TestAppDataDirNonEmpty(t *testing.T) {
	dir := AppDataDir("triad", false)
	if dir == "" {
		t.Fatal("expected a non-empty app data directory")
	}
}

func TestAppDataDirEmptyAppNameReturnsCurrentDir(t *testing.T) {
	if dir := AppDataDir("", false); dir != "." {
		t.Fatalf("expected '.', got %q", dir)
	}
}
