package internal

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func writePasswordFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "passwords.txt")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadPasswordsFromFile(t *testing.T) {
	// WHY: One password per line, with blank lines and surrounding
	// whitespace dropped so hand-edited files behave.
	t.Parallel()

	path := writePasswordFile(t, "first\n\n  second  \nthird\n")
	got, err := LoadPasswordsFromFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"first", "second", "third"}
	if !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestLoadPasswordsFromFile_Missing(t *testing.T) {
	t.Parallel()

	if _, err := LoadPasswordsFromFile(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestProcessPasswords(t *testing.T) {
	// WHY: The merged list starts with the library defaults, then
	// command-line passwords, then file passwords, with duplicates removed
	// once.
	t.Parallel()

	path := writePasswordFile(t, "fromfile\nchangeit\n")
	got, err := ProcessPasswords([]string{"fromflag", "fromfile"}, path)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"", "password", "changeit", "keypassword", "fromflag", "fromfile"}
	if !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestProcessPasswords_NoFile(t *testing.T) {
	t.Parallel()

	got, err := ProcessPasswords(nil, "")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"", "password", "changeit", "keypassword"}
	if !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestProcessPasswords_BadFile(t *testing.T) {
	t.Parallel()

	if _, err := ProcessPasswords(nil, filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected error for missing password file")
	}
}
