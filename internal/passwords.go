package internal

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/sensiblebit/storekit"
)

// LoadPasswordsFromFile loads passwords from a file, one password per
// line. Blank lines are skipped.
func LoadPasswordsFromFile(filename string) ([]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var passwords []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if pwd := strings.TrimSpace(scanner.Text()); pwd != "" {
			passwords = append(passwords, pwd)
		}
	}
	return passwords, scanner.Err()
}

// ProcessPasswords merges the built-in defaults, command-line passwords,
// and passwords from an optional file into one deduplicated list, in
// that order.
func ProcessPasswords(passwordList []string, passwordFile string) ([]string, error) {
	extra := append([]string{}, passwordList...)

	if passwordFile != "" {
		filePasswords, err := LoadPasswordsFromFile(passwordFile)
		if err != nil {
			return nil, fmt.Errorf("loading passwords from file: %w", err)
		}
		extra = append(extra, filePasswords...)
	}

	return storekit.DeduplicatePasswords(extra), nil
}
