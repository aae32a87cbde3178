package internal

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"

	"github.com/sensiblebit/storekit"
)

// TerminalPrompt returns a passphrase callback that reads from the
// controlling terminal without echo. Returns nil when stdin is not a
// terminal, so batch runs never hang waiting for input.
func TerminalPrompt() storekit.PasswordFunc {
	fd := os.Stdin.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		return nil
	}
	return func(prompt string) (string, error) {
		fmt.Fprintf(os.Stderr, "%s: ", prompt)
		pw, err := term.ReadPassword(int(fd))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("reading passphrase: %w", err)
		}
		return string(pw), nil
	}
}
