package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sensiblebit/storekit"
	"github.com/sensiblebit/storekit/internal"
)

var (
	logLevel     string
	passwordList []string
	passwordFile string
	configPath   string
)

var rootCmd = &cobra.Command{
	Use:   "storekit",
	Short: "Uniform credential store access",
	Long: "Open URI-addressed credential stores (PEM/DER files, directories, PKCS#12 bundles, " +
		"Java keystores, embedded trust roots, SQLite catalogs) and list, export, or ingest their contents.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		internal.SetupLogger(logLevel)
	},
}

func init() {
	addStoreFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(ingestCmd)
}

func addStoreFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&logLevel, "log-level", "l", "info", "Log level: debug, info, warn, error")
	fs.StringSliceVarP(&passwordList, "passwords", "p", nil, "Additional passwords for encrypted content")
	fs.StringVar(&passwordFile, "password-file", "", "File containing passwords, one per line")
	fs.StringVarP(&configPath, "config", "c", "", "YAML config file with store aliases")
}

// openStore resolves a store argument (URI or @alias), opens it, and
// hands the merged password list to the backend.
func openStore(arg string, filter storekit.FilterFunc) (*storekit.Store, error) {
	var cfg *internal.Config
	if configPath != "" {
		loaded, err := internal.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	uri, aliasPasswords, err := cfg.Resolve(arg)
	if err != nil {
		return nil, err
	}
	passwords, err := internal.ProcessPasswords(append(aliasPasswords, passwordList...), passwordFile)
	if err != nil {
		return nil, err
	}

	st, err := storekit.Open(uri, &storekit.Options{
		Prompt: internal.TerminalPrompt(),
		Filter: filter,
	})
	if err != nil {
		return nil, err
	}
	if err := st.Ctrl(storekit.AddPasswords{Passwords: passwords}); err != nil && !errors.Is(err, storekit.ErrCtrlUnsupported) {
		_ = st.Close()
		return nil, fmt.Errorf("passing passwords to backend: %w", err)
	}
	return st, nil
}
