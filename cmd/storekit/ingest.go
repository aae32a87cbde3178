package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sensiblebit/storekit"
	"github.com/sensiblebit/storekit/internal"
)

var ingestDB string

var ingestCmd = &cobra.Command{
	Use:   "ingest <store>",
	Short: "Copy a store's objects into a SQLite catalog",
	Long: "Open any store and write its certificates and private keys into a SQLite " +
		"catalog file, which can itself be opened later as sqlite:<path>.",
	Example: `  storekit ingest file:/etc/ssl/certs --db catalog.db
  storekit ingest roots:mozilla --db trust.db`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestDB, "db", "", "SQLite catalog path (required)")
	_ = ingestCmd.MarkFlagRequired("db")
}

func runIngest(cmd *cobra.Command, args []string) error {
	st, err := openStore(args[0], nil)
	if err != nil {
		return err
	}
	catalog, err := internal.OpenCatalog(ingestDB)
	if err != nil {
		_ = st.Close()
		return err
	}

	for {
		info, err := st.Load()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			_ = st.Close()
			_ = catalog.Close()
			return fmt.Errorf("loading from %s: %w", args[0], err)
		}

		switch info.Kind() {
		case storekit.KindCertificate:
			if cert := info.Certificate().X509(); cert != nil {
				err = catalog.InsertCertificate(cert)
			}
		case storekit.KindPrivateKey:
			if priv := info.PrivateKey().Private(); priv != nil {
				err = catalog.InsertKey(priv)
			}
		default:
			slog.Debug("skipping non-catalog object", "kind", info.Kind())
		}
		info.Close()
		if err != nil {
			_ = st.Close()
			_ = catalog.Close()
			return err
		}
	}

	certs, keys, err := catalog.Counts()
	if err == nil {
		fmt.Fprintf(cmd.OutOrStdout(), "catalog %s: %d certificate(s), %d key(s)\n", ingestDB, certs, keys)
	}

	if cerr := st.Close(); cerr != nil {
		slog.Warn("closing store", "error", cerr)
	}
	if cerr := catalog.Close(); cerr != nil {
		return cerr
	}
	return err
}
