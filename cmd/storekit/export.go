package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sensiblebit/storekit"
)

var exportDir string

var exportCmd = &cobra.Command{
	Use:   "export <store>",
	Short: "Re-encode a store's objects as PEM",
	Long: "Open a store and write every certificate, CRL, and key as PEM, " +
		"either concatenated on stdout or as one file per object in a directory.",
	Example: `  storekit export bundle.p12 -p secret
  storekit export sqlite:catalog.db -o out/`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportDir, "out-dir", "o", "", "Write one PEM file per object into this directory")
}

func runExport(cmd *cobra.Command, args []string) error {
	st, err := openStore(args[0], nil)
	if err != nil {
		return err
	}

	if exportDir != "" {
		if err := os.MkdirAll(exportDir, 0o755); err != nil {
			_ = st.Close()
			return fmt.Errorf("creating output directory: %w", err)
		}
	}

	count := 0
	for {
		info, err := st.Load()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			_ = st.Close()
			return fmt.Errorf("loading from %s: %w", args[0], err)
		}

		pemData, err := encodeInfo(info)
		if err != nil {
			_ = st.Close()
			info.Close()
			return err
		}
		if pemData == "" {
			slog.Debug("skipping non-exportable object", "kind", info.Kind())
			info.Close()
			continue
		}

		if exportDir == "" {
			fmt.Fprint(cmd.OutOrStdout(), pemData)
		} else {
			name := filepath.Join(exportDir, fmt.Sprintf("%s-%03d.pem", info.Kind(), count))
			if err := os.WriteFile(name, []byte(pemData), 0o600); err != nil {
				_ = st.Close()
				info.Close()
				return fmt.Errorf("writing %s: %w", name, err)
			}
		}
		info.Close()
		count++
	}

	slog.Info("export finished", "objects", count)
	return st.Close()
}

// encodeInfo renders one loaded object as PEM. Objects with no PEM form
// (names, bare parameters) yield "".
func encodeInfo(info *storekit.Info) (string, error) {
	switch info.Kind() {
	case storekit.KindCertificate:
		if cert := info.Certificate().X509(); cert != nil {
			return storekit.CertToPEM(cert), nil
		}
		return "", nil
	case storekit.KindCRL:
		if list := info.CRL().List(); list != nil {
			return storekit.CRLToPEM(list), nil
		}
		return "", nil
	case storekit.KindPrivateKey:
		pkey := info.PrivateKey()
		if priv := pkey.Private(); priv != nil {
			return storekit.MarshalPrivateKeyToPEM(priv)
		}
		if pub := pkey.Public(); pub != nil {
			return storekit.MarshalPublicKeyToPEM(pub)
		}
		return "", nil
	default:
		return "", nil
	}
}
