package storekit

import (
	"bytes"
	"crypto"
	"crypto/x509"
	"errors"
	"fmt"
	"time"

	"github.com/pavlo-v-chernykh/keystore-go/v4"
)

// DecodeJKS decodes a Java KeyStore (JKS) and returns the certificates
// and private keys it contains. The same password is used for both the
// store and individual entries (standard Java convention).
//
// TrustedCertificateEntry entries yield certificates. PrivateKeyEntry
// entries yield PKCS#8 private keys and their certificate chains.
// Individual entry errors are skipped; an error is returned only if the
// store cannot be loaded or no usable entries are found.
func DecodeJKS(data []byte, password string) ([]*x509.Certificate, []crypto.PrivateKey, error) {
	ks := keystore.New()
	if err := ks.Load(bytes.NewReader(data), []byte(password)); err != nil {
		return nil, nil, fmt.Errorf("loading JKS: %w", err)
	}

	var certs []*x509.Certificate
	var keys []crypto.PrivateKey

	for _, alias := range ks.Aliases() {
		if ks.IsTrustedCertificateEntry(alias) {
			entry, err := ks.GetTrustedCertificateEntry(alias)
			if err != nil {
				continue
			}
			cert, err := x509.ParseCertificate(entry.Certificate.Content)
			if err != nil {
				continue
			}
			certs = append(certs, cert)
		}

		if ks.IsPrivateKeyEntry(alias) {
			entry, err := ks.GetPrivateKeyEntry(alias, []byte(password))
			if err != nil {
				continue
			}
			key, err := x509.ParsePKCS8PrivateKey(entry.PrivateKey)
			if err != nil {
				continue
			}
			keys = append(keys, key)

			for _, certEntry := range entry.CertificateChain {
				cert, err := x509.ParseCertificate(certEntry.Content)
				if err != nil {
					continue
				}
				certs = append(certs, cert)
			}
		}
	}

	if len(certs) == 0 && len(keys) == 0 {
		return nil, nil, errors.New("no usable entries in JKS")
	}
	return certs, keys, nil
}

// DecodeJKSWithPasswords tries each password in order against a Java
// KeyStore and returns the first successful decode.
func DecodeJKSWithPasswords(data []byte, passwords []string) ([]*x509.Certificate, []crypto.PrivateKey, error) {
	var lastErr error
	for _, password := range passwords {
		certs, keys, err := DecodeJKS(data, password)
		if err == nil {
			return certs, keys, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = errors.New("no passwords to try")
	}
	return nil, nil, fmt.Errorf("decoding JKS with any provided password: %w", lastErr)
}

// EncodeJKS creates a Java KeyStore (JKS) containing a private key entry
// with its certificate chain under the alias "server". The same password
// protects both the store and the key entry.
func EncodeJKS(privateKey crypto.PrivateKey, leaf *x509.Certificate, caCerts []*x509.Certificate, password string) ([]byte, error) {
	pkcs8Key, err := x509.MarshalPKCS8PrivateKey(privateKey)
	if err != nil {
		return nil, fmt.Errorf("marshaling private key to PKCS#8: %w", err)
	}

	chain := []keystore.Certificate{
		{Type: "X.509", Content: leaf.Raw},
	}
	for _, ca := range caCerts {
		chain = append(chain, keystore.Certificate{
			Type:    "X.509",
			Content: ca.Raw,
		})
	}

	ks := keystore.New()
	if err := ks.SetPrivateKeyEntry("server", keystore.PrivateKeyEntry{
		CreationTime:     time.Now(),
		PrivateKey:       pkcs8Key,
		CertificateChain: chain,
	}, []byte(password)); err != nil {
		return nil, fmt.Errorf("setting JKS private key entry: %w", err)
	}

	var buf bytes.Buffer
	if err := ks.Store(&buf, []byte(password)); err != nil {
		return nil, fmt.Errorf("storing JKS: %w", err)
	}

	return buf.Bytes(), nil
}
