package internal

import (
	"crypto"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/sensiblebit/storekit"
)

// catalogSchema holds the tables the "sqlite" store loader reads back.
// Certificates are deduplicated by (serial, AKI), keys by the hash of
// their public key.
const catalogSchema = `
CREATE TABLE IF NOT EXISTS certificates (
	serial_number            blob NOT NULL,
	authority_key_identifier blob NOT NULL,
	subject_key_identifier   text NOT NULL,
	common_name              text,
	expiry                   timestamp,
	pem                      blob NOT NULL,
	PRIMARY KEY (serial_number, authority_key_identifier)
);
CREATE TABLE IF NOT EXISTS keys (
	subject_key_identifier text PRIMARY KEY,
	key_type               text NOT NULL,
	key_data               blob NOT NULL
);
`

// Catalog is the write side of a SQLite credential catalog. Reading back
// goes through the "sqlite" store scheme.
type Catalog struct {
	db *sqlx.DB
}

// OpenCatalog opens or creates a catalog database file and ensures its
// schema.
func OpenCatalog(path string) (*Catalog, error) {
	db, err := sqlx.Connect("sqlite", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog %s: %w", path, err)
	}
	if _, err := db.Exec(catalogSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing catalog schema: %w", err)
	}
	slog.Debug("catalog opened", "path", path)
	return &Catalog{db: db}, nil
}

// InsertCertificate stores a certificate, skipping duplicates by
// (serial, AKI).
func (c *Catalog) InsertCertificate(cert *x509.Certificate) error {
	ski, err := publicKeyID(cert.PublicKey)
	if err != nil {
		return fmt.Errorf("identifying certificate key: %w", err)
	}
	_, err = c.db.Exec(
		`INSERT OR IGNORE INTO certificates
		 (serial_number, authority_key_identifier, subject_key_identifier, common_name, expiry, pem)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		cert.SerialNumber.String(), cert.AuthorityKeyId, ski,
		cert.Subject.CommonName, cert.NotAfter, []byte(storekit.CertToPEM(cert)),
	)
	if err != nil {
		return fmt.Errorf("inserting certificate: %w", err)
	}
	return nil
}

// InsertKey stores a private key as PKCS#8 PEM, skipping duplicates by
// public key hash.
func (c *Catalog) InsertKey(key crypto.PrivateKey) error {
	signer, ok := key.(crypto.Signer)
	if !ok {
		return fmt.Errorf("unsupported private key type %T", key)
	}
	ski, err := publicKeyID(signer.Public())
	if err != nil {
		return fmt.Errorf("identifying key: %w", err)
	}
	pemData, err := storekit.MarshalPrivateKeyToPEM(key)
	if err != nil {
		return err
	}
	_, err = c.db.Exec(
		`INSERT OR IGNORE INTO keys (subject_key_identifier, key_type, key_data) VALUES (?, ?, ?)`,
		ski, fmt.Sprintf("%T", key), []byte(pemData),
	)
	if err != nil {
		return fmt.Errorf("inserting key: %w", err)
	}
	return nil
}

// Counts reports how many certificates and keys the catalog holds.
func (c *Catalog) Counts() (certs, keys int, err error) {
	if err = c.db.Get(&certs, "SELECT COUNT(*) FROM certificates"); err != nil {
		return 0, 0, fmt.Errorf("counting certificates: %w", err)
	}
	if err = c.db.Get(&keys, "SELECT COUNT(*) FROM keys"); err != nil {
		return 0, 0, fmt.Errorf("counting keys: %w", err)
	}
	return certs, keys, nil
}

// Close closes the underlying database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// publicKeyID derives a stable hex identifier from a public key: the
// SHA-256 of its PKIX encoding.
func publicKeyID(pub crypto.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", fmt.Errorf("marshaling public key: %w", err)
	}
	sum := sha256.Sum256(der)
	return hex.EncodeToString(sum[:]), nil
}
