package storekit

import (
	"bytes"
	"crypto"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/x509"
	"encoding/asn1"
	"encoding/pem"
	"errors"
	"fmt"

	"golang.org/x/crypto/ssh"
)

// normalizeKey converts non-standard private key representations to their
// canonical Go form. Currently this dereferences *ed25519.PrivateKey
// (returned by ssh.ParseRawPrivateKey) to the value type
// ed25519.PrivateKey, ensuring downstream type switches only need one
// case.
func normalizeKey(key crypto.PrivateKey) crypto.PrivateKey {
	if ptr, ok := key.(*ed25519.PrivateKey); ok {
		return *ptr
	}
	return key
}

// ParsePEMPrivateKey parses a PEM-encoded private key (PKCS#1, PKCS#8, EC,
// or OpenSSH). For "PRIVATE KEY" blocks it tries PKCS#8 first, then falls
// back to PKCS#1 and EC parsers to handle mislabeled keys.
func ParsePEMPrivateKey(pemData []byte) (crypto.PrivateKey, error) {
	block, _ := pem.Decode(pemData)
	if block == nil {
		return nil, errors.New("no PEM block found in private key data")
	}

	switch block.Type {
	case "RSA PRIVATE KEY":
		return x509.ParsePKCS1PrivateKey(block.Bytes)
	case "EC PRIVATE KEY":
		return x509.ParseECPrivateKey(block.Bytes)
	case "PRIVATE KEY":
		if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
			return key, nil
		}
		if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
			return key, nil
		}
		if key, err := x509.ParseECPrivateKey(block.Bytes); err == nil {
			return key, nil
		}
		return nil, errors.New("parsing PRIVATE KEY block with any known format")
	case "OPENSSH PRIVATE KEY":
		// OpenSSH format uses a proprietary encoding; delegate to x/crypto/ssh
		key, err := ssh.ParseRawPrivateKey(pemData)
		if err != nil {
			return nil, fmt.Errorf("parsing OpenSSH private key: %w", err)
		}
		return normalizeKey(key), nil
	default:
		return nil, fmt.Errorf("unsupported PEM block type %q", block.Type)
	}
}

// DefaultPasswords returns the list of passwords tried by default when
// decrypting password-protected PEM blocks, PKCS#12 files, or Java
// keystores. Returns a fresh copy each call.
func DefaultPasswords() []string {
	return []string{"", "password", "changeit", "keypassword"}
}

// DeduplicatePasswords merges additional passwords with the defaults and
// removes duplicates while preserving order. Defaults come first,
// followed by any extra passwords not already in the list.
func DeduplicatePasswords(extra []string) []string {
	all := append(DefaultPasswords(), extra...)
	seen := make(map[string]bool, len(all))
	result := make([]string, 0, len(all))
	for _, p := range all {
		if !seen[p] {
			seen[p] = true
			result = append(result, p)
		}
	}
	return result
}

// ParsePEMPrivateKeyWithPasswords tries to parse a PEM-encoded private
// key. It first attempts unencrypted parsing via ParsePEMPrivateKey. If
// that fails and the PEM block is encrypted (legacy RFC 1423), it tries
// each password in order. Returns the first successfully decrypted key,
// or an error if all passwords fail.
func ParsePEMPrivateKeyWithPasswords(pemData []byte, passwords []string) (crypto.PrivateKey, error) {
	if key, err := ParsePEMPrivateKey(pemData); err == nil {
		return key, nil
	}

	block, _ := pem.Decode(pemData)
	if block == nil {
		return nil, errors.New("no PEM block found in private key data")
	}

	// OpenSSH keys use their own encryption format, not legacy RFC 1423
	if block.Type == "OPENSSH PRIVATE KEY" {
		for _, password := range passwords {
			if password == "" {
				continue // already tried unencrypted above
			}
			key, err := ssh.ParseRawPrivateKeyWithPassphrase(pemData, []byte(password))
			if err == nil {
				return normalizeKey(key), nil
			}
		}
		return nil, errors.New("parsing OpenSSH private key with any provided password")
	}

	//nolint:staticcheck // x509.IsEncryptedPEMBlock is deprecated but needed for legacy encrypted PEM support
	if !x509.IsEncryptedPEMBlock(block) {
		// Not encrypted and unencrypted parse failed — return the original error
		_, err := ParsePEMPrivateKey(pemData)
		return nil, err
	}

	for _, password := range passwords {
		//nolint:staticcheck // x509.DecryptPEMBlock is deprecated but needed for legacy encrypted PEM support
		decrypted, err := x509.DecryptPEMBlock(block, []byte(password))
		if err != nil {
			continue
		}

		clearPEM := pem.EncodeToMemory(&pem.Block{
			Type:  block.Type,
			Bytes: decrypted,
		})
		if key, err := ParsePEMPrivateKey(clearPEM); err == nil {
			return key, nil
		}
	}

	return nil, errors.New("decrypting private key with any provided password")
}

// Named curve OIDs accepted in EC PARAMETERS blocks (RFC 5480).
var namedCurveOIDs = map[string]elliptic.Curve{
	"1.3.132.0.33":        elliptic.P224(),
	"1.2.840.10045.3.1.7": elliptic.P256(),
	"1.3.132.0.34":        elliptic.P384(),
	"1.3.132.0.35":        elliptic.P521(),
}

// ParseECParameters parses a DER-encoded EC PARAMETERS structure holding a
// named curve OID and returns the curve.
func ParseECParameters(der []byte) (elliptic.Curve, error) {
	var oid asn1.ObjectIdentifier
	if _, err := asn1.Unmarshal(der, &oid); err != nil {
		return nil, fmt.Errorf("parsing EC parameters: %w", err)
	}
	curve, ok := namedCurveOIDs[oid.String()]
	if !ok {
		return nil, fmt.Errorf("unsupported named curve %s", oid)
	}
	return curve, nil
}

// IsPEM returns true if the data appears to contain PEM-encoded content.
func IsPEM(data []byte) bool {
	return bytes.Contains(data, []byte("-----BEGIN"))
}
