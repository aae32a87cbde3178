package storekit

import (
	"crypto"
	"crypto/x509"
	"errors"
	"fmt"

	"github.com/smallstep/pkcs7"
	gopkcs12 "software.sslmate.com/src/go-pkcs12"
)

// DecodePKCS7 decodes a DER-encoded PKCS#7 bundle and returns the
// certificates it contains. Returns an error if decoding fails or the
// bundle holds no certificates.
func DecodePKCS7(derData []byte) ([]*x509.Certificate, error) {
	p7, err := pkcs7.Parse(derData)
	if err != nil {
		return nil, fmt.Errorf("parsing PKCS#7: %w", err)
	}
	if len(p7.Certificates) == 0 {
		return nil, errors.New("no certificates in PKCS#7 bundle")
	}
	return p7.Certificates, nil
}

// DecodePKCS12 decodes a PKCS#12/PFX bundle and returns the private key,
// leaf certificate, and CA certificates.
func DecodePKCS12(pfxData []byte, password string) (crypto.PrivateKey, *x509.Certificate, []*x509.Certificate, error) {
	privateKey, leaf, caCerts, err := gopkcs12.DecodeChain(pfxData, password)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("decoding PKCS#12: %w", err)
	}
	return privateKey, leaf, caCerts, nil
}

// DecodePKCS12WithPasswords tries each password in order against a
// PKCS#12/PFX bundle and returns the first successful decode.
func DecodePKCS12WithPasswords(pfxData []byte, passwords []string) (crypto.PrivateKey, *x509.Certificate, []*x509.Certificate, error) {
	var lastErr error
	for _, password := range passwords {
		key, leaf, caCerts, err := DecodePKCS12(pfxData, password)
		if err == nil {
			return key, leaf, caCerts, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = errors.New("no passwords to try")
	}
	return nil, nil, nil, fmt.Errorf("decoding PKCS#12 with any provided password: %w", lastErr)
}
