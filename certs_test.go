package storekit

import (
	"crypto/ecdsa"
	"crypto/x509"
	"strings"
	"testing"
	"time"
)

func TestParsePEMCertificates(t *testing.T) {
	// WHY: Multi-cert parsing must keep file order and ignore interleaved
	// non-certificate blocks.
	t.Parallel()

	caPEM, leafPEM, keyPEM := generateTestPKIWithKey(t)
	certs, err := ParsePEMCertificates([]byte(caPEM + keyPEM + leafPEM))
	if err != nil {
		t.Fatal(err)
	}
	if len(certs) != 2 {
		t.Fatalf("parsed %d certs, want 2", len(certs))
	}
	if certs[0].Subject.CommonName != "Test CA" || certs[1].Subject.CommonName != "test.example.com" {
		t.Errorf("order lost: %q, %q", certs[0].Subject.CommonName, certs[1].Subject.CommonName)
	}
}

func TestParsePEMCertificates_NoCertificates(t *testing.T) {
	t.Parallel()

	_, keyPEM := generateECKeyPEM(t)
	tests := []struct {
		name  string
		input []byte
	}{
		{"nil input", nil},
		{"non-PEM text", []byte("not a cert")},
		{"only key blocks", []byte(keyPEM)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := ParsePEMCertificates(tt.input); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestParsePEMCertificate_Single(t *testing.T) {
	t.Parallel()

	_, leafPEM := generateTestPKI(t)
	cert, err := ParsePEMCertificate([]byte(leafPEM))
	if err != nil {
		t.Fatal(err)
	}
	if cert.Subject.CommonName != "test.example.com" {
		t.Errorf("CN=%q", cert.Subject.CommonName)
	}
}

func TestCertToPEM_RoundTrip(t *testing.T) {
	t.Parallel()

	cert, _ := generateTestCert(t, "pem.example.com", time.Now().Add(time.Hour))
	pemStr := CertToPEM(cert)
	if !strings.HasPrefix(pemStr, "-----BEGIN CERTIFICATE-----") {
		t.Fatalf("unexpected PEM prefix: %q", pemStr[:40])
	}
	back, err := ParsePEMCertificate([]byte(pemStr))
	if err != nil {
		t.Fatal(err)
	}
	if !back.Equal(cert) {
		t.Error("certificate does not round-trip")
	}
}

func TestCRLToPEM_RoundTrip(t *testing.T) {
	t.Parallel()

	_, crlDER := generateTestCRL(t)
	list, err := x509.ParseRevocationList(crlDER)
	if err != nil {
		t.Fatal(err)
	}
	pemStr := CRLToPEM(list)
	if !strings.HasPrefix(pemStr, "-----BEGIN X509 CRL-----") {
		t.Fatalf("unexpected PEM prefix: %q", pemStr[:30])
	}
}

func TestMarshalPrivateKeyToPEM_RoundTrip(t *testing.T) {
	// WHY: Keys written back out must re-parse to an equal key regardless
	// of the original container.
	t.Parallel()

	ecKey, _ := generateECKeyPEM(t)
	pemStr, err := MarshalPrivateKeyToPEM(ecKey)
	if err != nil {
		t.Fatal(err)
	}
	back, err := ParsePEMPrivateKey([]byte(pemStr))
	if err != nil {
		t.Fatal(err)
	}
	if parsed, ok := back.(*ecdsa.PrivateKey); !ok || !parsed.Equal(ecKey) {
		t.Error("key does not round-trip")
	}
}

func TestMarshalPublicKeyToPEM(t *testing.T) {
	t.Parallel()

	ecKey, _ := generateECKeyPEM(t)
	pemStr, err := MarshalPublicKeyToPEM(ecKey.Public())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(pemStr, "-----BEGIN PUBLIC KEY-----") {
		t.Fatalf("unexpected PEM prefix: %q", pemStr[:30])
	}
}
