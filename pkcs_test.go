package storekit

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"testing"

	"github.com/smallstep/pkcs7"
	gopkcs12 "software.sslmate.com/src/go-pkcs12"
)

func TestDecodePKCS7(t *testing.T) {
	// WHY: Degenerate PKCS#7 bundles are the common cert-distribution
	// form; the certificates inside must come back intact.
	t.Parallel()

	_, leafPEM := generateTestPKI(t)
	leaf, err := ParsePEMCertificate([]byte(leafPEM))
	if err != nil {
		t.Fatal(err)
	}
	der, err := pkcs7.DegenerateCertificate(leaf.Raw)
	if err != nil {
		t.Fatal(err)
	}

	certs, err := DecodePKCS7(der)
	if err != nil {
		t.Fatal(err)
	}
	if len(certs) != 1 || !certs[0].Equal(leaf) {
		t.Errorf("decoded %d certs, want the original leaf", len(certs))
	}
}

func TestDecodePKCS7_Invalid(t *testing.T) {
	t.Parallel()

	if _, err := DecodePKCS7([]byte("not pkcs7")); err == nil {
		t.Fatal("expected error")
	}
}

func TestDecodePKCS12_RoundTrip(t *testing.T) {
	t.Parallel()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	caPEM, leafPEM := generateTestPKI(t)
	ca, err := ParsePEMCertificate([]byte(caPEM))
	if err != nil {
		t.Fatal(err)
	}
	leaf, err := ParsePEMCertificate([]byte(leafPEM))
	if err != nil {
		t.Fatal(err)
	}
	pfx, err := gopkcs12.Modern.Encode(key, leaf, []*x509.Certificate{ca}, "p12pass")
	if err != nil {
		t.Fatal(err)
	}

	gotKey, gotLeaf, gotCAs, err := DecodePKCS12(pfx, "p12pass")
	if err != nil {
		t.Fatal(err)
	}
	if back, ok := gotKey.(*ecdsa.PrivateKey); !ok || !back.Equal(key) {
		t.Error("key does not round-trip")
	}
	if !gotLeaf.Equal(leaf) || len(gotCAs) != 1 || !gotCAs[0].Equal(ca) {
		t.Error("certificates do not round-trip")
	}
}

func TestDecodePKCS12WithPasswords(t *testing.T) {
	// WHY: The password list is tried in order and decode failure after
	// the whole list is an error, not a zero-value bundle.
	t.Parallel()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	_, leafPEM := generateTestPKI(t)
	leaf, err := ParsePEMCertificate([]byte(leafPEM))
	if err != nil {
		t.Fatal(err)
	}
	pfx, err := gopkcs12.Modern.Encode(key, leaf, nil, "lastone")
	if err != nil {
		t.Fatal(err)
	}

	if _, _, _, err := DecodePKCS12WithPasswords(pfx, []string{"a", "b", "lastone"}); err != nil {
		t.Fatalf("list containing the right password should decode: %v", err)
	}
	if _, _, _, err := DecodePKCS12WithPasswords(pfx, []string{"a", "b"}); err == nil {
		t.Fatal("expected failure when no password matches")
	}
	if _, _, _, err := DecodePKCS12WithPasswords(pfx, nil); err == nil {
		t.Fatal("expected failure with an empty password list")
	}
}
