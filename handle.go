package storekit

import (
	"crypto"
	"crypto/elliptic"
	"crypto/x509"
	"sync/atomic"
)

// PKey is a reference-counted handle around key material: a private key, a
// bare public key, or key-generation domain parameters. The counter is
// atomic, so handles duplicated with Ref can be shared across goroutines
// even though the Store that produced them cannot.
//
// A handle starts with one reference. Every Ref must be balanced by a
// Close; the material is dropped when the count reaches zero. Using a
// handle after its last Close is programmer error and is not runtime
// checked.
type PKey struct {
	refs  atomic.Int32
	priv  crypto.PrivateKey
	pub   crypto.PublicKey
	curve elliptic.Curve
}

// NewPrivateKey wraps a private key in a fresh handle.
func NewPrivateKey(priv crypto.PrivateKey) *PKey {
	k := &PKey{priv: priv}
	k.refs.Store(1)
	return k
}

// NewPublicKey wraps a bare public key in a fresh handle.
func NewPublicKey(pub crypto.PublicKey) *PKey {
	k := &PKey{pub: pub}
	k.refs.Store(1)
	return k
}

// NewParameters wraps EC domain parameters in a fresh handle.
func NewParameters(curve elliptic.Curve) *PKey {
	k := &PKey{curve: curve}
	k.refs.Store(1)
	return k
}

// Private returns the private key, or nil if the handle holds none.
func (k *PKey) Private() crypto.PrivateKey {
	if k == nil {
		return nil
	}
	return k.priv
}

// Public returns the public key. For a private-key handle it is derived
// through crypto.Signer. Returns nil for a parameters-only handle.
func (k *PKey) Public() crypto.PublicKey {
	if k == nil {
		return nil
	}
	if k.pub != nil {
		return k.pub
	}
	if signer, ok := k.priv.(crypto.Signer); ok {
		return signer.Public()
	}
	return nil
}

// Curve returns the domain parameters, or nil if the handle holds none.
func (k *PKey) Curve() elliptic.Curve {
	if k == nil {
		return nil
	}
	return k.curve
}

// Ref adds a reference and returns the same handle. Ref on a nil handle
// is a no-op returning nil.
func (k *PKey) Ref() *PKey {
	if k == nil {
		return nil
	}
	k.refs.Add(1)
	return k
}

// Close drops one reference, releasing the material at zero.
func (k *PKey) Close() {
	if k == nil {
		return
	}
	if k.refs.Add(-1) == 0 {
		k.priv, k.pub, k.curve = nil, nil, nil
	}
}

// RefCount reports the current reference count.
func (k *PKey) RefCount() int {
	if k == nil {
		return 0
	}
	return int(k.refs.Load())
}

// Cert is a reference-counted handle around a parsed certificate, with the
// same counting discipline as PKey.
type Cert struct {
	refs atomic.Int32
	cert *x509.Certificate
}

// NewCert wraps a certificate in a fresh handle. A nil certificate is
// accepted; the handle then borrows out nil.
func NewCert(cert *x509.Certificate) *Cert {
	c := &Cert{cert: cert}
	c.refs.Store(1)
	return c
}

// X509 returns the wrapped certificate without touching the count.
func (c *Cert) X509() *x509.Certificate {
	if c == nil {
		return nil
	}
	return c.cert
}

// Ref adds a reference and returns the same handle. Ref on a nil handle
// is a no-op returning nil.
func (c *Cert) Ref() *Cert {
	if c == nil {
		return nil
	}
	c.refs.Add(1)
	return c
}

// Close drops one reference, releasing the certificate at zero.
func (c *Cert) Close() {
	if c == nil {
		return
	}
	if c.refs.Add(-1) == 0 {
		c.cert = nil
	}
}

// RefCount reports the current reference count.
func (c *Cert) RefCount() int {
	if c == nil {
		return 0
	}
	return int(c.refs.Load())
}

// CRL is a reference-counted handle around a parsed revocation list, with
// the same counting discipline as PKey.
type CRL struct {
	refs atomic.Int32
	list *x509.RevocationList
}

// NewCRL wraps a revocation list in a fresh handle.
func NewCRL(list *x509.RevocationList) *CRL {
	c := &CRL{list: list}
	c.refs.Store(1)
	return c
}

// List returns the wrapped revocation list without touching the count.
func (c *CRL) List() *x509.RevocationList {
	if c == nil {
		return nil
	}
	return c.list
}

// Ref adds a reference and returns the same handle. Ref on a nil handle
// is a no-op returning nil.
func (c *CRL) Ref() *CRL {
	if c == nil {
		return nil
	}
	c.refs.Add(1)
	return c
}

// Close drops one reference, releasing the list at zero.
func (c *CRL) Close() {
	if c == nil {
		return
	}
	if c.refs.Add(-1) == 0 {
		c.list = nil
	}
}

// RefCount reports the current reference count.
func (c *CRL) RefCount() int {
	if c == nil {
		return 0
	}
	return int(c.refs.Load())
}
