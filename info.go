package storekit

import (
	"fmt"
	"strings"
)

// Kind discriminates the payload of an Info. The set is closed: every
// construction, access, and destruction site switches exhaustively over
// it.
type Kind int

const (
	// KindName is a reference to another store, usually produced when a
	// store enumerates a collection, such as a directory of credential
	// files.
	KindName Kind = iota + 1
	// KindParameters is key-generation domain parameters.
	KindParameters
	// KindPrivateKey is a private or bare public key.
	KindPrivateKey
	// KindCertificate is an X.509 certificate.
	KindCertificate
	// KindCRL is an X.509 certificate revocation list.
	KindCRL

	// kindEmbedded carries a nested byte stream from a backend to the
	// stream bridge. It never surfaces through ordinary iteration.
	kindEmbedded
)

// KindFromString maps a kind name ("name", "parameters", "key",
// "certificate", "crl") to its Kind. Returns 0 for anything else.
func KindFromString(s string) Kind {
	switch s {
	case "name":
		return KindName
	case "parameters":
		return KindParameters
	case "key":
		return KindPrivateKey
	case "certificate":
		return KindCertificate
	case "crl":
		return KindCRL
	}
	return 0
}

func (k Kind) String() string {
	switch k {
	case KindName:
		return "name"
	case KindParameters:
		return "parameters"
	case KindPrivateKey:
		return "key"
	case KindCertificate:
		return "certificate"
	case KindCRL:
		return "crl"
	case kindEmbedded:
		return "embedded"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Info is one object loaded from a store: a tagged union whose kind is
// fixed at construction. Exactly one payload is valid per instance. The
// Info owns its payload from construction until Close; the borrowing
// accessors hand out views without transferring ownership, and the
// duplicating accessors produce independently owned values.
type Info struct {
	kind Kind

	name string
	desc string

	pkey *PKey
	cert *Cert
	crl  *CRL

	blob    []byte
	pemName string
}

// NewNameInfo builds a name-kind Info around an identifier, typically a
// URI that can itself be opened.
func NewNameInfo(name string) *Info {
	return &Info{kind: KindName, name: name}
}

// SetNameDescription attaches a human-readable description to a name-kind
// Info. The description lives and dies with the Info. Fails with
// ErrTypeMismatch on any other kind.
func (i *Info) SetNameDescription(desc string) error {
	if i.kind != KindName {
		return fmt.Errorf("setting description on %s info: %w", i.kind, ErrTypeMismatch)
	}
	i.desc = desc
	return nil
}

// NewParametersInfo builds a parameters-kind Info, taking ownership of the
// handle's reference.
func NewParametersInfo(params *PKey) *Info {
	return &Info{kind: KindParameters, pkey: params}
}

// NewPrivateKeyInfo builds a key-kind Info, taking ownership of the
// handle's reference. The handle may hold a private or a bare public key.
func NewPrivateKeyInfo(key *PKey) *Info {
	return &Info{kind: KindPrivateKey, pkey: key}
}

// NewCertificateInfo builds a certificate-kind Info, taking ownership of
// the handle's reference.
func NewCertificateInfo(cert *Cert) *Info {
	return &Info{kind: KindCertificate, cert: cert}
}

// NewCRLInfo builds a CRL-kind Info, taking ownership of the handle's
// reference.
func NewCRLInfo(crl *CRL) *Info {
	return &Info{kind: KindCRL, crl: crl}
}

// newEmbeddedInfo builds the internal embedded-stream variant. The blob is
// owned by the Info; the PEM name records what the surrounding block
// claimed the nested document to be.
func newEmbeddedInfo(pemName string, blob []byte) *Info {
	return &Info{kind: kindEmbedded, pemName: pemName, blob: blob}
}

// Kind reports which payload the Info holds.
func (i *Info) Kind() Kind {
	return i.kind
}

// Name borrows the identifier of a name-kind Info. Returns "" on any
// other kind; that is not an error.
func (i *Info) Name() string {
	if i.kind == KindName {
		return i.name
	}
	return ""
}

// NameCopy returns an independent copy of the identifier, or
// ErrTypeMismatch on any other kind.
func (i *Info) NameCopy() (string, error) {
	if i.kind == KindName {
		return strings.Clone(i.name), nil
	}
	return "", fmt.Errorf("copying name from %s info: %w", i.kind, ErrTypeMismatch)
}

// NameDescription borrows the description of a name-kind Info. Returns ""
// on any other kind, and also when no description was set.
func (i *Info) NameDescription() string {
	if i.kind == KindName {
		return i.desc
	}
	return ""
}

// NameDescriptionCopy returns an independent copy of the description,
// defaulting to "" when none was set, or ErrTypeMismatch on any other
// kind.
func (i *Info) NameDescriptionCopy() (string, error) {
	if i.kind == KindName {
		return strings.Clone(i.desc), nil
	}
	return "", fmt.Errorf("copying description from %s info: %w", i.kind, ErrTypeMismatch)
}

// Parameters borrows the parameters handle without touching its count.
// Returns nil on any other kind; that is not an error.
func (i *Info) Parameters() *PKey {
	if i.kind == KindParameters {
		return i.pkey
	}
	return nil
}

// ParametersRef duplicates the parameters handle, bumping its count. The
// caller owns the returned reference. Fails with ErrTypeMismatch on any
// other kind.
func (i *Info) ParametersRef() (*PKey, error) {
	if i.kind == KindParameters {
		return i.pkey.Ref(), nil
	}
	return nil, fmt.Errorf("taking parameters from %s info: %w", i.kind, ErrTypeMismatch)
}

// PrivateKey borrows the key handle without touching its count. Returns
// nil on any other kind; that is not an error.
func (i *Info) PrivateKey() *PKey {
	if i.kind == KindPrivateKey {
		return i.pkey
	}
	return nil
}

// PrivateKeyRef duplicates the key handle, bumping its count. The caller
// owns the returned reference. Fails with ErrTypeMismatch on any other
// kind.
func (i *Info) PrivateKeyRef() (*PKey, error) {
	if i.kind == KindPrivateKey {
		return i.pkey.Ref(), nil
	}
	return nil, fmt.Errorf("taking key from %s info: %w", i.kind, ErrTypeMismatch)
}

// Certificate borrows the certificate handle without touching its count.
// Returns nil on any other kind; that is not an error.
func (i *Info) Certificate() *Cert {
	if i.kind == KindCertificate {
		return i.cert
	}
	return nil
}

// CertificateRef duplicates the certificate handle, bumping its count.
// The caller owns the returned reference. Fails with ErrTypeMismatch on
// any other kind.
func (i *Info) CertificateRef() (*Cert, error) {
	if i.kind == KindCertificate {
		return i.cert.Ref(), nil
	}
	return nil, fmt.Errorf("taking certificate from %s info: %w", i.kind, ErrTypeMismatch)
}

// CRL borrows the revocation list handle without touching its count.
// Returns nil on any other kind; that is not an error.
func (i *Info) CRL() *CRL {
	if i.kind == KindCRL {
		return i.crl
	}
	return nil
}

// CRLRef duplicates the revocation list handle, bumping its count. The
// caller owns the returned reference. Fails with ErrTypeMismatch on any
// other kind.
func (i *Info) CRLRef() (*CRL, error) {
	if i.kind == KindCRL {
		return i.crl.Ref(), nil
	}
	return nil, fmt.Errorf("taking crl from %s info: %w", i.kind, ErrTypeMismatch)
}

// embeddedBlob borrows the nested byte stream of an embedded Info.
func (i *Info) embeddedBlob() []byte {
	if i.kind == kindEmbedded {
		return i.blob
	}
	return nil
}

// embeddedPEMName borrows the claimed PEM type of an embedded Info.
func (i *Info) embeddedPEMName() string {
	if i.kind == kindEmbedded {
		return i.pemName
	}
	return ""
}

// Close releases the payload: crypto handles lose the reference the Info
// held, strings and buffers are dropped. Close must be called exactly
// once; the Info is unusable afterwards.
func (i *Info) Close() {
	switch i.kind {
	case KindName:
		i.name, i.desc = "", ""
	case KindParameters, KindPrivateKey:
		i.pkey.Close()
		i.pkey = nil
	case KindCertificate:
		i.cert.Close()
		i.cert = nil
	case KindCRL:
		i.crl.Close()
		i.crl = nil
	case kindEmbedded:
		i.blob, i.pemName = nil, ""
	}
}

// String summarizes the Info for logs and listings.
func (i *Info) String() string {
	switch i.kind {
	case KindName:
		if i.desc != "" {
			return fmt.Sprintf("name: %s (%s)", i.name, i.desc)
		}
		return "name: " + i.name
	case KindParameters:
		if curve := i.pkey.Curve(); curve != nil {
			return "parameters: " + curve.Params().Name
		}
		return "parameters"
	case KindPrivateKey:
		if i.pkey.Private() != nil {
			return "key: private"
		}
		return "key: public"
	case KindCertificate:
		if cert := i.cert.X509(); cert != nil {
			return "certificate: " + cert.Subject.String()
		}
		return "certificate"
	case KindCRL:
		if list := i.crl.List(); list != nil {
			return "crl: " + list.Issuer.String()
		}
		return "crl"
	case kindEmbedded:
		return "embedded: " + i.pemName
	}
	return i.kind.String()
}
