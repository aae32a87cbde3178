// Package storekit provides a uniform, URI-addressed way to read
// cryptographic objects (names, key parameters, keys, certificates, CRLs)
// from pluggable backends. A caller opens a store by URI, pulls a lazy
// sequence of typed Info objects from it, and closes it, without knowing
// whether the bytes came from a PEM file, a PKCS#12 bundle, a Java
// keystore, an embedded trust bundle, or a SQLite catalog.
package storekit

// PasswordFunc is called when a backend needs a passphrase, for example to
// decrypt a private key. The prompt describes what the passphrase is for.
// It is passed through to backends opaquely and never invoked by the
// façade itself. A nil PasswordFunc means no passphrase is available
// beyond each backend's built-in password list.
type PasswordFunc func(prompt string) (string, error)

// FilterFunc post-processes every object produced by Load before it
// reaches the caller. It may return the object unchanged, return a
// transformed object, or return nil to discard it, in which case Load
// transparently moves on to the next object. A filter that discards an
// object is responsible for closing it.
type FilterFunc func(info *Info) *Info

// Loader is the capability a backend registers for one URI scheme.
// Open is handed the complete URI, including the scheme prefix.
type Loader interface {
	Open(uri string, prompt PasswordFunc) (Session, error)
}

// Session is one open traversal of a credential source. Sessions are
// stateful and single-threaded; a Session must not be shared between
// goroutines without external locking.
//
// Load returns the next object, io.EOF when the sequence is exhausted, or
// the backend's error. Eof and Err report the backend-observed state after
// the fact and stay valid until Close.
type Session interface {
	Load(prompt PasswordFunc) (*Info, error)
	Eof() bool
	Err() error
	Close() error
}

// Controller is implemented by sessions that accept out-of-band commands.
// Sessions without it make Store.Ctrl fail with ErrCtrlUnsupported.
type Controller interface {
	Ctrl(cmd Command) error
}
