package storekit

import (
	"bytes"
	"crypto"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// fileLoader serves the "file" scheme: local files and directories. It is
// also the stream-oriented backend behind Attach.
type fileLoader struct{}

// Open resolves the URI to a path and builds a session over it. A
// directory yields one name object per entry; a file is slurped and
// decoded lazily during Load.
func (l *fileLoader) Open(uri string, _ PasswordFunc) (Session, error) {
	path, err := filePath(uri)
	if err != nil {
		return nil, err
	}

	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	if fi.IsDir() {
		return newDirSession(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return newBlobSession(path, data), nil
}

// attachPEM is the specialized entry point behind Attach: it binds a
// session to a caller-owned stream presumed to hold sequential PEM
// blocks. The remaining stream content is drained into the session, but
// the stream itself is never closed here.
func (l *fileLoader) attachPEM(r io.Reader) (Session, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading attached stream: %w", err)
	}
	return newBlobSession("<attached stream>", data), nil
}

// filePath extracts the filesystem path from a file URI. Accepted forms:
// a bare path, "file:path", "file:///abs/path", and
// "file://localhost/abs/path". Any other authority is rejected.
func filePath(uri string) (string, error) {
	rest, ok := strings.CutPrefix(uri, SchemeFile+":")
	if !ok {
		// No scheme prefix: the whole URI is the path.
		return uri, nil
	}
	if after, ok := strings.CutPrefix(rest, "//"); ok {
		slash := strings.IndexByte(after, '/')
		if slash < 0 {
			return "", fmt.Errorf("file URI %q has no path", uri)
		}
		if authority := after[:slash]; authority != "" && authority != "localhost" {
			return "", fmt.Errorf("file URI %q names a remote authority %q", uri, authority)
		}
		rest = after[slash:]
	}
	if rest == "" {
		return "", fmt.Errorf("file URI %q has no path", uri)
	}
	return rest, nil
}

// dirSession enumerates a directory as a sequence of name objects
// pointing at its entries. Hidden entries are skipped.
type dirSession struct {
	dir     string
	entries []string
	idx     int
	expect  Kind
	eof     bool
}

func newDirSession(dir string) (*dirSession, error) {
	list, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}
	entries := make([]string, 0, len(list))
	for _, entry := range list {
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		entries = append(entries, entry.Name())
	}
	return &dirSession{dir: dir, entries: entries}, nil
}

func (s *dirSession) Load(_ PasswordFunc) (*Info, error) {
	if s.expect != 0 && s.expect != KindName {
		s.idx = len(s.entries)
	}
	if s.idx >= len(s.entries) {
		s.eof = true
		return nil, io.EOF
	}
	name := s.entries[s.idx]
	s.idx++
	info := NewNameInfo(filepath.Join(s.dir, name))
	if err := info.SetNameDescription("directory entry"); err != nil {
		return nil, err
	}
	return info, nil
}

func (s *dirSession) Eof() bool  { return s.eof }
func (s *dirSession) Err() error { return nil }

func (s *dirSession) Close() error {
	s.entries = nil
	return nil
}

func (s *dirSession) Ctrl(cmd Command) error {
	switch c := cmd.(type) {
	case Expect:
		s.expect = c.Kind
		return nil
	default:
		return fmt.Errorf("%w: %T", ErrCtrlUnsupported, cmd)
	}
}

// blobSession decodes a byte blob lazily. PEM input is walked block by
// block on each Load; binary input is decoded in one shot at the first
// Load and drained from a queue. Multi-object containers (PKCS#7,
// PKCS#12, JKS) also go through the queue.
type blobSession struct {
	source   string
	data     []byte // binary input, nil once decoded
	rest     []byte // remaining PEM input
	pemInput bool

	queue          []*Info
	extraPasswords []string
	expect         Kind
	skipExpiredAt  time.Time // zero = keep expired certificates

	binaryDone bool
	eof        bool
	err        error
}

func newBlobSession(source string, data []byte) *blobSession {
	s := &blobSession{source: source}
	switch {
	case len(data) == 0:
		// Empty input is an empty sequence, not a format error.
		s.pemInput = true
	case IsPEM(data):
		s.pemInput = true
		s.rest = data
	default:
		s.data = data
	}
	return s
}

func (s *blobSession) Load(prompt PasswordFunc) (*Info, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.eof {
		return nil, io.EOF
	}
	for {
		info, err := s.next(prompt)
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.eof = true
			} else {
				s.err = err
			}
			return nil, err
		}
		if info.Kind() == kindEmbedded {
			s.drainEmbedded(info, prompt)
			continue
		}
		if s.skips(info) {
			info.Close()
			continue
		}
		return info, nil
	}
}

// skips applies the Expect and SkipExpired controls.
func (s *blobSession) skips(info *Info) bool {
	if s.expect != 0 && info.Kind() != s.expect {
		return true
	}
	if !s.skipExpiredAt.IsZero() && info.Kind() == KindCertificate {
		if cert := info.Certificate().X509(); cert != nil && cert.NotAfter.Before(s.skipExpiredAt) {
			return true
		}
	}
	return false
}

func (s *blobSession) next(prompt PasswordFunc) (*Info, error) {
	for {
		if len(s.queue) > 0 {
			info := s.queue[0]
			s.queue = s.queue[1:]
			return info, nil
		}
		if s.pemInput {
			return s.nextPEM(prompt)
		}
		if s.binaryDone {
			return nil, io.EOF
		}
		s.binaryDone = true
		infos, err := s.decodeBinary(prompt)
		if err != nil {
			return nil, err
		}
		s.queue = infos
		s.data = nil
	}
}

// nextPEM walks the remaining input one PEM block at a time. Blocks that
// fail to decode are logged and skipped rather than ending the sequence.
func (s *blobSession) nextPEM(prompt PasswordFunc) (*Info, error) {
	for len(s.rest) > 0 {
		block, rest := pem.Decode(s.rest)
		if block == nil {
			s.rest = nil
			break
		}
		s.rest = rest
		if info := s.decodeBlock(block, prompt); info != nil {
			return info, nil
		}
	}
	return nil, io.EOF
}

// decodeBlock maps one PEM block to an Info, or nil to skip it. A block
// whose payload is itself a PEM document becomes an internal embedded
// object that Load recurses into.
func (s *blobSession) decodeBlock(block *pem.Block, prompt PasswordFunc) *Info {
	switch {
	case block.Type == "CERTIFICATE":
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			slog.Warn("skipping malformed certificate", "source", s.source, "error", err)
			return nil
		}
		return NewCertificateInfo(NewCert(cert))
	case block.Type == "X509 CRL":
		list, err := x509.ParseRevocationList(block.Bytes)
		if err != nil {
			slog.Warn("skipping malformed CRL", "source", s.source, "error", err)
			return nil
		}
		return NewCRLInfo(NewCRL(list))
	case strings.Contains(block.Type, "PRIVATE KEY"):
		pemData := pem.EncodeToMemory(block)
		key, err := ParsePEMPrivateKeyWithPasswords(pemData, s.passwords())
		if err != nil && prompt != nil {
			if pw, perr := prompt("passphrase for key in " + s.source); perr == nil {
				key, err = ParsePEMPrivateKeyWithPasswords(pemData, []string{pw})
			}
		}
		if err != nil {
			slog.Debug("skipping undecryptable private key", "source", s.source, "error", err)
			return nil
		}
		return NewPrivateKeyInfo(NewPrivateKey(key))
	case block.Type == "PUBLIC KEY":
		pub, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			slog.Debug("skipping malformed public key", "source", s.source, "error", err)
			return nil
		}
		return NewPrivateKeyInfo(NewPublicKey(pub))
	case block.Type == "EC PARAMETERS":
		curve, err := ParseECParameters(block.Bytes)
		if err != nil {
			slog.Debug("skipping unsupported EC parameters", "source", s.source, "error", err)
			return nil
		}
		return NewParametersInfo(NewParameters(curve))
	case IsPEM(block.Bytes):
		// Nested PEM document wrapped in an outer block.
		return newEmbeddedInfo(block.Type, block.Bytes)
	default:
		slog.Debug("skipping unrecognized PEM block", "source", s.source, "type", block.Type)
		return nil
	}
}

// drainEmbedded hands a nested byte stream back through the stream
// bridge: a sub-store is attached over the blob, drained into the queue,
// and detached. The embedded object never reaches the caller.
func (s *blobSession) drainEmbedded(info *Info, prompt PasswordFunc) {
	blob := info.embeddedBlob()
	pemName := info.embeddedPEMName()
	defer info.Close()

	sub, err := Attach(bytes.NewReader(blob), &Options{Prompt: prompt})
	if err != nil {
		slog.Debug("cannot attach embedded stream", "source", s.source, "pem", pemName, "error", err)
		return
	}
	if len(s.extraPasswords) > 0 {
		_ = sub.Ctrl(AddPasswords{Passwords: s.extraPasswords})
	}
	for {
		nested, err := sub.Load()
		if err != nil {
			break
		}
		s.queue = append(s.queue, nested)
	}
	if err := sub.Detach(); err != nil {
		slog.Debug("detaching embedded stream", "source", s.source, "error", err)
	}
}

// decodeBinary tries the binary formats in priority order: DER
// certificate(s), DER CRL, PKCS#7, PKCS#12, JKS, then raw DER keys.
func (s *blobSession) decodeBinary(prompt PasswordFunc) ([]*Info, error) {
	data := s.data

	if certs, err := x509.ParseCertificates(data); err == nil && len(certs) > 0 {
		return certInfos(certs), nil
	}
	if list, err := x509.ParseRevocationList(data); err == nil {
		return []*Info{NewCRLInfo(NewCRL(list))}, nil
	}
	if certs, err := DecodePKCS7(data); err == nil {
		return certInfos(certs), nil
	}

	if key, leaf, caCerts, err := s.decodePKCS12(data, prompt); err == nil {
		infos := []*Info{NewPrivateKeyInfo(NewPrivateKey(key))}
		if leaf != nil {
			infos = append(infos, NewCertificateInfo(NewCert(leaf)))
		}
		return append(infos, certInfos(caCerts)...), nil
	}
	if certs, keys, err := s.decodeJKS(data, prompt); err == nil {
		infos := make([]*Info, 0, len(certs)+len(keys))
		for _, key := range keys {
			infos = append(infos, NewPrivateKeyInfo(NewPrivateKey(key)))
		}
		return append(infos, certInfos(certs)...), nil
	}

	if key, err := x509.ParsePKCS8PrivateKey(data); err == nil {
		return []*Info{NewPrivateKeyInfo(NewPrivateKey(key))}, nil
	}
	if key, err := x509.ParsePKCS1PrivateKey(data); err == nil {
		return []*Info{NewPrivateKeyInfo(NewPrivateKey(key))}, nil
	}
	if key, err := x509.ParseECPrivateKey(data); err == nil {
		return []*Info{NewPrivateKeyInfo(NewPrivateKey(key))}, nil
	}

	return nil, fmt.Errorf("%s: %w", s.source, ErrUnknownFormat)
}

func (s *blobSession) decodePKCS12(data []byte, prompt PasswordFunc) (key crypto.PrivateKey, leaf *x509.Certificate, caCerts []*x509.Certificate, err error) {
	key, leaf, caCerts, err = DecodePKCS12WithPasswords(data, s.passwords())
	if err != nil && prompt != nil {
		if pw, perr := prompt("passphrase for PKCS#12 bundle " + s.source); perr == nil {
			return DecodePKCS12WithPasswords(data, []string{pw})
		}
	}
	return key, leaf, caCerts, err
}

func (s *blobSession) decodeJKS(data []byte, prompt PasswordFunc) ([]*x509.Certificate, []crypto.PrivateKey, error) {
	certs, keys, err := DecodeJKSWithPasswords(data, s.passwords())
	if err != nil && prompt != nil {
		if pw, perr := prompt("passphrase for keystore " + s.source); perr == nil {
			return DecodeJKSWithPasswords(data, []string{pw})
		}
	}
	return certs, keys, err
}

func (s *blobSession) passwords() []string {
	return DeduplicatePasswords(s.extraPasswords)
}

func certInfos(certs []*x509.Certificate) []*Info {
	infos := make([]*Info, 0, len(certs))
	for _, cert := range certs {
		infos = append(infos, NewCertificateInfo(NewCert(cert)))
	}
	return infos
}

func (s *blobSession) Eof() bool  { return s.eof }
func (s *blobSession) Err() error { return s.err }

// Close releases the session's decode state. Queued objects that never
// reached the caller are closed here.
func (s *blobSession) Close() error {
	return s.teardown()
}

// detach backs the stream bridge: identical teardown, but named apart
// because the attached stream belongs to the original caller and is
// deliberately left alone.
func (s *blobSession) detach() error {
	return s.teardown()
}

func (s *blobSession) teardown() error {
	for _, info := range s.queue {
		info.Close()
	}
	s.queue = nil
	s.data, s.rest = nil, nil
	return nil
}

func (s *blobSession) Ctrl(cmd Command) error {
	switch c := cmd.(type) {
	case Expect:
		s.expect = c.Kind
		return nil
	case AddPasswords:
		s.extraPasswords = append(s.extraPasswords, c.Passwords...)
		return nil
	case SkipExpired:
		s.skipExpiredAt = c.At
		return nil
	default:
		return fmt.Errorf("%w: %T", ErrCtrlUnsupported, cmd)
	}
}
