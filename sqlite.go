package storekit

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// sqliteLoader serves the "sqlite" scheme: credential catalogs stored in
// SQLite, using the certificates/keys schema written by the ingest side.
// The catalog is opened read-only; this layer never mutates it.
type sqliteLoader struct{}

func (l *sqliteLoader) Open(uri string, _ PasswordFunc) (Session, error) {
	path := strings.TrimPrefix(uri, SchemeSQLite+":")
	if path == "" {
		return nil, errors.New("sqlite store URI has no path")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("opening catalog %s: %w", path, err)
	}

	db, err := sqlx.Connect("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("opening catalog %s: %w", path, err)
	}
	return &sqliteSession{db: db, source: path}, nil
}

// Traversal phases of a catalog: all certificates, then all keys.
const (
	catalogStart = iota
	catalogCerts
	catalogKeys
	catalogDone
)

// sqliteSession streams a catalog row by row. Queries run lazily — the
// first Load issues the certificate query, and the key query starts only
// once the certificate rows are drained — so Ctrl commands sent before
// iteration still shape the traversal.
type sqliteSession struct {
	db     *sqlx.DB
	source string
	rows   *sqlx.Rows
	phase  int

	expect         Kind
	skipExpiredAt  time.Time
	extraPasswords []string

	eof bool
	err error
}

func (s *sqliteSession) Load(_ PasswordFunc) (*Info, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.eof {
		return nil, io.EOF
	}
	for {
		if s.rows == nil {
			if err := s.nextPhase(); err != nil {
				s.err = err
				return nil, err
			}
			if s.rows == nil {
				s.eof = true
				return nil, io.EOF
			}
		}
		if !s.rows.Next() {
			err := s.rows.Err()
			_ = s.rows.Close()
			s.rows = nil
			if err != nil {
				s.err = fmt.Errorf("reading catalog %s: %w", s.source, err)
				return nil, s.err
			}
			continue
		}

		info, err := s.scanRow()
		if err != nil {
			s.err = err
			return nil, err
		}
		if info != nil {
			return info, nil
		}
	}
}

// nextPhase advances to the next query whose results the caller can
// actually use, leaving rows nil once the catalog is exhausted.
func (s *sqliteSession) nextPhase() error {
	for s.phase < catalogDone {
		s.phase++
		switch s.phase {
		case catalogCerts:
			if s.expect != 0 && s.expect != KindCertificate {
				continue
			}
			query, args := "SELECT pem FROM certificates", []any{}
			if !s.skipExpiredAt.IsZero() {
				query += " WHERE expiry > ?"
				args = append(args, s.skipExpiredAt)
			}
			rows, err := s.db.Queryx(query, args...)
			if err != nil {
				return fmt.Errorf("querying certificates in %s: %w", s.source, err)
			}
			s.rows = rows
			return nil
		case catalogKeys:
			if s.expect != 0 && s.expect != KindPrivateKey {
				continue
			}
			rows, err := s.db.Queryx("SELECT key_data FROM keys")
			if err != nil {
				return fmt.Errorf("querying keys in %s: %w", s.source, err)
			}
			s.rows = rows
			return nil
		}
	}
	return nil
}

// scanRow maps the current row to an Info, or nil to skip an entry that
// no longer parses.
func (s *sqliteSession) scanRow() (*Info, error) {
	var data []byte
	if err := s.rows.Scan(&data); err != nil {
		return nil, fmt.Errorf("scanning catalog row in %s: %w", s.source, err)
	}

	switch s.phase {
	case catalogCerts:
		cert, err := ParsePEMCertificate(data)
		if err != nil {
			slog.Warn("skipping malformed catalog certificate", "source", s.source, "error", err)
			return nil, nil
		}
		return NewCertificateInfo(NewCert(cert)), nil
	case catalogKeys:
		key, err := ParsePEMPrivateKeyWithPasswords(data, DeduplicatePasswords(s.extraPasswords))
		if err != nil {
			slog.Warn("skipping undecryptable catalog key", "source", s.source, "error", err)
			return nil, nil
		}
		return NewPrivateKeyInfo(NewPrivateKey(key)), nil
	}
	return nil, nil
}

func (s *sqliteSession) Eof() bool  { return s.eof }
func (s *sqliteSession) Err() error { return s.err }

func (s *sqliteSession) Close() error {
	if s.rows != nil {
		_ = s.rows.Close()
		s.rows = nil
	}
	return s.db.Close()
}

func (s *sqliteSession) Ctrl(cmd Command) error {
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
