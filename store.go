package storekit

import (
	"fmt"
	"io"
	"log/slog"
)

// Options configures Open and Attach. The zero value is usable: no
// passphrases, no filter, the default registry, the default logger.
type Options struct {
	// Prompt supplies passphrases to the backend. Borrowed for the
	// lifetime of the store; never called by the façade itself.
	Prompt PasswordFunc

	// Filter post-processes every loaded object; see FilterFunc.
	Filter FilterFunc

	// Registry overrides the default scheme registry.
	Registry *Registry

	// Logger receives diagnostic detail. It is an observability side
	// channel only; errors are always reported through return values.
	Logger *slog.Logger
}

func (o *Options) registry() *Registry {
	if o != nil && o.Registry != nil {
		return o.Registry
	}
	return defaultRegistry
}

func (o *Options) logger() *slog.Logger {
	if o != nil && o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o *Options) prompt() PasswordFunc {
	if o == nil {
		return nil
	}
	return o.Prompt
}

func (o *Options) filter() FilterFunc {
	if o == nil {
		return nil
	}
	return o.Filter
}

// Store is one open session against a credential source. It binds the
// dispatched loader, the loader's session state, the passphrase callback,
// and an optional post-process filter. A Store is not safe for concurrent
// use.
type Store struct {
	loader  Loader
	session Session
	prompt  PasswordFunc
	filter  FilterFunc
	log     *slog.Logger
}

// Open dispatches a URI to the loader registered for its scheme and
// returns a Store over the loader's session. The scheme is the text
// before the first colon; a URI without a colon is treated as a file
// path. Open fails with ErrUnsupportedScheme when no loader matches and
// with the loader's error, or ErrBackendOpen, when the backend cannot
// produce a session.
func Open(uri string, opts *Options) (*Store, error) {
	scheme, err := splitScheme(uri)
	if err != nil {
		return nil, err
	}
	loader, ok := opts.registry().Lookup(scheme)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, scheme)
	}

	session, err := loader.Open(uri, opts.prompt())
	if err != nil {
		return nil, fmt.Errorf("opening %q: %w", uri, err)
	}
	if session == nil {
		return nil, fmt.Errorf("%w: %q", ErrBackendOpen, uri)
	}

	opts.logger().Debug("store opened", "uri", uri, "scheme", scheme)
	return &Store{
		loader:  loader,
		session: session,
		prompt:  opts.prompt(),
		filter:  opts.filter(),
		log:     opts.logger(),
	}, nil
}

// Load returns the next object from the store. The sequence is lazy and
// not restartable; it ends with io.EOF. Any other error is the backend's,
// and stays observable through Err. When a filter is installed, objects
// it discards are skipped transparently and Load keeps pulling until a
// kept object emerges or the sequence ends.
func (s *Store) Load() (*Info, error) {
	for {
		info, err := s.session.Load(s.prompt)
		if err != nil {
			return nil, err
		}
		if s.filter != nil {
			kept := s.filter(info)
			if kept == nil {
				s.log.Debug("filter discarded object", "kind", info.Kind())
				continue
			}
			info = kept
		}
		return info, nil
	}
}

// Eof reports whether the backend has reached the end of its sequence.
// It reflects backend state, not filter state.
func (s *Store) Eof() bool {
	return s.session.Eof()
}

// Err returns the backend's recorded error, or nil. Together with Eof it
// distinguishes an exhausted sequence from a failed one.
func (s *Store) Err() error {
	return s.session.Err()
}

// Ctrl forwards an out-of-band command to the session. Sessions that do
// not implement Controller, and commands a session does not understand,
// fail with ErrCtrlUnsupported. Command semantics are entirely
// backend-defined.
func (s *Store) Ctrl(cmd Command) error {
	ctrl, ok := s.session.(Controller)
	if !ok {
		return fmt.Errorf("%w: session %T accepts no commands", ErrCtrlUnsupported, s.session)
	}
	return ctrl.Ctrl(cmd)
}

// Close closes the loader session and invalidates the Store. The Store is
// gone no matter what the backend reports; the returned error is the
// backend's close status, for diagnostics only.
func (s *Store) Close() error {
	err := s.session.Close()
	s.loader, s.session = nil, nil
	s.prompt, s.filter = nil, nil
	return err
}

// pemAttacher is the specialized stream entry point of the file loader,
// reached by Attach without scheme dispatch.
type pemAttacher interface {
	attachPEM(r io.Reader) (Session, error)
}

// pemDetacher tears down stream-binding state without touching the
// underlying stream.
type pemDetacher interface {
	detach() error
}

// Attach binds a Store directly to an already-open stream assumed to hold
// sequential PEM blocks, bypassing scheme dispatch. It is the
// continuation path used when a parent parse discovers that the rest of
// its input is a nested object sequence: the caller keeps using
// Load/Eof/Err exactly as after Open. The stream stays owned by the
// caller; release the Store with Detach.
func Attach(r io.Reader, opts *Options) (*Store, error) {
	loader, ok := opts.registry().Lookup(SchemeFile)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, SchemeFile)
	}
	attacher, ok := loader.(pemAttacher)
	if !ok {
		return nil, fmt.Errorf("%w: %q loader cannot attach streams", ErrBackendOpen, SchemeFile)
	}

	session, err := attacher.attachPEM(r)
	if err != nil {
		return nil, fmt.Errorf("attaching stream: %w", err)
	}

	opts.logger().Debug("store attached to stream")
	return &Store{
		loader:  loader,
		session: session,
		prompt:  opts.prompt(),
		filter:  opts.filter(),
		log:     opts.logger(),
	}, nil
}

// Detach releases a Store created by Attach. Only the stream-binding
// state inside the session is torn down; the underlying stream is left
// untouched for its owner. The Store is invalid afterwards.
func (s *Store) Detach() error {
	detacher, ok := s.session.(pemDetacher)
	if !ok {
		return s.Close()
	}
	err := detacher.detach()
	s.loader, s.session = nil, nil
	s.prompt, s.filter = nil, nil
	return err
}
