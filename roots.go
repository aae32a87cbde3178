package storekit

import (
	"fmt"
	"strings"

	"github.com/breml/rootcerts/embedded"
)

// rootsLoader serves the "roots" scheme: trust anchor collections compiled
// into the binary. The only collection today is the Mozilla CA bundle,
// addressed as "roots:" or "roots:mozilla".
type rootsLoader struct{}

func (l *rootsLoader) Open(uri string, _ PasswordFunc) (Session, error) {
	collection := strings.TrimPrefix(uri, SchemeRoots+":")
	switch collection {
	case "", "mozilla":
		return newBlobSession(uri, []byte(embedded.MozillaCACertificatesPEM())), nil
	default:
		return nil, fmt.Errorf("unknown trust anchor collection %q", collection)
	}
}
