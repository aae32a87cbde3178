package storekit

import "time"

// Command is an out-of-band instruction forwarded to a session through
// Store.Ctrl. The set of commands is closed; each command carries its own
// typed payload, and every backend decides which ones it honors.
type Command interface {
	storeCommand()
}

// Expect restricts subsequent loads to objects of one kind. Backends that
// honor it silently skip everything else, which can save decoding and
// passphrase prompts for objects the caller will throw away anyway.
type Expect struct {
	Kind Kind
}

// AddPasswords extends the list of passphrases a backend tries when it
// meets encrypted content, in addition to any prompt callback.
type AddPasswords struct {
	Passwords []string
}

// SkipExpired makes a backend drop certificates that are no longer valid
// at the given instant.
type SkipExpired struct {
	At time.Time
}

func (Expect) storeCommand()       {}
func (AddPasswords) storeCommand() {}
func (SkipExpired) storeCommand()  {}
