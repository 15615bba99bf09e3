// Package gate guards the admin views behind a shared PIN.
//
// The gate is a convenience lock for the local UI. It is NOT a security
// boundary: the PIN lives in client configuration and the backend enforces
// authorization on its own through the bearer token.
package gate

import (
	"crypto/subtle"
	"sync/atomic"

	"github.com/go-faster/errors"

	"github.com/JohnDeved/wallhub/internal/model"
)

// DefaultPIN is used when configuration does not set one.
const DefaultPIN = "1234"

// MsgIncorrect is shown after a wrong PIN.
const MsgIncorrect = "Incorrect PIN. Try again."

// Verifier decides whether a candidate PIN is acceptable.
type Verifier interface {
	Verify(candidate string) bool
}

// SecretVerifier compares against a fixed PIN.
type SecretVerifier struct {
	PIN string
}

func (v SecretVerifier) Verify(candidate string) bool {
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(v.PIN)) == 1
}

// Gate remembers whether the admin views were unlocked this session.
// Attempts are not limited.
type Gate struct {
	verifier Verifier
	unlocked atomic.Bool
}

// New returns a locked gate. A nil verifier checks against DefaultPIN.
func New(v Verifier) *Gate {
	if v == nil {
		v = SecretVerifier{PIN: DefaultPIN}
	}
	return &Gate{verifier: v}
}

// FromPIN returns a gate for pin, falling back to DefaultPIN when empty.
func FromPIN(pin string) *Gate {
	if pin == "" {
		pin = DefaultPIN
	}
	return New(SecretVerifier{PIN: pin})
}

// Check reports whether candidate is accepted. It has no side effects.
func (g *Gate) Check(candidate string) bool {
	return g.verifier.Verify(candidate)
}

// Unlock checks candidate and records success for the session.
func (g *Gate) Unlock(candidate string) error {
	if !g.Check(candidate) {
		return errors.Wrap(model.ErrAccessDenied, MsgIncorrect)
	}
	g.unlocked.Store(true)
	return nil
}

// Unlocked reports whether Unlock succeeded in this session.
func (g *Gate) Unlocked() bool {
	return g.unlocked.Load()
}

// Lock forgets a previous unlock.
func (g *Gate) Lock() {
	g.unlocked.Store(false)
}
