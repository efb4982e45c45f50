package notefile

import (
	"log/slog"
	"time"

	"github.com/starford/knt/internal/parser"
)

// PassphraseProvider supplies the passphrase of an encrypted file on
// demand. ok is false when the user declined or none is configured.
type PassphraseProvider interface {
	Passphrase() (pass string, ok bool)
}

// PassphraseFunc adapts a function to PassphraseProvider.
type PassphraseFunc func() (string, bool)

// Passphrase implements PassphraseProvider.
func (f PassphraseFunc) Passphrase() (string, bool) { return f() }

type noPassphrase struct{}

func (noPassphrase) Passphrase() (string, bool) { return "", false }

// Option configures Load, Encode and Save.
type Option func(*options)

type options struct {
	passphrase PassphraseProvider
	observer   parser.Observer
	now        func() time.Time
	logger     *slog.Logger
}

func newOptions(opts []Option) *options {
	o := &options{
		passphrase: noPassphrase{},
		observer:   parser.NopObserver{},
		now:        time.Now,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithPassphrase uses a fixed passphrase.
func WithPassphrase(pass string) Option {
	return func(o *options) {
		o.passphrase = PassphraseFunc(func() (string, bool) { return pass, pass != "" })
	}
}

// WithPassphraseProvider asks p for the passphrase only when one is needed.
func WithPassphraseProvider(p PassphraseProvider) Option {
	return func(o *options) {
		if p != nil {
			o.passphrase = p
		}
	}
}

// WithObserver forwards parse events to obs.
func WithObserver(obs parser.Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observer = obs
		}
	}
}

// WithClock sets the fallback time source for creation dates.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLogger sets the logger for load and save diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
