package internal

import (
	"io"
	"os"

	"github.com/starford/knt/internal/notefile"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config     *Config
	passphrase notefile.PassphraseProvider
	logOutput  io.Writer
	version    string
}

func newApplication(opts []Option) *application {
	app := &application{logOutput: os.Stdout, version: "dev"}
	for _, opt := range opts {
		opt(app)
	}
	return app
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithPassphraseProvider supplies passphrases for encrypted library files.
// It takes precedence over library.passphrase.
func WithPassphraseProvider(p notefile.PassphraseProvider) Option {
	return func(a *application) {
		a.passphrase = p
	}
}

// WithLogOutput redirects the JSON log stream, e.g. to stderr when stdout
// carries a protocol.
func WithLogOutput(w io.Writer) Option {
	return func(a *application) {
		if w != nil {
			a.logOutput = w
		}
	}
}

// WithVersion sets the version reported to MCP clients.
func WithVersion(v string) Option {
	return func(a *application) {
		if v != "" {
			a.version = v
		}
	}
}
