package main

import (
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/term"
)

// prompter supplies the passphrase of encrypted files. A fixed value wins;
// otherwise the user is asked once on the controlling terminal.
type prompter struct {
	fixed string
	in    *os.File
	out   io.Writer

	once sync.Once
	pass string
	ok   bool
}

func newPrompter(fixed string) *prompter {
	return &prompter{fixed: fixed, in: os.Stdin, out: os.Stderr}
}

// Passphrase implements notefile.PassphraseProvider.
func (p *prompter) Passphrase() (string, bool) {
	if p.fixed != "" {
		return p.fixed, true
	}
	p.once.Do(func() {
		if p.in == nil {
			return
		}
		fd := int(p.in.Fd())
		if !term.IsTerminal(fd) {
			return
		}
		fmt.Fprint(p.out, "Passphrase: ")
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(p.out)
		if err != nil {
			return
		}
		p.pass = string(b)
		p.ok = p.pass != ""
	})
	return p.pass, p.ok
}
