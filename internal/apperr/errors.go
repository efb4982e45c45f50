// Package apperr defines the error kinds surfaced by knt.
package apperr

import "errors"

var (
	ErrNotFound               = errors.New("not found")
	ErrUnrecognizedFormat     = errors.New("unrecognized file format")
	ErrIncompatibleVersion    = errors.New("incompatible file version")
	ErrPassphraseRequired     = errors.New("passphrase required for encrypted file")
	ErrDecryptionFailed       = errors.New("decryption failed")
	ErrInvalidContainerHeader = errors.New("invalid DartNotes container header")
	ErrMalformedRecord        = errors.New("malformed record")
	ErrReadOnly               = errors.New("document is read-only")
	ErrInvalidInput           = errors.New("invalid input")
	ErrConflict               = errors.New("checksum mismatch")
)
