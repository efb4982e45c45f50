// Package format recognizes the container of a note file from its first
// bytes and checks the version it declares.
package format

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"

	"github.com/starford/knt/internal/apperr"
	"github.com/starford/knt/internal/models"
)

// File tags.
const (
	TagKeyNote    = "GFKNT"
	TagKeyNoteOld = "GFKNX"
	TagEncrypted  = "GFKNE"
)

// HeaderSize is the number of leading bytes inspected by Detect.
const HeaderSize = 12

var versionRe = regexp.MustCompile(`(\d+)\.(\d+)`)

// Detect classifies a file from its first HeaderSize bytes.
func Detect(window []byte) (models.FileFormat, error) {
	if len(window) > HeaderSize {
		window = window[:HeaderSize]
	}
	switch {
	case bytes.Contains(window, []byte(TagKeyNote)), bytes.Contains(window, []byte(TagKeyNoteOld)):
		return models.FormatKeyNote, nil
	case bytes.Contains(window, []byte(TagEncrypted)):
		return models.FormatEncrypted, nil
	case looksLikeDartNotes(window):
		return models.FormatDartNotes, nil
	}
	return 0, apperr.ErrUnrecognizedFormat
}

// looksLikeDartNotes reports whether the window opens with a decimal length
// line, the first record of a DartNotes container.
func looksLikeDartNotes(window []byte) bool {
	line, _, found := bytes.Cut(window, []byte("\n"))
	line = bytes.TrimRight(line, "\r")
	if !found && len(window) >= HeaderSize {
		return false
	}
	if len(line) == 0 {
		return false
	}
	for _, c := range line {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// CheckVersion extracts the major.minor token of the first header line and
// rejects files newer than the supported major version. A missing token is
// treated as the current version.
func CheckVersion(window []byte) (models.Version, error) {
	if len(window) > HeaderSize {
		window = window[:HeaderSize]
	}
	line, _, _ := bytes.Cut(window, []byte("\n"))
	m := versionRe.FindSubmatch(line)
	if m == nil {
		return models.CurrentVersion(), nil
	}
	major, errMajor := strconv.Atoi(string(m[1]))
	minor, errMinor := strconv.Atoi(string(m[2]))
	if errMajor != nil || errMinor != nil {
		return models.CurrentVersion(), nil
	}
	v := models.Version{Major: major, Minor: minor}
	if v.Major > models.VersionMajor {
		return v, fmt.Errorf("%w: file is %s, supported up to %d.x", apperr.ErrIncompatibleVersion, v, models.VersionMajor)
	}
	return v, nil
}

// Tag returns the tag written at the start of a file of the given format.
func Tag(f models.FileFormat) string {
	if f == models.FormatEncrypted {
		return TagEncrypted
	}
	return TagKeyNote
}

// HeaderLine returns the first line of a KeyNote or encrypted file.
func HeaderLine(f models.FileFormat, v models.Version) string {
	return fmt.Sprintf("%s %s", Tag(f), v)
}
