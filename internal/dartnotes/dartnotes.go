// Package dartnotes reads and writes the DartNotes container: a sequence of
// blocks, each a decimal length on its own line followed by exactly that
// many bytes.
package dartnotes

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/starford/knt/internal/apperr"
	"github.com/starford/knt/internal/models"
)

// Signature must appear in the container header record.
const Signature = "_DART_ID"

// ContainerVersion is written in the header record.
const ContainerVersion = "1"

const fieldSep = "\x00"

// Decode reads a DartNotes container. Every note becomes a flat note with a
// single untitled section holding the raw content.
func Decode(r io.Reader) (*models.Document, error) {
	br := bufio.NewReader(r)

	n, err := readLength(br)
	if err != nil || n <= 0 {
		return nil, fmt.Errorf("%w: missing header length", apperr.ErrInvalidContainerHeader)
	}
	header, err := readBlock(br, n)
	if err != nil {
		return nil, fmt.Errorf("%w: header: %v", apperr.ErrInvalidContainerHeader, err)
	}
	if !bytes.Contains(header, []byte(Signature)) {
		return nil, fmt.Errorf("%w: signature %s not found", apperr.ErrInvalidContainerHeader, Signature)
	}

	doc := models.NewDocument()
	doc.Format = models.FormatDartNotes
	parts := strings.Split(string(header), fieldSep)
	if len(parts) >= 2 {
		doc.ContainerVersion = parts[1]
	}
	if len(parts) >= 3 {
		doc.ContainerReserved = parts[2]
	}
	if len(parts) >= 4 {
		if tab, err := strconv.Atoi(strings.TrimSpace(parts[3])); err == nil {
			doc.ActiveNote = tab
		}
	}

	for i := 0; ; i++ {
		note, err := readNote(br)
		if err != nil {
			return nil, fmt.Errorf("dartnotes: note %d: %w", i, err)
		}
		if note == nil {
			break
		}
		doc.Notes = append(doc.Notes, note)
	}
	return doc, nil
}

// readNote returns nil at the end of the container.
func readNote(br *bufio.Reader) (*models.Note, error) {
	n, err := readLength(br)
	if errors.Is(err, io.EOF) || (err == nil && n <= 0) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	header, err := readBlock(br, n)
	if err != nil {
		return nil, err
	}
	parts := strings.Split(string(header), fieldSep)
	note := models.NewNote(parts[0])
	if len(parts) >= 2 {
		note.Created = parts[1]
	}

	n, err = readLength(br)
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: content block of %q is missing", apperr.ErrMalformedRecord, note.Name)
	}
	if err != nil {
		return nil, err
	}
	var content []byte
	if n > 0 {
		if content, err = readBlock(br, n); err != nil {
			return nil, err
		}
	}
	note.AddSection("", string(content))
	return note, nil
}

// readLength reads one length line. A blank line reads as zero.
func readLength(br *bufio.Reader) (int, error) {
	line, err := br.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("dartnotes: read length: %w", err)
	}
	if errors.Is(err, io.EOF) && line == "" {
		return 0, io.EOF
	}
	s := strings.TrimSpace(line)
	if s == "" {
		return 0, nil
	}
	n, convErr := strconv.Atoi(s)
	if convErr != nil {
		return 0, fmt.Errorf("%w: length %q is not a number", apperr.ErrMalformedRecord, s)
	}
	return n, nil
}

// readBlock copies at most n bytes, so a bogus length cannot allocate more
// than the input actually holds.
func readBlock(br *bufio.Reader, n int) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := io.CopyN(&buf, br, int64(n)); err != nil {
		return nil, fmt.Errorf("%w: block of %d bytes is truncated", apperr.ErrMalformedRecord, n)
	}
	return buf.Bytes(), nil
}

// Encode writes doc as a DartNotes container. Sections of a note are joined
// with newlines; tree notes contribute their node contents in walk order.
// The header keeps the version and reserved fields read by Decode.
func Encode(w io.Writer, doc *models.Document) error {
	version := doc.ContainerVersion
	if version == "" {
		version = ContainerVersion
	}
	if strings.Contains(version, fieldSep) || strings.Contains(doc.ContainerReserved, fieldSep) {
		return fmt.Errorf("%w: container header holds a NUL byte", apperr.ErrMalformedRecord)
	}
	bw := bufio.NewWriter(w)
	header := strings.Join([]string{Signature, version, doc.ContainerReserved, strconv.Itoa(doc.ActiveNote)}, fieldSep)
	writeBlock(bw, []byte(header))

	for _, n := range doc.Notes {
		if strings.Contains(n.Name, fieldSep) || strings.Contains(n.Created, fieldSep) {
			return fmt.Errorf("%w: note %q holds a NUL byte", apperr.ErrMalformedRecord, n.Name)
		}
		writeBlock(bw, []byte(n.Name+fieldSep+n.Created))
		writeBlock(bw, []byte(flatten(n)))
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("dartnotes: write: %w", err)
	}
	return nil
}

// writeBlock ignores errors; bufio.Writer keeps the first one for Flush.
func writeBlock(bw *bufio.Writer, b []byte) {
	bw.WriteString(strconv.Itoa(len(b)))
	bw.WriteByte('\n')
	bw.Write(b)
}

func flatten(n *models.Note) string {
	var parts []string
	for _, s := range n.Sections {
		parts = append(parts, s.Content)
	}
	if n.Tree != nil {
		n.Tree.Walk(func(node *models.TreeNode, _ int) {
			parts = append(parts, node.Content)
		})
	}
	return strings.Join(parts, "\n")
}
