package parser

import (
	"strconv"
	"strings"
	"time"

	"github.com/starford/knt/internal/models"
)

// DateLayout is the layout of the '#C' creation date.
const DateLayout = "02-01-2006 15:04:05"

// Header field codes, the character following '#'.
const (
	FieldDescription    = 'D'
	FieldDescriptionAlt = '/'
	FieldComment        = '?'
	FieldActiveNote     = '$'
	FieldCreated        = 'C'
	FieldFlags          = '^'
	FieldFormatSettings = 'F'
	FieldBookmark       = 'B'
)

// headerField applies one header line with its '#' already removed.
// Unknown codes are ignored.
func (p *parser) headerField(field string) {
	if len(field) < 2 {
		return
	}
	code, value := field[0], strings.TrimSpace(field[1:])
	doc := p.doc
	switch code {
	case FieldDescription, FieldDescriptionAlt:
		doc.Description = value
	case FieldActiveNote:
		if n, err := strconv.Atoi(value); err == nil {
			doc.ActiveNote = n
		}
	case FieldCreated:
		t, err := time.ParseInLocation(DateLayout, value, time.Local)
		if err != nil {
			t = p.cfg.now()
		}
		doc.Created = t
	case FieldFlags:
		doc.Flags = models.ParseFlags(value)
		if doc.Flags.ReadOnly {
			doc.ReadOnly = true
		}
	case FieldFormatSettings:
		doc.FormatSettings = value
	case FieldBookmark:
		p.bookmark(value)
	}
}

// bookmark decodes "slot,noteID,position,name". The name may contain commas.
func (p *parser) bookmark(value string) {
	parts := strings.SplitN(value, ",", 4)
	if len(parts) < 3 {
		return
	}
	slot, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	noteID, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	pos, err3 := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err1 != nil || err2 != nil || err3 != nil {
		return
	}
	b := models.Bookmark{NoteID: noteID, Position: pos}
	if len(parts) == 4 {
		b.Name = parts[3]
	}
	p.doc.SetBookmark(slot, b)
}
