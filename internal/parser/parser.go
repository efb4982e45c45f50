// Package parser reads and writes the line-oriented KeyNote note format:
// a '#' header, marker-delimited note and section blocks, embedded RTF
// payloads and tree notes made of nested nodes.
package parser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/starford/knt/internal/models"
	"github.com/starford/knt/internal/rtf"
)

// Section markers, compared against the trimmed line.
const (
	MarkerNote    = "%-"
	MarkerSection = "%+"
	MarkerContent = "%:"
	MarkerEnd     = "%%"
)

// Sentinel lines.
const (
	SentinelEOF       = "#!EOF!#"
	SentinelFlatNote  = "#!RTF!#"
	SentinelTreeNote  = "#!TRE!#"
	SentinelBeginNode = "#!BeginNode!#"
	SentinelEndNode   = "#!EndNode!#"
	SentinelVirtual   = "#!VirtualNode!#"
)

// CommentPrefix opens a header field line.
const CommentPrefix = "#"

const bom = "\ufeff"

var propertyRe = regexp.MustCompile(`^([A-Z]{2})=(.*)$`)

// IsMarker reports whether a trimmed line changes the parser state.
func IsMarker(trimmed string) bool {
	switch trimmed {
	case MarkerNote, MarkerSection, MarkerContent, MarkerEnd,
		SentinelEOF, SentinelFlatNote, SentinelTreeNote,
		SentinelBeginNode, SentinelEndNode, SentinelVirtual:
		return true
	}
	return false
}

type state int

const (
	stateHeader state = iota
	stateAwaitingNote
	stateProperties
	stateContent
	stateRTF
	stateDone
)

func (s state) String() string {
	return [...]string{"header", "awaiting-note", "properties", "content", "rtf", "done"}[s]
}

// Option configures Parse.
type Option func(*config)

type config struct {
	observer Observer
	now      func() time.Time
}

// WithObserver reports parse events to o.
func WithObserver(o Observer) Option {
	return func(c *config) {
		if o != nil {
			c.observer = o
		}
	}
}

// WithClock sets the time source used when the creation date is absent or
// malformed.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		if now != nil {
			c.now = now
		}
	}
}

// Parse reads a plain KeyNote stream into a document. Malformed but
// recoverable input is accepted; only read errors are returned.
func Parse(r io.Reader, opts ...Option) (*models.Document, error) {
	cfg := config{observer: NopObserver{}, now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}

	p := &parser{
		cfg:  cfg,
		doc:  models.NewDocument(),
		kind: models.KindFlat,
	}
	p.doc.Created = time.Time{}

	br := bufio.NewReader(r)
	for p.state != stateDone {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			p.line++
			if p.line == 1 {
				line = strings.TrimPrefix(line, bom)
			}
			p.handle(strings.TrimRight(line, "\r\n"))
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parser: line %d: %w", p.line+1, err)
		}
	}
	p.finish()
	return p.doc, nil
}

type parser struct {
	cfg    config
	doc    *models.Document
	state  state
	resume state
	kind   models.NoteKind
	note   *noteBuilder
	block  rtf.Block
	line   int
}

func (p *parser) handle(raw string) {
	if p.state == stateRTF {
		if p.block.Feed(raw) {
			p.note.appendContent(p.block.Content())
			p.state = p.resume
		}
		return
	}

	trimmed := strings.TrimSpace(raw)
	if p.state == stateContent && !IsMarker(trimmed) {
		p.content(raw)
		return
	}
	if trimmed == "" {
		return
	}

	switch trimmed {
	case MarkerNote:
		p.startNote()
		return
	case MarkerSection:
		p.ensureNote()
		p.note.startSection()
		p.state = stateProperties
		return
	case MarkerContent:
		p.ensureNote()
		p.note.openContent()
		p.state = stateContent
		return
	case MarkerEnd, SentinelEOF:
		p.finishNote()
		p.state = stateDone
		return
	case SentinelFlatNote, SentinelTreeNote:
		p.finishNote()
		p.kind = models.KindFlat
		if trimmed == SentinelTreeNote {
			p.kind = models.KindTree
		}
		p.state = stateAwaitingNote
		return
	case SentinelBeginNode:
		p.ensureNote()
		p.note.beginNode()
		p.state = stateProperties
		return
	case SentinelEndNode:
		p.ensureNote()
		p.note.endNode()
		p.state = stateProperties
		return
	case SentinelVirtual:
		p.ensureNote()
		p.note.markVirtual()
		return
	}

	if p.state == stateHeader {
		if strings.HasPrefix(trimmed, CommentPrefix) {
			p.headerField(trimmed[len(CommentPrefix):])
			return
		}
		if isSignature(trimmed) {
			return
		}
	}

	p.ensureNote()
	if m := propertyRe.FindStringSubmatch(trimmed); m != nil {
		p.note.property(m[1], m[2])
		return
	}
	p.content(raw)
}

// content adds a content line to the open section or node, entering RTF
// mode when the line opens a payload. Any other state switches to content,
// so later blank and XX= lines stay text.
func (p *parser) content(raw string) {
	p.ensureNote()
	p.note.openContent()
	p.state = stateContent
	if rtf.IsRTF(raw) {
		if p.block.Begin(raw) {
			p.note.appendContent(p.block.Content())
			return
		}
		p.resume = p.state
		p.state = stateRTF
		return
	}
	p.note.appendContent(raw)
}

func (p *parser) ensureNote() {
	if p.note == nil {
		p.startNote()
	}
}

func (p *parser) startNote() {
	p.finishNote()
	p.note = newNoteBuilder(p.kind, p.cfg.observer)
	p.state = stateProperties
	p.cfg.observer.NoteStarted(p.kind)
}

func (p *parser) finishNote() {
	if p.note == nil {
		return
	}
	if note := p.note.build(); note != nil {
		p.doc.Notes = append(p.doc.Notes, note)
		p.cfg.observer.NoteFinished(note)
	}
	p.note = nil
	p.state = stateAwaitingNote
}

// finish closes whatever the stream left open.
func (p *parser) finish() {
	if p.state == stateRTF {
		p.note.appendContent(p.block.Content())
		p.state = p.resume
	}
	p.finishNote()
	p.state = stateDone
	if p.doc.Created.IsZero() {
		p.doc.Created = p.cfg.now()
	}
}

func isSignature(trimmed string) bool {
	return strings.HasPrefix(trimmed, "GFKN")
}
