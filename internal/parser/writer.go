package parser

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/starford/knt/internal/apperr"
	"github.com/starford/knt/internal/format"
	"github.com/starford/knt/internal/models"
	"github.com/starford/knt/internal/rtf"
)

// Property codes the parser interprets itself. Extra entries using them are
// not written back.
var (
	noteCodes = map[string]bool{"TT": true, "ND": true, "ID": true, "LV": true, "DC": true, "FL": true}
	nodeCodes = map[string]bool{"TT": true, "ND": true, "LV": true, "VM": true, "VF": true}
)

// Encode writes doc as a plain KeyNote stream, starting with the GFKNT tag
// line. Content that could not be read back unchanged is rejected with
// ErrMalformedRecord.
func Encode(w io.Writer, doc *models.Document) error {
	e := &encoder{w: bufio.NewWriter(w)}
	e.header(doc)
	for i, n := range doc.Notes {
		e.note(i, n)
	}
	e.line(MarkerEnd)
	if e.err != nil {
		return e.err
	}
	if err := e.w.Flush(); err != nil {
		return fmt.Errorf("parser: flush: %w", err)
	}
	return nil
}

type encoder struct {
	w   *bufio.Writer
	err error
}

func (e *encoder) line(s string) {
	if e.err != nil {
		return
	}
	if _, err := e.w.WriteString(s); err != nil {
		e.err = fmt.Errorf("parser: write: %w", err)
		return
	}
	if err := e.w.WriteByte('\n'); err != nil {
		e.err = fmt.Errorf("parser: write: %w", err)
	}
}

func (e *encoder) fail(msg string, args ...any) {
	if e.err == nil {
		e.err = fmt.Errorf("%w: "+msg, append([]any{apperr.ErrMalformedRecord}, args...)...)
	}
}

// single checks that a value fits on one line.
func (e *encoder) single(what, value string) bool {
	if strings.ContainsAny(value, "\r\n") {
		e.fail("%s %q spans several lines", what, value)
		return false
	}
	return true
}

func (e *encoder) field(code byte, value string) {
	if e.single("header field "+string(code), value) {
		e.line(CommentPrefix + string(code) + " " + value)
	}
}

func (e *encoder) prop(code, value string) {
	if e.single("property "+code, value) {
		e.line(code + "=" + value)
	}
}

func (e *encoder) header(doc *models.Document) {
	e.line(format.HeaderLine(models.FormatKeyNote, models.CurrentVersion()))
	if doc.Description != "" {
		e.field(FieldDescription, doc.Description)
	}
	e.field(FieldCreated, doc.Created.Format(DateLayout))
	if doc.ActiveNote != models.NoActiveNote {
		e.field(FieldActiveNote, strconv.Itoa(doc.ActiveNote))
	}
	flags := doc.Flags
	flags.ReadOnly = flags.ReadOnly || doc.ReadOnly
	e.field(FieldFlags, flags.String())
	if doc.FormatSettings != "" {
		e.field(FieldFormatSettings, doc.FormatSettings)
	}
	doc.Bookmarks(func(i int, b models.Bookmark) {
		e.field(FieldBookmark, fmt.Sprintf("%d,%d,%d,%s", i, b.NoteID, b.Position, b.Name))
	})
}

func (e *encoder) note(i int, n *models.Note) {
	if n == nil {
		e.fail("note %d is nil", i)
		return
	}
	if n.Kind == models.KindTree {
		e.line(SentinelTreeNote)
	} else {
		e.line(SentinelFlatNote)
	}
	e.line(MarkerNote)
	if n.Name != "" {
		e.prop("TT", n.Name)
	}
	e.prop("ID", strconv.Itoa(n.ID))
	if n.Level != 0 {
		e.prop("LV", strconv.Itoa(n.Level))
	}
	if n.Created != "" {
		e.prop("DC", n.Created)
	}
	if n.Flags != "" {
		e.prop("FL", n.Flags)
	}
	e.extras(n.Extra, noteCodes)

	if n.Kind == models.KindTree {
		if n.Tree != nil {
			e.tree(n.Tree)
		}
		return
	}
	for _, s := range n.Sections {
		e.line(MarkerSection)
		if s.Title != "" {
			e.prop("TT", s.Title)
		}
		e.content(n.Name, s.Content)
	}
}

func (e *encoder) tree(t *models.Tree) {
	t.Walk(func(node *models.TreeNode, depth int) {
		e.line(SentinelBeginNode)
		if node.Name != "" {
			e.prop("ND", node.Name)
		}
		e.prop("LV", strconv.Itoa(depth))
		if node.IsVirtual() {
			e.line(SentinelVirtual)
			e.prop("VM", node.Virtual.String())
			e.prop("VF", node.VirtualSource)
		}
		e.extras(node.Extra, nodeCodes)
		e.content(node.Name, node.Content)
		e.line(SentinelEndNode)
	})
}

func (e *encoder) extras(extra map[string]string, reserved map[string]bool) {
	codes := make([]string, 0, len(extra))
	for code := range extra {
		if !reserved[code] && propertyRe.MatchString(code+"=") {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)
	for _, code := range codes {
		e.prop(code, extra[code])
	}
}

func (e *encoder) content(owner, content string) {
	e.line(MarkerContent)
	if content == "" {
		return
	}
	if err := checkContent(content); err != nil {
		e.fail("content of %q: %v", owner, err)
		return
	}
	for _, l := range strings.Split(content, "\n") {
		e.line(l)
	}
}

// checkContent replays content through the same rules Parse uses and
// reports the first line that would be read as structure.
func checkContent(content string) error {
	var block rtf.Block
	inRTF := false
	for i, l := range strings.Split(content, "\n") {
		if strings.HasSuffix(l, "\r") {
			return fmt.Errorf("line %d ends with a carriage return", i+1)
		}
		if inRTF {
			if block.Feed(l) {
				inRTF = false
			}
			continue
		}
		if IsMarker(strings.TrimSpace(l)) {
			return fmt.Errorf("line %d %q is a marker", i+1, l)
		}
		if rtf.IsRTF(l) {
			inRTF = !block.Begin(l)
		}
	}
	if inRTF {
		return fmt.Errorf("rtf payload is not closed")
	}
	return nil
}
