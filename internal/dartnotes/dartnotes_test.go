package dartnotes

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/knt/internal/apperr"
	"github.com/starford/knt/internal/models"
)

// block renders one length-prefixed block.
func block(s string) string {
	return fmt.Sprintf("%d\n%s", len(s), s)
}

func TestDecode(t *testing.T) {
	input := block("_DART_ID\x001\x00\x001") +
		block("Shopping\x0001-02-2003") + block("milk\neggs") +
		block("Ideas\x00") + block("{\\rtf1 big}")

	doc, err := Decode(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, models.FormatDartNotes, doc.Format)
	assert.Equal(t, 1, doc.ActiveNote)
	require.Len(t, doc.Notes, 2)

	first := doc.Notes[0]
	assert.Equal(t, "Shopping", first.Name)
	assert.Equal(t, "01-02-2003", first.Created)
	assert.Equal(t, models.KindFlat, first.Kind)
	require.Len(t, first.Sections, 1)
	assert.Equal(t, models.Section{Title: "", Content: "milk\neggs"}, first.Sections[0])

	assert.True(t, doc.Notes[1].IsRTF())
}

func TestDecode_StopsOnZeroLength(t *testing.T) {
	input := block("_DART_ID\x001\x00\x000") + block("a\x00") + block("x") + "0\n" + block("b\x00") + block("y")
	doc, err := Decode(strings.NewReader(input))
	require.NoError(t, err)
	assert.Len(t, doc.Notes, 1)
}

func TestDecode_EmptyContent(t *testing.T) {
	input := block("_DART_ID\x001\x00\x000") + block("a\x00") + "0\n" + block("b\x00") + block("y")
	doc, err := Decode(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, doc.Notes, 2)
	assert.Equal(t, "", doc.Notes[0].Sections[0].Content)
	assert.Equal(t, "y", doc.Notes[1].Sections[0].Content)
}

func TestDecode_InvalidHeader(t *testing.T) {
	cases := map[string]string{
		"no signature":   block("OTHER\x001\x00\x000"),
		"truncated":      "40\n_DART_ID",
		"empty":          "",
		"zero length":    "0\n",
		"not a number":   "abc\n_DART_ID",
		"negative":       "-3\n",
		"signature late": block("xxxx") + block("_DART_ID"),
		"huge length":    "99999999999\n_DART_ID",
	}
	for name, in := range cases {
		_, err := Decode(strings.NewReader(in))
		assert.ErrorIs(t, err, apperr.ErrInvalidContainerHeader, name)
	}
}

func TestDecode_MalformedRecords(t *testing.T) {
	head := block("_DART_ID\x001\x00\x000")
	cases := map[string]string{
		"bad length":        head + "1x\nabc",
		"truncated header":  head + "20\nshort",
		"missing content":   head + block("a\x00"),
		"truncated content": head + block("a\x00") + "10\nabc",
		"huge note length":  head + "999999999999999999\n",
		"huge content":      head + block("a\x00") + "99999999999\nabc",
	}
	for name, in := range cases {
		_, err := Decode(strings.NewReader(in))
		assert.ErrorIs(t, err, apperr.ErrMalformedRecord, name)
	}
}

func TestEncode_RoundTrip(t *testing.T) {
	doc := models.NewDocument()
	doc.ActiveNote = 1
	a := models.NewNote("first")
	a.Created = "today"
	a.AddSection("", "line 1\nline 2\n")
	doc.AddNote(a)

	tree := models.NewTreeNote("tree")
	root, _ := tree.Tree.Add(models.NoParent, models.TreeNode{Content: "root"})
	tree.Tree.Add(root, models.TreeNode{Content: "leaf"})
	doc.AddNote(tree)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, doc))

	out, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 1, out.ActiveNote)
	require.Len(t, out.Notes, 2)
	assert.Equal(t, "first", out.Notes[0].Name)
	assert.Equal(t, "today", out.Notes[0].Created)
	assert.Equal(t, "line 1\nline 2\n", out.Notes[0].Sections[0].Content)
	assert.Equal(t, "root\nleaf", out.Notes[1].Sections[0].Content)
}

func TestEncode_RejectsNUL(t *testing.T) {
	doc := models.NewDocument()
	doc.AddNote(models.NewNote("bad\x00name"))
	assert.ErrorIs(t, Encode(&bytes.Buffer{}, doc), apperr.ErrMalformedRecord)
}

func TestEncode_KeepsContainerHeader(t *testing.T) {
	input := block("_DART_ID\x003\x00kept\x000") + block("a\x00") + block("x")
	doc, err := Decode(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, "3", doc.ContainerVersion)
	assert.Equal(t, "kept", doc.ContainerReserved)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, doc))
	assert.Equal(t, input, buf.String())
}

func TestEncode_DefaultVersion(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, models.NewDocument()))
	assert.Equal(t, block("_DART_ID\x001\x00\x00-1"), buf.String())
}
