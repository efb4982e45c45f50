package parser

import (
	"log/slog"

	"github.com/starford/knt/internal/models"
)

// Observer receives structural events while a stream is parsed.
type Observer interface {
	NoteStarted(kind models.NoteKind)
	SectionFinished(note *models.Note, s models.Section)
	NodeFinished(note *models.Note, n *models.TreeNode)
	NoteFinished(note *models.Note)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) NoteStarted(models.NoteKind)                  {}
func (NopObserver) SectionFinished(*models.Note, models.Section) {}
func (NopObserver) NodeFinished(*models.Note, *models.TreeNode)  {}
func (NopObserver) NoteFinished(*models.Note)                    {}

// SlogObserver logs every event at debug level.
type SlogObserver struct {
	Logger *slog.Logger
}

func (o SlogObserver) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

func (o SlogObserver) NoteStarted(kind models.NoteKind) {
	o.logger().Debug("note started", slog.String("kind", kind.String()))
}

func (o SlogObserver) SectionFinished(note *models.Note, s models.Section) {
	o.logger().Debug("section finished",
		slog.String("note", note.Name),
		slog.String("title", s.Title),
		slog.Int("bytes", len(s.Content)),
		slog.Bool("rtf", s.IsRTF()),
	)
}

func (o SlogObserver) NodeFinished(note *models.Note, n *models.TreeNode) {
	o.logger().Debug("node finished",
		slog.String("note", note.Name),
		slog.String("node", n.Name),
		slog.Int("level", n.Level),
		slog.String("virtual", n.Virtual.String()),
	)
}

func (o SlogObserver) NoteFinished(note *models.Note) {
	o.logger().Debug("note finished",
		slog.Int("id", note.ID),
		slog.String("name", note.Name),
		slog.String("kind", note.Kind.String()),
		slog.Int("sections", len(note.Sections)),
	)
}
