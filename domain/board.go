// Package domain contains core concepts of the fences system.
// This file defines Board entries and their content chunks.
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// ChunkKind discriminates the content of one accumulated chunk.
type ChunkKind string

const (
	ChunkText       ChunkKind = "text"
	ChunkAttachment ChunkKind = "attachment"
)

// Chunk is one unit of accumulated content. Text chunks carry the text
// in Text; attachment chunks carry an external file reference plus an
// optional caption and detected MIME type.
type Chunk struct {
	Kind    ChunkKind `cbor:"kind"`
	Text    string    `cbor:"text,omitempty"`
	FileRef string    `cbor:"file_ref,omitempty"`
	Caption string    `cbor:"caption,omitempty"`
	Mime    string    `cbor:"mime,omitempty"`
}

// TextChunk builds a plain text chunk.
func TextChunk(text string) Chunk {
	return Chunk{Kind: ChunkText, Text: text}
}

// Entry is one saved note on a board: a sender alias plus the ordered
// chunks that were accumulated before saving.
type Entry struct {
	ID             uuid.UUID `cbor:"id"`
	SenderAlias    string    `cbor:"sender_alias"`
	SenderUsername string    `cbor:"sender_username,omitempty"`
	Parts          []Chunk   `cbor:"parts"`
	CreatedAt      time.Time `cbor:"created_at"`
}

// NewEntry stamps a fresh entry with an ID and creation time.
func NewEntry(alias, senderUsername string, parts []Chunk) Entry {
	return Entry{
		ID:             uuid.New(),
		SenderAlias:    alias,
		SenderUsername: senderUsername,
		Parts:          parts,
		CreatedAt:      time.Now().UTC(),
	}
}

// ContentEqual reports full structural equality of two entries,
// ignoring the ID. The store layer collapses content-equal entries
// into one, mirroring a set-insert semantic.
func (e Entry) ContentEqual(other Entry) bool {
	if e.SenderAlias != other.SenderAlias || e.SenderUsername != other.SenderUsername {
		return false
	}
	if !e.CreatedAt.Equal(other.CreatedAt) || len(e.Parts) != len(other.Parts) {
		return false
	}
	for i := range e.Parts {
		if e.Parts[i] != other.Parts[i] {
			return false
		}
	}
	return true
}

// Board is the ordered collection of entries addressed to one member.
// Entries are appended, never edited or reordered.
type Board struct {
	Username string  `cbor:"username"`
	Entries  []Entry `cbor:"entries"`
}

// Aliases lists the sender aliases present on the board, in entry order.
func (b Board) Aliases() []string {
	return lo.Map(b.Entries, func(e Entry, _ int) string { return e.SenderAlias })
}

// HasAlias reports whether an entry under the given alias already
// exists. Alias uniqueness is scoped to a single board, not global.
func (b Board) HasAlias(alias string) bool {
	return lo.ContainsBy(b.Entries, func(e Entry) bool { return e.SenderAlias == alias })
}

// EntryByAlias returns the entry saved under the given alias.
func (b Board) EntryByAlias(alias string) (Entry, bool) {
	return lo.Find(b.Entries, func(e Entry) bool { return e.SenderAlias == alias })
}

// Render formats the whole board as a plain text document, one alias
// heading per entry followed by its chunks.
func (b Board) Render() string {
	var sb strings.Builder
	for _, entry := range b.Entries {
		fmt.Fprintf(&sb, "%s:\n", entry.SenderAlias)
		for _, part := range entry.Parts {
			switch part.Kind {
			case ChunkAttachment:
				fmt.Fprintf(&sb, " [attachment %s] %s\n\n", part.FileRef, part.Caption)
			default:
				fmt.Fprintf(&sb, " %s\n\n", part.Text)
			}
		}
		sb.WriteString("____________\n")
	}
	return sb.String()
}
