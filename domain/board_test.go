package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestBoard_HasAlias_ScopedToBoard(t *testing.T) {
	req := require.New(t)
	entry := Entry{
		ID:          uuid.New(),
		SenderAlias: "Secret admirer",
		Parts:       []Chunk{TextChunk("hi")},
		CreatedAt:   time.Now().UTC(),
	}
	boardX := Board{Username: "alice", Entries: []Entry{entry}}
	boardY := Board{Username: "bob"}

	req.True(boardX.HasAlias("Secret admirer"))
	req.False(boardY.HasAlias("Secret admirer"))
}

func TestEntry_ContentEqual_IgnoresID(t *testing.T) {
	req := require.New(t)
	at := time.Now().UTC()
	a := Entry{ID: uuid.New(), SenderAlias: "x", Parts: []Chunk{TextChunk("one"), TextChunk("two")}, CreatedAt: at}
	b := Entry{ID: uuid.New(), SenderAlias: "x", Parts: []Chunk{TextChunk("one"), TextChunk("two")}, CreatedAt: at}

	req.True(a.ContentEqual(b))

	b.Parts = append(b.Parts, TextChunk("three"))
	req.False(a.ContentEqual(b))
}

func TestDirectory_Expired(t *testing.T) {
	req := require.New(t)
	now := time.Now()

	req.False(Directory{}.Expired(now))

	past := now.Add(-time.Second)
	req.True(Directory{ExpirationAt: &past}.Expired(now))

	future := now.Add(time.Hour)
	req.False(Directory{ExpirationAt: &future}.Expired(now))
}
