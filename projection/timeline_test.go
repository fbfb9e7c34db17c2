package projection

import (
	"strings"
	"testing"
	"time"

	"fences-bot/domain"

	"github.com/stretchr/testify/require"
)

func TestBuildTimeline_SortsAcrossBoards(t *testing.T) {
	req := require.New(t)
	dir := &domain.Directory{Members: []domain.Member{
		{Username: "alice", Label: "Алиса"},
		{Username: "bob", Label: "Боб"},
	}}

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	boards := []domain.Board{
		{Username: "alice", Entries: []domain.Entry{
			{SenderAlias: "Сова", Parts: []domain.Chunk{domain.TextChunk("Привет")}, CreatedAt: base.Add(2 * time.Minute)},
		}},
		{Username: "bob", Entries: []domain.Entry{
			{SenderAlias: "Ёж", Parts: []domain.Chunk{domain.TextChunk("Здравствуй")}, CreatedAt: base},
			{SenderAlias: "Лис", Parts: []domain.Chunk{{Kind: domain.ChunkAttachment, FileRef: "f1", Caption: "фото"}}, CreatedAt: base.Add(time.Minute)},
		}},
	}

	timeline := BuildTimeline(dir, boards)

	req.Len(timeline.Items, 3)
	req.Equal("Ёж", timeline.Items[0].Alias)
	req.Equal("Лис", timeline.Items[1].Alias)
	req.Equal("Сова", timeline.Items[2].Alias)
	req.Equal("Боб", timeline.Items[0].BoardOwner)
	req.Equal("Алиса", timeline.Items[2].BoardOwner)
	req.Equal("фото", timeline.Items[1].Preview)
}

func TestBuildTimeline_FallsBackToUsername(t *testing.T) {
	req := require.New(t)
	boards := []domain.Board{
		{Username: "ghost", Entries: []domain.Entry{
			{SenderAlias: "Кот", Parts: []domain.Chunk{domain.TextChunk("мяу")}, CreatedAt: time.Now()},
		}},
	}

	timeline := BuildTimeline(&domain.Directory{}, boards)

	req.Len(timeline.Items, 1)
	req.Equal("ghost", timeline.Items[0].BoardOwner)
}

func TestBuildTimeline_TruncatesLongPreview(t *testing.T) {
	req := require.New(t)
	long := strings.Repeat("я", 80)
	boards := []domain.Board{
		{Username: "alice", Entries: []domain.Entry{
			{SenderAlias: "Сова", Parts: []domain.Chunk{domain.TextChunk(long)}, CreatedAt: time.Now()},
		}},
	}

	timeline := BuildTimeline(&domain.Directory{}, boards)

	req.Len(timeline.Items, 1)
	runes := []rune(timeline.Items[0].Preview)
	req.Len(runes, previewRuneLimit+1)
	req.Equal('…', runes[len(runes)-1])
}
