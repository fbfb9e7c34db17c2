// Package projection builds read-only views over stored boards.
// It never mutates boards or the directory.
package projection

import (
	"sort"
	"time"

	"fences-bot/domain"

	"github.com/samber/lo"
)

const previewRuneLimit = 60

// Item is one board entry flattened into the cross-board feed.
type Item struct {
	BoardOwner string
	Alias      string
	Preview    string
	Parts      int
	CreatedAt  time.Time
}

// Timeline is a chronological feed of every entry across all boards,
// oldest first.
type Timeline struct {
	Items []Item
}

// BuildTimeline flattens the given boards into a single feed sorted by
// creation time. Board owners are shown by label when the directory
// knows them, by username otherwise.
func BuildTimeline(dir *domain.Directory, boards []domain.Board) *Timeline {
	items := lo.FlatMap(boards, func(b domain.Board, _ int) []Item {
		owner := b.Username
		if member, ok := dir.FindByUsername(b.Username); ok {
			owner = member.Label
		}
		return lo.Map(b.Entries, func(e domain.Entry, _ int) Item {
			return Item{
				BoardOwner: owner,
				Alias:      e.SenderAlias,
				Preview:    preview(e),
				Parts:      len(e.Parts),
				CreatedAt:  e.CreatedAt,
			}
		})
	})

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return &Timeline{Items: items}
}

func preview(e domain.Entry) string {
	for _, part := range e.Parts {
		switch part.Kind {
		case domain.ChunkText:
			return truncate(part.Text)
		case domain.ChunkAttachment:
			if part.Caption != "" {
				return truncate(part.Caption)
			}
			return "[attachment]"
		}
	}
	return ""
}

func truncate(s string) string {
	runes := []rune(s)
	if len(runes) <= previewRuneLimit {
		return s
	}
	return string(runes[:previewRuneLimit]) + "…"
}
