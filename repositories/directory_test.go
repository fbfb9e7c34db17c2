package repositories

import (
	"log/slog"
	"testing"
	"time"

	"fences-bot/domain"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestDirectoryRepository_AddMember_CreatesBoard(t *testing.T) {
	req := require.New(t)
	repo := NewDirectoryRepository(openTestDB(t), slog.Default())

	req.NoError(repo.AddMember(domain.Member{Username: "alice", Label: "Алиса", IsAdmin: true}))

	dir, found, err := repo.GetSettings()
	req.NoError(err)
	req.True(found)
	req.Len(dir.Members, 1)
	req.Equal("alice", dir.Members[0].Username)
	req.True(dir.Members[0].IsAdmin)

	board, found, err := repo.GetBoard("alice")
	req.NoError(err)
	req.True(found)
	req.Empty(board.Entries)
}

func TestDirectoryRepository_RemoveMember_DeletesBoard(t *testing.T) {
	req := require.New(t)
	repo := NewDirectoryRepository(openTestDB(t), slog.Default())

	req.NoError(repo.AddMember(domain.Member{Username: "bob", Label: "Боб"}))
	req.NoError(repo.RemoveMember("bob"))

	dir, _, err := repo.GetSettings()
	req.NoError(err)
	req.Empty(dir.Members)

	_, found, err := repo.GetBoard("bob")
	req.NoError(err)
	req.False(found)

	// Idempotent delete.
	req.NoError(repo.RemoveMember("bob"))
}

func TestDirectoryRepository_AppendEntry_DeduplicatesContent(t *testing.T) {
	req := require.New(t)
	repo := NewDirectoryRepository(openTestDB(t), slog.Default())
	req.NoError(repo.AddMember(domain.Member{Username: "clara", Label: "Клара"}))

	at := time.Now().UTC()
	entry := domain.Entry{
		ID:          uuid.New(),
		SenderAlias: "Your neighbour",
		Parts:       []domain.Chunk{domain.TextChunk("over the fence")},
		CreatedAt:   at,
	}
	req.NoError(repo.AppendEntry("clara", entry))

	// Same content, fresh ID: collapses into the existing entry.
	entry.ID = uuid.New()
	req.NoError(repo.AppendEntry("clara", entry))

	board, _, err := repo.GetBoard("clara")
	req.NoError(err)
	req.Len(board.Entries, 1)

	// Different content under a different alias is kept.
	other := domain.Entry{
		ID:          uuid.New(),
		SenderAlias: "Someone else",
		Parts:       []domain.Chunk{domain.TextChunk("hello")},
		CreatedAt:   at,
	}
	req.NoError(repo.AppendEntry("clara", other))
	board, _, err = repo.GetBoard("clara")
	req.NoError(err)
	req.Len(board.Entries, 2)
}

func TestDirectoryRepository_Seed_Idempotent(t *testing.T) {
	req := require.New(t)
	repo := NewDirectoryRepository(openTestDB(t), slog.Default())

	expiration := time.Date(2026, 12, 31, 23, 59, 59, 0, time.UTC)
	admin := domain.Member{Username: "root", Label: "Вожатый", IsAdmin: true}

	req.NoError(repo.Seed(&admin, &expiration))
	req.NoError(repo.Seed(&admin, nil))

	dir, found, err := repo.GetSettings()
	req.NoError(err)
	req.True(found)
	req.Len(dir.Members, 1)
	req.NotNil(dir.ExpirationAt)
	req.True(dir.ExpirationAt.Equal(expiration))
}

func TestDirectoryRepository_SetAdminFlagAndAddress(t *testing.T) {
	req := require.New(t)
	repo := NewDirectoryRepository(openTestDB(t), slog.Default())
	req.NoError(repo.AddMember(domain.Member{Username: "dora", Label: "Дора"}))

	req.NoError(repo.SetAdminFlag("dora", true))
	req.NoError(repo.SetDeliveryAddress("dora", 4242))

	dir, _, err := repo.GetSettings()
	req.NoError(err)
	member, ok := dir.FindByUsername("dora")
	req.True(ok)
	req.True(member.IsAdmin)
	req.Equal(int64(4242), member.DeliveryAddress)
}
