package services

import (
	"log/slog"
	"testing"
	"time"

	"fences-bot/domain"
	apperrors "fences-bot/errors"
	"fences-bot/repositories"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

const testLayout = "02.01.2006 15:04:05"

func newTestService(t *testing.T) *DirectoryService {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	repo := repositories.NewDirectoryRepository(db, slog.Default())
	return NewDirectoryService(repo, slog.Default(), testLayout, domain.DefaultAliasByteLimit)
}

func TestDirectoryService_AddMember_ThenListAndBoard(t *testing.T) {
	req := require.New(t)
	svc := newTestService(t)

	req.NoError(svc.AddMember("alice", "Алиса", false))

	req.True(svc.IsMember("alice"))
	req.False(svc.IsAdmin("alice"))
	req.Equal([]string{"Алиса"}, svc.Labels(domain.RoleAll))
	req.Equal(map[string]string{"Алиса": "alice"}, svc.Contacts(domain.RoleAll))

	board, err := svc.BoardOf("alice")
	req.NoError(err)
	req.Empty(board.Entries)
}

func TestDirectoryService_AddMember_Conflicts(t *testing.T) {
	req := require.New(t)
	svc := newTestService(t)
	req.NoError(svc.AddMember("alice", "Алиса", false))

	req.ErrorIs(svc.AddMember("alice", "Другая", false), apperrors.ErrDuplicateUsername)
	req.ErrorIs(svc.AddMember("bob", "Алиса", true), apperrors.ErrDuplicateLabel)

	// Directory unchanged after the failed attempts.
	req.Equal([]string{"alice"}, svc.Usernames(domain.RoleAll))
}

func TestDirectoryService_RemoveMember_DeletesBoard(t *testing.T) {
	req := require.New(t)
	svc := newTestService(t)
	req.NoError(svc.AddMember("alice", "Алиса", false))

	// Removal works by label as well as by username.
	req.NoError(svc.RemoveMember("Алиса"))
	req.False(svc.IsMember("alice"))

	_, err := svc.BoardOf("alice")
	req.ErrorIs(err, apperrors.ErrBoardNotFound)

	// Idempotent: removing again is not an error.
	req.NoError(svc.RemoveMember("alice"))
}

func TestDirectoryService_SaveEntry_AliasUniquePerRecipient(t *testing.T) {
	req := require.New(t)
	svc := newTestService(t)
	req.NoError(svc.AddMember("x", "Икс", false))
	req.NoError(svc.AddMember("y", "Игрек", false))

	chunks := []domain.Chunk{domain.TextChunk("пока!")}
	req.NoError(svc.SaveEntry("Икс", "A", "sender", chunks))
	req.NoError(svc.SaveEntry("Игрек", "A", "sender", chunks))

	req.ErrorIs(svc.SaveEntry("Икс", "A", "other", chunks), apperrors.ErrDuplicateAlias)

	req.ErrorIs(svc.SaveEntry("Никто", "B", "sender", chunks), apperrors.ErrMemberNotFound)
}

func TestDirectoryService_SetAdminFlag(t *testing.T) {
	req := require.New(t)
	svc := newTestService(t)
	req.NoError(svc.AddMember("alice", "Алиса", false))

	req.NoError(svc.SetAdminFlag("Алиса", true))
	req.True(svc.IsAdmin("alice"))
	req.Equal([]string{"Алиса"}, svc.Labels(domain.RoleAdmin))
	req.Empty(svc.Labels(domain.RoleMember))

	req.NoError(svc.SetAdminFlag("alice", false))
	req.False(svc.IsAdmin("alice"))

	req.ErrorIs(svc.SetAdminFlag("ghost", true), apperrors.ErrMemberNotFound)
}

func TestDirectoryService_SetExpiration(t *testing.T) {
	req := require.New(t)
	svc := newTestService(t)

	req.ErrorIs(svc.SetExpiration("next tuesday"), apperrors.ErrInvalidTimestamp)
	req.Nil(svc.ExpirationAt())

	req.NoError(svc.SetExpiration("31.12.2026 23:59:59"))
	at := svc.ExpirationAt()
	req.NotNil(at)
	req.Equal(2026, at.Year())
	req.Equal(time.December, at.Month())

	// Past-dated timestamps are accepted as-is.
	req.NoError(svc.SetExpiration("01.01.2001 00:00:00"))
}

func TestDirectoryService_UpdateDeliveryAddress(t *testing.T) {
	req := require.New(t)
	svc := newTestService(t)
	req.NoError(svc.AddMember("alice", "Алиса", false))

	req.NoError(svc.UpdateDeliveryAddress("alice", 777))
	member, ok := svc.Resolve("alice")
	req.True(ok)
	req.Equal(int64(777), member.DeliveryAddress)

	req.ErrorIs(svc.UpdateDeliveryAddress("ghost", 1), apperrors.ErrMemberNotFound)
}
