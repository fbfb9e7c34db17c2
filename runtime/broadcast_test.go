package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	"fences-bot/domain"
	"fences-bot/mocks"
	"fences-bot/repositories"
	"fences-bot/services"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newDispatcherFixture(t *testing.T) (*services.DirectoryService, *gomock.Controller) {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := repositories.NewDirectoryRepository(db, slog.Default())
	svc := services.NewDirectoryService(repo, slog.Default(), testLayout, domain.DefaultAliasByteLimit)
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	return svc, ctrl
}

func TestDispatcher_AllWithOneUnreachable(t *testing.T) {
	req := require.New(t)
	svc, ctrl := newDispatcherFixture(t)
	transport := mocks.NewMockTransport(ctrl)

	req.NoError(svc.AddMember("a", "Анна", false))
	req.NoError(svc.AddMember("b", "Борис", false))
	req.NoError(svc.AddMember("c", "Вера", false))
	req.NoError(svc.UpdateDeliveryAddress("a", 1))
	req.NoError(svc.UpdateDeliveryAddress("b", 2))
	// "Вера" never interacted: no delivery address.

	transport.EXPECT().DeliverText(gomock.Any(), int64(1), "сбор").Return(nil)
	transport.EXPECT().DeliverText(gomock.Any(), int64(2), "сбор").Return(nil)

	d := NewDispatcher(svc, transport, slog.Default())
	report := d.Dispatch(context.Background(), []domain.Chunk{domain.TextChunk("сбор")}, "", true)

	req.False(report.OK)
	req.Equal([]string{"Вера"}, report.Failed)
}

func TestDispatcher_FailFastPerRecipient(t *testing.T) {
	req := require.New(t)
	svc, ctrl := newDispatcherFixture(t)
	transport := mocks.NewMockTransport(ctrl)

	req.NoError(svc.AddMember("a", "Анна", false))
	req.NoError(svc.AddMember("b", "Борис", false))
	req.NoError(svc.UpdateDeliveryAddress("a", 1))
	req.NoError(svc.UpdateDeliveryAddress("b", 2))

	chunks := []domain.Chunk{domain.TextChunk("первый"), domain.TextChunk("второй")}

	// First chunk to Анна fails: the second chunk to her is skipped,
	// but Борис still gets everything.
	transport.EXPECT().DeliverText(gomock.Any(), int64(1), "первый").Return(fmt.Errorf("blocked"))
	transport.EXPECT().DeliverText(gomock.Any(), int64(2), "первый").Return(nil)
	transport.EXPECT().DeliverText(gomock.Any(), int64(2), "второй").Return(nil)

	d := NewDispatcher(svc, transport, slog.Default())
	report := d.Dispatch(context.Background(), chunks, "", true)

	req.False(report.OK)
	req.Equal([]string{"Анна"}, report.Failed)
}

func TestDispatcher_SingleRecipientWithAttachment(t *testing.T) {
	req := require.New(t)
	svc, ctrl := newDispatcherFixture(t)
	transport := mocks.NewMockTransport(ctrl)

	req.NoError(svc.AddMember("a", "Анна", false))
	req.NoError(svc.UpdateDeliveryAddress("a", 1))

	chunks := []domain.Chunk{
		domain.TextChunk("держи фото"),
		{Kind: domain.ChunkAttachment, FileRef: "photo-42", Caption: "с заборчика"},
	}
	transport.EXPECT().DeliverText(gomock.Any(), int64(1), "держи фото").Return(nil)
	transport.EXPECT().DeliverAttachment(gomock.Any(), int64(1), "photo-42", "с заборчика").Return(nil)

	d := NewDispatcher(svc, transport, slog.Default())
	report := d.Dispatch(context.Background(), chunks, "Анна", false)

	req.True(report.OK)
	req.Empty(report.Failed)
}

func TestDispatcher_UnknownTargetLabel(t *testing.T) {
	req := require.New(t)
	svc, ctrl := newDispatcherFixture(t)
	transport := mocks.NewMockTransport(ctrl)

	d := NewDispatcher(svc, transport, slog.Default())
	report := d.Dispatch(context.Background(), []domain.Chunk{domain.TextChunk("x")}, "Призрак", false)

	req.False(report.OK)
	req.Equal([]string{"Призрак"}, report.Failed)
}
