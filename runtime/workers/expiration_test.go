package workers

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"fences-bot/contract"
	"fences-bot/domain"
	"fences-bot/repositories"
	"fences-bot/runtime"
	"fences-bot/services"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

const testLayout = "02.01.2006 15:04:05"

func TestExpirationMonitor_GatesCompose(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	t.Cleanup(func() { _ = db.Close() })

	log := slog.Default()
	repo := repositories.NewDirectoryRepository(db, log)
	svc := services.NewDirectoryService(repo, log, testLayout, domain.DefaultAliasByteLimit)
	req.NoError(svc.AddMember("alice", "Алиса", true))

	expired := &atomic.Bool{}
	monitor := NewExpirationMonitor(svc, expired, log)
	router := runtime.NewRouter(svc, runtime.NewRegistry(), nil, expired, log, domain.DefaultAliasByteLimit)

	write := contract.Event{
		Sender:  "alice",
		Address: 10,
		Kind:    contract.EventAction,
		Action:  runtime.ActionWrite,
	}
	back := contract.Event{
		Sender:  "alice",
		Address: 10,
		Kind:    contract.EventAction,
		Action:  runtime.ActionBack,
	}

	// No expiration stored yet: writing is open.
	monitor.Tick()
	req.False(expired.Load())
	resp := router.HandleEvent(context.Background(), write)
	req.Contains(resp.Text, "На чьем заборчике")
	router.HandleEvent(context.Background(), back)

	// One second in the past: the next tick closes the gate.
	past := time.Now().Add(-time.Second).Format(testLayout)
	req.NoError(svc.SetExpiration(past))
	monitor.Tick()
	req.True(expired.Load())
	resp = router.HandleEvent(context.Background(), write)
	req.Contains(resp.Text, "время вышло")

	// Extended into the future: writing reopens after a tick.
	future := time.Now().Add(time.Hour).Format(testLayout)
	req.NoError(svc.SetExpiration(future))
	monitor.Tick()
	req.False(expired.Load())
	resp = router.HandleEvent(context.Background(), write)
	req.Contains(resp.Text, "На чьем заборчике")
}

func TestExpirationMonitor_LogsOnlyOnTransition(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	t.Cleanup(func() { _ = db.Close() })

	log := slog.Default()
	repo := repositories.NewDirectoryRepository(db, log)
	svc := services.NewDirectoryService(repo, log, testLayout, domain.DefaultAliasByteLimit)

	expired := &atomic.Bool{}
	monitor := NewExpirationMonitor(svc, expired, log)

	// Repeated ticks with no stored expiration keep the flag clear.
	monitor.Tick()
	monitor.Tick()
	req.False(expired.Load())

	req.NoError(svc.SetExpiration(time.Now().Add(-time.Minute).Format(testLayout)))
	monitor.Tick()
	req.True(expired.Load())
	monitor.Tick()
	req.True(expired.Load())
}
