package store_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/smartcatan/go/internal/board"
	"github.com/mcdev12/smartcatan/go/internal/board/boardtest"
	"github.com/mcdev12/smartcatan/go/internal/store"
	"github.com/mcdev12/smartcatan/go/internal/synchronizer"
)

func openMemory(t *testing.T, retention int, opts ...store.Option) *store.Store {
	t.Helper()
	s, err := store.OpenSQLite(context.Background(), ":memory:", retention, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func change(gen uint64, source synchronizer.Source, prev *board.Snapshot, cur board.Snapshot, at time.Time) synchronizer.Change {
	return synchronizer.Change{Generation: gen, Source: source, Previous: prev, Current: cur, At: at}
}

func TestObserveRecordsRollsAndSessions(t *testing.T) {
	s := openMemory(t, 0)
	ctx := context.Background()
	at := time.Date(2025, 6, 1, 18, 30, 0, 0, time.UTC)

	idle := boardtest.Classic()
	active := idle
	active.Session.Active = true
	rolled := active.WithSelectedValue(9)

	require.NoError(t, s.Observe(ctx, change(1, synchronizer.SourcePoll, nil, idle, at)))
	require.NoError(t, s.Observe(ctx, change(2, synchronizer.SourcePoll, &idle, idle, at)))
	require.NoError(t, s.Observe(ctx, change(3, synchronizer.SourceStart, &idle, active, at)))
	require.NoError(t, s.Observe(ctx, change(4, synchronizer.SourceRoll, &active, rolled, at.Add(time.Second))))

	records, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)

	latest := records[0]
	require.Equal(t, uint64(4), latest.Generation)
	require.Equal(t, "roll", latest.Source)
	require.Equal(t, "classic", latest.Mode)
	require.True(t, latest.Active)
	require.Equal(t, 9, latest.SelectedValue)
	require.True(t, latest.RecordedAt.Equal(at.Add(time.Second)))

	var snap board.Snapshot
	require.NoError(t, json.Unmarshal(latest.Snapshot, &snap))
	require.Equal(t, rolled, snap)

	require.Equal(t, "start", records[1].Source)
	require.Zero(t, records[1].SelectedValue)
}

func TestRetentionPrunesOldest(t *testing.T) {
	s := openMemory(t, 3)
	ctx := context.Background()

	prev := boardtest.Classic()
	for v := 2; v <= 6; v++ {
		cur := prev.WithSelectedValue(v)
		require.NoError(t, s.Observe(ctx, change(uint64(v), synchronizer.SourceSelect, &prev, cur, time.Now())))
		prev = cur
	}

	records, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, []int{6, 5, 4}, []int{records[0].SelectedValue, records[1].SelectedValue, records[2].SelectedValue})
}

func TestObserveUsesClockWhenChangeHasNoTime(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC))
	s := openMemory(t, 0, store.WithClock(clock))
	ctx := context.Background()

	cur := boardtest.Classic().WithSelectedValue(7)
	require.NoError(t, s.Observe(ctx, change(1, synchronizer.SourceRoll, nil, cur, time.Time{})))

	records, err := s.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.True(t, records[0].RecordedAt.Equal(clock.Now()))
}

func TestOpenSQLiteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	s, err := store.Open(context.Background(), store.Config{Driver: store.DriverSQLite, SQLitePath: path})
	require.NoError(t, err)
	require.NoError(t, s.Ping(context.Background()))
	require.Equal(t, "store", s.Name())
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err = s.Recent(context.Background(), 1)
	require.ErrorIs(t, err, store.ErrStoreClosed)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := store.Open(context.Background(), store.Config{Driver: "mongo"})
	require.ErrorIs(t, err, store.ErrUnknownDriver)

	_, err = store.OpenSQLite(context.Background(), "  ", 0)
	require.Error(t, err)
}
